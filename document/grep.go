package document

import (
	"regexp"
	"strings"

	"github.com/yogthos/matryoshka/mkerrors"
)

// GrepMatch is one regex hit. Index is the byte offset of the match within
// the document; LineNum is 1-based. Groups holds the captured groups in
// order, not counting the whole-match group.
type GrepMatch struct {
	Match   string
	Line    string
	LineNum int
	Index   int
	Groups  []string
}

// Grep finds every match of pattern in the document, in document order
// (ascending line number, then ascending offset within a line). Matching is
// case-insensitive and multiline. An uncompilable pattern is an
// InvalidPattern error.
func (d *Document) Grep(pattern string) ([]GrepMatch, error) {
	re, err := regexp.Compile("(?im)" + pattern)
	if err != nil {
		return nil, mkerrors.Wrap(mkerrors.KindInvalidPattern, err, "grep pattern %q does not compile", pattern)
	}

	locs := re.FindAllStringSubmatchIndex(d.text, -1)
	matches := make([]GrepMatch, 0, len(locs))

	for _, loc := range locs {
		start := loc[0]
		lineNum := 1 + strings.Count(d.text[:start], "\n")

		var groups []string
		for g := 1; g*2 < len(loc); g++ {
			if loc[g*2] < 0 {
				groups = append(groups, "")
				continue
			}
			groups = append(groups, d.text[loc[g*2]:loc[g*2+1]])
		}

		matches = append(matches, GrepMatch{
			Match:   d.text[loc[0]:loc[1]],
			Line:    d.Line(lineNum),
			LineNum: lineNum,
			Index:   start,
			Groups:  groups,
		})
	}

	return matches, nil
}
