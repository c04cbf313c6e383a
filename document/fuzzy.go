package document

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultFuzzyLimit is how many results FuzzySearch returns when the caller
// passes a non-positive limit.
const DefaultFuzzyLimit = 10

// FuzzyMatch is one fuzzy-search hit. Score is in [0, 1], higher is closer.
type FuzzyMatch struct {
	Line    string
	LineNum int
	Score   float64
}

// FuzzySearch scores every line of the document against the query and
// returns the top limit matches, score descending, ties broken by the lower
// line number. Lines that share nothing with the query are omitted.
func (d *Document) FuzzySearch(query string, limit int) []FuzzyMatch {
	if limit <= 0 {
		limit = DefaultFuzzyLimit
	}

	q := foldText(query)
	qGrams := bigrams(q)

	var matches []FuzzyMatch
	for i, line := range d.lines {
		score := fuzzyScore(q, qGrams, foldText(line))
		if score <= 0 {
			continue
		}
		matches = append(matches, FuzzyMatch{
			Line:    line,
			LineNum: i + 1,
			Score:   score,
		})
	}

	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].Score != matches[b].Score {
			return matches[a].Score > matches[b].Score
		}
		return matches[a].LineNum < matches[b].LineNum
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// fuzzyScore blends bigram overlap with an exact-substring bonus. A line
// containing the whole query scores at least 0.75 regardless of its length.
func fuzzyScore(query string, qGrams map[string]int, line string) float64 {
	if query == "" || line == "" {
		return 0
	}

	dice := diceCoefficient(qGrams, bigrams(line))
	if strings.Contains(line, query) {
		if dice < 0.5 {
			dice = 0.5
		}
		return 0.5 + dice/2
	}
	return dice
}

// diceCoefficient is 2*|A∩B| / (|A|+|B|) over bigram multisets.
func diceCoefficient(a, b map[string]int) float64 {
	total := 0
	for _, n := range a {
		total += n
	}
	for _, n := range b {
		total += n
	}
	if total == 0 {
		return 0
	}

	overlap := 0
	for g, n := range a {
		if m, ok := b[g]; ok {
			if m < n {
				n = m
			}
			overlap += n
		}
	}
	return float64(2*overlap) / float64(total)
}

func bigrams(s string) map[string]int {
	grams := map[string]int{}
	runes := []rune(s)
	for i := 0; i+1 < len(runes); i++ {
		grams[string(runes[i:i+2])]++
	}
	return grams
}

// foldText normalizes to NFC and lowercases, so that composed and decomposed
// spellings of the same text compare equal.
func foldText(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}
