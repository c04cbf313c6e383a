package document

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/yogthos/matryoshka/mkerrors"
)

// Search is a read-only full-text view over a document, indexed per line.
// It answers phrase queries, boolean queries (implicit AND, explicit OR and
// NOT), prefix-wildcard queries, and NEAR proximity queries. The engine does
// not own a Search; the session builds one on demand and the handle registry
// wraps the result lines into a handle.
type Search struct {
	doc    *Document
	folded []string
	tokens [][]string
}

// SearchHit is one matching line. Score sums the occurrence counts of the
// matched query terms (a satisfied NEAR pair adds one), and only orders
// results in the relevance variant.
type SearchHit struct {
	LineNum int
	Line    string
	Score   float64
}

// NewSearch indexes the document for full-text queries.
func NewSearch(d *Document) *Search {
	s := &Search{
		doc:    d,
		folded: make([]string, len(d.lines)),
		tokens: make([][]string, len(d.lines)),
	}
	for i, line := range d.lines {
		s.folded[i] = foldText(line)
		s.tokens[i] = tokenize(s.folded[i])
	}
	return s
}

// Query returns every matching line in document order.
func (s *Search) Query(query string) ([]SearchHit, error) {
	atoms, err := parseQuery(query)
	if err != nil {
		return nil, err
	}
	return s.match(atoms), nil
}

// QueryRelevance returns matching lines sorted by score descending, line
// number ascending on ties.
func (s *Search) QueryRelevance(query string) ([]SearchHit, error) {
	hits, err := s.Query(query)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].LineNum < hits[b].LineNum
	})
	return hits, nil
}

// Highlight wraps every query-term occurrence in the line with » and «.
// Negated and proximity atoms do not highlight.
func (s *Search) Highlight(query, line string) string {
	atoms, err := parseQuery(query)
	if err != nil {
		return line
	}

	out := line
	for _, atom := range atoms {
		for _, alt := range atom.alts {
			if alt.negate || alt.near != nil || alt.text == "" {
				continue
			}
			pattern := "(?i)" + regexp.QuoteMeta(alt.text)
			if alt.prefix {
				pattern += `\w*`
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				continue
			}
			out = re.ReplaceAllString(out, "»$0«")
		}
	}
	return out
}

// queryAtom is one searchable unit: a term or phrase (optionally a prefix
// wildcard or negated), or a NEAR pair.
type queryAtom struct {
	text   string
	prefix bool
	negate bool
	near   *nearSpec
}

type nearSpec struct {
	a, b string
	dist int
}

// queryClause is a set of OR-joined alternatives. Clauses combine with
// implicit AND.
type queryClause struct {
	alts []queryAtom
}

var nearRE = regexp.MustCompile(`^NEAR/(\d+)$`)

func parseQuery(query string) ([]queryClause, error) {
	raw := splitQuery(query)
	if len(raw) == 0 {
		return nil, mkerrors.New(mkerrors.KindParse, "empty search query")
	}

	var clauses []queryClause
	negateNext := false

	for i := 0; i < len(raw); i++ {
		word := raw[i]

		switch {
		case word == "NOT":
			negateNext = true

		case word == "OR":
			if len(clauses) == 0 || i+1 >= len(raw) {
				return nil, mkerrors.New(mkerrors.KindParse, "OR needs a term on both sides")
			}
			i++
			atom := wordAtom(raw[i])
			last := &clauses[len(clauses)-1]
			last.alts = append(last.alts, atom)

		case nearRE.MatchString(word):
			if len(clauses) == 0 || i+1 >= len(raw) {
				return nil, mkerrors.New(mkerrors.KindParse, "NEAR needs a term on both sides")
			}
			dist, _ := strconv.Atoi(nearRE.FindStringSubmatch(word)[1])
			prev := &clauses[len(clauses)-1]
			left := prev.alts[len(prev.alts)-1]
			i++
			right := wordAtom(raw[i])
			prev.alts[len(prev.alts)-1] = queryAtom{
				near: &nearSpec{a: left.text, b: right.text, dist: dist},
			}

		default:
			atom := wordAtom(word)
			atom.negate = negateNext
			negateNext = false
			clauses = append(clauses, queryClause{alts: []queryAtom{atom}})
		}
	}

	return clauses, nil
}

func wordAtom(word string) queryAtom {
	atom := queryAtom{}
	if strings.HasSuffix(word, "*") {
		atom.prefix = true
		word = strings.TrimSuffix(word, "*")
	}
	atom.text = foldText(word)
	return atom
}

// splitQuery breaks the query on spaces while keeping quoted phrases whole.
func splitQuery(query string) []string {
	var words []string
	var cur strings.Builder
	inQuote := false

	for _, r := range query {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == ' ' && !inQuote:
			if cur.Len() > 0 {
				words = append(words, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	return words
}

var tokenRE = regexp.MustCompile(`[\pL\pN_]+`)

func tokenize(folded string) []string {
	return tokenRE.FindAllString(folded, -1)
}

func (s *Search) match(clauses []queryClause) []SearchHit {
	var hits []SearchHit

	for i := range s.folded {
		score, ok := s.matchLine(clauses, i)
		if !ok {
			continue
		}
		hits = append(hits, SearchHit{
			LineNum: i + 1,
			Line:    s.doc.lines[i],
			Score:   score,
		})
	}
	return hits
}

func (s *Search) matchLine(clauses []queryClause, idx int) (float64, bool) {
	score := 0.0

	for _, clause := range clauses {
		matched := false
		for _, atom := range clause.alts {
			hit, weight := s.matchAtom(atom, idx)
			if atom.negate {
				if hit {
					return 0, false
				}
				matched = true
				continue
			}
			if hit {
				matched = true
				score += weight
			}
		}
		if !matched {
			return 0, false
		}
	}
	return score, true
}

func (s *Search) matchAtom(atom queryAtom, idx int) (bool, float64) {
	if atom.near != nil {
		return s.matchNear(atom.near, idx), 1
	}
	if atom.text == "" {
		return false, 0
	}

	if atom.prefix {
		count := 0
		for _, tok := range s.tokens[idx] {
			if strings.HasPrefix(tok, atom.text) {
				count++
			}
		}
		return count > 0, float64(count)
	}

	count := strings.Count(s.folded[idx], atom.text)
	return count > 0, float64(count)
}

func (s *Search) matchNear(spec *nearSpec, idx int) bool {
	var aPos, bPos []int
	for i, tok := range s.tokens[idx] {
		if tok == spec.a {
			aPos = append(aPos, i)
		}
		if tok == spec.b {
			bPos = append(bPos, i)
		}
	}
	for _, a := range aPos {
		for _, b := range bPos {
			d := a - b
			if d < 0 {
				d = -d
			}
			if d != 0 && d <= spec.dist {
				return true
			}
		}
	}
	return false
}
