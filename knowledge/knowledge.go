// Package knowledge indexes synthesized components and answers similarity
// and composition queries over them. One session owns a base at a time;
// export/import is the only cross-session path.
package knowledge

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
)

// ComponentKind classifies what a stored component is.
type ComponentKind string

const (
	KindRegex       ComponentKind = "regex"
	KindExtractor   ComponentKind = "extractor"
	KindTransformer ComponentKind = "transformer"
)

// Component is one synthesized artifact: a pattern or program together with
// the examples it was learned from and its usage record.
type Component struct {
	ID          string
	Kind        ComponentKind
	Name        string
	Description string

	// Pattern holds the regex for regex components; Code holds the source
	// representation for extractors and transformers.
	Pattern string
	Code    string

	PositiveExamples []string
	NegativeExamples []string

	UsageCount   int
	SuccessCount int
	LastUsed     int64

	ComposableWith []string
	DerivedFrom    []string
}

// Matches reports whether the component's pattern matches the input. A
// component with no pattern, or an uncompilable one, matches nothing.
func (c *Component) Matches(input string) bool {
	if c.Pattern == "" {
		return false
	}
	re, err := regexp.Compile(c.Pattern)
	if err != nil {
		return false
	}
	return re.MatchString(input)
}

// SuccessRate is successCount over usageCount, with an unused component
// rating zero-safe.
func (c *Component) SuccessRate() float64 {
	uses := c.UsageCount
	if uses < 1 {
		uses = 1
	}
	return float64(c.SuccessCount) / float64(uses)
}

// Base is the component store. It keeps two secondary indexes in step with
// inserts: by kind and by the structural signature of positive examples.
type Base struct {
	components  map[string]*Component
	byKind      map[ComponentKind][]string
	bySignature map[string][]string
	order       []string
	nextID      int
	now         func() int64
}

// NewBase creates an empty knowledge base.
func NewBase() *Base {
	return &Base{
		components:  map[string]*Component{},
		byKind:      map[ComponentKind][]string{},
		bySignature: map[string][]string{},
		now:         func() int64 { return time.Now().Unix() },
	}
}

// Len returns the number of stored components.
func (b *Base) Len() int { return len(b.components) }

// Insert stores a component, assigning it an id when it has none, and
// updates both indexes. The stored pointer is returned.
func (b *Base) Insert(c *Component) *Component {
	if c.ID == "" {
		b.nextID++
		c.ID = fmt.Sprintf("kc%d", b.nextID)
	}
	if _, exists := b.components[c.ID]; !exists {
		b.order = append(b.order, c.ID)
		b.byKind[c.Kind] = append(b.byKind[c.Kind], c.ID)
		sig := Signature(c.PositiveExamples)
		b.bySignature[sig] = append(b.bySignature[sig], c.ID)
	}
	b.components[c.ID] = c
	return c
}

// Get returns the component with the given id, or nil.
func (b *Base) Get(id string) *Component {
	return b.components[id]
}

// All returns the stored components in insertion order.
func (b *Base) All() []*Component {
	return lo.Map(b.order, func(id string, _ int) *Component {
		return b.components[id]
	})
}

// ByKind returns components of the given kind, in insertion order.
func (b *Base) ByKind(kind ComponentKind) []*Component {
	return lo.Map(b.byKind[kind], func(id string, _ int) *Component {
		return b.components[id]
	})
}

// BySignature returns components whose positive examples share the
// structural signature of the given examples.
func (b *Base) BySignature(examples []string) []*Component {
	return lo.Map(b.bySignature[Signature(examples)], func(id string, _ int) *Component {
		return b.components[id]
	})
}

// RecordUsage notes one application of a component and whether it verified.
// This and Derive are the only mutations of a stored component.
func (b *Base) RecordUsage(id string, success bool) {
	c := b.components[id]
	if c == nil {
		return
	}
	c.UsageCount++
	if success {
		c.SuccessCount++
	}
	c.LastUsed = b.now()
}

// Scored pairs a component with its ranking score for a query.
type Scored struct {
	Component *Component
	Score     float64
}

// Similar ranks stored components against the given examples: Jaccard
// similarity over character multisets of the joined example strings,
// multiplied by the component's success rate. Results come back score
// descending; zero-score components are omitted.
func (b *Base) Similar(examples []string) []Scored {
	query := charMultiset(strings.Join(examples, "\n"))

	var out []Scored
	for _, id := range b.order {
		c := b.components[id]
		sim := jaccard(query, charMultiset(strings.Join(c.PositiveExamples, "\n")))
		score := sim * c.SuccessRate()
		if score > 0 {
			out = append(out, Scored{Component: c, Score: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Pair is two components whose patterns together cover a target set.
type Pair struct {
	First  *Component
	Second *Component
}

// Compositions finds every pair of stored components whose patterns together
// match all target examples. Only pairs are searched; deeper composition is
// reached through explicit Derive calls on the discovered pairs.
func (b *Base) Compositions(targets []string) []Pair {
	var pairs []Pair
	for i := 0; i < len(b.order); i++ {
		for j := i + 1; j < len(b.order); j++ {
			a := b.components[b.order[i]]
			c := b.components[b.order[j]]
			if coversAll(a, c, targets) {
				pairs = append(pairs, Pair{First: a, Second: c})
			}
		}
	}
	return pairs
}

func coversAll(a, b *Component, targets []string) bool {
	if len(targets) == 0 {
		return false
	}
	for _, t := range targets {
		if !a.Matches(t) && !b.Matches(t) {
			return false
		}
	}
	return true
}

// Derive creates a child component from two parents and records the child in
// each parent's composable-with list.
func (b *Base) Derive(firstID, secondID, name, description string) (*Component, error) {
	first := b.components[firstID]
	second := b.components[secondID]
	if first == nil || second == nil {
		return nil, fmt.Errorf("derive: unknown parent component")
	}

	child := &Component{
		Kind:        KindTransformer,
		Name:        name,
		Description: description,
		Pattern:     combinePatterns(first.Pattern, second.Pattern),
		PositiveExamples: append(
			append([]string{}, first.PositiveExamples...),
			second.PositiveExamples...),
		DerivedFrom: []string{first.ID, second.ID},
	}
	b.Insert(child)

	first.ComposableWith = append(first.ComposableWith, child.ID)
	second.ComposableWith = append(second.ComposableWith, child.ID)
	return child, nil
}

func combinePatterns(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return "(?:" + a + ")|(?:" + b + ")"
	}
}

// Signature is the structural signature of a set of example strings: which
// character classes appear plus a length bucket. Queries with a matching
// signature try stored components before searching from scratch.
func Signature(examples []string) string {
	joined := strings.Join(examples, "\n")

	var hasDigit, hasAlpha, hasCurrency, hasDateLike bool
	for _, r := range joined {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasAlpha = true
		case r == '$' || r == '€' || r == '£' || r == '¥':
			hasCurrency = true
		}
	}
	if dateLikeRE.MatchString(joined) {
		hasDateLike = true
	}

	avg := 0
	if len(examples) > 0 {
		total := 0
		for _, e := range examples {
			total += len(e)
		}
		avg = total / len(examples)
	}

	return fmt.Sprintf("d%v-a%v-c%v-t%v-l%d", hasDigit, hasAlpha, hasCurrency, hasDateLike, lengthBucket(avg))
}

var dateLikeRE = regexp.MustCompile(`\d{1,4}[-/.]\d{1,2}[-/.]\d{1,4}`)

func lengthBucket(n int) int {
	switch {
	case n <= 8:
		return 0
	case n <= 32:
		return 1
	case n <= 128:
		return 2
	default:
		return 3
	}
}

func charMultiset(s string) map[rune]int {
	set := map[rune]int{}
	for _, r := range s {
		set[r]++
	}
	return set
}

// jaccard over multisets: sum of min counts over sum of max counts.
func jaccard(a, b map[rune]int) float64 {
	inter := 0
	union := 0

	for r, an := range a {
		bn := b[r]
		if an < bn {
			inter += an
			union += bn
		} else {
			inter += bn
			union += an
		}
	}
	for r, bn := range b {
		if _, seen := a[r]; !seen {
			union += bn
		}
	}

	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
