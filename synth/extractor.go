package synth

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yogthos/matryoshka/kanren"
)

// The extractor language is closed to ten forms: input, lit, match, replace,
// slice, split, parseInt, parseFloat, add, and if. Forward evaluation is
// total; a match with no hit yields nil, as does any other dead end.
type progKind int

const (
	pInput progKind = iota
	pLit
	pMatch
	pReplace
	pSlice
	pSplit
	pParseInt
	pParseFloat
	pAdd
	pIf
)

type program struct {
	kind progKind

	lit     any
	pattern string
	from    string
	to      string
	delim   string
	group   int
	index   int
	start   int
	end     int

	kids []*program
}

// eval runs the program forward. It never fails: inputs the program cannot
// handle evaluate to nil.
func (p *program) eval(input string) any {
	switch p.kind {
	case pInput:
		return input

	case pLit:
		return p.lit

	case pMatch:
		str, ok := p.kids[0].eval(input).(string)
		if !ok {
			return nil
		}
		re, err := regexp.Compile(p.pattern)
		if err != nil {
			return nil
		}
		m := re.FindStringSubmatch(str)
		if m == nil || p.group < 0 || p.group >= len(m) {
			return nil
		}
		return m[p.group]

	case pReplace:
		str, ok := p.kids[0].eval(input).(string)
		if !ok {
			return nil
		}
		re, err := regexp.Compile(p.from)
		if err != nil {
			return nil
		}
		return re.ReplaceAllString(str, p.to)

	case pSlice:
		str, ok := p.kids[0].eval(input).(string)
		if !ok {
			return nil
		}
		runes := []rune(str)
		start, end := p.start, p.end
		if start < 0 || end > len(runes) || start > end {
			return nil
		}
		return string(runes[start:end])

	case pSplit:
		str, ok := p.kids[0].eval(input).(string)
		if !ok {
			return nil
		}
		parts := strings.Split(str, p.delim)
		if p.index < 0 || p.index >= len(parts) {
			return nil
		}
		return parts[p.index]

	case pParseInt:
		str, ok := p.kids[0].eval(input).(string)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.ReplaceAll(str, ",", "")))
		if err != nil {
			return nil
		}
		return float64(n)

	case pParseFloat:
		str, ok := p.kids[0].eval(input).(string)
		if !ok {
			return nil
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(str, ",", "")), 64)
		if err != nil {
			return nil
		}
		return n

	case pAdd:
		l, lok := toFloat(p.kids[0].eval(input))
		r, rok := toFloat(p.kids[1].eval(input))
		if !lok || !rok {
			return nil
		}
		return l + r

	case pIf:
		cond := p.kids[0].eval(input)
		truthy := cond != nil && cond != false && cond != "" && cond != 0.0
		if truthy {
			return p.kids[1].eval(input)
		}
		return p.kids[2].eval(input)

	default:
		return nil
	}
}

func (p *program) source() string {
	switch p.kind {
	case pInput:
		return "input"
	case pLit:
		return fmt.Sprintf("(lit %v)", p.lit)
	case pMatch:
		return fmt.Sprintf("(match %s %q %d)", p.kids[0].source(), p.pattern, p.group)
	case pReplace:
		return fmt.Sprintf("(replace %s %q %q)", p.kids[0].source(), p.from, p.to)
	case pSlice:
		return fmt.Sprintf("(slice %s %d %d)", p.kids[0].source(), p.start, p.end)
	case pSplit:
		return fmt.Sprintf("(split %s %q %d)", p.kids[0].source(), p.delim, p.index)
	case pParseInt:
		return fmt.Sprintf("(parseInt %s)", p.kids[0].source())
	case pParseFloat:
		return fmt.Sprintf("(parseFloat %s)", p.kids[0].source())
	case pAdd:
		return fmt.Sprintf("(add %s %s)", p.kids[0].source(), p.kids[1].source())
	case pIf:
		return fmt.Sprintf("(if %s %s %s)", p.kids[0].source(), p.kids[1].source(), p.kids[2].source())
	default:
		return "?"
	}
}

// numeric reports whether the program's top form yields a number. The
// backward search prunes on it: a number-typed goal never accepts a
// string-topped candidate.
func (p *program) numeric() bool {
	switch p.kind {
	case pParseInt, pParseFloat, pAdd:
		return true
	case pLit:
		_, ok := toFloat(p.lit)
		return ok
	default:
		return false
	}
}

func (p *program) fn() Func {
	return func(input string) (any, error) {
		return p.eval(input), nil
	}
}

// extractorPatterns is the fixed pattern pool the backward search draws
// match candidates from, most specific first.
var extractorPatterns = []string{
	`\$\s*([\d,.']+)`,
	`(-?\d[\d,]*\.\d+)`,
	`(-?\d[\d,]*)`,
	`\[(\w+)\]`,
	`:\s*(.+)$`,
	`^([A-Za-z_]+)`,
	`([A-Za-z_]+)$`,
	`"([^"]*)"`,
	`\(([^)]*)\)`,
}

var extractorDelims = []string{" ", ",", ":", ";", "/", "-", "\t", "="}

// synthExtractor searches the extractor language for a program mapping
// every example input to its output. Enumeration is size-bounded and
// depth-first with a fixed order, so results are deterministic; unknown
// integer slots (split indexes, slice bounds, added constants) are solved
// relationally by unifying one fresh variable against what each example
// demands.
func (e *Engine) synthExtractor(req Request) (Func, string, bool) {
	wantNumber := req.ExpectedType == "number"
	if !wantNumber {
		// a uniformly numeric output domain forces number even when the
		// caller did not say so
		wantNumber = true
		for _, ex := range req.Examples {
			if _, ok := toFloat(ex.Output); !ok {
				wantNumber = false
				break
			}
		}
	}

	depth := e.MaxDepth
	if depth <= 0 {
		depth = defaultMaxDepth
	}

	for _, cand := range e.enumerate(req, wantNumber, depth) {
		if e.Deadline != nil {
			if err := e.Deadline(); err != nil {
				return nil, "", false
			}
		}
		if wantNumber && !cand.numeric() {
			continue
		}
		if verifyAll(cand.fn(), req.Examples) {
			return cand.fn(), cand.source(), true
		}
	}
	return nil, "", false
}

// enumerate produces the candidate programs in search order. The space is
// small on purpose; depth only unlocks one extra layer of composition.
func (e *Engine) enumerate(req Request, wantNumber bool, depth int) []*program {
	var out []*program
	in := &program{kind: pInput}

	// constant output; one example is not evidence of a constant
	if len(req.Examples) >= 2 {
		if c, same := constantOutput(req.Examples); same {
			out = append(out, &program{kind: pLit, lit: c})
		}
	}

	// identity
	out = append(out, in)

	// string producers over input
	var stringLayer []*program
	for _, pat := range extractorPatterns {
		stringLayer = append(stringLayer, &program{kind: pMatch, pattern: pat, group: 1, kids: []*program{in}})
	}
	for _, d := range extractorDelims {
		if idx, ok := e.solveSplitIndex(req.Examples, d); ok {
			stringLayer = append(stringLayer, &program{kind: pSplit, delim: d, index: idx, kids: []*program{in}})
		}
	}
	if start, end, ok := e.solveSliceBounds(req.Examples); ok {
		stringLayer = append(stringLayer, &program{kind: pSlice, start: start, end: end, kids: []*program{in}})
	}
	stringLayer = append(stringLayer,
		&program{kind: pReplace, from: `[^\d.,-]`, to: "", kids: []*program{in}},
		&program{kind: pReplace, from: `\s+`, to: " ", kids: []*program{in}},
	)

	if wantNumber {
		for _, s := range stringLayer {
			out = append(out, &program{kind: pParseFloat, kids: []*program{s}})
		}
		// offset outputs: parseFloat of a string layer plus a solved constant
		if depth >= 2 {
			for _, s := range stringLayer {
				base := &program{kind: pParseFloat, kids: []*program{s}}
				if k, ok := e.solveAddConstant(req.Examples, base); ok && k != 0 {
					out = append(out, &program{kind: pAdd, kids: []*program{
						base, {kind: pLit, lit: k},
					}})
				}
			}
		}
	} else {
		out = append(out, stringLayer...)
	}

	// one layer of string-over-string composition
	if depth >= 2 && !wantNumber {
		for _, outer := range extractorPatterns[:4] {
			for _, innerDelim := range extractorDelims[:4] {
				if idx, ok := e.solveSplitIndexOver(req.Examples, innerDelim, outer); ok {
					split := &program{kind: pSplit, delim: innerDelim, index: idx, kids: []*program{in}}
					out = append(out, &program{kind: pMatch, pattern: outer, group: 1, kids: []*program{split}})
				}
			}
		}
	}

	return out
}

func constantOutput(examples []Example) (any, bool) {
	first := examples[0].Output
	for _, ex := range examples[1:] {
		if !outputsEqual(ex.Output, first) {
			return nil, false
		}
	}
	return first, true
}

// solveSplitIndex finds the one part index that maps every example input to
// its output under the given delimiter. The index is a logic variable; each
// example contributes a disjunction over the positions that work for it,
// and the conjunction across examples leaves only globally consistent
// indexes.
func (e *Engine) solveSplitIndex(examples []Example, delim string) (int, bool) {
	hole := e.Vars.Fresh("splitIdx")

	goals := make([]kanren.Goal, 0, len(examples))
	for _, ex := range examples {
		want, ok := ex.Output.(string)
		if !ok {
			// a numeric goal still constrains the part that parses to it
			if n, isNum := toFloat(ex.Output); isNum {
				want = trimFloat(n)
			} else {
				return 0, false
			}
		}

		var alts []kanren.Goal
		for i, part := range strings.Split(ex.Input, delim) {
			if part == want || strings.TrimSpace(part) == want {
				alts = append(alts, kanren.Eq(hole, i))
			}
		}
		if len(alts) == 0 {
			return 0, false
		}
		goals = append(goals, kanren.Disj(alts...))
	}

	solutions := kanren.Run(kanren.Conj(goals...), 1)
	if len(solutions) == 0 {
		return 0, false
	}
	idx, ok := kanren.Walk(hole, solutions[0]).(int)
	return idx, ok
}

// solveSplitIndexOver is solveSplitIndex with an outer match applied to the
// chosen part, for two-stage extraction.
func (e *Engine) solveSplitIndexOver(examples []Example, delim, outerPattern string) (int, bool) {
	re, err := regexp.Compile(outerPattern)
	if err != nil {
		return 0, false
	}
	hole := e.Vars.Fresh("splitIdx")

	goals := make([]kanren.Goal, 0, len(examples))
	for _, ex := range examples {
		want, ok := ex.Output.(string)
		if !ok {
			return 0, false
		}

		var alts []kanren.Goal
		for i, part := range strings.Split(ex.Input, delim) {
			if m := re.FindStringSubmatch(part); m != nil && len(m) > 1 && m[1] == want {
				alts = append(alts, kanren.Eq(hole, i))
			}
		}
		if len(alts) == 0 {
			return 0, false
		}
		goals = append(goals, kanren.Disj(alts...))
	}

	solutions := kanren.Run(kanren.Conj(goals...), 1)
	if len(solutions) == 0 {
		return 0, false
	}
	idx, ok := kanren.Walk(hole, solutions[0]).(int)
	return idx, ok
}

// solveSliceBounds unifies one (start, end) pair across all examples.
func (e *Engine) solveSliceBounds(examples []Example) (int, int, bool) {
	startHole := e.Vars.Fresh("sliceStart")
	endHole := e.Vars.Fresh("sliceEnd")

	goals := make([]kanren.Goal, 0, len(examples))
	for _, ex := range examples {
		want, ok := ex.Output.(string)
		if !ok || want == "" {
			return 0, 0, false
		}

		runes := []rune(ex.Input)
		wantRunes := []rune(want)
		var alts []kanren.Goal
		for i := 0; i+len(wantRunes) <= len(runes); i++ {
			if string(runes[i:i+len(wantRunes)]) == want {
				alts = append(alts, kanren.Conj(
					kanren.Eq(startHole, i),
					kanren.Eq(endHole, i+len(wantRunes)),
				))
			}
		}
		if len(alts) == 0 {
			return 0, 0, false
		}
		goals = append(goals, kanren.Disj(alts...))
	}

	solutions := kanren.Run(kanren.Conj(goals...), 1)
	if len(solutions) == 0 {
		return 0, 0, false
	}
	start, sok := kanren.Walk(startHole, solutions[0]).(int)
	end, eok := kanren.Walk(endHole, solutions[0]).(int)
	return start, end, sok && eok
}

// solveAddConstant unifies one constant k with output - base(input) across
// every example.
func (e *Engine) solveAddConstant(examples []Example, base *program) (float64, bool) {
	hole := e.Vars.Fresh("addK")

	goals := make([]kanren.Goal, 0, len(examples))
	for _, ex := range examples {
		want, wok := toFloat(ex.Output)
		got, gok := toFloat(base.eval(ex.Input))
		if !wok || !gok {
			return 0, false
		}
		goals = append(goals, kanren.Eq(hole, want-got))
	}

	solutions := kanren.Run(kanren.Conj(goals...), 1)
	if len(solutions) == 0 {
		return 0, false
	}
	k, ok := kanren.Walk(hole, solutions[0]).(float64)
	return k, ok
}

func trimFloat(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// regexExtractorFunc wraps a stored pattern as an extractor: first capture
// group (or whole match), optionally parsed when the caller wants a number.
func regexExtractorFunc(pattern, expectedType string) Func {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}
	return func(input string) (any, error) {
		m := re.FindStringSubmatch(input)
		if m == nil {
			return nil, nil
		}
		got := m[0]
		if len(m) > 1 {
			got = m[1]
		}
		if expectedType == "number" {
			n, err := strconv.ParseFloat(strings.ReplaceAll(got, ",", ""), 64)
			if err != nil {
				return nil, nil
			}
			return n, nil
		}
		return got, nil
	}
}
