// Package synth constructs small programs from input/output examples: the
// directed strategies (currency, date, number, predicate, classifier) and a
// relational backward search over a closed extractor language. Every
// produced function verifies against all of its examples before it is
// returned; there is no silent fallback to "maybe wrong" functions.
package synth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/yogthos/matryoshka/internal/util"
	"github.com/yogthos/matryoshka/kanren"
	"github.com/yogthos/matryoshka/knowledge"
	"github.com/yogthos/matryoshka/mkerrors"
)

// Example is one input/output pair. Output is a string, float64, or bool.
type Example struct {
	Input  string
	Output any
}

// Request asks the engine for a function. Operation names the evaluator
// operator that needs it (parseCurrency, parseDate, parseNumber, predicate,
// classify, extract, synthesize). ExpectedType narrows the output domain
// when the operator knows it ("number", "string", "date", "boolean").
type Request struct {
	Operation    string
	Examples     []Example
	ExpectedType string
}

// Func is a synthesized callable. A nil error with a nil value means the
// function legitimately produced null for the input.
type Func func(input string) (any, error)

// Result is what a synthesis attempt reports. On failure, Strategies lists
// what was tried and Err carries the cause: an InsufficientExamples error for
// missing or conflicting examples, the deadline's error on expiry, or else a
// SynthesisFailed error naming the example count.
type Result struct {
	Success    bool
	Fn         Func
	Code       string
	CacheKey   string
	Strategies []string
	Err        error
}

// Engine runs strategy dispatch with caching. It is session-scoped, like
// the knowledge base and variable factory it holds.
type Engine struct {
	Base *knowledge.Base
	Vars *kanren.Factory

	// MaxDepth bounds the extractor backward search. Zero means the default.
	MaxDepth int

	// Deadline, when set, is checked at the start of every synthesis
	// candidate; a non-nil return aborts the search with that error.
	Deadline func() error

	cache map[string]Result
}

// NewEngine creates an engine over the given knowledge base.
func NewEngine(base *knowledge.Base) *Engine {
	return &Engine{
		Base:  base,
		Vars:  &kanren.Factory{},
		cache: map[string]Result{},
	}
}

const defaultMaxDepth = 3

// SynthesizeOnFailure is the integrator entry point the evaluator calls. It
// is idempotent for an equal (operation, examples) pair: the callable and
// its source are cached under the request's key.
func (e *Engine) SynthesizeOnFailure(req Request) Result {
	key := cacheKey(req)
	if cached, ok := e.cache[key]; ok {
		return cached
	}

	res := e.dispatch(req)
	res.CacheKey = key
	e.cache[key] = res

	// reused components already live in the base and had their usage recorded
	if res.Success && !strings.HasPrefix(res.Code, "(reuse") {
		e.remember(req, res)
	}
	return res
}

func (e *Engine) dispatch(req Request) Result {
	if len(req.Examples) == 0 {
		return Result{Err: mkerrors.New(mkerrors.KindInsufficientExamples, "%s: no examples to learn from", req.Operation)}
	}
	if conflict := findConflict(req.Examples); conflict != "" {
		return Result{Err: mkerrors.New(mkerrors.KindInsufficientExamples, "%s: conflicting examples for input %q", req.Operation, conflict)}
	}

	var attempted []string
	try := func(name string, fn func(Request) (Func, string, bool)) *Result {
		if e.Deadline != nil {
			if err := e.Deadline(); err != nil {
				return &Result{Err: err, Strategies: attempted}
			}
		}
		attempted = append(attempted, name)
		got, code, ok := fn(req)
		if !ok {
			return nil
		}
		return &Result{Success: true, Fn: got, Code: code, Strategies: attempted}
	}

	var order []struct {
		name string
		fn   func(Request) (Func, string, bool)
	}
	add := func(name string, fn func(Request) (Func, string, bool)) {
		order = append(order, struct {
			name string
			fn   func(Request) (Func, string, bool)
		}{name, fn})
	}

	switch req.Operation {
	case "parseCurrency":
		add("currency", e.synthCurrency)
		add("extractor", e.synthExtractor)
	case "parseDate":
		add("date", e.synthDate)
		add("extractor", e.synthExtractor)
	case "parseInt", "parseFloat", "parseNumber":
		add("number", e.synthNumber)
		add("extractor", e.synthExtractor)
	case "predicate":
		add("predicate", e.synthPredicate)
	case "classify":
		if booleanDomain(req.Examples) {
			add("predicate", e.synthPredicate)
		}
		add("classifier", e.synthClassifier)
	default:
		add("knowledge", e.synthFromKnowledge)
		add("extractor", e.synthExtractor)
		// generic requests still benefit from the directed parsers when the
		// examples happen to be shaped like dates or amounts
		add("date", e.synthDate)
		add("currency", e.synthCurrency)
		add("number", e.synthNumber)
	}

	for _, strat := range order {
		if res := try(strat.name, strat.fn); res != nil {
			return *res
		}
	}

	// a strategy that stopped on the deadline reports a plain miss; surface
	// the expiry itself
	if e.Deadline != nil {
		if err := e.Deadline(); err != nil {
			return Result{Err: err, Strategies: attempted}
		}
	}

	return Result{
		Strategies: attempted,
		Err: mkerrors.New(mkerrors.KindSynthesisFailed,
			"%s: no program verified all %d example(s); tried %s",
			req.Operation, len(req.Examples), util.MakeTextList(attempted)),
	}
}

// remember stores a verified synthesis in the knowledge base, indexed by
// kind and by the structural signature of its example inputs.
func (e *Engine) remember(req Request, res Result) {
	kind := knowledge.KindExtractor
	if req.Operation == "predicate" || req.Operation == "classify" {
		kind = knowledge.KindTransformer
	}

	var positives, negatives []string
	for _, ex := range req.Examples {
		if b, isBool := ex.Output.(bool); isBool && !b {
			negatives = append(negatives, ex.Input)
			continue
		}
		positives = append(positives, ex.Input)
	}

	c := &knowledge.Component{
		Kind:             kind,
		Name:             req.Operation,
		Description:      fmt.Sprintf("synthesized for %s from %d example(s)", req.Operation, len(req.Examples)),
		Code:             res.Code,
		Pattern:          patternIn(res.Code),
		PositiveExamples: positives,
		NegativeExamples: negatives,
	}
	e.Base.Insert(c)
	e.Base.RecordUsage(c.ID, true)
}

// synthFromKnowledge tries stored regex components whose signature matches
// the request, most promising first, and records each attempt's outcome on
// the component.
func (e *Engine) synthFromKnowledge(req Request) (Func, string, bool) {
	if e.Base == nil {
		return nil, "", false
	}

	inputs := make([]string, len(req.Examples))
	for i, ex := range req.Examples {
		inputs[i] = ex.Input
	}

	candidates := e.Base.BySignature(inputs)
	scored := e.Base.Similar(inputs)
	for _, s := range scored {
		candidates = append(candidates, s.Component)
	}

	seen := map[string]bool{}
	for _, c := range candidates {
		if c.Pattern == "" || seen[c.ID] {
			continue
		}
		seen[c.ID] = true

		fn := regexExtractorFunc(c.Pattern, req.ExpectedType)
		if fn == nil {
			continue
		}
		ok := verifyAll(fn, req.Examples)
		e.Base.RecordUsage(c.ID, ok)
		if ok {
			return fn, fmt.Sprintf("(reuse %s %q)", c.ID, c.Pattern), true
		}
	}
	return nil, "", false
}

// verifyAll checks the function against every example under the operation's
// equality: exact for strings and booleans, a 0.01 tolerance for numbers.
func verifyAll(fn Func, examples []Example) bool {
	for _, ex := range examples {
		got, err := fn(ex.Input)
		if err != nil {
			return false
		}
		if !outputsEqual(got, ex.Output) {
			return false
		}
	}
	return true
}

func outputsEqual(got, want any) bool {
	switch w := want.(type) {
	case float64:
		g, ok := toFloat(got)
		if !ok {
			return false
		}
		return math.Abs(g-w) <= 0.01
	case bool:
		g, ok := got.(bool)
		return ok && g == w
	case string:
		g, ok := got.(string)
		return ok && g == w
	case nil:
		return got == nil
	default:
		return fmt.Sprintf("%v", got) == fmt.Sprintf("%v", want)
	}
}

func toFloat(x any) (float64, bool) {
	switch t := x.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}

func booleanDomain(examples []Example) bool {
	for _, ex := range examples {
		if _, ok := ex.Output.(bool); !ok {
			return false
		}
	}
	return true
}

// findConflict returns an input that appears with two different outputs, or
// "" when the examples are consistent.
func findConflict(examples []Example) string {
	seen := map[string]any{}
	for _, ex := range examples {
		if prev, ok := seen[ex.Input]; ok && !outputsEqual(prev, ex.Output) {
			return ex.Input
		}
		seen[ex.Input] = ex.Output
	}
	return ""
}

// cacheKey hashes the operation with the sorted example pairs.
func cacheKey(req Request) string {
	lines := make([]string, len(req.Examples))
	for i, ex := range req.Examples {
		lines[i] = fmt.Sprintf("%s=>%v", ex.Input, ex.Output)
	}
	sort.Strings(lines)

	h := sha256.Sum256([]byte(req.Operation + "|" + strings.Join(lines, "|")))
	return req.Operation + ":" + hex.EncodeToString(h[:8])
}

// patternIn pulls the quoted regex out of a source form like
// (match input "..." 1), so reusable patterns land in the knowledge index.
func patternIn(code string) string {
	start := strings.Index(code, `"`)
	if start < 0 {
		return ""
	}
	quoted, err := strconv.QuotedPrefix(code[start:])
	if err != nil {
		return ""
	}
	pattern, err := strconv.Unquote(quoted)
	if err != nil {
		return ""
	}
	return pattern
}
