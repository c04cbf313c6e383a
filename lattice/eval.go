package lattice

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/yogthos/matryoshka/document"
	"github.com/yogthos/matryoshka/mkerrors"
	"github.com/yogthos/matryoshka/nucleus/syntax"
	"github.com/yogthos/matryoshka/synth"
)

// Evaluator executes resolved, type-checked terms against a document, a
// bindings environment, and the synthesis engine. Evaluation is strict and
// left-to-right; effects happen only when their term is reached. One
// evaluator serves one session.
type Evaluator struct {
	Doc     *document.Document
	Env     *Environment
	Synth   *synth.Engine
	Symbols document.SymbolIndexer

	// Deadline, when non-zero, is checked between examined elements and at
	// the start of each synthesis candidate. Expiry aborts with Cancelled
	// and leaves bindings untouched.
	Deadline time.Time

	// FuzzyLimit overrides the default fuzzy_search result cap for terms
	// that do not pass their own.
	FuzzyLimit int

	Logger hclog.Logger

	logs    []string
	lastSeq Value
	hasSeq  bool
}

// New creates an evaluator over a document and environment.
func New(doc *document.Document, env *Environment) *Evaluator {
	return &Evaluator{
		Doc:     doc,
		Env:     env,
		Symbols: document.NoSymbols{},
		Logger:  hclog.NewNullLogger(),
	}
}

// Evaluate runs the term and, on success, applies the post-evaluation
// binding rules to the environment. The returned log lines accompany the
// value; they never replace an error.
func (ev *Evaluator) Evaluate(t *syntax.Term) (Value, []string, error) {
	ev.logs = nil
	ev.lastSeq = Null()
	ev.hasSeq = false
	if ev.Synth != nil {
		ev.Synth.Deadline = ev.checkDeadline
	}

	v, err := ev.eval(t, ev.Env)
	if err != nil {
		return Null(), ev.logs, err
	}

	// RESULTS always names the last sequence the evaluator produced, even
	// when the overall result reduced it to a scalar
	if ev.hasSeq {
		ev.Env.Set(BindingResults, ev.lastSeq)
	}
	ev.Env.RecordResult(v)
	return v, ev.logs, nil
}

func (ev *Evaluator) logf(format string, a ...interface{}) {
	line := fmt.Sprintf(format, a...)
	ev.logs = append(ev.logs, line)
	ev.Logger.Debug(line)
}

func (ev *Evaluator) checkDeadline() error {
	if !ev.Deadline.IsZero() && time.Now().After(ev.Deadline) {
		return mkerrors.New(mkerrors.KindCancelled, "evaluation deadline expired")
	}
	return nil
}

// eval wraps evalNode to track the most recent sequence produced anywhere
// in the tree; RESULTS binds to it when the whole evaluation succeeds.
func (ev *Evaluator) eval(t *syntax.Term, env *Environment) (Value, error) {
	v, err := ev.evalNode(t, env)
	if err == nil && v.Kind() == ValueList {
		ev.lastSeq = v
		ev.hasSeq = true
	}
	return v, err
}

func (ev *Evaluator) evalNode(t *syntax.Term, env *Environment) (Value, error) {
	switch t.Kind {
	case syntax.KindInput:
		if v, ok := env.Lookup("input"); ok {
			return v, nil
		}
		return StringOf(ev.Doc.Text()), nil

	case syntax.KindLit:
		return litValue(t.Lit), nil

	case syntax.KindVar:
		if v, ok := env.Lookup(t.Name); ok {
			return v, nil
		}
		return Null(), mkerrors.New(mkerrors.KindUnbound, "name %q is not bound", t.Name)

	case syntax.KindTextStats:
		return statsValue(ev.Doc.Stats()), nil

	case syntax.KindGrep:
		return ev.evalGrep(t)

	case syntax.KindFuzzySearch:
		return ev.evalFuzzy(t)

	case syntax.KindLines:
		start := int(t.Args[0].Lit.Num())
		end := int(t.Args[1].Lit.Num())
		lines := ev.Doc.Lines(start, end)
		items := make([]Value, len(lines))
		for i, line := range lines {
			items[i] = StringOf(line)
		}
		ev.logf("Read lines %d-%d (%d line(s))", start, end, len(lines))
		return ListOf(items), nil

	case syntax.KindParseInt, syntax.KindParseFloat, syntax.KindParseNumber, syntax.KindParseCurrency, syntax.KindParseDate:
		return ev.evalParse(t, env)

	case syntax.KindCount:
		seq, err := ev.evalList(t.Args[0], env, "count")
		if err != nil {
			return Null(), err
		}
		return NumberOf(float64(len(seq))), nil

	case syntax.KindSum:
		return ev.evalSum(t, env)

	case syntax.KindAdd:
		return ev.evalAdd(t, env)

	case syntax.KindMatch:
		return ev.evalMatch(t, env)

	case syntax.KindReplace:
		return ev.evalReplace(t, env)

	case syntax.KindSplit:
		return ev.evalSplit(t, env)

	case syntax.KindFilter:
		return ev.evalFilter(t, env)

	case syntax.KindMap:
		return ev.evalMap(t, env)

	case syntax.KindReduce:
		return ev.evalReduce(t, env)

	case syntax.KindIf:
		cond, err := ev.eval(t.Args[0], env)
		if err != nil {
			return Null(), mkerrors.InContext(err, "if condition")
		}
		if cond.Truthy() {
			return ev.eval(t.Args[1], env)
		}
		return ev.eval(t.Args[2], env)

	case syntax.KindLambda:
		return ClosureOf(&Closure{
			Param: t.Name,
			Body:  t.Args[0],
			Env:   env.Snapshot(),
		}), nil

	case syntax.KindApp:
		fn, err := ev.eval(t.Args[0], env)
		if err != nil {
			return Null(), mkerrors.InContext(err, "app function")
		}
		arg, err := ev.eval(t.Args[1], env)
		if err != nil {
			return Null(), mkerrors.InContext(err, "app argument")
		}
		return ev.apply(fn, arg)

	case syntax.KindClassify:
		return ev.synthesizeFn("classify", "", t.Examples)

	case syntax.KindPredicate:
		return ev.evalPredicate(t, env)

	case syntax.KindDefineFn:
		v, err := ev.synthesizeFn("synthesize", t.Name, t.Examples)
		if err != nil {
			return Null(), err
		}
		env.BindFunction(t.Name, v)
		ev.logf("Defined function %s", t.Name)
		return v, nil

	case syntax.KindApplyFn:
		fn, ok := env.Function(t.Name)
		if !ok {
			return Null(), mkerrors.New(mkerrors.KindUnbound, "no function %q is defined", t.Name)
		}
		arg, err := ev.eval(t.Args[0], env)
		if err != nil {
			return Null(), mkerrors.InContext(err, "apply-fn %s argument", t.Name)
		}
		return ev.apply(fn, arg)

	case syntax.KindExtract:
		return ev.evalExtract(t, env)

	case syntax.KindCoerce:
		v, err := ev.eval(t.Args[0], env)
		if err != nil {
			return Null(), mkerrors.InContext(err, "coerce argument")
		}
		return coerceValue(v, t.Name), nil

	case syntax.KindSynthesize:
		return ev.synthesizeFn("synthesize", "", t.Examples)

	case syntax.KindListSymbols:
		syms := ev.Symbols.ListSymbols(t.Name)
		items := make([]Value, len(syms))
		for i, s := range syms {
			items[i] = symbolValue(s)
		}
		ev.logf("Listed %d symbol(s)", len(syms))
		return ListOf(items), nil

	case syntax.KindGetSymbolBody:
		name, err := ev.evalText(t.Args[0], env)
		if err != nil {
			return Null(), mkerrors.InContext(err, "get_symbol_body argument")
		}
		body := ev.Symbols.SymbolBody(name)
		if body == "" {
			return Null(), nil
		}
		return StringOf(body), nil

	case syntax.KindFindReferences:
		name, err := ev.evalText(t.Args[0], env)
		if err != nil {
			return Null(), mkerrors.InContext(err, "find_references argument")
		}
		refs := ev.Symbols.References(name)
		items := make([]Value, len(refs))
		for i, s := range refs {
			items[i] = symbolValue(s)
		}
		return ListOf(items), nil

	case syntax.KindAbsorb:
		v, err := ev.eval(t.Args[0], env)
		if err == nil {
			return v, nil
		}
		if mkerrors.Is(err, mkerrors.KindCancelled) {
			return Null(), err
		}
		return ev.eval(t.Args[1], env)

	case syntax.KindConstrained:
		// the resolver removes these before evaluation; stay transparent if
		// one slips through unresolved
		return ev.eval(t.Args[0], env)

	default:
		return Null(), mkerrors.New(mkerrors.KindInternal, "unhandled term kind %d", int(t.Kind))
	}
}

func (ev *Evaluator) evalGrep(t *syntax.Term) (Value, error) {
	pattern := t.Args[0].Lit.Str()
	ev.logf("Searching for pattern: %s", pattern)

	matches, err := ev.Doc.Grep(pattern)
	if err != nil {
		return Null(), err
	}
	ev.logf("Found %d match(es)", len(matches))

	items := make([]Value, len(matches))
	for i, m := range matches {
		if err := ev.checkDeadline(); err != nil {
			return Null(), err
		}
		items[i] = grepValue(m)
	}
	return ListOf(items), nil
}

func (ev *Evaluator) evalFuzzy(t *syntax.Term) (Value, error) {
	query := t.Args[0].Lit.Str()
	limit := ev.FuzzyLimit
	if limit <= 0 {
		limit = document.DefaultFuzzyLimit
	}
	if len(t.Args) == 2 {
		limit = int(t.Args[1].Lit.Num())
	}
	ev.logf("Fuzzy searching: %s (limit %d)", query, limit)

	matches := ev.Doc.FuzzySearch(query, limit)
	ev.logf("Found %d match(es)", len(matches))

	items := make([]Value, len(matches))
	for i, m := range matches {
		items[i] = MapOf(map[string]Value{
			"line":    StringOf(m.Line),
			"lineNum": NumberOf(float64(m.LineNum)),
			"score":   NumberOf(m.Score),
		})
	}
	return ListOf(items), nil
}

func (ev *Evaluator) evalParse(t *syntax.Term, env *Environment) (Value, error) {
	text, err := ev.evalText(t.Args[0], env)
	if err != nil {
		return Null(), mkerrors.InContext(err, "%s argument", headName(t.Kind))
	}

	var parsed Value
	operation := ""
	switch t.Kind {
	case syntax.KindParseInt:
		parsed, operation = parseIntText(text), "parseInt"
	case syntax.KindParseFloat:
		parsed, operation = parseFloatText(text), "parseFloat"
	case syntax.KindParseNumber:
		parsed, operation = parseNumberText(text), "parseNumber"
	case syntax.KindParseCurrency:
		parsed, operation = parseCurrencyText(text), "parseCurrency"
	case syntax.KindParseDate:
		parsed, operation = parseDateText(text, t.Name), "parseDate"
	}

	if !parsed.IsNull() || len(t.Examples) == 0 || ev.Synth == nil {
		return parsed, nil
	}

	// the builtin came up empty but the term carries examples: learn a
	// parser from them and run it on the input
	ev.logf("Built-in %s failed; synthesizing from %d example(s)", operation, len(t.Examples))
	res := ev.Synth.SynthesizeOnFailure(synth.Request{
		Operation:    operation,
		Examples:     requestExamples(t.Examples),
		ExpectedType: expectedTypeFor(t.Kind),
	})
	if !res.Success {
		return Null(), res.Err
	}

	got, err := res.Fn(text)
	if err != nil {
		return Null(), err
	}
	return FromAny(got), nil
}

func (ev *Evaluator) evalSum(t *syntax.Term, env *Environment) (Value, error) {
	seq, err := ev.evalList(t.Args[0], env, "sum")
	if err != nil {
		return Null(), err
	}

	total := 0.0
	for _, item := range seq {
		if err := ev.checkDeadline(); err != nil {
			return Null(), err
		}
		total += numericContribution(item)
	}
	ev.logf("Summed %d element(s): %v", len(seq), total)
	return NumberOf(total), nil
}

func (ev *Evaluator) evalAdd(t *syntax.Term, env *Environment) (Value, error) {
	left, err := ev.evalNumber(t.Args[0], env, "add left operand")
	if err != nil {
		return Null(), err
	}
	right, err := ev.evalNumber(t.Args[1], env, "add right operand")
	if err != nil {
		return Null(), err
	}
	return NumberOf(left + right), nil
}

func (ev *Evaluator) evalMatch(t *syntax.Term, env *Environment) (Value, error) {
	str, err := ev.evalText(t.Args[0], env)
	if err != nil {
		return Null(), mkerrors.InContext(err, "match subject")
	}
	pattern, err := ev.evalText(t.Args[1], env)
	if err != nil {
		return Null(), mkerrors.InContext(err, "match pattern")
	}
	group, err := ev.evalNumber(t.Args[2], env, "match group")
	if err != nil {
		return Null(), err
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return Null(), mkerrors.Wrap(mkerrors.KindInvalidPattern, err, "match pattern %q does not compile", pattern)
	}

	m := re.FindStringSubmatch(str)
	g := int(group)
	if m == nil || g < 0 || g >= len(m) {
		return Null(), nil
	}
	return StringOf(m[g]), nil
}

func (ev *Evaluator) evalReplace(t *syntax.Term, env *Environment) (Value, error) {
	str, err := ev.evalText(t.Args[0], env)
	if err != nil {
		return Null(), mkerrors.InContext(err, "replace subject")
	}
	from, err := ev.evalText(t.Args[1], env)
	if err != nil {
		return Null(), mkerrors.InContext(err, "replace pattern")
	}
	to, err := ev.evalText(t.Args[2], env)
	if err != nil {
		return Null(), mkerrors.InContext(err, "replace replacement")
	}

	re, err := regexp.Compile(from)
	if err != nil {
		return Null(), mkerrors.Wrap(mkerrors.KindInvalidPattern, err, "replace pattern %q does not compile", from)
	}
	return StringOf(re.ReplaceAllString(str, to)), nil
}

func (ev *Evaluator) evalSplit(t *syntax.Term, env *Environment) (Value, error) {
	str, err := ev.evalText(t.Args[0], env)
	if err != nil {
		return Null(), mkerrors.InContext(err, "split subject")
	}
	delim, err := ev.evalText(t.Args[1], env)
	if err != nil {
		return Null(), mkerrors.InContext(err, "split delimiter")
	}
	index, err := ev.evalNumber(t.Args[2], env, "split index")
	if err != nil {
		return Null(), err
	}

	parts := strings.Split(str, delim)
	i := int(index)
	if i < 0 || i >= len(parts) {
		return Null(), nil
	}
	return StringOf(parts[i]), nil
}

func (ev *Evaluator) evalFilter(t *syntax.Term, env *Environment) (Value, error) {
	seq, err := ev.evalList(t.Args[0], env, "filter")
	if err != nil {
		return Null(), err
	}
	pred, err := ev.eval(t.Args[1], env)
	if err != nil {
		return Null(), mkerrors.InContext(err, "filter predicate")
	}
	if !pred.IsCallable() {
		return Null(), mkerrors.New(mkerrors.KindType, "filter predicate is %s, not a function", kindName(pred.Kind()))
	}

	var kept []Value
	for i, item := range seq {
		if err := ev.checkDeadline(); err != nil {
			return Null(), err
		}
		got, err := ev.apply(pred, item)
		if err != nil {
			return Null(), mkerrors.InContext(err, "filter element %d", i)
		}

		keep, err := predicateTruth(got)
		if err != nil {
			return Null(), mkerrors.InContext(err, "filter element %d", i)
		}
		if keep {
			kept = append(kept, item)
		}
	}
	ev.logf("Filtered %d element(s) down to %d", len(seq), len(kept))
	return ListOf(kept), nil
}

// predicateTruth reads a predicate result. Booleans are authoritative;
// because match and synthesized functions signal "no" with null, scalar
// results fall back to truthiness. A compound result is a type error.
func predicateTruth(v Value) (bool, error) {
	switch v.Kind() {
	case ValueBool:
		return v.Bool(), nil
	case ValueNull, ValueString, ValueNumber:
		return v.Truthy(), nil
	default:
		return false, mkerrors.New(mkerrors.KindType, "predicate produced %s, not a boolean", kindName(v.Kind()))
	}
}

func (ev *Evaluator) evalMap(t *syntax.Term, env *Environment) (Value, error) {
	seq, err := ev.evalList(t.Args[0], env, "map")
	if err != nil {
		return Null(), err
	}
	fn, err := ev.eval(t.Args[1], env)
	if err != nil {
		return Null(), mkerrors.InContext(err, "map transform")
	}
	if !fn.IsCallable() {
		return Null(), mkerrors.New(mkerrors.KindType, "map transform is %s, not a function", kindName(fn.Kind()))
	}

	out := make([]Value, len(seq))
	for i, item := range seq {
		if err := ev.checkDeadline(); err != nil {
			return Null(), err
		}
		got, err := ev.apply(fn, item)
		if err != nil {
			return Null(), mkerrors.InContext(err, "map element %d", i)
		}
		out[i] = got
	}
	return ListOf(out), nil
}

func (ev *Evaluator) evalReduce(t *syntax.Term, env *Environment) (Value, error) {
	seq, err := ev.evalList(t.Args[0], env, "reduce")
	if err != nil {
		return Null(), err
	}
	acc, err := ev.eval(t.Args[1], env)
	if err != nil {
		return Null(), mkerrors.InContext(err, "reduce initial value")
	}
	fn, err := ev.eval(t.Args[2], env)
	if err != nil {
		return Null(), mkerrors.InContext(err, "reduce function")
	}
	if !fn.IsCallable() {
		return Null(), mkerrors.New(mkerrors.KindType, "reduce function is %s, not a function", kindName(fn.Kind()))
	}

	for i, item := range seq {
		if err := ev.checkDeadline(); err != nil {
			return Null(), err
		}
		// the fold function is curried: fn applied to the accumulator must
		// yield another function that takes the element
		partial, err := ev.apply(fn, acc)
		if err != nil {
			return Null(), mkerrors.InContext(err, "reduce element %d", i)
		}
		if !partial.IsCallable() {
			return Null(), mkerrors.New(mkerrors.KindType, "reduce function must take the accumulator then the element")
		}
		acc, err = ev.apply(partial, item)
		if err != nil {
			return Null(), mkerrors.InContext(err, "reduce element %d", i)
		}
	}
	return acc, nil
}

func (ev *Evaluator) evalPredicate(t *syntax.Term, env *Environment) (Value, error) {
	subject, err := ev.evalText(t.Args[0], env)
	if err != nil {
		return Null(), mkerrors.InContext(err, "predicate subject")
	}
	if ev.Synth == nil {
		return Null(), mkerrors.New(mkerrors.KindInternal, "no synthesis engine attached")
	}

	res := ev.Synth.SynthesizeOnFailure(synth.Request{
		Operation:    "predicate",
		Examples:     requestExamples(t.Examples),
		ExpectedType: "boolean",
	})
	if !res.Success {
		return Null(), res.Err
	}

	got, err := res.Fn(subject)
	if err != nil {
		return Null(), err
	}
	ev.logf("Predicate %s on input: %v", res.Code, got)
	return FromAny(got), nil
}

func (ev *Evaluator) evalExtract(t *syntax.Term, env *Environment) (Value, error) {
	str, err := ev.evalText(t.Args[0], env)
	if err != nil {
		return Null(), mkerrors.InContext(err, "extract subject")
	}
	pattern, err := ev.evalText(t.Args[1], env)
	if err != nil {
		return Null(), mkerrors.InContext(err, "extract pattern")
	}
	group, err := ev.evalNumber(t.Args[2], env, "extract group")
	if err != nil {
		return Null(), err
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return Null(), mkerrors.Wrap(mkerrors.KindInvalidPattern, err, "extract pattern %q does not compile", pattern)
	}

	var out Value = Null()
	if m := re.FindStringSubmatch(str); m != nil {
		g := int(group)
		if g >= 0 && g < len(m) {
			out = StringOf(m[g])
		}
	}

	if out.IsNull() && len(t.Examples) > 0 && ev.Synth != nil {
		ev.logf("Pattern missed; synthesizing extractor from %d example(s)", len(t.Examples))
		res := ev.Synth.SynthesizeOnFailure(synth.Request{
			Operation:    "extract",
			Examples:     requestExamples(t.Examples),
			ExpectedType: t.Name,
		})
		if !res.Success {
			return Null(), res.Err
		}
		got, err := res.Fn(str)
		if err != nil {
			return Null(), err
		}
		out = FromAny(got)
	}

	if t.Name != "" && !out.IsNull() {
		out = coerceValue(out, t.Name)
	}
	return out, nil
}

// synthesizeFn routes a learning operator through the synthesis engine and
// wraps the verified function as a value. An empty name gets a stable one
// derived from the cache key.
func (ev *Evaluator) synthesizeFn(operation, name string, examples []syntax.Example) (Value, error) {
	if ev.Synth == nil {
		return Null(), mkerrors.New(mkerrors.KindInternal, "no synthesis engine attached")
	}

	res := ev.Synth.SynthesizeOnFailure(synth.Request{
		Operation: operation,
		Examples:  requestExamples(examples),
	})
	if !res.Success {
		return Null(), res.Err
	}

	if name == "" {
		name = strings.ReplaceAll(res.CacheKey, ":", "_")
	}
	ev.logf("Synthesized %s: %s", name, res.Code)

	fn := res.Fn
	return SynthOf(&SynthFn{
		Name: name,
		Code: res.Code,
		Call: func(input string) (Value, error) {
			got, err := fn(input)
			if err != nil {
				return Null(), err
			}
			return FromAny(got), nil
		},
	}), nil
}

// apply invokes a callable value on an argument. Closures evaluate their
// body in the captured environment extended with the parameter binding;
// synthesized functions receive the argument's textual content.
func (ev *Evaluator) apply(fn Value, arg Value) (Value, error) {
	switch fn.Kind() {
	case ValueClosure:
		c := fn.Closure()
		callEnv := c.Env.Snapshot()
		callEnv.Set(c.Param, arg)
		return ev.eval(c.Body, callEnv)
	case ValueSynthFn:
		return fn.Synth().Call(arg.Text())
	default:
		return Null(), mkerrors.New(mkerrors.KindType, "cannot apply %s as a function", kindName(fn.Kind()))
	}
}

// evalList evaluates a term that must produce a sequence.
func (ev *Evaluator) evalList(t *syntax.Term, env *Environment, op string) ([]Value, error) {
	v, err := ev.eval(t, env)
	if err != nil {
		return nil, mkerrors.InContext(err, "%s argument", op)
	}
	if v.Kind() != ValueList {
		return nil, mkerrors.New(mkerrors.KindType, "%s expects an array, got %s", op, kindName(v.Kind()))
	}
	return v.List(), nil
}

// evalText evaluates a term and takes its textual content.
func (ev *Evaluator) evalText(t *syntax.Term, env *Environment) (string, error) {
	v, err := ev.eval(t, env)
	if err != nil {
		return "", err
	}
	return v.Text(), nil
}

// evalNumber evaluates a term that must read as a number.
func (ev *Evaluator) evalNumber(t *syntax.Term, env *Environment, what string) (float64, error) {
	v, err := ev.eval(t, env)
	if err != nil {
		return 0, mkerrors.InContext(err, what)
	}
	if n, ok := v.AsNumber(); ok {
		return n, nil
	}
	if amt := amountIn(v.Text()); amt != 0 {
		return amt, nil
	}
	return 0, mkerrors.New(mkerrors.KindType, "%s is %s, not a number", what, kindName(v.Kind()))
}

func litValue(l syntax.Literal) Value {
	switch l.Kind() {
	case syntax.LitString:
		return StringOf(l.Str())
	case syntax.LitNumber:
		return NumberOf(l.Num())
	default:
		return BoolOf(l.Bool())
	}
}

func grepValue(m document.GrepMatch) Value {
	groups := make([]Value, len(m.Groups))
	for i, g := range m.Groups {
		groups[i] = StringOf(g)
	}
	return MapOf(map[string]Value{
		"match":   StringOf(m.Match),
		"line":    StringOf(m.Line),
		"lineNum": NumberOf(float64(m.LineNum)),
		"index":   NumberOf(float64(m.Index)),
		"groups":  ListOf(groups),
	})
}

func statsValue(s document.Stats) Value {
	lineList := func(lines []string) Value {
		items := make([]Value, len(lines))
		for i, l := range lines {
			items[i] = StringOf(l)
		}
		return ListOf(items)
	}
	return MapOf(map[string]Value{
		"length":    NumberOf(float64(s.Length)),
		"lineCount": NumberOf(float64(s.LineCount)),
		"sample": MapOf(map[string]Value{
			"start":  lineList(s.Sample.Start),
			"middle": lineList(s.Sample.Middle),
			"end":    lineList(s.Sample.End),
		}),
	})
}

func symbolValue(s document.Symbol) Value {
	return MapOf(map[string]Value{
		"name": StringOf(s.Name),
		"kind": StringOf(s.Kind),
		"line": NumberOf(float64(s.Line)),
	})
}

func coerceValue(v Value, targetType string) Value {
	switch targetType {
	case "number", "int", "float":
		if n, ok := v.AsNumber(); ok {
			return NumberOf(n)
		}
		if amt := amountIn(v.Text()); amt != 0 {
			return NumberOf(amt)
		}
		return Null()
	case "boolean", "bool":
		return BoolOf(v.Truthy())
	case "date":
		return parseDateText(v.Text(), "")
	case "string":
		return StringOf(v.Text())
	default:
		return v
	}
}

func requestExamples(examples []syntax.Example) []synth.Example {
	out := make([]synth.Example, len(examples))
	for i, ex := range examples {
		out[i] = synth.Example{Input: ex.Input, Output: litAny(ex.Output)}
	}
	return out
}

func litAny(l syntax.Literal) any {
	switch l.Kind() {
	case syntax.LitString:
		return l.Str()
	case syntax.LitNumber:
		return l.Num()
	default:
		return l.Bool()
	}
}

func expectedTypeFor(kind syntax.TermKind) string {
	switch kind {
	case syntax.KindParseDate:
		return "date"
	default:
		return "number"
	}
}

func headName(kind syntax.TermKind) string {
	switch kind {
	case syntax.KindParseInt:
		return "parseInt"
	case syntax.KindParseFloat:
		return "parseFloat"
	case syntax.KindParseNumber:
		return "parseNumber"
	case syntax.KindParseCurrency:
		return "parseCurrency"
	case syntax.KindParseDate:
		return "parseDate"
	default:
		return "parse"
	}
}

func kindName(k ValueKind) string {
	switch k {
	case ValueNull:
		return "null"
	case ValueBool:
		return "boolean"
	case ValueNumber:
		return "number"
	case ValueString:
		return "string"
	case ValueList:
		return "array"
	case ValueMap:
		return "record"
	case ValueClosure:
		return "function"
	default:
		return "synthesized function"
	}
}
