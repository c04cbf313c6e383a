package lattice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yogthos/matryoshka/document"
	"github.com/yogthos/matryoshka/knowledge"
	"github.com/yogthos/matryoshka/mkerrors"
	"github.com/yogthos/matryoshka/nucleus/syntax"
	"github.com/yogthos/matryoshka/synth"
)

func newTestEvaluator(docText string) *Evaluator {
	ev := New(document.New(docText), NewEnvironment())
	ev.Env.SetContext(docText)
	ev.Synth = synth.NewEngine(knowledge.NewBase())
	return ev
}

func mustEval(t *testing.T, ev *Evaluator, source string) Value {
	t.Helper()

	parsed := syntax.Parse(source)
	require.NoError(t, parsed.Err, "source: %s", source)
	resolved, err := syntax.ResolveConstraints(parsed.Term)
	require.NoError(t, err)

	v, _, err := ev.Evaluate(resolved.Term)
	require.NoError(t, err, "source: %s", source)
	return v
}

func evalErr(t *testing.T, ev *Evaluator, source string) error {
	t.Helper()

	parsed := syntax.Parse(source)
	require.NoError(t, parsed.Err, "source: %s", source)

	_, _, err := ev.Evaluate(parsed.Term)
	require.Error(t, err, "source: %s", source)
	return err
}

func Test_Evaluate_CurrencySum(t *testing.T) {
	// summing grep records coerces each line's amount
	assert := assert.New(t)

	ev := newTestEvaluator("Sales: $1,500,000\nSales: $2,300,000\nSales: $1,800,000\nSales: $2,400,000")

	v := mustEval(t, ev, `(sum (grep "Sales"))`)

	require.Equal(t, ValueNumber, v.Kind())
	assert.InDelta(8000000.0, v.Num(), 0.001)

	results, ok := ev.Env.Lookup(BindingResults)
	require.True(t, ok, "RESULTS must hold the grep records after a scalar turn")
	require.Equal(t, ValueList, results.Kind())
	assert.Len(results.List(), 4)
}

func Test_Evaluate_FilteredCount(t *testing.T) {
	// grep, then count a filtered RESULTS on the next turn
	assert := assert.New(t)

	ev := newTestEvaluator("FATAL: Database connection failed\nINFO: user logged in\nFATAL: file not found\nFATAL: Network timeout")

	first := mustEval(t, ev, `(grep "FATAL")`)
	require.Equal(t, ValueList, first.Kind())
	assert.Len(first.List(), 3)

	second := mustEval(t, ev, `(count (filter RESULTS (lambda x (match x "Network" 0))))`)
	require.Equal(t, ValueNumber, second.Kind())
	assert.Equal(1.0, second.Num())
}

func Test_Evaluate_TurnBindings(t *testing.T) {
	assert := assert.New(t)

	ev := newTestEvaluator("a\nb")

	mustEval(t, ev, `(count (grep "a"))`)
	mustEval(t, ev, `(grep "b")`)

	turn1, ok := ev.Env.Lookup("_1")
	require.True(t, ok)
	assert.Equal(ValueNumber, turn1.Kind())

	turn2, ok := ev.Env.Lookup("_2")
	require.True(t, ok)
	assert.Equal(ValueList, turn2.Kind())

	results, ok := ev.Env.Lookup(BindingResults)
	require.True(t, ok)
	assert.True(results.Equal(turn2), "RESULTS must track the latest sequence")
}

func Test_Evaluate_Strings(t *testing.T) {
	testCases := []struct {
		name   string
		source string
		expect Value
	}{
		{name: "match captures a group", source: `(match "ab-12" "(\\w+)-(\\d+)" 2)`, expect: StringOf("12")},
		{name: "match group zero is the whole hit", source: `(match "ab-12" "\\d+" 0)`, expect: StringOf("12")},
		{name: "match miss is null", source: `(match "abc" "\\d+" 0)`, expect: Null()},
		{name: "match with an oversized group is null", source: `(match "ab" "(a)" 5)`, expect: Null()},
		{name: "replace rewrites globally", source: `(replace "a1b2" "\\d" "_")`, expect: StringOf("a_b_")},
		{name: "split picks a part", source: `(split "a,b,c" "," 1)`, expect: StringOf("b")},
		{name: "split out of range is null", source: `(split "a,b" "," 9)`, expect: Null()},
		{name: "add parses textual operands", source: `(add "3" 4)`, expect: NumberOf(7)},
		{name: "if is truthy on non-empty strings", source: `(if "x" "then" "else")`, expect: StringOf("then")},
		{name: "if treats zero as false", source: `(if 0 "then" "else")`, expect: StringOf("else")},
		{name: "if treats empty string as false", source: `(if "" "then" "else")`, expect: StringOf("else")},
		{name: "absorb passes successes through", source: `(absorb (split "a,b" "," 0) "fb")`, expect: StringOf("a")},
		{name: "absorb replaces failures", source: `(absorb (match "x" "(unclosed" 0) "fb")`, expect: StringOf("fb")},
		{name: "coerce to number", source: `(coerce "price: $42" number)`, expect: NumberOf(42)},
		{name: "parse currency", source: `(parseCurrency "$1,234.50")`, expect: NumberOf(1234.5)},
		{name: "parse EU currency", source: `(parseCurrency "€1.234,50")`, expect: NumberOf(1234.5)},
		{name: "parse swiss currency", source: `(parseCurrency "CHF 1'234.50")`, expect: NumberOf(1234.5)},
		{name: "parse int from noise", source: `(parseInt "about 1,200 units")`, expect: NumberOf(1200)},
		{name: "parse float", source: `(parseFloat "pi is 3.14 ok")`, expect: NumberOf(3.14)},
		{name: "parse percentage", source: `(parseNumber "45%")`, expect: NumberOf(45)},
		{name: "parse date month name", source: `(parseDate "Jan 15, 2024")`, expect: StringOf("2024-01-15")},
		{name: "parse date iso-ish", source: `(parseDate "2024/01/15")`, expect: StringOf("2024-01-15")},
		{name: "parse date with hint", source: `(parseDate "01/02/24" "DD/MM/YYYY")`, expect: StringOf("2024-02-01")},
		{name: "parse date miss is null", source: `(parseDate "no date here")`, expect: Null()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			ev := newTestEvaluator("irrelevant")
			v := mustEval(t, ev, tc.source)

			assert.True(tc.expect.Equal(v), "expected %s, got %s", tc.expect, v)
		})
	}
}

func Test_Evaluate_Collections(t *testing.T) {
	assert := assert.New(t)

	ev := newTestEvaluator("x: 1\nx: 2\nx: 3")

	v := mustEval(t, ev, `(map (grep "x: (\\d)") (lambda m (parseInt m)))`)
	require.Equal(t, ValueList, v.Kind())
	require.Len(t, v.List(), 3)
	assert.Equal(1.0, v.List()[0].Num())

	total := mustEval(t, ev, `(reduce (lines 1 3) 0 (lambda acc (lambda line (add acc (parseInt line)))))`)
	require.Equal(t, ValueNumber, total.Kind())
	assert.Equal(6.0, total.Num())

	n := mustEval(t, ev, `(count (lines 1 2))`)
	assert.Equal(2.0, n.Num())
}

func Test_Evaluate_Closures(t *testing.T) {
	assert := assert.New(t)

	ev := newTestEvaluator("doc")

	// closures capture the environment at creation; later mutations of the
	// session bindings must not leak in
	ev.Env.Set("k", NumberOf(10))
	fn := mustEval(t, ev, `(lambda x (add x k))`)
	require.Equal(t, ValueClosure, fn.Kind())

	ev.Env.Set("f", fn)
	ev.Env.Set("k", NumberOf(99))

	got := mustEval(t, ev, `(f 5)`)
	assert.Equal(15.0, got.Num(), "captured k must stay 10")
}

func Test_Evaluate_Lines_And_Stats(t *testing.T) {
	assert := assert.New(t)

	ev := newTestEvaluator("l1\nl2\nl3\nl4")

	lines := mustEval(t, ev, `(lines 2 3)`)
	require.Equal(t, ValueList, lines.Kind())
	assert.Equal(StringOf("l2"), lines.List()[0])
	assert.Equal(StringOf("l3"), lines.List()[1])

	stats := mustEval(t, ev, `(text_stats)`)
	require.Equal(t, ValueMap, stats.Kind())
	assert.Equal(4.0, stats.Field("lineCount").Num())
	assert.Equal(float64(len("l1\nl2\nl3\nl4")), stats.Field("length").Num())
}

func Test_Evaluate_Errors(t *testing.T) {
	testCases := []struct {
		name       string
		source     string
		expectKind mkerrors.Kind
	}{
		{name: "unbound variable", source: `nosuchthing`, expectKind: mkerrors.KindUnbound},
		{name: "unbound function", source: `(apply-fn ghost "x")`, expectKind: mkerrors.KindUnbound},
		{name: "invalid grep pattern", source: `(grep "(unclosed")`, expectKind: mkerrors.KindInvalidPattern},
		{name: "invalid match pattern", source: `(match "x" "(unclosed" 0)`, expectKind: mkerrors.KindInvalidPattern},
		{name: "invalid replace pattern", source: `(replace "x" "(unclosed" "y")`, expectKind: mkerrors.KindInvalidPattern},
		{name: "applying a non-function", source: `(app 42 1)`, expectKind: mkerrors.KindType},
		{name: "counting a scalar", source: `(count (add 1 2))`, expectKind: mkerrors.KindType},
		{name: "filtering with a non-function", source: `(filter (grep "x") 3)`, expectKind: mkerrors.KindType},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			ev := newTestEvaluator("x line")
			err := evalErr(t, ev, tc.source)

			assert.Equal(tc.expectKind, mkerrors.KindOf(err))
		})
	}
}

func Test_Evaluate_ErrorLeavesBindingsAlone(t *testing.T) {
	assert := assert.New(t)

	ev := newTestEvaluator("a")
	mustEval(t, ev, `(grep "a")`)
	before, _ := ev.Env.Lookup(BindingResults)

	evalErr(t, ev, `(count nosuchvar)`)

	after, ok := ev.Env.Lookup(BindingResults)
	require.True(t, ok)
	assert.True(before.Equal(after), "a failed turn must not move RESULTS")
	assert.Equal(1, ev.Env.Turn(), "a failed turn must not advance the counter")
}

func Test_Evaluate_Deadline(t *testing.T) {
	assert := assert.New(t)

	ev := newTestEvaluator("a\na\na")
	ev.Deadline = time.Now().Add(-time.Second)

	err := evalErr(t, ev, `(grep "a")`)

	assert.Equal(mkerrors.KindCancelled, mkerrors.KindOf(err))
	_, bound := ev.Env.Lookup(BindingResults)
	assert.False(bound, "cancellation must not bind results")
}

func Test_Evaluate_DefineAndApply(t *testing.T) {
	assert := assert.New(t)

	ev := newTestEvaluator("doc")

	fn := mustEval(t, ev, `(define-fn pick_level (ex "[ERROR] a" "ERROR") (ex "[WARN] b" "WARN"))`)
	require.Equal(t, ValueSynthFn, fn.Kind())

	_, bound := ev.Env.Function("pick_level")
	assert.True(bound, "define-fn must bind _fn_pick_level")

	got := mustEval(t, ev, `(apply-fn pick_level "[ERROR] disk full")`)
	assert.Equal(StringOf("ERROR"), got)
}

func Test_Evaluate_SynthesisFallbackParse(t *testing.T) {
	assert := assert.New(t)

	ev := newTestEvaluator("doc")

	// the built-in parser already reads "25/12/24" day-first (its first field
	// is over twelve), so the example pairs are carried but not consulted
	got := mustEval(t, ev, `(parseDate "25/12/24" (ex "15/01/24" "2024-01-15") (ex "20/02/24" "2024-02-20"))`)

	assert.Equal(StringOf("2024-12-25"), got)
}

func Test_Evaluate_SymbolOpsDefaultEmpty(t *testing.T) {
	assert := assert.New(t)

	ev := newTestEvaluator("plain text, not source")

	syms := mustEval(t, ev, `(list_symbols)`)
	require.Equal(t, ValueList, syms.Kind())
	assert.Empty(syms.List())

	body := mustEval(t, ev, `(get_symbol_body "main")`)
	assert.True(body.IsNull())

	refs := mustEval(t, ev, `(find_references "main")`)
	assert.Empty(refs.List())
}

func Test_Value_Truthiness(t *testing.T) {
	assert := assert.New(t)

	assert.False(Null().Truthy())
	assert.False(BoolOf(false).Truthy())
	assert.False(NumberOf(0).Truthy())
	assert.False(StringOf("").Truthy())
	assert.True(BoolOf(true).Truthy())
	assert.True(NumberOf(-1).Truthy())
	assert.True(StringOf("x").Truthy())
	assert.True(ListOf(nil).Truthy())
}
