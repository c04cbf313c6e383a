package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yogthos/matryoshka/mkerrors"
)

func Test_Lex(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect []TokenType
	}{
		{
			name:   "delimiters",
			input:  `()[]⊗`,
			expect: []TokenType{TokenLParen, TokenRParen, TokenLBracket, TokenRBracket, TokenTensor, TokenEOF},
		},
		{
			name:   "string with escapes",
			input:  `"a\nb"`,
			expect: []TokenType{TokenString, TokenEOF},
		},
		{
			name:   "negative number",
			input:  `-12.5`,
			expect: []TokenType{TokenNumber, TokenEOF},
		},
		{
			name:   "booleans lex specially",
			input:  `true false`,
			expect: []TokenType{TokenBool, TokenBool, TokenEOF},
		},
		{
			name:   "greek symbols",
			input:  `Σ⚡μ φ`,
			expect: []TokenType{TokenSymbol, TokenSymbol, TokenEOF},
		},
		{
			name:   "stray characters skip silently",
			input:  `(grep @@@ "x")`,
			expect: []TokenType{TokenLParen, TokenSymbol, TokenString, TokenRParen, TokenEOF},
		},
		{
			name:   "dashed head symbol",
			input:  `define-fn`,
			expect: []TokenType{TokenSymbol, TokenEOF},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			toks := Lex(tc.input)

			actual := make([]TokenType, len(toks))
			for i, tok := range toks {
				actual[i] = tok.Type
			}
			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_Lex_StringDecoding(t *testing.T) {
	assert := assert.New(t)

	toks := Lex(`"a\tb\\c\"d\qe"`)

	assert.Equal(TokenString, toks[0].Type)
	assert.Equal("a\tb\\c\"dqe", toks[0].Str)
}

func Test_Parse(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect *Term
	}{
		{
			name:   "bare number",
			input:  "42",
			expect: &Term{Kind: KindLit, Lit: NumberLit(42)},
		},
		{
			name:   "bare symbol is a var",
			input:  "RESULTS",
			expect: &Term{Kind: KindVar, Name: "RESULTS"},
		},
		{
			name:   "input leaf",
			input:  "input",
			expect: &Term{Kind: KindInput},
		},
		{
			name:  "grep",
			input: `(grep "Sales")`,
			expect: &Term{Kind: KindGrep, Args: []*Term{
				{Kind: KindLit, Lit: StringLit("Sales")},
			}},
		},
		{
			name:  "fuzzy search with limit",
			input: `(fuzzy_search "revenue" 5)`,
			expect: &Term{Kind: KindFuzzySearch, Args: []*Term{
				{Kind: KindLit, Lit: StringLit("revenue")},
				{Kind: KindLit, Lit: NumberLit(5)},
			}},
		},
		{
			name:  "lambda binds a parameter",
			input: `(lambda x (match x "a" 0))`,
			expect: &Term{Kind: KindLambda, Name: "x", Args: []*Term{
				{Kind: KindMatch, Args: []*Term{
					{Kind: KindVar, Name: "x"},
					{Kind: KindLit, Lit: StringLit("a")},
					{Kind: KindLit, Lit: NumberLit(0)},
				}},
			}},
		},
		{
			name:  "greek lambda",
			input: `(λ x x)`,
			expect: &Term{Kind: KindLambda, Name: "x", Args: []*Term{
				{Kind: KindVar, Name: "x"},
			}},
		},
		{
			name:  "classify gathers example pairs",
			input: `(classify (ex "[ERROR] a" true) (ex "[INFO] b" false))`,
			expect: &Term{Kind: KindClassify, Examples: []Example{
				{Input: "[ERROR] a", Output: BoolLit(true)},
				{Input: "[INFO] b", Output: BoolLit(false)},
			}},
		},
		{
			name:  "parse with example fallback",
			input: `(parseDate x (ex "15/01/24" "2024-01-15"))`,
			expect: &Term{Kind: KindParseDate,
				Args:     []*Term{{Kind: KindVar, Name: "x"}},
				Examples: []Example{{Input: "15/01/24", Output: StringLit("2024-01-15")}},
			},
		},
		{
			name:  "unknown head becomes application",
			input: `(double 4)`,
			expect: &Term{Kind: KindApp, Args: []*Term{
				{Kind: KindVar, Name: "double"},
				{Kind: KindLit, Lit: NumberLit(4)},
			}},
		},
		{
			name:   "unknown head with no args degrades to a var",
			input:  `(myThing)`,
			expect: &Term{Kind: KindVar, Name: "myThing"},
		},
		{
			name:  "unknown head curries left",
			input: `(f 1 2)`,
			expect: &Term{Kind: KindApp, Args: []*Term{
				{Kind: KindApp, Args: []*Term{
					{Kind: KindVar, Name: "f"},
					{Kind: KindLit, Lit: NumberLit(1)},
				}},
				{Kind: KindLit, Lit: NumberLit(2)},
			}},
		},
		{
			name:  "constrained term",
			input: `[Σ⚡μ] ⊗ (grep "x")`,
			expect: &Term{Kind: KindConstrained, Name: "Σ⚡μ", Args: []*Term{
				{Kind: KindGrep, Args: []*Term{{Kind: KindLit, Lit: StringLit("x")}}},
			}},
		},
		{
			name:  "define-fn",
			input: `(define-fn total (ex "a: 1" 1) (ex "b: 2" 2))`,
			expect: &Term{Kind: KindDefineFn, Name: "total", Examples: []Example{
				{Input: "a: 1", Output: NumberLit(1)},
				{Input: "b: 2", Output: NumberLit(2)},
			}},
		},
		{
			name:  "extract with target type",
			input: `(extract input "(\\d+)" 1 number)`,
			expect: &Term{Kind: KindExtract, Name: "number", Args: []*Term{
				{Kind: KindInput},
				{Kind: KindLit, Lit: StringLit(`(\d+)`)},
				{Kind: KindLit, Lit: NumberLit(1)},
			}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			res := Parse(tc.input)

			if !assert.NoError(res.Err) {
				return
			}
			assert.True(tc.expect.Equal(res.Term), "expected:\n%s\nactual:\n%s", tc.expect.String(), res.Term.String())
		})
	}
}

func Test_Parse_Errors(t *testing.T) {
	testCases := []struct {
		name       string
		input      string
		expectKind mkerrors.Kind
	}{
		{name: "empty input", input: "", expectKind: mkerrors.KindParse},
		{name: "only skipped junk", input: "~~ !!", expectKind: mkerrors.KindParse},
		{name: "unterminated list", input: `(grep "x"`, expectKind: mkerrors.KindParse},
		{name: "unterminated string", input: `(grep "x`, expectKind: mkerrors.KindParse},
		{name: "grep without a string", input: `(grep 42)`, expectKind: mkerrors.KindParse},
		{name: "lines with non-numeric bounds", input: `(lines "a" "b")`, expectKind: mkerrors.KindParse},
		{name: "constraint without operand", input: `[Σ] ⊗`, expectKind: mkerrors.KindParse},
		{name: "constraint missing tensor", input: `[Σ] (grep "x")`, expectKind: mkerrors.KindParse},
		{name: "constraint with non-symbol", input: `[42] ⊗ (grep "x")`, expectKind: mkerrors.KindParse},
		{name: "classify with one example", input: `(classify (ex "a" true))`, expectKind: mkerrors.KindInsufficientExamples},
		{name: "classify with no false example", input: `(classify (ex "a" true) (ex "b" true))`, expectKind: mkerrors.KindInsufficientExamples},
		{name: "classify with same outputs", input: `(classify (ex "a" "x") (ex "b" "x"))`, expectKind: mkerrors.KindInsufficientExamples},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			res := Parse(tc.input)

			if !assert.Error(res.Err) {
				return
			}
			assert.Equal(tc.expectKind, mkerrors.KindOf(res.Err))
		})
	}
}

func Test_Parse_TrailingTokens(t *testing.T) {
	assert := assert.New(t)

	res := Parse(`(grep "x") extra stuff`)

	assert.NoError(res.Err)
	assert.NotEmpty(res.TrailingNote)
	assert.Equal(KindGrep, res.Term.Kind)
}

func Test_Parse_RoundTrip(t *testing.T) {
	// every well-formed term with no constrained node must survive
	// parse(Nucleus(t)) structurally intact
	sources := []string{
		`42`,
		`-3.25`,
		`true`,
		`"hello\nthere"`,
		`input`,
		`RESULTS`,
		`(text_stats)`,
		`(grep "Sales")`,
		`(fuzzy_search "revenue" 5)`,
		`(lines 10 20)`,
		`(sum (grep "Sales"))`,
		`(count (filter RESULTS (lambda x (match x "Network" 0))))`,
		`(map RESULTS (lambda x (parseCurrency x)))`,
		`(reduce RESULTS 0 (lambda a (lambda x (add a x))))`,
		`(if (match input "x" 0) "yes" "no")`,
		`(replace input "a+" "b")`,
		`(split input "," 2)`,
		`(classify (ex "[ERROR] a" true) (ex "[INFO] b" false))`,
		`(predicate input (ex "[ERROR] a" true) (ex "[INFO] b" false))`,
		`(define-fn total (ex "a: 1" 1) (ex "b: 2" 2))`,
		`(apply-fn total input)`,
		`(extract input "(\\d+)" 1 number)`,
		`(coerce input number)`,
		`(synthesize (ex "a=1" "1"))`,
		`(list_symbols function)`,
		`(get_symbol_body "main")`,
		`(find_references "Parse")`,
		`(absorb (grep "x") "")`,
		`(parseDate input "DD/MM/YYYY" (ex "15/01/24" "2024-01-15"))`,
		`(double 4)`,
	}

	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			assert := assert.New(t)

			first := Parse(src)
			require.NoError(t, first.Err)

			printed := first.Term.Nucleus()
			second := Parse(printed)
			require.NoError(t, second.Err, "printed form %q must reparse", printed)

			assert.True(first.Term.Equal(second.Term),
				"round trip changed the tree\nsource:  %s\nprinted: %s\nfirst:\n%s\nsecond:\n%s",
				src, printed, first.Term.String(), second.Term.String())
		})
	}
}
