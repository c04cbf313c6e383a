package syntax

import (
	"fmt"

	"github.com/yogthos/matryoshka/mkerrors"
)

// ParseResult is what Parse hands back. Exactly one of Term and Err is set.
// TrailingNote is set when well-formed input was followed by extra tokens;
// the first term still parses and the note describes what was ignored.
type ParseResult struct {
	Term         *Term
	TrailingNote string
	Err          error
}

// Parse turns Nucleus source into a term tree. It never panics across the
// API boundary: every malformed input comes back as a ParseResult with a
// human-readable error.
func Parse(input string) ParseResult {
	toks := Lex(input)
	if toks[0].Type == TokenEOF {
		return ParseResult{Err: mkerrors.New(mkerrors.KindParse, "empty input")}
	}

	p := &parser{toks: toks}
	term, err := p.parseTerm()
	if err != nil {
		return ParseResult{Err: err}
	}

	res := ParseResult{Term: term}
	if p.peek().Type != TokenEOF {
		res.TrailingNote = fmt.Sprintf("ignored %d trailing token(s) starting with %s", p.remaining(), p.peek().Type)
	}
	return res
}

type parser struct {
	toks []Token
	pos  int
}

func (p *parser) peek() Token {
	return p.toks[p.pos]
}

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if t.Type != TokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) remaining() int {
	return len(p.toks) - 1 - p.pos
}

func (p *parser) errf(format string, a ...interface{}) error {
	return mkerrors.New(mkerrors.KindParse, format, a...)
}

func (p *parser) parseTerm() (*Term, error) {
	tok := p.peek()

	switch tok.Type {
	case TokenLBracket:
		return p.parseConstrained()
	case TokenLParen:
		return p.parseList()
	case TokenString:
		p.next()
		if len(tok.Text) < 2 || tok.Text[len(tok.Text)-1] != '"' {
			return nil, p.errf("unterminated string literal at offset %d", tok.Pos)
		}
		return &Term{Kind: KindLit, Lit: StringLit(tok.Str)}, nil
	case TokenNumber:
		p.next()
		return &Term{Kind: KindLit, Lit: NumberLit(tok.Num)}, nil
	case TokenBool:
		p.next()
		return &Term{Kind: KindLit, Lit: BoolLit(tok.B)}, nil
	case TokenSymbol:
		p.next()
		if tok.Text == "input" {
			return &Term{Kind: KindInput}, nil
		}
		return &Term{Kind: KindVar, Name: tok.Text}, nil
	case TokenEOF:
		return nil, p.errf("unexpected end of input")
	default:
		return nil, p.errf("unexpected %s at offset %d", tok.Type, tok.Pos)
	}
}

// parseConstrained reads the bracket form [op] ⊗ term.
func (p *parser) parseConstrained() (*Term, error) {
	p.next() // consume '['

	opTok := p.next()
	if opTok.Type != TokenSymbol {
		return nil, p.errf("constraint bracket must contain a symbol, got %s", opTok.Type)
	}
	if close := p.next(); close.Type != TokenRBracket {
		return nil, p.errf("constraint bracket for %q is not closed", opTok.Text)
	}
	if tensor := p.next(); tensor.Type != TokenTensor {
		return nil, p.errf("constraint [%s] must be joined to its term with ⊗", opTok.Text)
	}
	if p.peek().Type == TokenEOF {
		return nil, p.errf("constraint [%s] is missing its operand", opTok.Text)
	}

	inner, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	return &Term{Kind: KindConstrained, Name: opTok.Text, Args: []*Term{inner}}, nil
}

// parseList reads ( head term* ) and dispatches on the head symbol.
func (p *parser) parseList() (*Term, error) {
	p.next() // consume '('

	head := p.next()
	if head.Type == TokenEOF {
		return nil, p.errf("unterminated list")
	}
	if head.Type != TokenSymbol {
		return nil, p.errf("list head must be an operator symbol, got %s", head.Type)
	}

	args, err := p.parseArgs(head.Text)
	if err != nil {
		return nil, err
	}

	return p.build(head.Text, args)
}

// parseArgs reads terms until the closing paren of the current list.
func (p *parser) parseArgs(head string) ([]*Term, error) {
	var args []*Term
	for {
		tok := p.peek()
		if tok.Type == TokenRParen {
			p.next()
			return args, nil
		}
		if tok.Type == TokenEOF {
			return nil, p.errf("unterminated list (%s ...)", head)
		}
		arg, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
}

// exPair recognizes an (ex "input" output) pair parsed as an app chain, since
// ex is not itself an operator. The parser builds unknown heads as
// applications, so a pair arrives as app(app(var(ex), in), out).
func exPair(t *Term) (Example, bool) {
	if t == nil || t.Kind != KindApp || len(t.Args) != 2 {
		return Example{}, false
	}
	inner := t.Args[0]
	if inner.Kind != KindApp || len(inner.Args) != 2 {
		return Example{}, false
	}
	fn := inner.Args[0]
	if fn.Kind != KindVar || fn.Name != "ex" {
		return Example{}, false
	}
	in := inner.Args[1]
	out := t.Args[1]
	if in.Kind != KindLit || in.Lit.Kind() != LitString || out.Kind != KindLit {
		return Example{}, false
	}
	return Example{Input: in.Lit.Str(), Output: out.Lit}, true
}

// splitExamples peels trailing (ex ...) pairs off an argument list.
func splitExamples(args []*Term) ([]*Term, []Example) {
	cut := len(args)
	for cut > 0 {
		if _, ok := exPair(args[cut-1]); !ok {
			break
		}
		cut--
	}
	var examples []Example
	for _, a := range args[cut:] {
		ex, _ := exPair(a)
		examples = append(examples, ex)
	}
	return args[:cut], examples
}

func (p *parser) build(head string, args []*Term) (*Term, error) {
	switch head {
	case "input":
		if err := p.arity(head, args, 0); err != nil {
			return nil, err
		}
		return &Term{Kind: KindInput}, nil

	case "lit":
		if err := p.arity(head, args, 1); err != nil {
			return nil, err
		}
		if args[0].Kind != KindLit {
			return nil, p.errf("(lit ...) requires a literal argument")
		}
		return args[0], nil

	case "text_stats":
		if err := p.arity(head, args, 0); err != nil {
			return nil, err
		}
		return &Term{Kind: KindTextStats}, nil

	case "grep":
		if err := p.arity(head, args, 1); err != nil {
			return nil, err
		}
		if !isStringLit(args[0]) {
			return nil, p.errf("(grep ...) requires a string pattern, got %s", describeArg(args[0]))
		}
		return &Term{Kind: KindGrep, Args: args}, nil

	case "fuzzy_search":
		if len(args) < 1 || len(args) > 2 {
			return nil, p.errf("(fuzzy_search ...) takes a query and an optional limit, got %d argument(s)", len(args))
		}
		if !isStringLit(args[0]) {
			return nil, p.errf("(fuzzy_search ...) requires a string query, got %s", describeArg(args[0]))
		}
		if len(args) == 2 && !isNumberLit(args[1]) {
			return nil, p.errf("(fuzzy_search ...) limit must be a number, got %s", describeArg(args[1]))
		}
		return &Term{Kind: KindFuzzySearch, Args: args}, nil

	case "lines":
		if err := p.arity(head, args, 2); err != nil {
			return nil, err
		}
		if !isNumberLit(args[0]) || !isNumberLit(args[1]) {
			return nil, p.errf("(lines ...) requires numeric start and end")
		}
		return &Term{Kind: KindLines, Args: args}, nil

	case "parseInt", "parseFloat", "parseNumber", "parseCurrency":
		kind := map[string]TermKind{
			"parseInt":      KindParseInt,
			"parseFloat":    KindParseFloat,
			"parseNumber":   KindParseNumber,
			"parseCurrency": KindParseCurrency,
		}[head]
		rest, examples := splitExamples(args)
		if len(rest) != 1 {
			return nil, p.errf("(%s ...) takes one argument plus optional (ex ...) pairs", head)
		}
		return &Term{Kind: kind, Args: rest, Examples: examples}, nil

	case "parseDate":
		rest, examples := splitExamples(args)
		if len(rest) < 1 || len(rest) > 2 {
			return nil, p.errf("(parseDate ...) takes an argument, an optional format hint, and optional (ex ...) pairs")
		}
		t := &Term{Kind: KindParseDate, Args: rest[:1], Examples: examples}
		if len(rest) == 2 {
			if !isStringLit(rest[1]) {
				return nil, p.errf("(parseDate ...) format hint must be a string, got %s", describeArg(rest[1]))
			}
			t.Name = rest[1].Lit.Str()
		}
		return t, nil

	case "count", "sum":
		kind := KindCount
		if head == "sum" {
			kind = KindSum
		}
		if err := p.arity(head, args, 1); err != nil {
			return nil, err
		}
		return &Term{Kind: kind, Args: args}, nil

	case "add":
		if err := p.arity(head, args, 2); err != nil {
			return nil, err
		}
		return &Term{Kind: KindAdd, Args: args}, nil

	case "match":
		if err := p.arity(head, args, 3); err != nil {
			return nil, err
		}
		return &Term{Kind: KindMatch, Args: args}, nil

	case "replace":
		if err := p.arity(head, args, 3); err != nil {
			return nil, err
		}
		return &Term{Kind: KindReplace, Args: args}, nil

	case "split":
		if err := p.arity(head, args, 3); err != nil {
			return nil, err
		}
		return &Term{Kind: KindSplit, Args: args}, nil

	case "filter", "map":
		kind := KindFilter
		if head == "map" {
			kind = KindMap
		}
		if err := p.arity(head, args, 2); err != nil {
			return nil, err
		}
		return &Term{Kind: kind, Args: args}, nil

	case "reduce":
		if err := p.arity(head, args, 3); err != nil {
			return nil, err
		}
		return &Term{Kind: KindReduce, Args: args}, nil

	case "if":
		if err := p.arity(head, args, 3); err != nil {
			return nil, err
		}
		return &Term{Kind: KindIf, Args: args}, nil

	case "lambda", "λ":
		if err := p.arity(head, args, 2); err != nil {
			return nil, err
		}
		if args[0].Kind != KindVar {
			return nil, p.errf("(%s ...) parameter must be a symbol, got %s", head, describeArg(args[0]))
		}
		return &Term{Kind: KindLambda, Name: args[0].Name, Args: args[1:]}, nil

	case "app":
		if err := p.arity(head, args, 2); err != nil {
			return nil, err
		}
		return &Term{Kind: KindApp, Args: args}, nil

	case "classify":
		rest, examples := splitExamples(args)
		if len(rest) != 0 {
			return nil, p.errf("(classify ...) takes only (ex ...) pairs, got %s", describeArg(rest[0]))
		}
		if err := checkClassifyExamples(examples); err != nil {
			return nil, err
		}
		return &Term{Kind: KindClassify, Examples: examples}, nil

	case "predicate":
		rest, examples := splitExamples(args)
		if len(rest) != 1 {
			return nil, p.errf("(predicate ...) takes a subject term then (ex ...) pairs")
		}
		if err := checkBooleanExamples("predicate", examples); err != nil {
			return nil, err
		}
		return &Term{Kind: KindPredicate, Args: rest, Examples: examples}, nil

	case "define-fn":
		if len(args) < 1 || args[0].Kind != KindVar {
			return nil, p.errf("(define-fn ...) requires a name symbol first")
		}
		rest, examples := splitExamples(args[1:])
		if len(rest) != 0 || len(examples) == 0 {
			return nil, p.errf("(define-fn %s ...) takes only (ex ...) pairs after the name", args[0].Name)
		}
		return &Term{Kind: KindDefineFn, Name: args[0].Name, Examples: examples}, nil

	case "apply-fn":
		if err := p.arity(head, args, 2); err != nil {
			return nil, err
		}
		if args[0].Kind != KindVar {
			return nil, p.errf("(apply-fn ...) requires a name symbol first")
		}
		return &Term{Kind: KindApplyFn, Name: args[0].Name, Args: args[1:]}, nil

	case "extract":
		rest, examples := splitExamples(args)
		if len(rest) < 3 || len(rest) > 4 {
			return nil, p.errf("(extract ...) takes subject, pattern, group, optional target type, then optional (ex ...) pairs")
		}
		t := &Term{Kind: KindExtract, Args: rest[:3], Examples: examples}
		if len(rest) == 4 {
			if rest[3].Kind != KindVar {
				return nil, p.errf("(extract ...) target type must be a symbol, got %s", describeArg(rest[3]))
			}
			t.Name = rest[3].Name
		}
		return t, nil

	case "coerce":
		if err := p.arity(head, args, 2); err != nil {
			return nil, err
		}
		if args[1].Kind != KindVar {
			return nil, p.errf("(coerce ...) target type must be a symbol, got %s", describeArg(args[1]))
		}
		return &Term{Kind: KindCoerce, Name: args[1].Name, Args: args[:1]}, nil

	case "synthesize":
		rest, examples := splitExamples(args)
		if len(rest) != 0 {
			return nil, p.errf("(synthesize ...) takes only (ex ...) pairs, got %s", describeArg(rest[0]))
		}
		if len(examples) < 1 {
			return nil, mkerrors.New(mkerrors.KindInsufficientExamples, "(synthesize ...) requires at least one (ex ...) pair")
		}
		return &Term{Kind: KindSynthesize, Examples: examples}, nil

	case "list_symbols":
		if len(args) > 1 {
			return nil, p.errf("(list_symbols ...) takes at most a kind")
		}
		t := &Term{Kind: KindListSymbols}
		if len(args) == 1 {
			switch {
			case args[0].Kind == KindVar:
				t.Name = args[0].Name
			case isStringLit(args[0]):
				t.Name = args[0].Lit.Str()
			default:
				return nil, p.errf("(list_symbols ...) kind must be a symbol or string")
			}
		}
		return t, nil

	case "get_symbol_body":
		if err := p.arity(head, args, 1); err != nil {
			return nil, err
		}
		return &Term{Kind: KindGetSymbolBody, Args: args}, nil

	case "find_references":
		if err := p.arity(head, args, 1); err != nil {
			return nil, err
		}
		return &Term{Kind: KindFindReferences, Args: args}, nil

	case "absorb":
		if err := p.arity(head, args, 2); err != nil {
			return nil, err
		}
		return &Term{Kind: KindAbsorb, Args: args}, nil

	default:
		// Unknown heads degrade to function application so that bound names
		// are callable: (f x y) is app(app(var(f), x), y), and a bare (f)
		// is just the reference.
		t := &Term{Kind: KindVar, Name: head}
		for _, arg := range args {
			t = &Term{Kind: KindApp, Args: []*Term{t, arg}}
		}
		return t, nil
	}
}

func (p *parser) arity(head string, args []*Term, want int) error {
	if len(args) != want {
		return p.errf("(%s ...) takes %d argument(s), got %d", head, want, len(args))
	}
	return nil
}

func isStringLit(t *Term) bool {
	return t != nil && t.Kind == KindLit && t.Lit.Kind() == LitString
}

func isNumberLit(t *Term) bool {
	return t != nil && t.Kind == KindLit && t.Lit.Kind() == LitNumber
}

func describeArg(t *Term) string {
	if t == nil {
		return "nothing"
	}
	if t.Kind == KindLit {
		return t.Lit.String()
	}
	return opNames[t.Kind]
}

// checkClassifyExamples enforces the example floor for classify: at least two
// pairs, and when the output domain is boolean, at least one true and one
// false output.
func checkClassifyExamples(examples []Example) error {
	if len(examples) < 2 {
		return mkerrors.New(mkerrors.KindInsufficientExamples, "(classify ...) requires at least two (ex ...) pairs, got %d", len(examples))
	}

	allBool := true
	for _, ex := range examples {
		if ex.Output.Kind() != LitBool {
			allBool = false
			break
		}
	}
	if allBool {
		return checkBooleanExamples("classify", examples)
	}

	// non-boolean domain: need at least two distinct outputs to learn from
	first := examples[0].Output
	for _, ex := range examples[1:] {
		if !ex.Output.Equal(first) {
			return nil
		}
	}
	return mkerrors.New(mkerrors.KindInsufficientExamples, "(classify ...) requires at least two distinct outputs")
}

func checkBooleanExamples(head string, examples []Example) error {
	if len(examples) == 0 {
		return mkerrors.New(mkerrors.KindInsufficientExamples, "(%s ...) requires (ex ...) pairs", head)
	}
	var sawTrue, sawFalse bool
	for _, ex := range examples {
		if ex.Output.Kind() == LitBool {
			if ex.Output.Bool() {
				sawTrue = true
			} else {
				sawFalse = true
			}
		}
	}
	if !sawTrue || !sawFalse {
		return mkerrors.New(mkerrors.KindInsufficientExamples, "(%s ...) requires at least one true and one false example", head)
	}
	return nil
}
