package handle

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/yogthos/matryoshka/lattice"
	"github.com/yogthos/matryoshka/mkerrors"
)

// The safe predicate compiler turns a short caller-supplied expression into
// a callable over one element, bound to the name item. The accepted language
// is a closed subset: dot access on item, numeric and string literals,
// comparisons, and/or/not, numeric arithmetic, and two helpers (includes
// and match against a string literal). Anything else fails at compile time;
// nothing is ever evaluated as code.

// Predicate is a compiled expression over one element.
type Predicate func(item lattice.Value) (lattice.Value, error)

var (
	compileMu    sync.RWMutex
	compileCache = map[string]Predicate{}
)

// Compile builds a predicate from source, caching by source text.
func Compile(source string) (Predicate, error) {
	compileMu.RLock()
	cached, ok := compileCache[source]
	compileMu.RUnlock()
	if ok {
		return cached, nil
	}

	p := &exprParser{toks: lexExpr(source), src: source}
	pred, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != exprEOF {
		return nil, p.errAt("unexpected %q", p.peek().text)
	}

	compileMu.Lock()
	compileCache[source] = pred
	compileMu.Unlock()
	return pred, nil
}

type exprTokKind int

const (
	exprEOF exprTokKind = iota
	exprIdent
	exprNumber
	exprString
	exprOp
)

type exprTok struct {
	kind exprTokKind
	text string
	num  float64
}

func lexExpr(src string) []exprTok {
	var toks []exprTok
	runes := []rune(src)
	i := 0

	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_') {
				j++
			}
			toks = append(toks, exprTok{kind: exprIdent, text: string(runes[i:j])})
			i = j

		case unicode.IsDigit(r):
			j := i
			for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
				j++
			}
			n, _ := strconv.ParseFloat(string(runes[i:j]), 64)
			toks = append(toks, exprTok{kind: exprNumber, text: string(runes[i:j]), num: n})
			i = j

		case r == '\'' || r == '"':
			quote := r
			j := i + 1
			var sb strings.Builder
			for j < len(runes) && runes[j] != quote {
				if runes[j] == '\\' && j+1 < len(runes) {
					j++
				}
				sb.WriteRune(runes[j])
				j++
			}
			toks = append(toks, exprTok{kind: exprString, text: sb.String()})
			i = j + 1

		default:
			two := ""
			if i+1 < len(runes) {
				two = string(runes[i : i+2])
			}
			switch two {
			case "==", "!=", "<=", ">=", "&&", "||":
				toks = append(toks, exprTok{kind: exprOp, text: two})
				i += 2
			default:
				toks = append(toks, exprTok{kind: exprOp, text: string(r)})
				i++
			}
		}
	}

	return append(toks, exprTok{kind: exprEOF})
}

type exprParser struct {
	toks []exprTok
	pos  int
	src  string
}

func (p *exprParser) peek() exprTok { return p.toks[p.pos] }

func (p *exprParser) next() exprTok {
	t := p.toks[p.pos]
	if t.kind != exprEOF {
		p.pos++
	}
	return t
}

func (p *exprParser) errAt(format string, a ...interface{}) error {
	args := append(a, p.src)
	return mkerrors.New(mkerrors.KindParse, format+" in expression %q", args...)
}

func (p *exprParser) parseOr() (Predicate, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.matchWord("or") || p.matchOp("||") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l, r := left, right
		left = func(item lattice.Value) (lattice.Value, error) {
			lv, err := l(item)
			if err != nil {
				return lattice.Null(), err
			}
			if lv.Truthy() {
				return lattice.BoolOf(true), nil
			}
			rv, err := r(item)
			if err != nil {
				return lattice.Null(), err
			}
			return lattice.BoolOf(rv.Truthy()), nil
		}
	}
	return left, nil
}

func (p *exprParser) parseAnd() (Predicate, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.matchWord("and") || p.matchOp("&&") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		l, r := left, right
		left = func(item lattice.Value) (lattice.Value, error) {
			lv, err := l(item)
			if err != nil {
				return lattice.Null(), err
			}
			if !lv.Truthy() {
				return lattice.BoolOf(false), nil
			}
			rv, err := r(item)
			if err != nil {
				return lattice.Null(), err
			}
			return lattice.BoolOf(rv.Truthy()), nil
		}
	}
	return left, nil
}

func (p *exprParser) parseNot() (Predicate, error) {
	if p.matchWord("not") || p.matchOp("!") {
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return func(item lattice.Value) (lattice.Value, error) {
			v, err := inner(item)
			if err != nil {
				return lattice.Null(), err
			}
			return lattice.BoolOf(!v.Truthy()), nil
		}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (p *exprParser) parseComparison() (Predicate, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	tok := p.peek()
	if tok.kind == exprOp && comparisonOps[tok.text] {
		p.next()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		op := tok.text
		l, r := left, right
		return func(item lattice.Value) (lattice.Value, error) {
			lv, err := l(item)
			if err != nil {
				return lattice.Null(), err
			}
			rv, err := r(item)
			if err != nil {
				return lattice.Null(), err
			}
			return compareValues(lv, rv, op), nil
		}, nil
	}
	return left, nil
}

func compareValues(lv, rv lattice.Value, op string) lattice.Value {
	ln, lok := lv.AsNumber()
	rn, rok := rv.AsNumber()

	var eq, lt bool
	if lok && rok {
		eq = ln == rn
		lt = ln < rn
	} else {
		eq = lv.Text() == rv.Text()
		lt = lv.Text() < rv.Text()
	}

	switch op {
	case "==":
		return lattice.BoolOf(eq)
	case "!=":
		return lattice.BoolOf(!eq)
	case "<":
		return lattice.BoolOf(lt)
	case "<=":
		return lattice.BoolOf(lt || eq)
	case ">":
		return lattice.BoolOf(!lt && !eq)
	default:
		return lattice.BoolOf(!lt)
	}
}

func (p *exprParser) parseAdditive() (Predicate, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != exprOp || (tok.text != "+" && tok.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = arithmetic(left, right, tok.text)
	}
}

func (p *exprParser) parseMultiplicative() (Predicate, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != exprOp || (tok.text != "*" && tok.text != "/") {
			return left, nil
		}
		p.next()
		right, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		left = arithmetic(left, right, tok.text)
	}
}

func arithmetic(l, r Predicate, op string) Predicate {
	return func(item lattice.Value) (lattice.Value, error) {
		lv, err := l(item)
		if err != nil {
			return lattice.Null(), err
		}
		rv, err := r(item)
		if err != nil {
			return lattice.Null(), err
		}
		ln, lok := lv.AsNumber()
		rn, rok := rv.AsNumber()
		if !lok || !rok {
			return lattice.Null(), mkerrors.New(mkerrors.KindType, "arithmetic on non-numeric values")
		}
		switch op {
		case "+":
			return lattice.NumberOf(ln + rn), nil
		case "-":
			return lattice.NumberOf(ln - rn), nil
		case "*":
			return lattice.NumberOf(ln * rn), nil
		default:
			if rn == 0 {
				return lattice.Null(), mkerrors.New(mkerrors.KindType, "division by zero")
			}
			return lattice.NumberOf(ln / rn), nil
		}
	}
}

// parsePostfix handles dot access and the two helper calls on any base
// expression.
func (p *exprParser) parsePostfix() (Predicate, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for p.matchOp(".") {
		nameTok := p.next()
		if nameTok.kind != exprIdent {
			return nil, p.errAt("expected a field or helper after '.'")
		}

		if p.matchOp("(") {
			pred, err := p.parseHelperCall(base, nameTok.text)
			if err != nil {
				return nil, err
			}
			base = pred
			continue
		}

		field := nameTok.text
		inner := base
		base = func(item lattice.Value) (lattice.Value, error) {
			v, err := inner(item)
			if err != nil {
				return lattice.Null(), err
			}
			return v.Field(field), nil
		}
	}
	return base, nil
}

// parseHelperCall accepts only the fixed helper set, each taking one string
// literal argument.
func (p *exprParser) parseHelperCall(base Predicate, name string) (Predicate, error) {
	argTok := p.next()
	if argTok.kind != exprString {
		return nil, p.errAt("%s takes a string literal", name)
	}
	if !p.matchOp(")") {
		return nil, p.errAt("unclosed call to %s", name)
	}

	switch name {
	case "includes":
		needle := argTok.text
		return func(item lattice.Value) (lattice.Value, error) {
			v, err := base(item)
			if err != nil {
				return lattice.Null(), err
			}
			return lattice.BoolOf(strings.Contains(v.Text(), needle)), nil
		}, nil

	case "match":
		re, err := regexp.Compile(argTok.text)
		if err != nil {
			return nil, mkerrors.Wrap(mkerrors.KindInvalidPattern, err, "match pattern %q does not compile", argTok.text)
		}
		return func(item lattice.Value) (lattice.Value, error) {
			v, err := base(item)
			if err != nil {
				return lattice.Null(), err
			}
			return lattice.BoolOf(re.MatchString(v.Text())), nil
		}, nil

	default:
		return nil, p.errAt("unknown helper %s; only includes and match are allowed", name)
	}
}

func (p *exprParser) parsePrimary() (Predicate, error) {
	tok := p.peek()

	switch tok.kind {
	case exprNumber:
		p.next()
		n := tok.num
		return func(lattice.Value) (lattice.Value, error) {
			return lattice.NumberOf(n), nil
		}, nil

	case exprString:
		p.next()
		s := tok.text
		return func(lattice.Value) (lattice.Value, error) {
			return lattice.StringOf(s), nil
		}, nil

	case exprIdent:
		p.next()
		switch tok.text {
		case "item":
			return func(item lattice.Value) (lattice.Value, error) {
				return item, nil
			}, nil
		case "true":
			return func(lattice.Value) (lattice.Value, error) {
				return lattice.BoolOf(true), nil
			}, nil
		case "false":
			return func(lattice.Value) (lattice.Value, error) {
				return lattice.BoolOf(false), nil
			}, nil
		default:
			return nil, p.errAt("unknown name %q; expressions see only item", tok.text)
		}

	case exprOp:
		if tok.text == "(" {
			p.next()
			inner, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if !p.matchOp(")") {
				return nil, p.errAt("unclosed parenthesis")
			}
			return inner, nil
		}
	}

	return nil, p.errAt("unexpected %q", tok.text)
}

func (p *exprParser) matchOp(op string) bool {
	if p.peek().kind == exprOp && p.peek().text == op {
		p.next()
		return true
	}
	return false
}

func (p *exprParser) matchWord(word string) bool {
	if p.peek().kind == exprIdent && p.peek().text == word {
		p.next()
		return true
	}
	return false
}
