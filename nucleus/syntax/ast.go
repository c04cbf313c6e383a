// Package syntax contains the Nucleus S-expression language: the lexer, the
// parser, the typed term tree, the pretty-printer, bottom-up type inference,
// and the constraint resolver.
package syntax

import (
	"fmt"
	"strconv"
	"strings"
)

// TermKind discriminates the variants of a Term. Operators dispatch by kind;
// there is no node hierarchy.
type TermKind int

const (
	// Leaves.
	KindInput TermKind = iota
	KindLit
	KindVar
	KindTextStats
	KindGrep
	KindFuzzySearch
	KindLines

	// Unary.
	KindParseInt
	KindParseFloat
	KindParseDate
	KindParseCurrency
	KindParseNumber
	KindCount
	KindSum

	// Binary and up.
	KindAdd
	KindMatch
	KindReplace
	KindSplit
	KindFilter
	KindMap
	KindReduce
	KindIf
	KindLambda
	KindApp
	KindClassify
	KindPredicate
	KindDefineFn
	KindApplyFn
	KindExtract
	KindCoerce
	KindConstrained
	KindSynthesize
	KindListSymbols
	KindGetSymbolBody
	KindFindReferences

	// KindAbsorb evaluates its first argument and yields the second when the
	// first errors. The constraint resolver emits it for error-absorbing
	// rewrites; it is also writable directly as (absorb t fallback).
	KindAbsorb
)

// opNames maps kinds to the display name used in String() tree dumps and in
// error messages. The Nucleus() source form uses headForKind instead.
var opNames = map[TermKind]string{
	KindInput:          "INPUT",
	KindLit:            "LITERAL",
	KindVar:            "VAR",
	KindTextStats:      "TEXT_STATS",
	KindGrep:           "GREP",
	KindFuzzySearch:    "FUZZY_SEARCH",
	KindLines:          "LINES",
	KindParseInt:       "PARSE_INT",
	KindParseFloat:     "PARSE_FLOAT",
	KindParseDate:      "PARSE_DATE",
	KindParseCurrency:  "PARSE_CURRENCY",
	KindParseNumber:    "PARSE_NUMBER",
	KindCount:          "COUNT",
	KindSum:            "SUM",
	KindAdd:            "ADD",
	KindMatch:          "MATCH",
	KindReplace:        "REPLACE",
	KindSplit:          "SPLIT",
	KindFilter:         "FILTER",
	KindMap:            "MAP",
	KindReduce:         "REDUCE",
	KindIf:             "IF",
	KindLambda:         "LAMBDA",
	KindApp:            "APP",
	KindClassify:       "CLASSIFY",
	KindPredicate:      "PREDICATE",
	KindDefineFn:       "DEFINE_FN",
	KindApplyFn:        "APPLY_FN",
	KindExtract:        "EXTRACT",
	KindCoerce:         "COERCE",
	KindConstrained:    "CONSTRAINED",
	KindSynthesize:     "SYNTHESIZE",
	KindListSymbols:    "LIST_SYMBOLS",
	KindGetSymbolBody:  "GET_SYMBOL_BODY",
	KindFindReferences: "FIND_REFERENCES",
	KindAbsorb:         "ABSORB",
}

// LitKind is the type tag of a Literal.
type LitKind int

const (
	LitString LitKind = iota
	LitNumber
	LitBool
)

// Literal is a scalar literal appearing in source. Only the field selected by
// its kind is meaningful.
type Literal struct {
	kind LitKind
	s    string
	n    float64
	b    bool
}

// StringLit creates a string literal.
func StringLit(s string) Literal { return Literal{kind: LitString, s: s} }

// NumberLit creates a numeric literal.
func NumberLit(n float64) Literal { return Literal{kind: LitNumber, n: n} }

// BoolLit creates a boolean literal.
func BoolLit(b bool) Literal { return Literal{kind: LitBool, b: b} }

// Kind returns the type tag of the literal.
func (l Literal) Kind() LitKind { return l.kind }

// Str returns the string payload. Meaningful only when Kind() == LitString.
func (l Literal) Str() string { return l.s }

// Num returns the numeric payload. Meaningful only when Kind() == LitNumber.
func (l Literal) Num() float64 { return l.n }

// Bool returns the boolean payload. Meaningful only when Kind() == LitBool.
func (l Literal) Bool() bool { return l.b }

// Equal returns whether the literal equals another Literal or *Literal.
func (l Literal) Equal(o any) bool {
	other, ok := o.(Literal)
	if !ok {
		otherPtr, ok := o.(*Literal)
		if !ok || otherPtr == nil {
			return false
		}
		other = *otherPtr
	}
	return l.kind == other.kind && l.s == other.s && l.n == other.n && l.b == other.b
}

// String renders the literal the way it appears in source.
func (l Literal) String() string {
	switch l.kind {
	case LitString:
		return strconv.Quote(l.s)
	case LitBool:
		if l.b {
			return "true"
		}
		return "false"
	default:
		return strconv.FormatFloat(l.n, 'f', -1, 64)
	}
}

// Example is an input/output pair attached to a learning operator in source,
// written with the ex head: (ex "input" output-literal).
type Example struct {
	Input  string
	Output Literal
}

// Equal returns whether the example equals another Example or *Example.
func (e Example) Equal(o any) bool {
	other, ok := o.(Example)
	if !ok {
		otherPtr, ok := o.(*Example)
		if !ok || otherPtr == nil {
			return false
		}
		other = *otherPtr
	}
	return e.Input == other.Input && e.Output.Equal(other.Output)
}

// Term is a node of the Nucleus syntax tree. Terms are immutable after the
// parser hands them out: nothing in the engine mutates a Term in place, and
// the constraint resolver builds rewritten copies.
//
// The payload fields used depend on Kind:
//
//	KindLit                     Lit
//	KindVar                     Name (the referenced binding)
//	KindGrep, KindFuzzySearch   Args (pattern / query [+ limit] as literals)
//	KindLambda                  Name (parameter), Args[0] (body)
//	KindDefineFn, KindApplyFn   Name (function name), Examples / Args
//	KindExtract, KindCoerce     Name (target type, if given), Args, Examples
//	KindConstrained             Name (constraint operator), Args[0]
//	KindParseDate               Args[0], Name (format hint, if given), Examples
//	KindListSymbols             Name (kind filter, if given)
//	learning operators          Examples
//	everything else             Args in operator order
type Term struct {
	Kind     TermKind
	Lit      Literal
	Name     string
	Args     []*Term
	Examples []Example
}

// Equal returns whether the term tree is structurally identical to another
// *Term or Term. Anything else compares unequal.
func (t *Term) Equal(o any) bool {
	other, ok := o.(*Term)
	if !ok {
		otherVal, ok := o.(Term)
		if !ok {
			return false
		}
		other = &otherVal
	}
	if other == nil {
		return t == nil
	}
	if t == nil {
		return false
	}

	if t.Kind != other.Kind {
		return false
	}
	if t.Kind == KindLit && !t.Lit.Equal(other.Lit) {
		return false
	}
	if t.Name != other.Name {
		return false
	}
	if len(t.Args) != len(other.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(other.Args[i]) {
			return false
		}
	}
	if len(t.Examples) != len(other.Examples) {
		return false
	}
	for i := range t.Examples {
		if !t.Examples[i].Equal(other.Examples[i]) {
			return false
		}
	}
	return true
}

// String returns a prettified representation of the term suitable for use in
// line-by-line comparisons of tree structure. Two terms are considered
// structurally identical if they produce identical String() output.
func (t *Term) String() string {
	if t == nil {
		return "[NIL]"
	}

	switch t.Kind {
	case KindLit:
		var typeName string
		switch t.Lit.Kind() {
		case LitString:
			typeName = "TEXT"
		case LitNumber:
			typeName = "NUMBER"
		case LitBool:
			typeName = "BINARY"
		}
		return fmt.Sprintf("[LITERAL %s %s]", typeName, t.Lit.String())
	case KindVar:
		return fmt.Sprintf("[VAR $%s]", t.Name)
	}

	header := "[" + opNames[t.Kind]
	if t.Name != "" {
		header += " $" + t.Name
	}

	if len(t.Args) == 0 && len(t.Examples) == 0 {
		return header + "]"
	}

	var sb strings.Builder
	sb.WriteString(header)
	for i := range t.Args {
		sb.WriteRune('\n')
		sb.WriteString(" A: ")
		sb.WriteString(spaceIndentNewlines(t.Args[i].String(), len(" A: ")))
	}
	for i := range t.Examples {
		sb.WriteRune('\n')
		sb.WriteString(fmt.Sprintf(" E: (%q -> %s)", t.Examples[i].Input, t.Examples[i].Output.String()))
	}
	sb.WriteRune('\n')
	sb.WriteString("]")
	return sb.String()
}

// Walk calls fn on the term and every descendant, parents first. A false
// return from fn prunes that subtree.
func (t *Term) Walk(fn func(*Term) bool) {
	if t == nil {
		return
	}
	if !fn(t) {
		return
	}
	for _, a := range t.Args {
		a.Walk(fn)
	}
}

func spaceIndentNewlines(str string, amount int) string {
	if strings.Contains(str, "\n") {
		// need to pad every newline
		pad := " "
		for len(pad) < amount {
			pad += " "
		}
		paddedLines := make([]string, 0)
		for i, line := range strings.Split(str, "\n") {
			if i != 0 {
				line = pad + line
			}
			paddedLines = append(paddedLines, line)
		}
		str = strings.Join(paddedLines, "\n")
	}
	return str
}
