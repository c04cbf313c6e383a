package syntax

import (
	"strings"

	"github.com/yogthos/matryoshka/mkerrors"
)

// TypeKind discriminates semantic types. Types are structural tags, not
// names.
type TypeKind int

const (
	TypeAny TypeKind = iota
	TypeString
	TypeNumber
	TypeBoolean
	TypeDate
	TypeArray
	TypeFunction
	TypeRecord
	TypeVoid
)

// Type is a semantic type assigned to a term. Elem is set for arrays; Param
// and Result are set for functions.
type Type struct {
	Kind   TypeKind
	Elem   *Type
	Param  *Type
	Result *Type
}

var (
	Any     = Type{Kind: TypeAny}
	Str     = Type{Kind: TypeString}
	Num     = Type{Kind: TypeNumber}
	Boolean = Type{Kind: TypeBoolean}
	Date    = Type{Kind: TypeDate}
	Record  = Type{Kind: TypeRecord}
	Void    = Type{Kind: TypeVoid}
)

// ArrayOf builds an array type with the given element type.
func ArrayOf(elem Type) Type {
	return Type{Kind: TypeArray, Elem: &elem}
}

// FuncOf builds a function type.
func FuncOf(param, result Type) Type {
	return Type{Kind: TypeFunction, Param: &param, Result: &result}
}

func (t Type) String() string {
	switch t.Kind {
	case TypeAny:
		return "any"
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeBoolean:
		return "boolean"
	case TypeDate:
		return "date"
	case TypeRecord:
		return "record"
	case TypeVoid:
		return "void"
	case TypeArray:
		return "array<" + t.Elem.String() + ">"
	case TypeFunction:
		return "function<" + t.Param.String() + "," + t.Result.String() + ">"
	default:
		return "any"
	}
}

// Equal returns whether two types are structurally identical.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case TypeArray:
		return t.Elem.Equal(*o.Elem)
	case TypeFunction:
		return t.Param.Equal(*o.Param) && t.Result.Equal(*o.Result)
	default:
		return true
	}
}

// join gives the type of an expression that can produce either operand: the
// common type when they agree, any otherwise.
func join(a, b Type) Type {
	if a.Equal(b) {
		return a
	}
	if a.Kind == TypeAny {
		return b
	}
	if b.Kind == TypeAny {
		return a
	}
	return Any
}

// accepts reports whether a slot typed want can take a value typed got.
// any on either side accepts everything; otherwise kinds must agree.
func accepts(want, got Type) bool {
	if want.Kind == TypeAny || got.Kind == TypeAny {
		return true
	}
	if want.Kind != got.Kind {
		return false
	}
	switch want.Kind {
	case TypeArray:
		return accepts(*want.Elem, *got.Elem)
	case TypeFunction:
		return accepts(*want.Param, *got.Param) && accepts(*want.Result, *got.Result)
	default:
		return true
	}
}

// Infer walks the term bottom-up and assigns it a semantic type, rejecting
// only unambiguous mismatches. Leaves whose type cannot be derived widen to
// any rather than guessing.
func Infer(t *Term) (Type, error) {
	if t == nil {
		return Void, mkerrors.New(mkerrors.KindInternal, "inference over nil term")
	}

	switch t.Kind {
	case KindInput, KindMatch, KindReplace, KindSplit, KindGetSymbolBody:
		if err := inferArgs(t); err != nil {
			return Any, err
		}
		return Str, nil

	case KindLit:
		switch t.Lit.Kind() {
		case LitString:
			return Str, nil
		case LitNumber:
			return Num, nil
		default:
			return Boolean, nil
		}

	case KindVar:
		// bindings are a runtime construct; a bare reference is any
		return Any, nil

	case KindTextStats:
		return Record, nil

	case KindGrep, KindFuzzySearch:
		return ArrayOf(Record), nil

	case KindLines, KindListSymbols, KindFindReferences:
		if err := inferArgs(t); err != nil {
			return Any, err
		}
		return ArrayOf(Str), nil

	case KindParseInt, KindParseFloat, KindParseNumber, KindParseCurrency:
		argType, err := Infer(t.Args[0])
		if err != nil {
			return Any, err
		}
		if !accepts(Str, argType) && argType.Kind != TypeNumber {
			return Any, mkerrors.New(mkerrors.KindType, "%s expects a string, got %s", opNames[t.Kind], argType)
		}
		return Num, nil

	case KindParseDate:
		argType, err := Infer(t.Args[0])
		if err != nil {
			return Any, err
		}
		if !accepts(Str, argType) {
			return Any, mkerrors.New(mkerrors.KindType, "parseDate expects a string, got %s", argType)
		}
		return Date, nil

	case KindCount, KindSum:
		argType, err := Infer(t.Args[0])
		if err != nil {
			return Any, err
		}
		if argType.Kind != TypeAny && argType.Kind != TypeArray {
			return Any, mkerrors.New(mkerrors.KindType, "%s expects an array, got %s", opNames[t.Kind], argType)
		}
		return Num, nil

	case KindAdd:
		for i, arg := range t.Args {
			argType, err := Infer(arg)
			if err != nil {
				return Any, err
			}
			switch argType.Kind {
			case TypeNumber, TypeString, TypeAny:
				// string operands parse at runtime
			default:
				return Any, mkerrors.New(mkerrors.KindType, "add operand %d is %s, not numeric", i, argType)
			}
		}
		return Num, nil

	case KindFilter:
		return inferCollectionOp(t, true)

	case KindMap:
		return inferCollectionOp(t, false)

	case KindReduce:
		seqType, err := Infer(t.Args[0])
		if err != nil {
			return Any, err
		}
		if seqType.Kind != TypeAny && seqType.Kind != TypeArray {
			return Any, mkerrors.New(mkerrors.KindType, "reduce expects an array, got %s", seqType)
		}
		initType, err := Infer(t.Args[1])
		if err != nil {
			return Any, err
		}
		if _, err := Infer(t.Args[2]); err != nil {
			return Any, err
		}
		return initType, nil

	case KindIf:
		if _, err := Infer(t.Args[0]); err != nil {
			return Any, err
		}
		thenType, err := Infer(t.Args[1])
		if err != nil {
			return Any, err
		}
		elseType, err := Infer(t.Args[2])
		if err != nil {
			return Any, err
		}
		return join(thenType, elseType), nil

	case KindLambda:
		bodyType, err := Infer(t.Args[0])
		if err != nil {
			return Any, err
		}
		return FuncOf(Any, bodyType), nil

	case KindApp:
		fnType, err := Infer(t.Args[0])
		if err != nil {
			return Any, err
		}
		argType, err := Infer(t.Args[1])
		if err != nil {
			return Any, err
		}
		if fnType.Kind == TypeAny {
			return Any, nil
		}
		if fnType.Kind != TypeFunction {
			return Any, mkerrors.New(mkerrors.KindType, "cannot apply %s as a function", fnType)
		}
		if !accepts(*fnType.Param, argType) {
			return Any, mkerrors.New(mkerrors.KindType, "function expects %s, got %s", fnType.Param, argType)
		}
		return *fnType.Result, nil

	case KindClassify:
		return FuncOf(Str, exampleOutputType(t.Examples)), nil

	case KindPredicate:
		if _, err := Infer(t.Args[0]); err != nil {
			return Any, err
		}
		return Boolean, nil

	case KindDefineFn, KindSynthesize:
		return FuncOf(Str, exampleOutputType(t.Examples)), nil

	case KindApplyFn:
		if _, err := Infer(t.Args[0]); err != nil {
			return Any, err
		}
		return Any, nil

	case KindExtract:
		if err := inferArgs(t); err != nil {
			return Any, err
		}
		return namedType(t.Name), nil

	case KindCoerce:
		if _, err := Infer(t.Args[0]); err != nil {
			return Any, err
		}
		return namedType(t.Name), nil

	case KindConstrained:
		// transparent: the constraint rewrites away before evaluation
		return Infer(t.Args[0])

	case KindAbsorb:
		valType, err := Infer(t.Args[0])
		if err != nil {
			return Any, err
		}
		fbType, err := Infer(t.Args[1])
		if err != nil {
			return Any, err
		}
		return join(valType, fbType), nil

	default:
		return Any, nil
	}
}

func inferArgs(t *Term) error {
	for _, a := range t.Args {
		if _, err := Infer(a); err != nil {
			return err
		}
	}
	return nil
}

func inferCollectionOp(t *Term, isFilter bool) (Type, error) {
	name := "map"
	if isFilter {
		name = "filter"
	}

	seqType, err := Infer(t.Args[0])
	if err != nil {
		return Any, err
	}
	if seqType.Kind != TypeAny && seqType.Kind != TypeArray {
		return Any, mkerrors.New(mkerrors.KindType, "%s expects an array, got %s", name, seqType)
	}

	fnType, err := Infer(t.Args[1])
	if err != nil {
		return Any, err
	}
	if fnType.Kind != TypeAny && fnType.Kind != TypeFunction {
		return Any, mkerrors.New(mkerrors.KindType, "%s expects a function, got %s", name, fnType)
	}

	if isFilter {
		if seqType.Kind == TypeArray {
			return seqType, nil
		}
		return ArrayOf(Any), nil
	}
	if fnType.Kind == TypeFunction {
		return ArrayOf(*fnType.Result), nil
	}
	return ArrayOf(Any), nil
}

func exampleOutputType(examples []Example) Type {
	if len(examples) == 0 {
		return Any
	}
	out := litType(examples[0].Output)
	for _, ex := range examples[1:] {
		out = join(out, litType(ex.Output))
	}
	return out
}

func litType(l Literal) Type {
	switch l.Kind() {
	case LitString:
		return Str
	case LitNumber:
		return Num
	default:
		return Boolean
	}
}

func namedType(name string) Type {
	switch name {
	case "string":
		return Str
	case "number", "int", "float":
		return Num
	case "boolean", "bool":
		return Boolean
	case "date":
		return Date
	default:
		return Str
	}
}

// InferExpectedType guesses the type a natural-language query wants back, by
// keyword. It is a heuristic for host adapters: find/list imply an array,
// count and sum/total a number, extract a string.
func InferExpectedType(query string) Type {
	q := strings.ToLower(query)

	switch {
	case strings.Contains(q, "count") || strings.Contains(q, "how many"):
		return Num
	case strings.Contains(q, "sum") || strings.Contains(q, "total"):
		return Num
	case strings.Contains(q, "find") || strings.Contains(q, "list"):
		return ArrayOf(Any)
	case strings.Contains(q, "extract"):
		return Str
	default:
		return Any
	}
}

// VerifyResult is what VerifyOutputType reports.
type VerifyResult struct {
	Valid bool
	Type  Type
	Err   error
}

// VerifyOutputType runs inference on the term and checks the result against
// the expected type.
func VerifyOutputType(t *Term, expected Type) VerifyResult {
	got, err := Infer(t)
	if err != nil {
		return VerifyResult{Valid: false, Type: got, Err: err}
	}
	if !accepts(expected, got) {
		return VerifyResult{
			Valid: false,
			Type:  got,
			Err:   mkerrors.New(mkerrors.KindType, "term produces %s, expected %s", got, expected),
		}
	}
	return VerifyResult{Valid: true, Type: got}
}
