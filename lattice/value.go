// Package lattice is the evaluator for Nucleus terms: a strict,
// applicative-order tree walker over a document, a bindings environment, and
// the synthesis engine.
package lattice

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/yogthos/matryoshka/nucleus/syntax"
)

// ValueKind discriminates runtime values.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueBool
	ValueNumber
	ValueString
	ValueList
	ValueMap
	ValueClosure
	ValueSynthFn
)

// Value is a runtime value. Only the field selected by its kind is
// meaningful. Values are treated as immutable; operators build new ones.
type Value struct {
	kind  ValueKind
	b     bool
	n     float64
	s     string
	list  []Value
	m     map[string]Value
	fn    *Closure
	synth *SynthFn
}

// Closure is a lambda value. Env is a snapshot of the environment at
// creation time, so later binding mutations do not leak in.
type Closure struct {
	Param string
	Body  *syntax.Term
	Env   *Environment
}

// SynthFn is a synthesized function: a callable plus the source
// representation the synthesizer produced for it.
type SynthFn struct {
	Name string
	Code string
	Call func(input string) (Value, error)
}

// Null returns the null value.
func Null() Value { return Value{kind: ValueNull} }

// BoolOf wraps a boolean.
func BoolOf(b bool) Value { return Value{kind: ValueBool, b: b} }

// NumberOf wraps a number.
func NumberOf(n float64) Value { return Value{kind: ValueNumber, n: n} }

// StringOf wraps a string.
func StringOf(s string) Value { return Value{kind: ValueString, s: s} }

// ListOf wraps an ordered sequence.
func ListOf(items []Value) Value { return Value{kind: ValueList, list: items} }

// MapOf wraps a string-keyed mapping.
func MapOf(m map[string]Value) Value { return Value{kind: ValueMap, m: m} }

// ClosureOf wraps a closure.
func ClosureOf(c *Closure) Value { return Value{kind: ValueClosure, fn: c} }

// SynthOf wraps a synthesized function.
func SynthOf(fn *SynthFn) Value { return Value{kind: ValueSynthFn, synth: fn} }

// Kind returns the value's discriminant.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == ValueNull }

// Bool returns the boolean payload. Meaningful only for ValueBool.
func (v Value) Bool() bool { return v.b }

// Num returns the numeric payload. Meaningful only for ValueNumber.
func (v Value) Num() float64 { return v.n }

// Str returns the string payload. Meaningful only for ValueString.
func (v Value) Str() string { return v.s }

// List returns the sequence payload. Meaningful only for ValueList.
func (v Value) List() []Value { return v.list }

// Map returns the mapping payload. Meaningful only for ValueMap.
func (v Value) Map() map[string]Value { return v.m }

// Closure returns the closure payload. Meaningful only for ValueClosure.
func (v Value) Closure() *Closure { return v.fn }

// Synth returns the synthesized-fn payload. Meaningful only for
// ValueSynthFn.
func (v Value) Synth() *SynthFn { return v.synth }

// Truthy applies the engine's falseness rule: null, false, 0, and "" are
// false; everything else is true.
func (v Value) Truthy() bool {
	switch v.kind {
	case ValueNull:
		return false
	case ValueBool:
		return v.b
	case ValueNumber:
		return v.n != 0
	case ValueString:
		return v.s != ""
	default:
		return true
	}
}

// IsCallable reports whether the value can be applied to an argument.
func (v Value) IsCallable() bool {
	return v.kind == ValueClosure || v.kind == ValueSynthFn
}

// Field looks up a key in a map value. Missing keys and non-map receivers
// yield null.
func (v Value) Field(key string) Value {
	if v.kind != ValueMap {
		return Null()
	}
	if got, ok := v.m[key]; ok {
		return got
	}
	return Null()
}

// Equal returns whether the value is structurally equal to another Value or
// *Value. Closures and synthesized functions compare by identity.
func (v Value) Equal(o any) bool {
	other, ok := o.(Value)
	if !ok {
		otherPtr, ok := o.(*Value)
		if !ok || otherPtr == nil {
			return false
		}
		other = *otherPtr
	}

	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case ValueNull:
		return true
	case ValueBool:
		return v.b == other.b
	case ValueNumber:
		return v.n == other.n
	case ValueString:
		return v.s == other.s
	case ValueList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case ValueMap:
		if len(v.m) != len(other.m) {
			return false
		}
		for k, val := range v.m {
			ov, has := other.m[k]
			if !has || !val.Equal(ov) {
				return false
			}
		}
		return true
	case ValueClosure:
		return v.fn == other.fn
	default:
		return v.synth == other.synth
	}
}

// String renders the value for logs and stubs. Strings render raw.
func (v Value) String() string {
	switch v.kind {
	case ValueNull:
		return "null"
	case ValueBool:
		if v.b {
			return "true"
		}
		return "false"
	case ValueNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case ValueString:
		return v.s
	case ValueList:
		parts := make([]string, len(v.list))
		for i := range v.list {
			parts[i] = v.list[i].String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ValueMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + v.m[k].String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case ValueClosure:
		return fmt.Sprintf("<fn %s>", v.fn.Param)
	default:
		return fmt.Sprintf("<synthesized %s>", v.synth.Name)
	}
}

// Text is the textual content of a value for matching purposes: strings as
// themselves, records by their line field (then their match field, then full
// rendering),
// everything else via String.
func (v Value) Text() string {
	switch v.kind {
	case ValueString:
		return v.s
	case ValueMap:
		if line, ok := v.m["line"]; ok {
			return line.String()
		}
		if match, ok := v.m["match"]; ok {
			return match.String()
		}
		return v.String()
	default:
		return v.String()
	}
}

// AsNumber coerces the value to a float where a straightforward reading
// exists. The second return is false when no number can be read.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case ValueNumber:
		return v.n, true
	case ValueBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case ValueString:
		n, err := cast.ToFloat64E(strings.TrimSpace(v.s))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// FromAny converts a plain Go value (as produced by synthesis or reified
// kanren terms) into a Value.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case bool:
		return BoolOf(t)
	case int:
		return NumberOf(float64(t))
	case int64:
		return NumberOf(float64(t))
	case float64:
		return NumberOf(t)
	case string:
		return StringOf(t)
	case []any:
		items := make([]Value, len(t))
		for i := range t {
			items[i] = FromAny(t[i])
		}
		return ListOf(items)
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, v := range t {
			m[k] = FromAny(v)
		}
		return MapOf(m)
	default:
		return StringOf(fmt.Sprintf("%v", t))
	}
}
