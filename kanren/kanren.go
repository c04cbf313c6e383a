// Package kanren is a small relational core in the miniKanren style: logic
// variables, substitutions, unification, and goal combinators. The synthesis
// engine uses it to solve for unknown pieces of candidate extractor programs
// by unifying them across input/output examples.
//
// Streams of solutions are eager slices. The problems this engine feeds the
// core are small and finite, and sessions are single-threaded, so laziness
// and interleaving buy nothing observable.
package kanren

import (
	"fmt"
	"sort"
	"strings"
)

// Var is a logic variable. Identity is the id, not the display name: two
// variables created with the same name are distinct.
type Var struct {
	id   int64
	name string
}

// Name returns the display name the variable was created with.
func (v *Var) Name() string { return v.name }

func (v *Var) String() string {
	return fmt.Sprintf("_%s_%d", v.name, v.id)
}

// Factory allocates logic variables with session-unique ids. The zero value
// is ready to use. Factories are not safe for concurrent use; each session
// owns its own.
type Factory struct {
	counter int64
}

// Fresh allocates a new variable with the given display name.
func (f *Factory) Fresh(name string) *Var {
	f.counter++
	return &Var{id: f.counter, name: name}
}

// Reset rewinds the id counter. Sessions call this on reset/close.
func (f *Factory) Reset() {
	f.counter = 0
}

// Substitution maps logic variables to values. Values may themselves be or
// contain variables. Substitutions are append-only: Bind extends a copy and
// never rebinds in place, so earlier substitutions stay valid.
type Substitution struct {
	bindings map[int64]any
}

// EmptySubstitution returns a substitution with no bindings.
func EmptySubstitution() *Substitution {
	return &Substitution{bindings: map[int64]any{}}
}

// Bind returns a new substitution extended with v -> value. The receiver is
// unchanged.
func (s *Substitution) Bind(v *Var, value any) *Substitution {
	next := make(map[int64]any, len(s.bindings)+1)
	for k, val := range s.bindings {
		next[k] = val
	}
	next[v.id] = value
	return &Substitution{bindings: next}
}

// Lookup returns the value bound to v, if any.
func (s *Substitution) Lookup(v *Var) (any, bool) {
	val, ok := s.bindings[v.id]
	return val, ok
}

// Size returns the number of bindings.
func (s *Substitution) Size() int { return len(s.bindings) }

func (s *Substitution) String() string {
	if len(s.bindings) == 0 {
		return "{}"
	}
	ids := make([]int64, 0, len(s.bindings))
	for id := range s.bindings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var sb strings.Builder
	sb.WriteString("{")
	for i, id := range ids {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "_%d=%v", id, s.bindings[id])
	}
	sb.WriteString("}")
	return sb.String()
}

// Walk resolves term through the substitution, following chains of variable
// bindings until it reaches either a non-variable value or an unbound
// variable. Walk is total: chains cannot cycle because Unify refuses to bind
// a variable to itself.
func Walk(term any, s *Substitution) any {
	for {
		v, ok := term.(*Var)
		if !ok {
			return term
		}
		bound, has := s.Lookup(v)
		if !has {
			return term
		}
		term = bound
	}
}

// Unify attempts to extend s so that u and v become equal. It returns the
// extended substitution, or nil when the terms cannot be made equal.
// Sequences unify element-wise when lengths match; maps unify key-wise when
// key sets match; everything else unifies only on equality.
func Unify(u, v any, s *Substitution) *Substitution {
	u = Walk(u, s)
	v = Walk(v, s)

	uVar, uIsVar := u.(*Var)
	vVar, vIsVar := v.(*Var)

	if uIsVar && vIsVar && uVar.id == vVar.id {
		return s
	}
	if uIsVar {
		return s.Bind(uVar, v)
	}
	if vIsVar {
		return s.Bind(vVar, u)
	}

	switch uSeq := u.(type) {
	case []any:
		vSeq, ok := v.([]any)
		if !ok || len(uSeq) != len(vSeq) {
			return nil
		}
		for i := range uSeq {
			s = Unify(uSeq[i], vSeq[i], s)
			if s == nil {
				return nil
			}
		}
		return s
	case map[string]any:
		vMap, ok := v.(map[string]any)
		if !ok || len(uSeq) != len(vMap) {
			return nil
		}
		for k, uVal := range uSeq {
			vVal, has := vMap[k]
			if !has {
				return nil
			}
			s = Unify(uVal, vVal, s)
			if s == nil {
				return nil
			}
		}
		return s
	}

	if u == v {
		return s
	}
	return nil
}

// Goal is a function from a substitution to the sequence of substitutions
// that satisfy it. An empty sequence is failure.
type Goal func(s *Substitution) []*Substitution

// Eq is the goal that unifies u and v.
func Eq(u, v any) Goal {
	return func(s *Substitution) []*Substitution {
		if next := Unify(u, v, s); next != nil {
			return []*Substitution{next}
		}
		return nil
	}
}

// Succeed is the goal that always holds.
func Succeed() Goal {
	return func(s *Substitution) []*Substitution {
		return []*Substitution{s}
	}
}

// Fail is the goal that never holds.
func Fail() Goal {
	return func(s *Substitution) []*Substitution {
		return nil
	}
}

// Conj threads substitutions through every goal in order; any failure along
// a branch prunes it.
func Conj(goals ...Goal) Goal {
	return func(s *Substitution) []*Substitution {
		states := []*Substitution{s}
		for _, g := range goals {
			var next []*Substitution
			for _, st := range states {
				next = append(next, g(st)...)
			}
			if len(next) == 0 {
				return nil
			}
			states = next
		}
		return states
	}
}

// Disj concatenates the solution streams of its goals, in order.
func Disj(goals ...Goal) Goal {
	return func(s *Substitution) []*Substitution {
		var out []*Substitution
		for _, g := range goals {
			out = append(out, g(s)...)
		}
		return out
	}
}

// Fresh allocates n new variables from the factory and passes them to body.
func Fresh(f *Factory, n int, body func(vars []*Var) Goal) Goal {
	vars := make([]*Var, n)
	for i := range vars {
		vars[i] = f.Fresh(fmt.Sprintf("v%d", i))
	}
	return body(vars)
}

// Run evaluates the goal from the empty substitution and returns at most
// maxResults solutions.
func Run(goal Goal, maxResults int) []*Substitution {
	results := goal(EmptySubstitution())
	if maxResults >= 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// Reify resolves term through s, recursing into sequences and maps. Unbound
// variables render as their display name prefixed with "_.". Reify is total
// and never fails.
func Reify(term any, s *Substitution) any {
	term = Walk(term, s)

	switch t := term.(type) {
	case *Var:
		return "_." + t.name
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = Reify(t[i], s)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = Reify(v, s)
		}
		return out
	default:
		return term
	}
}
