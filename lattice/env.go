package lattice

import (
	"fmt"
	"strings"
)

// Reserved binding names. RESULTS always holds the last sequence-valued
// result; context holds the raw document text; turn results bind as _1, _2,
// and so on; synthesized functions bind as _fn_<name>.
const (
	BindingResults = "RESULTS"
	BindingContext = "context"
	turnPrefix     = "_"
	fnPrefix       = "_fn_"
)

// Environment is the mutable bindings store for one session. It is created
// empty, mutated only after successful evaluations, and cleared by reset or
// document reload.
type Environment struct {
	vars map[string]Value
	turn int
}

// NewEnvironment creates an empty environment.
func NewEnvironment() *Environment {
	return &Environment{vars: map[string]Value{}}
}

// Lookup resolves a name. The boolean is false for unbound names.
func (env *Environment) Lookup(name string) (Value, bool) {
	v, ok := env.vars[name]
	return v, ok
}

// Set binds name to v, replacing any prior binding.
func (env *Environment) Set(name string, v Value) {
	env.vars[name] = v
}

// SetContext installs the raw document text under the context binding.
func (env *Environment) SetContext(text string) {
	env.vars[BindingContext] = StringOf(text)
}

// Turn returns the number of successful evaluations recorded so far.
func (env *Environment) Turn() int { return env.turn }

// Snapshot copies the environment for capture by a closure. Later mutations
// of the session environment do not show through the snapshot.
func (env *Environment) Snapshot() *Environment {
	vars := make(map[string]Value, len(env.vars))
	for k, v := range env.vars {
		vars[k] = v
	}
	return &Environment{vars: vars, turn: env.turn}
}

// RecordResult applies the post-evaluation binding rules: the turn counter
// advances, the result binds as _<turn>, a sequence result additionally
// binds RESULTS, and a synthesized-function result additionally binds
// _fn_<name>.
func (env *Environment) RecordResult(v Value) {
	env.turn++
	env.vars[turnPrefix+fmt.Sprint(env.turn)] = v

	switch v.Kind() {
	case ValueList:
		env.vars[BindingResults] = v
	case ValueSynthFn:
		env.vars[fnPrefix+v.Synth().Name] = v
	}
}

// Function resolves a synthesized function bound as _fn_<name>.
func (env *Environment) Function(name string) (Value, bool) {
	v, ok := env.vars[fnPrefix+name]
	return v, ok
}

// BindFunction registers a synthesized function under _fn_<name>.
func (env *Environment) BindFunction(name string, v Value) {
	env.vars[fnPrefix+name] = v
}

// Names returns the bound names, for diagnostics.
func (env *Environment) Names() []string {
	names := make([]string, 0, len(env.vars))
	for k := range env.vars {
		names = append(names, k)
	}
	return names
}

// Reset clears every binding and the turn counter, keeping the context
// binding out as well; callers reinstall it if the document survives.
func (env *Environment) Reset() {
	env.vars = map[string]Value{}
	env.turn = 0
}

// IsFunctionName reports whether a binding name is a synthesized-function
// slot, and returns the bare function name when it is.
func IsFunctionName(binding string) (string, bool) {
	if strings.HasPrefix(binding, fnPrefix) {
		return strings.TrimPrefix(binding, fnPrefix), true
	}
	return "", false
}
