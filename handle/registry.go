// Package handle is the server-side result store: sequences produced by
// evaluation live here under compact $resN identifiers, and the operations
// in this package read and rewrite them without transporting the data to the
// caller. Only preview, sample, and the expand surface materialize elements.
package handle

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/yogthos/matryoshka/lattice"
)

// previewWidth bounds the stub's preview of a handle's first element.
const previewWidth = 80

// Registry is the session-scoped handle table. Identifiers are monotonic:
// $res(k+1) is only ever issued after $resk, and deleting a handle never
// frees its number for re-use.
type Registry struct {
	handles map[string][]lattice.Value
	order   []string
	next    int
	results string
	rng     *rand.Rand
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handles: map[string][]lattice.Value{},
	}
}

// Store saves a sequence and returns its new handle name.
func (r *Registry) Store(seq []lattice.Value) string {
	r.next++
	name := fmt.Sprintf("$res%d", r.next)
	r.handles[name] = seq
	r.order = append(r.order, name)
	return name
}

// Get returns the stored sequence, or nil when the handle does not exist.
func (r *Registry) Get(name string) []lattice.Value {
	return r.handles[name]
}

// Has reports whether the handle is live.
func (r *Registry) Has(name string) bool {
	_, ok := r.handles[name]
	return ok
}

// Delete removes a handle. Its identifier is retired, not recycled.
func (r *Registry) Delete(name string) {
	if _, ok := r.handles[name]; !ok {
		return
	}
	delete(r.handles, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.results == name {
		r.results = ""
	}
}

// Names returns the live handles in creation order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// SetResults marks a handle as the current RESULTS.
func (r *Registry) SetResults(name string) {
	if r.Has(name) {
		r.results = name
	}
}

// Results returns the name of the current RESULTS handle, or "".
func (r *Registry) Results() string {
	return r.results
}

// ResolveResults returns the sequence behind the RESULTS pointer.
func (r *Registry) ResolveResults() []lattice.Value {
	if r.results == "" {
		return nil
	}
	return r.handles[r.results]
}

// Stub renders the one-line summary of a handle:
//
//	$resK: Array(N) [<preview of the first element>]
//
// Stubs are stable for a live handle across calls. An unknown handle stubs
// as missing.
func (r *Registry) Stub(name string) string {
	seq, ok := r.handles[name]
	if !ok {
		return name + ": (deleted)"
	}

	preview := ""
	if len(seq) > 0 {
		preview = truncate(seq[0].Text(), previewWidth)
	}
	return fmt.Sprintf("%s: Array(%d) [%s]", name, len(seq), preview)
}

// BuildContext emits one stub line per live handle, oldest first, plus the
// RESULTS pointer line when one is set. This is the block a host pastes into
// the driving model's context.
func (r *Registry) BuildContext() string {
	var sb strings.Builder
	for _, name := range r.order {
		sb.WriteString(r.Stub(name))
		sb.WriteRune('\n')
	}
	if r.results != "" {
		sb.WriteString("RESULTS: -> " + r.results + "\n")
	}
	return sb.String()
}

// Reset drops every handle and the RESULTS pointer. The identifier counter
// is also rewound; reset is a session-level wipe, not a deletion.
func (r *Registry) Reset() {
	r.handles = map[string][]lattice.Value{}
	r.order = nil
	r.next = 0
	r.results = ""
}

func truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
