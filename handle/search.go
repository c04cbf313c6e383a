package handle

import (
	"github.com/yogthos/matryoshka/document"
	"github.com/yogthos/matryoshka/lattice"
)

// WrapSearch stores full-text search hits as a handle. The registry does not
// own the search view; callers run the query and hand the hits over, and
// only the handle travels back to the model.
func (r *Registry) WrapSearch(hits []document.SearchHit) string {
	seq := make([]lattice.Value, len(hits))
	for i, h := range hits {
		seq[i] = lattice.MapOf(map[string]lattice.Value{
			"line":    lattice.StringOf(h.Line),
			"lineNum": lattice.NumberOf(float64(h.LineNum)),
			"score":   lattice.NumberOf(h.Score),
		})
	}
	return r.Store(seq)
}
