package syntax

import (
	"github.com/yogthos/matryoshka/mkerrors"
)

// Constraint operators. Source text may use any alias; the resolver reports
// the marker actually written in its applied-transformations list.
const (
	ConstraintSimplify    = "simplify-and-compress"
	ConstraintNullSafe    = "null-safe"
	ConstraintErrorAbsorb = "error-absorbing"
)

// constraintAliases maps every accepted marker to its canonical operator.
// The alias set is closed: markers observed in the wild are listed here, and
// anything else is an error, never a guess.
var constraintAliases = map[string]string{
	ConstraintSimplify:    ConstraintSimplify,
	"Σ⚡μ":                 ConstraintSimplify,
	"Σ":                   ConstraintSimplify,
	"simplify":            ConstraintSimplify,
	ConstraintNullSafe:    ConstraintNullSafe,
	"φ":                   ConstraintNullSafe,
	ConstraintErrorAbsorb: ConstraintErrorAbsorb,
	"ε":                   ConstraintErrorAbsorb,
}

// ResolveResult carries the rewritten term and the list of transformations
// that were applied, one entry per collapsed constraint node, in the order
// they were encountered.
type ResolveResult struct {
	Term    *Term
	Applied []string
}

// ResolveConstraints collapses every constrained node in the tree by applying
// its declared rewrite to the operand. The result contains no constrained
// nodes. Resolution is pure and idempotent: resolving an already-resolved
// tree returns an equal tree with an empty applied list.
func ResolveConstraints(t *Term) (ResolveResult, error) {
	var applied []string
	out, err := resolveNode(t, &applied)
	if err != nil {
		return ResolveResult{}, err
	}
	return ResolveResult{Term: out, Applied: applied}, nil
}

func resolveNode(t *Term, applied *[]string) (*Term, error) {
	if t == nil {
		return nil, nil
	}

	if t.Kind == KindConstrained {
		canonical, ok := constraintAliases[t.Name]
		if !ok {
			return nil, mkerrors.New(mkerrors.KindUnknownConstraint, "unknown constraint operator %q", t.Name)
		}

		inner, err := resolveNode(t.Args[0], applied)
		if err != nil {
			return nil, err
		}

		var rewritten *Term
		switch canonical {
		case ConstraintSimplify:
			rewritten = simplify(inner)
		case ConstraintNullSafe:
			rewritten = nullSafe(inner)
		case ConstraintErrorAbsorb:
			rewritten = errorAbsorb(inner)
		}

		*applied = append(*applied, t.Name)
		return rewritten, nil
	}

	newArgs, changed, err := resolveChildren(t.Args, applied)
	if err != nil {
		return nil, err
	}
	if !changed {
		return t, nil
	}
	return withArgs(t, newArgs), nil
}

func resolveChildren(args []*Term, applied *[]string) ([]*Term, bool, error) {
	changed := false
	newArgs := make([]*Term, len(args))
	for i, a := range args {
		na, err := resolveNode(a, applied)
		if err != nil {
			return nil, false, err
		}
		newArgs[i] = na
		if na != a {
			changed = true
		}
	}
	return newArgs, changed, nil
}

// withArgs copies a term with replacement children, preserving every other
// payload field. Terms are immutable; rewrites always build copies.
func withArgs(t *Term, args []*Term) *Term {
	cp := *t
	cp.Args = args
	return &cp
}

// simplify normalizes the tree: identity applications fold away, branches
// that cannot differ collapse, and duplicated example pairs deduplicate.
func simplify(t *Term) *Term {
	if t == nil {
		return nil
	}

	args := make([]*Term, len(t.Args))
	for i, a := range t.Args {
		args[i] = simplify(a)
	}
	out := withArgs(t, args)

	switch out.Kind {
	case KindApp:
		// (app (lambda x x) e) is e
		fn := out.Args[0]
		if fn.Kind == KindLambda && fn.Args[0].Kind == KindVar && fn.Args[0].Name == fn.Name {
			return out.Args[1]
		}
	case KindIf:
		// both branches identical: the test is dead
		if out.Args[1].Equal(out.Args[2]) {
			return out.Args[1]
		}
	}

	if len(out.Examples) > 1 {
		deduped := out.Examples[:0:0]
		for _, ex := range out.Examples {
			dup := false
			for _, seen := range deduped {
				if seen.Equal(ex) {
					dup = true
					break
				}
			}
			if !dup {
				deduped = append(deduped, ex)
			}
		}
		if len(deduped) != len(out.Examples) {
			cp := *out
			cp.Examples = deduped
			out = &cp
		}
	}

	return out
}

// nullSafe wraps every subterm that can legitimately produce null (match and
// split misses, synthesized functions, apply-fn results) in an
// if(x, x, fallback) guard with an empty-string fallback, so downstream
// string operators always see a string.
func nullSafe(t *Term) *Term {
	if t == nil {
		return nil
	}

	args := make([]*Term, len(t.Args))
	for i, a := range t.Args {
		args[i] = nullSafe(a)
	}
	out := withArgs(t, args)

	switch out.Kind {
	case KindMatch, KindSplit, KindApplyFn:
		fallback := &Term{Kind: KindLit, Lit: StringLit("")}
		return &Term{Kind: KindIf, Args: []*Term{out, out, fallback}}
	}
	return out
}

// errorAbsorb wraps subterms that can fail at runtime (uncompilable patterns,
// non-function application) in an absorb node carrying an empty-string
// fallback.
func errorAbsorb(t *Term) *Term {
	if t == nil {
		return nil
	}

	args := make([]*Term, len(t.Args))
	for i, a := range t.Args {
		args[i] = errorAbsorb(a)
	}
	out := withArgs(t, args)

	switch out.Kind {
	case KindMatch, KindReplace, KindGrep, KindApp, KindApplyFn:
		fallback := &Term{Kind: KindLit, Lit: StringLit("")}
		return &Term{Kind: KindAbsorb, Args: []*Term{out, fallback}}
	}
	return out
}
