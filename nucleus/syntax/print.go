package syntax

import (
	"strings"
)

// headForKind gives the source-form head symbol for each list-shaped kind.
var headForKind = map[TermKind]string{
	KindTextStats:      "text_stats",
	KindGrep:           "grep",
	KindFuzzySearch:    "fuzzy_search",
	KindLines:          "lines",
	KindParseInt:       "parseInt",
	KindParseFloat:     "parseFloat",
	KindParseDate:      "parseDate",
	KindParseCurrency:  "parseCurrency",
	KindParseNumber:    "parseNumber",
	KindCount:          "count",
	KindSum:            "sum",
	KindAdd:            "add",
	KindMatch:          "match",
	KindReplace:        "replace",
	KindSplit:          "split",
	KindFilter:         "filter",
	KindMap:            "map",
	KindReduce:         "reduce",
	KindIf:             "if",
	KindLambda:         "lambda",
	KindApp:            "app",
	KindClassify:       "classify",
	KindPredicate:      "predicate",
	KindDefineFn:       "define-fn",
	KindApplyFn:        "apply-fn",
	KindExtract:        "extract",
	KindCoerce:         "coerce",
	KindSynthesize:     "synthesize",
	KindListSymbols:    "list_symbols",
	KindGetSymbolBody:  "get_symbol_body",
	KindFindReferences: "find_references",
	KindAbsorb:         "absorb",
}

// Nucleus returns source code that, if parsed, produces a term equal to t.
// It is a total inverse of Parse for every well-formed term that contains no
// constrained node; constrained nodes render but are normally gone before
// printing matters, since the resolver collapses them.
func (t *Term) Nucleus() string {
	if t == nil {
		return ""
	}

	switch t.Kind {
	case KindInput:
		return "input"
	case KindLit:
		return t.Lit.String()
	case KindVar:
		return t.Name
	case KindConstrained:
		return "[" + t.Name + "] ⊗ " + t.Args[0].Nucleus()
	}

	var parts []string
	parts = append(parts, headForKind[t.Kind])

	switch t.Kind {
	case KindLambda:
		parts = append(parts, t.Name, t.Args[0].Nucleus())
	case KindDefineFn, KindApplyFn:
		parts = append(parts, t.Name)
		for _, a := range t.Args {
			parts = append(parts, a.Nucleus())
		}
	case KindListSymbols:
		if t.Name != "" {
			parts = append(parts, t.Name)
		}
	case KindParseDate:
		parts = append(parts, t.Args[0].Nucleus())
		if t.Name != "" {
			parts = append(parts, StringLit(t.Name).String())
		}
	case KindExtract, KindCoerce:
		for _, a := range t.Args {
			parts = append(parts, a.Nucleus())
		}
		if t.Name != "" {
			parts = append(parts, t.Name)
		}
	default:
		for _, a := range t.Args {
			parts = append(parts, a.Nucleus())
		}
	}

	for _, ex := range t.Examples {
		parts = append(parts, "(ex "+StringLit(ex.Input).String()+" "+ex.Output.String()+")")
	}

	return "(" + strings.Join(parts, " ") + ")"
}
