package synth

import (
	"fmt"
	"strings"
)

// classRule is one entry of a classifier's rule list: when the marker
// matches, the rule's output is the answer.
type classRule struct {
	marker string
	output any
}

// synthClassifier handles the multi-class case: examples group by output,
// each group gets a distinguishing pattern against the union of the other
// groups, and the resulting rules evaluate in declaration order. An input
// matching no rule classifies as null.
func (e *Engine) synthClassifier(req Request) (Func, string, bool) {
	type group struct {
		output any
		inputs []string
	}

	var groups []*group
	byKey := map[string]*group{}
	for _, ex := range req.Examples {
		key := fmt.Sprintf("%v", ex.Output)
		g, ok := byKey[key]
		if !ok {
			g = &group{output: ex.Output}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.inputs = append(g.inputs, ex.Input)
	}
	if len(groups) < 2 {
		return nil, "", false
	}

	var rules []classRule
	for _, g := range groups {
		var others []string
		for _, o := range groups {
			if o != g {
				others = append(others, o.inputs...)
			}
		}

		marker, ok := groupMarker(g.inputs, others)
		if !ok {
			return nil, "", false
		}
		rules = append(rules, classRule{marker: marker, output: g.output})
	}

	fn := func(input string) (any, error) {
		for _, rule := range rules {
			if strings.Contains(input, rule.marker) {
				return rule.output, nil
			}
		}
		return nil, nil
	}
	if !verifyAll(fn, req.Examples) {
		return nil, "", false
	}

	parts := make([]string, len(rules))
	for i, rule := range rules {
		parts[i] = fmt.Sprintf("(%q -> %v)", rule.marker, rule.output)
	}
	return fn, "(classify-rules " + strings.Join(parts, " ") + ")", true
}

// groupMarker finds a pattern shared by every input of a group and absent
// from all the others, preferring bracket tags, then words, then prefixes.
func groupMarker(inputs, others []string) (string, bool) {
	if tag, ok := sharedBracketTag(inputs, others); ok {
		return tag, true
	}
	if word, ok := sharedWord(inputs, others); ok {
		return word, true
	}
	if prefix, ok := sharedPrefix(inputs, others); ok {
		return prefix, true
	}
	return "", false
}
