package synth

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	bracketTagRE = regexp.MustCompile(`\[([A-Za-z_]+)\]`)
	prefixTagRE  = regexp.MustCompile(`^\s*([A-Za-z_]+):`)
	wordRE       = regexp.MustCompile(`[A-Za-z_]\w*`)
)

// synthPredicate induces a boolean predicate from labelled examples by
// searching a ranked list of distinguishing structures: bracket tags like
// [ERROR], single words, WORD: prefixes, then a disjunction of per-example
// markers. The most specific candidate that separates the two classes wins.
func (e *Engine) synthPredicate(req Request) (Func, string, bool) {
	var trues, falses []string
	for _, ex := range req.Examples {
		b, ok := ex.Output.(bool)
		if !ok {
			return nil, "", false
		}
		if b {
			trues = append(trues, ex.Input)
		} else {
			falses = append(falses, ex.Input)
		}
	}
	if len(trues) == 0 || len(falses) == 0 {
		return nil, "", false
	}

	if pattern, ok := sharedBracketTag(trues, falses); ok {
		return containsFunc(pattern), fmt.Sprintf("(contains %q)", pattern), true
	}
	if word, ok := sharedWord(trues, falses); ok {
		return containsFunc(word), fmt.Sprintf("(contains %q)", word), true
	}
	if prefix, ok := sharedPrefix(trues, falses); ok {
		return prefixFunc(prefix), fmt.Sprintf("(has-prefix %q)", prefix), true
	}
	if markers, ok := markerDisjunction(trues, falses); ok {
		return anyContainsFunc(markers), fmt.Sprintf("(contains-any %q)", strings.Join(markers, "|")), true
	}
	return nil, "", false
}

// sharedBracketTag finds a [TAG] present in every true example and no false
// example.
func sharedBracketTag(trues, falses []string) (string, bool) {
	counts := map[string]int{}
	for _, s := range trues {
		seen := map[string]bool{}
		for _, m := range bracketTagRE.FindAllString(s, -1) {
			if !seen[m] {
				seen[m] = true
				counts[m]++
			}
		}
	}

	var candidates []string
	for tag, n := range counts {
		if n == len(trues) && noneContain(falses, tag) {
			candidates = append(candidates, tag)
		}
	}
	return longest(candidates)
}

// sharedWord finds a word present in every true example and no false
// example. Longer words are more specific and win ties.
func sharedWord(trues, falses []string) (string, bool) {
	counts := map[string]int{}
	for _, s := range trues {
		seen := map[string]bool{}
		for _, w := range wordRE.FindAllString(s, -1) {
			if !seen[w] {
				seen[w] = true
				counts[w]++
			}
		}
	}

	var candidates []string
	for w, n := range counts {
		if n == len(trues) && noneContain(falses, w) {
			candidates = append(candidates, w)
		}
	}
	return longest(candidates)
}

// sharedPrefix finds a WORD: line prefix shared by every true example and
// absent from the false examples.
func sharedPrefix(trues, falses []string) (string, bool) {
	m := prefixTagRE.FindStringSubmatch(trues[0])
	if m == nil {
		return "", false
	}
	prefix := m[1] + ":"

	for _, s := range trues[1:] {
		if !strings.HasPrefix(strings.TrimSpace(s), prefix) {
			return "", false
		}
	}
	for _, s := range falses {
		if strings.HasPrefix(strings.TrimSpace(s), prefix) {
			return "", false
		}
	}
	return prefix, true
}

// markerDisjunction picks one distinguishing word per true example so that
// the union matches every true example and no false one.
func markerDisjunction(trues, falses []string) ([]string, bool) {
	var markers []string
	for _, s := range trues {
		found := ""
		for _, w := range wordRE.FindAllString(s, -1) {
			if noneContain(falses, w) && (found == "" || len(w) > len(found)) {
				found = w
			}
		}
		if found == "" {
			return nil, false
		}
		markers = append(markers, found)
	}

	markers = dedupeStrings(markers)
	sort.Strings(markers)
	return markers, true
}

func containsFunc(needle string) Func {
	return func(input string) (any, error) {
		return strings.Contains(input, needle), nil
	}
}

func prefixFunc(prefix string) Func {
	return func(input string) (any, error) {
		return strings.HasPrefix(strings.TrimSpace(input), prefix), nil
	}
}

func anyContainsFunc(needles []string) Func {
	return func(input string) (any, error) {
		for _, n := range needles {
			if strings.Contains(input, n) {
				return true, nil
			}
		}
		return false, nil
	}
}

func noneContain(haystacks []string, needle string) bool {
	for _, h := range haystacks {
		if strings.Contains(h, needle) {
			return false
		}
	}
	return true
}

func longest(candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i]) != len(candidates[j]) {
			return len(candidates[i]) > len(candidates[j])
		}
		return candidates[i] < candidates[j]
	})
	return candidates[0], true
}

func dedupeStrings(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
