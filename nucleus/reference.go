package nucleus

import (
	"strings"

	"github.com/dekarrin/rosed"
)

// CommandReference returns the static help text for the DSL surface,
// wrapped for an 78-column display.
func CommandReference() string {
	sections := []struct {
		title string
		body  string
	}{
		{"Searching", "(grep \"pattern\") finds every regex match with its line and position. " +
			"(fuzzy_search \"query\" limit) scores lines against the query and returns the closest. " +
			"(lines start end) reads a 1-based line range. (text_stats) reports length, line count, and samples."},
		{"Strings", "(match str \"pattern\" group) returns the captured group or null. " +
			"(replace str \"from\" \"to\") rewrites every regex occurrence. " +
			"(split str \"delim\" index) returns the index-th part or null."},
		{"Collections", "(filter seq fn), (map seq fn), and (reduce seq init fn) walk a sequence in order. " +
			"(count seq) and (sum seq) reduce it to a number; sum reads amounts out of textual elements. " +
			"RESULTS always names the last sequence result, and _N the result of turn N."},
		{"Parsing", "(parseInt s), (parseFloat s), (parseNumber s), (parseCurrency s), and (parseDate s) " +
			"parse scalars, returning null on a miss. Append (ex \"input\" output) pairs to teach a " +
			"replacement parser when the built-in fails."},
		{"Functions", "(lambda x body) makes a function; (f x) applies a bound one. " +
			"(classify (ex ...) ...) learns a function from examples, (predicate str (ex ...) ...) applies a " +
			"learned predicate, (define-fn name (ex ...) ...) binds a learned function, and " +
			"(apply-fn name arg) calls it. (synthesize (ex ...) ...) learns an extractor."},
		{"Source code", "(list_symbols kind), (get_symbol_body name), and (find_references name) consult the " +
			"symbol indexer when the document is source code; they report nothing otherwise."},
		{"Constraints", "[op] ⊗ term applies a rewrite before evaluation: simplify-and-compress, null-safe, " +
			"or error-absorbing."},
	}

	var sb strings.Builder
	sb.WriteString("Nucleus command reference\n")
	for _, sec := range sections {
		sb.WriteString("\n" + sec.title + "\n")
		wrapped := rosed.Edit(sec.body).Wrap(76).String()
		for _, line := range strings.Split(wrapped, "\n") {
			sb.WriteString("  " + line + "\n")
		}
	}
	return sb.String()
}
