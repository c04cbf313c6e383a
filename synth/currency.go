package synth

import (
	"regexp"
	"strconv"
	"strings"
)

// currencyConvention is how a locale writes thousands and decimals.
type currencyConvention int

const (
	conventionUS    currencyConvention = iota // 1,234,567.89
	conventionEU                              // 1.234.567,89
	conventionSwiss                           // 1'234'567.89
)

func (c currencyConvention) String() string {
	switch c {
	case conventionEU:
		return "eu"
	case conventionSwiss:
		return "swiss"
	default:
		return "us"
	}
}

var currencySymbols = []string{"$", "€", "£", "¥"}

// synthCurrency inspects the examples for currency markers, picks the
// thousands/decimal convention that verifies every example within the 0.01
// tolerance, and emits a deterministic parser. When no convention fits, the
// caller falls through to the relational synthesizer.
func (e *Engine) synthCurrency(req Request) (Func, string, bool) {
	for _, conv := range []currencyConvention{
		detectConvention(req.Examples), conventionUS, conventionEU, conventionSwiss,
	} {
		if e.Deadline != nil {
			if err := e.Deadline(); err != nil {
				return nil, "", false
			}
		}
		fn := currencyFunc(conv)
		if verifyAll(fn, req.Examples) {
			code := "(parse-currency :convention " + conv.String() + ")"
			return fn, code, true
		}
	}
	return nil, "", false
}

// detectConvention guesses from the raw example inputs: an apostrophe
// grouping digits means Swiss; a comma followed by one or two trailing
// digits, with no comma-grouped thousands anywhere, means an EU decimal
// comma; anything else reads as US.
func detectConvention(examples []Example) currencyConvention {
	joined := strings.Join(exampleInputs(examples), "\n")

	if regexp.MustCompile(`\d'\d{3}`).MatchString(joined) {
		return conventionSwiss
	}
	if regexp.MustCompile(`\d,\d{1,2}(\D|$)`).MatchString(joined) &&
		!regexp.MustCompile(`\d,\d{3}`).MatchString(joined) {
		return conventionEU
	}
	return conventionUS
}

var currencyNumberRE = regexp.MustCompile(`-?[\d.,']+`)

// currencyFunc builds the parser for one convention. The parser locates the
// first number-like run after stripping currency symbols, normalizes the
// separators, and parses it. Inputs with no numeric run produce null.
func currencyFunc(conv currencyConvention) Func {
	return func(input string) (any, error) {
		s := input
		for _, sym := range currencySymbols {
			s = strings.ReplaceAll(s, sym, "")
		}

		run := currencyNumberRE.FindString(s)
		if run == "" {
			return nil, nil
		}

		switch conv {
		case conventionEU:
			run = strings.ReplaceAll(run, ".", "")
			run = strings.ReplaceAll(run, ",", ".")
		case conventionSwiss:
			run = strings.ReplaceAll(run, "'", "")
			run = strings.ReplaceAll(run, ",", "")
		default:
			run = strings.ReplaceAll(run, ",", "")
		}

		n, err := strconv.ParseFloat(strings.Trim(run, "."), 64)
		if err != nil {
			return nil, nil
		}
		return n, nil
	}
}

// DetectCurrency is the deterministic single-input parser the evaluator's
// parseCurrency builtin uses: convention detected from the input itself,
// then parsed. The boolean is false when the input holds no amount.
func DetectCurrency(input string) (float64, bool) {
	conv := detectConvention([]Example{{Input: input}})
	got, _ := currencyFunc(conv)(input)
	n, ok := got.(float64)
	return n, ok
}

func exampleInputs(examples []Example) []string {
	inputs := make([]string, len(examples))
	for i, ex := range examples {
		inputs[i] = ex.Input
	}
	return inputs
}
