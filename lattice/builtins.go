package lattice

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yogthos/matryoshka/synth"
)

// Deterministic parsing builtins. Each returns the null value rather than an
// error when the input holds nothing parseable; the evaluator then falls
// back to a synthesized parser when the term carried examples.

var (
	intRE    = regexp.MustCompile(`-?\d[\d,]*`)
	floatRE  = regexp.MustCompile(`-?\d[\d,]*(\.\d+)?`)
	amountRE = regexp.MustCompile(`-?\$?\s?\d[\d,]*(\.\d+)?`)
)

// parseIntText reads the first integer out of the text.
func parseIntText(s string) Value {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return NumberOf(float64(n))
	}
	run := intRE.FindString(s)
	if run == "" {
		return Null()
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(run, ",", ""), 64)
	if err != nil {
		return Null()
	}
	return NumberOf(float64(int64(n)))
}

// parseFloatText reads the first decimal number out of the text.
func parseFloatText(s string) Value {
	if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return NumberOf(n)
	}
	run := floatRE.FindString(s)
	if run == "" {
		return Null()
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(run, ",", ""), 64)
	if err != nil {
		return Null()
	}
	return NumberOf(n)
}

// parseNumberText handles percentages, thousands separators, and plain
// decimals.
func parseNumberText(s string) Value {
	trimmed := strings.TrimSpace(s)
	if strings.HasSuffix(trimmed, "%") {
		n, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSuffix(trimmed, "%"), ",", ""), 64)
		if err == nil {
			return NumberOf(n)
		}
	}
	return parseFloatText(s)
}

// parseCurrencyText handles the currency symbols and the US, EU, and Swiss
// separator conventions.
func parseCurrencyText(s string) Value {
	if n, ok := synth.DetectCurrency(s); ok {
		return NumberOf(n)
	}
	return Null()
}

// parseDateText yields an ISO date or null.
func parseDateText(s, hint string) Value {
	if iso, ok := synth.ParseDateText(s, hint); ok {
		return StringOf(iso)
	}
	return Null()
}

// amountIn locates the first currency or number token in textual content
// for sum's coercion rule. Elements with no numeric content contribute
// zero.
func amountIn(text string) float64 {
	run := amountRE.FindString(text)
	if run == "" {
		return 0
	}
	run = strings.ReplaceAll(run, "$", "")
	run = strings.ReplaceAll(run, ",", "")
	n, err := strconv.ParseFloat(strings.TrimSpace(run), 64)
	if err != nil {
		return 0
	}
	return n
}

// numericContribution is sum's per-element rule: numbers count as
// themselves, everything else by the first amount found in its text.
func numericContribution(v Value) float64 {
	if v.Kind() == ValueNumber {
		return v.Num()
	}
	if v.Kind() == ValueBool {
		if v.Bool() {
			return 1
		}
		return 0
	}
	return amountIn(v.Text())
}
