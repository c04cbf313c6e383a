package synth

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	percentRE   = regexp.MustCompile(`(-?[\d.,]+)\s*%`)
	thousandsRE = regexp.MustCompile(`-?\d{1,3}(,\d{3})+(\.\d+)?`)
	plainNumRE  = regexp.MustCompile(`-?\d+(\.\d+)?`)
)

// synthNumber handles the three plain-number shapes: percentages,
// thousands-separated, and bare decimals. Each candidate parser verifies
// within the 0.01 tolerance; the first that fits all examples wins.
func (e *Engine) synthNumber(req Request) (Func, string, bool) {
	candidates := []struct {
		fn   Func
		code string
	}{
		{percentFunc(false), "(parse-number :form percent)"},
		{percentFunc(true), "(parse-number :form percent-fraction)"},
		{thousandsFunc(), "(parse-number :form thousands)"},
		{plainNumberFunc(), "(parse-number :form plain)"},
	}

	for _, cand := range candidates {
		if e.Deadline != nil {
			if err := e.Deadline(); err != nil {
				return nil, "", false
			}
		}
		if verifyAll(cand.fn, req.Examples) {
			return cand.fn, cand.code, true
		}
	}
	return nil, "", false
}

// percentFunc reads "45%"; as a fraction it divides by 100.
func percentFunc(fraction bool) Func {
	return func(input string) (any, error) {
		m := percentRE.FindStringSubmatch(input)
		if m == nil {
			return nil, nil
		}
		n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			return nil, nil
		}
		if fraction {
			n /= 100
		}
		return n, nil
	}
}

func thousandsFunc() Func {
	return func(input string) (any, error) {
		run := thousandsRE.FindString(input)
		if run == "" {
			return nil, nil
		}
		n, err := strconv.ParseFloat(strings.ReplaceAll(run, ",", ""), 64)
		if err != nil {
			return nil, nil
		}
		return n, nil
	}
}

func plainNumberFunc() Func {
	return func(input string) (any, error) {
		run := plainNumRE.FindString(input)
		if run == "" {
			return nil, nil
		}
		n, err := strconv.ParseFloat(run, 64)
		if err != nil {
			return nil, nil
		}
		return n, nil
	}
}
