package synth

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateOrder is the position of day, month, and year in a separated date.
type dateOrder int

const (
	orderDMY dateOrder = iota
	orderMDY
	orderYMD
)

func (o dateOrder) String() string {
	switch o {
	case orderMDY:
		return "mdy"
	case orderYMD:
		return "ymd"
	default:
		return "dmy"
	}
}

var monthNames = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

var (
	separatedDateRE = regexp.MustCompile(`(\d{1,4})[\s]*([-/.])[\s]*(\d{1,2})[\s]*[-/.][\s]*(\d{1,4})`)
	monthNameDateRE = regexp.MustCompile(`(?i)([a-z]{3,9})\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{2,4})`)
	dayFirstNameRE  = regexp.MustCompile(`(?i)(\d{1,2})(?:st|nd|rd|th)?\s+([a-z]{3,9})\.?,?\s+(\d{2,4})`)
)

// synthDate detects the date form the examples use (month-name, slash, dash,
// or dotted, in day-first, month-first, or year-first order), then emits an
// extractor producing ISO dates. Verification is exact equality against
// every example.
func (e *Engine) synthDate(req Request) (Func, string, bool) {
	candidates := []struct {
		fn   Func
		code string
	}{
		{monthNameDateFunc(), "(parse-date :form month-name)"},
		{separatedDateFunc(orderDMY), "(parse-date :form separated :order dmy)"},
		{separatedDateFunc(orderMDY), "(parse-date :form separated :order mdy)"},
		{separatedDateFunc(orderYMD), "(parse-date :form separated :order ymd)"},
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

// monthNameDateFunc parses "Jan 15, 2024" and "15 January 2024" shapes.
func monthNameDateFunc() Func {
	return func(input string) (any, error) {
		if m := monthNameDateRE.FindStringSubmatch(input); m != nil {
			month, ok := monthNames[strings.ToLower(m[1])[:3]]
			if ok {
				day, _ := strconv.Atoi(m[2])
				year := expandYear(m[3])
				return isoDate(year, month, day)
			}
		}
		if m := dayFirstNameRE.FindStringSubmatch(input); m != nil {
			month, ok := monthNames[strings.ToLower(m[2])[:3]]
			if ok {
				day, _ := strconv.Atoi(m[1])
				year := expandYear(m[3])
				return isoDate(year, month, day)
			}
		}
		return nil, nil
	}
}

// separatedDateFunc parses slash, dash, and dotted dates in one fixed field
// order.
func separatedDateFunc(order dateOrder) Func {
	return func(input string) (any, error) {
		m := separatedDateRE.FindStringSubmatch(input)
		if m == nil {
			return nil, nil
		}
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[3])
		c, _ := strconv.Atoi(m[4])

		var year, month, day int
		switch order {
		case orderMDY:
			month, day, year = a, b, expandYear(m[4])
		case orderYMD:
			year, month, day = expandYear(m[1]), b, c
		default:
			day, month, year = a, b, expandYear(m[4])
		}
		return isoDate(year, month, day)
	}
}

// ParseDateText is the deterministic single-input parser behind the
// evaluator's parseDate builtin. The optional hint fixes the field order
// ("DD/MM/YYYY" shapes force day-first); without one, a leading four-digit
// field reads year-first, a leading field over twelve reads day-first, and
// anything else reads month-first. The boolean is false when no date is
// found.
func ParseDateText(input, hint string) (string, bool) {
	if got, _ := monthNameDateFunc()(input); got != nil {
		return got.(string), true
	}

	m := separatedDateRE.FindStringSubmatch(input)
	if m == nil {
		return "", false
	}

	order := orderMDY
	first, _ := strconv.Atoi(m[1])
	switch {
	case hint != "":
		order = orderFromHint(hint)
	case len(m[1]) == 4:
		order = orderYMD
	case first > 12:
		order = orderDMY
	}

	got, _ := separatedDateFunc(order)(input)
	if got == nil {
		return "", false
	}
	return got.(string), true
}

func orderFromHint(hint string) dateOrder {
	upper := strings.ToUpper(hint)
	d := strings.IndexByte(upper, 'D')
	mo := strings.IndexByte(upper, 'M')
	y := strings.IndexByte(upper, 'Y')
	switch {
	case y >= 0 && y < d && y < mo:
		return orderYMD
	case d >= 0 && mo >= 0 && d < mo:
		return orderDMY
	default:
		return orderMDY
	}
}

// expandYear applies the two-digit roll-over: 50 and below land in the
// 2000s, above 50 in the 1900s.
func expandYear(raw string) int {
	y, _ := strconv.Atoi(raw)
	if len(raw) > 2 {
		return y
	}
	if y <= 50 {
		return 2000 + y
	}
	return 1900 + y
}

// isoDate renders YYYY-MM-DD, or null for an impossible calendar date.
func isoDate(year, month, day int) (any, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1 {
		return nil, nil
	}
	if time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Day() != day {
		return nil, nil
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), nil
}
