package util

import "strings"

// MakeTextList joins display names into prose: "a", "a and b", or
// "a, b, and c".
func MakeTextList(items []string) string {
	if len(items) < 1 {
		return ""
	}

	if len(items) == 1 {
		return items[0]
	}
	if len(items) == 2 {
		return items[0] + " and " + items[1]
	}

	joined := make([]string, len(items))
	copy(joined, items)
	joined[len(joined)-1] = "and " + joined[len(joined)-1]
	return strings.Join(joined, ", ")
}
