package utils

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// FormatPrice renders a price the way the storefront shows it: "$109.95", "$22.3", "$7".
func FormatPrice(price float64) string {
	if price < 0 {
		price = 0
	}
	return "$" + strconv.FormatFloat(price, 'f', -1, 64)
}

// Truncate shortens s to at most max runes, ending with an ellipsis when cut.
func Truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}

	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}
