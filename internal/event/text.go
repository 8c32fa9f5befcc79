package event

import (
	"strings"
	"unicode/utf8"
)

// Ellipsis marks text that was cut at its bound.
const Ellipsis = "..."

// CleanText trims s and collapses every run of whitespace to a single space.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate caps s at max runes, replacing the tail with Ellipsis when it is cut.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max <= len(Ellipsis) {
		return string(runes[:max])
	}
	return strings.TrimSpace(string(runes[:max-len(Ellipsis)])) + Ellipsis
}

// FirstLine returns the first trimmed line of s with at least minLen runes.
func FirstLine(s string, minLen int) string {
	for _, line := range strings.Split(s, "\n") {
		line = CleanText(line)
		if utf8.RuneCountInString(line) >= minLen {
			return line
		}
	}
	return ""
}
