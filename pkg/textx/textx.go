// Package textx provides small text utilities used across the project.
package textx

import (
	"strings"
	"unicode/utf8"
)

// SanitizeText removes control characters except tab/newline/CR and trims spaces.
func SanitizeText(s string) string {
	return strings.TrimSpace(StripControl(s))
}

// StripControl removes control characters except tab/newline/CR. Unlike
// SanitizeText it keeps surrounding whitespace, so offsets into text that had
// no control characters stay valid.
func StripControl(s string) string {
	clean := true
	for _, r := range s {
		if !keepRune(r) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if keepRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func keepRune(r rune) bool {
	return r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127)
}

// WordCount returns the number of whitespace separated words in s.
func WordCount(s string) int { return len(strings.Fields(s)) }

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
