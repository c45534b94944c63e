package utils

import (
	"strconv"
	"strings"
	"unicode"
)

// TrailingPunct is stripped from the end of single words before they are counted or promoted.
const TrailingPunct = `.,;:!?"')]}»›”’…`

// LeadingPunct is stripped from the start of words before they are counted.
const LeadingPunct = `"'([{«‹“‘¿¡`

// TrimTrailingPunct removes any run of TrailingPunct from the end of s.
func TrimTrailingPunct(s string) string {
	return strings.TrimRight(s, TrailingPunct)
}

// TrimLeadingPunct removes any run of LeadingPunct from the start of s.
func TrimLeadingPunct(s string) string {
	return strings.TrimLeft(s, LeadingPunct)
}

// IsBoundary reports whether r ends a word while typing: space, newline or punctuation.
func IsBoundary(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// IsOnlyNumbers checks if a string consists entirely of numeric digits
func IsOnlyNumbers(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// FormatWithCommas formats an integer with comma separators
func FormatWithCommas(n int) string {
	str := strconv.Itoa(n)
	if n < 1000 && n > -1000 {
		return str
	}
	var b strings.Builder
	start := 0
	if str[0] == '-' {
		b.WriteByte('-')
		start = 1
	}
	digits := str[start:]
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}
