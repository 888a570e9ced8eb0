package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)

// SanitizeString removes control characters other than tab and newline and trims surrounding space
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}

// SanitizeOptional sanitizes an optional field, keeping nil as nil
func SanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := SanitizeString(*s)
	return &v
}

// ExceedsLength reports whether s has more than max runes. A max of zero or less means no limit.
func ExceedsLength(s string, max int) bool {
	return max > 0 && utf8.RuneCountInString(s) > max
}
