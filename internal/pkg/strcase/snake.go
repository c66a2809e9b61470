// Package strcase converts identifier casing for wire-facing field names.
package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake converts a string to snake_case, keeping initialisms intact
// (userID -> user_id, HTTPServer -> http_server).
func ToLowerSnake(s string) string {
	if s == "" {
		return ""
	}

	runes := []rune(s)

	var b strings.Builder
	b.Grow(len(s))

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]

			var next rune
			if i+1 < len(runes) {
				next = runes[i+1]
			}

			// Boundary after a lower/digit run, or between an acronym
			// and the following word.
			if unicode.IsLower(prev) || unicode.IsDigit(prev) ||
				(unicode.IsUpper(prev) && next != 0 && unicode.IsLower(next)) {
				b.WriteRune('_')
			}
		}

		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}
