// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "US"

// NormalizeDialable reduces raw phone text to the canonical dialable form used
// as the unique lead key: every character that is not an ASCII digit or '+' is
// stripped, and a leading '+' is prepended when missing. Empty input stays
// empty. The transformation is purely syntactic; it never infers a country
// code, so "5551234567" and "+15551234567" remain distinct keys. Idempotent.
func NormalizeDialable(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '+' {
			return r
		}
		return -1
	}, strings.TrimSpace(raw))

	if cleaned == "" {
		return ""
	}
	if !strings.HasPrefix(cleaned, "+") {
		cleaned = "+" + cleaned
	}
	return cleaned
}

// IsLikelyValid reports whether the input parses as a valid phone number.
// Used for agent caller-ID validation only; lead keys go through
// NormalizeDialable and are never rejected on semantic grounds.
func IsLikelyValid(input string) bool {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return false
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return false
	}

	return phonenumbers.IsValidNumber(number)
}
