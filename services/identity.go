package services

import (
	"errors"
	"strings"
	"unicode"
)

// ErrEmptyNaturalKey is returned when no identifying part survives
// sanitization. Records without a stable natural key cannot be stored
// idempotently and are dropped upstream.
var ErrEmptyNaturalKey = errors.New("empty natural key")

// BuildID derives the canonical listing id from a provider name and the
// provider's natural-key parts. The id doubles as the idempotency key for
// every downstream write, so the function is pure and total: the same inputs
// always yield the same id, across calls and across runs. Timestamps, loop
// indexes and other run-local values must never be passed in.
//
// The shape is {provider}_{part1}_{part2}_..., with each part sanitized to be
// safe as a document key and an object-storage name. Sanitization only ever
// emits "-" inside a part, so the "_" joiner keeps part boundaries
// unambiguous: ("A/B","C") and ("A","B/C") yield distinct ids.
func BuildID(provider string, parts ...string) (string, error) {
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := sanitizeKeyPart(p); s != "" {
			clean = append(clean, s)
		}
	}
	if len(clean) == 0 {
		return "", ErrEmptyNaturalKey
	}
	return provider + "_" + strings.Join(clean, "_"), nil
}

// sanitizeKeyPart trims a key part and replaces whitespace and path
// separators so the assembled id stays a single token.
func sanitizeKeyPart(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '/' || r == '\\'
	})
	return strings.Join(fields, "-")
}
