// Package normalize holds the string normalization rules shared by identity
// derivation, matching, and the upsert keys. Every source system funnels
// through these before anything is compared or hashed.
package normalize

import (
	"regexp"
	"strings"
)

var (
	wsPattern   = regexp.MustCompile(`\s+`)
	textPattern = regexp.MustCompile(`[^\w\s#/-]`)
	nonDigit    = regexp.MustCompile(`\D+`)
	nonAlnum    = regexp.MustCompile(`[^a-z0-9]+`)
)

// Whitespace collapses internal runs of whitespace to single spaces and trims.
func Whitespace(s string) string {
	return strings.TrimSpace(wsPattern.ReplaceAllString(s, " "))
}

// Text lowercases, strips punctuation (keeping the address characters
// # / -), and collapses whitespace. Used for address and place keys.
func Text(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = textPattern.ReplaceAllString(s, "")
	return Whitespace(s)
}

// Phone reduces a phone number to bare digits, stripping a leading US
// country code. Returns "" if no digits remain.
func Phone(s string) string {
	digits := nonDigit.ReplaceAllString(s, "")
	if len(digits) == 11 && strings.HasPrefix(digits, "1") {
		digits = digits[1:]
	}
	return digits
}

// Name lowercases and collapses whitespace for name comparison.
func Name(s string) string {
	return Whitespace(strings.ToLower(strings.TrimSpace(s)))
}

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SnakeCase reduces a status-vocabulary label to snake_case for the fallback
// lookup: non-alphanumerics become single underscores.
func SnakeCase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Trim(nonAlnum.ReplaceAllString(s, "_"), "_")
}
