package logging

import (
	"regexp"
)

// RedactedText is the replacement text for sensitive data.
const RedactedText = "[REDACTED]"

var (
	// Matches password=xxx, pwd=xxx, pass=xxx in connection strings.
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Matches user:pass@host credentials embedded in a URL.
	connStringPattern = regexp.MustCompile(`://[^:\s]+:[^@\s]+@[^/\s]+`)

	// Matches api_key=xxx style parameters (geocoding keys).
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`)

	// Matches email addresses in free text.
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// Matches phone-length digit runs, optionally punctuated.
	phonePattern = regexp.MustCompile(`\+?1?[-. (]*\d{3}[-. )]*\d{3}[-. ]*\d{4}\b`)
)

// SanitizeConnectionString removes credentials from a connection string
// before it reaches a log line.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	return connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
}

// SanitizePII redacts contact information from free text. Ingest warnings
// often quote source fields verbatim (unmapped statuses, unresolved merge
// targets); requester emails and phone numbers must not leak into logs.
func SanitizePII(s string) string {
	if s == "" {
		return ""
	}
	sanitized := emailPattern.ReplaceAllString(s, RedactedText)
	return phonePattern.ReplaceAllString(sanitized, RedactedText)
}

// SanitizeError sanitizes an error message that might contain connection
// credentials, API keys, or contact PII.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
	return SanitizePII(sanitized)
}
