// Package redact scrubs sensitive information from strings before they are
// logged or returned in error responses: connection strings, credentials,
// API keys, tokens, and raw SQL fragments.
package redact

import "regexp"

// rule pairs a detection pattern with its replacement placeholder.
// Rules are applied in order; broader patterns come last so specific
// placeholders win.
type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

var rules = []rule{
	// Connection strings with inline credentials
	{
		pattern:     regexp.MustCompile(`(?i)(postgres|postgresql|mysql|redis|amqp)://[^@\s]+@`),
		placeholder: "[REDACTED_DSN]",
	},
	// password=..., passwd: '...'
	{
		pattern:     regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]['"]?|['"]?[=:])[^'"&\s]{3,}`),
		placeholder: "[REDACTED_CREDENTIAL]",
	},
	// api_key=..., token: ..., secret=...
	{
		pattern:     regexp.MustCompile(`(?i)(api[_-]?key|token|secret|bearer)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`),
		placeholder: "[REDACTED_KEY]",
	},
	// JWT tokens (three base64url segments, first two starting with eyJ)
	{
		pattern:     regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
		placeholder: "[REDACTED_JWT]",
	},
	// SQL statements leaking schema details
	{
		pattern:     regexp.MustCompile(`(?i)(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP)[\s\w,*()]+(?:FROM|INTO|SET|TABLE)(?:[\s\w,*()='"$]+)?`),
		placeholder: "[REDACTED_SQL]",
	},
	// Email addresses
	{
		pattern:     regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		placeholder: "[REDACTED_EMAIL]",
	},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}
	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
