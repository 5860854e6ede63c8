package security

import (
	"html"
	"strings"
)

// SanitizeInput trims surrounding whitespace and HTML-escapes free text before it
// is stored or echoed back to the browser pages.
func SanitizeInput(raw string) string {
	return html.EscapeString(strings.TrimSpace(raw))
}

// NormalizeEmail is SanitizeInput plus lower-casing, so lookups are case-insensitive.
func NormalizeEmail(raw string) string {
	return strings.ToLower(SanitizeInput(raw))
}
