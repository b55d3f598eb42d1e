package util

import "strings"

// NormalizeWhitespace collapses every run of whitespace (including line
// breaks) into a single space and trims both ends.
func NormalizeWhitespace(value string) string {
	if value == "" {
		return value
	}
	return strings.Join(strings.Fields(value), " ")
}

// SanitizeText drops invalid UTF-8 sequences and NUL bytes. Extractor and
// resolver responses pass through here before they become graph labels.
func SanitizeText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}
