package extractor

import (
	"strings"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalizeText puts text-layer output in NFC form with unix line endings.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\x00", "")

	normalized, _, err := transform.String(norm.NFC, text)
	if err != nil {
		return strings.TrimSpace(text)
	}

	return strings.TrimSpace(normalized)
}
