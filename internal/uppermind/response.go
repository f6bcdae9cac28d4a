package uppermind

import (
	"encoding/json"
	"strings"
)

// translationFields are tried in order on object responses.
var translationFields = []string{"response", "content", "text"}

// preambleMarkers are labels some agent versions put before the translation.
var preambleMarkers = []string{"Translated text:", "Translation:"}

// parseTranslation normalises the agent's reply. It accepts a JSON string, an
// object carrying the text in one of translationFields, or falls back to the
// raw body.
func parseTranslation(body []byte) string {
	var text string

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		text = string(body)
	} else {
		switch v := decoded.(type) {
		case string:
			text = v
		case map[string]any:
			text = firstField(v)
		default:
			text = string(body)
		}
	}

	return stripPreamble(strings.TrimSpace(text))
}

func firstField(obj map[string]any) string {
	for _, field := range translationFields {
		if s, ok := obj[field].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func stripPreamble(text string) string {
	for _, marker := range preambleMarkers {
		if len(text) >= len(marker) && strings.EqualFold(text[:len(marker)], marker) {
			return strings.TrimSpace(text[len(marker):])
		}
	}
	return text
}
