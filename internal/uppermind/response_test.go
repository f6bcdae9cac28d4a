package uppermind

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTranslation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"response field", `{"response":"Translated text content"}`, "Translated text content"},
		{"content field", `{"content":"From content"}`, "From content"},
		{"text field", `{"text":"From text"}`, "From text"},
		{"field order", `{"text":"third","content":"second","response":"first"}`, "first"},
		{"empty response falls through", `{"response":"","content":"second"}`, "second"},
		{"no known field", `{"other":"value"}`, ""},
		{"json string", `"Plain translated string"`, "Plain translated string"},
		{"raw text", `Just text, not json`, "Just text, not json"},
		{"json array", `[1,2]`, "[1,2]"},
		{"preamble stripped", `{"response":"Translation: The patient is stable."}`, "The patient is stable."},
		{"preamble case insensitive", `"translated TEXT:  Normal findings"`, "Normal findings"},
		{"whitespace trimmed", `{"response":"  spaced  \n"}`, "spaced"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTranslation([]byte(tt.body)))
		})
	}
}
