package extractor

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/BerylCAtieno/intpatient-api/internal/models"
	"github.com/BerylCAtieno/intpatient-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readTestPDF(t *testing.T, name string) []byte {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)

	return data
}

func TestOpenPDFReadsTextLayer(t *testing.T) {
	doc, err := OpenPDF(readTestPDF(t, "text.pdf"))
	require.NoError(t, err)
	defer doc.Close()

	require.Equal(t, 1, doc.NumPage())

	text, err := doc.PageText(0)
	require.NoError(t, err)
	assert.Contains(t, text, "Haemoglobin 13.5 g/dL")
}

func TestAcquireTextPDFSkipsOCR(t *testing.T) {
	client := &fakeOCR{text: "unused"}
	source := NewPageSource(client, nil, utils.NewDiscardLogger())

	text, err := source.Acquire(context.Background(), readTestPDF(t, "text.pdf"), "pdf")

	require.NoError(t, err)
	assert.Equal(t, "Haemoglobin 13.5 g/dL", text)
	assert.Empty(t, client.calls)
}

func TestAcquireBlankPDFRendersPageForOCR(t *testing.T) {
	client := &fakeOCR{text: "  Glucose 5.4 mmol/L \n"}
	source := NewPageSource(client, nil, utils.NewDiscardLogger())

	text, err := source.Acquire(context.Background(), readTestPDF(t, "blank.pdf"), "pdf")

	require.NoError(t, err)
	assert.Equal(t, "Glucose 5.4 mmol/L", text)
	require.Len(t, client.calls, 1)
	assert.True(t, bytes.HasPrefix(client.calls[0], []byte("\x89PNG")), "OCR input should be a PNG render")
}

func TestAcquireMalformedPDF(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"garbage after header", []byte("%PDF-1.4 garbage")},
		{"not a pdf", []byte("plain text pretending to be a report")},
		{"empty", []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeOCR{text: "unused"}
			source := NewPageSource(client, nil, utils.NewDiscardLogger())

			var err error
			require.NotPanics(t, func() {
				_, err = source.Acquire(context.Background(), tt.content, "pdf")
			})

			var extractionErr *models.ExtractionError
			assert.ErrorAs(t, err, &extractionErr)
			assert.Empty(t, client.calls)
		})
	}
}
