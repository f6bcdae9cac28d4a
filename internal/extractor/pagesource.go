package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/BerylCAtieno/intpatient-api/internal/models"
	"github.com/BerylCAtieno/intpatient-api/internal/ocr"
	"github.com/BerylCAtieno/intpatient-api/internal/utils"
)

const (
	// MinTextLayerLength is the shortest text layer accepted before a page
	// is treated as scanned.
	MinTextLayerLength = 10
	// RenderDPI is the resolution scanned pages are rasterised at.
	RenderDPI = 300
)

var imageTypes = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
}

// PageSource acquires the text of one uploaded file.
type PageSource struct {
	ocr    ocr.Client
	open   OpenFunc
	logger *utils.Logger
}

// NewPageSource builds a PageSource. A nil open uses OpenPDF.
func NewPageSource(client ocr.Client, open OpenFunc, logger *utils.Logger) *PageSource {
	if open == nil {
		open = OpenPDF
	}
	return &PageSource{
		ocr:    client,
		open:   open,
		logger: logger,
	}
}

// Acquire returns the text of a file of the given type (its lower-case
// extension). Images go straight to the OCR backend. PDF pages use their
// embedded text layer unless it is too short, in which case the page is
// rendered and sent to OCR. Any failing page fails the whole file.
func (s *PageSource) Acquire(ctx context.Context, content []byte, fileType string) (string, error) {
	switch {
	case imageTypes[fileType]:
		text, err := s.ocr.ExtractText(ctx, content)
		if err != nil {
			return "", asExtractionError(err)
		}
		return text, nil
	case fileType == "pdf":
		return s.acquirePDF(ctx, content)
	default:
		return "", &models.ExtractionError{Cause: fmt.Errorf("unsupported file type %q", fileType)}
	}
}

func (s *PageSource) acquirePDF(ctx context.Context, content []byte) (string, error) {
	doc, err := s.open(content)
	if err != nil {
		return "", &models.ExtractionError{Cause: err}
	}
	defer doc.Close()

	var pages []string
	scanned := 0

	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.PageText(i)
		if err != nil {
			s.logger.Warn("Unreadable text layer, treating page as scanned", "page", i+1, "error", err)
			text = ""
		}
		text = normalizeText(text)

		if utf8.RuneCountInString(text) < MinTextLayerLength {
			scanned++

			image, err := doc.RenderPage(i, RenderDPI)
			if err != nil {
				return "", &models.ExtractionError{Cause: fmt.Errorf("page %d: %w", i+1, err)}
			}

			text, err = s.ocr.ExtractText(ctx, image)
			if err != nil {
				return "", &models.ExtractionError{Cause: fmt.Errorf("page %d: %w", i+1, extractionCause(err))}
			}
			text = strings.TrimSpace(text)
		}

		if text != "" {
			pages = append(pages, text)
		}
	}

	s.logger.Debug("PDF text acquired", "pages", doc.NumPage(), "scanned_pages", scanned)

	return strings.Join(pages, "\n\n"), nil
}

// extractionCause drops an ExtractionError wrapper so it is not nested.
func extractionCause(err error) error {
	var extractionErr *models.ExtractionError
	if errors.As(err, &extractionErr) && extractionErr.Cause != nil {
		return extractionErr.Cause
	}
	return err
}

func asExtractionError(err error) error {
	var extractionErr *models.ExtractionError
	if errors.As(err, &extractionErr) {
		return err
	}
	return &models.ExtractionError{Cause: err}
}
