package extractor

import (
	"bytes"
	"fmt"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
)

// Document is the per-page view of a PDF needed to acquire its text.
// Pages are numbered from 0.
type Document interface {
	NumPage() int
	PageText(page int) (string, error)
	RenderPage(page int, dpi float64) ([]byte, error)
	Close() error
}

// OpenFunc opens raw PDF bytes as a Document.
type OpenFunc func(data []byte) (Document, error)

// pdfDocument reads the text layer with ledongthuc/pdf and renders pages with
// MuPDF. MuPDF is only opened when a page has to be rasterised, or when the
// pure-Go parser cannot read the file at all.
type pdfDocument struct {
	data []byte
	text *pdf.Reader
	mu   *fitz.Document
}

func OpenPDF(data []byte) (Document, error) {
	doc := &pdfDocument{data: data}

	var reader *pdf.Reader
	err := safely(func() error {
		var err error
		reader, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
		return err
	})
	if err == nil {
		doc.text = reader
		return doc, nil
	}

	if fitzErr := doc.openFitz(); fitzErr != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	return doc, nil
}

func (d *pdfDocument) openFitz() error {
	if d.mu != nil {
		return nil
	}
	mu, err := fitz.NewFromMemory(d.data)
	if err != nil {
		return fmt.Errorf("failed to open PDF for rendering: %w", err)
	}
	d.mu = mu
	return nil
}

func (d *pdfDocument) NumPage() int {
	if d.text != nil {
		return d.text.NumPage()
	}
	return d.mu.NumPage()
}

func (d *pdfDocument) PageText(page int) (string, error) {
	if d.text == nil {
		return d.mu.Text(page)
	}

	var text string
	err := safely(func() error {
		p := d.text.Page(page + 1)
		if p.V.IsNull() {
			return nil
		}
		var err error
		text, err = p.GetPlainText(nil)
		return err
	})

	return text, err
}

func (d *pdfDocument) RenderPage(page int, dpi float64) ([]byte, error) {
	if err := d.openFitz(); err != nil {
		return nil, err
	}

	img, err := d.mu.ImagePNG(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page+1, err)
	}

	return img, nil
}

func (d *pdfDocument) Close() error {
	if d.mu != nil {
		err := d.mu.Close()
		d.mu = nil
		return err
	}
	return nil
}

// safely converts parser panics on malformed input into errors.
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()
	return fn()
}
