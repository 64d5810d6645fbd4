// Package pdf extracts per-page plain text from textbook PDFs. Page numbers
// are preserved because retrieval supports page-range filters and every
// stored chunk carries the page it came from.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	pdflib "github.com/ledongthuc/pdf"
)

// ErrExtraction indicates the source document could not be parsed (corrupt
// or unsupported format). Ingestion treats it as fatal for the request; it
// is never retried automatically.
var ErrExtraction = errors.New("pdf: extraction failed")

// Page is the plain text of a single PDF page. No is 1-based.
type Page struct {
	// No is the 1-based page number within the source document.
	No int
	// Text is the extracted plain text. May be empty for image-only pages.
	Text string
}

// ExtractPages parses the PDF available through ra and returns one Page per
// document page, in order. Pages whose text cannot be decoded are returned
// with empty text rather than failing the whole document — scanned pages
// with no text layer are common in textbooks.
func ExtractPages(ra io.ReaderAt, size int64) ([]Page, error) {
	reader, err := pdflib.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	numPages := reader.NumPage()
	pages := make([]Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		p := Page{No: i}
		page := reader.Page(i)
		if !page.V.IsNull() {
			if text, err := page.GetPlainText(nil); err == nil {
				p.Text = text
			}
		}
		pages = append(pages, p)
	}

	return pages, nil
}

// ExtractPagesBytes is a convenience wrapper over [ExtractPages] for callers
// holding the whole document in memory (e.g. a multipart upload).
func ExtractPagesBytes(data []byte) ([]Page, error) {
	return ExtractPages(bytes.NewReader(data), int64(len(data)))
}
