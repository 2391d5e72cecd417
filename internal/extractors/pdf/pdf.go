// Package pdf extracts text from PDF documents.
package pdf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/calder-labs/filekb/internal/core/domain"
)

// Extractor pulls the plain-text layer out of a PDF. Scanned PDFs
// without a text layer yield empty output and are skipped upstream.
type Extractor struct{}

// New creates a PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".pdf"}
}

// Extract opens the PDF and concatenates its text content.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %v: %w", path, err, domain.ErrExtraction)
	}
	defer f.Close()

	r, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("reading text from %s: %v: %w", path, err, domain.ErrExtraction)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return "", fmt.Errorf("reading text from %s: %v: %w", path, err, domain.ErrExtraction)
	}

	return buf.String(), nil
}
