// Package plaintext extracts text from files that are already text.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/calder-labs/filekb/internal/core/domain"
)

// Extractor reads plain-text files verbatim. It also serves source
// code and config formats, which embed well without transformation.
type Extractor struct{}

// New creates a plain-text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{
		".txt", ".text", ".log", ".csv", ".tsv", ".json", ".yaml", ".yml",
		".toml", ".ini", ".cfg", ".conf", ".rst", ".go", ".py", ".js", ".ts",
		".sh", ".sql", ".env",
	}
}

// Extract reads the file and returns its contents. Files that are not
// valid UTF-8 are rejected rather than indexed as garbage.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, domain.ErrExtraction)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s is not valid UTF-8 text: %w", path, domain.ErrExtraction)
	}

	return string(data), nil
}
