// Package markdown extracts readable text from Markdown documents by
// stripping formatting syntax while keeping the prose and structure.
package markdown

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/calder-labs/filekb/internal/core/domain"
)

var (
	codeFence   = regexp.MustCompile("(?m)^```.*$")
	image       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	link        = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	heading     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasis    = regexp.MustCompile(`(\*{1,3}|_{1,3})([^*_]+)(\*{1,3}|_{1,3})`)
	inlineCode  = regexp.MustCompile("`([^`]*)`")
	blockquote  = regexp.MustCompile(`(?m)^>\s?`)
	listMarker  = regexp.MustCompile(`(?m)^\s*([-*+]|\d+\.)\s+`)
	rule        = regexp.MustCompile(`(?m)^(\s*[-*_]){3,}\s*$`)
	htmlTag     = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	tableBorder = regexp.MustCompile(`(?m)^\s*\|?[\s:|-]+\|?\s*$`)
)

// Extractor strips Markdown syntax down to plain text.
type Extractor struct{}

// New creates a Markdown extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".md", ".markdown", ".mdown"}
}

// Extract reads the file and returns its prose with Markdown
// formatting removed. Code blocks survive without their fences; their
// contents are often what a reader searches for.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, domain.ErrExtraction)
	}

	return Strip(string(data)), nil
}

// Strip removes Markdown formatting from text.
func Strip(text string) string {
	text = codeFence.ReplaceAllString(text, "")
	text = image.ReplaceAllString(text, "$1")
	text = link.ReplaceAllString(text, "$1")
	text = heading.ReplaceAllString(text, "")
	text = emphasis.ReplaceAllString(text, "$2")
	text = inlineCode.ReplaceAllString(text, "$1")
	text = blockquote.ReplaceAllString(text, "")
	text = listMarker.ReplaceAllString(text, "")
	text = rule.ReplaceAllString(text, "")
	text = tableBorder.ReplaceAllString(text, "")
	text = htmlTag.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "|", " ")
	return strings.TrimSpace(text)
}
