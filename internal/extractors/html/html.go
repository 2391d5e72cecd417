// Package html extracts visible text from HTML documents.
package html

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/calder-labs/filekb/internal/core/domain"
)

var (
	scriptBlock = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	styleBlock  = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style>`)
	comment     = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockClose  = regexp.MustCompile(`(?i)</(p|div|section|article|li|h[1-6]|tr|blockquote|pre)>|<br\s*/?>`)
	anyTag      = regexp.MustCompile(`(?s)<[^>]+>`)
)

var entities = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&apos;", "'",
)

// Extractor strips markup from HTML files, dropping scripts, styles
// and comments, and keeping block boundaries as paragraph breaks.
type Extractor struct{}

// New creates an HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Extract reads the file and returns its visible text.
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

// Strip removes markup from an HTML fragment. Closing block tags
// become blank lines so downstream chunking sees paragraph boundaries.
func Strip(text string) string {
	text = scriptBlock.ReplaceAllString(text, " ")
	text = styleBlock.ReplaceAllString(text, " ")
	text = comment.ReplaceAllString(text, " ")
	text = blockClose.ReplaceAllString(text, "\n\n")
	text = anyTag.ReplaceAllString(text, " ")
	text = entities.Replace(text)
	return strings.TrimSpace(text)
}
