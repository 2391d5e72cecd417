package extractors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder-labs/filekb/internal/core/domain"
	"github.com/calder-labs/filekb/internal/extractors/markdown"
	"github.com/calder-labs/filekb/internal/extractors/plaintext"
)

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry(plaintext.New(), markdown.New())

	e, err := r.For("docs/guide.md")
	require.NoError(t, err)
	assert.IsType(t, &markdown.Extractor{}, e)

	e, err = r.For("notes/todo.TXT")
	require.NoError(t, err)
	assert.IsType(t, &plaintext.Extractor{}, e)
}

func TestRegistryUnsupported(t *testing.T) {
	r := NewRegistry(plaintext.New())

	_, err := r.For("archive.tar")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestRegistrySupported(t *testing.T) {
	r := NewRegistry(plaintext.New(), markdown.New())

	assert.True(t, r.Supported("a/b/readme.md"))
	assert.True(t, r.Supported("config.yaml"))
	assert.False(t, r.Supported("logo.png"))
	assert.False(t, r.Supported("report.docx"))
	assert.False(t, r.Supported("Makefile"))
}

func TestRegistryExtensions(t *testing.T) {
	r := NewRegistry(markdown.New())

	assert.ElementsMatch(t, []string{".md", ".markdown", ".mdown"}, r.Extensions())
}
