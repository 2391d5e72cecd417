package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyInput(t *testing.T) {
	s := New()

	assert.Nil(t, s.Split(""))
	assert.Nil(t, s.Split("   \n\t  \n  "))
}

func TestSplitShortInputSingleChunk(t *testing.T) {
	s := New()
	text := "Go is a statically typed language designed at Google for building simple and reliable software."

	chunks := s.Split(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitNormalizesWhitespace(t *testing.T) {
	s := New()
	text := "Go   is  a \t language\nwith  great\x00 tooling and a friendly community of developers."

	chunks := s.Split(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, "Go is a language with great tooling and a friendly community of developers.", chunks[0])
}

func TestSplitPreservesParagraphs(t *testing.T) {
	s := New(WithMinLength(20))
	first := strings.Repeat("alpha ", 20) + "ends the first paragraph."
	second := strings.Repeat("bravo ", 20) + "ends the second paragraph."

	chunks := s.Split(first + "\n\n" + second)

	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0], "alpha")
	assert.Contains(t, chunks[1], "bravo")
}

func TestSplitDiscardsShortParagraphs(t *testing.T) {
	s := New()
	keep := strings.Repeat("kept paragraph content ", 5)

	chunks := s.Split("tiny\n\n" + keep)

	require.Len(t, chunks, 1)
	assert.NotContains(t, chunks[0], "tiny")
}

func TestSplitPacksSentencesUnderMax(t *testing.T) {
	s := New(WithMaxLength(120), WithMinLength(30))
	var sb strings.Builder
	for i := 0; i < 12; i++ {
		sb.WriteString("This sentence carries enough words to matter. ")
	}

	chunks := s.Split(sb.String())

	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c), 120, "chunk %d exceeds maximum", i)
		if i < len(chunks)-1 {
			assert.GreaterOrEqual(t, len(c), 30, "non-final chunk %d below minimum", i)
		}
	}
}

func TestSplitWindowsBreakFreeText(t *testing.T) {
	s := New(WithMaxLength(100), WithOverlap(20), WithMinLength(10))
	text := strings.Repeat("abcdefghij", 40) // 400 chars, no breaks

	chunks := s.Split(text)

	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c), 100, "chunk %d exceeds maximum", i)
	}
	// Consecutive windows share the overlap region.
	tail := chunks[0][len(chunks[0])-20:]
	assert.True(t, strings.HasPrefix(chunks[1], tail))
}

func TestSplitWindowSnapsToSentenceBoundary(t *testing.T) {
	s := New(WithMaxLength(200), WithOverlap(40), WithMinLength(10))
	lead := strings.Repeat("word ", 24) + "sentence ends here."
	text := lead + " " + strings.Repeat("x", 400)

	chunks := s.Split(text)

	require.Greater(t, len(chunks), 1)
	found := false
	for _, c := range chunks {
		if strings.HasSuffix(c, "sentence ends here.") {
			found = true
		}
	}
	assert.True(t, found, "no window ended at the sentence boundary")
}

func TestSplitMergesShortTail(t *testing.T) {
	s := New(WithMaxLength(200), WithMinLength(50))
	body := strings.Repeat("A full sentence with a reasonable number of words. ", 3)
	text := body + "Tail."

	chunks := s.Split(text)

	require.NotEmpty(t, chunks)
	assert.Contains(t, chunks[len(chunks)-1], "Tail.")
}

func TestNewClampsDegenerateOptions(t *testing.T) {
	s := New(WithMinLength(600), WithMaxLength(500), WithOverlap(900))

	assert.Less(t, s.minLength, s.maxLength)
	assert.Less(t, s.overlap, s.maxLength)
}

func TestChunkDocumentProvenance(t *testing.T) {
	s := New(WithMinLength(20))
	first := strings.Repeat("alpha ", 15) + "closes paragraph one."
	second := strings.Repeat("bravo ", 15) + "closes paragraph two."

	chunks := s.ChunkDocument("notes/readme.md", first+"\n\n"+second)

	require.Len(t, chunks, 2)
	for i, c := range chunks {
		assert.Equal(t, "notes/readme.md", c.Source)
		assert.Equal(t, i, c.Position)
		assert.NotEmpty(t, c.ID)
		assert.Equal(t, len(strings.Fields(c.Text)), c.TokenCount)
	}
	assert.NotEqual(t, chunks[0].ID, chunks[1].ID)
}

func TestChunkDocumentEmpty(t *testing.T) {
	s := New()

	assert.Empty(t, s.ChunkDocument("empty.txt", "  \n "))
}
