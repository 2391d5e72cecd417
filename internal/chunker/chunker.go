// Package chunker splits extracted document text into bounded,
// overlapping segments suitable for embedding and retrieval.
package chunker

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/calder-labs/filekb/internal/core/domain"
)

// DefaultMinLength is the default minimum chunk length in characters.
// Shorter chunks carry too little signal to embed and are discarded.
const DefaultMinLength = 50

// DefaultMaxLength is the default maximum chunk length in characters.
const DefaultMaxLength = 500

// DefaultOverlap is the default window overlap in characters, used
// when text has no usable sentence structure.
const DefaultOverlap = 80

var paragraphSplit = regexp.MustCompile(`\n[ \t]*\n+`)

// Splitter produces text chunks bounded by a minimum and maximum
// length. Paragraph boundaries are preferred, then sentence packing,
// then fixed-size windows with overlap for break-free text.
type Splitter struct {
	minLength int
	maxLength int
	overlap   int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithMinLength sets the minimum chunk length in characters.
func WithMinLength(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.minLength = n
		}
	}
}

// WithMaxLength sets the maximum chunk length in characters.
func WithMaxLength(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.maxLength = n
		}
	}
}

// WithOverlap sets the window overlap in characters.
func WithOverlap(n int) Option {
	return func(s *Splitter) {
		if n >= 0 {
			s.overlap = n
		}
	}
}

// New creates a splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		minLength: DefaultMinLength,
		maxLength: DefaultMaxLength,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Keep the bounds sane relative to each other.
	if s.minLength >= s.maxLength {
		s.minLength = s.maxLength / 4
	}
	if s.overlap >= s.maxLength {
		s.overlap = s.maxLength / 4
	}

	return s
}

// Split chunks text and returns the segments in document order.
// Empty or whitespace-only input returns nil.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	// Paragraph-first: when every paragraph fits the maximum, the
	// paragraphs themselves are the chunks.
	paragraphs := splitParagraphs(text)
	if allWithin(paragraphs, s.maxLength) {
		var chunks []string
		for _, p := range paragraphs {
			if len(p) >= s.minLength {
				chunks = append(chunks, p)
			}
		}
		if len(chunks) > 0 {
			return chunks
		}
		// Every paragraph was below the minimum; fall through and let
		// sentence packing merge them.
	}

	return s.packSentences(normalize(text))
}

// ChunkDocument runs Split and attaches provenance: every chunk
// carries its source tag, ordinal position, derived ID, and token
// count.
func (s *Splitter) ChunkDocument(source, text string) []domain.Chunk {
	segments := s.Split(text)
	chunks := make([]domain.Chunk, 0, len(segments))
	for i, seg := range segments {
		chunks = append(chunks, domain.Chunk{
			ID:         domain.NewChunkID(source, seg),
			Source:     source,
			Position:   i,
			Text:       seg,
			TokenCount: domain.CountTokens(seg),
		})
	}
	return chunks
}

// packSentences splits text on sentence boundaries and greedily packs
// sentences into chunks. A chunk is flushed when appending the next
// sentence would exceed the maximum and the buffer already meets the
// minimum. Sentences longer than the maximum are windowed.
func (s *Splitter) packSentences(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return s.windows(text)
	}

	var chunks []string
	var buf strings.Builder

	flush := func() {
		chunk := strings.TrimSpace(buf.String())
		buf.Reset()
		if chunk == "" {
			return
		}
		if len(chunk) >= s.minLength {
			chunks = append(chunks, chunk)
			return
		}
		// Short tail: merge into the previous chunk when that stays
		// within tolerance, otherwise drop it.
		if n := len(chunks); n > 0 && len(chunks[n-1])+1+len(chunk) <= s.maxLength+s.overlap {
			chunks[n-1] = chunks[n-1] + " " + chunk
		}
	}

	for _, sentence := range sentences {
		if len(sentence) > s.maxLength {
			flush()
			chunks = append(chunks, s.windows(sentence)...)
			continue
		}
		if buf.Len() > 0 && buf.Len()+1+len(sentence) > s.maxLength && buf.Len() >= s.minLength {
			flush()
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(sentence)
	}
	flush()

	return chunks
}

// windows slices break-free text into fixed-size segments. Each window
// starts overlap characters before the previous window's end, and the
// window boundary snaps backward to the nearest sentence-ending
// punctuation or newline inside the window when one exists.
func (s *Splitter) windows(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var out []string
	start := 0
	for start < len(text) {
		end := start + s.maxLength
		if end >= len(text) {
			end = len(text)
		} else if snap := snapBoundary(text[start:end]); snap > s.overlap {
			// Only snap when enough of the window survives to make
			// progress past the overlap.
			end = start + snap
		}

		window := strings.TrimSpace(text[start:end])
		if len(window) >= s.minLength || (start == 0 && end == len(text)) {
			out = append(out, window)
		}

		if end == len(text) {
			break
		}
		next := end - s.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

// snapBoundary returns the index just past the last sentence-ending
// punctuation or newline in window, or 0 when there is none.
func snapBoundary(window string) int {
	for i := len(window) - 1; i >= 0; i-- {
		switch window[i] {
		case '.', '!', '?', '\n':
			return i + 1
		}
	}
	return 0
}

// splitParagraphs splits raw text on blank lines and normalizes each
// paragraph independently, preserving the paragraph structure that
// whole-text normalization would erase.
func splitParagraphs(text string) []string {
	raw := paragraphSplit.Split(text, -1)
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = normalize(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences splits text into sentences on terminator punctuation.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			s := strings.TrimSpace(current.String())
			if s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// normalize maps non-printable characters to spaces and collapses
// whitespace runs to a single space.
func normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	space := false
	for _, r := range text {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

func allWithin(segments []string, limit int) bool {
	for _, s := range segments {
		if len(s) > limit {
			return false
		}
	}
	return true
}
