package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder-labs/filekb/internal/core/domain"
)

// recordingIngest records which paths were ingested.
type recordingIngest struct {
	mu    sync.Mutex
	files []string
}

func (r *recordingIngest) IngestDirectory(context.Context, string) (*domain.IngestReport, error) {
	return &domain.IngestReport{}, nil
}

func (r *recordingIngest) IngestFile(_ context.Context, path string) (*domain.IngestReport, error) {
	r.mu.Lock()
	r.files = append(r.files, path)
	r.mu.Unlock()
	return &domain.IngestReport{ChunksWritten: 1, FilesProcessed: 1}, nil
}

func (r *recordingIngest) ingested() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.files...)
}

func isText(path string) bool {
	return strings.HasSuffix(path, ".txt")
}

func TestWatchIngestsChangedFile(t *testing.T) {
	dir := t.TempDir()
	ingest := &recordingIngest{}
	w := New(ingest, isText, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx, dir) }()

	// Give the watcher a moment to register.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("fresh content"), 0o644))

	require.Eventually(t, func() bool {
		files := ingest.ingested()
		return len(files) == 1 && files[0] == path
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatchDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	ingest := &recordingIngest{}
	w := New(ingest, isText, WithDebounce(150*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Watch(ctx, dir) }()
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "burst.txt")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", i+1)), 0o644))
		time.Sleep(20 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return len(ingest.ingested()) >= 1
	}, 3*time.Second, 20*time.Millisecond)

	// The burst collapses into a single ingest.
	time.Sleep(300 * time.Millisecond)
	assert.Len(t, ingest.ingested(), 1)
}

func TestWatchIgnoresUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	ingest := &recordingIngest{}
	w := New(ingest, isText, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Watch(ctx, dir) }()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte{0x89}, 0o644))

	time.Sleep(300 * time.Millisecond)
	assert.Empty(t, ingest.ingested())
}
