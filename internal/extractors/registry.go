// Package extractors maps file types to text extraction strategies.
package extractors

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/calder-labs/filekb/internal/core/domain"
	"github.com/calder-labs/filekb/internal/core/ports/driven"
)

// skipExtensions are binary or media formats we never try to read.
var skipExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".bmp": {}, ".ico": {},
	".svg": {}, ".webp": {}, ".mp3": {}, ".mp4": {}, ".wav": {}, ".avi": {},
	".mov": {}, ".zip": {}, ".tar": {}, ".gz": {}, ".bz2": {}, ".7z": {},
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {}, ".bin": {}, ".o": {},
	".a": {}, ".class": {}, ".pyc": {}, ".woff": {}, ".woff2": {}, ".ttf": {},
	".eot": {}, ".db": {}, ".sqlite": {},
}

// Registry dispatches extraction by file extension.
type Registry struct {
	byExt map[string]driven.Extractor
}

// NewRegistry builds a registry from the given extractors. Later
// extractors win when two claim the same extension.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	r := &Registry{byExt: make(map[string]driven.Extractor)}
	for _, e := range extractors {
		for _, ext := range e.Extensions() {
			r.byExt[strings.ToLower(ext)] = e
		}
	}
	return r
}

// For returns the extractor handling path, or an error when the file
// type is unsupported.
func (r *Registry) For(path string) (driven.Extractor, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("no extractor for %q files: %w", ext, domain.ErrExtraction)
	}
	return e, nil
}

// Supported reports whether path is a file type the registry can
// extract. Known binary formats are rejected outright.
func (r *Registry) Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if _, skip := skipExtensions[ext]; skip {
		return false
	}
	_, ok := r.byExt[ext]
	return ok
}

// Extensions lists every registered extension, useful for logging.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	return out
}
