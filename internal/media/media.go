// Package media persists rendered artifacts and maps them to public URLs.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/moby/sys/atomicwriter"
)

const artifactPrefix = "masked_result_"

// ErrInvalidName is returned for names that would escape the media directory
var ErrInvalidName = errors.New("invalid media file name")

// ArtifactName returns the file name for a masked image rendered at now.
// Nanosecond resolution keeps concurrent requests from colliding.
func ArtifactName(now time.Time) string {
	return fmt.Sprintf("%s%d.png", artifactPrefix, now.UnixNano())
}

// LocalWriter stores artifacts in a directory served under a URL prefix
type LocalWriter struct {
	dir       string
	urlPrefix string
}

// NewLocalWriter creates dir if needed. urlPrefix is joined with the file name to build URLs.
func NewLocalWriter(dir, urlPrefix string) (*LocalWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	if urlPrefix == "" {
		urlPrefix = "/media/"
	}
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &LocalWriter{dir: dir, urlPrefix: urlPrefix}, nil
}

// Dir is the directory artifacts are written to
func (w *LocalWriter) Dir() string {
	return w.dir
}

// Write stores data under name and returns its public URL. A reader never
// observes a partially written file.
func (w *LocalWriter) Write(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	if err := atomicwriter.WriteFile(filepath.Join(w.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return w.URL(name), nil
}

// URL maps a stored file name to the URL it is served at
func (w *LocalWriter) URL(name string) string {
	return w.urlPrefix + path.Clean(name)
}
