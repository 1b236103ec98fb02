package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"
)

const fileSuffix = "_embedding.json"

// FileStore keeps each reference in <dir>/<identity>_embedding.json as a flat
// JSON array. Writes for one identity are serialized and land via rename.
type FileStore struct {
	dir   string
	locks *keyLocks
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create embedding dir: %w", err)
	}
	return &FileStore{dir: dir, locks: newKeyLocks()}, nil
}

// Path returns where the reference for an already normalized key lives
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, key+fileSuffix)
}

func (s *FileStore) Save(ctx context.Context, userID string, embedding []float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := NormalizeKey(userID)
	if err != nil {
		return "", err
	}
	if len(embedding) == 0 {
		return "", fmt.Errorf("save %s: empty embedding", key)
	}

	data, err := json.MarshalIndent(embedding, "", "    ")
	if err != nil {
		return "", fmt.Errorf("encode embedding: %w", err)
	}

	unlock := s.locks.lock(key)
	defer unlock()

	path := s.Path(key)
	// atomicwriter syncs a sibling temp file and renames it over path
	if err := atomicwriter.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save %s: %w", key, err)
	}
	return path, nil
}

func (s *FileStore) Load(ctx context.Context, userID string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := NormalizeKey(userID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(key)
	defer unlock()

	data, err := os.ReadFile(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}

	var embedding []float64
	if err := json.Unmarshal(data, &embedding); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: %s: empty vector", ErrCorrupt, key)
	}
	return embedding, nil
}

func (s *FileStore) Delete(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := NormalizeKey(userID)
	if err != nil {
		return err
	}

	unlock := s.locks.lock(key)
	defer unlock()

	err = os.Remove(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Ping reports whether the directory is still reachable
func (s *FileStore) Ping(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("embedding dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("embedding dir %s is not a directory", s.dir)
	}
	return nil
}
