// Package store persists one reference embedding per enrolled identity.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no reference exists for the identity
	ErrNotFound = errors.New("reference embedding not found")
	// ErrInvalidKey is returned for identities that cannot be used as storage keys
	ErrInvalidKey = errors.New("invalid identity key")
	// ErrCorrupt is returned when a stored reference cannot be decoded
	ErrCorrupt = errors.New("stored reference is corrupt")
)

// Store is the embedding store contract shared by every backend.
// Save replaces any existing reference atomically; readers never observe a partial write.
type Store interface {
	Save(ctx context.Context, userID string, embedding []float64) (location string, err error)
	Load(ctx context.Context, userID string) ([]float64, error)
	Delete(ctx context.Context, userID string) error
	// Ping reports whether the backend is reachable
	Ping(ctx context.Context) error
}
