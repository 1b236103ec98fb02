package provider

import (
	"errors"
	"io"
	"reflect"
	"sync"
)

// Models owns the process-wide detector and embedder handles.
// Build it once at startup, hand it to the pipeline and Close it on shutdown.
type Models struct {
	Detector Detector
	Embedder Embedder

	closers []io.Closer
	once    sync.Once
	err     error
}

// NewModels wires a detector and embedder into a handle set.
// Handles that implement io.Closer are released by Close, each one once.
func NewModels(detector Detector, embedder Embedder) *Models {
	m := &Models{
		Detector: detector,
		Embedder: embedder,
	}

	if c, ok := detector.(io.Closer); ok {
		m.closers = append(m.closers, c)
	}
	if c, ok := embedder.(io.Closer); ok && !sameHandle(detector, embedder) {
		m.closers = append(m.closers, c)
	}

	return m
}

// sameHandle reports whether a and b are the same adapter. Values that cannot
// be compared, such as structs holding slices, are treated as distinct.
func sameHandle(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() || va.Type() != vb.Type() {
		return false
	}
	if !va.Comparable() || !vb.Comparable() {
		return false
	}
	return a == b
}

// Close releases every handle. It is safe to call more than once.
func (m *Models) Close() error {
	m.once.Do(func() {
		var errs []error
		for i := len(m.closers) - 1; i >= 0; i-- {
			if err := m.closers[i].Close(); err != nil {
				errs = append(errs, err)
			}
		}
		m.err = errors.Join(errs...)
	})
	return m.err
}
