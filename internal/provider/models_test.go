package provider

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

type closingHandle struct {
	closed int
	err    error
}

func (h *closingHandle) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	return nil, nil
}

func (h *closingHandle) Embed(ctx context.Context, crop image.Image) ([]float64, error) {
	return nil, ErrNoFace
}

func (h *closingHandle) DetectAndEmbed(ctx context.Context, img image.Image) ([]FaceEmbedding, error) {
	return nil, nil
}

func (h *closingHandle) Close() error {
	h.closed++
	return h.err
}

type plainDetector struct{}

func (plainDetector) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	return nil, nil
}

func TestModels_CloseReleasesEachHandleOnce(t *testing.T) {
	shared := &closingHandle{}
	m := NewModels(shared, shared)

	assert.NoError(t, m.Close())
	assert.NoError(t, m.Close())
	assert.Equal(t, 1, shared.closed)
}

func TestModels_CloseJoinsErrors(t *testing.T) {
	det := &closingHandle{err: errors.New("detector busy")}
	emb := &closingHandle{err: errors.New("embedder busy")}
	m := NewModels(det, emb)

	err := m.Close()
	assert.ErrorContains(t, err, "detector busy")
	assert.ErrorContains(t, err, "embedder busy")
	assert.Equal(t, 1, det.closed)
	assert.Equal(t, 1, emb.closed)
}

func TestModels_SkipsHandlesWithoutClose(t *testing.T) {
	emb := &closingHandle{}
	m := NewModels(plainDetector{}, emb)

	assert.NoError(t, m.Close())
	assert.Equal(t, 1, emb.closed)
}

// sliceHandle is a value type that cannot be used as a map key or compared
type sliceHandle struct {
	labels []string
	closed *int
}

func (h sliceHandle) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	return nil, nil
}

func (h sliceHandle) Embed(ctx context.Context, crop image.Image) ([]float64, error) {
	return nil, ErrNoFace
}

func (h sliceHandle) DetectAndEmbed(ctx context.Context, img image.Image) ([]FaceEmbedding, error) {
	return nil, nil
}

func (h sliceHandle) Close() error {
	*h.closed++
	return nil
}

func TestModels_NonComparableHandles(t *testing.T) {
	closed := 0
	h := sliceHandle{labels: []string{"face"}, closed: &closed}

	var m *Models
	assert.NotPanics(t, func() { m = NewModels(h, h) })
	assert.NoError(t, m.Close())
	assert.Equal(t, 2, closed)
}

func TestSameHandle(t *testing.T) {
	a, b := &closingHandle{}, &closingHandle{}
	closed := 0

	assert.True(t, sameHandle(a, a))
	assert.False(t, sameHandle(a, b))
	assert.False(t, sameHandle(a, plainDetector{}))
	assert.True(t, sameHandle(plainDetector{}, plainDetector{}))
	assert.False(t, sameHandle(sliceHandle{closed: &closed}, sliceHandle{closed: &closed}))
	assert.False(t, sameHandle(nil, a))
}
