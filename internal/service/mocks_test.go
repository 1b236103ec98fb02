package service

import (
	"context"
	"image"

	"github.com/stretchr/testify/mock"

	"github.com/saturnino-fabrica-de-software/faceid/internal/audit"
	"github.com/saturnino-fabrica-de-software/faceid/internal/provider"
)

type MockDetector struct {
	mock.Mock
}

func (m *MockDetector) Detect(ctx context.Context, img image.Image) ([]provider.Detection, error) {
	args := m.Called(ctx, img)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.Detection), args.Error(1)
}

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, crop image.Image) ([]float64, error) {
	args := m.Called(ctx, crop)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float64), args.Error(1)
}

func (m *MockEmbedder) DetectAndEmbed(ctx context.Context, img image.Image) ([]provider.FaceEmbedding, error) {
	args := m.Called(ctx, img)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.FaceEmbedding), args.Error(1)
}

type MockEmbeddingStore struct {
	mock.Mock
}

func (m *MockEmbeddingStore) Save(ctx context.Context, userID string, embedding []float64) (string, error) {
	args := m.Called(ctx, userID, embedding)
	return args.String(0), args.Error(1)
}

func (m *MockEmbeddingStore) Load(ctx context.Context, userID string) ([]float64, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float64), args.Error(1)
}

func (m *MockEmbeddingStore) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockMediaWriter struct {
	mock.Mock
}

func (m *MockMediaWriter) Write(ctx context.Context, name string, data []byte) (string, error) {
	args := m.Called(ctx, name, data)
	return args.String(0), args.Error(1)
}

type MockAuditLogger struct {
	mock.Mock
}

func (m *MockAuditLogger) Log(ctx context.Context, event audit.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
