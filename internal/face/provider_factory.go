package face

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/faceid/internal/config"
	"github.com/saturnino-fabrica-de-software/faceid/internal/provider"
	"github.com/saturnino-fabrica-de-software/faceid/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/faceid/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/faceid/internal/provider/rekognition"
)

// ProviderType defines supported model provider types
type ProviderType string

const (
	// ProviderTypeDeepFace is the DeepFace provider (self-hosted service)
	ProviderTypeDeepFace ProviderType = config.ProviderDeepFace
	// ProviderTypeRekognition is the AWS Rekognition provider (cloud, detection only)
	ProviderTypeRekognition ProviderType = config.ProviderRekognition
	// ProviderTypeMock is the deterministic in-process provider for dev/test
	ProviderTypeMock ProviderType = config.ProviderMock
)

// NewModels builds the Detector and Embedder handles once at startup.
// Callers own the returned Models and must Close it on shutdown.
//
// Environment variables:
//   - DETECTOR_PROVIDER: "deepface", "rekognition" or "mock" (default: "deepface")
//   - EMBEDDER_PROVIDER: "deepface" or "mock" (default: "deepface")
//   - DEEPFACE_URL: DeepFace API URL (default: "http://localhost:5005")
//   - AWS_REGION: AWS region for Rekognition (default: "us-east-1")
//   - AWS_ACCESS_KEY_ID: AWS credentials (via AWS SDK credential chain)
//   - AWS_SECRET_ACCESS_KEY: AWS credentials (via AWS SDK credential chain)
func NewModels(ctx context.Context, cfg *config.Config) (*provider.Models, error) {
	detector, err := NewDetector(ctx, cfg)
	if err != nil {
		return nil, err
	}

	embedder, err := NewEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	return provider.NewModels(detector, embedder), nil
}

// NewDetector creates the coarse face detector selected by configuration
func NewDetector(ctx context.Context, cfg *config.Config) (provider.Detector, error) {
	switch ProviderType(cfg.DetectorProvider) {
	case ProviderTypeDeepFace, "":
		return deepface.NewProvider(deepFaceConfig(cfg, cfg.DeepFaceDetector, false)), nil

	case ProviderTypeRekognition:
		prov, err := rekognition.NewProvider(ctx, rekognition.Config{
			Region:        cfg.AWSRegion,
			MinConfidence: cfg.RekognitionMinConf,
		})
		if err != nil {
			return nil, fmt.Errorf("create rekognition detector: %w", err)
		}
		return prov, nil

	case ProviderTypeMock:
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown detector provider: %s (supported: %s, %s, %s)",
			cfg.DetectorProvider, ProviderTypeDeepFace, ProviderTypeRekognition, ProviderTypeMock)
	}
}

// NewEmbedder creates the recognition model selected by configuration
func NewEmbedder(cfg *config.Config) (provider.Embedder, error) {
	switch ProviderType(cfg.EmbedderProvider) {
	case ProviderTypeDeepFace, "":
		return deepface.NewProvider(deepFaceConfig(cfg, cfg.DeepFaceAlignDetector, true)), nil

	case ProviderTypeMock:
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown embedder provider: %s (supported: %s, %s)",
			cfg.EmbedderProvider, ProviderTypeDeepFace, ProviderTypeMock)
	}
}

// deepFaceConfig fills a DeepFace client config, falling back to defaults for unset fields
func deepFaceConfig(cfg *config.Config, detector string, align bool) deepface.Config {
	dc := deepface.DefaultConfig()
	dc.Align = align

	if cfg.DeepFaceURL != "" {
		dc.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceModel != "" {
		dc.Model = cfg.DeepFaceModel
	}
	if detector != "" {
		dc.Detector = detector
	}
	if cfg.DeepFaceTimeout > 0 {
		dc.Timeout = cfg.DeepFaceTimeout
	}
	if cfg.DeepFaceRetries >= 0 {
		dc.RetryCount = cfg.DeepFaceRetries
	}

	return dc
}
