package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store backends
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Model providers
const (
	ProviderDeepFace    = "deepface"
	ProviderRekognition = "rekognition"
	ProviderMock        = "mock"
)

type Config struct {
	// Server
	Port         int           `envconfig:"PORT" default:"3000"`
	Environment  string        `envconfig:"ENV" default:"development"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"60s"`
	CORSOrigins  string        `envconfig:"CORS_ORIGINS" default:"*"`

	// Embedding store
	StoreBackend string `envconfig:"STORE_BACKEND" default:"file"`
	EmbeddingDir string `envconfig:"EMBEDDING_DIR" default:"./embeddings"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`

	// Models
	DetectorProvider      string        `envconfig:"DETECTOR_PROVIDER" default:"deepface"`
	EmbedderProvider      string        `envconfig:"EMBEDDER_PROVIDER" default:"deepface"`
	DeepFaceURL           string        `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceModel         string        `envconfig:"DEEPFACE_MODEL" default:"ArcFace"`
	DeepFaceDetector      string        `envconfig:"DEEPFACE_DETECTOR" default:"yolov8"`
	DeepFaceAlignDetector string        `envconfig:"DEEPFACE_ALIGN_DETECTOR" default:"retinaface"`
	DeepFaceTimeout       time.Duration `envconfig:"DEEPFACE_TIMEOUT" default:"30s"`
	DeepFaceRetries       int           `envconfig:"DEEPFACE_RETRIES" default:"3"`
	AWSRegion             string        `envconfig:"AWS_REGION" default:"us-east-1"`
	RekognitionMinConf    float64       `envconfig:"REKOGNITION_MIN_CONFIDENCE" default:"0.9"`

	// Rendering
	MediaDir        string  `envconfig:"MEDIA_DIR" default:"./media"`
	MediaURLPrefix  string  `envconfig:"MEDIA_URL_PREFIX" default:"/media/"`
	OverlayDir      string  `envconfig:"OVERLAY_DIR" default:"./emojis"`
	OverlayManifest string  `envconfig:"OVERLAY_MANIFEST"`
	BlurSigma       float64 `envconfig:"BLUR_SIGMA" default:"30"`

	// Limits
	MaxImageSize    int64         `envconfig:"MAX_IMAGE_SIZE" default:"10485760"`
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"60"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// Audit
	AuditEnabled bool `envconfig:"AUDIT_ENABLED" default:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreFile:
		if c.EmbeddingDir == "" {
			return fmt.Errorf("EMBEDDING_DIR is required for the %s store", StoreFile)
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s store", StorePostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (supported: %s, %s)", c.StoreBackend, StoreFile, StorePostgres)
	}

	switch c.DetectorProvider {
	case ProviderDeepFace, ProviderRekognition, ProviderMock:
	default:
		return fmt.Errorf("unknown DETECTOR_PROVIDER %q", c.DetectorProvider)
	}

	switch c.EmbedderProvider {
	case ProviderDeepFace, ProviderMock:
	default:
		return fmt.Errorf("unknown EMBEDDER_PROVIDER %q", c.EmbedderProvider)
	}

	if c.BlurSigma <= 0 {
		return fmt.Errorf("BLUR_SIGMA must be positive, got %v", c.BlurSigma)
	}
	if c.MaxImageSize <= 0 {
		return fmt.Errorf("MAX_IMAGE_SIZE must be positive, got %d", c.MaxImageSize)
	}
	if c.RateLimitMax < 0 {
		return fmt.Errorf("RATE_LIMIT_MAX must not be negative, got %d", c.RateLimitMax)
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
