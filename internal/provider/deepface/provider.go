package deepface

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/saturnino-fabrica-de-software/faceid/internal/embedding"
	"github.com/saturnino-fabrica-de-software/faceid/internal/provider"
)

const (
	// minFaceArea is the minimum face area (in pixels²) for reliable detection
	minFaceArea = 2500 // 50x50 pixels
	// maxFaceArea is used for confidence scaling
	maxFaceArea = 250000 // 500x500 pixels
)

// Provider implements provider.Detector and provider.Embedder on top of a
// DeepFace API. The configured detector backend decides which role it fits:
// a fast backend (yolov8) for coarse detection, an aligned one (retinaface)
// for embeddings.
type Provider struct {
	client *Client
}

var (
	_ provider.Detector = (*Provider)(nil)
	_ provider.Embedder = (*Provider)(nil)
)

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

// Detect locates faces without computing embeddings
func (p *Provider) Detect(ctx context.Context, img image.Image) ([]provider.Detection, error) {
	payload, err := encodeImage(img)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Analyze(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	detections := make([]provider.Detection, 0, len(resp.Results))
	for _, result := range resp.Results {
		if !found(result.Region, result.FaceConfidence, img.Bounds()) {
			continue
		}

		confidence := result.FaceConfidence
		if confidence == 0 {
			confidence = calculateConfidence(float64(result.Region.W * result.Region.H))
		}

		detections = append(detections, provider.Detection{
			Box:        toBox(result.Region),
			Confidence: confidence,
			Class:      "face",
		})
	}

	return detections, nil
}

// Embed returns the normalized embedding of the first face found in the crop
func (p *Provider) Embed(ctx context.Context, crop image.Image) ([]float64, error) {
	faces, err := p.DetectAndEmbed(ctx, crop)
	if err != nil {
		return nil, err
	}
	if len(faces) == 0 {
		return nil, provider.ErrNoFace
	}
	return faces[0].Embedding, nil
}

// DetectAndEmbed returns every face with its normalized embedding, in the order DeepFace reports them
func (p *Provider) DetectAndEmbed(ctx context.Context, img image.Image) ([]provider.FaceEmbedding, error) {
	payload, err := encodeImage(img)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Represent(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("represent faces: %w", err)
	}

	faces := make([]provider.FaceEmbedding, 0, len(resp.Results))
	for _, result := range resp.Results {
		if !found(result.FacialArea, result.FaceConfidence, img.Bounds()) {
			continue
		}

		normalized, err := embedding.Normalize(result.Embedding)
		if err != nil {
			// A zero embedding carries no identity; skip it like a miss
			continue
		}

		faces = append(faces, provider.FaceEmbedding{
			Box:       toBox(result.FacialArea),
			Embedding: normalized,
		})
	}

	return faces, nil
}

// Close drops idle connections to the DeepFace service
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// found filters the placeholder DeepFace returns with enforce_detection=false:
// the whole frame with zero confidence.
func found(area FacialArea, confidence float64, bounds image.Rectangle) bool {
	if area.W <= 0 || area.H <= 0 {
		return false
	}
	wholeFrame := area.X == 0 && area.Y == 0 && area.W == bounds.Dx() && area.H == bounds.Dy()
	return !(wholeFrame && confidence == 0)
}

func toBox(area FacialArea) provider.BoundingBox {
	return provider.BoundingBox{
		X:      float64(area.X),
		Y:      float64(area.Y),
		Width:  float64(area.W),
		Height: float64(area.H),
	}
}

// encodeImage renders the image as a lossless PNG data URI
func encodeImage(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImageFormat, err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// calculateConfidence estimates confidence based on face area when the
// detector backend does not report one. Larger faces are more reliable.
func calculateConfidence(faceArea float64) float64 {
	if faceArea < minFaceArea {
		return 0.5 // Low confidence for very small faces
	}
	// Scale from 0.7 to 0.99 based on face area
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.7 + (normalized * 0.29)
}
