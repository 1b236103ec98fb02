package rekognition

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/faceid/internal/provider"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	// jpegQuality keeps uploads well under maxImageSize for typical photos
	jpegQuality = 92
)

// Provider implements provider.Detector using AWS Rekognition DetectFaces.
// Rekognition does not expose embeddings, so it only serves as the coarse detector.
type Provider struct {
	api           DetectFacesAPI
	minConfidence float64
}

// Ensure Provider implements provider.Detector interface at compile time
var _ provider.Detector = (*Provider)(nil)

// NewProvider creates a Rekognition detector using the default AWS credential chain
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}
	return NewProviderWithAPI(client, cfg), nil
}

// NewProviderWithAPI wires a detector to an existing Rekognition API implementation
func NewProviderWithAPI(api DetectFacesAPI, cfg Config) *Provider {
	return &Provider{
		api:           api,
		minConfidence: cfg.MinConfidence,
	}
}

// Detect returns face boxes in pixel coordinates.
// Returns an empty slice if no faces are detected (not an error).
func (p *Provider) Detect(ctx context.Context, img image.Image) ([]provider.Detection, error) {
	payload, err := encodeJPEG(img)
	if err != nil {
		return nil, err
	}

	output, err := p.api.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: payload,
		},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", parseAPIError(err))
	}

	bounds := img.Bounds()
	detections := make([]provider.Detection, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		if detail.BoundingBox == nil {
			continue
		}

		confidence := float64(aws.ToFloat32(detail.Confidence)) / 100.0 // Rekognition reports 0-100
		if confidence < p.minConfidence {
			continue
		}

		detections = append(detections, provider.Detection{
			Box:        toPixels(detail.BoundingBox, bounds),
			Confidence: confidence,
			Class:      "face",
		})
	}

	return detections, nil
}

// toPixels converts Rekognition's frame ratios to pixel coordinates
func toPixels(box *types.BoundingBox, bounds image.Rectangle) provider.BoundingBox {
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())
	return provider.BoundingBox{
		X:      float64(aws.ToFloat32(box.Left)) * w,
		Y:      float64(aws.ToFloat32(box.Top)) * h,
		Width:  float64(aws.ToFloat32(box.Width)) * w,
		Height: float64(aws.ToFloat32(box.Height)) * h,
	}
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if buf.Len() > maxImageSize {
		return nil, fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, buf.Len(), maxImageSize)
	}
	return buf.Bytes(), nil
}
