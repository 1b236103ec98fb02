package provider

import (
	"context"
	"errors"
	"image"
)

// ErrNoFace is returned by an Embedder when the crop holds no usable face.
var ErrNoFace = errors.New("no usable face in image")

// Detector finds coarse face regions in an image
type Detector interface {
	// Detect returns zero or more loose boxes in pixel coordinates.
	// An image without faces yields an empty slice, not an error.
	Detect(ctx context.Context, img image.Image) ([]Detection, error)
}

// Embedder computes identity embeddings with a precise recognition model
type Embedder interface {
	// Embed returns the unit-length embedding of the face in a tight crop,
	// or ErrNoFace when the model finds none.
	Embed(ctx context.Context, crop image.Image) ([]float64, error)

	// DetectAndEmbed runs the model's own detector and returns every face
	// with its embedding, in detection order.
	DetectAndEmbed(ctx context.Context, img image.Image) ([]FaceEmbedding, error)
}

// Detection is a face region reported by a Detector
type Detection struct {
	Box        BoundingBox `json:"bounding_box"`
	Confidence float64     `json:"confidence"`
	Class      string      `json:"class,omitempty"`
}

// FaceEmbedding pairs a detected face with its embedding
type FaceEmbedding struct {
	Box       BoundingBox `json:"bounding_box"`
	Embedding []float64   `json:"-"`
}

// BoundingBox represents the face area in the image, in pixels
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
