package mock

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/saturnino-fabrica-de-software/faceid/internal/embedding"
	"github.com/saturnino-fabrica-de-software/faceid/internal/geometry"
	"github.com/saturnino-fabrica-de-software/faceid/internal/provider"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestProvider_Detect(t *testing.T) {
	p := New()
	ctx := context.Background()

	tests := []struct {
		name      string
		image     image.Image
		wantFaces int
	}{
		{
			name:      "valid image",
			image:     solid(100, 80, color.White),
			wantFaces: 1,
		},
		{
			name:      "image too small",
			image:     solid(8, 8, color.White),
			wantFaces: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faces, err := p.Detect(ctx, tt.image)
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if len(faces) != tt.wantFaces {
				t.Errorf("Detect() got %d faces, want %d", len(faces), tt.wantFaces)
			}
		})
	}
}

func TestProvider_Detect_CentralBox(t *testing.T) {
	faces, _ := New().Detect(context.Background(), solid(100, 50, color.White))

	want := provider.BoundingBox{X: 10, Y: 5, Width: 80, Height: 40}
	if faces[0].Box != want {
		t.Errorf("Detect() box = %+v, want %+v", faces[0].Box, want)
	}
}

func TestProvider_Embed(t *testing.T) {
	p := New()
	ctx := context.Background()

	emb, err := p.Embed(ctx, solid(64, 64, color.RGBA{R: 200, G: 120, B: 90, A: 255}))
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	if len(emb) != embeddingDimension {
		t.Errorf("Embed() embedding length = %d, want %d", len(emb), embeddingDimension)
	}

	var norm float64
	for _, v := range emb {
		norm += v * v
	}
	if norm < 0.99 || norm > 1.01 {
		t.Errorf("Embed() embedding not normalized, norm = %f", norm)
	}

	if _, err := p.Embed(ctx, solid(4, 4, color.White)); !errors.Is(err, provider.ErrNoFace) {
		t.Errorf("Embed() tiny crop error = %v, want ErrNoFace", err)
	}
}

func TestProvider_Embed_Deterministic(t *testing.T) {
	p := New()
	ctx := context.Background()

	img := solid(64, 64, color.RGBA{R: 10, G: 200, B: 30, A: 255})

	emb1, _ := p.Embed(ctx, img)
	emb2, _ := p.Embed(ctx, img)

	for i := range emb1 {
		if emb1[i] != emb2[i] {
			t.Error("Embed() should be deterministic for same input")
			break
		}
	}
}

func TestProvider_Embed_DistinctColors(t *testing.T) {
	p := New()
	ctx := context.Background()

	a, _ := p.Embed(ctx, solid(64, 64, color.RGBA{R: 250, A: 255}))
	b, _ := p.Embed(ctx, solid(64, 64, color.RGBA{B: 250, A: 255}))

	same, err := embedding.CosineSimilarity(a, a)
	if err != nil {
		t.Fatalf("CosineSimilarity() error = %v", err)
	}
	diff, _ := embedding.CosineSimilarity(a, b)
	if diff >= same {
		t.Errorf("different colors should have lower similarity, got %f >= %f", diff, same)
	}
}

func TestProvider_DetectAndEmbed_MatchesEnrollmentCrop(t *testing.T) {
	p := New()
	ctx := context.Background()
	img := solid(120, 90, color.RGBA{R: 90, G: 60, B: 40, A: 255})

	faces, err := p.DetectAndEmbed(ctx, img)
	if err != nil {
		t.Fatalf("DetectAndEmbed() error = %v", err)
	}
	if len(faces) != 1 {
		t.Fatalf("DetectAndEmbed() got %d faces, want 1", len(faces))
	}

	detections, _ := p.Detect(ctx, img)
	crop := geometry.Crop(img, geometry.Reconcile(detections[0].Box))
	enrolled, _ := p.Embed(ctx, crop)

	sim, _ := embedding.CosineSimilarity(enrolled, faces[0].Embedding)
	if sim < 0.9999 {
		t.Errorf("same image should embed identically on both paths, similarity = %f", sim)
	}
}

func TestProvider_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New().Detect(ctx, solid(64, 64, color.White)); !errors.Is(err, context.Canceled) {
		t.Errorf("Detect() error = %v, want context.Canceled", err)
	}
}
