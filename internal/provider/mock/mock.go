package mock

import (
	"context"
	"crypto/sha256"
	"image"
	"math"

	"github.com/saturnino-fabrica-de-software/faceid/internal/geometry"
	"github.com/saturnino-fabrica-de-software/faceid/internal/provider"
)

const (
	embeddingDimension = 512
	// minSide é o menor lado (px) aceito como rosto
	minSide = 16
	// colorLevels quantiza a cor média para tolerar ruído de recorte
	colorLevels = 16
)

// Provider implementa provider.Detector e provider.Embedder para testes e desenvolvimento
type Provider struct{}

var (
	_ provider.Detector = (*Provider)(nil)
	_ provider.Embedder = (*Provider)(nil)
)

// New cria uma nova instância do MockProvider
func New() *Provider {
	return &Provider{}
}

// Detect simula detecção: um rosto ocupando os 80% centrais da imagem
func (p *Provider) Detect(ctx context.Context, img image.Image) ([]provider.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() < minSide || b.Dy() < minSide {
		return []provider.Detection{}, nil
	}

	return []provider.Detection{
		{
			Box: provider.BoundingBox{
				X:      float64(b.Dx()) * 0.1,
				Y:      float64(b.Dy()) * 0.1,
				Width:  float64(b.Dx()) * 0.8,
				Height: float64(b.Dy()) * 0.8,
			},
			Confidence: 0.99,
			Class:      "face",
		},
	}, nil
}

// Embed gera embedding determinístico baseado na cor média do recorte
func (p *Provider) Embed(ctx context.Context, crop image.Image) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := crop.Bounds()
	if b.Dx() < minSide || b.Dy() < minSide {
		return nil, provider.ErrNoFace
	}

	return generateEmbedding(crop), nil
}

// DetectAndEmbed combina Detect e Embed com o mesmo enquadramento do pipeline de cadastro,
// garantindo que a mesma imagem produza o mesmo embedding nos dois caminhos
func (p *Provider) DetectAndEmbed(ctx context.Context, img image.Image) ([]provider.FaceEmbedding, error) {
	detections, err := p.Detect(ctx, img)
	if err != nil {
		return nil, err
	}

	faces := make([]provider.FaceEmbedding, 0, len(detections))
	for _, d := range detections {
		crop := geometry.Crop(img, geometry.Reconcile(d.Box))
		if crop == nil {
			continue
		}
		emb, err := p.Embed(ctx, crop)
		if err != nil {
			continue
		}
		faces = append(faces, provider.FaceEmbedding{Box: d.Box, Embedding: emb})
	}

	return faces, nil
}

// generateEmbedding gera embedding normalizado a partir do hash da cor média quantizada
func generateEmbedding(crop image.Image) []float64 {
	var seed [3]byte
	mean := meanColor(crop)
	for i, c := range mean {
		seed[i] = byte(c * colorLevels / 65536)
	}

	embedding := make([]float64, embeddingDimension)
	block := sha256.Sum256(seed[:])
	for i := 0; i < embeddingDimension; i++ {
		idx := i % len(block)
		if idx == 0 && i > 0 {
			block = sha256.Sum256(block[:])
		}
		embedding[i] = (float64(block[idx])/255.0)*2 - 1
	}

	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	for i := range embedding {
		embedding[i] /= norm
	}

	return embedding
}

// meanColor retorna a média RGB (escala 0-65535) da região central do recorte
func meanColor(img image.Image) [3]uint64 {
	b := img.Bounds()
	inner := image.Rect(
		b.Min.X+b.Dx()/4, b.Min.Y+b.Dy()/4,
		b.Max.X-b.Dx()/4, b.Max.Y-b.Dy()/4,
	)

	var sum [3]uint64
	var n uint64
	for y := inner.Min.Y; y < inner.Max.Y; y++ {
		for x := inner.Min.X; x < inner.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			sum[0] += uint64(r)
			sum[1] += uint64(g)
			sum[2] += uint64(bl)
			n++
		}
	}
	if n == 0 {
		return sum
	}
	for i := range sum {
		sum[i] /= n
	}
	return sum
}

