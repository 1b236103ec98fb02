package render

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/saturnino-fabrica-de-software/faceid/internal/domain"
)

// DefaultBlurSigma is the Gaussian sigma of the blur mask
const DefaultBlurSigma = 30.0

var (
	// ErrUnsupportedMask is returned for mask kinds or overlays the masker cannot paint
	ErrUnsupportedMask = errors.New("unsupported mask")
	// ErrEmptyRegion is returned when the region does not intersect the canvas
	ErrEmptyRegion = errors.New("mask region outside image")
)

// Masker paints redaction masks. It is safe for concurrent use since overlays are read-only.
type Masker struct {
	overlays  *OverlaySet
	blurSigma float64
}

func NewMasker(overlays *OverlaySet, blurSigma float64) *Masker {
	if blurSigma <= 0 {
		blurSigma = DefaultBlurSigma
	}
	return &Masker{overlays: overlays, blurSigma: blurSigma}
}

// Supports reports whether Apply can render spec, so callers can reject a
// request before spending any inference on it.
func (m *Masker) Supports(spec domain.MaskSpec) bool {
	switch spec.Kind {
	case domain.MaskBlack, domain.MaskBlur:
		return true
	case domain.MaskOverlay:
		return m.overlays.Has(spec.Overlay)
	default:
		return false
	}
}

// Overlays lists the overlay names this masker can paint
func (m *Masker) Overlays() []string {
	return m.overlays.Names()
}

// Apply paints spec over region of canvas and returns the region actually
// painted (clipped to the canvas). Pixels outside it are never written.
func (m *Masker) Apply(canvas *image.RGBA, region image.Rectangle, spec domain.MaskSpec) (image.Rectangle, error) {
	region = region.Intersect(canvas.Bounds())
	if region.Empty() {
		return image.Rectangle{}, ErrEmptyRegion
	}

	switch spec.Kind {
	case domain.MaskBlack:
		draw.Draw(canvas, region, image.Black, image.Point{}, draw.Src)

	case domain.MaskBlur:
		blurred := imaging.Blur(imaging.Crop(canvas, region), m.blurSigma)
		draw.Draw(canvas, region, blurred, image.Point{}, draw.Src)

	case domain.MaskOverlay:
		overlay, ok := m.overlays.Get(spec.Overlay)
		if !ok {
			return image.Rectangle{}, fmt.Errorf("%w: overlay %q not loaded", ErrUnsupportedMask, spec.Overlay)
		}
		// Transparent overlay pixels land on black so the face never shows through
		patch := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
		draw.Draw(patch, patch.Bounds(), image.Black, image.Point{}, draw.Src)
		draw.CatmullRom.Scale(patch, patch.Bounds(), overlay, overlay.Bounds(), draw.Over, nil)
		draw.Draw(canvas, region, patch, image.Point{}, draw.Src)

	default:
		return image.Rectangle{}, fmt.Errorf("%w: kind %q", ErrUnsupportedMask, spec.Kind)
	}

	return region, nil
}
