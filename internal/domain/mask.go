package domain

import (
	"fmt"
	"strings"
	"time"
)

// MaskKind is the closed set of redaction styles.
type MaskKind string

const (
	MaskBlack   MaskKind = "black"
	MaskBlur    MaskKind = "blur"
	MaskOverlay MaskKind = "overlay"
)

// DefaultMaskType is applied when the request carries no mask_type.
const DefaultMaskType = "black"

// MaskSpec describes the redaction requested for a matched face.
// Overlay is only set for MaskOverlay and names a preloaded image.
type MaskSpec struct {
	Kind    MaskKind
	Overlay string
}

// ParseMaskSpec turns a mask_type value into a MaskSpec. Reserved names map
// to their kind and every other name is an overlay request; whether that
// overlay exists is decided by the renderer.
func ParseMaskSpec(maskType string) (MaskSpec, error) {
	name := strings.ToLower(strings.TrimSpace(maskType))
	if name == "" {
		name = DefaultMaskType
	}

	switch MaskKind(name) {
	case MaskBlack:
		return MaskSpec{Kind: MaskBlack}, nil
	case MaskBlur:
		return MaskSpec{Kind: MaskBlur}, nil
	case MaskOverlay:
		return MaskSpec{}, ErrUnsupportedMaskType.WithError(fmt.Errorf("%q needs an overlay name", name))
	}

	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
			return MaskSpec{}, ErrUnsupportedMaskType.WithError(fmt.Errorf("invalid mask type %q", maskType))
		}
	}

	return MaskSpec{Kind: MaskOverlay, Overlay: name}, nil
}

// String returns the mask_type form of the spec.
func (s MaskSpec) String() string {
	if s.Kind == MaskOverlay {
		return s.Overlay
	}
	return string(s.Kind)
}

// RenderedArtifact is a masked image persisted for the media collaborator.
// It is never modified after creation.
type RenderedArtifact struct {
	Filename   string    `json:"filename"`
	URL        string    `json:"image_url"`
	FaceBox    FaceBox   `json:"face_box"`
	MaskType   string    `json:"mask_type"`
	Similarity float64   `json:"similarity"`
	CreatedAt  time.Time `json:"created_at"`
}

// FaceBox is the pixel region that was redacted, after clipping to the image.
type FaceBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}
