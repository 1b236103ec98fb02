// Package geometry converts detector boxes between framing conventions and
// maps them onto image pixels.
package geometry

import (
	"image"
	"math"
	"sort"

	"golang.org/x/image/draw"

	"github.com/saturnino-fabrica-de-software/faceid/internal/provider"
)

// ScaleFactor widens a loose detector box into the tight framing the
// embedder was calibrated on.
const ScaleFactor = 1.2

// Reconcile scales a loose box by ScaleFactor around its center.
// The origin is floor-clamped at 0 but the far edge is not clipped, so
// callers still bound-check with Rect before cropping.
func Reconcile(loose provider.BoundingBox) provider.BoundingBox {
	cx := loose.X + loose.Width/2
	cy := loose.Y + loose.Height/2
	w := loose.Width * ScaleFactor
	h := loose.Height * ScaleFactor

	return provider.BoundingBox{
		X:      math.Max(0, cx-w/2),
		Y:      math.Max(0, cy-h/2),
		Width:  w,
		Height: h,
	}
}

// Area returns width*height.
func Area(box provider.BoundingBox) float64 {
	return box.Width * box.Height
}

// SortByArea orders detections largest first. Equal areas keep detector order.
func SortByArea(detections []provider.Detection) {
	sort.SliceStable(detections, func(i, j int) bool {
		return Area(detections[i].Box) > Area(detections[j].Box)
	})
}

// Largest returns the detection with the biggest area; ties go to the earliest.
func Largest(detections []provider.Detection) (provider.Detection, bool) {
	if len(detections) == 0 {
		return provider.Detection{}, false
	}
	best := detections[0]
	for _, d := range detections[1:] {
		if Area(d.Box) > Area(best.Box) {
			best = d
		}
	}
	return best, true
}

// Rect truncates a box to integer pixels relative to bounds.Min and clips it
// to bounds. The result may be empty.
func Rect(box provider.BoundingBox, bounds image.Rectangle) image.Rectangle {
	x0 := int(box.X)
	y0 := int(box.Y)
	x1 := int(box.X + box.Width)
	y1 := int(box.Y + box.Height)

	r := image.Rect(x0, y0, x1, y1).Add(bounds.Min)
	return r.Intersect(bounds)
}

// Crop returns the pixels of img under box, or nil when the box misses the
// image entirely. Sub-image capable images share pixel memory with img.
func Crop(img image.Image, box provider.BoundingBox) image.Image {
	r := Rect(box, img.Bounds())
	if r.Empty() {
		return nil
	}
	if sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(r)
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}
