// Package images - geometry and pixel utilities shared by the detection
// pipeline.
package images

import (
	"image"

	"github.com/chewxy/math32"
)

// Box is an axis-aligned bounding box in center form. Every field is
// normalized to [0,1] of the frame the box was measured on.
type Box struct {
	// X is the horizontal center.
	X float32 `json:"x" yaml:"x"`
	// Y is the vertical center.
	Y float32 `json:"y" yaml:"y"`
	// W is the width.
	W float32 `json:"w" yaml:"w"`
	// H is the height.
	H float32 `json:"h" yaml:"h"`
}

// Corners returns the box in corner form (x1, y1, x2, y2).
func (b Box) Corners() (float32, float32, float32, float32) {
	return b.X - b.W/2, b.Y - b.H/2, b.X + b.W/2, b.Y + b.H/2
}

// Area returns the normalized area of the box.
func (b Box) Area() float32 {
	return b.W * b.H
}

// Rect converts the box to pixel coordinates on a width x height frame,
// clamped to the frame bounds.
func (b Box) Rect(width, height int) image.Rectangle {
	x1, y1, x2, y2 := b.Corners()
	r := image.Rect(
		int(x1*float32(width)),
		int(y1*float32(height)),
		int(x2*float32(width)),
		int(y2*float32(height)),
	)
	return r.Intersect(image.Rect(0, 0, width, height))
}

// IoU computes the Intersection over Union of two boxes.
//
// Arguments:
// - a: First box.
// - b: Second box.
//
// Returns:
// - float32: Ratio in [0,1]; 0 when the boxes do not intersect.
func IoU(a, b Box) float32 {
	ax1, ay1, ax2, ay2 := a.Corners()
	bx1, by1, bx2, by2 := b.Corners()

	iw := math32.Min(ax2, bx2) - math32.Max(ax1, bx1)
	ih := math32.Min(ay2, by2) - math32.Max(ay1, by1)
	if iw <= 0 || ih <= 0 {
		return 0
	}

	inter := iw * ih
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Overlap computes the fraction of inner covered by outer: intersection
// area divided by the area of inner. Unlike IoU the measure is directional,
// so a box fully contained in the other scores 1 no matter how much larger
// the outer box is.
//
// Arguments:
// - inner: Box whose coverage is measured.
// - outer: Covering box.
//
// Returns:
// - float32: Ratio in [0,1]; 0 when inner has no area.
func Overlap(inner, outer Box) float32 {
	ix1, iy1, ix2, iy2 := inner.Corners()
	ox1, oy1, ox2, oy2 := outer.Corners()

	iw := math32.Min(ix2, ox2) - math32.Max(ix1, ox1)
	ih := math32.Min(iy2, oy2) - math32.Max(iy1, oy1)
	if iw <= 0 || ih <= 0 {
		return 0
	}

	area := inner.Area()
	if area <= 0 {
		return 0
	}
	return iw * ih / area
}

// CenterDistance returns the Euclidean distance between two box centers in
// normalized coordinates.
func CenterDistance(a, b Box) float32 {
	return math32.Hypot(a.X-b.X, a.Y-b.Y)
}
