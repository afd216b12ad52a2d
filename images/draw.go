package images

import (
	"image"
	"image/color"
	"image/draw"
)

// LabeledBox pairs a pixel rectangle with an outline color.
type LabeledBox struct {
	Rect  image.Rectangle
	Color color.RGBA
}

// Annotate copies img and outlines each box on the copy.
func Annotate(img image.Image, boxes []LabeledBox) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	for _, lb := range boxes {
		DrawBox(out, lb.Rect, lb.Color, 3)
	}
	return out
}

// DrawBox outlines rect on img with the given stroke thickness. Strokes
// grow inward so the outline never spills outside the rectangle.
func DrawBox(img *image.RGBA, rect image.Rectangle, c color.RGBA, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	r := rect.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for t := 0; t < thickness && r.Min.X+t < r.Max.X && r.Min.Y+t < r.Max.Y; t++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, r.Min.Y+t, c)
			img.SetRGBA(x, r.Max.Y-1-t, c)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			img.SetRGBA(r.Min.X+t, y, c)
			img.SetRGBA(r.Max.X-1-t, y, c)
		}
	}
}
