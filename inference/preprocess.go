package inference

import (
	"fmt"
	"image"
	"math"

	"github.com/nfnt/resize"

	"github.com/lastchair/go-vision/images"
)

// DefaultTargetSize is the square model input size used when none is
// configured.
const DefaultTargetSize = 640

// PreprocessError reports a source frame that could not be turned into a
// model input.
type PreprocessError struct {
	// Reason describes what made the frame unusable.
	Reason string
	// Err is the underlying cause, when there is one.
	Err error
}

func (e *PreprocessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("preprocess: %s: %v", e.Reason, e.Err)
	}
	return "preprocess: " + e.Reason
}

func (e *PreprocessError) Unwrap() error {
	return e.Err
}

// Meta records how a frame was letterboxed so detections can be mapped back
// onto the original image.
type Meta struct {
	// OrigWidth and OrigHeight are the source frame dimensions in pixels.
	OrigWidth  int `json:"origWidth"`
	OrigHeight int `json:"origHeight"`
	// TargetSize is the square canvas the frame was letterboxed onto.
	TargetSize int `json:"targetSize"`
	// Scale is the uniform factor the frame was resized by.
	Scale float64 `json:"scale"`
	// PadX and PadY are the letterbox offsets in canvas pixels.
	PadX int `json:"padX"`
	PadY int `json:"padY"`
}

// Unletterbox maps a box normalized to the letterboxed canvas back onto the
// original frame, clamped to [0,1].
//
// Arguments:
// - b: Box in canvas coordinates, normalized.
//
// Returns:
// - images.Box: The same region in original-frame coordinates, normalized.
func (m *Meta) Unletterbox(b images.Box) images.Box {
	t := float64(m.TargetSize)
	ow := float64(m.OrigWidth)
	oh := float64(m.OrigHeight)

	// Canvas-normalized -> original-frame pixels.
	cx := (float64(b.X)*t - float64(m.PadX)) / m.Scale
	cy := (float64(b.Y)*t - float64(m.PadY)) / m.Scale
	w := float64(b.W) * t / m.Scale
	h := float64(b.H) * t / m.Scale

	// Clamp in corner form so partial off-frame boxes keep their visible part.
	x1 := clamp01((cx - w/2) / ow)
	y1 := clamp01((cy - h/2) / oh)
	x2 := clamp01((cx + w/2) / ow)
	y2 := clamp01((cy + h/2) / oh)

	return images.Box{
		X: float32((x1 + x2) / 2),
		Y: float32((y1 + y2) / 2),
		W: float32(x2 - x1),
		H: float32(y2 - y1),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Preprocessor turns camera frames into letterboxed CHW model input.
type Preprocessor struct {
	targetSize int
}

// NewPreprocessor creates a preprocessor producing targetSize x targetSize
// input; 0 selects DefaultTargetSize.
func NewPreprocessor(targetSize int) *Preprocessor {
	if targetSize <= 0 {
		targetSize = DefaultTargetSize
	}
	return &Preprocessor{targetSize: targetSize}
}

// TargetSize returns the configured square input size.
func (p *Preprocessor) TargetSize() int {
	return p.targetSize
}

// Process converts a frame into a [1, 3, T, T] float32 tensor.
//
// The frame is scaled by min(T/w, T/h) with Lanczos3 so the aspect ratio is
// preserved, centered on the canvas, and the letterbox border stays zero in
// all three channels. Pixels are normalized to [0,1] and laid out CHW.
//
// Arguments:
// - img: Source frame.
//
// Returns:
// - *Tensor: Model-ready input.
// - *Meta: The letterbox mapping for this frame.
// - error: *PreprocessError when the frame is nil or has no pixels.
func (p *Preprocessor) Process(img image.Image) (*Tensor, *Meta, error) {
	if img == nil {
		return nil, nil, &PreprocessError{Reason: "nil source image"}
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 1 || h < 1 {
		return nil, nil, &PreprocessError{Reason: fmt.Sprintf("source image has no pixels (%dx%d)", w, h)}
	}

	t := p.targetSize
	scale := math.Min(float64(t)/float64(w), float64(t)/float64(h))
	newW := int(math.Round(float64(w) * scale))
	newH := int(math.Round(float64(h) * scale))
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	padX := (t - newW) / 2
	padY := (t - newH) / 2

	scaled := resize.Resize(uint(newW), uint(newH), img, resize.Lanczos3)
	sb := scaled.Bounds()

	// The buffer starts zeroed, which is exactly the letterbox fill.
	hwc := make([]float32, t*t*3)
	for y := 0; y < newH; y++ {
		for x := 0; x < newW; x++ {
			r, g, b, _ := scaled.At(sb.Min.X+x, sb.Min.Y+y).RGBA()
			base := ((y+padY)*t + (x + padX)) * 3
			hwc[base] = float32(r>>8) / 255.0
			hwc[base+1] = float32(g>>8) / 255.0
			hwc[base+2] = float32(b>>8) / 255.0
		}
	}

	tensor, err := NewTensor([]int64{1, 3, int64(t), int64(t)}, HWCToCHW(hwc, t, t))
	if err != nil {
		return nil, nil, &PreprocessError{Reason: "assemble input tensor", Err: err}
	}
	meta := &Meta{
		OrigWidth:  w,
		OrigHeight: h,
		TargetSize: t,
		Scale:      scale,
		PadX:       padX,
		PadY:       padY,
	}
	return tensor, meta, nil
}
