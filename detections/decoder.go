package detections

import (
	"errors"
	"fmt"

	"gorgonia.org/tensor"

	"github.com/lastchair/go-vision/images"
	"github.com/lastchair/go-vision/inference"
)

// OutputLayout declares how a model lays out its raw detection output. The
// two layouts hold identical numbers; reading one as the other produces
// garbage coordinates that rarely clear a confidence threshold, so a
// transposed read fails silently with zero detections. The layout is
// therefore an explicit tag, never inferred from the data.
type OutputLayout string

const (
	// LayoutFeatureMajor is [1, features, anchors]: feature plane f occupies
	// data[f*N : (f+1)*N]. This is what the YOLOv8 family emits.
	LayoutFeatureMajor OutputLayout = "feature-major"
	// LayoutAnchorMajor is [1, anchors, features]: anchor i occupies
	// data[i*F : (i+1)*F].
	LayoutAnchorMajor OutputLayout = "anchor-major"
)

// ErrUnexpectedOutputShape reports an engine output whose shape does not
// match the decoder configuration.
var ErrUnexpectedOutputShape = errors.New("unexpected output shape")

// Decoder defaults.
const (
	DefaultClassCount = 80
	// DefaultMinBoxSize rejects degenerate boxes; both sides must exceed it.
	DefaultMinBoxSize float32 = 0.02
)

// DecoderConfig describes the output head of the model being decoded.
type DecoderConfig struct {
	// ClassCount is the number of class score features; 0 selects
	// DefaultClassCount.
	ClassCount int `json:"classCount" yaml:"classCount"`
	// Layout tags the output memory order; empty selects LayoutFeatureMajor.
	Layout OutputLayout `json:"layout" yaml:"layout"`
	// UseObjectnessGate expects an objectness plane between the box and the
	// class scores and multiplies it into the confidence. Architectures
	// that fold objectness into their class scores leave this off.
	UseObjectnessGate bool `json:"useObjectnessGate" yaml:"useObjectnessGate"`
	// MinBoxSize is the degenerate-box cutoff; 0 selects DefaultMinBoxSize.
	MinBoxSize float32 `json:"minBoxSize" yaml:"minBoxSize"`
}

// Decoder turns raw model output into detections.
type Decoder struct {
	cfg DecoderConfig
}

// NewDecoder creates a decoder, filling zero-value config fields with
// defaults.
func NewDecoder(cfg DecoderConfig) *Decoder {
	if cfg.ClassCount <= 0 {
		cfg.ClassCount = DefaultClassCount
	}
	if cfg.Layout == "" {
		cfg.Layout = LayoutFeatureMajor
	}
	if cfg.MinBoxSize <= 0 {
		cfg.MinBoxSize = DefaultMinBoxSize
	}
	return &Decoder{cfg: cfg}
}

// Features returns the per-anchor feature count the decoder expects: four
// box values, the optional objectness score, and one score per class.
func (d *Decoder) Features() int {
	n := 4 + d.cfg.ClassCount
	if d.cfg.UseObjectnessGate {
		n++
	}
	return n
}

// DecodeClass decodes detections of a single class.
//
// Arguments:
// - out: Raw engine output.
// - threshold: Minimum confidence to keep an anchor. Always caller-supplied.
// - classID: The only class to keep.
//
// Returns:
// - []Detection: Matching detections, unsorted and un-suppressed.
// - error: See Decode.
func (d *Decoder) DecodeClass(out *inference.Tensor, threshold float32, classID int) ([]Detection, error) {
	sets, err := d.Decode(out, threshold, classID)
	if err != nil {
		return nil, err
	}
	return sets[classID], nil
}

// Decode decodes detections for the requested classes in one pass over the
// output.
//
// Per anchor: argmax over the class scores picks the best class, the
// confidence is that score (multiplied by the objectness score when the
// gate is on), and the anchor survives only if the confidence meets the
// threshold and both box sides exceed the degenerate-box cutoff. Box
// values are normalized center form and pass through unchanged.
//
// Arguments:
// - out: Raw engine output.
// - threshold: Minimum confidence to keep an anchor. Always caller-supplied.
// - classIDs: Classes to keep; empty keeps every class.
//
// Returns:
// - map[int][]Detection: Detections grouped by class id.
// - error: An error wrapping ErrUnexpectedOutputShape, with an empty map,
//   when the output does not match the configured head. Decoding is
//   best-effort per frame; a bad shape must not take the round down.
func (d *Decoder) Decode(out *inference.Tensor, threshold float32, classIDs ...int) (map[int][]Detection, error) {
	data, anchors, err := d.planarView(out)
	if err != nil {
		return map[int][]Detection{}, err
	}

	var want map[int]bool
	if len(classIDs) > 0 {
		want = make(map[int]bool, len(classIDs))
		for _, id := range classIDs {
			want[id] = true
		}
	}

	classBase := 4
	if d.cfg.UseObjectnessGate {
		classBase = 5
	}

	results := make(map[int][]Detection)
	for i := 0; i < anchors; i++ {
		bestClass := -1
		bestScore := float32(0)
		for k := 0; k < d.cfg.ClassCount; k++ {
			if score := data[(classBase+k)*anchors+i]; score > bestScore {
				bestScore = score
				bestClass = k
			}
		}
		if bestClass < 0 {
			continue
		}
		if want != nil && !want[bestClass] {
			continue
		}

		confidence := bestScore
		if d.cfg.UseObjectnessGate {
			confidence *= data[4*anchors+i]
		}
		if confidence < threshold {
			continue
		}

		w := data[2*anchors+i]
		h := data[3*anchors+i]
		if w <= d.cfg.MinBoxSize || h <= d.cfg.MinBoxSize {
			continue
		}

		results[bestClass] = append(results[bestClass], Detection{
			ClassID:    bestClass,
			Confidence: confidence,
			Box: images.Box{
				X: data[i],
				Y: data[anchors+i],
				W: w,
				H: h,
			},
		})
	}
	return results, nil
}

// planarView validates the output shape against the configured head and
// returns feature-major data plus the anchor count. Anchor-major input is
// transposed on a copy; the engine's buffer is never touched.
func (d *Decoder) planarView(out *inference.Tensor) ([]float32, int, error) {
	features := int64(d.Features())
	if out == nil || len(out.Shape) != 3 || out.Shape[0] != 1 {
		return nil, 0, fmt.Errorf("%w: got %v, want rank-3 with leading batch of 1", ErrUnexpectedOutputShape, tensorShape(out))
	}

	switch d.cfg.Layout {
	case LayoutAnchorMajor:
		if out.Shape[2] != features {
			return nil, 0, fmt.Errorf("%w: got %v, want [1 N %d]", ErrUnexpectedOutputShape, out.Shape, features)
		}
		anchors := int(out.Shape[1])
		planar, err := transposeToFeatureMajor(out.Data, anchors, int(features))
		if err != nil {
			return nil, 0, fmt.Errorf("transpose anchor-major output: %w", err)
		}
		return planar, anchors, nil
	default:
		if out.Shape[1] != features {
			return nil, 0, fmt.Errorf("%w: got %v, want [1 %d N]", ErrUnexpectedOutputShape, out.Shape, features)
		}
		return out.Data, int(out.Shape[2]), nil
	}
}

// transposeToFeatureMajor rewrites [anchors, features] data into
// [features, anchors] order.
func transposeToFeatureMajor(data []float32, anchors, features int) ([]float32, error) {
	backing := make([]float32, len(data))
	copy(backing, data)

	dense := tensor.New(tensor.WithShape(anchors, features), tensor.WithBacking(backing))
	if err := dense.T(); err != nil {
		return nil, err
	}
	if err := dense.Transpose(); err != nil {
		return nil, err
	}

	planar, ok := dense.Data().([]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected backing type %T", dense.Data())
	}
	return planar, nil
}

// tensorShape is a nil-safe shape accessor for error messages.
func tensorShape(t *inference.Tensor) []int64 {
	if t == nil {
		return nil
	}
	return t.Shape
}
