package winner

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastchair/go-vision/detections"
	"github.com/lastchair/go-vision/images"
	"github.com/lastchair/go-vision/inference"
)

// scriptedCamera replays a fixed list of capture outcomes, then nothing.
type scriptedCamera struct {
	steps []captureStep
	calls int
	// onCapture, when set, runs before each capture returns.
	onCapture func()
}

type captureStep struct {
	frame image.Image
	err   error
}

func (c *scriptedCamera) Capture(ctx context.Context) (image.Image, error) {
	if c.onCapture != nil {
		c.onCapture()
	}
	i := c.calls
	c.calls++
	if i >= len(c.steps) {
		return nil, nil
	}
	return c.steps[i].frame, c.steps[i].err
}

// scriptedEngine replays one output per call, repeating the last step once
// the script runs out.
type scriptedEngine struct {
	steps []runStep
	calls int
}

type runStep struct {
	out *inference.Tensor
	err error
}

func (e *scriptedEngine) Run(ctx context.Context, in *inference.Tensor) (*inference.Tensor, error) {
	i := e.calls
	e.calls++
	if i >= len(e.steps) {
		i = len(e.steps) - 1
	}
	return e.steps[i].out, e.steps[i].err
}

func (e *scriptedEngine) Close() error { return nil }

// detCell is one synthetic anchor in a fake model output.
type detCell struct {
	anchor  int
	classID int
	score   float32
	box     images.Box
}

// modelOutput builds a raw feature-major output for the default decoder.
func modelOutput(t *testing.T, cells ...detCell) *inference.Tensor {
	t.Helper()

	const anchors, features = 100, 84
	data := make([]float32, features*anchors)
	for _, c := range cells {
		data[0*anchors+c.anchor] = c.box.X
		data[1*anchors+c.anchor] = c.box.Y
		data[2*anchors+c.anchor] = c.box.W
		data[3*anchors+c.anchor] = c.box.H
		data[(4+c.classID)*anchors+c.anchor] = c.score
	}
	out, err := inference.NewTensor([]int64{1, features, anchors}, data)
	require.NoError(t, err, "fixture output should assemble")
	return out
}

func testFrame() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 30, G: 60, B: 90, A: 255})
		}
	}
	return img
}

// winningOutput places a person mid-frame with a chair under them. The
// boxes are in canvas coordinates for a 200x100 frame letterboxed onto a
// square canvas, and map back to frame boxes (0.5,0.5,0.5,0.5) and
// (0.5,0.6,0.55,0.5).
func winningOutput(t *testing.T) *inference.Tensor {
	return modelOutput(t,
		detCell{anchor: 0, classID: detections.ClassPerson, score: 0.9, box: images.Box{X: 0.5, Y: 0.5, W: 0.5, H: 0.25}},
		detCell{anchor: 1, classID: detections.ClassChair, score: 0.8, box: images.Box{X: 0.5, Y: 0.55, W: 0.55, H: 0.25}},
	)
}

// chairOnlyOutput has a chair but nobody sitting on it.
func chairOnlyOutput(t *testing.T) *inference.Tensor {
	return modelOutput(t,
		detCell{anchor: 1, classID: detections.ClassChair, score: 0.8, box: images.Box{X: 0.5, Y: 0.55, W: 0.55, H: 0.25}},
	)
}

func emptyOutput(t *testing.T) *inference.Tensor {
	return modelOutput(t)
}

func fastConfig() Config {
	return Config{ConfidenceThreshold: 0.5, AttemptDelay: time.Millisecond}
}

func TestNewSessionValidation(t *testing.T) {
	cam := &scriptedCamera{}
	eng := &scriptedEngine{steps: []runStep{{}}}

	_, err := NewSession(nil, cam, fastConfig())
	assert.Error(t, err, "a session needs an engine")

	_, err = NewSession(eng, nil, fastConfig())
	assert.Error(t, err, "a session needs a camera")

	_, err = NewSession(eng, cam, Config{})
	assert.Error(t, err, "the confidence threshold has no default and must be set")

	_, err = NewSession(eng, cam, Config{ConfidenceThreshold: 1.2})
	assert.Error(t, err, "a confidence threshold above one can never match")

	_, err = NewSession(eng, cam, fastConfig())
	assert.NoError(t, err, "a complete configuration should construct")
}

func TestRunFindsWinnerFirstAttempt(t *testing.T) {
	frame := testFrame()
	cam := &scriptedCamera{steps: []captureStep{{frame: frame}}}
	eng := &scriptedEngine{steps: []runStep{{out: winningOutput(t)}}}

	s, err := NewSession(eng, cam, fastConfig())
	require.NoError(t, err, "session should construct")

	res := s.Run(context.Background())
	require.NotNil(t, res, "a round always produces a result")

	assert.True(t, res.Success, "the seated person should be found")
	assert.Equal(t, 1, res.Attempts, "the first attempt should already succeed")
	assert.InDelta(t, 0.9, res.Confidence, 1e-6, "confidence should come from the person detection")
	assert.Same(t, image.Image(frame), res.FullImage, "the winning frame should be returned whole")
	assert.Equal(t, 1, s.LastChairCount(), "the chair should be counted")

	// The person occupies the frame center at 100x50 pixels; with 20%
	// padding on each side the crop grows to 140x70.
	require.NotNil(t, res.WinnerImage, "a success carries the winner crop")
	assert.Equal(t, 140, res.WinnerImage.Bounds().Dx(), "crop width should include the padding")
	assert.Equal(t, 70, res.WinnerImage.Bounds().Dy(), "crop height should include the padding")

	// The canvas boxes map back onto the frame before matching.
	require.NotNil(t, res.Match, "a success carries the winning pair")
	assert.InDelta(t, 0.5, res.Match.Person.Box.X, 1e-5, "person box should be in frame coordinates")
	assert.InDelta(t, 0.5, res.Match.Person.Box.H, 1e-5, "person box should be un-letterboxed")
	assert.InDelta(t, 0.6, res.Match.Chair.Box.Y, 1e-5, "chair box should be un-letterboxed")
	assert.Greater(t, res.Match.Overlap, 0.5, "the sitter covers most of the chair footprint")
}

func TestRunRetriesUntilWinner(t *testing.T) {
	f1, f2 := testFrame(), testFrame()
	cam := &scriptedCamera{steps: []captureStep{{frame: f1}, {frame: f2}}}
	eng := &scriptedEngine{steps: []runStep{
		{out: emptyOutput(t)},
		{out: winningOutput(t)},
	}}

	s, err := NewSession(eng, cam, fastConfig())
	require.NoError(t, err, "session should construct")

	res := s.Run(context.Background())
	assert.True(t, res.Success, "the retry should find the sitter")
	assert.Equal(t, 2, res.Attempts, "the second attempt should be the one that lands")
	assert.Same(t, image.Image(f2), res.FullImage, "the full image belongs to the winning attempt")
	assert.Equal(t, 2, cam.calls, "every attempt captures a fresh frame")
}

func TestRunEngineErrorIsSoft(t *testing.T) {
	frame := testFrame()
	cam := &scriptedCamera{steps: []captureStep{{frame: testFrame()}, {frame: frame}}}
	eng := &scriptedEngine{steps: []runStep{
		{err: errors.New("onnxruntime blew up")},
		{out: winningOutput(t)},
	}}

	s, err := NewSession(eng, cam, fastConfig())
	require.NoError(t, err, "session should construct")

	res := s.Run(context.Background())
	assert.True(t, res.Success, "the round should recover on the next attempt")
	assert.Equal(t, 2, res.Attempts, "the failed attempt still counts")
}

func TestRunExhaustionKeepsFirstFrame(t *testing.T) {
	f1, f2, f3 := testFrame(), testFrame(), testFrame()
	cam := &scriptedCamera{steps: []captureStep{{frame: f1}, {frame: f2}, {frame: f3}}}
	eng := &scriptedEngine{steps: []runStep{{out: emptyOutput(t)}}}

	s, err := NewSession(eng, cam, fastConfig())
	require.NoError(t, err, "session should construct")

	res := s.Run(context.Background())
	assert.False(t, res.Success, "no sitter was ever found")
	assert.Equal(t, DefaultMaxAttempts, res.Attempts, "every attempt should be spent")
	assert.Same(t, image.Image(f1), res.FullImage, "the fallback image is the first frame of the round")
	assert.Nil(t, res.WinnerImage, "no winner means no crop")
}

func TestRunNoFramesAtAll(t *testing.T) {
	cam := &scriptedCamera{}
	eng := &scriptedEngine{steps: []runStep{{out: emptyOutput(t)}}}

	cfg := fastConfig()
	cfg.MaxAttempts = 2
	s, err := NewSession(eng, cam, cfg)
	require.NoError(t, err, "session should construct")

	res := s.Run(context.Background())
	assert.False(t, res.Success, "nothing can be found without frames")
	assert.Equal(t, 2, res.Attempts, "every attempt should be spent")
	assert.Nil(t, res.FullImage, "no capture succeeded, so there is no fallback frame")
	assert.Equal(t, 0, eng.calls, "no frame should ever reach the engine")
}

func TestRunCancelledBeforeStart(t *testing.T) {
	cam := &scriptedCamera{steps: []captureStep{{frame: testFrame()}}}
	eng := &scriptedEngine{steps: []runStep{{out: winningOutput(t)}}}

	s, err := NewSession(eng, cam, fastConfig())
	require.NoError(t, err, "session should construct")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := s.Run(ctx)
	require.NotNil(t, res, "even a cancelled round reports a result")
	assert.False(t, res.Success, "nothing ran, nothing was found")
	assert.Equal(t, 0, res.Attempts, "no attempt should have started")
	assert.Equal(t, 0, cam.calls, "no capture should have happened")
	assert.Nil(t, res.FullImage, "nothing was captured before the cancel")
}

func TestRunCancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	frame := testFrame()
	cam := &scriptedCamera{
		steps:     []captureStep{{frame: frame}, {frame: testFrame()}},
		onCapture: cancel,
	}
	eng := &scriptedEngine{steps: []runStep{{out: emptyOutput(t)}}}

	cfg := fastConfig()
	cfg.AttemptDelay = time.Hour
	s, err := NewSession(eng, cam, cfg)
	require.NoError(t, err, "session should construct")

	start := time.Now()
	res := s.Run(ctx)
	assert.Less(t, time.Since(start), time.Second, "cancellation must cut the delay short")

	assert.False(t, res.Success, "the round was cut off before a winner appeared")
	assert.Equal(t, 1, res.Attempts, "the in-flight attempt finishes before the cancel lands")
	assert.Equal(t, 1, eng.calls, "cancellation never interrupts a running attempt")
	assert.Same(t, image.Image(frame), res.FullImage, "the fallback frame survives cancellation")
}

func TestLastChairCountPersists(t *testing.T) {
	cam := &scriptedCamera{steps: []captureStep{{frame: testFrame()}, {frame: testFrame()}}}
	eng := &scriptedEngine{steps: []runStep{
		{out: chairOnlyOutput(t)},
		{out: emptyOutput(t)},
	}}

	cfg := fastConfig()
	cfg.MaxAttempts = 2
	s, err := NewSession(eng, cam, cfg)
	require.NoError(t, err, "session should construct")

	res := s.Run(context.Background())
	assert.False(t, res.Success, "a chair with nobody on it is not a winner")
	assert.Equal(t, 1, s.LastChairCount(), "the chair count must survive attempts that see no chairs")
}
