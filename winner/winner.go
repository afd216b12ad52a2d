// Package winner decides who is left sitting when the music stops.
//
// A Session ties the pipeline together: capture a frame, letterbox it, run
// the detector, pair people with chairs, and crop the sitter. Detection is
// noisy, so a round is a bounded series of attempts with a pause between
// them; any attempt may fail softly and the round only gives up once every
// attempt is spent.
package winner

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lastchair/go-vision/detections"
	"github.com/lastchair/go-vision/images"
	"github.com/lastchair/go-vision/inference"
	"github.com/lastchair/go-vision/match"
)

const (
	// DefaultMaxAttempts is how many captures a round gets before giving up.
	DefaultMaxAttempts = 3
	// DefaultAttemptDelay is the pause between consecutive attempts.
	DefaultAttemptDelay = time.Second
	// DefaultCropPadding widens the winner crop by this fraction of the box
	// size on every side.
	DefaultCropPadding = 0.2
)

var (
	errNoFrame = errors.New("camera produced no frame")
	errNoMatch = errors.New("nobody is seated")
)

// Config tunes a session. ConfidenceThreshold has no default and must be
// set; every other zero value falls back to the package defaults. Decoder
// must agree with the engine's output shape.
type Config struct {
	// ConfidenceThreshold is the minimum detection confidence, in (0, 1].
	ConfidenceThreshold float32 `json:"confidenceThreshold" yaml:"confidenceThreshold"`
	// IoUThreshold drives duplicate suppression within each class.
	IoUThreshold float32 `json:"iouThreshold" yaml:"iouThreshold"`
	// MinOverlap is the exclusive lower bound for a person-chair pairing.
	MinOverlap float64 `json:"minOverlap" yaml:"minOverlap"`
	// MaxAttempts bounds the captures per round.
	MaxAttempts int `json:"maxAttempts" yaml:"maxAttempts"`
	// AttemptDelay is the pause between attempts.
	AttemptDelay time.Duration `json:"attemptDelay" yaml:"attemptDelay"`
	// CropPadding widens the winner crop, as a fraction of the box size.
	CropPadding float64 `json:"cropPadding" yaml:"cropPadding"`
	// TargetSize is the square model input side.
	TargetSize int `json:"targetSize" yaml:"targetSize"`
	// Decoder describes the raw output the engine produces.
	Decoder detections.DecoderConfig `json:"decoder" yaml:"decoder"`
}

func (c Config) withDefaults() Config {
	if c.IoUThreshold <= 0 {
		c.IoUThreshold = detections.DefaultIoUThreshold
	}
	if c.MinOverlap <= 0 {
		c.MinOverlap = match.DefaultMinOverlap
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.AttemptDelay <= 0 {
		c.AttemptDelay = DefaultAttemptDelay
	}
	if c.CropPadding <= 0 {
		c.CropPadding = DefaultCropPadding
	}
	if c.TargetSize <= 0 {
		c.TargetSize = inference.DefaultTargetSize
	}
	return c
}

// Result is the outcome of one round.
type Result struct {
	// Success reports whether a seated person was found.
	Success bool `json:"success"`
	// WinnerImage is the padded crop around the sitter; nil on failure.
	WinnerImage image.Image `json:"-"`
	// FullImage is the frame the winner was found in. On failure it is the
	// first frame captured during the round, so callers always have
	// something to show, or nil when no capture succeeded at all.
	FullImage image.Image `json:"-"`
	// Confidence is the winning person's detection confidence.
	Confidence float32 `json:"confidence"`
	// Attempts is how many attempts the round used.
	Attempts int `json:"attempts"`
	// Match is the winning person-chair pair, boxes normalized to
	// FullImage; nil on failure.
	Match *match.Match `json:"match,omitempty"`
}

// Session runs winner rounds against one engine and one camera. A session
// is single-threaded: run one round at a time.
type Session struct {
	engine  inference.Engine
	camera  Camera
	pre     *inference.Preprocessor
	decoder *detections.Decoder
	cfg     Config
	log     *logrus.Entry

	firstFrame     image.Image
	lastChairCount int
}

// NewSession wires a session from its parts.
//
// Arguments:
// - engine: Detector to run frames through.
// - camera: Frame source.
// - cfg: Session tuning; ConfidenceThreshold is required.
//
// Returns:
// - *Session: The ready session.
// - error: Error when a part is missing or the config is unusable.
func NewSession(engine inference.Engine, camera Camera, cfg Config) (*Session, error) {
	if engine == nil {
		return nil, errors.New("winner: nil engine")
	}
	if camera == nil {
		return nil, errors.New("winner: nil camera")
	}
	if cfg.ConfidenceThreshold <= 0 || cfg.ConfidenceThreshold > 1 {
		return nil, fmt.Errorf("winner: confidence threshold %v outside (0, 1]", cfg.ConfidenceThreshold)
	}
	cfg = cfg.withDefaults()

	return &Session{
		engine:  engine,
		camera:  camera,
		pre:     inference.NewPreprocessor(cfg.TargetSize),
		decoder: detections.NewDecoder(cfg.Decoder),
		cfg:     cfg,
		log:     logrus.WithField("component", "winner"),
	}, nil
}

// Run plays one round: capture, detect, and pair until a sitter is found or
// the attempts run out.
//
// Every attempt works on a fresh capture. Attempt failures are soft; they
// are logged and the next attempt starts after the configured delay. The
// context is honored between attempts, never inside one, and ends the round
// with the best available result. Run never returns an error: exhaustion
// and cancellation are both outcomes, not failures.
//
// Arguments:
// - ctx: Cancels the round between attempts.
//
// Returns:
// - *Result: The outcome; when no sitter was found Success is false and
//   FullImage holds the first captured frame.
func (s *Session) Run(ctx context.Context) *Result {
	s.firstFrame = nil

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			s.log.WithError(err).Info("round cancelled")
			return s.failed(attempt - 1)
		}

		res, err := s.attempt(ctx, attempt)
		if err == nil {
			return res
		}
		s.log.WithError(err).WithField("attempt", attempt).Warn("attempt failed")

		if attempt == s.cfg.MaxAttempts {
			break
		}
		if err := s.sleep(ctx); err != nil {
			s.log.WithError(err).Info("round cancelled")
			return s.failed(attempt)
		}
	}
	return s.failed(s.cfg.MaxAttempts)
}

// LastChairCount reports how many chairs the most recent detection saw.
// It persists across attempts and rounds until chairs are seen again, so
// the game logic can track chairs being removed.
func (s *Session) LastChairCount() int {
	return s.lastChairCount
}

func (s *Session) attempt(ctx context.Context, attempt int) (*Result, error) {
	start := time.Now()
	frame, err := s.camera.Capture(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "capture")
	}
	if frame == nil {
		return nil, errNoFrame
	}
	captureDur := time.Since(start)
	if s.firstFrame == nil {
		s.firstFrame = frame
	}

	start = time.Now()
	input, meta, err := s.pre.Process(frame)
	if err != nil {
		return nil, errors.Wrap(err, "preprocess")
	}
	preDur := time.Since(start)

	start = time.Now()
	output, err := s.engine.Run(ctx, input)
	if err != nil {
		return nil, errors.Wrap(err, "inference")
	}
	inferDur := time.Since(start)

	start = time.Now()
	sets, err := s.decoder.Decode(output, s.cfg.ConfidenceThreshold, detections.ClassPerson, detections.ClassChair)
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	persons := s.unletterbox(meta, detections.NMS(sets[detections.ClassPerson], s.cfg.IoUThreshold))
	chairs := s.unletterbox(meta, detections.NMS(sets[detections.ClassChair], s.cfg.IoUThreshold))
	decodeDur := time.Since(start)

	s.log.WithFields(logrus.Fields{
		"attempt":    attempt,
		"persons":    len(persons),
		"chairs":     len(chairs),
		"capture":    captureDur,
		"preprocess": preDur,
		"inference":  inferDur,
		"decode":     decodeDur,
	}).Debug("attempt decoded")

	if len(chairs) > 0 {
		s.lastChairCount = len(chairs)
	}

	bounds := frame.Bounds()
	m := match.Best(persons, chairs, bounds.Dx(), bounds.Dy(), s.cfg.MinOverlap)
	if m == nil {
		return nil, errNoMatch
	}

	crop, err := s.cropWinner(frame, m)
	if err != nil {
		return nil, errors.Wrap(err, "crop winner")
	}

	s.log.WithFields(logrus.Fields{
		"attempt":    attempt,
		"confidence": m.Person.Confidence,
		"overlap":    m.Overlap,
	}).Info("winner found")

	return &Result{
		Success:     true,
		WinnerImage: crop,
		FullImage:   frame,
		Confidence:  m.Person.Confidence,
		Attempts:    attempt,
		Match:       m,
	}, nil
}

// unletterbox maps detection boxes from the model canvas back onto the
// captured frame.
func (s *Session) unletterbox(meta *inference.Meta, dets []detections.Detection) []detections.Detection {
	for i := range dets {
		dets[i].Box = meta.Unletterbox(dets[i].Box)
	}
	return dets
}

// cropWinner cuts the sitter out of the frame with breathing room around
// the box, clamped to the frame.
func (s *Session) cropWinner(frame image.Image, m *match.Match) (image.Image, error) {
	bounds := frame.Bounds()
	rect := m.Person.Box.Rect(bounds.Dx(), bounds.Dy())
	padX := int(float64(rect.Dx()) * s.cfg.CropPadding)
	padY := int(float64(rect.Dy()) * s.cfg.CropPadding)
	padded := image.Rect(
		rect.Min.X-padX,
		rect.Min.Y-padY,
		rect.Max.X+padX,
		rect.Max.Y+padY,
	).Add(bounds.Min)
	return images.Crop(frame, padded)
}

func (s *Session) failed(attempts int) *Result {
	return &Result{
		Success:   false,
		FullImage: s.firstFrame,
		Attempts:  attempts,
	}
}

func (s *Session) sleep(ctx context.Context) error {
	timer := time.NewTimer(s.cfg.AttemptDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
