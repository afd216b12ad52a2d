// Command chaircam plays one musical-chairs round: it watches a camera (or
// a directory of frames), waits for someone to sit down, and writes the
// winner crop plus the annotated frame to disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lastchair/go-vision/camera"
	"github.com/lastchair/go-vision/detections"
	"github.com/lastchair/go-vision/images"
	"github.com/lastchair/go-vision/inference"
	"github.com/lastchair/go-vision/inference/providers"
	"github.com/lastchair/go-vision/match"
	"github.com/lastchair/go-vision/winner"
)

const (
	// DefaultModelPath is the detection model loaded when -model is not given.
	DefaultModelPath = "yolov8n.onnx"
	// DefaultConfidence is the detection confidence threshold for the CLI.
	DefaultConfidence = 0.4
	// DefaultOutputDir receives the round's images.
	DefaultOutputDir = "round_output"
)

func main() {
	var (
		modelPath   string
		ortLibPath  string
		imagesDir   string
		deviceID    int
		confidence  float64
		iou         float64
		minOverlap  float64
		attempts    int
		delay       time.Duration
		inputSize   int
		backend     string
		objectness  bool
		anchorMajor bool
		outputDir   string
		verbose     bool
	)
	flag.StringVar(&modelPath, "model", DefaultModelPath, "Path to the ONNX detection model")
	flag.StringVar(&ortLibPath, "ort-lib", "", "Path to the onnxruntime shared library (empty picks the platform default)")
	flag.StringVar(&imagesDir, "images", "", "Replay frames from this directory instead of a camera")
	flag.IntVar(&deviceID, "camera", 0, "Video capture device ID")
	flag.Float64Var(&confidence, "confidence", DefaultConfidence, "Detection confidence threshold")
	flag.Float64Var(&iou, "iou", float64(detections.DefaultIoUThreshold), "IoU threshold for duplicate suppression")
	flag.Float64Var(&minOverlap, "min-overlap", match.DefaultMinOverlap, "Minimum person-on-chair overlap")
	flag.IntVar(&attempts, "attempts", winner.DefaultMaxAttempts, "Detection attempts per round")
	flag.DurationVar(&delay, "delay", winner.DefaultAttemptDelay, "Pause between attempts")
	flag.IntVar(&inputSize, "size", inference.DefaultTargetSize, "Square model input size")
	flag.StringVar(&backend, "backend", string(providers.BackendCPU), "Execution provider: cpu, coreml, cuda, openvino")
	flag.BoolVar(&objectness, "objectness", false, "Model output carries an objectness plane")
	flag.BoolVar(&anchorMajor, "anchor-major", false, "Model output is anchor-major instead of feature-major")
	flag.StringVar(&outputDir, "output-dir", DefaultOutputDir, "Output directory for round images")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	flag.Parse()

	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	layout := detections.LayoutFeatureMajor
	if anchorMajor {
		layout = detections.LayoutAnchorMajor
	}
	decoderCfg := detections.DecoderConfig{
		Layout:            layout,
		UseObjectnessGate: objectness,
	}

	engine, err := inference.NewONNXEngine(inference.ONNXConfig{
		ModelPath:   modelPath,
		LibraryPath: ortLibPath,
		InputSize:   inputSize,
		Objectness:  objectness,
		Warmup:      1,
		Provider:    providers.Config{Backend: providers.Backend(backend)},
	})
	if err != nil {
		logrus.WithError(err).Fatal("initialize detection engine")
	}
	defer engine.Close()

	cam, closeCam, err := openCamera(imagesDir, deviceID)
	if err != nil {
		logrus.WithError(err).Fatal("open frame source")
	}
	defer closeCam()

	sess, err := winner.NewSession(engine, cam, winner.Config{
		ConfidenceThreshold: float32(confidence),
		IoUThreshold:        float32(iou),
		MinOverlap:          minOverlap,
		MaxAttempts:         attempts,
		AttemptDelay:        delay,
		TargetSize:          inputSize,
		Decoder:             decoderCfg,
	})
	if err != nil {
		logrus.WithError(err).Fatal("configure session")
	}

	fmt.Printf("🎵 Musical chairs round starting\n")
	fmt.Printf("   Model: %s\n", modelPath)
	fmt.Printf("   Source: %s\n", sourceLabel(imagesDir, deviceID))
	fmt.Printf("   Confidence: %.2f | IoU: %.2f | Overlap: %.2f\n", confidence, iou, minOverlap)
	fmt.Printf("   Attempts: %d | Delay: %v\n", attempts, delay)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := sess.Run(ctx)
	if ctx.Err() != nil {
		logrus.Warn("round interrupted")
	}

	if res.Success {
		fmt.Printf("🏆 Winner found on attempt %d (confidence %.2f, chairs seen: %d)\n",
			res.Attempts, res.Confidence, sess.LastChairCount())
	} else {
		fmt.Printf("😔 No winner after %d attempts\n", res.Attempts)
	}

	if err := saveRound(res, outputDir); err != nil {
		logrus.WithError(err).Fatal("save round images")
	}
}

// openCamera picks the frame source: a directory replay when dir is set, a
// live device otherwise.
func openCamera(dir string, deviceID int) (winner.Camera, func(), error) {
	if dir != "" {
		seq, err := camera.SequenceFromDir(dir, 0)
		if err != nil {
			return nil, nil, err
		}
		return seq, func() {}, nil
	}
	cam, err := camera.NewWebcam(deviceID, 0, 0)
	if err != nil {
		return nil, nil, err
	}
	return cam, func() {
		if err := cam.Close(); err != nil {
			logrus.WithError(err).Warn("close camera")
		}
	}, nil
}

func sourceLabel(dir string, deviceID int) string {
	if dir != "" {
		return fmt.Sprintf("directory %s", dir)
	}
	return fmt.Sprintf("camera device %d", deviceID)
}

// saveRound writes whatever images the round produced: the full frame, the
// winner crop, and the full frame annotated with the winning pair.
func saveRound(res *winner.Result, outputDir string) error {
	if res.FullImage == nil {
		fmt.Printf("   No frame was captured, nothing to save\n")
		return nil
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	fullPath := filepath.Join(outputDir, "full.jpg")
	if err := images.Save(res.FullImage, fullPath); err != nil {
		return err
	}
	fmt.Printf("💾 Full frame: %s\n", fullPath)

	if !res.Success {
		return nil
	}

	winnerPath := filepath.Join(outputDir, "winner.jpg")
	if err := images.Save(res.WinnerImage, winnerPath); err != nil {
		return err
	}
	fmt.Printf("💾 Winner crop: %s\n", winnerPath)

	bounds := res.FullImage.Bounds()
	annotated := images.Annotate(res.FullImage, []images.LabeledBox{
		{Rect: res.Match.Chair.Box.Rect(bounds.Dx(), bounds.Dy()).Add(bounds.Min), Color: color.RGBA{B: 255, A: 255}},
		{Rect: res.Match.Person.Box.Rect(bounds.Dx(), bounds.Dy()).Add(bounds.Min), Color: color.RGBA{G: 255, A: 255}},
	})
	annotatedPath := filepath.Join(outputDir, "annotated.jpg")
	if err := images.Save(annotated, annotatedPath); err != nil {
		return err
	}
	fmt.Printf("💾 Annotated frame: %s\n", annotatedPath)
	return nil
}
