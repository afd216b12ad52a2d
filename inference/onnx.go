package inference

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/lastchair/go-vision/inference/providers"
)

// Defaults for the YOLO-family detection models this engine serves.
const (
	DefaultClassCount = 80
	DefaultAnchors    = 8400
	DefaultInputName  = "images"
	DefaultOutputName = "output0"
)

// ONNXConfig configures an ONNX Runtime detection session.
type ONNXConfig struct {
	// ModelPath points at the .onnx file. Required.
	ModelPath string `json:"modelPath" yaml:"modelPath"`
	// LibraryPath overrides the onnxruntime shared library location; empty
	// falls back to providers.SharedLibPath.
	LibraryPath string `json:"libraryPath" yaml:"libraryPath"`
	// InputSize is the square model input; 0 selects DefaultTargetSize.
	InputSize int `json:"inputSize" yaml:"inputSize"`
	// ClassCount is the number of classes in the output head.
	ClassCount int `json:"classCount" yaml:"classCount"`
	// Anchors is the number of candidate cells in the output head.
	Anchors int `json:"anchors" yaml:"anchors"`
	// Objectness adds one feature plane for models with a separate
	// objectness output.
	Objectness bool `json:"objectness" yaml:"objectness"`
	// InputName and OutputName are the graph tensor names.
	InputName  string `json:"inputName"  yaml:"inputName"`
	OutputName string `json:"outputName" yaml:"outputName"`
	// Warmup runs the session this many times on zero input after loading.
	Warmup int `json:"warmup" yaml:"warmup"`
	// Provider selects and tunes the execution provider.
	Provider providers.Config `json:"provider" yaml:"provider"`
}

// withDefaults returns a copy with zero values replaced.
func (c ONNXConfig) withDefaults() ONNXConfig {
	if c.InputSize <= 0 {
		c.InputSize = DefaultTargetSize
	}
	if c.ClassCount <= 0 {
		c.ClassCount = DefaultClassCount
	}
	if c.Anchors <= 0 {
		c.Anchors = DefaultAnchors
	}
	if c.InputName == "" {
		c.InputName = DefaultInputName
	}
	if c.OutputName == "" {
		c.OutputName = DefaultOutputName
	}
	return c
}

// ONNXEngine is an Engine backed by an onnxruntime AdvancedSession with
// preallocated input and output tensors.
type ONNXEngine struct {
	mu       sync.Mutex
	session  *ort.AdvancedSession
	input    *ort.Tensor[float32]
	output   *ort.Tensor[float32]
	opts     *ort.SessionOptions
	inShape  []int64
	outShape []int64
	log      *logrus.Entry
	closed   bool
}

// NewONNXEngine loads a model and prepares a reusable session.
//
// Arguments:
// - cfg: Session configuration; ModelPath is required.
//
// Returns:
// - *ONNXEngine: The ready engine.
// - error: Error when the model is missing or the runtime rejects the setup.
func NewONNXEngine(cfg ONNXConfig) (*ONNXEngine, error) {
	cfg = cfg.withDefaults()
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("onnx engine: model path is required")
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("onnx engine: model %s: %w", cfg.ModelPath, err)
	}

	if !ort.IsInitialized() {
		libPath := cfg.LibraryPath
		if libPath == "" {
			libPath = providers.SharedLibPath()
		}
		ort.SetSharedLibraryPath(libPath)
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("onnx engine: initialize runtime: %w", err)
		}
	}

	features := 4 + cfg.ClassCount
	if cfg.Objectness {
		features++
	}
	inShape := []int64{1, 3, int64(cfg.InputSize), int64(cfg.InputSize)}
	outShape := []int64{1, int64(features), int64(cfg.Anchors)}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(inShape...))
	if err != nil {
		return nil, fmt.Errorf("onnx engine: input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(outShape...))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("onnx engine: output tensor: %w", err)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("onnx engine: session options: %w", err)
	}
	if err := cfg.Provider.Apply(opts); err != nil {
		input.Destroy()
		output.Destroy()
		opts.Destroy()
		return nil, fmt.Errorf("onnx engine: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputName},
		[]string{cfg.OutputName},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		opts,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		opts.Destroy()
		return nil, fmt.Errorf("onnx engine: create session: %w", err)
	}

	e := &ONNXEngine{
		session:  session,
		input:    input,
		output:   output,
		opts:     opts,
		inShape:  inShape,
		outShape: outShape,
		log:      logrus.WithField("component", "onnx-engine"),
	}
	e.log.WithFields(logrus.Fields{
		"model":   cfg.ModelPath,
		"backend": cfg.Provider.Backend,
		"input":   inShape,
		"output":  outShape,
	}).Info("session ready")

	for i := 0; i < cfg.Warmup; i++ {
		if err := session.Run(); err != nil {
			e.Close()
			return nil, fmt.Errorf("onnx engine: warmup run %d: %w", i+1, err)
		}
	}
	return e, nil
}

// Run executes one forward pass. The input must match the session's input
// shape exactly; the returned tensor is a fresh copy the caller owns.
func (e *ONNXEngine) Run(ctx context.Context, input *Tensor) (*Tensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, fmt.Errorf("onnx engine: closed")
	}
	if input == nil || !shapeEqual(input.Shape, e.inShape) {
		return nil, fmt.Errorf("onnx engine: input shape %v, session wants %v", tensorShape(input), e.inShape)
	}

	copy(e.input.GetData(), input.Data)
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx engine: run: %w", err)
	}

	src := e.output.GetData()
	out := make([]float32, len(src))
	copy(out, src)
	return NewTensor(append([]int64(nil), e.outShape...), out)
}

// Close destroys the session and its tensors. Safe to call more than once.
func (e *ONNXEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	if e.session != nil {
		keep(e.session.Destroy())
	}
	if e.input != nil {
		keep(e.input.Destroy())
	}
	if e.output != nil {
		keep(e.output.Destroy())
	}
	if e.opts != nil {
		keep(e.opts.Destroy())
	}
	return first
}

// tensorShape is a nil-safe shape accessor for error messages.
func tensorShape(t *Tensor) []int64 {
	if t == nil {
		return nil
	}
	return t.Shape
}
