// Package providers configures ONNX Runtime execution providers.
package providers

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// Backend selects the execution provider a session runs on.
type Backend string

const (
	// BackendCPU uses the default CPU provider.
	BackendCPU Backend = "cpu"
	// BackendCoreML uses Apple CoreML for macOS/iOS acceleration.
	BackendCoreML Backend = "coreml"
	// BackendCUDA uses NVIDIA CUDA for GPU acceleration.
	BackendCUDA Backend = "cuda"
	// BackendOpenVINO uses Intel OpenVINO for inference optimization.
	BackendOpenVINO Backend = "openvino"
)

// Config selects a backend and its tuning options. The zero value runs on
// CPU with runtime-default threading.
type Config struct {
	Backend Backend `json:"backend" yaml:"backend"`
	// IntraOpThreads caps parallelism inside an operator; 0 keeps the
	// runtime default.
	IntraOpThreads int `json:"intraOpThreads" yaml:"intraOpThreads"`
	// InterOpThreads caps parallelism across operators; 0 keeps the
	// runtime default.
	InterOpThreads int `json:"interOpThreads" yaml:"interOpThreads"`

	CoreML   CoreMLOptions   `json:"coreml"   yaml:"coreml"`
	CUDA     CUDAOptions     `json:"cuda"     yaml:"cuda"`
	OpenVINO OpenVINOOptions `json:"openvino" yaml:"openvino"`
}

// Apply writes the configuration onto a session options handle.
//
// Arguments:
// - opts: Session options to mutate.
//
// Returns:
// - error: Error when the backend is unknown or the runtime rejects an option.
func (c Config) Apply(opts *ort.SessionOptions) error {
	if c.IntraOpThreads > 0 {
		if err := opts.SetIntraOpNumThreads(c.IntraOpThreads); err != nil {
			return fmt.Errorf("providers: intra-op threads: %w", err)
		}
	}
	if c.InterOpThreads > 0 {
		if err := opts.SetInterOpNumThreads(c.InterOpThreads); err != nil {
			return fmt.Errorf("providers: inter-op threads: %w", err)
		}
	}
	if err := opts.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended); err != nil {
		return fmt.Errorf("providers: graph optimization level: %w", err)
	}

	switch c.Backend {
	case BackendCPU, "":
		return nil
	case BackendCoreML:
		return c.CoreML.apply(opts)
	case BackendCUDA:
		return c.CUDA.apply(opts)
	case BackendOpenVINO:
		return c.OpenVINO.apply(opts)
	default:
		return fmt.Errorf("providers: unknown backend %q", c.Backend)
	}
}
