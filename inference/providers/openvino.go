// Package providers - Intel OpenVINO execution provider.
package providers

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// OpenVINOOptions contains arguments for the OpenVINO provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/OpenVINO-ExecutionProvider.html#summary-of-options
type OpenVINOOptions struct {
	// DeviceType overrides the accelerator hardware type at runtime, e.g.
	// "CPU", "GPU", "NPU". Empty keeps the build-time default.
	DeviceType string `json:"deviceType"   yaml:"deviceType"`
	// Precision selects the inference precision for the device; supported
	// values depend on the hardware (CPU:FP32, GPU:FP32/FP16/ACCURACY).
	Precision string `json:"precision"    yaml:"precision"`
	// NumThreads overrides the accelerator's default thread count.
	NumThreads int `json:"numThreads"   yaml:"numThreads"`
	// NumStreams overrides the accelerator's default stream count.
	NumStreams int `json:"numStreams"   yaml:"numStreams"`
}

func (o OpenVINOOptions) apply(opts *ort.SessionOptions) error {
	settings := map[string]string{}
	if o.DeviceType != "" {
		settings["device_type"] = o.DeviceType
	}
	if o.Precision != "" {
		settings["precision"] = o.Precision
	}
	if o.NumThreads > 0 {
		settings["num_of_threads"] = fmt.Sprintf("%d", o.NumThreads)
	}
	if o.NumStreams > 0 {
		settings["num_streams"] = fmt.Sprintf("%d", o.NumStreams)
	}

	if err := opts.AppendExecutionProviderOpenVINO(settings); err != nil {
		return fmt.Errorf("providers: append openvino: %w", err)
	}
	return nil
}
