// Package providers - NVIDIA CUDA execution provider.
package providers

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// CUDAOptions contains arguments for the CUDA provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/CUDA-ExecutionProvider.html#configuration-options
type CUDAOptions struct {
	// DeviceID selects the GPU.
	DeviceID int `json:"deviceID"              yaml:"deviceID"`
	// GPUMemLimit caps the provider's arena in bytes. The total device
	// memory usage may still be higher. 0 keeps the runtime default.
	GPUMemLimit int64 `json:"gpuMemLimit"           yaml:"gpuMemLimit"`
	// DoCopyInDefaultStream forces copies onto the default stream. The
	// recommended setting is true; false risks race conditions for some
	// gain in throughput.
	DoCopyInDefaultStream bool `json:"doCopyInDefaultStream" yaml:"doCopyInDefaultStream"`
}

func (o CUDAOptions) apply(opts *ort.SessionOptions) error {
	native, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return fmt.Errorf("providers: cuda options: %w", err)
	}
	defer native.Destroy()

	settings := map[string]string{
		"device_id": fmt.Sprintf("%d", o.DeviceID),
	}
	if o.GPUMemLimit > 0 {
		settings["gpu_mem_limit"] = fmt.Sprintf("%d", o.GPUMemLimit)
	}
	if o.DoCopyInDefaultStream {
		settings["do_copy_in_default_stream"] = "1"
	}
	if err := native.Update(settings); err != nil {
		return fmt.Errorf("providers: cuda options: %w", err)
	}

	if err := opts.AppendExecutionProviderCUDA(native); err != nil {
		return fmt.Errorf("providers: append cuda: %w", err)
	}
	return nil
}
