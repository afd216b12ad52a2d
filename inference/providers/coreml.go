// Package providers - Apple CoreML execution provider.
package providers

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// CoreMLOptions contains arguments for the CoreML provider.
// See: https://onnxruntime.ai/docs/execution-providers/CoreML-ExecutionProvider.html
type CoreMLOptions struct {
	// Flags are passed straight to the provider; 0 enables CoreML on every
	// compatible compute unit.
	Flags uint32 `json:"flags" yaml:"flags"`
}

func (o CoreMLOptions) apply(opts *ort.SessionOptions) error {
	if err := opts.AppendExecutionProviderCoreML(o.Flags); err != nil {
		return fmt.Errorf("providers: append coreml: %w", err)
	}
	return nil
}
