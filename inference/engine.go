package inference

import "context"

// Engine runs a detection model on a preprocessed input tensor.
//
// The engine is opaque to the rest of the pipeline: callers hand it a model
// input and get the raw output back. The tensor returned by Run is a copy
// the caller owns. Implementations must tolerate concurrent callers or
// serialize runs internally.
type Engine interface {
	// Run executes one forward pass.
	Run(ctx context.Context, input *Tensor) (*Tensor, error)
	// Close releases the model session and its buffers.
	Close() error
}
