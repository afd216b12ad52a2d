// Package inference - model input/output plumbing: tensors, preprocessing,
// and engine adapters.
package inference

import "fmt"

// Tensor is a dense float32 tensor in row-major order.
//
// A tensor is an owned buffer: the producer may write to Data up to the
// moment the tensor is handed to another component, and never after. A
// consumer that needs to restructure the data works on a copy.
type Tensor struct {
	// Shape holds the dimension sizes, outermost first, e.g. [1, 3, 640, 640].
	Shape []int64 `json:"shape"`
	// Data is the backing buffer; its length equals the product of Shape.
	Data []float32 `json:"-"`
}

// NewTensor constructs a tensor and validates data against shape.
//
// Arguments:
// - shape: Dimension sizes, outermost first. Every dimension must be positive.
// - data: Backing buffer; len(data) must equal the product of shape.
//
// Returns:
// - *Tensor: The constructed tensor.
// - error: Error describing the shape or length mismatch.
func NewTensor(shape []int64, data []float32) (*Tensor, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("tensor: empty shape")
	}
	n := int64(1)
	for _, d := range shape {
		if d <= 0 {
			return nil, fmt.Errorf("tensor: non-positive dimension %d in shape %v", d, shape)
		}
		n *= d
	}
	if int64(len(data)) != n {
		return nil, fmt.Errorf("tensor: shape %v wants %d elements, data has %d", shape, n, len(data))
	}
	return &Tensor{Shape: shape, Data: data}, nil
}

// Zeros allocates a zero-filled tensor with the given shape.
func Zeros(shape ...int64) (*Tensor, error) {
	n := int64(1)
	for _, d := range shape {
		if d <= 0 {
			return nil, fmt.Errorf("tensor: non-positive dimension %d in shape %v", d, shape)
		}
		n *= d
	}
	return NewTensor(shape, make([]float32, n))
}

// Numel returns the number of elements implied by the shape.
func (t *Tensor) Numel() int64 {
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Dim returns the size of dimension i, or 0 when i is out of range.
func (t *Tensor) Dim(i int) int64 {
	if i < 0 || i >= len(t.Shape) {
		return 0
	}
	return t.Shape[i]
}

// shapeEqual reports whether two shapes are identical.
func shapeEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
