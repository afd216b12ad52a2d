package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTensor(t *testing.T) {
	tn, err := NewTensor([]int64{1, 3, 2, 2}, make([]float32, 12))
	require.NoError(t, err, "matching shape and data should construct")
	assert.Equal(t, int64(12), tn.Numel(), "element count should follow the shape")

	tests := []struct {
		name  string
		shape []int64
		data  []float32
	}{
		{"empty shape", nil, []float32{1}},
		{"zero dimension", []int64{1, 0, 4}, []float32{}},
		{"negative dimension", []int64{1, -3}, make([]float32, 3)},
		{"short data", []int64{2, 2}, make([]float32, 3)},
		{"long data", []int64{2, 2}, make([]float32, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTensor(tt.shape, tt.data)
			assert.Error(t, err, "invalid shape/data combinations must be rejected")
		})
	}
}

func TestZeros(t *testing.T) {
	tn, err := Zeros(1, 3, 4, 4)
	require.NoError(t, err, "a positive shape should allocate")
	require.Len(t, tn.Data, 48, "the buffer should cover the whole shape")
	for i, v := range tn.Data {
		require.Zero(t, v, "element %d should start zeroed", i)
	}

	_, err = Zeros(1, 0)
	assert.Error(t, err, "zero dimensions must be rejected")
}

func TestTensorDim(t *testing.T) {
	tn, err := Zeros(1, 84, 8400)
	require.NoError(t, err, "fixture tensor should allocate")

	assert.Equal(t, int64(84), tn.Dim(1), "in-range dimensions are returned as-is")
	assert.Equal(t, int64(0), tn.Dim(3), "out-of-range lookups report zero")
	assert.Equal(t, int64(0), tn.Dim(-1), "negative lookups report zero")
}
