package tensor

import (
	"fmt"
)

// Permute returns a copy of the tensor with its axes reordered. axes must be
// a permutation of [0, len(shape)); axes[i] names the source axis that
// becomes output axis i, matching the transpose convention of the common
// array frameworks.
func (t *Tensor) Permute(axes []int) (*Tensor, error) {
	if len(axes) != len(t.Shape) {
		return nil, fmt.Errorf("permutation has %d axes, tensor has %d dimensions",
			len(axes), len(t.Shape))
	}

	seen := make([]bool, len(axes))
	for _, axis := range axes {
		if axis < 0 || axis >= len(axes) {
			return nil, fmt.Errorf("axis %d out of range for %d-dimensional tensor",
				axis, len(t.Shape))
		}
		if seen[axis] {
			return nil, fmt.Errorf("axis %d repeated in permutation %v", axis, axes)
		}
		seen[axis] = true
	}

	outShape := make([]int, len(axes))
	for i, axis := range axes {
		outShape[i] = t.Shape[axis]
	}

	out, err := Zeros(outShape)
	if err != nil {
		return nil, err
	}

	// Walk every element of the output, translating its index back to the
	// source offset through the permutation.
	srcIdx := make([]int, len(axes))
	outIdx := make([]int, len(axes))
	for flat := 0; flat < out.NumElems; flat++ {
		rem := flat
		for i := range outIdx {
			outIdx[i] = rem / out.Strides[i]
			rem = rem % out.Strides[i]
		}
		for i, axis := range axes {
			srcIdx[axis] = outIdx[i]
		}
		srcOffset := 0
		for i, idx := range srcIdx {
			srcOffset += idx * t.Strides[i]
		}
		out.Data[flat] = t.Data[srcOffset]
	}

	return out, nil
}

// Add returns the elementwise sum of two tensors with identical shapes.
func Add(t1, t2 *Tensor) (*Tensor, error) {
	if !t1.ShapeEquals(t2.Shape) {
		return nil, fmt.Errorf("shape mismatch for elementwise add: %v vs %v",
			t1.Shape, t2.Shape)
	}

	result, err := Zeros(t1.Shape)
	if err != nil {
		return nil, err
	}
	for i := range t1.Data {
		result.Data[i] = t1.Data[i] + t2.Data[i]
	}
	return result, nil
}

// Equal reports whether two tensors have identical shapes and bit-identical
// element values.
func Equal(t1, t2 *Tensor) bool {
	if !t1.ShapeEquals(t2.Shape) {
		return false
	}
	for i := range t1.Data {
		if t1.Data[i] != t2.Data[i] {
			return false
		}
	}
	return true
}
