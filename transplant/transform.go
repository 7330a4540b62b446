package transplant

import (
	"fmt"

	"github.com/cuong3004/mobilevit-go/tensor"
)

// TransformKind selects the layout conversion applied to a source tensor
// before it is assigned into a target slot. The two frameworks disagree on
// kernel axis conventions; everything else transfers as-is.
type TransformKind int

const (
	// TransformIdentity passes 1-D vectors (bias, gamma, beta, moving
	// statistics) through unchanged.
	TransformIdentity TransformKind = iota
	// TransformConvKernel permutes a convolution kernel from the source's
	// (out, in, height, width) order to the target's (height, width, in, out).
	TransformConvKernel
	// TransformLinearKernel transposes a dense kernel from (out, in) to
	// (in, out).
	TransformLinearKernel
)

func (tk TransformKind) String() string {
	switch tk {
	case TransformIdentity:
		return "Identity"
	case TransformConvKernel:
		return "ConvKernel"
	case TransformLinearKernel:
		return "LinearKernel"
	default:
		return "Unknown"
	}
}

var (
	convKernelAxes        = []int{2, 3, 1, 0}
	convKernelInverseAxes = []int{3, 2, 0, 1}
)

// ConvKernel reorders a 4-D kernel from (out, in, height, width) to
// (height, width, in, out).
func ConvKernel(t *tensor.Tensor) (*tensor.Tensor, error) {
	if len(t.Shape) != 4 {
		return nil, fmt.Errorf("conv kernel transform requires a 4-D tensor, got shape %v", t.Shape)
	}
	return t.Permute(convKernelAxes)
}

// ConvKernelInverse undoes ConvKernel exactly; transforming then inverting
// reproduces the original tensor bit for bit.
func ConvKernelInverse(t *tensor.Tensor) (*tensor.Tensor, error) {
	if len(t.Shape) != 4 {
		return nil, fmt.Errorf("conv kernel inverse requires a 4-D tensor, got shape %v", t.Shape)
	}
	return t.Permute(convKernelInverseAxes)
}

// LinearKernel transposes a 2-D dense kernel.
func LinearKernel(t *tensor.Tensor) (*tensor.Tensor, error) {
	if len(t.Shape) != 2 {
		return nil, fmt.Errorf("linear kernel transform requires a 2-D tensor, got shape %v", t.Shape)
	}
	return t.Permute([]int{1, 0})
}

// Apply runs the transform identified by kind on the source tensor, returning
// a new tensor and leaving the source untouched.
func Apply(kind TransformKind, t *tensor.Tensor) (*tensor.Tensor, error) {
	switch kind {
	case TransformIdentity:
		return t.Clone(), nil
	case TransformConvKernel:
		return ConvKernel(t)
	case TransformLinearKernel:
		return LinearKernel(t)
	default:
		return nil, fmt.Errorf("unsupported transform kind: %v", kind)
	}
}
