package transplant

import (
	"testing"

	"github.com/cuong3004/mobilevit-go/tensor"
)

func stemKernel(t *testing.T) *tensor.Tensor {
	t.Helper()
	data := make([]float32, 16*3*3*3)
	for i := range data {
		data[i] = float32(i)
	}
	src, err := tensor.New([]int{16, 3, 3, 3}, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return src
}

func TestConvKernel(t *testing.T) {
	src := stemKernel(t)

	out, err := ConvKernel(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.ShapeEquals([]int{3, 3, 3, 16}) {
		t.Fatalf("expected shape [3 3 3 16], got %v", out.Shape)
	}

	// out[h,w,i,o] must equal src[o,i,h,w] for every index.
	for o := 0; o < 16; o++ {
		for i := 0; i < 3; i++ {
			for h := 0; h < 3; h++ {
				for w := 0; w < 3; w++ {
					want, _ := src.At(o, i, h, w)
					got, _ := out.At(h, w, i, o)
					if got != want {
						t.Fatalf("out[%d,%d,%d,%d]: expected %v, got %v", h, w, i, o, want, got)
					}
				}
			}
		}
	}
}

func TestConvKernelRoundTrip(t *testing.T) {
	src := stemKernel(t)

	forward, err := ConvKernel(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	back, err := ConvKernelInverse(forward)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !tensor.Equal(src, back) {
		t.Error("conv kernel transform round trip is not bit-identical")
	}
}

func TestConvKernelRank(t *testing.T) {
	vec, _ := tensor.New([]int{8}, make([]float32, 8))
	if _, err := ConvKernel(vec); err == nil {
		t.Error("expected rank error for non-4-D tensor")
	}
	if _, err := ConvKernelInverse(vec); err == nil {
		t.Error("expected rank error for non-4-D tensor")
	}
}

func TestLinearKernel(t *testing.T) {
	src, _ := tensor.New([]int{1000, 320}, make([]float32, 320000))

	out, err := LinearKernel(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.ShapeEquals([]int{320, 1000}) {
		t.Fatalf("expected shape [320 1000], got %v", out.Shape)
	}

	vec, _ := tensor.New([]int{8}, make([]float32, 8))
	if _, err := LinearKernel(vec); err == nil {
		t.Error("expected rank error for non-2-D tensor")
	}
}

func TestApplyIdentityClones(t *testing.T) {
	src, _ := tensor.New([]int{3}, []float32{1, 2, 3})

	out, err := Apply(TransformIdentity, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out.Data[0] = 99
	if src.Data[0] != 1 {
		t.Error("identity transform must not alias the source data")
	}
}

func TestTransformKindString(t *testing.T) {
	tests := []struct {
		kind TransformKind
		want string
	}{
		{TransformIdentity, "Identity"},
		{TransformConvKernel, "ConvKernel"},
		{TransformLinearKernel, "LinearKernel"},
		{TransformKind(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}
