package layers

import (
	"reflect"
	"testing"

	"github.com/cuong3004/mobilevit-go/tensor"
)

func TestNewConv2D(t *testing.T) {
	tests := []struct {
		name        string
		inChannels  int
		spec        LayerSpec
		expectErr   bool
		kernelShape []int
		wantBias    bool
	}{
		{
			name:        "stem conv",
			inChannels:  3,
			spec:        LayerSpec{Filters: 16, KernelSize: 3, Stride: 2},
			kernelShape: []int{3, 3, 3, 16},
		},
		{
			name:        "pointwise with bias",
			inChannels:  16,
			spec:        LayerSpec{Filters: 32, KernelSize: 1, Stride: 1, UseBias: true},
			kernelShape: []int{1, 1, 16, 32},
			wantBias:    true,
		},
		{
			name:        "depthwise",
			inChannels:  32,
			spec:        LayerSpec{Filters: 32, KernelSize: 3, Stride: 2, Groups: 32},
			kernelShape: []int{3, 3, 1, 32},
		},
		{
			name:       "missing filters",
			inChannels: 3,
			spec:       LayerSpec{KernelSize: 3},
			expectErr:  true,
		},
		{
			name:       "channels not divisible by groups",
			inChannels: 10,
			spec:       LayerSpec{Filters: 10, KernelSize: 3, Groups: 3},
			expectErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewConv2D("conv", tt.inChannels, tt.spec)
			if tt.expectErr {
				if err == nil {
					t.Error("expected constructor error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			kernel, ok := l.Slot(SlotKernel)
			if !ok {
				t.Fatal("conv layer has no kernel slot")
			}
			if !reflect.DeepEqual(kernel.Shape, tt.kernelShape) {
				t.Errorf("expected kernel shape %v, got %v", tt.kernelShape, kernel.Shape)
			}

			_, hasBias := l.Slot(SlotBias)
			if hasBias != tt.wantBias {
				t.Errorf("bias slot present = %v, expected %v", hasBias, tt.wantBias)
			}
		})
	}
}

func TestNewBatchNorm(t *testing.T) {
	l, err := NewBatchNorm("bn", 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{SlotGamma, SlotBeta, SlotMovingMean, SlotMovingVariance}
	if !reflect.DeepEqual(l.SlotNames(), expected) {
		t.Errorf("expected slots %v, got %v", expected, l.SlotNames())
	}
	for _, name := range expected {
		slot, _ := l.Slot(name)
		if !reflect.DeepEqual(slot.Shape, []int{24}) {
			t.Errorf("slot %s: expected shape [24], got %v", name, slot.Shape)
		}
	}

	if _, err := NewBatchNorm("bad", 0); err == nil {
		t.Error("expected error for zero features")
	}
}

func TestNewDense(t *testing.T) {
	l, err := NewDense("fc", 320, 1000, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	kernel, _ := l.Slot(SlotKernel)
	if !reflect.DeepEqual(kernel.Shape, []int{320, 1000}) {
		t.Errorf("expected kernel shape [320 1000], got %v", kernel.Shape)
	}
	bias, ok := l.Slot(SlotBias)
	if !ok {
		t.Fatal("expected bias slot")
	}
	if !reflect.DeepEqual(bias.Shape, []int{1000}) {
		t.Errorf("expected bias shape [1000], got %v", bias.Shape)
	}

	noBias, err := NewDense("proj", 64, 64, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if noBias.NumSlots() != 1 {
		t.Errorf("expected 1 slot without bias, got %d", noBias.NumSlots())
	}
}

func TestParameterlessLayers(t *testing.T) {
	for _, l := range []*Layer{NewAdd("add"), NewZeroPad2D("pad"), NewGlobalAvgPool("pool")} {
		if l.NumSlots() != 0 {
			t.Errorf("layer %s: expected no slots, got %d", l.Name(), l.NumSlots())
		}
	}
}

func TestSlotAssign(t *testing.T) {
	l, err := NewBatchNorm("bn", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	slot, _ := l.Slot(SlotGamma)

	wrong, _ := tensor.New([]int{5}, make([]float32, 5))
	if err := slot.Assign(wrong); err == nil {
		t.Error("expected shape mismatch on assign")
	}
	if slot.Assigned {
		t.Error("failed assign must not mark the slot assigned")
	}

	right, _ := tensor.New([]int{4}, []float32{1, 1, 1, 1})
	if err := slot.Assign(right); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slot.Assigned || slot.Value == nil {
		t.Error("successful assign must populate the slot")
	}
}
