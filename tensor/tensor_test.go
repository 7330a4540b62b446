package tensor

import (
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		shape     []int
		dataLen   int
		expectErr bool
	}{
		{"vector", []int{4}, 4, false},
		{"matrix", []int{2, 3}, 6, false},
		{"conv kernel", []int{16, 3, 3, 3}, 432, false},
		{"scalar shape rejected", []int{}, 0, true},
		{"zero dimension", []int{2, 0}, 0, true},
		{"negative dimension", []int{2, -1}, 2, true},
		{"data too short", []int{2, 3}, 5, true},
		{"data too long", []int{2, 3}, 7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tensor, err := New(tt.shape, make([]float32, tt.dataLen))
			if tt.expectErr {
				if err == nil {
					t.Errorf("expected error for shape %v with %d elements", tt.shape, tt.dataLen)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tensor.NumElems != tt.dataLen {
				t.Errorf("expected %d elements, got %d", tt.dataLen, tensor.NumElems)
			}
		})
	}
}

func TestStrides(t *testing.T) {
	tensor, err := New([]int{2, 3, 4}, make([]float32, 24))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []int{12, 4, 1}
	for i, stride := range expected {
		if tensor.Strides[i] != stride {
			t.Errorf("stride %d: expected %d, got %d", i, stride, tensor.Strides[i])
		}
	}
}

func TestAt(t *testing.T) {
	tensor, err := New([]int{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := tensor.At(1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 6 {
		t.Errorf("expected 6 at [1,2], got %v", v)
	}

	if _, err := tensor.At(2, 0); err == nil {
		t.Error("expected out-of-range error")
	}
	if _, err := tensor.At(1); err == nil {
		t.Error("expected index-count error")
	}
}

func TestClone(t *testing.T) {
	original, err := New([]int{2, 2}, []float32{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clone := original.Clone()
	clone.Data[0] = 99

	if original.Data[0] != 1 {
		t.Error("mutating the clone changed the original")
	}
	if !clone.ShapeEquals(original.Shape) {
		t.Errorf("clone shape %v differs from original %v", clone.Shape, original.Shape)
	}
}

func TestShapeEquals(t *testing.T) {
	tensor, err := New([]int{3, 3, 3, 16}, make([]float32, 432))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !tensor.ShapeEquals([]int{3, 3, 3, 16}) {
		t.Error("expected equal shapes to match")
	}
	if tensor.ShapeEquals([]int{16, 3, 3, 3}) {
		t.Error("permuted shape must not match")
	}
	if tensor.ShapeEquals([]int{3, 3, 3}) {
		t.Error("shorter shape must not match")
	}
}
