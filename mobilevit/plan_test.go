package mobilevit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuong3004/mobilevit-go/checkpoints"
	"github.com/cuong3004/mobilevit-go/layers"
	"github.com/cuong3004/mobilevit-go/tensor"
	"github.com/cuong3004/mobilevit-go/transplant"
)

func TestPlanEntryCount(t *testing.T) {
	// Depth and width differ across families, but every family has the same
	// module structure and therefore the same parameter count.
	for _, family := range FamilyNames() {
		t.Run(family, func(t *testing.T) {
			plan, err := Plan(family)
			require.NoError(t, err)
			assert.Len(t, plan, 315)
		})
	}
}

func TestPlanUnknownFamily(t *testing.T) {
	_, err := Plan("mobilevit_xl")
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestPlanBoundaries(t *testing.T) {
	plan, err := Plan("mobilevit_xxs")
	require.NoError(t, err)

	first := plan[0]
	assert.Equal(t, "mobilevit.conv_stem.convolution.weight", first.SourcePath)
	assert.Equal(t, stemConvName, first.Layer)
	assert.Equal(t, transplant.TransformConvKernel, first.Transform)

	last := plan[len(plan)-1]
	assert.Equal(t, "classifier.bias", last.SourcePath)
	assert.Equal(t, classifierName, last.Layer)
	assert.Equal(t, layers.SlotBias, last.Slot)
}

// TestPlanCoversRegistry checks the two halves of the contract: every plan
// entry addresses a slot the builder creates, and every slot the builder
// creates is addressed exactly once.
func TestPlanCoversRegistry(t *testing.T) {
	for _, family := range FamilyNames() {
		t.Run(family, func(t *testing.T) {
			registry, _, err := Build(family, 256, 1000)
			require.NoError(t, err)
			plan, err := Plan(family)
			require.NoError(t, err)

			targets := make(map[string]bool)
			for _, entry := range plan {
				layer, ok := registry.Layer(entry.Layer)
				require.True(t, ok, "entry targets unknown layer %s", entry.Layer)
				_, ok = layer.Slot(entry.Slot)
				require.True(t, ok, "entry targets unknown slot %s.%s", entry.Layer, entry.Slot)

				key := entry.Layer + "." + entry.Slot
				require.False(t, targets[key], "slot %s targeted twice", key)
				targets[key] = true
			}

			totalSlots := 0
			for _, name := range registry.Names() {
				layer, _ := registry.Layer(name)
				totalSlots += layer.NumSlots()
			}
			assert.Equal(t, totalSlots, len(targets), "plan must cover every slot")
		})
	}
}

// syntheticStore fabricates a parameter store whose tensors carry the source
// framework's layouts, derived by inverting each entry's transform against
// the slot shape the builder declares.
func syntheticStore(t *testing.T, registry *layers.Registry, plan []transplant.Entry) *checkpoints.ParamStore {
	t.Helper()

	params := make(map[string]*tensor.Tensor, len(plan))
	for n, entry := range plan {
		layer, ok := registry.Layer(entry.Layer)
		require.True(t, ok)
		slot, ok := layer.Slot(entry.Slot)
		require.True(t, ok)

		var shape []int
		switch entry.Transform {
		case transplant.TransformConvKernel:
			s := slot.Shape
			shape = []int{s[3], s[2], s[0], s[1]}
		case transplant.TransformLinearKernel:
			shape = []int{slot.Shape[1], slot.Shape[0]}
		default:
			shape = slot.Shape
		}

		numElems := 1
		for _, dim := range shape {
			numElems *= dim
		}
		data := make([]float32, numElems)
		for i := range data {
			data[i] = float32(n) + float32(i)*0.001
		}

		src, err := tensor.New(shape, data)
		require.NoError(t, err)
		params[entry.SourcePath] = src
	}
	return checkpoints.NewParamStore(params)
}

func TestTransplantEndToEnd(t *testing.T) {
	for _, family := range FamilyNames() {
		t.Run(family, func(t *testing.T) {
			registry, _, err := Build(family, 256, 1000)
			require.NoError(t, err)
			plan, err := Plan(family)
			require.NoError(t, err)

			store := syntheticStore(t, registry, plan)
			require.Equal(t, len(plan), store.Len())

			require.NoError(t, transplant.Run(store, registry, plan))
			require.NoError(t, transplant.Verify(registry))
		})
	}
}

func TestTransplantDeterminism(t *testing.T) {
	registry, _, err := Build("mobilevit_xxs", 256, 1000)
	require.NoError(t, err)
	plan, err := Plan("mobilevit_xxs")
	require.NoError(t, err)
	store := syntheticStore(t, registry, plan)

	require.NoError(t, transplant.Run(store, registry, plan))
	first, err := checkpoints.ExtractWeights(registry)
	require.NoError(t, err)

	again, _, err := Build("mobilevit_xxs", 256, 1000)
	require.NoError(t, err)
	require.NoError(t, transplant.Run(store, again, plan))
	second, err := checkpoints.ExtractWeights(again)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical inputs must transplant bit-identically")
}
