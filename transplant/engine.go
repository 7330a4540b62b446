package transplant

import (
	"fmt"
	"log/slog"

	"github.com/cuong3004/mobilevit-go/layers"
	"github.com/cuong3004/mobilevit-go/tensor"
)

// Entry binds one source parameter path to one target slot, together with the
// layout transform reconciling the two frameworks' axis conventions. The full
// ordered entry list is the transplant plan.
type Entry struct {
	Layer      string
	Slot       string
	SourcePath string
	Transform  TransformKind
}

func (e Entry) String() string {
	return fmt.Sprintf("%s -> %s.%s (%s)", e.SourcePath, e.Layer, e.Slot, e.Transform)
}

// Source is a read-only view of a loaded parameter store.
type Source interface {
	// Tensor returns the tensor stored under the given hierarchical path.
	Tensor(path string) (*tensor.Tensor, bool)
}

// Run applies every plan entry in order: fetch the source tensor, convert its
// layout, validate the shape against the slot's declaration, and assign it
// exactly once. The first failure aborts the run with the registry in an
// unusable half-populated state; callers must not serialize after an error.
// The source store is never mutated.
func Run(store Source, registry *layers.Registry, plan []Entry) error {
	assigned := make(map[string]struct{}, len(plan))

	for _, entry := range plan {
		layer, ok := registry.Layer(entry.Layer)
		if !ok {
			return &UnknownTargetError{Layer: entry.Layer}
		}
		slot, ok := layer.Slot(entry.Slot)
		if !ok {
			return &UnknownTargetError{Layer: entry.Layer, Slot: entry.Slot}
		}

		key := entry.Layer + "." + entry.Slot
		if _, dup := assigned[key]; dup || slot.Assigned {
			return &DuplicateAssignmentError{Layer: entry.Layer, Slot: entry.Slot}
		}

		src, ok := store.Tensor(entry.SourcePath)
		if !ok {
			return &MissingParameterError{Path: entry.SourcePath}
		}

		transformed, err := Apply(entry.Transform, src)
		if err != nil {
			return fmt.Errorf("transform failed for %s: %w", entry, err)
		}

		if !transformed.ShapeEquals(slot.Shape) {
			return &ShapeMismatchError{
				Layer: entry.Layer,
				Slot:  entry.Slot,
				Got:   transformed.Shape,
				Want:  slot.Shape,
			}
		}

		if err := slot.Assign(transformed); err != nil {
			return fmt.Errorf("failed to assign %s: %w", entry, err)
		}
		assigned[key] = struct{}{}

		slog.Debug("transplanted parameter",
			"source", entry.SourcePath,
			"target", key,
			"transform", entry.Transform.String(),
			"shape", fmt.Sprint(transformed.Shape))
	}

	slog.Info("transplant complete", "parameters", len(plan))
	return nil
}

// Verify checks that every parameter slot in the registry was assigned. Run
// leaves untouched slots behind only when the plan is incomplete for the
// architecture, so this is the final integrity gate before serialization.
func Verify(registry *layers.Registry) error {
	for _, name := range registry.Names() {
		layer, _ := registry.Layer(name)
		for _, slotName := range layer.SlotNames() {
			slot, _ := layer.Slot(slotName)
			if !slot.Assigned {
				return fmt.Errorf("slot %s.%s was never assigned; transplant plan is incomplete",
					name, slotName)
			}
		}
	}
	return nil
}
