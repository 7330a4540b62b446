package checkpoints

import (
	"fmt"
	"os"

	"github.com/nlpodyssey/safetensors"
)

// saveSafetensors writes the extracted weights as a safetensors archive keyed
// "<layer>.<slot>". Weight order inside the archive follows the registry's
// insertion order via the extraction, so identical conversions produce
// byte-identical files.
func saveSafetensors(weights []WeightTensor, path string) error {
	views := make(map[string]safetensors.TensorView, len(weights))
	for _, w := range weights {
		shape := make([]uint64, len(w.Shape))
		for i, dim := range w.Shape {
			shape[i] = uint64(dim)
		}

		view, err := safetensors.NewTensorView(safetensors.F32, shape, float32ToBytes(w.Data))
		if err != nil {
			return fmt.Errorf("failed to build tensor view for %s: %w", w.Name, err)
		}
		views[w.Name] = view
	}

	data, err := safetensors.Serialize(views, nil)
	if err != nil {
		return fmt.Errorf("failed to serialize safetensors archive: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write safetensors file: %w", err)
	}
	return nil
}
