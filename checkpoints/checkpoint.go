package checkpoints

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cuong3004/mobilevit-go/layers"
)

// CheckpointFormat defines the serialization format for the converted model.
type CheckpointFormat int

const (
	FormatJSON CheckpointFormat = iota
	FormatSafetensors
)

func (cf CheckpointFormat) String() string {
	switch cf {
	case FormatJSON:
		return "JSON"
	case FormatSafetensors:
		return "Safetensors"
	default:
		return "Unknown"
	}
}

// ParseFormat maps a user-facing format name to a CheckpointFormat.
func ParseFormat(name string) (CheckpointFormat, error) {
	switch name {
	case "json":
		return FormatJSON, nil
	case "safetensors":
		return FormatSafetensors, nil
	default:
		return 0, fmt.Errorf("unsupported checkpoint format %q (want json or safetensors)", name)
	}
}

// Checkpoint is the self-describing output artifact: the ordered layer specs
// that define the architecture plus every transplanted parameter tensor.
type Checkpoint struct {
	Specs    []layers.LayerSpec `json:"specs"`
	Weights  []WeightTensor     `json:"weights"`
	Metadata CheckpointMetadata `json:"metadata"`
}

// WeightTensor is one serialized parameter with its owning layer and slot.
type WeightTensor struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Data  []float32 `json:"data"`
	Layer string    `json:"layer"`
	Slot  string    `json:"slot"`
}

// CheckpointMetadata describes the conversion that produced the artifact.
type CheckpointMetadata struct {
	Version    string    `json:"version"`
	Framework  string    `json:"framework"`
	Model      string    `json:"model,omitempty"`
	Resolution int       `json:"resolution,omitempty"`
	Classes    int       `json:"classes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ExtractWeights walks the registry in insertion order and collects every
// slot's tensor. It fails on any unassigned slot: serialization must never
// run against a partially transplanted registry.
func ExtractWeights(registry *layers.Registry) ([]WeightTensor, error) {
	var weights []WeightTensor

	for _, name := range registry.Names() {
		layer, _ := registry.Layer(name)
		for _, slotName := range layer.SlotNames() {
			slot, _ := layer.Slot(slotName)
			if !slot.Assigned || slot.Value == nil {
				return nil, fmt.Errorf("cannot extract weights: slot %s.%s was never assigned", name, slotName)
			}

			weights = append(weights, WeightTensor{
				Name:  fmt.Sprintf("%s.%s", name, slotName),
				Shape: slot.Value.Shape,
				Data:  slot.Value.Data,
				Layer: name,
				Slot:  slotName,
			})
		}
	}

	return weights, nil
}

// CheckpointSaver writes checkpoints in a chosen format.
type CheckpointSaver struct {
	format CheckpointFormat
}

// NewCheckpointSaver creates a saver for the specified format.
func NewCheckpointSaver(format CheckpointFormat) *CheckpointSaver {
	return &CheckpointSaver{format: format}
}

// SaveRegistry serializes a fully transplanted registry to path.
func (cs *CheckpointSaver) SaveRegistry(registry *layers.Registry, specs []layers.LayerSpec, meta CheckpointMetadata, path string) error {
	weights, err := ExtractWeights(registry)
	if err != nil {
		return err
	}

	switch cs.format {
	case FormatJSON:
		checkpoint := &Checkpoint{Specs: specs, Weights: weights, Metadata: meta}
		return saveJSON(checkpoint, path)
	case FormatSafetensors:
		return saveSafetensors(weights, path)
	default:
		return fmt.Errorf("unsupported checkpoint format: %s", cs.format)
	}
}

func saveJSON(checkpoint *Checkpoint, path string) error {
	if checkpoint.Metadata.Framework == "" {
		checkpoint.Metadata.Framework = "mobilevit-go"
		checkpoint.Metadata.Version = "1.0.0"
	}
	if checkpoint.Metadata.CreatedAt.IsZero() {
		checkpoint.Metadata.CreatedAt = time.Now()
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(checkpoint); err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint reads a JSON checkpoint back, mainly for round-trip
// verification of converted models.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var checkpoint Checkpoint
	if err := json.NewDecoder(file).Decode(&checkpoint); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	return &checkpoint, nil
}
