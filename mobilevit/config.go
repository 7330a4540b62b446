package mobilevit

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a model family, resolution, or dataset
// combination the converter does not support. It is surfaced before any
// weight loading happens.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "unsupported configuration: " + e.Reason
}

// IsConfigurationError reports whether err is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}

// Config carries the width and depth parameters of one MobileViT family.
// The architecture builder and the transplant plan generator both derive
// from the same Config, so the registry and the plan cannot drift apart as
// depths or widths change.
type Config struct {
	Name string

	// ExpandRatio widens channels in the pointwise expansion stage of every
	// inverted residual block.
	ExpandRatio int

	// StemChannels is the output width of the strided stem convolution.
	StemChannels int

	// StageChannels are the output widths of the five encoder stages.
	StageChannels [5]int

	// FinalChannels is the width of the 1x1 expansion convolution before the
	// classifier.
	FinalChannels int

	// HiddenSizes are the transformer embedding dims of stages 3 to 5.
	HiddenSizes [3]int

	// TransformerDepths are the transformer layer counts of stages 3 to 5.
	TransformerDepths [3]int

	// FFNMultiplier scales the transformer feed-forward width.
	FFNMultiplier int
}

// The three published MobileViT variants, matching the pretrained reference
// checkpoints parameter for parameter.
var families = map[string]Config{
	"mobilevit_xxs": {
		Name:              "mobilevit_xxs",
		ExpandRatio:       2,
		StemChannels:      16,
		StageChannels:     [5]int{16, 24, 48, 64, 80},
		FinalChannels:     320,
		HiddenSizes:       [3]int{64, 80, 96},
		TransformerDepths: [3]int{2, 4, 3},
		FFNMultiplier:     2,
	},
	"mobilevit_xs": {
		Name:              "mobilevit_xs",
		ExpandRatio:       4,
		StemChannels:      16,
		StageChannels:     [5]int{32, 48, 64, 80, 96},
		FinalChannels:     384,
		HiddenSizes:       [3]int{96, 120, 144},
		TransformerDepths: [3]int{2, 4, 3},
		FFNMultiplier:     2,
	},
	"mobilevit_s": {
		Name:              "mobilevit_s",
		ExpandRatio:       4,
		StemChannels:      16,
		StageChannels:     [5]int{32, 64, 96, 128, 160},
		FinalChannels:     640,
		HiddenSizes:       [3]int{144, 192, 240},
		TransformerDepths: [3]int{2, 4, 3},
		FFNMultiplier:     2,
	},
}

// FamilyNames lists the supported model family identifiers.
func FamilyNames() []string {
	return []string{"mobilevit_xxs", "mobilevit_xs", "mobilevit_s"}
}

// FamilyConfig resolves a model family identifier.
func FamilyConfig(name string) (Config, error) {
	cfg, ok := families[name]
	if !ok {
		return Config{}, &ConfigurationError{
			Reason: fmt.Sprintf("unknown model family %q (supported: %v)", name, FamilyNames()),
		}
	}
	return cfg, nil
}

// datasetClasses maps dataset identifiers to output class counts. Only
// imagenet-1k checkpoints are published for this family; requesting anything
// else is a configuration error, not a fallback.
var datasetClasses = map[string]int{
	"imagenet-1k": 1000,
}

// ClassesForDataset resolves a dataset identifier to its class count.
func ClassesForDataset(dataset string) (int, error) {
	classes, ok := datasetClasses[dataset]
	if !ok {
		return 0, &ConfigurationError{
			Reason: fmt.Sprintf("no class count known for dataset %q", dataset),
		}
	}
	return classes, nil
}
