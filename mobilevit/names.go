package mobilevit

import (
	"fmt"
)

// Layer names are the contract between the architecture builder and the
// transplant plan: the engine addresses layers purely by name string, so the
// helpers below are the single source of truth for both sides.

const (
	stemConvName      = "stem_block_conv_1"
	stemBNName        = "stem_block_bn_1"
	convExpName       = "conv_1x1_exp"
	convExpBNName     = "conv_1x1_exp_bn"
	globalPoolName    = "global_avg_pool"
	classifierName    = "classifier"
	sourceModelPrefix = "mobilevit"
)

func irConvName(block, stage int) string {
	return fmt.Sprintf("inverted_residual_block_%d_conv_%d", block, stage)
}

func irBNName(block, stage int) string {
	return fmt.Sprintf("inverted_residual_block_%d_bn_%d", block, stage)
}

func irPadName(block int) string {
	return fmt.Sprintf("inverted_residual_block_%d_pad_1", block)
}

func irAddName(block int) string {
	return fmt.Sprintf("inverted_residual_block_%d_add", block)
}

func mvName(block int, suffix string) string {
	return fmt.Sprintf("mobilevit_block_%d_%s", block, suffix)
}

func transformerName(block, layer int, suffix string) string {
	return fmt.Sprintf("mobilevit_block_%d_transformer_%d_%s", block, layer, suffix)
}

// irBlockDesc describes one inverted residual block: its position in the
// global numbering, its shape parameters, and the source model's module path
// for the equivalent block.
type irBlockDesc struct {
	Index       int
	OutChannels int
	Stride      int
	SourcePath  string
}

// mvBlockDesc describes one transformer-augmented MobileViT block.
type mvBlockDesc struct {
	Index      int
	Hidden     int
	Depth      int
	SourcePath string
}

// irBlocks enumerates the seven inverted residual blocks of the family in
// network order. Stage 1 holds one stride-1 block, stage 2 a stride-2 block
// followed by two stride-1 blocks, and stages 3 to 5 one stride-2
// downsampling block each. Source paths follow the reference model's module
// nesting: plain MobileNet stages expose their blocks as layer.<j>, the
// transformer stages expose theirs as downsampling_layer.
func (c Config) irBlocks() []irBlockDesc {
	encoder := sourceModelPrefix + ".encoder.layer"
	blocks := []irBlockDesc{
		{Index: 1, OutChannels: c.StageChannels[0], Stride: 1,
			SourcePath: fmt.Sprintf("%s.0.layer.0", encoder)},
	}
	for j := 0; j < 3; j++ {
		stride := 1
		if j == 0 {
			stride = 2
		}
		blocks = append(blocks, irBlockDesc{
			Index:       2 + j,
			OutChannels: c.StageChannels[1],
			Stride:      stride,
			SourcePath:  fmt.Sprintf("%s.1.layer.%d", encoder, j),
		})
	}
	for k := 0; k < 3; k++ {
		blocks = append(blocks, irBlockDesc{
			Index:       5 + k,
			OutChannels: c.StageChannels[2+k],
			Stride:      2,
			SourcePath:  fmt.Sprintf("%s.%d.downsampling_layer", encoder, 2+k),
		})
	}
	return blocks
}

// mvBlocks enumerates the three MobileViT blocks of stages 3 to 5.
func (c Config) mvBlocks() []mvBlockDesc {
	encoder := sourceModelPrefix + ".encoder.layer"
	blocks := make([]mvBlockDesc, 3)
	for k := 0; k < 3; k++ {
		blocks[k] = mvBlockDesc{
			Index:      1 + k,
			Hidden:     c.HiddenSizes[k],
			Depth:      c.TransformerDepths[k],
			SourcePath: fmt.Sprintf("%s.%d", encoder, 2+k),
		}
	}
	return blocks
}
