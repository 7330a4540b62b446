package mobilevit

import (
	"strconv"

	"github.com/cuong3004/mobilevit-go/layers"
	"github.com/cuong3004/mobilevit-go/transplant"
)

// Plan generates the full transplant plan for a model family: one entry per
// learned parameter, binding the reference model's hierarchical path to the
// registry layer and slot that Build creates for the same Config. Because
// both sides walk the same block descriptors, adding depth or width to a
// family extends registry and plan together.
func Plan(family string) ([]transplant.Entry, error) {
	cfg, err := FamilyConfig(family)
	if err != nil {
		return nil, err
	}

	p := &planner{}
	p.convWithNorm(stemConvName, stemBNName, sourceModelPrefix+".conv_stem")

	irUnits := []string{"expand_1x1", "conv_3x3", "reduce_1x1"}
	for _, d := range cfg.irBlocks() {
		for m, unit := range irUnits {
			p.convWithNorm(irConvName(d.Index, m+1), irBNName(d.Index, m+1), d.SourcePath+"."+unit)
		}
	}

	for _, d := range cfg.mvBlocks() {
		p.convWithNorm(mvName(d.Index, "conv_kxk"), mvName(d.Index, "conv_kxk_bn"), d.SourcePath+".conv_kxk")
		p.convKernel(mvName(d.Index, "conv_1x1"), d.SourcePath+".conv_1x1")

		for t := 1; t <= d.Depth; t++ {
			src := d.SourcePath + ".transformer.layer." + strconv.Itoa(t-1)
			p.layerNorm(transformerName(d.Index, t, "layernorm_before"), src+".layernorm_before")
			p.dense(transformerName(d.Index, t, "query"), src+".attention.attention.query")
			p.dense(transformerName(d.Index, t, "key"), src+".attention.attention.key")
			p.dense(transformerName(d.Index, t, "value"), src+".attention.attention.value")
			p.dense(transformerName(d.Index, t, "attention_output"), src+".attention.output.dense")
			p.layerNorm(transformerName(d.Index, t, "layernorm_after"), src+".layernorm_after")
			p.dense(transformerName(d.Index, t, "intermediate"), src+".intermediate.dense")
			p.dense(transformerName(d.Index, t, "output"), src+".output.dense")
		}

		p.layerNorm(mvName(d.Index, "layernorm"), d.SourcePath+".layernorm")
		p.convWithNorm(mvName(d.Index, "conv_projection"), mvName(d.Index, "conv_projection_bn"), d.SourcePath+".conv_projection")
		p.convWithNorm(mvName(d.Index, "fusion"), mvName(d.Index, "fusion_bn"), d.SourcePath+".fusion")
	}

	p.convWithNorm(convExpName, convExpBNName, sourceModelPrefix+".conv_1x1_exp")
	p.dense(classifierName, "classifier")

	return p.entries, nil
}

type planner struct {
	entries []transplant.Entry
}

func (p *planner) add(layer, slot, path string, kind transplant.TransformKind) {
	p.entries = append(p.entries, transplant.Entry{
		Layer:      layer,
		Slot:       slot,
		SourcePath: path,
		Transform:  kind,
	})
}

// convKernel maps a bias-free convolution whose source module carries no
// normalization, such as the pre-transformer 1x1 projection.
func (p *planner) convKernel(layer, srcModule string) {
	p.add(layer, layers.SlotKernel, srcModule+".convolution.weight", transplant.TransformConvKernel)
}

// convWithNorm maps a convolution plus its batch normalization, including
// the running statistics the inference-time normalization depends on.
func (p *planner) convWithNorm(convLayer, bnLayer, srcModule string) {
	p.convKernel(convLayer, srcModule)
	p.add(bnLayer, layers.SlotGamma, srcModule+".normalization.weight", transplant.TransformIdentity)
	p.add(bnLayer, layers.SlotBeta, srcModule+".normalization.bias", transplant.TransformIdentity)
	p.add(bnLayer, layers.SlotMovingMean, srcModule+".normalization.running_mean", transplant.TransformIdentity)
	p.add(bnLayer, layers.SlotMovingVariance, srcModule+".normalization.running_var", transplant.TransformIdentity)
}

// dense maps a linear module; the kernel needs the 2-D transpose between the
// frameworks' (out, in) and (in, out) orientations.
func (p *planner) dense(layer, srcModule string) {
	p.add(layer, layers.SlotKernel, srcModule+".weight", transplant.TransformLinearKernel)
	p.add(layer, layers.SlotBias, srcModule+".bias", transplant.TransformIdentity)
}

func (p *planner) layerNorm(layer, srcModule string) {
	p.add(layer, layers.SlotGamma, srcModule+".weight", transplant.TransformIdentity)
	p.add(layer, layers.SlotBeta, srcModule+".bias", transplant.TransformIdentity)
}
