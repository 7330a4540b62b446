package mobilevit

import (
	"fmt"

	"github.com/cuong3004/mobilevit-go/layers"
)

// Build constructs the layer registry for one model family at the given input
// resolution and class count, together with the ordered specs of every layer
// instantiated. The same inputs always produce the same names and shapes;
// the transplant plan relies on that determinism.
func Build(family string, resolution, numClasses int) (*layers.Registry, []layers.LayerSpec, error) {
	cfg, err := FamilyConfig(family)
	if err != nil {
		return nil, nil, err
	}
	if resolution <= 0 || resolution%32 != 0 {
		return nil, nil, &ConfigurationError{
			Reason: fmt.Sprintf("image resolution must be a positive multiple of 32, got %d", resolution),
		}
	}
	if numClasses <= 0 {
		return nil, nil, &ConfigurationError{
			Reason: fmt.Sprintf("class count must be positive, got %d", numClasses),
		}
	}

	b := &builder{
		cfg:      cfg,
		registry: layers.NewRegistry(),
		h:        resolution,
		w:        resolution,
		c:        3,
	}

	if err := b.stem(); err != nil {
		return nil, nil, err
	}

	// Stage 1 is a lone inverted residual block, stage 2 a run of three, and
	// stages 3 to 5 pair a downsampling block with a MobileViT block.
	irs := cfg.irBlocks()
	mvs := cfg.mvBlocks()
	for _, d := range irs[:4] {
		if err := b.invertedResidualBlock(d); err != nil {
			return nil, nil, err
		}
	}
	for k := 0; k < 3; k++ {
		if err := b.invertedResidualBlock(irs[4+k]); err != nil {
			return nil, nil, err
		}
		if err := b.mobileViTBlock(mvs[k]); err != nil {
			return nil, nil, err
		}
	}

	if err := b.head(numClasses); err != nil {
		return nil, nil, err
	}

	return b.registry, b.specs, nil
}

// builder threads the feature-map shape through the network while populating
// the registry. Shapes are tracked height-width-channels, the target
// framework's convention.
type builder struct {
	cfg      Config
	registry *layers.Registry
	specs    []layers.LayerSpec

	h, w, c int
}

func (b *builder) shape() []int {
	return []int{b.h, b.w, b.c}
}

// conv adds a convolution fed by inCh channels. Same-padding halves spatial
// dims by ceil division; valid padding follows an explicit ZeroPad2D layer in
// the stride-2 depthwise stage, mirroring the reference construction.
func (b *builder) conv(name string, inCh, filters, kernel, stride, groups int, useBias, samePad bool) error {
	inShape := b.shape()

	var outH, outW int
	if samePad {
		outH = (b.h + stride - 1) / stride
		outW = (b.w + stride - 1) / stride
	} else {
		outH = (b.h-kernel)/stride + 1
		outW = (b.w-kernel)/stride + 1
	}

	spec := layers.LayerSpec{
		Filters:     filters,
		KernelSize:  kernel,
		Stride:      stride,
		Groups:      groups,
		UseBias:     useBias,
		InputShape:  inShape,
		OutputShape: []int{outH, outW, filters},
	}
	l, err := layers.NewConv2D(name, inCh, spec)
	if err != nil {
		return err
	}
	if err := b.registry.Add(l); err != nil {
		return err
	}
	b.specs = append(b.specs, l.Spec)
	b.h, b.w, b.c = outH, outW, filters
	return nil
}

func (b *builder) batchNorm(name string) error {
	l, err := layers.NewBatchNorm(name, b.c)
	if err != nil {
		return err
	}
	l.Spec.InputShape = b.shape()
	l.Spec.OutputShape = b.shape()
	return b.addFixed(l)
}

// addFixed registers a layer that leaves the tracked shape unchanged.
func (b *builder) addFixed(l *layers.Layer) error {
	if err := b.registry.Add(l); err != nil {
		return err
	}
	b.specs = append(b.specs, l.Spec)
	return nil
}

func (b *builder) stem() error {
	if err := b.conv(stemConvName, b.c, b.cfg.StemChannels, 3, 2, 1, false, true); err != nil {
		return err
	}
	return b.batchNorm(stemBNName)
}

// invertedResidualBlock adds the expand / depthwise / reduce sequence. The
// residual add is decided from the shapes actually tracked at this point, not
// from configuration: channel equality can depend on upstream widths, and a
// stride-2 block never adds because the spatial dims no longer match.
func (b *builder) invertedResidualBlock(d irBlockDesc) error {
	inCh := b.c
	expanded := inCh * b.cfg.ExpandRatio

	if err := b.conv(irConvName(d.Index, 1), inCh, expanded, 1, 1, 1, false, true); err != nil {
		return err
	}
	if err := b.batchNorm(irBNName(d.Index, 1)); err != nil {
		return err
	}

	samePad := true
	if d.Stride == 2 {
		pad := layers.NewZeroPad2D(irPadName(d.Index))
		pad.Spec.InputShape = b.shape()
		b.h, b.w = b.h+1, b.w+1
		pad.Spec.OutputShape = b.shape()
		if err := b.addFixed(pad); err != nil {
			return err
		}
		samePad = false
	}
	if err := b.conv(irConvName(d.Index, 2), expanded, expanded, 3, d.Stride, expanded, false, samePad); err != nil {
		return err
	}
	if err := b.batchNorm(irBNName(d.Index, 2)); err != nil {
		return err
	}

	if err := b.conv(irConvName(d.Index, 3), expanded, d.OutChannels, 1, 1, 1, false, true); err != nil {
		return err
	}
	if err := b.batchNorm(irBNName(d.Index, 3)); err != nil {
		return err
	}

	if d.Stride == 1 && inCh == d.OutChannels {
		add := layers.NewAdd(irAddName(d.Index))
		add.Spec.InputShape = b.shape()
		add.Spec.OutputShape = b.shape()
		return b.addFixed(add)
	}
	return nil
}

// mobileViTBlock adds the transformer-augmented mixing block: local kxk
// convolution, projection to the transformer dim, the transformer layers,
// projection back, and fusion with the block input over concatenated
// channels.
func (b *builder) mobileViTBlock(d mvBlockDesc) error {
	cn := b.c

	if err := b.conv(mvName(d.Index, "conv_kxk"), cn, cn, 3, 1, 1, false, true); err != nil {
		return err
	}
	if err := b.batchNorm(mvName(d.Index, "conv_kxk_bn")); err != nil {
		return err
	}
	if err := b.conv(mvName(d.Index, "conv_1x1"), cn, d.Hidden, 1, 1, 1, false, true); err != nil {
		return err
	}

	for t := 1; t <= d.Depth; t++ {
		if err := b.transformerLayer(d, t); err != nil {
			return err
		}
	}

	if err := b.layerNorm(mvName(d.Index, "layernorm"), d.Hidden); err != nil {
		return err
	}

	if err := b.conv(mvName(d.Index, "conv_projection"), d.Hidden, cn, 1, 1, 1, false, true); err != nil {
		return err
	}
	if err := b.batchNorm(mvName(d.Index, "conv_projection_bn")); err != nil {
		return err
	}

	// Fusion convolves over the block input concatenated with the projection
	// output, so its input width is twice the stage width.
	if err := b.conv(mvName(d.Index, "fusion"), 2*cn, cn, 3, 1, 1, false, true); err != nil {
		return err
	}
	return b.batchNorm(mvName(d.Index, "fusion_bn"))
}

func (b *builder) transformerLayer(d mvBlockDesc, t int) error {
	hidden := d.Hidden
	ffn := hidden * b.cfg.FFNMultiplier

	if err := b.layerNorm(transformerName(d.Index, t, "layernorm_before"), hidden); err != nil {
		return err
	}
	for _, proj := range []string{"query", "key", "value"} {
		if err := b.dense(transformerName(d.Index, t, proj), hidden, hidden); err != nil {
			return err
		}
	}
	if err := b.dense(transformerName(d.Index, t, "attention_output"), hidden, hidden); err != nil {
		return err
	}
	if err := b.layerNorm(transformerName(d.Index, t, "layernorm_after"), hidden); err != nil {
		return err
	}
	if err := b.dense(transformerName(d.Index, t, "intermediate"), hidden, ffn); err != nil {
		return err
	}
	return b.dense(transformerName(d.Index, t, "output"), ffn, hidden)
}

func (b *builder) dense(name string, in, out int) error {
	l, err := layers.NewDense(name, in, out, true)
	if err != nil {
		return err
	}
	l.Spec.InputShape = []int{in}
	l.Spec.OutputShape = []int{out}
	return b.addFixed(l)
}

func (b *builder) layerNorm(name string, features int) error {
	l, err := layers.NewLayerNorm(name, features)
	if err != nil {
		return err
	}
	l.Spec.InputShape = []int{features}
	l.Spec.OutputShape = []int{features}
	return b.addFixed(l)
}

func (b *builder) head(numClasses int) error {
	if err := b.conv(convExpName, b.c, b.cfg.FinalChannels, 1, 1, 1, false, true); err != nil {
		return err
	}
	if err := b.batchNorm(convExpBNName); err != nil {
		return err
	}

	pool := layers.NewGlobalAvgPool(globalPoolName)
	pool.Spec.InputShape = b.shape()
	pool.Spec.OutputShape = []int{b.c}
	if err := b.addFixed(pool); err != nil {
		return err
	}
	b.h, b.w = 1, 1

	l, err := layers.NewDense(classifierName, b.c, numClasses, true)
	if err != nil {
		return err
	}
	l.Spec.InputShape = []int{b.c}
	l.Spec.OutputShape = []int{numClasses}
	return b.addFixed(l)
}
