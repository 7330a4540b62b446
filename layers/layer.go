package layers

import (
	"fmt"

	"github.com/cuong3004/mobilevit-go/tensor"
)

// LayerKind represents the type of computational layer.
type LayerKind int

const (
	Conv2D LayerKind = iota
	BatchNorm
	Dense
	LayerNorm
	Add
	ZeroPad2D
	GlobalAvgPool
)

func (lk LayerKind) String() string {
	switch lk {
	case Conv2D:
		return "Conv2D"
	case BatchNorm:
		return "BatchNorm"
	case Dense:
		return "Dense"
	case LayerNorm:
		return "LayerNorm"
	case Add:
		return "Add"
	case ZeroPad2D:
		return "ZeroPad2D"
	case GlobalAvgPool:
		return "GlobalAvgPool"
	default:
		return "Unknown"
	}
}

// Slot names shared by every layer kind. A layer exposes the subset that its
// kind defines; the transplant engine addresses slots purely by these names.
const (
	SlotKernel         = "kernel"
	SlotBias           = "bias"
	SlotGamma          = "gamma"
	SlotBeta           = "beta"
	SlotMovingMean     = "moving_mean"
	SlotMovingVariance = "moving_variance"
)

// LayerSpec is the declarative description of one layer: its kind, unique
// name, and shape parameters. Input and output shapes are filled in while the
// architecture builder threads the feature-map shape through the network.
type LayerSpec struct {
	Kind LayerKind `json:"kind"`
	Name string    `json:"name"`

	// Convolution / dense parameters. Groups equals the expanded channel
	// count for the depthwise stage of an inverted residual block.
	Filters    int  `json:"filters,omitempty"`
	KernelSize int  `json:"kernel_size,omitempty"`
	Stride     int  `json:"stride,omitempty"`
	Groups     int  `json:"groups,omitempty"`
	UseBias    bool `json:"use_bias,omitempty"`

	// Normalization parameters.
	Features int     `json:"features,omitempty"`
	Epsilon  float32 `json:"epsilon,omitempty"`

	InputShape  []int `json:"input_shape,omitempty"`
	OutputShape []int `json:"output_shape,omitempty"`
}

// Slot is a named, shaped parameter holder on a layer. Value is nil until a
// tensor is assigned; Assigned tracks the single permitted write.
type Slot struct {
	Name     string
	Shape    []int
	Value    *tensor.Tensor
	Assigned bool
}

// Assign stores a tensor in the slot after checking its shape against the
// declared one. It does not enforce single assignment; that integrity check
// belongs to the transplant engine, which has the full picture of the plan.
func (s *Slot) Assign(t *tensor.Tensor) error {
	if !t.ShapeEquals(s.Shape) {
		return fmt.Errorf("tensor shape %v does not match slot shape %v", t.Shape, s.Shape)
	}
	s.Value = t
	s.Assigned = true
	return nil
}

// Layer is a live instance in the registry: a spec plus its parameter slots.
type Layer struct {
	Spec LayerSpec

	slots     map[string]*Slot
	slotOrder []string
}

func newLayer(spec LayerSpec) *Layer {
	return &Layer{
		Spec:  spec,
		slots: make(map[string]*Slot),
	}
}

func (l *Layer) addSlot(name string, shape []int) {
	l.slots[name] = &Slot{Name: name, Shape: append([]int(nil), shape...)}
	l.slotOrder = append(l.slotOrder, name)
}

// Name returns the layer's unique registry name.
func (l *Layer) Name() string {
	return l.Spec.Name
}

// Slot looks up a parameter slot by name.
func (l *Layer) Slot(name string) (*Slot, bool) {
	s, ok := l.slots[name]
	return s, ok
}

// SlotNames returns the slot names in declaration order.
func (l *Layer) SlotNames() []string {
	return append([]string(nil), l.slotOrder...)
}

// NumSlots returns the number of parameter slots the layer declares.
func (l *Layer) NumSlots() int {
	return len(l.slotOrder)
}

// NewConv2D creates a convolution layer. The kernel slot uses the
// height-width-input-output axis order; for grouped convolutions the input
// axis holds inputChannels/groups, which collapses to 1 for the depthwise
// case.
func NewConv2D(name string, inputChannels int, spec LayerSpec) (*Layer, error) {
	if spec.Filters <= 0 || spec.KernelSize <= 0 {
		return nil, fmt.Errorf("conv layer %q: filters and kernel size must be positive", name)
	}
	groups := spec.Groups
	if groups == 0 {
		groups = 1
	}
	if inputChannels%groups != 0 {
		return nil, fmt.Errorf("conv layer %q: input channels %d not divisible by groups %d",
			name, inputChannels, groups)
	}

	spec.Kind = Conv2D
	spec.Name = name
	spec.Groups = groups

	l := newLayer(spec)
	l.addSlot(SlotKernel, []int{spec.KernelSize, spec.KernelSize, inputChannels / groups, spec.Filters})
	if spec.UseBias {
		l.addSlot(SlotBias, []int{spec.Filters})
	}
	return l, nil
}

// NewBatchNorm creates a batch-normalization layer with gamma, beta, and
// moving statistics slots, all shaped [features].
func NewBatchNorm(name string, features int) (*Layer, error) {
	if features <= 0 {
		return nil, fmt.Errorf("batch norm layer %q: features must be positive, got %d", name, features)
	}

	l := newLayer(LayerSpec{
		Kind:     BatchNorm,
		Name:     name,
		Features: features,
		Epsilon:  1e-5,
	})
	l.addSlot(SlotGamma, []int{features})
	l.addSlot(SlotBeta, []int{features})
	l.addSlot(SlotMovingMean, []int{features})
	l.addSlot(SlotMovingVariance, []int{features})
	return l, nil
}

// NewDense creates a fully connected layer. The kernel slot uses the
// input-by-output orientation.
func NewDense(name string, inputSize, outputSize int, useBias bool) (*Layer, error) {
	if inputSize <= 0 || outputSize <= 0 {
		return nil, fmt.Errorf("dense layer %q: sizes must be positive, got %d and %d",
			name, inputSize, outputSize)
	}

	l := newLayer(LayerSpec{
		Kind:    Dense,
		Name:    name,
		Filters: outputSize,
		UseBias: useBias,
	})
	l.addSlot(SlotKernel, []int{inputSize, outputSize})
	if useBias {
		l.addSlot(SlotBias, []int{outputSize})
	}
	return l, nil
}

// NewLayerNorm creates a layer-normalization layer with gamma and beta slots.
func NewLayerNorm(name string, features int) (*Layer, error) {
	if features <= 0 {
		return nil, fmt.Errorf("layer norm layer %q: features must be positive, got %d", name, features)
	}

	l := newLayer(LayerSpec{
		Kind:     LayerNorm,
		Name:     name,
		Features: features,
		Epsilon:  1e-5,
	})
	l.addSlot(SlotGamma, []int{features})
	l.addSlot(SlotBeta, []int{features})
	return l, nil
}

// NewAdd creates a parameterless elementwise-add layer.
func NewAdd(name string) *Layer {
	return newLayer(LayerSpec{Kind: Add, Name: name})
}

// NewZeroPad2D creates a parameterless spatial padding layer.
func NewZeroPad2D(name string) *Layer {
	return newLayer(LayerSpec{Kind: ZeroPad2D, Name: name})
}

// NewGlobalAvgPool creates a parameterless global average pooling layer.
func NewGlobalAvgPool(name string) *Layer {
	return newLayer(LayerSpec{Kind: GlobalAvgPool, Name: name})
}
