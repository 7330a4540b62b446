package layers

import (
	"fmt"
)

// Registry is the queryable collection of named layers in a freshly
// constructed model. Layer names are unique; insertion order is preserved so
// repeated builds of the same architecture serialize identically.
type Registry struct {
	layers map[string]*Layer
	order  []string
}

// NewRegistry creates an empty layer registry.
func NewRegistry() *Registry {
	return &Registry{
		layers: make(map[string]*Layer),
	}
}

// Add inserts a layer, rejecting duplicate names. The transplant engine
// addresses layers purely by name, so a collision would silently shadow a
// transplant target.
func (r *Registry) Add(l *Layer) error {
	name := l.Name()
	if name == "" {
		return fmt.Errorf("layer has no name")
	}
	if _, exists := r.layers[name]; exists {
		return fmt.Errorf("duplicate layer name %q", name)
	}
	r.layers[name] = l
	r.order = append(r.order, name)
	return nil
}

// Layer looks up a layer by name.
func (r *Registry) Layer(name string) (*Layer, bool) {
	l, ok := r.layers[name]
	return l, ok
}

// Names returns the layer names in insertion order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of layers in the registry.
func (r *Registry) Len() int {
	return len(r.order)
}

// Summary returns a human-readable listing of the registry.
func (r *Registry) Summary() string {
	summary := fmt.Sprintf("Registry: %d layers\n", r.Len())
	for i, name := range r.order {
		l := r.layers[name]
		summary += fmt.Sprintf("Layer %d: %s (%s)", i+1, name, l.Spec.Kind)
		if len(l.slotOrder) > 0 {
			summary += " slots:"
			for _, slot := range l.slotOrder {
				summary += fmt.Sprintf(" %s%v", slot, l.slots[slot].Shape)
			}
		}
		summary += "\n"
	}
	return summary
}
