package checkpoints

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/nlpodyssey/safetensors"

	"github.com/cuong3004/mobilevit-go/tensor"
)

// LoadError reports an unreachable or malformed source weight archive.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to load weights from %q: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to load weights from %q: %s", e.Path, e.Reason)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError reports whether err is a LoadError, looking through wrapping.
func IsLoadError(err error) bool {
	var e *LoadError
	return errors.As(err, &e)
}

// ParamStore is an immutable, flattened mapping from dotted hierarchical
// parameter paths to tensors, mirroring the source model's module nesting.
// It is built once per run and never mutated afterwards.
type ParamStore struct {
	tensors map[string]*tensor.Tensor
	paths   []string
}

// NewParamStore builds a store from an existing path-to-tensor mapping. The
// map is copied; the tensors are shared.
func NewParamStore(params map[string]*tensor.Tensor) *ParamStore {
	store := &ParamStore{
		tensors: make(map[string]*tensor.Tensor, len(params)),
		paths:   make([]string, 0, len(params)),
	}
	for path, t := range params {
		store.tensors[path] = t
		store.paths = append(store.paths, path)
	}
	sort.Strings(store.paths)
	return store
}

// Tensor returns the tensor stored under path.
func (s *ParamStore) Tensor(path string) (*tensor.Tensor, bool) {
	t, ok := s.tensors[path]
	return t, ok
}

// Paths returns all parameter paths in sorted order.
func (s *ParamStore) Paths() []string {
	return append([]string(nil), s.paths...)
}

// Len returns the number of parameters in the store.
func (s *ParamStore) Len() int {
	return len(s.paths)
}

// LoadStore reads a safetensors archive from disk into a ParamStore. Only
// float32 payloads are accepted; the source checkpoints ship full-precision
// weights and a silent precision change would defeat the numeric-equivalence
// goal of the conversion.
func LoadStore(path string) (*ParamStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "cannot read file", Err: err}
	}

	st, err := safetensors.Deserialize(data)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "malformed safetensors archive", Err: err}
	}

	params := make(map[string]*tensor.Tensor)
	for _, named := range st.Tensors() {
		view := named.TensorView
		if view.DType() != safetensors.F32 {
			return nil, &LoadError{
				Path:   path,
				Reason: fmt.Sprintf("tensor %q has dtype %s, only F32 is supported", named.Name, view.DType()),
			}
		}

		shape := make([]int, len(view.Shape()))
		for i, dim := range view.Shape() {
			shape[i] = int(dim)
		}

		t, err := tensor.New(shape, bytesToFloat32(view.Data()))
		if err != nil {
			return nil, &LoadError{
				Path:   path,
				Reason: fmt.Sprintf("tensor %q is inconsistent", named.Name),
				Err:    err,
			}
		}
		params[named.Name] = t
	}

	store := NewParamStore(params)
	if store.Len() == 0 {
		return nil, &LoadError{Path: path, Reason: "archive contains no tensors"}
	}
	return store, nil
}

// bytesToFloat32 decodes little-endian float32 data, the byte order the
// safetensors format fixes.
func bytesToFloat32(raw []byte) []float32 {
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out
}

// float32ToBytes is the encoding counterpart of bytesToFloat32.
func float32ToBytes(values []float32) []byte {
	out := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}
