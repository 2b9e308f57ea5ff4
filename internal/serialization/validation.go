package serialization

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Limits applied while reading.
const (
	MaxHeaderSize = 100 * 1024 * 1024 // Maximum JSON header size
	MaxLayers     = 4096              // Maximum layers in one checkpoint
)

// ValidationLevel controls how much of a header is checked before decoding.
//
// Decoding itself always checks the rank, size and bounds of every tensor it
// reads, so a malformed file yields a ValidationError at every level.
type ValidationLevel int

const (
	// ValidationStrict checks the layer stack and the packed data layout (default).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks the layer stack but not the data layout.
	ValidationNormal
	// ValidationNone skips header checks and relies on decoding alone.
	ValidationNone
)

// Tensor kinds within a layer.
const (
	kindWeight = "weight"
	kindBias   = "bias"
)

// ParseTensorName splits a tensor name of the form layer.<l>.weight or
// layer.<l>.bias into its layer index and kind.
func ParseTensorName(name string) (layer int, kind string, err error) {
	parts := strings.Split(name, ".")
	if len(parts) != 3 || parts[0] != "layer" || (parts[2] != kindWeight && parts[2] != kindBias) {
		return 0, "", &ValidationError{Type: "invalid_name", Tensor: name, Details: "want layer.<l>.weight or layer.<l>.bias"}
	}
	l, convErr := strconv.Atoi(parts[1])
	if convErr != nil || l < 0 || l >= MaxLayers || strconv.Itoa(l) != parts[1] {
		return 0, "", &ValidationError{Type: "invalid_name", Tensor: name, Details: fmt.Sprintf("layer index %q", parts[1])}
	}
	return l, parts[2], nil
}

// elementCount returns the number of float64 values a shape holds, or false
// when a dimension is not positive or the byte size would overflow int64.
func elementCount(shape []int) (int64, bool) {
	const limit = math.MaxInt64 / float64Size
	n := int64(1)
	for _, d := range shape {
		if d <= 0 || int64(d) > limit/n {
			return 0, false
		}
		n *= int64(d)
	}
	return n, true
}

// checkTensor verifies the dtype, rank and byte size of one tensor.
func checkTensor(t *TensorMeta, rank int) error {
	if t.DType != DTypeFloat64 {
		return &ValidationError{Type: "unsupported_dtype", Tensor: t.Name, Details: t.DType}
	}
	if len(t.Shape) != rank {
		return &ValidationError{Type: "invalid_shape", Tensor: t.Name, Details: fmt.Sprintf("shape %v, want rank %d", t.Shape, rank)}
	}
	n, ok := elementCount(t.Shape)
	if !ok {
		return &ValidationError{Type: "invalid_shape", Tensor: t.Name, Details: fmt.Sprintf("shape %v", t.Shape)}
	}
	if t.Size != n*float64Size {
		return &ValidationError{
			Type:    "size_mismatch",
			Tensor:  t.Name,
			Details: fmt.Sprintf("shape %v needs %d bytes, header says %d", t.Shape, n*float64Size, t.Size),
		}
	}
	return nil
}

// ValidateLayers checks that the tensors describe a connected layer stack:
// layers 0..L-1 each with a 2-D weight, an optional bias as long as the
// weight has columns, and every layer's fan-in equal to the previous fan-out.
func ValidateLayers(tensors []TensorMeta) error {
	weights := make(map[int]*TensorMeta)
	biases := make(map[int]*TensorMeta)
	for i := range tensors {
		t := &tensors[i]
		l, kind, err := ParseTensorName(t.Name)
		if err != nil {
			return err
		}
		seen, rank := weights, 2
		if kind == kindBias {
			seen, rank = biases, 1
		}
		if _, dup := seen[l]; dup {
			return &ValidationError{Type: "duplicate_tensor", Tensor: t.Name, Details: "appears more than once"}
		}
		if err := checkTensor(t, rank); err != nil {
			return err
		}
		seen[l] = t
	}

	for l := 0; l < len(weights); l++ {
		w, ok := weights[l]
		if !ok {
			return &ValidationError{Type: "missing_layer", Tensor: WeightName(l), Details: fmt.Sprintf("stack has %d weights", len(weights))}
		}
		if b, ok := biases[l]; ok && b.Shape[0] != w.Shape[1] {
			return &ValidationError{
				Type:    "invalid_shape",
				Tensor:  b.Name,
				Tensor2: w.Name,
				Details: fmt.Sprintf("bias length %d, weight columns %d", b.Shape[0], w.Shape[1]),
			}
		}
		if l > 0 {
			if prev := weights[l-1]; prev.Shape[1] != w.Shape[0] {
				return &ValidationError{
					Type:    "layer_chain",
					Tensor:  prev.Name,
					Tensor2: w.Name,
					Details: fmt.Sprintf("fan-out %d feeds fan-in %d", prev.Shape[1], w.Shape[0]),
				}
			}
		}
	}
	for l, b := range biases {
		if _, ok := weights[l]; !ok {
			return &ValidationError{Type: "missing_layer", Tensor: b.Name, Details: "bias without weight"}
		}
	}
	return nil
}

// ValidateDataLayout checks that the tensors are packed back to back in
// header order and fill the data section exactly, which is how Write lays
// them out.
func ValidateDataLayout(tensors []TensorMeta, dataSize int64) error {
	var next int64
	for _, t := range tensors {
		if t.Offset != next || t.Size < 0 {
			return &ValidationError{
				Type:    "misplaced_tensor",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d size %d, expected offset %d", t.Offset, t.Size, next),
			}
		}
		next += t.Size
		if next > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  t.Name,
				Details: fmt.Sprintf("ends at %d, data section has %d bytes", next, dataSize),
			}
		}
	}
	if next != dataSize {
		return &ValidationError{Type: "trailing_data", Details: fmt.Sprintf("%d of %d data bytes unused", dataSize-next, dataSize)}
	}
	return nil
}

// ValidateHeader validates h against a data section of dataSize bytes.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}
	if err := ValidateLayers(h.Tensors); err != nil {
		return err
	}
	if level == ValidationStrict {
		return ValidateDataLayout(h.Tensors, dataSize)
	}
	return nil
}
