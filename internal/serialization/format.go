package serialization

import (
	"fmt"
	"time"

	"github.com/born-ml/netopt/internal/optim"
)

// Format constants.
const (
	MagicBytes      = "BORN"
	FormatVersion   = 2    // With SHA-256 checksum
	HeaderAlignment = 64   // Tensor data starts on a 64-byte boundary
	FixedHeaderSize = 64   // Fixed header size (0x40 bytes)
	ChecksumSize    = 32   // SHA-256 checksum size
	ChecksumOffset  = 0x20 // Checksum offset in the fixed header
	DTypeFloat64    = "float64"
	float64Size     = 8
)

// Flags for the .born format.
const (
	FlagHasCheckpoint uint32 = 1 << 1 // bit 1: training result included
	FlagHasMetadata   uint32 = 1 << 2 // bit 2: custom metadata included
)

// Header is the JSON header of a .born file.
type Header struct {
	FormatVersion int               `json:"format_version"`       // Version of the .born format
	ModelType     string            `json:"model_type"`           // Model that owns the parameters (e.g. "NeuralNet_3L")
	CreatedAt     time.Time         `json:"created_at"`           // When the file was written
	Tensors       []TensorMeta      `json:"tensors"`              // Tensor metadata, filled by the writer
	Metadata      map[string]string `json:"metadata"`             // Custom metadata
	Checkpoint    *CheckpointMeta   `json:"checkpoint,omitempty"` // Training result (optional)
}

// CheckpointMeta records the training call that produced the parameters.
type CheckpointMeta struct {
	Optimizer   string             `json:"optimizer"`    // "SGD", "SGDM", "Adam", ...
	Loss        float64            `json:"loss"`         // Final sum of squared errors
	Epochs      int                `json:"epochs"`       // Epochs used
	Eta         float64            `json:"eta"`          // Initial learning rate
	Stopped     bool               `json:"stopped"`      // Whether early stopping fired
	RunID       string             `json:"run_id"`       // Training run identifier
	HyperParams map[string]float64 `json:"hyper_params"` // Named hyper-parameters
}

// NewCheckpointMeta captures a training result and the hyper-parameters that
// produced it.
func NewCheckpointMeta(optimizer string, res optim.Result, cfg optim.Config) *CheckpointMeta {
	hp := make(map[string]float64, len(optim.HyperParamNames))
	for _, name := range optim.HyperParamNames {
		if v, err := cfg.Get(name); err == nil {
			hp[name] = v
		}
	}
	return &CheckpointMeta{
		Optimizer:   optimizer,
		Loss:        res.Loss,
		Epochs:      res.Epochs,
		Eta:         res.Eta,
		Stopped:     res.Stopped,
		RunID:       res.RunID.String(),
		HyperParams: hp,
	}
}

// TensorMeta describes a tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // Tensor name (e.g. "layer.0.weight")
	DType  string `json:"dtype"`  // Always "float64"
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Bytes from the start of the data section
	Size   int64  `json:"size"`   // Size in bytes
}

// WeightName returns the tensor name of layer l's weights.
func WeightName(l int) string { return fmt.Sprintf("layer.%d.weight", l) }

// BiasName returns the tensor name of layer l's bias.
func BiasName(l int) string { return fmt.Sprintf("layer.%d.bias", l) }

// padding returns the bytes needed after pos to reach the data alignment.
func padding(pos int64) int64 {
	return (HeaderAlignment - (pos % HeaderAlignment)) % HeaderAlignment
}
