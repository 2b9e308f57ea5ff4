// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package serialization saves and loads trained network parameters as .born
// v2 checkpoints and exports them as SafeTensors.
//
// Example:
//
//	err := serialization.Save("net.born", net.Params(), serialization.Header{
//	    ModelType:  "NeuralNet_3L",
//	    Checkpoint: serialization.NewCheckpointMeta(opt.Name(), res, opt.Config()),
//	})
//
//	params, header, err := serialization.Load("net.born")
package serialization

import (
	"io"

	"github.com/born-ml/netopt/internal/nn"
	"github.com/born-ml/netopt/internal/optim"
	"github.com/born-ml/netopt/internal/serialization"
)

// Header is the JSON header of a .born file.
type Header = serialization.Header

// CheckpointMeta records the training call that produced the parameters.
type CheckpointMeta = serialization.CheckpointMeta

// TensorMeta describes a tensor in the data section.
type TensorMeta = serialization.TensorMeta

// ReaderOptions configures how a checkpoint is read.
type ReaderOptions = serialization.ReaderOptions

// ValidationError provides detailed information about validation failures.
type ValidationError = serialization.ValidationError

// Validation levels.
const (
	ValidationStrict = serialization.ValidationStrict
	ValidationNormal = serialization.ValidationNormal
	ValidationNone   = serialization.ValidationNone
)

// Errors.
var (
	ErrChecksumMismatch   = serialization.ErrChecksumMismatch
	ErrHeaderTooLarge     = serialization.ErrHeaderTooLarge
	ErrInvalidMagic       = serialization.ErrInvalidMagic
	ErrUnsupportedVersion = serialization.ErrUnsupportedVersion
	ErrTruncated          = serialization.ErrTruncated
	ErrMissingTensor      = serialization.ErrMissingTensor
)

// NewCheckpointMeta captures a training result and its hyper-parameters.
func NewCheckpointMeta(optimizer string, res optim.Result, cfg optim.Config) *CheckpointMeta {
	return serialization.NewCheckpointMeta(optimizer, res, cfg)
}

// Write writes params and header to w.
func Write(w io.Writer, params nn.NetParams, header Header) error {
	return serialization.Write(w, params, header)
}

// Save writes params and header to the file at path.
func Save(path string, params nn.NetParams, header Header) error {
	return serialization.Save(path, params, header)
}

// Read reads a checkpoint from r with strict validation.
func Read(r io.Reader) (nn.NetParams, Header, error) { return serialization.Read(r) }

// ReadWithOptions reads a checkpoint from r.
func ReadWithOptions(r io.Reader, opts ReaderOptions) (nn.NetParams, Header, error) {
	return serialization.ReadWithOptions(r, opts)
}

// Load reads the checkpoint at path with strict validation.
func Load(path string) (nn.NetParams, Header, error) { return serialization.Load(path) }

// LoadInto reads the checkpoint at path into params of the same shape.
func LoadInto(path string, params nn.NetParams) (Header, error) {
	return serialization.LoadInto(path, params)
}

// SaveSafeTensors writes params to the file at path in SafeTensors format.
func SaveSafeTensors(path string, params nn.NetParams, metadata map[string]string) error {
	return serialization.SaveSafeTensors(path, params, metadata)
}
