// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/netopt/internal/nn"
	"github.com/born-ml/netopt/internal/optim"
)

// Optimizer trains layered networks by mini-batch backpropagation.
type Optimizer = optim.Optimizer

// Config holds the hyper-parameters of a training call.
type Config = optim.Config

// Result summarizes a training call.
type Result = optim.Result

// OptimizeFunc is the signature of Optimizer.Optimize.
type OptimizeFunc = optim.OptimizeFunc

// SGD is plain mini-batch Stochastic Gradient Descent.
type SGD = optim.SGD

// SGDM is SGD with momentum.
type SGDM = optim.SGDM

// Adam is the Adaptive Moment Estimation optimizer.
type Adam = optim.Adam

// StoppingRule halts training once the loss keeps getting worse.
type StoppingRule[T any] = optim.StoppingRule[T]

// PermGenerator produces permutations of the instance indices.
type PermGenerator = optim.PermGenerator

// Loop is the epoch skeleton shared by every trainer.
type Loop[T any] = optim.Loop[T]

// Errors.
var (
	ErrInvalidConfiguration = optim.ErrInvalidConfiguration
	ErrNoConvergence        = optim.ErrNoConvergence
	ErrShapeMismatch        = optim.ErrShapeMismatch
)

// HyperParamNames lists the names accepted by Config.Get and Config.Set.
var HyperParamNames = optim.HyperParamNames

// DefaultConfig returns the default hyper-parameters.
func DefaultConfig() Config { return optim.DefaultConfig() }

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	opt := optim.NewSGD(optim.DefaultConfig())
//	res, err := opt.Optimize2(x, y, b, 0.1, nn.Sigmoid())
func NewSGD(config Config) *SGD { return optim.NewSGD(config) }

// NewSGDM creates a new SGD-with-momentum optimizer.
func NewSGDM(config Config) *SGDM { return optim.NewSGDM(config) }

// NewAdam creates a new Adam optimizer.
//
// Example:
//
//	cfg := optim.DefaultConfig()
//	cfg.Beta, cfg.Beta2 = 0.9, 0.999
//	opt := optim.NewAdam(cfg)
func NewAdam(config Config) *Adam { return optim.NewAdam(config) }

// NewParamsStoppingRule creates a stopping rule for layered networks.
func NewParamsStoppingRule(upLimit int) *StoppingRule[nn.NetParams] {
	return optim.NewParamsStoppingRule(upLimit)
}

// NewVectorStoppingRule creates a stopping rule for single-vector models.
func NewVectorStoppingRule(upLimit int) *StoppingRule[*mat.VecDense] {
	return optim.NewVectorStoppingRule(upLimit)
}

// NewPermGenerator creates a permutation generator over m indices.
func NewPermGenerator(m int, stream uint64, randomize bool) *PermGenerator {
	return optim.NewPermGenerator(m, stream, randomize)
}

// AutoOptimize picks a learning rate in [lo, hi] by grid search.
func AutoOptimize(x, y *mat.Dense, params nn.NetParams, lo, hi float64,
	fns []nn.Activation, optimize OptimizeFunc, cfg Config,
) (Result, error) {
	return optim.AutoOptimize(x, y, params, lo, hi, fns, optimize, cfg)
}
