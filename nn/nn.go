// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/netopt/internal/nn"
)

// NetParam holds the weights and optional bias of one layer.
type NetParam = nn.NetParam

// NetParams is an ordered stack of layer parameters, index 0 nearest the input.
type NetParams = nn.NetParams

// Layer is a weighted mapping from one layer boundary to the next.
type Layer = nn.Layer

// PlainMatrix is a bias-free layer.
type PlainMatrix = nn.PlainMatrix

// Activation describes an element-wise activation function.
type Activation = nn.Activation

// Bounds describes the output range of a bounded activation.
type Bounds = nn.Bounds

// Leaky ReLU slope and ELU scale.
const (
	LReLUAlpha = nn.LReLUAlpha
	ELUAlpha   = nn.ELUAlpha
)

// Identity returns the identity activation.
func Identity() Activation { return nn.Identity() }

// ReLU returns the rectified linear unit.
func ReLU() Activation { return nn.ReLU() }

// LeakyReLU returns the leaky rectified linear unit.
func LeakyReLU() Activation { return nn.LeakyReLU() }

// ELU returns the exponential linear unit.
func ELU() Activation { return nn.ELU() }

// Tanh returns the hyperbolic tangent activation.
func Tanh() Activation { return nn.Tanh() }

// Sigmoid returns the logistic activation.
func Sigmoid() Activation { return nn.Sigmoid() }

// ActivationByName looks up an activation by its registered name.
func ActivationByName(name string) (Activation, error) { return nn.ActivationByName(name) }

// ActivationNames lists the registered activation names.
func ActivationNames() []string { return nn.ActivationNames() }

// Repeat returns n copies of f.
func Repeat(f Activation, n int) []Activation { return nn.Repeat(f, n) }

// NewRand returns a deterministic generator for the given stream.
func NewRand(stream uint64) *rand.Rand { return nn.NewRand(stream) }

// Xavier returns a fanIn × fanOut matrix with Glorot uniform values.
func Xavier(fanIn, fanOut int, rng *rand.Rand) *mat.Dense { return nn.Xavier(fanIn, fanOut, rng) }

// NewNetParam creates a layer with Xavier weights and optional zero bias.
//
// Example:
//
//	p := nn.NewNetParam(4, 2, true, nn.NewRand(0))
//	out := p.Mul(x) // x·W + b
func NewNetParam(fanIn, fanOut int, bias bool, rng *rand.Rand) *NetParam {
	return nn.NewNetParam(fanIn, fanOut, bias, rng)
}

// NewNetParams creates a layer stack for the widths sizes[0] → sizes[1] → ...
func NewNetParams(sizes []int, bias bool, rng *rand.Rand) NetParams {
	return nn.NewNetParams(sizes, bias, rng)
}

// Reinit gives every layer fresh Xavier weights and zero biases.
func Reinit(ps NetParams, rng *rand.Rand) { nn.Reinit(ps, rng) }

// Forward runs a batch through a stack of layers and returns every
// activation, the input first and the output last.
func Forward(x *mat.Dense, layers []Layer, fns []Activation) []*mat.Dense {
	return nn.Forward(x, layers, fns)
}

// ForwardVec runs a single instance through a stack of layers.
func ForwardVec(z *mat.VecDense, layers []Layer, fns []Activation) *mat.VecDense {
	return nn.ForwardVec(z, layers, fns)
}

// SSE returns the sum of squared differences between y and yp.
func SSE(y, yp mat.Matrix) float64 { return nn.SSE(y, yp) }
