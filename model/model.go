// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package model provides the network models trained by the optim package:
// dense networks with 2, 3 or more layers, a 1-D convolutional network, an
// extreme learning machine and a perceptron.
//
// Example:
//
//	opt := optim.NewAdam(optim.DefaultConfig())
//	net, err := model.New3L(4, 8, 1, nn.Tanh(), nn.Identity(), opt, nn.NewRand(0))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := net.Train(x, y)
//	fmt.Println(res.Loss, net.Test(x, y))
package model

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/netopt/internal/model"
	"github.com/born-ml/netopt/internal/nn"
	"github.com/born-ml/netopt/internal/optim"
)

// NeuralNet is a dense feed-forward network.
type NeuralNet = model.NeuralNet

// CNN1D is a 1-D convolutional network.
type CNN1D = model.CNN1D

// ELM3L1 is an extreme learning machine with one hidden layer.
type ELM3L1 = model.ELM3L1

// Perceptron is a single-output network with a vector parameter.
type Perceptron = model.Perceptron

// QoF holds the quality-of-fit measures of a prediction.
type QoF = model.QoF

// ScaleMargin is the fraction of a bounded activation's range kept free at
// each end when responses are rescaled into it.
const ScaleMargin = model.ScaleMargin

// Checkpoint metadata keys written by NeuralNet.ScaleMetadata.
const (
	MetaResponseMin = model.MetaResponseMin
	MetaResponseMax = model.MetaResponseMax
)

// New2L creates a network without a hidden layer.
func New2L(nx, ny int, f nn.Activation, opt optim.Optimizer, rng *rand.Rand) (*NeuralNet, error) {
	return model.New2L(nx, ny, f, opt, rng)
}

// New3L creates a network with one hidden layer.
func New3L(nx, nz, ny int, f, f1 nn.Activation, opt optim.Optimizer, rng *rand.Rand) (*NeuralNet, error) {
	return model.New3L(nx, nz, ny, f, f1, opt, rng)
}

// NewXL creates a network with any number of layers.
func NewXL(sizes []int, fns []nn.Activation, opt optim.Optimizer, rng *rand.Rand) (*NeuralNet, error) {
	return model.NewXL(sizes, fns, opt, rng)
}

// NewCNN1D creates a 1-D convolutional network.
func NewCNN1D(nx, nc, ny int, f0, f1 nn.Activation, cfg optim.Config, rng *rand.Rand) (*CNN1D, error) {
	return model.NewCNN1D(nx, nc, ny, f0, f1, cfg, rng)
}

// NewELM3L1 creates an extreme learning machine.
func NewELM3L1(nx, nz, ny int, f0 nn.Activation, rng *rand.Rand) (*ELM3L1, error) {
	return model.NewELM3L1(nx, nz, ny, f0, rng)
}

// NewPerceptron creates a perceptron.
func NewPerceptron(nx int, f nn.Activation, cfg optim.Config, rng *rand.Rand) (*Perceptron, error) {
	return model.NewPerceptron(nx, f, cfg, rng)
}

// NewQoF compares actual responses y with predictions yp.
func NewQoF(y, yp *mat.Dense) QoF { return model.NewQoF(y, yp) }
