// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the layer parameters and activation functions trained
// by the optim package.
//
// # Overview
//
// This package contains:
//   - NetParam: weight matrix plus optional bias of one layer
//   - PlainMatrix: bias-free layer backed by a bare weight matrix
//   - Activations: id, reLU, lreLU, eLU, tanh, sigmoid
//   - Initialization: Xavier, seeded random streams
//
// Matrices are gonum *mat.Dense values laid out fan-in × fan-out, so a batch
// x whose rows are instances maps to x·W + b.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/netopt/nn"
//	)
//
//	func main() {
//	    params := nn.NewNetParams([]int{4, 8, 1}, true, nn.NewRand(0))
//	    fns := []nn.Activation{nn.Tanh(), nn.Identity()}
//
//	    acts := nn.Forward(x, params.Layers(), fns)
//	    yp := acts[len(acts)-1]
//	}
//
// # Activations
//
// Every Activation carries its derivative expressed in terms of its output,
// and the output Bounds for bounded functions:
//
//	f, err := nn.ActivationByName("sigmoid")
//	d := f.DM(f.FM(z))
package nn
