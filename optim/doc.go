// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the backpropagation optimizers for dense networks.
//
// # Overview
//
// This package contains:
//   - SGD: mini-batch Stochastic Gradient Descent
//   - SGDM: SGD with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - StoppingRule: early termination with rollback to the best parameters
//   - AutoOptimize: learning-rate grid search
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/netopt/nn"
//	    "github.com/born-ml/netopt/optim"
//	)
//
//	func main() {
//	    params := nn.NewNetParams([]int{4, 8, 1}, true, nn.NewRand(0))
//	    fns := []nn.Activation{nn.Tanh(), nn.Identity()}
//
//	    opt := optim.NewAdam(optim.DefaultConfig())
//	    res, err := opt.Optimize(x, y, params, 0.05, fns)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(res.Loss, res.Epochs)
//	}
//
// # Hyper-parameters
//
// Config fields can be set directly or by name:
//
//	cfg := optim.DefaultConfig()
//	err := cfg.ParseAssignments([]string{"eta=0.05", "bSize=10"})
package optim
