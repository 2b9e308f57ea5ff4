// Package optim implements the training engine for dense feed-forward
// networks.
//
// This package provides:
//   - Optimizer interface: mini-batch backpropagation for 2-layer, 3-layer
//     and N-layer networks
//   - SGD, SGDM (momentum) and Adam update rules
//   - StoppingRule: early termination with rollback to the best parameters
//   - AutoOptimize: learning-rate grid search
//
// Every optimizer shares one epoch loop and differs only in how it turns a
// layer's gradient into a parameter change.
//
// Example usage:
//
//	params := nn.NewNetParams([]int{4, 8, 1}, true, nn.NewRand(0))
//	fns := []nn.Activation{nn.Tanh(), nn.Identity()}
//
//	opt := optim.NewAdam(optim.DefaultConfig())
//	res, err := opt.Optimize(x, y, params, 0.05, fns)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Loss, res.Epochs)
package optim

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/netopt/internal/nn"
)

// Optimizer trains layered networks by mini-batch backpropagation.
//
// The three entry points share one loop; Optimize2 and Optimize3 are the
// 1-weight-layer and 2-weight-layer cases of Optimize.
//
// All entry points mutate params in place. When the stopping rule fires, the
// best parameters seen are copied back before returning.
type Optimizer interface {
	// Optimize trains an arbitrary stack of layers. fns[l] is applied after
	// params[l]. A non-positive eta selects the configured learning rate.
	Optimize(x, y *mat.Dense, params nn.NetParams, eta float64, fns []nn.Activation) (Result, error)

	// Optimize2 trains a network with no hidden layer.
	Optimize2(x, y *mat.Dense, b *nn.NetParam, eta float64, f nn.Activation) (Result, error)

	// Optimize3 trains a network with one hidden layer: a feeds the hidden
	// layer through f, b feeds the output through f1.
	Optimize3(x, y *mat.Dense, a, b *nn.NetParam, eta float64, f, f1 nn.Activation) (Result, error)

	// Name returns the update rule name ("SGD", "SGDM", "Adam").
	Name() string

	// Config returns the optimizer's hyper-parameters.
	Config() Config
}

// Result summarizes a training call.
type Result struct {
	Loss    float64   // Final sum of squared errors over the full dataset
	Epochs  int       // Epochs actually used
	Losses  []float64 // Loss after every executed epoch
	Eta     float64   // Initial learning rate of the call
	Stopped bool      // Whether the stopping rule ended training
	RunID   uuid.UUID // Identifies the call in logs and checkpoints
}

// rule turns a layer's gradient into the change to subtract from it.
//
// A rule is created per training call and may carry state (momentum,
// moments) across every batch and epoch of that call.
type rule interface {
	// advance is called once per batch, before any layer is updated.
	advance()

	// delta returns the change for layer l. g is the weight gradient
	// aᵗ·δ, gb the bias gradient mean(δ) or nil when the layer has no
	// bias. alpha is eta divided by the batch size.
	delta(l int, g *mat.Dense, gb *mat.VecDense, alpha, eta float64) *nn.NetParam
}

// engine implements the shared epoch loop for every update rule.
type engine struct {
	name    string
	cfg     Config
	newRule func(params nn.NetParams, cfg Config) rule
}

// Name returns the update rule name.
func (e *engine) Name() string {
	return e.name
}

// Config returns the optimizer's hyper-parameters.
func (e *engine) Config() Config {
	return e.cfg
}

// Optimize2 trains a single weight layer.
func (e *engine) Optimize2(x, y *mat.Dense, b *nn.NetParam, eta float64, f nn.Activation) (Result, error) {
	return e.Optimize(x, y, nn.NetParams{b}, eta, []nn.Activation{f})
}

// Optimize3 trains a network with one hidden layer.
func (e *engine) Optimize3(x, y *mat.Dense, a, b *nn.NetParam, eta float64, f, f1 nn.Activation) (Result, error) {
	return e.Optimize(x, y, nn.NetParams{a, b}, eta, []nn.Activation{f, f1})
}

// AutoOptimize searches [lo, hi] for the best learning rate using this
// optimizer. See the package-level AutoOptimize.
func (e *engine) AutoOptimize(x, y *mat.Dense, params nn.NetParams, lo, hi float64, fns []nn.Activation) (Result, error) {
	return AutoOptimize(x, y, params, lo, hi, fns, e.Optimize, e.cfg)
}

// Optimize trains params on (x, y) with the shared epoch Loop, running one
// forward/backward pass per batch and applying the update rule to every
// layer.
func (e *engine) Optimize(x, y *mat.Dense, params nn.NetParams, eta float64, fns []nn.Activation) (Result, error) {
	cfg := e.cfg
	if eta > 0 {
		cfg.Eta = eta
	}
	if len(params) == 0 {
		return Result{}, errors.Wrap(ErrInvalidConfiguration, "no layers to train")
	}
	if len(fns) != len(params) {
		return Result{}, errors.Wrapf(ErrInvalidConfiguration,
			"%d activations for %d layers", len(fns), len(params))
	}

	upd := e.newRule(params, cfg)
	layers := params.Layers()
	loop := &Loop[nn.NetParams]{
		Name:    e.name,
		Config:  cfg,
		Params:  params,
		Stopper: NewParamsStoppingRule(cfg.UpLimit),
		Restore: params.Set,
		Step: func(xb, yb *mat.Dense, lr float64) {
			backprop(xb, yb, params, fns, upd, lr)
		},
		Loss: func() float64 {
			acts := nn.Forward(x, layers, fns)
			return nn.SSE(y, acts[len(acts)-1])
		},
	}
	return loop.Run(x, y)
}

// backprop performs one forward/backward pass over a batch and updates every
// layer in place.
func backprop(x, y *mat.Dense, params nn.NetParams, fns []nn.Activation, upd rule, eta float64) {
	nl := len(params)
	acts := nn.Forward(x, params.Layers(), fns)

	// ε = yp - y
	var eps mat.Dense
	eps.Sub(acts[nl], y)

	deltas := make([]*mat.Dense, nl)
	d := fns[nl-1].DM(acts[nl])
	d.MulElem(d, &eps)
	deltas[nl-1] = d
	for l := nl - 2; l >= 0; l-- {
		var back mat.Dense
		back.Mul(deltas[l+1], params[l+1].W.T())
		d := fns[l].DM(acts[l+1])
		d.MulElem(d, &back)
		deltas[l] = d
	}

	rows, _ := x.Dims()
	alpha := eta / float64(rows)

	upd.advance()
	for l, p := range params {
		var g mat.Dense
		g.Mul(acts[l].T(), deltas[l])
		var gb *mat.VecDense
		if p.HasBias() {
			gb = nn.ColMeans(deltas[l])
		}
		p.Sub(upd.delta(l, &g, gb, alpha, eta))
	}
}
