package optim

import (
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/netopt/internal/nn"
)

// SGD implements plain mini-batch Stochastic Gradient Descent.
//
// Update rule per layer, with α = η / batch size:
//
//	W = W - α · aᵗ·δ
//	b = b - η · mean(δ)
//
// No state is carried between batches.
//
// Example:
//
//	opt := optim.NewSGD(optim.DefaultConfig())
//	res, err := opt.Optimize2(x, y, b, 0.1, nn.Sigmoid())
type SGD struct {
	engine
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config Config) *SGD {
	return &SGD{engine{
		name:    "SGD",
		cfg:     config.withDefaults(),
		newRule: func(nn.NetParams, Config) rule { return sgdRule{} },
	}}
}

type sgdRule struct{}

func (sgdRule) advance() {}

func (sgdRule) delta(_ int, g *mat.Dense, gb *mat.VecDense, alpha, eta float64) *nn.NetParam {
	g.Scale(alpha, g)
	d := &nn.NetParam{W: g}
	if gb != nil {
		gb.ScaleVec(eta, gb)
		d.B = gb
	}
	return d
}

// SGDM implements SGD with momentum.
//
// Each layer keeps a momentum matrix p, an exponential moving average of its
// gradient. The step interpolates between the raw gradient and p:
//
//	p = β·p + (1-β)·g
//	W = W - α · ((1-ν)·g + ν·p)
//	b = b - η · mean(δ)
//
// ν = 0 reduces to SGD; ν = 1 is normalized heavy-ball momentum.
type SGDM struct {
	engine
}

// NewSGDM creates a new SGD-with-momentum optimizer.
func NewSGDM(config Config) *SGDM {
	return &SGDM{engine{
		name:    "SGDM",
		cfg:     config.withDefaults(),
		newRule: newMomentumRule,
	}}
}

type momentumRule struct {
	beta, nu float64
	p        []*mat.Dense // Momentum per layer
}

func newMomentumRule(params nn.NetParams, cfg Config) rule {
	r := &momentumRule{beta: cfg.Beta, nu: cfg.Nu, p: make([]*mat.Dense, len(params))}
	for l, p := range params {
		in, out := p.Dims()
		r.p[l] = mat.NewDense(in, out, nil)
	}
	return r
}

func (r *momentumRule) advance() {}

func (r *momentumRule) delta(l int, g *mat.Dense, gb *mat.VecDense, alpha, eta float64) *nn.NetParam {
	p := r.p[l]

	// p = β·p + (1-β)·g
	var scaled mat.Dense
	scaled.Scale(1-r.beta, g)
	p.Scale(r.beta, p)
	p.Add(p, &scaled)

	// α·((1-ν)·g + ν·p)
	var mom mat.Dense
	mom.Scale(r.nu, p)
	g.Scale(1-r.nu, g)
	g.Add(g, &mom)
	g.Scale(alpha, g)

	d := &nn.NetParam{W: g}
	if gb != nil {
		gb.ScaleVec(eta, gb)
		d.B = gb
	}
	return d
}
