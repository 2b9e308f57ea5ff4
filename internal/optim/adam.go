package optim

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/netopt/internal/nn"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Each layer keeps moving averages of its gradient (first moment) and of the
// squared gradient (second moment). Both start at zero and are bias corrected
// by the number of batch steps t taken in the current call:
//
//	p = β1·p + (1-β1)·g
//	v = β2·v + (1-β2)·g²
//	p̂ = p / (1-β1^t)
//	v̂ = v / (1-β2^t)
//	W = W - α · p̂ / (sqrt(v̂) + ε)
//
// The bias gradient mean(δ) is tracked with the same scheme and stepped with
// η instead of α.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
//
// Example:
//
//	cfg := optim.DefaultConfig()
//	cfg.Beta2 = 0.999
//	opt := optim.NewAdam(cfg)
//	res, err := opt.Optimize3(x, y, a, b, 0.01, nn.Tanh(), nn.Identity())
type Adam struct {
	engine
}

// NewAdam creates a new Adam optimizer.
func NewAdam(config Config) *Adam {
	return &Adam{engine{
		name:    "Adam",
		cfg:     config.withDefaults(),
		newRule: newAdamRule,
	}}
}

type adamRule struct {
	beta1, beta2 float64
	t            int             // Batch steps taken
	p, v         []*mat.Dense    // Weight moments per layer
	pb, vb       []*mat.VecDense // Bias moments per layer, nil without bias
}

func newAdamRule(params nn.NetParams, cfg Config) rule {
	nl := len(params)
	r := &adamRule{
		beta1: cfg.Beta,
		beta2: cfg.Beta2,
		p:     make([]*mat.Dense, nl),
		v:     make([]*mat.Dense, nl),
		pb:    make([]*mat.VecDense, nl),
		vb:    make([]*mat.VecDense, nl),
	}
	for l, p := range params {
		in, out := p.Dims()
		r.p[l] = mat.NewDense(in, out, nil)
		r.v[l] = mat.NewDense(in, out, nil)
		if p.HasBias() {
			r.pb[l] = mat.NewVecDense(out, nil)
			r.vb[l] = mat.NewVecDense(out, nil)
		}
	}
	return r
}

func (r *adamRule) advance() {
	r.t++
}

func (r *adamRule) delta(l int, g *mat.Dense, gb *mat.VecDense, alpha, eta float64) *nn.NetParam {
	c1 := 1 - math.Pow(r.beta1, float64(r.t))
	c2 := 1 - math.Pow(r.beta2, float64(r.t))

	gData := g.RawMatrix().Data
	r.step(gData, r.p[l].RawMatrix().Data, r.v[l].RawMatrix().Data, c1, c2, alpha)
	d := &nn.NetParam{W: g}

	if gb != nil && r.pb[l] != nil {
		r.step(gb.RawVector().Data, r.pb[l].RawVector().Data, r.vb[l].RawVector().Data, c1, c2, eta)
		d.B = gb
	}
	return d
}

// step updates the moments p and v from g and overwrites g with the
// bias-corrected step scaled by lr. All slices are contiguous and of equal
// length.
func (r *adamRule) step(g, p, v []float64, c1, c2, lr float64) {
	for i, gi := range g {
		p[i] = r.beta1*p[i] + (1-r.beta1)*gi
		v[i] = r.beta2*v[i] + (1-r.beta2)*gi*gi
		pHat := p[i] / c1
		vHat := v[i] / c2
		g[i] = lr * pHat / (math.Sqrt(vHat) + Epsilon)
	}
}
