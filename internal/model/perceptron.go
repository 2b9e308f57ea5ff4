package model

import (
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/netopt/internal/nn"
	"github.com/born-ml/netopt/internal/optim"
)

// Perceptron is a single-output network whose parameter is one weight
// vector b: yp = f(x·b).
//
// It trains by mini-batch gradient descent on the shared optim.Loop, using
// the vector stopping rule to keep the best b.
type Perceptron struct {
	b   *mat.VecDense
	f   nn.Activation
	cfg optim.Config
}

// NewPerceptron creates a perceptron over nx inputs with small random
// weights. Put a column of ones in x for an intercept.
func NewPerceptron(nx int, f nn.Activation, cfg optim.Config, rng *rand.Rand) (*Perceptron, error) {
	if nx <= 0 {
		return nil, errors.Wrapf(optim.ErrInvalidConfiguration, "input width %d", nx)
	}
	w := nn.Xavier(nx, 1, rng)
	return &Perceptron{
		b:   mat.NewVecDense(nx, mat.Col(nil, 0, w)),
		f:   f,
		cfg: cfg,
	}, nil
}

// Params returns the live weight vector.
func (p *Perceptron) Params() *mat.VecDense { return p.b }

func (p *Perceptron) predict(x *mat.Dense) *mat.Dense {
	m, _ := x.Dims()
	var z mat.VecDense
	z.MulVec(x, p.b)
	return p.f.FM(mat.NewDense(m, 1, mat.Col(nil, 0, &z)))
}

// step performs one gradient step on a batch: b -= α · xᵗ·(f'(yp) ⊙ ε).
func (p *Perceptron) step(x, y *mat.Dense, eta float64) {
	yp := p.predict(x)
	var eps mat.Dense
	eps.Sub(yp, y)
	d := p.f.DM(yp)
	d.MulElem(d, &eps)

	rows, _ := x.Dims()
	var g mat.VecDense
	g.MulVec(x.T(), d.ColView(0))
	p.b.AddScaledVec(p.b, -eta/float64(rows), &g)
}

// Train fits b to (x, y).
func (p *Perceptron) Train(x *mat.Dense, y *mat.VecDense) (optim.Result, error) {
	if _, cols := x.Dims(); cols != p.b.Len() {
		return optim.Result{}, errors.Wrapf(optim.ErrShapeMismatch, "x has %d columns, model expects %d", cols, p.b.Len())
	}
	ym := mat.NewDense(y.Len(), 1, mat.Col(nil, 0, y))
	loop := &optim.Loop[*mat.VecDense]{
		Name:    "Perceptron",
		Config:  p.cfg,
		Params:  p.b,
		Stopper: optim.NewVectorStoppingRule(p.cfg.UpLimit),
		Restore: func(best *mat.VecDense) { p.b.CopyVec(best) },
		Step:    p.step,
		Loss:    func() float64 { return nn.SSE(ym, p.predict(x)) },
	}
	return loop.Run(x, ym)
}

// Predict returns the output for every row of x.
func (p *Perceptron) Predict(x *mat.Dense) *mat.VecDense {
	yp := p.predict(x)
	return mat.VecDenseCopyOf(yp.ColView(0))
}

// PredictVec returns the output for a single instance.
func (p *Perceptron) PredictVec(z *mat.VecDense) float64 {
	return p.f.F(mat.Dot(z, p.b))
}

// Test predicts x and measures the fit against y.
func (p *Perceptron) Test(x *mat.Dense, y *mat.VecDense) QoF {
	ym := mat.NewDense(y.Len(), 1, mat.Col(nil, 0, y))
	return NewQoF(ym, p.predict(x))
}
