package model

import (
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/netopt/internal/nn"
	"github.com/born-ml/netopt/internal/optim"
	"github.com/born-ml/netopt/internal/parallel"
)

// CNN1D is a 1-D convolutional network: one valid convolution filter of
// width nc slides over each input row, f0 activates the nx-nc+1 feature map,
// and a dense layer with bias maps it to ny outputs through f1.
//
// Training is plain mini-batch gradient descent on the shared optim.Loop,
// so batching, early stopping and learning-rate adjustment match the
// optimizers. The filter is kept as a bias-less 1×nc NetParam so the
// stopping rule snapshots it with the dense layer. The convolution itself is
// spread over row ranges with the parallel package.
type CNN1D struct {
	nx     int
	filter *nn.NetParam
	out    *nn.NetParam
	f0, f1 nn.Activation
	cfg    optim.Config
	par    parallel.Config
}

// NewCNN1D creates a CNN1D with Xavier-initialized filter and dense layer.
func NewCNN1D(nx, nc, ny int, f0, f1 nn.Activation, cfg optim.Config, rng *rand.Rand) (*CNN1D, error) {
	if nc <= 0 || nc > nx {
		return nil, errors.Wrapf(optim.ErrInvalidConfiguration, "filter width %d for input width %d", nc, nx)
	}
	if ny <= 0 {
		return nil, errors.Wrapf(optim.ErrInvalidConfiguration, "output width %d", ny)
	}
	return &CNN1D{
		nx:     nx,
		filter: nn.NewNetParam(1, nc, false, rng),
		out:    nn.NewNetParam(nx-nc+1, ny, true, rng),
		f0:     f0,
		f1:     f1,
		cfg:    cfg,
		par:    parallel.DefaultConfig(),
	}, nil
}

// Filter returns the live convolution filter (1×nc weights, no bias).
func (c *CNN1D) Filter() *nn.NetParam { return c.filter }

// Output returns the live dense layer ((nx-nc+1)×ny weights plus bias).
func (c *CNN1D) Output() *nn.NetParam { return c.out }

// Params returns the filter and the dense layer as one stack.
func (c *CNN1D) Params() nn.NetParams { return nn.NetParams{c.filter, c.out} }

// conv applies the filter to every row of x.
func (c *CNN1D) conv(x *mat.Dense) *mat.Dense {
	m, _ := x.Dims()
	_, nc := c.filter.Dims()
	nz := c.nx - nc + 1
	w := c.filter.W.RawRowView(0)

	phi := mat.NewDense(m, nz, nil)
	parallel.Rows(m, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			row := x.RawRowView(i)
			out := phi.RawRowView(i)
			for j := range out {
				var s float64
				for k, wk := range w {
					s += wk * row[j+k]
				}
				out[j] = s
			}
		}
	}, c.par)
	return phi
}

// forward returns the feature map activation and the output.
func (c *CNN1D) forward(x *mat.Dense) (z, yp *mat.Dense) {
	z = c.f0.FM(c.conv(x))
	yp = c.f1.FM(c.out.Mul(z))
	return z, yp
}

// step performs one gradient step on a batch.
func (c *CNN1D) step(x, y *mat.Dense, eta float64) {
	z, yp := c.forward(x)

	var eps mat.Dense
	eps.Sub(yp, y)
	d1 := c.f1.DM(yp)
	d1.MulElem(d1, &eps)

	var back mat.Dense
	back.Mul(d1, c.out.W.T())
	d0 := c.f0.DM(z)
	d0.MulElem(d0, &back)

	rows, nz := d0.Dims()
	alpha := eta / float64(rows)

	// Filter gradient: gc[k] = Σ_i Σ_j d0[i,j]·x[i,j+k]
	w := c.filter.W.RawRowView(0)
	gc := make([]float64, len(w))
	for i := 0; i < rows; i++ {
		xr := x.RawRowView(i)
		dr := d0.RawRowView(i)
		for k := range gc {
			for j := 0; j < nz; j++ {
				gc[k] += dr[j] * xr[j+k]
			}
		}
	}

	var g mat.Dense
	g.Mul(z.T(), d1)
	g.Scale(alpha, &g)
	gb := nn.ColMeans(d1)
	gb.ScaleVec(eta, gb)
	c.out.Sub(&nn.NetParam{W: &g, B: gb})

	for k := range w {
		w[k] -= alpha * gc[k]
	}
}

// Train fits the network to (x, y).
func (c *CNN1D) Train(x, y *mat.Dense) (optim.Result, error) {
	if _, cols := x.Dims(); cols != c.nx {
		return optim.Result{}, errors.Wrapf(optim.ErrShapeMismatch, "x has %d columns, model expects %d", cols, c.nx)
	}
	params := c.Params()
	loop := &optim.Loop[nn.NetParams]{
		Name:    "CNN1D",
		Config:  c.cfg,
		Params:  params,
		Stopper: optim.NewParamsStoppingRule(c.cfg.UpLimit),
		Restore: params.Set,
		Step:    c.step,
		Loss: func() float64 {
			_, yp := c.forward(x)
			return nn.SSE(y, yp)
		},
	}
	return loop.Run(x, y)
}

// Predict returns the network output for every row of x.
func (c *CNN1D) Predict(x *mat.Dense) *mat.Dense {
	_, yp := c.forward(x)
	return yp
}

// Test predicts x and measures the fit against y.
func (c *CNN1D) Test(x, y *mat.Dense) QoF {
	return NewQoF(y, c.Predict(x))
}
