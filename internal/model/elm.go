package model

import (
	"math/rand/v2"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/netopt/internal/nn"
	"github.com/born-ml/netopt/internal/optim"
)

// ELM3L1 is an extreme learning machine with one hidden layer.
//
// The hidden layer (weights plus bias, activation f0) is drawn at random and
// never trained. The output layer is a bias-free PlainMatrix with identity
// activation, fitted in one shot by least squares on the hidden features.
type ELM3L1 struct {
	hidden *nn.NetParam
	out    nn.PlainMatrix
	f0     nn.Activation
	log    logrus.FieldLogger
}

// NewELM3L1 creates an ELM with nz random hidden units.
func NewELM3L1(nx, nz, ny int, f0 nn.Activation, rng *rand.Rand) (*ELM3L1, error) {
	if nx <= 0 || nz <= 0 || ny <= 0 {
		return nil, errors.Wrapf(optim.ErrInvalidConfiguration, "layer widths %d, %d, %d", nx, nz, ny)
	}
	hidden := nn.NewNetParam(nx, nz, true, rng)
	for j := 0; j < nz; j++ {
		hidden.B.SetVec(j, rng.Float64()*2-1)
	}
	return &ELM3L1{
		hidden: hidden,
		out:    nn.PlainMatrix{W: mat.NewDense(nz, ny, nil)},
		f0:     f0,
		log:    logrus.StandardLogger(),
	}, nil
}

// SetLogger replaces the destination for training logs.
func (e *ELM3L1) SetLogger(l logrus.FieldLogger) { e.log = l }

// Hidden returns the activated hidden features for every row of x.
func (e *ELM3L1) Hidden(x *mat.Dense) *mat.Dense {
	return e.f0.FM(e.hidden.Mul(x))
}

// Train solves the output weights by least squares.
func (e *ELM3L1) Train(x, y *mat.Dense) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if me, ok := r.(mat.Error); ok {
				err = errors.Wrap(optim.ErrShapeMismatch, me.Error())
				return
			}
			panic(r)
		}
	}()

	z := e.Hidden(x)
	m, nz := z.Dims()
	if my, _ := y.Dims(); my != m {
		return errors.Wrapf(optim.ErrShapeMismatch, "x has %d rows, y has %d", m, my)
	}
	if m < nz {
		return errors.Wrapf(optim.ErrInvalidConfiguration, "%d instances cannot determine %d hidden weights", m, nz)
	}

	var w mat.Dense
	if err := w.Solve(z, y); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return errors.Wrap(err, "least squares")
		}
		e.log.WithFields(logrus.Fields{"model": "ELM3L1", "cond": float64(cond)}).Warn("hidden features are ill-conditioned")
	}
	e.out.W = &w
	e.log.WithFields(logrus.Fields{"model": "ELM3L1", "sse": nn.SSE(y, e.Predict(x))}).Debug("output layer solved")
	return nil
}

// Layers returns the hidden and output layers.
func (e *ELM3L1) Layers() []nn.Layer {
	return []nn.Layer{e.hidden, e.out}
}

// Predict returns the model output for every row of x.
func (e *ELM3L1) Predict(x *mat.Dense) *mat.Dense {
	return nn.Forward(x, e.Layers(), []nn.Activation{e.f0, nn.Identity()})[2]
}

// PredictVec returns the model output for a single instance.
func (e *ELM3L1) PredictVec(z *mat.VecDense) *mat.VecDense {
	return nn.ForwardVec(z, e.Layers(), []nn.Activation{e.f0, nn.Identity()})
}

// Test predicts x and measures the fit against y.
func (e *ELM3L1) Test(x, y *mat.Dense) QoF {
	return NewQoF(y, e.Predict(x))
}
