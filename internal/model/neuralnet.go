// Package model provides the network models trained by the optim engine.
//
// Models:
//   - NeuralNet: dense feed-forward network with 2, 3 or any number of layers
//   - CNN1D: one valid 1-D convolution filter followed by a dense layer
//   - ELM3L1: extreme learning machine with a fixed random hidden layer
//   - Perceptron: single-output network with a vector parameter
//
// Every model reports its quality of fit as a QoF.
package model

import (
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/netopt/internal/nn"
	"github.com/born-ml/netopt/internal/optim"
)

// NeuralNet is a dense feed-forward network.
//
// Layer l maps through params[l] and then fns[l]. When the output activation
// has finite bounds, Train rescales the response into them (see ScaleMargin)
// and Predict maps predictions back.
//
// Example:
//
//	opt := optim.NewAdam(optim.DefaultConfig())
//	net, err := model.New3L(4, 8, 1, nn.Tanh(), nn.Identity(), opt, nn.NewRand(0))
//	res, err := net.Train(x, y)
//	qof := net.Test(x, y)
type NeuralNet struct {
	params nn.NetParams
	fns    []nn.Activation
	opt    optim.Optimizer
	scale  *scaler
}

// New2L creates a network without a hidden layer.
func New2L(nx, ny int, f nn.Activation, opt optim.Optimizer, rng *rand.Rand) (*NeuralNet, error) {
	return NewXL([]int{nx, ny}, []nn.Activation{f}, opt, rng)
}

// New3L creates a network with one hidden layer of nz units.
func New3L(nx, nz, ny int, f, f1 nn.Activation, opt optim.Optimizer, rng *rand.Rand) (*NeuralNet, error) {
	return NewXL([]int{nx, nz, ny}, []nn.Activation{f, f1}, opt, rng)
}

// NewXL creates a network with the layer widths sizes (input first, output
// last) and one activation per weight layer.
func NewXL(sizes []int, fns []nn.Activation, opt optim.Optimizer, rng *rand.Rand) (*NeuralNet, error) {
	if len(sizes) < 2 {
		return nil, errors.Wrapf(optim.ErrInvalidConfiguration, "need at least 2 layer widths, got %d", len(sizes))
	}
	if len(fns) != len(sizes)-1 {
		return nil, errors.Wrapf(optim.ErrInvalidConfiguration,
			"%d activations for %d weight layers", len(fns), len(sizes)-1)
	}
	for i, n := range sizes {
		if n <= 0 {
			return nil, errors.Wrapf(optim.ErrInvalidConfiguration, "layer %d has width %d", i, n)
		}
	}
	if opt == nil {
		return nil, errors.Wrap(optim.ErrInvalidConfiguration, "nil optimizer")
	}
	return &NeuralNet{
		params: nn.NewNetParams(sizes, true, rng),
		fns:    fns,
		opt:    opt,
	}, nil
}

// Params returns the live layer parameters.
func (n *NeuralNet) Params() nn.NetParams {
	return n.params
}

// Activations returns the per-layer activation functions.
func (n *NeuralNet) Activations() []nn.Activation {
	return n.fns
}

// Optimizer returns the optimizer used by Train.
func (n *NeuralNet) Optimizer() optim.Optimizer {
	return n.opt
}

// Train fits the network to (x, y) at the optimizer's configured learning
// rate.
func (n *NeuralNet) Train(x, y *mat.Dense) (optim.Result, error) {
	ys := n.prepare(y)
	switch len(n.params) {
	case 1:
		return n.opt.Optimize2(x, ys, n.params[0], 0, n.fns[0])
	case 2:
		return n.opt.Optimize3(x, ys, n.params[0], n.params[1], 0, n.fns[0], n.fns[1])
	default:
		return n.opt.Optimize(x, ys, n.params, 0, n.fns)
	}
}

// TrainAuto fits the network after searching [lo, hi] for the best learning
// rate. Weights are re-initialized for every trial.
func (n *NeuralNet) TrainAuto(x, y *mat.Dense, lo, hi float64) (optim.Result, error) {
	ys := n.prepare(y)
	return optim.AutoOptimize(x, ys, n.params, lo, hi, n.fns, n.opt.Optimize, n.opt.Config())
}

// prepare fixes the response scaling for a training call.
func (n *NeuralNet) prepare(y *mat.Dense) *mat.Dense {
	n.scale = newScaler(y, n.fns[len(n.fns)-1].Bounds)
	if n.scale == nil {
		return y
	}
	return n.scale.forward(y)
}

// Checkpoint metadata keys for the response scaling of a bounded output.
const (
	MetaResponseMin = "response_min"
	MetaResponseMax = "response_max"
)

// ScaleMetadata returns the response scaling fixed by the last training call
// as checkpoint metadata, or nil when the output is not rescaled.
func (n *NeuralNet) ScaleMetadata() map[string]string {
	if n.scale == nil {
		return nil
	}
	return map[string]string{
		MetaResponseMin: formatFloats(n.scale.min),
		MetaResponseMax: formatFloats(n.scale.max),
	}
}

// RestoreScale re-establishes the response scaling recorded by ScaleMetadata,
// typically after loading parameters from a checkpoint. Metadata without the
// scaling keys clears it.
func (n *NeuralNet) RestoreScale(meta map[string]string) error {
	rawMin, okMin := meta[MetaResponseMin]
	rawMax, okMax := meta[MetaResponseMax]
	if !okMin && !okMax {
		n.scale = nil
		return nil
	}
	bounds := n.fns[len(n.fns)-1].Bounds
	if !okMin || !okMax || bounds == nil {
		return errors.Wrap(optim.ErrInvalidConfiguration, "response scaling needs both ranges and a bounded output activation")
	}
	ymin, err := parseFloats(rawMin)
	if err != nil {
		return errors.Wrap(err, MetaResponseMin)
	}
	ymax, err := parseFloats(rawMax)
	if err != nil {
		return errors.Wrap(err, MetaResponseMax)
	}
	_, ny := n.params[len(n.params)-1].Dims()
	if len(ymin) != ny || len(ymax) != ny {
		return errors.Wrapf(optim.ErrShapeMismatch, "response ranges have %d and %d columns, output has %d", len(ymin), len(ymax), ny)
	}
	n.scale = scalerFor(bounds, ymin, ymax)
	return nil
}

func formatFloats(v []float64) string {
	s := make([]string, len(v))
	for i, x := range v {
		s[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return strings.Join(s, ",")
}

func parseFloats(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	v := make([]float64, len(parts))
	for i, p := range parts {
		x, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "value %d", i)
		}
		v[i] = x
	}
	return v, nil
}

// Predict returns the network output for every row of x, on the response
// scale seen by the last training call.
func (n *NeuralNet) Predict(x *mat.Dense) *mat.Dense {
	acts := nn.Forward(x, n.params.Layers(), n.fns)
	yp := acts[len(acts)-1]
	if n.scale != nil {
		return n.scale.inverse(yp)
	}
	return yp
}

// PredictVec returns the network output for a single instance.
func (n *NeuralNet) PredictVec(z *mat.VecDense) *mat.VecDense {
	yp := nn.ForwardVec(z, n.params.Layers(), n.fns)
	if n.scale != nil {
		return n.scale.inverseVec(yp)
	}
	return yp
}

// Test predicts x and measures the fit against y.
func (n *NeuralNet) Test(x, y *mat.Dense) QoF {
	return NewQoF(y, n.Predict(x))
}

// Transfer seeds layer l with the leading block of a donor layer, typically
// one taken from a larger network trained on a related task. The donor must
// be at least as large as layer l in both dimensions.
func (n *NeuralNet) Transfer(l int, donor *nn.NetParam) error {
	if l < 0 || l >= len(n.params) {
		return errors.Wrapf(optim.ErrInvalidConfiguration, "layer %d out of range [0, %d)", l, len(n.params))
	}
	in, out := n.params[l].Dims()
	din, dout := donor.Dims()
	if din < in || dout < out {
		return errors.Wrapf(optim.ErrShapeMismatch,
			"donor %dx%d smaller than layer %d (%dx%d)", din, dout, l, in, out)
	}
	t := donor.Trim(in, out)
	n.params[l].W.Copy(t.W)
	if n.params[l].B != nil {
		if t.B != nil {
			n.params[l].B.CopyVec(t.B)
		} else {
			n.params[l].B.Zero()
		}
	}
	return nil
}
