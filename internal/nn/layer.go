package nn

import (
	"gonum.org/v1/gonum/mat"
)

// Layer is a weighted mapping from one layer boundary to the next.
//
// Two variants exist:
//   - *NetParam: weights plus optional bias
//   - PlainMatrix: weights only
//
// Both expose the same evaluation contract, so a model may mix them freely.
type Layer interface {
	// Dot evaluates the layer on one input vector.
	Dot(x *mat.VecDense) *mat.VecDense

	// Mul evaluates the layer on a batch whose rows are instances.
	Mul(x *mat.Dense) *mat.Dense

	// Dims returns the fan-in and fan-out.
	Dims() (in, out int)
}

// PlainMatrix is a bias-free layer backed by a bare weight matrix
// (fan-in × fan-out).
type PlainMatrix struct {
	W *mat.Dense
}

// Dims returns the fan-in and fan-out.
func (p PlainMatrix) Dims() (in, out int) {
	return p.W.Dims()
}

// Dot returns Wᵗ·x.
func (p PlainMatrix) Dot(x *mat.VecDense) *mat.VecDense {
	_, out := p.W.Dims()
	z := mat.NewVecDense(out, nil)
	z.MulVec(p.W.T(), x)
	return z
}

// Mul returns x·W.
func (p PlainMatrix) Mul(x *mat.Dense) *mat.Dense {
	var z mat.Dense
	z.Mul(x, p.W)
	return &z
}

// Forward runs a batch through a stack of layers.
//
// Layer l's activation is fns[l].FM(layers[l].Mul(previous)). The returned
// slice has len(layers)+1 entries: the input itself followed by every layer's
// activation, so the last entry is the network output.
func Forward(x *mat.Dense, layers []Layer, fns []Activation) []*mat.Dense {
	acts := make([]*mat.Dense, len(layers)+1)
	acts[0] = x
	for l, layer := range layers {
		acts[l+1] = fns[l].FM(layer.Mul(acts[l]))
	}
	return acts
}

// ForwardVec runs a single instance through a stack of layers and returns the
// output vector.
func ForwardVec(z *mat.VecDense, layers []Layer, fns []Activation) *mat.VecDense {
	a := z
	for l, layer := range layers {
		a = fns[l].FV(layer.Dot(a))
	}
	return a
}

var (
	_ Layer = (*NetParam)(nil)
	_ Layer = PlainMatrix{}
)
