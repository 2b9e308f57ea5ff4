package nn

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// NewRand returns a deterministic generator for the given stream.
//
// Stream 0 is what tests use for reproducible weights.
func NewRand(stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(stream, stream^0x9e3779b97f4a7c15))
}

// Xavier (Glorot) initialization for a fanIn × fanOut weight matrix.
//
// Values are drawn from U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out))).
func Xavier(fanIn, fanOut int, rng *rand.Rand) *mat.Dense {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	data := make([]float64, fanIn*fanOut)
	for i := range data {
		data[i] = (rng.Float64()*2.0 - 1.0) * bound
	}
	return mat.NewDense(fanIn, fanOut, data)
}

// NewNetParam creates a layer with Xavier weights and, if bias is set, a
// zero bias vector.
func NewNetParam(fanIn, fanOut int, bias bool, rng *rand.Rand) *NetParam {
	p := &NetParam{W: Xavier(fanIn, fanOut, rng)}
	if bias {
		p.B = mat.NewVecDense(fanOut, nil)
	}
	return p
}

// NewNetParams creates a layer stack for the widths sizes[0] → sizes[1] → ...
//
// sizes must hold at least two entries (input and output width).
func NewNetParams(sizes []int, bias bool, rng *rand.Rand) NetParams {
	ps := make(NetParams, len(sizes)-1)
	for l := range ps {
		ps[l] = NewNetParam(sizes[l], sizes[l+1], bias, rng)
	}
	return ps
}

// Reinit replaces the weights of every layer with fresh Xavier values and
// zeroes the biases, keeping all shapes.
func Reinit(ps NetParams, rng *rand.Rand) {
	for _, p := range ps {
		in, out := p.W.Dims()
		p.W.Copy(Xavier(in, out, rng))
		if p.B != nil {
			p.B.Zero()
		}
	}
}
