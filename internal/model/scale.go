package model

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/netopt/internal/nn"
)

// ScaleMargin is the fraction of a bounded activation's range kept free at
// each end when responses are rescaled into it.
const ScaleMargin = 0.1

// scaler maps every response column linearly from its observed [min, max]
// into [lo, hi] and back.
type scaler struct {
	min, max []float64
	lo, hi   float64
}

// newScaler returns a scaler into the inner part of b fitted to the columns
// of y, or nil when b is missing or not finite at both ends.
func newScaler(y *mat.Dense, b *nn.Bounds) *scaler {
	_, ny := y.Dims()
	lo, hi := make([]float64, ny), make([]float64, ny)
	for j := 0; j < ny; j++ {
		col := mat.Col(nil, j, y)
		lo[j] = floats.Min(col)
		hi[j] = floats.Max(col)
	}
	return scalerFor(b, lo, hi)
}

// scalerFor returns a scaler into the inner part of b for responses with the
// given per-column ranges, or nil when b is missing or not finite.
func scalerFor(b *nn.Bounds, ymin, ymax []float64) *scaler {
	if b == nil || math.IsInf(b.Lo, 0) || math.IsInf(b.Hi, 0) {
		return nil
	}
	margin := ScaleMargin * (b.Hi - b.Lo)
	return &scaler{min: ymin, max: ymax, lo: b.Lo + margin, hi: b.Hi - margin}
}

// forward maps y into [lo, hi]. A constant column maps to the midpoint.
func (s *scaler) forward(y *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, j int, v float64) float64 {
		span := s.max[j] - s.min[j]
		if span == 0 {
			return (s.lo + s.hi) / 2
		}
		return s.lo + (v-s.min[j])*(s.hi-s.lo)/span
	}, y)
	return &out
}

// inverse maps predictions back to the response scale.
func (s *scaler) inverse(yp *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, j int, v float64) float64 {
		span := s.max[j] - s.min[j]
		if span == 0 {
			return s.min[j]
		}
		return s.min[j] + (v-s.lo)*span/(s.hi-s.lo)
	}, yp)
	return &out
}

func (s *scaler) inverseVec(v *mat.VecDense) *mat.VecDense {
	m := s.inverse(mat.NewDense(1, v.Len(), mat.Col(nil, 0, v)))
	return mat.NewVecDense(v.Len(), m.RawRowView(0))
}
