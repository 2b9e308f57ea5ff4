package nn

import (
	"gonum.org/v1/gonum/mat"
)

// NetParam holds the trainable state of one layer: a weight matrix and an
// optional bias vector.
//
// The weight matrix is laid out fan-in × fan-out, so a batch x (rows are
// instances) maps to x·W. When B is nil the layer has no bias term.
//
// A NetParam is owned by exactly one model or training call at a time and is
// mutated in place by Add and Sub. Use Copy to take a snapshot.
//
// Example:
//
//	p := nn.NewNetParam(4, 2, true, rng)
//	out := p.Mul(x) // x·W + b
type NetParam struct {
	W *mat.Dense    // Weights (fan-in × fan-out)
	B *mat.VecDense // Bias (fan-out), nil when the layer has none
}

// NetParams is an ordered stack of layer parameters, index 0 nearest the input.
type NetParams []*NetParam

// Dims returns the fan-in and fan-out of the layer.
func (p *NetParam) Dims() (in, out int) {
	return p.W.Dims()
}

// HasBias reports whether the layer carries a bias vector.
func (p *NetParam) HasBias() bool {
	return p.B != nil
}

// Copy returns an independent deep copy of p.
func (p *NetParam) Copy() *NetParam {
	c := &NetParam{W: mat.DenseCopyOf(p.W)}
	if p.B != nil {
		c.B = mat.VecDenseCopyOf(p.B)
	}
	return c
}

// Set overwrites the values of p with those of src.
//
// Shapes must agree. Used to adopt a checkpointed snapshot without
// reallocating the caller's matrices.
func (p *NetParam) Set(src *NetParam) {
	p.W.Copy(src.W)
	if p.B != nil && src.B != nil {
		p.B.CopyVec(src.B)
	}
}

// Trim returns a NetParam restricted to the leading rows×cols block of the
// weights and the first cols bias entries.
//
// Used for transfer learning when a donor layer is larger than the target.
func (p *NetParam) Trim(rows, cols int) *NetParam {
	t := &NetParam{W: mat.DenseCopyOf(p.W.Slice(0, rows, 0, cols))}
	if p.B != nil {
		t.B = mat.VecDenseCopyOf(p.B.SliceVec(0, cols))
	}
	return t
}

// Add accumulates d into p in place. The bias change is skipped when d has no
// bias.
func (p *NetParam) Add(d *NetParam) {
	p.W.Add(p.W, d.W)
	if p.B != nil && d.B != nil {
		p.B.AddVec(p.B, d.B)
	}
}

// Sub subtracts d from p in place. The bias change is skipped when d has no
// bias.
func (p *NetParam) Sub(d *NetParam) {
	p.W.Sub(p.W, d.W)
	if p.B != nil && d.B != nil {
		p.B.SubVec(p.B, d.B)
	}
}

// Dot evaluates the layer on a single input vector: Wᵗ·x + b.
func (p *NetParam) Dot(x *mat.VecDense) *mat.VecDense {
	_, out := p.W.Dims()
	z := mat.NewVecDense(out, nil)
	z.MulVec(p.W.T(), x)
	if p.B != nil {
		z.AddVec(z, p.B)
	}
	return z
}

// Mul evaluates the layer on a batch: x·W + b, with b broadcast across rows.
func (p *NetParam) Mul(x *mat.Dense) *mat.Dense {
	var z mat.Dense
	z.Mul(x, p.W)
	if p.B != nil {
		addRowVec(&z, p.B)
	}
	return &z
}

// ApproxEqual reports whether p and other agree within tol, comparing the
// squared Frobenius norm of the weight difference and the squared norm of the
// bias difference.
func (p *NetParam) ApproxEqual(other *NetParam, tol float64) bool {
	var dw mat.Dense
	dw.Sub(p.W, other.W)
	if SumSq(&dw) > tol {
		return false
	}
	if p.B == nil || other.B == nil {
		return p.B == nil && other.B == nil
	}
	var db mat.VecDense
	db.SubVec(p.B, other.B)
	return mat.Dot(&db, &db) <= tol
}

// ApproxEqualDefault is ApproxEqual with the customary tolerance of 1e-3.
func (p *NetParam) ApproxEqualDefault(other *NetParam) bool {
	return p.ApproxEqual(other, 1e-3)
}

// Copy returns a deep copy of every layer.
func (ps NetParams) Copy() NetParams {
	c := make(NetParams, len(ps))
	for i, p := range ps {
		c[i] = p.Copy()
	}
	return c
}

// Set overwrites every layer of ps with the corresponding layer of src.
func (ps NetParams) Set(src NetParams) {
	for i, p := range ps {
		p.Set(src[i])
	}
}

// Layers returns ps as a slice of Layer for use with Forward.
func (ps NetParams) Layers() []Layer {
	ls := make([]Layer, len(ps))
	for i, p := range ps {
		ls[i] = p
	}
	return ls
}
