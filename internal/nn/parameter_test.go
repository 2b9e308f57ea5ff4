package nn_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/netopt/internal/nn"
)

func testParam() *nn.NetParam {
	return &nn.NetParam{
		W: mat.NewDense(3, 2, []float64{
			0.1, 0.2,
			0.3, 0.4,
			0.5, 0.6,
		}),
		B: mat.NewVecDense(2, []float64{1, -1}),
	}
}

func TestNetParam_CopyIsDeep(t *testing.T) {
	p := testParam()
	c := p.Copy()

	c.W.Set(0, 0, 42)
	c.B.SetVec(0, 42)

	assert.Equal(t, 0.1, p.W.At(0, 0))
	assert.Equal(t, 1.0, p.B.AtVec(0))
}

func TestNetParam_CopyWithoutBias(t *testing.T) {
	p := &nn.NetParam{W: mat.NewDense(1, 1, []float64{3})}
	c := p.Copy()
	assert.Nil(t, c.B)
	assert.False(t, c.HasBias())
}

func TestNetParam_AddSubRoundTrip(t *testing.T) {
	p := testParam()
	d := &nn.NetParam{
		W: mat.NewDense(3, 2, []float64{0.7, -1.3, 2.2, 0.01, -5, 9}),
		B: mat.NewVecDense(2, []float64{0.25, -0.75}),
	}

	q := p.Copy()
	q.Add(d)
	assert.False(t, q.ApproxEqual(p, 1e-9))
	q.Sub(d)

	assert.True(t, q.ApproxEqual(p, 1e-12))
}

func TestNetParam_AddSkipsMissingBias(t *testing.T) {
	p := testParam()
	d := &nn.NetParam{W: mat.NewDense(3, 2, nil)}
	d.W.Set(2, 1, 1)

	p.Add(d)

	assert.InDelta(t, 1.6, p.W.At(2, 1), 1e-12)
	assert.Equal(t, []float64{1, -1}, p.B.RawVector().Data)
}

func TestNetParam_Trim(t *testing.T) {
	p := testParam()
	tr := p.Trim(2, 1)

	r, c := tr.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 1, c)
	assert.Equal(t, 0.1, tr.W.At(0, 0))
	assert.Equal(t, 0.3, tr.W.At(1, 0))
	require.NotNil(t, tr.B)
	assert.Equal(t, 1, tr.B.Len())
	assert.Equal(t, 1.0, tr.B.AtVec(0))

	// Trimmed copy is independent of the donor.
	tr.W.Set(0, 0, 9)
	assert.Equal(t, 0.1, p.W.At(0, 0))
}

func TestNetParam_Dot(t *testing.T) {
	p := testParam()
	x := mat.NewVecDense(3, []float64{1, 2, 3})

	z := p.Dot(x)

	// Wᵗ·x = [0.1+0.6+1.5, 0.2+0.8+1.8] = [2.2, 2.8], plus bias.
	assert.InDelta(t, 3.2, z.AtVec(0), 1e-12)
	assert.InDelta(t, 1.8, z.AtVec(1), 1e-12)
}

func TestNetParam_Mul(t *testing.T) {
	p := testParam()
	x := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		0, 0, 1,
	})

	z := p.Mul(x)

	assert.InDelta(t, 3.2, z.At(0, 0), 1e-12)
	assert.InDelta(t, 1.8, z.At(0, 1), 1e-12)
	assert.InDelta(t, 1.5, z.At(1, 0), 1e-12)
	assert.InDelta(t, -0.4, z.At(1, 1), 1e-12)

	noBias := &nn.NetParam{W: p.W}
	z = noBias.Mul(x)
	assert.InDelta(t, 0.5, z.At(1, 0), 1e-12)
}

func TestNetParam_MulShapeMismatchPanics(t *testing.T) {
	p := testParam()
	x := mat.NewDense(2, 2, nil)
	assert.Panics(t, func() { p.Mul(x) })
}

func TestNetParam_ApproxEqual(t *testing.T) {
	p := testParam()
	q := p.Copy()
	q.W.Set(1, 1, q.W.At(1, 1)+0.01) // squared diff 1e-4

	assert.True(t, p.ApproxEqualDefault(q))
	assert.False(t, p.ApproxEqual(q, 1e-5))

	q.B.SetVec(1, 0) // squared diff 1
	assert.False(t, p.ApproxEqualDefault(q))
}

func TestNetParams_CopyAndSet(t *testing.T) {
	ps := nn.NewNetParams([]int{3, 4, 2}, true, nn.NewRand(0))
	snap := ps.Copy()

	ps[0].W.Set(0, 0, 100)
	ps[1].B.SetVec(1, -100)
	assert.False(t, ps[0].ApproxEqualDefault(snap[0]))

	ps.Set(snap)
	for l := range ps {
		assert.True(t, ps[l].ApproxEqual(snap[l], 0))
	}
	// Set copies values; it must not alias the snapshot.
	snap[0].W.Set(0, 0, 7)
	assert.NotEqual(t, 7.0, ps[0].W.At(0, 0))
}

func TestForward_MixedLayers(t *testing.T) {
	hidden := testParam()
	out := nn.PlainMatrix{W: mat.NewDense(2, 1, []float64{1, 1})}
	layers := []nn.Layer{hidden, out}
	fns := []nn.Activation{nn.ReLU(), nn.Identity()}

	x := mat.NewDense(1, 3, []float64{1, 2, 3})
	acts := nn.Forward(x, layers, fns)

	require.Len(t, acts, 3)
	assert.Same(t, x, acts[0])
	assert.InDelta(t, 3.2, acts[1].At(0, 0), 1e-12)
	assert.InDelta(t, 1.8, acts[1].At(0, 1), 1e-12)
	assert.InDelta(t, 5.0, acts[2].At(0, 0), 1e-12)

	v := nn.ForwardVec(mat.NewVecDense(3, []float64{1, 2, 3}), layers, fns)
	assert.InDelta(t, 5.0, v.AtVec(0), 1e-12)
}

func TestMatrixHelpers(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{
		1, 2,
		3, 4,
		5, 6,
	})

	sel := nn.SelectRows(x, []int{2, 0})
	assert.Equal(t, []float64{5, 6, 1, 2}, sel.RawMatrix().Data)

	means := nn.ColMeans(x)
	assert.InDelta(t, 3.0, means.AtVec(0), 1e-12)
	assert.InDelta(t, 4.0, means.AtVec(1), 1e-12)

	assert.InDelta(t, 91.0, nn.SumSq(x), 1e-12)
	assert.InDelta(t, 91.0, nn.SumSq(x.T()), 1e-12)
	assert.InDelta(t, 0.0, nn.SSE(x, x), 1e-12)
}

func TestReinit_KeepsShapes(t *testing.T) {
	ps := nn.NewNetParams([]int{5, 3, 1}, true, nn.NewRand(1))
	ps[0].B.SetVec(0, 4)
	before := ps.Copy()

	nn.Reinit(ps, nn.NewRand(2))

	for l := range ps {
		r0, c0 := before[l].Dims()
		r1, c1 := ps[l].Dims()
		assert.Equal(t, r0, r1)
		assert.Equal(t, c0, c1)
		assert.False(t, ps[l].ApproxEqual(before[l], 1e-9))
		assert.Equal(t, 0.0, ps[l].B.AtVec(0))
	}
}

func TestXavier_Bounds(t *testing.T) {
	w := nn.Xavier(10, 6, nn.NewRand(0))
	bound := math.Sqrt(6.0 / 16.0)
	r, c := w.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			assert.LessOrEqual(t, math.Abs(w.At(i, j)), bound)
		}
	}
}
