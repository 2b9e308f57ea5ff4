package optim_test

import (
	"io"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/netopt/internal/nn"
	"github.com/born-ml/netopt/internal/optim"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// oneEpochConfig trains on the whole dataset as a single batch for a single
// epoch, so a step can be checked by hand.
func oneEpochConfig() optim.Config {
	cfg := optim.DefaultConfig()
	cfg.MaxEpochs = 1
	cfg.Logger = quietLogger()
	return cfg
}

// Data for y = 2x with two instances.
func lineData() (x, y *mat.Dense) {
	return mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, []float64{2, 4})
}

func TestSGD_SingleStep(t *testing.T) {
	x, y := lineData()
	b := &nn.NetParam{W: mat.NewDense(1, 1, []float64{0.5})}

	res, err := optim.NewSGD(oneEpochConfig()).Optimize2(x, y, b, 0.1, nn.Identity())
	require.NoError(t, err)

	// yp = [0.5, 1], δ = yp - y = [-1.5, -3], g = xᵗδ = -7.5, α = 0.1/2
	// W = 0.5 - 0.05*(-7.5) = 0.875
	assert.InDelta(t, 0.875, b.W.At(0, 0), 1e-12)
	// residuals [1.125, 2.25]
	assert.InDelta(t, 6.328125, res.Loss, 1e-9)
	assert.Equal(t, 1, res.Epochs)
	assert.Equal(t, []float64{res.Loss}, res.Losses)
	assert.Equal(t, 0.1, res.Eta)
	assert.False(t, res.Stopped)
}

func TestSGD_SingleStepWithBias(t *testing.T) {
	x, y := lineData()
	b := &nn.NetParam{
		W: mat.NewDense(1, 1, []float64{0.5}),
		B: mat.NewVecDense(1, []float64{0}),
	}

	_, err := optim.NewSGD(oneEpochConfig()).Optimize2(x, y, b, 0.1, nn.Identity())
	require.NoError(t, err)

	// Bias step: η·mean(δ) = 0.1 * -2.25
	assert.InDelta(t, 0.875, b.W.At(0, 0), 1e-12)
	assert.InDelta(t, 0.225, b.B.AtVec(0), 1e-12)
}

func TestSGDM_SingleStep(t *testing.T) {
	x, y := lineData()
	b := &nn.NetParam{W: mat.NewDense(1, 1, []float64{0.5})}

	_, err := optim.NewSGDM(oneEpochConfig()).Optimize2(x, y, b, 0.1, nn.Identity())
	require.NoError(t, err)

	// p = 0.1*g = -0.75; ΔW = α((1-ν)g + νp) = 0.05*(-0.75 - 0.675)
	assert.InDelta(t, 0.5+0.07125, b.W.At(0, 0), 1e-12)
}

func TestSGDM_NuZeroMatchesSGD(t *testing.T) {
	x, y := lineData()
	cfg := oneEpochConfig()
	cfg.MaxEpochs = 5
	cfg.Nu = 0

	a := &nn.NetParam{W: mat.NewDense(1, 1, []float64{0.5})}
	b := a.Copy()

	resM, err := optim.NewSGDM(cfg).Optimize2(x, y, a, 0.1, nn.Identity())
	require.NoError(t, err)
	resS, err := optim.NewSGD(cfg).Optimize2(x, y, b, 0.1, nn.Identity())
	require.NoError(t, err)

	assert.InDelta(t, b.W.At(0, 0), a.W.At(0, 0), 1e-12)
	assert.InDeltaSlice(t, resS.Losses, resM.Losses, 1e-9)
}

func TestAdam_SingleStep(t *testing.T) {
	x, y := lineData()
	b := &nn.NetParam{W: mat.NewDense(1, 1, []float64{0.5})}

	_, err := optim.NewAdam(oneEpochConfig()).Optimize2(x, y, b, 0.1, nn.Identity())
	require.NoError(t, err)

	// After bias correction p̂ = g and v̂ = g², so the first step is ≈ α.
	assert.InDelta(t, 0.55, b.W.At(0, 0), 1e-6)
}

func TestAdam_ConvergesOnLinearTarget(t *testing.T) {
	const m = 20
	xs := make([]float64, m)
	ys := make([]float64, m)
	for i := range xs {
		xs[i] = float64(i) / 40
		ys[i] = 2 * xs[i]
	}
	x := mat.NewDense(m, 1, xs)
	y := mat.NewDense(m, 1, ys)

	cfg := optim.DefaultConfig()
	cfg.BatchSize = 5
	cfg.MaxEpochs = 400
	cfg.Logger = quietLogger()

	b := nn.NewNetParam(1, 1, false, nn.NewRand(0))
	b.W.Scale(0.1, b.W)

	res, err := optim.NewAdam(cfg).Optimize2(x, y, b, 0.05, nn.Identity())
	require.NoError(t, err)

	assert.Less(t, res.Loss, 1e-3)
	assert.InDelta(t, 2.0, b.W.At(0, 0), 0.05)
}

func TestOptimize3_ReducesLoss(t *testing.T) {
	const m = 40
	x := mat.NewDense(m, 2, nil)
	y := mat.NewDense(m, 1, nil)
	rng := nn.NewRand(3)
	for i := 0; i < m; i++ {
		a, b := rng.Float64(), rng.Float64()
		x.SetRow(i, []float64{a, b})
		y.Set(i, 0, 1/(1+math.Exp(-(2*a-b))))
	}

	for _, opt := range []optim.Optimizer{
		optim.NewSGD(optim.Config{BatchSize: 10, MaxEpochs: 200, UpLimit: 4, Logger: quietLogger()}),
		optim.NewSGDM(optim.Config{BatchSize: 10, MaxEpochs: 200, UpLimit: 4, Nu: 0.9, Logger: quietLogger()}),
		optim.NewAdam(optim.Config{BatchSize: 10, MaxEpochs: 200, UpLimit: 4, Logger: quietLogger()}),
	} {
		t.Run(opt.Name(), func(t *testing.T) {
			rng := nn.NewRand(0)
			a := nn.NewNetParam(2, 4, true, rng)
			b := nn.NewNetParam(4, 1, true, rng)
			before := nn.SSE(y, nn.Forward(x, nn.NetParams{a, b}.Layers(),
				[]nn.Activation{nn.Tanh(), nn.Sigmoid()})[2])

			res, err := opt.Optimize3(x, y, a, b, 0.5, nn.Tanh(), nn.Sigmoid())
			require.NoError(t, err)

			assert.Less(t, res.Loss, before)
			assert.NotEmpty(t, res.Losses)
			assert.LessOrEqual(t, res.Epochs, 200)
		})
	}
}

func TestOptimize_DeepStack(t *testing.T) {
	const m = 30
	x := mat.NewDense(m, 3, nil)
	y := mat.NewDense(m, 2, nil)
	rng := nn.NewRand(5)
	for i := 0; i < m; i++ {
		a, b, c := rng.Float64(), rng.Float64(), rng.Float64()
		x.SetRow(i, []float64{a, b, c})
		y.SetRow(i, []float64{0.5*a + 0.2*c, 0.3 * b})
	}

	params := nn.NewNetParams([]int{3, 5, 4, 2}, true, nn.NewRand(1))
	fns := []nn.Activation{nn.Tanh(), nn.Tanh(), nn.Identity()}
	before := nn.SSE(y, nn.Forward(x, params.Layers(), fns)[3])

	cfg := optim.DefaultConfig()
	cfg.BatchSize = 10
	cfg.MaxEpochs = 150
	cfg.Logger = quietLogger()
	res, err := optim.NewAdam(cfg).Optimize(x, y, params, 0.05, fns)
	require.NoError(t, err)

	assert.Less(t, res.Loss, before/2)
	after := nn.SSE(y, nn.Forward(x, params.Layers(), fns)[3])
	assert.InDelta(t, res.Loss, after, 1e-9)
}

func TestOptimize_StopsAndRestoresBest(t *testing.T) {
	x, y := lineData()
	b := &nn.NetParam{W: mat.NewDense(1, 1, []float64{0.5})}

	cfg := optim.DefaultConfig()
	cfg.Logger = quietLogger()

	// With η = 1 the error is multiplied by -1.5 every epoch.
	res, err := optim.NewSGD(cfg).Optimize2(x, y, b, 1, nn.Identity())
	require.NoError(t, err)

	require.True(t, res.Stopped)
	assert.Len(t, res.Losses, cfg.UpLimit+2)
	assert.Equal(t, 2, res.Epochs)
	assert.Equal(t, res.Losses[0], res.Loss)
	for i := 1; i < len(res.Losses); i++ {
		assert.Greater(t, res.Losses[i], res.Losses[i-1])
	}
	assert.InDelta(t, 4.25, b.W.At(0, 0), 1e-9)
}

func TestOptimize_Deterministic(t *testing.T) {
	x := mat.NewDense(12, 1, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11})
	y := mat.NewDense(12, 1, []float64{1, 3, 5, 7, 9, 11, 13, 15, 17, 19, 21, 23})
	x.Scale(0.1, x)
	y.Scale(0.1, y)

	cfg := optim.DefaultConfig()
	cfg.BatchSize = 4
	cfg.MaxEpochs = 30
	cfg.Logger = quietLogger()

	run := func() (optim.Result, *nn.NetParam) {
		b := nn.NewNetParam(1, 1, true, nn.NewRand(0))
		res, err := optim.NewSGDM(cfg).Optimize2(x, y, b, 0.2, nn.Identity())
		require.NoError(t, err)
		return res, b
	}
	r1, b1 := run()
	r2, b2 := run()

	assert.Equal(t, r1.Losses, r2.Losses)
	assert.True(t, b1.ApproxEqual(b2, 0))
	assert.NotEqual(t, r1.RunID, r2.RunID)
}

func TestOptimize_ShapeMismatch(t *testing.T) {
	x, _ := lineData()
	y := mat.NewDense(2, 2, nil)
	b := &nn.NetParam{W: mat.NewDense(1, 1, []float64{0.5})}

	_, err := optim.NewSGD(oneEpochConfig()).Optimize2(x, y, b, 0.1, nn.Identity())
	require.Error(t, err)
	assert.True(t, errors.Is(err, optim.ErrShapeMismatch))

	_, err = optim.NewSGD(oneEpochConfig()).Optimize2(x, mat.NewDense(3, 1, nil), b, 0.1, nn.Identity())
	assert.True(t, errors.Is(err, optim.ErrShapeMismatch))
}

func TestOptimize_InvalidConfiguration(t *testing.T) {
	x, y := lineData()
	b := &nn.NetParam{W: mat.NewDense(1, 1, []float64{0.5})}

	cfg := oneEpochConfig()
	cfg.Eta = -1
	_, err := optim.NewSGD(cfg).Optimize2(x, y, b, 0, nn.Identity())
	assert.True(t, errors.Is(err, optim.ErrInvalidConfiguration))

	_, err = optim.NewSGD(oneEpochConfig()).Optimize(x, y, nn.NetParams{b}, 0.1, nil)
	assert.True(t, errors.Is(err, optim.ErrInvalidConfiguration))

	_, err = optim.NewSGD(oneEpochConfig()).Optimize(x, y, nil, 0.1, nil)
	assert.True(t, errors.Is(err, optim.ErrInvalidConfiguration))
}

func TestOptimize_BatchSizeClampedToDataset(t *testing.T) {
	x, y := lineData()
	b := &nn.NetParam{W: mat.NewDense(1, 1, []float64{0.5})}

	cfg := oneEpochConfig()
	cfg.BatchSize = 1000
	_, err := optim.NewSGD(cfg).Optimize2(x, y, b, 0.1, nn.Identity())
	require.NoError(t, err)
	assert.InDelta(t, 0.875, b.W.At(0, 0), 1e-12)
}

func TestOptimize_EmptyData(t *testing.T) {
	b := &nn.NetParam{W: mat.NewDense(1, 1, []float64{0.5})}

	for _, opt := range []optim.Optimizer{
		optim.NewSGD(oneEpochConfig()),
		optim.NewSGDM(oneEpochConfig()),
		optim.NewAdam(oneEpochConfig()),
	} {
		t.Run(opt.Name(), func(t *testing.T) {
			_, err := opt.Optimize2(&mat.Dense{}, &mat.Dense{}, b, 0.1, nn.Identity())
			require.Error(t, err)
			assert.True(t, errors.Is(err, optim.ErrInvalidConfiguration))
		})
	}
	assert.Equal(t, 0.5, b.W.At(0, 0))
}
