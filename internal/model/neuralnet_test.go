package model_test

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/netopt/internal/model"
	"github.com/born-ml/netopt/internal/nn"
	"github.com/born-ml/netopt/internal/optim"
	"github.com/born-ml/netopt/internal/serialization"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func adamConfig() optim.Config {
	cfg := optim.DefaultConfig()
	cfg.Eta = 0.05
	cfg.BatchSize = 10
	cfg.Logger = quietLogger()
	return cfg
}

// planeData samples y = 2a - b + 1 over the unit square.
func planeData(m int) (x, y *mat.Dense) {
	x = mat.NewDense(m, 2, nil)
	y = mat.NewDense(m, 1, nil)
	rng := nn.NewRand(21)
	for i := 0; i < m; i++ {
		a, b := rng.Float64(), rng.Float64()
		x.SetRow(i, []float64{a, b})
		y.Set(i, 0, 2*a-b+1)
	}
	return x, y
}

func TestNewXL_Validation(t *testing.T) {
	opt := optim.NewSGD(optim.Config{Logger: quietLogger()})
	tests := []struct {
		name  string
		sizes []int
		fns   []nn.Activation
		opt   optim.Optimizer
	}{
		{"one width", []int{3}, nil, opt},
		{"activation count", []int{3, 2}, []nn.Activation{nn.Tanh(), nn.Tanh()}, opt},
		{"zero width", []int{3, 0, 1}, nn.Repeat(nn.Tanh(), 2), opt},
		{"nil optimizer", []int{3, 1}, []nn.Activation{nn.Identity()}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := model.NewXL(tt.sizes, tt.fns, tt.opt, nn.NewRand(0))
			assert.True(t, errors.Is(err, optim.ErrInvalidConfiguration))
		})
	}
}

func TestNeuralNet2L_FitsPlane(t *testing.T) {
	x, y := planeData(50)
	cfg := adamConfig()
	cfg.MaxEpochs = 600

	net, err := model.New2L(2, 1, nn.Identity(), optim.NewAdam(cfg), nn.NewRand(0))
	require.NoError(t, err)
	res, err := net.Train(x, y)
	require.NoError(t, err)

	qof := net.Test(x, y)
	assert.InDelta(t, res.Loss, qof.SSE, 1e-9)
	assert.Greater(t, qof.RSq, 0.95)
	assert.Equal(t, 50, qof.N)
	require.Len(t, net.Params(), 1)
	assert.InDelta(t, 2.0, net.Params()[0].W.At(0, 0), 0.3)
}

func TestNeuralNet3L_RescalesIntoSigmoidRange(t *testing.T) {
	x, y := planeData(50)
	y.Apply(func(_, _ int, v float64) float64 { return 10 + 5*v }, y)

	net, err := model.New3L(2, 4, 1, nn.Tanh(), nn.Sigmoid(), optim.NewAdam(adamConfig()), nn.NewRand(0))
	require.NoError(t, err)
	_, err = net.Train(x, y)
	require.NoError(t, err)

	// y spans [10, 25] and is trained on [0.1, 0.9], so sigmoid's open range
	// (0, 1) maps back to (8.125, 26.875).
	yp := net.Predict(x)
	m, _ := yp.Dims()
	for i := 0; i < m; i++ {
		assert.GreaterOrEqual(t, yp.At(i, 0), 8.125)
		assert.LessOrEqual(t, yp.At(i, 0), 26.875)
	}
	assert.Greater(t, net.Test(x, y).RSq, 0.5)

	// The vector path agrees with the batch path.
	z := mat.NewVecDense(2, x.RawRowView(3))
	assert.InDelta(t, yp.At(3, 0), net.PredictVec(z).AtVec(0), 1e-9)
}

func TestNeuralNetXL_TrainReducesLoss(t *testing.T) {
	x, y := planeData(40)
	net, err := model.NewXL([]int{2, 5, 4, 1}, []nn.Activation{nn.Tanh(), nn.Tanh(), nn.Identity()},
		optim.NewSGDM(adamConfig()), nn.NewRand(2))
	require.NoError(t, err)
	before := net.Test(x, y).SSE

	res, err := net.Train(x, y)
	require.NoError(t, err)
	assert.Less(t, res.Loss, before)
	assert.Len(t, net.Activations(), 3)
	assert.Equal(t, "SGDM", net.Optimizer().Name())
}

func TestNeuralNet_TrainAuto(t *testing.T) {
	x, y := planeData(30)
	cfg := adamConfig()
	cfg.MaxEpochs = 50

	net, err := model.New3L(2, 3, 1, nn.Tanh(), nn.Identity(), optim.NewSGD(cfg), nn.NewRand(0))
	require.NoError(t, err)
	res, err := net.TrainAuto(x, y, 0.05, 0.4)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, res.Eta, 0.05)
	assert.LessOrEqual(t, res.Eta, 0.4)
	assert.InDelta(t, res.Loss, net.Test(x, y).SSE, 1e-9)
}

func TestNeuralNet_Transfer(t *testing.T) {
	net, err := model.New3L(2, 3, 1, nn.Tanh(), nn.Identity(),
		optim.NewSGD(optim.Config{Logger: quietLogger()}), nn.NewRand(0))
	require.NoError(t, err)

	donor := nn.NewNetParam(4, 5, true, nn.NewRand(9))
	donor.B.SetVec(1, 0.7)
	require.NoError(t, net.Transfer(0, donor))

	got := net.Params()[0]
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			assert.Equal(t, donor.W.At(i, j), got.W.At(i, j))
		}
	}
	assert.Equal(t, 0.7, got.B.AtVec(1))

	err = net.Transfer(1, nn.NewNetParam(2, 1, true, nn.NewRand(0)))
	assert.True(t, errors.Is(err, optim.ErrShapeMismatch))
	err = net.Transfer(2, donor)
	assert.True(t, errors.Is(err, optim.ErrInvalidConfiguration))
}

func TestNeuralNet_ScaleSurvivesCheckpoint(t *testing.T) {
	x, y := planeData(30)
	y.Apply(func(_, _ int, v float64) float64 { return 10 + 5*v }, y)
	cfg := adamConfig()
	cfg.MaxEpochs = 50

	net, err := model.New3L(2, 3, 1, nn.Tanh(), nn.Sigmoid(), optim.NewAdam(cfg), nn.NewRand(0))
	require.NoError(t, err)
	_, err = net.Train(x, y)
	require.NoError(t, err)

	meta := net.ScaleMetadata()
	require.Contains(t, meta, model.MetaResponseMin)
	require.Contains(t, meta, model.MetaResponseMax)
	path := filepath.Join(t.TempDir(), "net.born")
	require.NoError(t, serialization.Save(path, net.Params(), serialization.Header{ModelType: "NeuralNet_3L", Metadata: meta}))

	loaded, err := model.New3L(2, 3, 1, nn.Tanh(), nn.Sigmoid(), optim.NewAdam(cfg), nn.NewRand(5))
	require.NoError(t, err)
	h, err := serialization.LoadInto(path, loaded.Params())
	require.NoError(t, err)
	require.NoError(t, loaded.RestoreScale(h.Metadata))
	assert.True(t, mat.EqualApprox(net.Predict(x), loaded.Predict(x), 1e-12))

	// Without the scaling the output stays in sigmoid's range.
	require.NoError(t, loaded.RestoreScale(nil))
	yp := loaded.Predict(x)
	m, _ := yp.Dims()
	for i := 0; i < m; i++ {
		assert.Less(t, yp.At(i, 0), 1.0)
	}
}

func TestNeuralNet_RestoreScaleErrors(t *testing.T) {
	opt := optim.NewSGD(optim.Config{Logger: quietLogger()})
	bounded, err := model.New2L(2, 1, nn.Sigmoid(), opt, nn.NewRand(0))
	require.NoError(t, err)
	unbounded, err := model.New2L(2, 1, nn.Identity(), opt, nn.NewRand(0))
	require.NoError(t, err)

	assert.Nil(t, unbounded.ScaleMetadata())

	tests := []struct {
		name string
		net  *model.NeuralNet
		meta map[string]string
		want error
	}{
		{"min only", bounded, map[string]string{model.MetaResponseMin: "1"}, optim.ErrInvalidConfiguration},
		{"unbounded output", unbounded, map[string]string{model.MetaResponseMin: "1", model.MetaResponseMax: "2"}, optim.ErrInvalidConfiguration},
		{"column count", bounded, map[string]string{model.MetaResponseMin: "1,2", model.MetaResponseMax: "3,4"}, optim.ErrShapeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.net.RestoreScale(tt.meta)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	err = bounded.RestoreScale(map[string]string{model.MetaResponseMin: "x", model.MetaResponseMax: "2"})
	assert.Error(t, err)
	require.NoError(t, bounded.RestoreScale(map[string]string{model.MetaResponseMin: "1", model.MetaResponseMax: "3"}))
	assert.Equal(t, "1", bounded.ScaleMetadata()[model.MetaResponseMin])
}
