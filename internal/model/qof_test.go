package model_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/netopt/internal/model"
)

func TestNewQoF(t *testing.T) {
	y := mat.NewDense(3, 1, []float64{1, 2, 3})
	yp := mat.NewDense(3, 1, []float64{1, 2, 4})

	q := model.NewQoF(y, yp)
	assert.Equal(t, 3, q.N)
	assert.InDelta(t, 1.0, q.SSE, 1e-12)
	assert.InDelta(t, 1.0/3, q.MSE, 1e-12)
	assert.InDelta(t, math.Sqrt(1.0/3), q.RMSE, 1e-12)
	assert.InDelta(t, 0.5, q.RSq, 1e-12)
	assert.Contains(t, q.String(), "rSq=0.5000")
	assert.Equal(t, 3, q.Fields()["n"])
}

func TestNewQoF_ConstantResponse(t *testing.T) {
	y := mat.NewDense(2, 1, []float64{4, 4})
	assert.Equal(t, 1.0, model.NewQoF(y, y).RSq)
	assert.Equal(t, 0.0, model.NewQoF(y, mat.NewDense(2, 1, []float64{4, 5})).RSq)
}
