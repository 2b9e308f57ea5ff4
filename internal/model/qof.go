package model

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// QoF holds the quality-of-fit measures of a prediction.
//
// RSq is 1 - SSE/SST where SST sums the squared deviations of every response
// column from its mean. When SST is zero, RSq is 1 for a perfect fit and 0
// otherwise.
type QoF struct {
	N    int     // Instances
	SSE  float64 // Sum of squared errors
	MSE  float64 // SSE / (N · outputs)
	RMSE float64 // sqrt(MSE)
	RSq  float64 // Coefficient of determination
}

// NewQoF compares actual responses y with predictions yp.
func NewQoF(y, yp *mat.Dense) QoF {
	m, ny := y.Dims()
	var e mat.Dense
	e.Sub(y, yp)

	var sse, sst float64
	for j := 0; j < ny; j++ {
		col := mat.Col(nil, j, y)
		res := mat.Col(nil, j, &e)
		sse += floats.Dot(res, res)

		mu := stat.Mean(col, nil)
		floats.AddConst(-mu, col)
		sst += floats.Dot(col, col)
	}

	q := QoF{N: m, SSE: sse}
	if n := m * ny; n > 0 {
		q.MSE = sse / float64(n)
		q.RMSE = math.Sqrt(q.MSE)
	}
	switch {
	case sst > 0:
		q.RSq = 1 - sse/sst
	case sse == 0:
		q.RSq = 1
	}
	return q
}

// Fields returns q as structured log fields.
func (q QoF) Fields() logrus.Fields {
	return logrus.Fields{"n": q.N, "sse": q.SSE, "mse": q.MSE, "rmse": q.RMSE, "rSq": q.RSq}
}

// String implements fmt.Stringer.
func (q QoF) String() string {
	return fmt.Sprintf("n=%d sse=%.6g mse=%.6g rmse=%.6g rSq=%.4f", q.N, q.SSE, q.MSE, q.RMSE, q.RSq)
}
