package nn

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// addRowVec adds b to every row of m in place.
func addRowVec(m *mat.Dense, b *mat.VecDense) {
	r, c := m.Dims()
	if b.Len() != c {
		panic(mat.ErrShape)
	}
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		for j := range row {
			row[j] += b.AtVec(j)
		}
	}
}

// SumSq returns the sum of squared entries of m (its squared Frobenius norm).
func SumSq(m mat.Matrix) float64 {
	if r, c := m.Dims(); r == 0 || c == 0 {
		return 0
	}
	n := mat.Norm(m, 2)
	return n * n
}

// SSE returns the sum of squared differences between y and yp.
func SSE(y, yp mat.Matrix) float64 {
	var e mat.Dense
	e.Sub(y, yp)
	return SumSq(&e)
}

// ColMeans returns the mean of every column of m.
func ColMeans(m *mat.Dense) *mat.VecDense {
	_, c := m.Dims()
	means := mat.NewVecDense(c, nil)
	for j := 0; j < c; j++ {
		means.SetVec(j, stat.Mean(mat.Col(nil, j, m), nil))
	}
	return means
}

// SelectRows gathers the rows of x named by idx into a new matrix.
func SelectRows(x *mat.Dense, idx []int) *mat.Dense {
	_, c := x.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, r := range idx {
		out.SetRow(i, x.RawRowView(r))
	}
	return out
}
