package optim_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/netopt/internal/nn"
	"github.com/born-ml/netopt/internal/optim"
)

func TestStoppingRule_BestIsMonotone(t *testing.T) {
	rule := optim.NewParamsStoppingRule(100)
	params := nn.NewNetParams([]int{2, 1}, true, nn.NewRand(0))

	losses := []float64{5, 4, 6, 3, 3.5, 7, 2, 2.5, 2.4, 9}
	prev := math.Inf(1)
	for _, sse := range losses {
		_, best, stop := rule.StopWhen(params, sse)
		assert.False(t, stop)
		assert.LessOrEqual(t, best, prev)
		prev = best
	}
	assert.Equal(t, 2.0, rule.BestSSE())
}

func TestStoppingRule_StopsAfterUpLimitPlusOneIncreases(t *testing.T) {
	const upLimit = 4
	rule := optim.NewParamsStoppingRule(upLimit)
	params := nn.NetParams{{W: mat.NewDense(1, 1, []float64{1})}}

	_, _, stop := rule.StopWhen(params, 1.0)
	require.False(t, stop)

	// The snapshot must be a deep copy.
	params[0].W.Set(0, 0, 99)

	sse := 1.0
	for i := 1; i <= upLimit; i++ {
		sse += 0.5
		best, _, stop := rule.StopWhen(params, sse)
		require.False(t, stop, "increase %d", i)
		assert.Nil(t, best)
	}

	best, bestSSE, stop := rule.StopWhen(params, sse+0.5)
	require.True(t, stop)
	require.Len(t, best, 1)
	assert.Equal(t, 1.0, bestSSE)
	assert.Equal(t, 1.0, best[0].W.At(0, 0))
}

func TestStoppingRule_IncreaseWithinEpsilonIsNotWorse(t *testing.T) {
	rule := optim.NewParamsStoppingRule(0)
	params := nn.NewNetParams([]int{1, 1}, false, nn.NewRand(0))

	_, _, stop := rule.StopWhen(params, 1.0)
	require.False(t, stop)
	_, _, stop = rule.StopWhen(params, 1.0+optim.Epsilon/2)
	assert.False(t, stop)
	_, _, stop = rule.StopWhen(params, 1.0+2*optim.Epsilon)
	assert.True(t, stop)
}

func TestStoppingRule_ImprovementResetsCounter(t *testing.T) {
	rule := optim.NewParamsStoppingRule(2)
	params := nn.NewNetParams([]int{1, 1}, false, nn.NewRand(0))

	seq := []float64{10, 11, 12, 9, 10, 11}
	for _, sse := range seq {
		_, _, stop := rule.StopWhen(params, sse)
		assert.False(t, stop, "sse=%g", sse)
	}
	_, best, stop := rule.StopWhen(params, 12)
	assert.True(t, stop)
	assert.Equal(t, 9.0, best)
}

func TestVectorStoppingRule(t *testing.T) {
	rule := optim.NewVectorStoppingRule(1)
	b := mat.NewVecDense(2, []float64{1, 2})

	_, _, stop := rule.StopWhen(b, 3)
	require.False(t, stop)
	b.SetVec(0, -1)
	_, _, stop = rule.StopWhen(b, 4)
	require.False(t, stop)

	best, sse, stop := rule.StopWhen(b, 5)
	require.True(t, stop)
	assert.Equal(t, 3.0, sse)
	assert.Equal(t, []float64{1, 2}, best.RawVector().Data)

	rule.Reset()
	assert.Equal(t, math.MaxFloat64, rule.BestSSE())
}

func TestStoppingRule_NaNNeverStops(t *testing.T) {
	rule := optim.NewParamsStoppingRule(0)
	params := nn.NewNetParams([]int{1, 1}, false, nn.NewRand(0))
	for i := 0; i < 10; i++ {
		_, _, stop := rule.StopWhen(params, math.NaN())
		assert.False(t, stop)
	}
}
