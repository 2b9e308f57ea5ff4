package optim

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/netopt/internal/nn"
)

// StoppingRule decides when training should halt because the loss keeps
// getting worse.
//
// It counts consecutive epochs whose loss exceeds the previous epoch's loss by
// more than Epsilon. Whenever the loss does not get worse and beats the best
// seen so far, a deep copy of the parameters is kept. Once the count exceeds
// upLimit, StopWhen hands back that best snapshot and training should adopt it.
//
// T is the snapshot type: nn.NetParams for multi-layer networks or
// *mat.VecDense for single-vector models.
type StoppingRule[T any] struct {
	upLimit int
	clone   func(T) T

	up      int     // Consecutive worsening epochs
	sse0    float64 // Previous loss
	bestSSE float64 // Best loss so far
	best    T       // Snapshot for bestSSE
	hasBest bool
}

// NewStoppingRule creates a rule that snapshots with clone.
func NewStoppingRule[T any](upLimit int, clone func(T) T) *StoppingRule[T] {
	s := &StoppingRule[T]{upLimit: upLimit, clone: clone}
	s.Reset()
	return s
}

// NewParamsStoppingRule creates a rule for layered networks.
func NewParamsStoppingRule(upLimit int) *StoppingRule[nn.NetParams] {
	return NewStoppingRule(upLimit, nn.NetParams.Copy)
}

// NewVectorStoppingRule creates a rule for single-vector models.
func NewVectorStoppingRule(upLimit int) *StoppingRule[*mat.VecDense] {
	return NewStoppingRule(upLimit, func(v *mat.VecDense) *mat.VecDense {
		return mat.VecDenseCopyOf(v)
	})
}

// Reset clears all history.
func (s *StoppingRule[T]) Reset() {
	var zero T
	s.up = 0
	s.sse0 = math.MaxFloat64
	s.bestSSE = math.MaxFloat64
	s.best = zero
	s.hasBest = false
}

// StopWhen records the loss of the current epoch.
//
// When stop is true, best holds the snapshot to adopt and bestSSE its loss.
// Otherwise best is the zero value and bestSSE is the best loss seen so far.
func (s *StoppingRule[T]) StopWhen(params T, sse float64) (best T, bestSSE float64, stop bool) {
	if sse > s.sse0+Epsilon {
		s.up++
	} else {
		s.up = 0
		if sse < s.bestSSE {
			s.best = s.clone(params)
			s.bestSSE = sse
			s.hasBest = true
		}
	}
	s.sse0 = sse

	if s.up > s.upLimit && s.hasBest {
		return s.best, s.bestSSE, true
	}
	var zero T
	return zero, s.bestSSE, false
}

// BestSSE returns the lowest loss recorded so far.
func (s *StoppingRule[T]) BestSSE() float64 {
	return s.bestSSE
}
