package optim

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Common errors.
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrNoConvergence        = errors.New("no convergence: every trial produced NaN loss")
	ErrShapeMismatch        = errors.New("shape mismatch")
)

// recoverShape converts a gonum dimension panic into ErrShapeMismatch.
// Other panics are re-raised.
//
// Use as: defer recoverShape(&err).
func recoverShape(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(mat.Error); ok {
		*err = errors.Wrap(ErrShapeMismatch, e.Error())
		return
	}
	panic(r)
}
