package nn

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Bounds describes the output range of a bounded activation.
//
// Models rescale their response into this range before training and back
// after prediction.
type Bounds struct {
	Lo, Hi float64
}

// Activation describes an element-wise activation function.
//
// The derivative D is expressed in terms of the activation's OUTPUT y = F(z),
// which is what backpropagation has on hand for every layer.
//
// Example:
//
//	f := nn.Sigmoid()
//	a := f.FM(z)  // forward
//	d := f.DM(a)  // derivative at the same points
type Activation struct {
	Name   string
	F      func(z float64) float64 // Forward
	D      func(y float64) float64 // Derivative, given y = F(z)
	Bounds *Bounds                 // Output range, nil when unbounded
}

// FV applies F to every element of v.
func (a Activation) FV(v *mat.VecDense) *mat.VecDense {
	out := mat.NewVecDense(v.Len(), nil)
	for i := 0; i < v.Len(); i++ {
		out.SetVec(i, a.F(v.AtVec(i)))
	}
	return out
}

// FM applies F to every element of m.
func (a Activation) FM(m *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return a.F(v) }, m)
	return &out
}

// DM applies D to every element of y.
func (a Activation) DM(y *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return a.D(v) }, y)
	return &out
}

// Leaky ReLU slope and ELU scale.
const (
	LReLUAlpha = 0.2
	ELUAlpha   = 1.0
)

// Identity returns the identity activation f(z) = z.
func Identity() Activation {
	return Activation{
		Name: "id",
		F:    func(z float64) float64 { return z },
		D:    func(float64) float64 { return 1 },
	}
}

// ReLU returns the rectified linear unit f(z) = max(0, z).
func ReLU() Activation {
	return Activation{
		Name: "reLU",
		F:    func(z float64) float64 { return math.Max(0, z) },
		D: func(y float64) float64 {
			if y > 0 {
				return 1
			}
			return 0
		},
		Bounds: &Bounds{Lo: 0, Hi: math.Inf(1)},
	}
}

// LeakyReLU returns f(z) = z for z > 0, LReLUAlpha·z otherwise.
func LeakyReLU() Activation {
	return Activation{
		Name: "lreLU",
		F: func(z float64) float64 {
			if z > 0 {
				return z
			}
			return LReLUAlpha * z
		},
		D: func(y float64) float64 {
			if y > 0 {
				return 1
			}
			return LReLUAlpha
		},
	}
}

// ELU returns the exponential linear unit.
func ELU() Activation {
	return Activation{
		Name: "eLU",
		F: func(z float64) float64 {
			if z > 0 {
				return z
			}
			return ELUAlpha * (math.Exp(z) - 1)
		},
		D: func(y float64) float64 {
			if y > 0 {
				return 1
			}
			return y + ELUAlpha
		},
		Bounds: &Bounds{Lo: -ELUAlpha, Hi: math.Inf(1)},
	}
}

// Tanh returns the hyperbolic tangent activation.
func Tanh() Activation {
	return Activation{
		Name:   "tanh",
		F:      math.Tanh,
		D:      func(y float64) float64 { return 1 - y*y },
		Bounds: &Bounds{Lo: -1, Hi: 1},
	}
}

// Sigmoid returns the logistic activation σ(z) = 1 / (1 + exp(-z)).
func Sigmoid() Activation {
	return Activation{
		Name:   "sigmoid",
		F:      func(z float64) float64 { return 1 / (1 + math.Exp(-z)) },
		D:      func(y float64) float64 { return y * (1 - y) },
		Bounds: &Bounds{Lo: 0, Hi: 1},
	}
}

var activations = map[string]func() Activation{
	"id":      Identity,
	"reLU":    ReLU,
	"lreLU":   LeakyReLU,
	"eLU":     ELU,
	"tanh":    Tanh,
	"sigmoid": Sigmoid,
}

// ActivationByName looks up an activation by its registered name.
func ActivationByName(name string) (Activation, error) {
	f, ok := activations[name]
	if !ok {
		return Activation{}, errors.Errorf("unknown activation %q (have %v)", name, ActivationNames())
	}
	return f(), nil
}

// ActivationNames lists the registered activation names in sorted order.
func ActivationNames() []string {
	names := make([]string, 0, len(activations))
	for n := range activations {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Repeat returns n copies of f, handy for homogeneous hidden stacks.
func Repeat(f Activation, n int) []Activation {
	fs := make([]Activation, n)
	for i := range fs {
		fs[i] = f
	}
	return fs
}
