package optim

import (
	"math/rand/v2"
	"time"

	"github.com/born-ml/netopt/internal/nn"
)

// PermGenerator produces permutations of the instance indices 0..m-1.
//
// Every call to Igen returns a fresh permutation. With randomize unset the
// sequence comes from the given stream, so two generators built with the same
// arguments produce the same sequence of permutations.
type PermGenerator struct {
	m   int
	rng *rand.Rand
}

// NewPermGenerator creates a permutation generator over m indices.
func NewPermGenerator(m int, stream uint64, randomize bool) *PermGenerator {
	if randomize {
		//nolint:gosec // G115: wall clock only seeds a shuffling stream
		stream = uint64(time.Now().UnixNano())
	}
	return &PermGenerator{m: m, rng: nn.NewRand(stream)}
}

// Igen returns a new random permutation of 0..m-1.
func (g *PermGenerator) Igen() []int {
	return g.rng.Perm(g.m)
}

// Batches chops perm into nB contiguous batches of bSize indices.
// Trailing indices that do not fill a whole batch are dropped.
func Batches(perm []int, nB, bSize int) [][]int {
	batches := make([][]int, nB)
	for b := range batches {
		batches[b] = perm[b*bSize : (b+1)*bSize]
	}
	return batches
}
