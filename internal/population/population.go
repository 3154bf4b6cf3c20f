// Package population builds the initial candidate pool an optimizer
// iterates over: a mix of the naive pixel-difference vector and uniform
// random perturbations, grounded on generate_population() in the
// reference C++ source.
package population

import (
	"math/rand"

	"github.com/metobtw/dctstego/internal/block"
)

// Population is an N x 64 set of change-matrix candidates, paired with a
// parallel fitness slice of the same length that optimizers mutate in
// place.
type Population struct {
	Candidates [][]float64
	Fitness    []float64
}

// Seed builds a Population of n candidates from the difference between
// the original and the embedded-then-inverse-transformed pixel block.
// Each candidate entry independently is, with probability beta, the
// naive difference d[k] = original[k] - modified[k]; otherwise a uniform
// random integer in {-s,...,s}. After that loop, the last candidate is
// overwritten with exactly the raw difference vector, so one pure-diff
// candidate is always present (an addition over the reference
// implementation, whose pushed diff row is randomized like the others).
func Seed(original, modified block.PixelBlock, n int, beta float64, s int, rng *rand.Rand) Population {
	diff := make([]float64, block.N)
	for k := 0; k < block.N; k++ {
		diff[k] = float64(original[k] - modified[k])
	}

	candidates := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, block.N)
		for k := 0; k < block.N; k++ {
			if rng.Float64() > beta {
				row[k] = float64(-s + rng.Intn(2*s+1))
			} else {
				row[k] = diff[k]
			}
		}
		candidates[i] = row
	}
	if n > 0 {
		candidates[n-1] = diff
	}

	return Population{
		Candidates: candidates,
		Fitness:    make([]float64, n),
	}
}
