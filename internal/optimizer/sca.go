package optimizer

import (
	"math"
	"math/rand"

	"github.com/metobtw/dctstego/internal/fitness"
	"github.com/metobtw/dctstego/internal/population"
)

// SCA is the sine-cosine-style population optimizer of spec.md §4.6 (a
// DE-like difference-pulled-toward-a-random-peer variant, not the
// classical sin/cos-around-best-solution SCA), grounded on the SCA
// class in the reference C++ source.
type SCA struct {
	Iterations int
	ALinear    float64

	// EarlyExit mirrors the C++ optimize()'s `flag` parameter: once set,
	// Optimize returns as soon as any accepted candidate's fitness
	// exceeds zero, without waiting out the remaining iterations. Used
	// by the single-bit marker fallback, where spec.md §4.7 step 7 only
	// needs *a* accepted change-matrix, not an optimal one.
	EarlyExit bool
}

// Optimize runs the SCA update rule for Iterations rounds (or until
// EarlyExit triggers) and returns the best (score, agent) pair seen.
func (o SCA) Optimize(pop population.Population, eval fitness.Evaluator, rng *rand.Rand) (float64, []float64) {
	n := len(pop.Candidates)
	if n == 0 {
		return 0, nil
	}

	for i, c := range pop.Candidates {
		score, legal := eval.Evaluate(c)
		pop.Candidates[i] = legal
		pop.Fitness[i] = score
	}

	bestIdx := argmax(pop.Fitness)
	bestFitness := pop.Fitness[bestIdx]
	best := pop.Candidates[bestIdx]

	for t := 0; t < o.Iterations; t++ {
		aT := o.ALinear * (1 - float64(t)/float64(o.Iterations))
		for i := 0; i < n; i++ {
			r1, r2 := rng.Float64(), rng.Float64()
			a := 2*aT*r1 - aT
			c := 2 * r2

			j := i
			if n > 1 {
				for j == i {
					j = rng.Intn(n)
				}
			}
			peer := pop.Candidates[j]

			next := make([]float64, len(pop.Candidates[i]))
			for k := range next {
				d := math.Abs(c*peer[k] - pop.Candidates[i][k])
				next[k] = peer[k] - a*d
			}

			score, legal := evaluateAndStore(pop, eval, i, next)
			if score > bestFitness {
				bestFitness = score
				best = legal
			}
			if o.EarlyExit && bestFitness > 0 {
				return bestFitness, best
			}
		}
	}

	return bestFitness, best
}
