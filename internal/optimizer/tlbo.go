package optimizer

import (
	"math/rand"

	"github.com/metobtw/dctstego/internal/fitness"
	"github.com/metobtw/dctstego/internal/population"
)

// TLBO is the Teaching-Learning-Based Optimization metaheuristic of
// spec.md §4.5, grounded on the TLBO class in the reference C++ source.
type TLBO struct {
	Iterations int
}

// Optimize runs the teacher phase followed by the learner phase for
// Iterations rounds, then returns the population's best (score,
// candidate) pair.
func (o TLBO) Optimize(pop population.Population, eval fitness.Evaluator, rng *rand.Rand) (float64, []float64) {
	n := len(pop.Candidates)
	if n == 0 {
		return 0, nil
	}

	for i, c := range pop.Candidates {
		score, legal := eval.Evaluate(c)
		pop.Candidates[i] = legal
		pop.Fitness[i] = score
	}

	for iter := 0; iter < o.Iterations; iter++ {
		teacherIdx := argmax(pop.Fitness)
		teacher := pop.Candidates[teacherIdx]
		mean := columnMean(pop.Candidates)

		for i := 0; i < n; i++ {
			if i == teacherIdx {
				continue
			}
			next := make([]float64, len(pop.Candidates[i]))
			for k := range next {
				r1 := rng.Float64()
				r3 := 1 + rng.Float64()
				next[k] = pop.Candidates[i][k] + r1*(teacher[k]-r3*mean[k])
			}
			evaluateAndStore(pop, eval, i, next)
		}

		for i := 0; i < n; i++ {
			a, b := distinctIndices(rng, n, i)
			var base, other []float64
			if pop.Fitness[a] > pop.Fitness[b] {
				base, other = pop.Candidates[a], pop.Candidates[b]
			} else {
				base, other = pop.Candidates[b], pop.Candidates[a]
			}
			next := make([]float64, len(pop.Candidates[i]))
			for k := range next {
				r := rng.Float64()
				next[k] = pop.Candidates[i][k] + r*(base[k]-other[k])
			}
			evaluateAndStore(pop, eval, i, next)
		}
	}

	best := argmax(pop.Fitness)
	return pop.Fitness[best], pop.Candidates[best]
}

func argmax(fit []float64) int {
	best := 0
	for i, v := range fit {
		if v > fit[best] {
			best = i
		}
	}
	return best
}

func columnMean(candidates [][]float64) []float64 {
	if len(candidates) == 0 {
		return nil
	}
	mean := make([]float64, len(candidates[0]))
	for _, row := range candidates {
		for k, v := range row {
			mean[k] += v
		}
	}
	for k := range mean {
		mean[k] /= float64(len(candidates))
	}
	return mean
}

// distinctIndices picks two random indices a != b; either may coincide
// with self, matching the reference's while-loop that only guards
// random_index_1 != random_index_2 in the learner phase. With n == 1 it
// returns (self, self).
func distinctIndices(rng *rand.Rand, n, self int) (int, int) {
	if n == 1 {
		return self, self
	}
	a := rng.Intn(n)
	b := rng.Intn(n)
	for a == b {
		b = rng.Intn(n)
	}
	return a, b
}
