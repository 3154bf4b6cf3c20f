// Package optimizer implements the population metaheuristics (TLBO, SCA)
// that search for a change-matrix maximizing the fitness metric, plus a
// small name-keyed registry so the driver can select one by flag value
// without an import cycle back to cmd/stego.
//
// The registry shape (sync.RWMutex-guarded map, Register/Get/Names by
// name) is grounded on the teacher's codec/registry.go, adapted from
// "register a Codec by name/UID" to "register an Optimizer factory by
// name" — the concern (pluggable named implementations behind a shared
// interface) carries over even though this system has exactly one
// interface instead of the teacher's multi-codec one.
package optimizer

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/metobtw/dctstego/internal/fitness"
	"github.com/metobtw/dctstego/internal/population"
)

// Optimizer maximizes a fitness.Evaluator over a Population and returns
// the best (score, candidate) pair found.
type Optimizer interface {
	Optimize(pop population.Population, eval fitness.Evaluator, rng *rand.Rand) (float64, []float64)
}

// Factory builds a fresh Optimizer instance. Optimizers are cheap
// value types with no state beyond their parameters. The registry holds
// only the default (non-early-exit) variants; the single-bit marker
// fallback builds its early-exit SCA directly rather than through Get.
type Factory func() Optimizer

type registry struct {
	mu    sync.RWMutex
	items map[string]Factory
}

var defaultRegistry = &registry{items: make(map[string]Factory)}

// Register adds a named optimizer factory to the default registry.
func Register(name string, f Factory) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.items[name] = f
}

// Get builds a new Optimizer instance for name, or an error if name was
// never registered.
func Get(name string) (Optimizer, error) {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()
	f, ok := defaultRegistry.items[name]
	if !ok {
		return nil, fmt.Errorf("optimizer: unknown name %q", name)
	}
	return f(), nil
}

// Names returns the names currently registered, in map iteration order
// (the order is not defined and may differ between calls). Used only by
// the CLI's -optimizer flag usage text.
func Names() []string {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()
	names := make([]string, 0, len(defaultRegistry.items))
	for name := range defaultRegistry.items {
		names = append(names, name)
	}
	return names
}

func init() {
	Register("tlbo", func() Optimizer { return TLBO{Iterations: DefaultIterations} })
	Register("sca", func() Optimizer { return SCA{Iterations: DefaultIterations, ALinear: DefaultALinear} })
}

// DefaultIterations is the per-block iteration count I from spec.md §4.5/4.6.
const DefaultIterations = 128

// DefaultALinear is the SCA amplitude decay parameter from spec.md §4.6.
const DefaultALinear = 2.0

// evaluateAndStore runs eval against candidate and, if accepted,
// replaces pop's entry i with the legalized candidate and its score. It
// always returns the legalized candidate and its score, win or lose,
// since the caller sometimes needs the legalized slice to compare
// against a running best regardless of whether this particular slot
// improved.
func evaluateAndStore(pop population.Population, eval fitness.Evaluator, i int, candidate []float64) (float64, []float64) {
	score, legal := eval.Evaluate(candidate)
	if score > pop.Fitness[i] {
		pop.Candidates[i] = legal
		pop.Fitness[i] = score
	}
	return score, legal
}
