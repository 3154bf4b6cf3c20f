// Package fitness implements the composite PSNR + bit-match metric the
// optimizers maximize, grounded on the Metric class in the reference
// C++ source.
package fitness

import (
	"math"
	"math/rand"

	"github.com/metobtw/dctstego/internal/block"
	"github.com/metobtw/dctstego/internal/qim"
)

// PSNRSentinel is returned in place of an infinite PSNR when a
// candidate's mean squared error against the original block is zero.
// See SPEC_FULL.md's MODULE: fitness for the choice of 100.0.
const PSNRSentinel = 100.0

// Evaluator evaluates candidates against one block's target bit string,
// mirroring Metric::metric's (score, candidate) pair return and
// in-place candidate mutation (modeled here as a pure function instead
// of aliasing; see DESIGN.md's internal/fitness section).
type Evaluator struct {
	Original block.PixelBlock
	Bits     string
	S        int
	RNG      *rand.Rand
}

// Evaluate runs the metric procedure of spec.md §4.4 steps 1-7 against
// candidate (length 64) and returns (score, normalized candidate).
// Evaluate never mutates the input slice; it returns a new slice holding
// the legalized entries.
func (e Evaluator) Evaluate(candidate []float64) (float64, []float64) {
	s := float64(e.S)
	legal := make([]float64, block.N)
	for k := 0; k < block.N; k++ {
		v := math.Floor(candidate[k])
		if v < -s || v > s {
			v = float64(-e.S + e.RNG.Intn(2*e.S+1))
		}
		legal[k] = v
	}

	var candidatePixels block.PixelBlock
	for k := 0; k < block.N; k++ {
		px := e.Original[k] + int(legal[k])
		if px > 255 {
			legal[k] -= float64(px - 255)
			px = 255
		}
		if px < 0 {
			legal[k] += float64(-px)
			px = 0
		}
		candidatePixels[k] = px
	}

	var mse float64
	for k := 0; k < block.N; k++ {
		d := float64(e.Original[k] - candidatePixels[k])
		mse += d * d
	}

	psnr := PSNRSentinel
	if mse != 0 {
		psnr = 10 * math.Log10(float64(block.N)*255*255/mse)
	}

	coef := block.DCT(candidatePixels)
	match, ok := matchRatio(coef, e.Bits)
	if !ok {
		return 0.0, legal
	}

	return psnr/10000 + match, legal
}

// matchRatio extracts bits from coef position by position, short-
// circuiting (returning ok=false) the instant the first extracted bit
// disagrees with bits[0]. On success it returns the fraction of
// positions (out of len(bits)) that decoded correctly.
func matchRatio(coef block.CoefBlock, bits string) (float64, bool) {
	matched := 0
	for k := 0; k < len(bits); k++ {
		got := qim.ExtractAt(coef, k)
		if k == 0 && got != bits[0] {
			return 0, false
		}
		if got == bits[k] {
			matched++
		}
	}
	return float64(matched) / float64(len(bits)), true
}
