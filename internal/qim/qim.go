// Package qim implements quantization-index modulation embedding and
// extraction over a fixed set of 32 DCT coefficient positions.
package qim

import (
	"math"

	"github.com/metobtw/dctstego/internal/block"
)

// Q is the quantization step, fixed identically for embed and extract
// per SPEC_FULL.md Open Question 3. The source carries two variants
// (q=20, q=8); this repo always uses q=20.
const Q = 20.0

// MarkerSentinel is returned by Extract when the first bit decodes to
// '0', meaning the block carries no payload.
const MarkerSentinel = "F"

// Pattern is the fixed, ordered list of 32 (row, col) coefficient
// positions used by Embed and Extract. This is "Pattern A" (see
// SPEC_FULL.md's qim module), the de-duplicated zig-zag-like list, verified against
// ret_idx() in the original C++ source.
var Pattern = [32][2]int{
	{3, 4}, {2, 5}, {1, 6}, {0, 7},
	{1, 7}, {2, 6}, {3, 5}, {4, 4},
	{5, 3}, {6, 2}, {7, 1}, {7, 2},
	{6, 3}, {5, 4}, {4, 5}, {3, 6},
	{2, 7}, {3, 7}, {4, 6}, {5, 5},
	{6, 4}, {7, 3}, {7, 4}, {6, 5},
	{5, 6}, {4, 7}, {5, 7}, {6, 6},
	{7, 5}, {7, 6}, {6, 7}, {7, 7},
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// Embed returns a copy of coef with bits written into the Pattern
// positions via QIM. In single-bit (marker) mode only Pattern[0] is
// written; bits must have length 1. In multi-bit (payload) mode bits
// must have length 32, its first rune being the mode flag.
func Embed(coef block.CoefBlock, bits string) block.CoefBlock {
	out := coef
	for k := 0; k < len(bits); k++ {
		row, col := Pattern[k][0], Pattern[k][1]
		c := out.At(row, col)
		b := 0.0
		if bits[k] == '1' {
			b = 1
		}
		q := Q
		v := sign(c) * (q*math.Floor(math.Abs(c)/q) + (q/2)*b)
		out[row*block.Size+col] = v
	}
	return out
}

// Extract decodes bits from coef's Pattern positions. It short-circuits
// as soon as the first bit decodes to '0', returning MarkerSentinel:
// that block was marked empty and carries no payload. Otherwise it
// returns all 32 decoded bits, including the leading '1' mode flag.
func Extract(coef block.CoefBlock) string {
	buf := make([]byte, 0, 32)
	for k := 0; k < len(Pattern); k++ {
		bit := ExtractAt(coef, k)
		if k == 0 && bit == '0' {
			return MarkerSentinel
		}
		buf = append(buf, bit)
	}
	return string(buf)
}

// ExtractBit decodes only the first Pattern position (the mode flag).
// Nothing in this repository calls it; the fitness metric scans
// positions one at a time through ExtractAt instead.
func ExtractBit(coef block.CoefBlock) byte {
	return ExtractAt(coef, 0)
}

// ExtractAt decodes the bit at Pattern position k without running the
// rest of the pattern, used by the fitness metric's short-circuiting
// bit-by-bit scan.
func ExtractAt(coef block.CoefBlock, k int) byte {
	row, col := Pattern[k][0], Pattern[k][1]
	c := coef.At(row, col)
	s := sign(c)
	base := Q * math.Floor(math.Abs(c)/Q)
	c0 := s * base
	c1 := s * (base + Q/2)
	if math.Abs(c-c0) < math.Abs(c-c1) {
		return '0'
	}
	return '1'
}
