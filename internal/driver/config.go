package driver

import "github.com/metobtw/dctstego/internal/stegoerr"

// Parameters holds the ambient configuration cmd/stego assembles from
// flags and passes down into EmbedImage/ExtractImage. The
// Validate-then-reset-to-default shape mirrors the teacher's
// jpeg/baseline/parameters.go (JPEGBaselineParameters.Validate resets an
// out-of-range Quality to its default rather than failing outright);
// here only the tunable search knobs get that treatment; hard
// structural requirements at the I/O boundary raise errors instead of
// defaulting.
type Parameters struct {
	// CoverPath is the input grayscale PNG to embed into (embed mode) or
	// the stego PNG to read from (extract mode, sidecar mode 2).
	CoverPath string
	// PayloadPath is the file holding the bitstring to embed (embed mode
	// only); its first line is interpreted as a '0'/'1' string.
	PayloadPath string
	// OutputPath is where the stego PNG is written (embed mode).
	OutputPath string
	// SidecarPath is blocks.txt, the block permutation written in embed
	// mode and replayed in extract mode.
	SidecarPath string
	// PayloadOutPath is where recovered payload bits are written
	// (extract mode).
	PayloadOutPath string

	// OptimizerName selects a registered optimizer (see
	// internal/optimizer's registry) for the payload-mode search.
	OptimizerName string

	// Seed seeds the per-run RNG; 0 is used as a literal seed like any
	// other value.
	Seed int64

	// Workers is the worker-pool size; 0 means runtime.NumCPU().
	Workers int

	// PopulationSize is N in spec.md §3 (default 128).
	PopulationSize int
	// Beta is the population seeder's keep-probability (default 0.9).
	Beta float64
	// Iterations is the optimizer iteration count I (default 128).
	Iterations int
	// PayloadSearchSpace is S for multi-bit embedding (default 10).
	PayloadSearchSpace int
	// MarkerSearchSpace is S for the single-bit fallback (default 5).
	MarkerSearchSpace int
}

// DefaultParameters returns a Parameters populated with spec.md's
// documented defaults (N=128, beta=0.9, I=128, S=10/5).
func DefaultParameters() Parameters {
	return Parameters{
		OptimizerName:      "sca",
		PopulationSize:     128,
		Beta:               0.9,
		Iterations:         128,
		PayloadSearchSpace: 10,
		MarkerSearchSpace:  5,
	}
}

// Validate resets out-of-range tunable parameters to their defaults (the
// teacher's Validate() pattern) and returns stegoerr.ErrInputMissing if
// a required path for the given mode is empty.
func (p *Parameters) Validate(requirePayload bool) error {
	defaults := DefaultParameters()
	if p.PopulationSize <= 0 {
		p.PopulationSize = defaults.PopulationSize
	}
	if p.Beta <= 0 || p.Beta >= 1 {
		p.Beta = defaults.Beta
	}
	if p.Iterations <= 0 {
		p.Iterations = defaults.Iterations
	}
	if p.PayloadSearchSpace <= 0 {
		p.PayloadSearchSpace = defaults.PayloadSearchSpace
	}
	if p.MarkerSearchSpace <= 0 {
		p.MarkerSearchSpace = defaults.MarkerSearchSpace
	}
	if p.OptimizerName == "" {
		p.OptimizerName = defaults.OptimizerName
	}

	if p.CoverPath == "" {
		return stegoerr.ErrInputMissing
	}
	if requirePayload && p.PayloadPath == "" {
		return stegoerr.ErrInputMissing
	}
	return nil
}
