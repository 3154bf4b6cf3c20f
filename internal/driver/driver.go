// Package driver wires together the block, qim, population, fitness and
// optimizer packages into the two end-to-end operations of spec.md §7:
// embedding a bitstring into a cover image, and extracting it back out of
// a stego image plus its sidecar.
package driver

import (
	"fmt"
	"image"
	"math/rand"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/metobtw/dctstego/internal/block"
	"github.com/metobtw/dctstego/internal/fitness"
	"github.com/metobtw/dctstego/internal/optimizer"
	"github.com/metobtw/dctstego/internal/population"
	"github.com/metobtw/dctstego/internal/qim"
	"github.com/metobtw/dctstego/internal/stegoerr"
)

// EmbedReport summarizes one EmbedImage run, the SUPPLEMENTED per-run
// reporting SPEC_FULL.md adds over the original C++, which printed
// nothing beyond stray debug lines.
type EmbedReport struct {
	TotalBlocks     int
	CommittedBlocks int
	MarkerBlocks    int
	Elapsed         time.Duration
}

// ExtractReport summarizes one ExtractImage run.
type ExtractReport struct {
	TotalBlocks     int
	CommittedBlocks int
	MarkerBlocks    int
	Elapsed         time.Duration
}

// blockCoords maps a linear block index to its (row, col) tile position,
// using width/8 as the stride per SPEC_FULL.md's resolution of Open
// Question 2: block indexing always derives from the image width, never
// from a separate row count, since non-square images are rejected before
// this function is ever called.
func blockCoords(index, blocksPerRow int) (row, col int) {
	return index / blocksPerRow, index % blocksPerRow
}

// shuffledOrder returns a permutation of [0, n) via a Fisher-Yates
// shuffle driven by rng, mirroring the reference implementation's
// std::shuffle over the block index vector.
func shuffledOrder(n int, rng *rand.Rand) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// blockPlan is the fully-determined, pre-computed unit of work for one
// block: which tile it occupies and which bits (if any) it attempts to
// embed. Building every plan before dispatching workers is what keeps
// embedding embarrassingly parallel (see SPEC_FULL.md §5 and its Open
// Question 1 resolution): no block's work depends on another block's
// outcome.
type blockPlan struct {
	rank    int
	index   int
	row     int
	col     int
	bits    string // "" means marker-only fallback, no payload attempted
	isEmbed bool   // false for a pure marker write (payload exhausted)
}

// buildPlans determines, for every block in order (already a permutation
// of the image's block indices), which 31-bit payload chunk it attempts
// (if any) before any block is actually processed. The b-th block
// visited always targets payload[31b : 31b+31); per spec.md §7's
// PayloadTooShort policy, a chunk that runs past the end of the payload
// is right-padded with '0' up to 31 bits rather than dropped, as long as
// at least one real payload bit remains at that rank (stegoerr.
// ErrPayloadTooShort documents this same padding). Only once a rank's
// start index is at or past the payload's end — no real bits left at
// all — does the block carry no attempted chunk and go straight to the
// marker fallback.
func buildPlans(order []int, payload string, blocksPerRow int) []blockPlan {
	plans := make([]blockPlan, len(order))
	for rank, index := range order {
		row, col := blockCoords(index, blocksPerRow)
		start := rank * 31
		plan := blockPlan{rank: rank, index: index, row: row, col: col}
		if start < len(payload) {
			end := start + 31
			chunk := payload[start:min(end, len(payload))]
			if end > len(payload) {
				chunk += strings.Repeat("0", end-len(payload))
			}
			plan.bits = "1" + chunk
			plan.isEmbed = true
		}
		plans[rank] = plan
	}
	return plans
}

func workerCount(requested int) int {
	if requested > 0 {
		return requested
	}
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}

// runBlockJobs fans plans out across a worker pool, grounded on the
// job-channel-plus-WaitGroup pattern of the pack's Hide tool (stego.go's
// per-worker DCT job loop). Unlike that reference, the RNG each block's
// optimization search uses is seeded from (cfg.Seed, plan.rank) rather
// than from the worker that happens to pick the job up: Go gives no
// ordering guarantee among goroutines racing to receive off the same
// channel, so a worker-indexed seed would make the committed pixel
// deltas depend on scheduling instead of just cfg.Seed, breaking
// reproducibility for any Workers > 1.
func runBlockJobs(plans []blockPlan, cfg Parameters, apply func(plan blockPlan, rng *rand.Rand) (committed bool)) (committedCount int) {
	jobs := make(chan blockPlan)
	results := make(chan bool, len(plans))

	var wg sync.WaitGroup
	workers := workerCount(cfg.Workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for plan := range jobs {
				rng := rand.New(rand.NewSource(cfg.Seed + int64(plan.rank) + 1))
				results <- apply(plan, rng)
			}
		}()
	}

	go func() {
		for _, p := range plans {
			jobs <- p
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for committed := range results {
		if committed {
			committedCount++
		}
	}
	return committedCount
}

// EmbedImage runs the full embed pipeline: load the cover, plan every
// block's target bits up front, optimize each block's change-matrix
// candidate in parallel, commit the winning candidate (or fall back to a
// single-bit marker) per block, and write the stego PNG plus its
// sidecar.
func EmbedImage(cfg Parameters) (EmbedReport, error) {
	start := time.Now()
	if err := cfg.Validate(true); err != nil {
		return EmbedReport{}, err
	}

	img, err := loadGrayscale(cfg.CoverPath)
	if err != nil {
		return EmbedReport{}, err
	}
	if err := checkSquareMultipleOf8(img); err != nil {
		return EmbedReport{}, err
	}

	payloadBytes, err := os.ReadFile(cfg.PayloadPath)
	if err != nil {
		return EmbedReport{}, fmt.Errorf("%w: %v", stegoerr.ErrInputMissing, err)
	}
	payload := strings.TrimSpace(strings.SplitN(string(payloadBytes), "\n", 2)[0])

	blocksPerRow := img.Bounds().Dx() / block.Size
	numBlocks := blocksPerRow * blocksPerRow

	seedRng := rand.New(rand.NewSource(cfg.Seed))
	order := shuffledOrder(numBlocks, seedRng)
	if err := writeSidecar(cfg.SidecarPath, order); err != nil {
		return EmbedReport{}, err
	}

	plans := buildPlans(order, payload, blocksPerRow)

	var mu sync.Mutex
	markerCount := 0

	committed := runBlockJobs(plans, cfg, func(plan blockPlan, rng *rand.Rand) bool {
		original := readBlock(img, plan.row, plan.col)
		ok := embedBlock(img, original, plan, cfg, rng)
		if !ok {
			mu.Lock()
			markerCount++
			mu.Unlock()
		}
		return ok
	})

	if err := saveGrayscale(img, cfg.OutputPath); err != nil {
		return EmbedReport{}, err
	}

	return EmbedReport{
		TotalBlocks:     numBlocks,
		CommittedBlocks: committed,
		MarkerBlocks:    markerCount,
		Elapsed:         time.Since(start),
	}, nil
}

// embedBlock searches for a change-matrix that embeds plan's 32-bit
// payload message; on success it writes the resulting pixels into img
// and reports true. If no payload was planned for this block, or the
// payload search finds no candidate scoring above 1.0 (every bit
// decoded correctly), it falls back to the
// single-bit marker embedding of spec.md §4.7 step 7 and reports false.
func embedBlock(img *image.Gray, original block.PixelBlock, plan blockPlan, cfg Parameters, rng *rand.Rand) bool {
	if plan.isEmbed {
		coef := block.DCT(original)
		target := qim.Embed(coef, plan.bits)
		modified := block.IDCT(target)

		pop := population.Seed(original, modified, cfg.PopulationSize, cfg.Beta, cfg.PayloadSearchSpace, rng)
		eval := fitness.Evaluator{Original: original, Bits: plan.bits, S: cfg.PayloadSearchSpace, RNG: rng}
		opt, err := optimizer.Get(cfg.OptimizerName)
		if err == nil {
			score, candidate := opt.Optimize(pop, eval, rng)
			if score > 1.0 {
				writeBlock(img, plan.row, plan.col, applyCandidate(original, candidate))
				return true
			}
		}
	}

	writeMarker(img, original, plan, cfg, rng)
	return false
}

// writeMarker searches for a single-bit "no payload here" marker and
// always commits the best candidate found, even when that candidate does
// not decode as the marker. Per SPEC_FULL.md Open Question 5, the fallback search always
// restarts from the block's own original DCT, never from whatever
// multi-bit candidate the payload search already (and unsuccessfully)
// tried.
func writeMarker(img *image.Gray, original block.PixelBlock, plan blockPlan, cfg Parameters, rng *rand.Rand) {
	coef := block.DCT(original)
	target := qim.Embed(coef, "0")
	modified := block.IDCT(target)

	pop := population.Seed(original, modified, cfg.PopulationSize, cfg.Beta, cfg.MarkerSearchSpace, rng)
	eval := fitness.Evaluator{Original: original, Bits: "0", S: cfg.MarkerSearchSpace, RNG: rng}

	sca := optimizer.SCA{Iterations: cfg.Iterations, ALinear: optimizer.DefaultALinear, EarlyExit: true}
	_, candidate := sca.Optimize(pop, eval, rng)
	writeBlock(img, plan.row, plan.col, applyCandidate(original, candidate))
}

// applyCandidate adds a legalized change-matrix to the original pixel
// block, clamping to [0,255]. This mirrors the clamp step embedded in
// fitness.Evaluate, reapplied here because the optimizer returns the
// candidate vector rather than the pixel block it implies.
func applyCandidate(original block.PixelBlock, candidate []float64) block.PixelBlock {
	var out block.PixelBlock
	for k := 0; k < block.N; k++ {
		v := original[k] + int(candidate[k])
		switch {
		case v > 255:
			v = 255
		case v < 0:
			v = 0
		}
		out[k] = v
	}
	return out
}

// ExtractImage replays a previously written sidecar's block order,
// decodes each block's bits, and concatenates every committed block's
// payload fragment (stripping its leading mode flag) into the recovered
// bitstring, writing it to cfg.PayloadOutPath.
func ExtractImage(cfg Parameters) (ExtractReport, error) {
	start := time.Now()
	if err := cfg.Validate(false); err != nil {
		return ExtractReport{}, err
	}

	img, err := loadGrayscale(cfg.CoverPath)
	if err != nil {
		return ExtractReport{}, err
	}
	if err := checkSquareMultipleOf8(img); err != nil {
		return ExtractReport{}, err
	}

	blocksPerRow := img.Bounds().Dx() / block.Size
	numBlocks := blocksPerRow * blocksPerRow

	order, err := readSidecar(cfg.SidecarPath, numBlocks)
	if err != nil {
		return ExtractReport{}, err
	}

	fragments := make([]string, len(order))
	committed := 0
	marker := 0
	var mu sync.Mutex

	var wg sync.WaitGroup
	for rank, index := range order {
		wg.Add(1)
		go func(rank, index int) {
			defer wg.Done()
			row, col := blockCoords(index, blocksPerRow)
			px := readBlock(img, row, col)
			decoded := qim.Extract(block.DCT(px))

			mu.Lock()
			defer mu.Unlock()
			if decoded == qim.MarkerSentinel {
				marker++
				return
			}
			fragments[rank] = decoded[1:]
			committed++
		}(rank, index)
	}
	wg.Wait()

	recovered := strings.Join(fragments, "")
	if err := os.WriteFile(cfg.PayloadOutPath, []byte(recovered), 0o644); err != nil {
		return ExtractReport{}, err
	}

	return ExtractReport{
		TotalBlocks:     numBlocks,
		CommittedBlocks: committed,
		MarkerBlocks:    marker,
		Elapsed:         time.Since(start),
	}, nil
}
