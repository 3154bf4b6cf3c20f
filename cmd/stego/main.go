// Command stego embeds a bitstring payload into a grayscale PNG's DCT
// coefficients, or extracts one back out, using quantization-index
// modulation tuned per block by a population metaheuristic search.
//
// Usage mirrors the reference tool's interactive mode prompt: with no
// -mode flag, stego reads a single integer from stdin (1 = embed, 2 =
// extract), the way the original C++ read `cin >> mode`. All other
// parameters come from flags, following the teacher's CLI texture in
// examples/dicom_transcoder/main.go (banner, numbered progress lines,
// a final summary block) rather than that file's interactive-DICOM
// prompts.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/metobtw/dctstego/internal/driver"
	"github.com/metobtw/dctstego/internal/optimizer"
)

func main() {
	var (
		mode        = flag.Int("mode", 0, "1 = embed, 2 = extract (0 = prompt on stdin)")
		cover       = flag.String("cover", "", "cover PNG to embed into, or stego PNG to extract from")
		payload     = flag.String("payload", "", "payload bitstring file (embed mode)")
		output      = flag.String("output", "stego.png", "stego PNG output path (embed mode)")
		sidecar     = flag.String("sidecar", "blocks.txt", "block permutation sidecar path")
		payloadOut  = flag.String("payload-out", "recovered.txt", "recovered payload output path (extract mode)")
		optName     = flag.String("optimizer", "sca", fmt.Sprintf("optimizer to use (%s)", strings.Join(optimizer.Names(), ", ")))
		seed        = flag.Int64("seed", 1, "top-level RNG seed")
		workers     = flag.Int("workers", 0, "worker pool size (0 = runtime.NumCPU())")
		populationN = flag.Int("population", 0, "population size per block (0 = default)")
		iterations  = flag.Int("iterations", 0, "optimizer iterations per block (0 = default)")
	)
	flag.Parse()

	cfg := driver.DefaultParameters()
	cfg.CoverPath = *cover
	cfg.PayloadPath = *payload
	cfg.OutputPath = *output
	cfg.SidecarPath = *sidecar
	cfg.PayloadOutPath = *payloadOut
	cfg.OptimizerName = *optName
	cfg.Seed = *seed
	cfg.Workers = *workers
	if *populationN > 0 {
		cfg.PopulationSize = *populationN
	}
	if *iterations > 0 {
		cfg.Iterations = *iterations
	}

	m := *mode
	if m == 0 {
		m = promptMode()
	}

	fmt.Println("DCT/QIM Steganography Tool")
	fmt.Println(strings.Repeat("-", 60))

	switch m {
	case 1:
		runEmbed(cfg)
	case 2:
		runExtract(cfg)
	default:
		log.Fatalf("unknown mode %d (expected 1=embed, 2=extract)", m)
	}
}

// promptMode reads a single integer from stdin, mirroring the reference
// tool's `cin >> mode`.
func promptMode() int {
	fmt.Print("Select mode (1 = embed, 2 = extract): ")
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	m, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		log.Fatalf("invalid mode: %v", err)
	}
	return m
}

func runEmbed(cfg driver.Parameters) {
	fmt.Printf("Cover:   %s\n", cfg.CoverPath)
	fmt.Printf("Payload: %s\n", cfg.PayloadPath)
	fmt.Printf("Output:  %s\n", cfg.OutputPath)
	fmt.Printf("Sidecar: %s\n", cfg.SidecarPath)
	fmt.Printf("Optimizer: %s (seed=%d, workers=%d)\n", cfg.OptimizerName, cfg.Seed, cfg.Workers)
	fmt.Println(strings.Repeat("-", 60))

	report, err := driver.EmbedImage(cfg)
	if err != nil {
		log.Fatalf("embed failed: %v", err)
	}

	fmt.Println(strings.Repeat("-", 60))
	fmt.Println("Embed Summary")
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Blocks:        %d\n", report.TotalBlocks)
	fmt.Printf("Committed:     %d\n", report.CommittedBlocks)
	fmt.Printf("Marker-only:   %d\n", report.MarkerBlocks)
	fmt.Printf("Elapsed:       %s\n", report.Elapsed)
	fmt.Printf("Stego written: %s\n", cfg.OutputPath)
}

func runExtract(cfg driver.Parameters) {
	fmt.Printf("Stego:   %s\n", cfg.CoverPath)
	fmt.Printf("Sidecar: %s\n", cfg.SidecarPath)
	fmt.Println(strings.Repeat("-", 60))

	report, err := driver.ExtractImage(cfg)
	if err != nil {
		log.Fatalf("extract failed: %v", err)
	}

	fmt.Println(strings.Repeat("-", 60))
	fmt.Println("Extract Summary")
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Blocks:          %d\n", report.TotalBlocks)
	fmt.Printf("Committed:       %d\n", report.CommittedBlocks)
	fmt.Printf("Marker-only:     %d\n", report.MarkerBlocks)
	fmt.Printf("Elapsed:         %s\n", report.Elapsed)
	fmt.Printf("Payload written: %s\n", cfg.PayloadOutPath)
}
