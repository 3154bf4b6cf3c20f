package driver

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/metobtw/dctstego/internal/stegoerr"
)

// writeSidecar persists the block embedding order to path as
// space-separated decimal indices, matching blocks.txt's format in
// spec.md §6 (and original_source's `outputFile << num << ' '`).
func writeSidecar(path string, order []int) error {
	var b strings.Builder
	for _, idx := range order {
		fmt.Fprintf(&b, "%d ", idx)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// readSidecar parses path's whitespace-separated decimal indices and
// validates each is in [0, numBlocks) with no duplicates — a
// supplement over the original C++, which trusted blocks.txt blindly
// (see SPEC_FULL.md's SUPPLEMENTED section).
func readSidecar(path string, numBlocks int) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, stegoerr.ErrInputMissing
		}
		return nil, err
	}
	defer f.Close()

	seen := make(map[int]bool)
	var order []int
	scanner := bufio.NewScanner(f)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		n, err := strconv.Atoi(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", stegoerr.ErrSidecarInvalid, err)
		}
		if n < 0 || n >= numBlocks || seen[n] {
			return nil, fmt.Errorf("%w: index %d", stegoerr.ErrSidecarInvalid, n)
		}
		seen[n] = true
		order = append(order, n)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return order, nil
}
