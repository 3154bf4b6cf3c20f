package driver

import (
	"image"
	"image/png"
	"os"

	"github.com/metobtw/dctstego/internal/block"
	"github.com/metobtw/dctstego/internal/stegoerr"
)

// loadGrayscale opens path as a PNG and converts it to 8-bit grayscale,
// grounded on the teacher's examples/export_png/main.go
// (image.NewGray + image/png round trip). Any source color model is
// accepted and converted via the image.Gray draw path.
func loadGrayscale(path string) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, stegoerr.ErrInputMissing
		}
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}

	if gray, ok := src.(*image.Gray); ok {
		return gray, nil
	}

	bounds := src.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, src.At(x, y))
		}
	}
	return gray, nil
}

// saveGrayscale writes img to path as an 8-bit grayscale PNG.
func saveGrayscale(img *image.Gray, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// checkSquareMultipleOf8 enforces SPEC_FULL.md's resolution of Open
// Question 2: images must be square, and their edge must be a multiple
// of the block size.
func checkSquareMultipleOf8(img *image.Gray) error {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w != h || w%block.Size != 0 {
		return stegoerr.ErrDimensionInvalid
	}
	return nil
}

// readBlock copies the 8x8 tile whose top-left pixel is (col*8, row*8)
// out of img into a PixelBlock.
func readBlock(img *image.Gray, row, col int) block.PixelBlock {
	var px block.PixelBlock
	base := img.Rect.Min
	for y := 0; y < block.Size; y++ {
		srcY := base.Y + row*block.Size + y
		rowOff := srcY * img.Stride
		for x := 0; x < block.Size; x++ {
			srcX := base.X + col*block.Size + x
			px[y*block.Size+x] = int(img.Pix[rowOff+srcX])
		}
	}
	return px
}

// writeBlock writes px into img's tile at (row, col), clamping to
// [0,255] defensively (the fitness metric already guarantees legality,
// but writeBlock itself does not assume a caller upstream always does).
func writeBlock(img *image.Gray, row, col int, px block.PixelBlock) {
	base := img.Rect.Min
	for y := 0; y < block.Size; y++ {
		dstY := base.Y + row*block.Size + y
		rowOff := dstY * img.Stride
		for x := 0; x < block.Size; x++ {
			dstX := base.X + col*block.Size + x
			v := px[y*block.Size+x]
			switch {
			case v < 0:
				v = 0
			case v > 255:
				v = 255
			}
			img.Pix[rowOff+dstX] = byte(v)
		}
	}
}
