// Package stegoerr defines the sentinel error taxonomy shared by the
// embed and extract drivers.
package stegoerr

import "errors"

// Sentinel errors surfaced at the driver boundary. The optimizer and
// fitness packages never return errors: a block that cannot be embedded
// cleanly falls back to the single-bit marker instead of failing.
var (
	// ErrInputMissing indicates a required file (cover image, payload,
	// sidecar) is absent.
	ErrInputMissing = errors.New("stego: required input file is missing")

	// ErrDimensionInvalid indicates the cover image is not square or its
	// dimensions are not multiples of 8.
	ErrDimensionInvalid = errors.New("stego: image dimensions must be square and a multiple of 8")

	// ErrPayloadTooShort indicates the payload ran out of bits for a
	// block. Not fatal: the driver pads with '0' and continues, and never
	// returns this error; it names the padding policy only.
	ErrPayloadTooShort = errors.New("stego: payload exhausted before image capacity, padded with zeros")

	// ErrSidecarInvalid indicates blocks.txt contains an out-of-range or
	// duplicate block index.
	ErrSidecarInvalid = errors.New("stego: block permutation sidecar is invalid")

	// ErrCandidateLength indicates a change-matrix candidate does not
	// have exactly 64 entries.
	ErrCandidateLength = errors.New("stego: candidate must have 64 entries")
)
