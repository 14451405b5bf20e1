// Package phash computes 64-bit average-hash fingerprints for card images
// and compares them by Hamming distance. Two photos of the same card differ
// by only a handful of bits even under lighting and cropping noise, which
// makes the distance usable for identification.
package phash

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math/bits"
	"strconv"

	"github.com/disintegration/imaging"
)

const (
	// InputSize is the required side length of the grayscale input grid.
	InputSize = 32
	// gridSize is the side length of the block grid, one bit per block.
	gridSize = 8
	// blockSize is the side length of each averaged pixel block.
	blockSize = InputSize / gridSize

	// Bits is the fingerprint length in bits.
	Bits = gridSize * gridSize
	// HexLen is the length of the serialized fingerprint.
	HexLen = Bits / 4
	// MaxDistance is the Hamming distance between a fingerprint and its
	// complement, also used as the defensive distance for corrupt input.
	MaxDistance = Bits
)

// ErrInvalidInput reports image data that cannot be fingerprinted: either
// undecodable bytes or a grid that is not 32x32 grayscale. Handlers map it
// to a client error.
var ErrInvalidInput = errors.New("phash: invalid image input")

// Fingerprint is a 64-bit average-hash digest. Bit 63 (the most
// significant) is block (0,0); bits follow in row-major order, so the hex
// form reads the block grid top-left to bottom-right.
type Fingerprint uint64

// Compute derives a fingerprint from a 32x32 grayscale image: each of the
// 64 non-overlapping 4x4 blocks is averaged, and a block scores a 1 bit
// when its mean is at or above the mean of all block means. The >= on exact
// ties makes a uniform image hash to all ones rather than erroring.
func Compute(img *image.Gray) (Fingerprint, error) {
	if img == nil {
		return 0, ErrInvalidInput
	}
	b := img.Bounds()
	if b.Dx() != InputSize || b.Dy() != InputSize {
		return 0, fmt.Errorf("%w: got %dx%d", ErrInvalidInput, b.Dx(), b.Dy())
	}

	var means [Bits]float64
	for row := 0; row < gridSize; row++ {
		for col := 0; col < gridSize; col++ {
			var sum int
			for y := 0; y < blockSize; y++ {
				for x := 0; x < blockSize; x++ {
					px := img.GrayAt(b.Min.X+col*blockSize+x, b.Min.Y+row*blockSize+y)
					sum += int(px.Y)
				}
			}
			means[row*gridSize+col] = float64(sum) / float64(blockSize*blockSize)
		}
	}

	var total float64
	for _, m := range means {
		total += m
	}
	mean := total / float64(Bits)

	var fp Fingerprint
	for i, m := range means {
		if m >= mean {
			fp |= 1 << (Bits - 1 - i)
		}
	}
	return fp, nil
}

// FromImage decodes an arbitrary image, normalizes it to the 32x32
// grayscale grid, and computes its fingerprint. The resize ignores aspect
// ratio so independently photographed copies of the same card line up
// block for block.
func FromImage(r io.Reader) (Fingerprint, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return 0, fmt.Errorf("%w: decode failed: %v", ErrInvalidInput, err)
	}
	return Compute(toGrayGrid(img))
}

// toGrayGrid resizes to the input grid and converts to 8-bit grayscale.
func toGrayGrid(img image.Image) *image.Gray {
	resized := imaging.Resize(img, InputSize, InputSize, imaging.Linear)
	gray := image.NewGray(image.Rect(0, 0, InputSize, InputSize))
	for y := 0; y < InputSize; y++ {
		for x := 0; x < InputSize; x++ {
			gray.SetGray(x, y, color.GrayModel.Convert(resized.At(x, y)).(color.Gray))
		}
	}
	return gray
}

// Hex serializes the fingerprint as 16 lowercase hex characters. The
// encoding is fixed-width so independently computed fingerprints of the
// same image are byte-identical.
func (f Fingerprint) Hex() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// ParseHex parses a fingerprint previously serialized with Hex.
func ParseHex(s string) (Fingerprint, error) {
	if len(s) != HexLen {
		return 0, fmt.Errorf("phash: fingerprint must be %d hex chars, got %d", HexLen, len(s))
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("phash: invalid fingerprint %q: %w", s, err)
	}
	return Fingerprint(v), nil
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b Fingerprint) int {
	return bits.OnesCount64(uint64(a ^ b))
}

// DistanceHex compares two serialized fingerprints. Mismatched lengths or
// unparsable values are treated as maximally distant rather than as errors,
// keeping nearest-neighbor scans defensive against corrupt stored hashes.
func DistanceHex(a, b string) int {
	fa, err := ParseHex(a)
	if err != nil {
		return MaxDistance
	}
	fb, err := ParseHex(b)
	if err != nil {
		return MaxDistance
	}
	return Distance(fa, fb)
}
