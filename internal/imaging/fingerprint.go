package imaging

import (
	"bytes"
	"fmt"
	"image"
	"math/bits"

	"golang.org/x/image/draw"
)

// DuplicateThreshold is the largest Hamming distance between two fingerprints
// still treated as the same photo.
const DuplicateThreshold = 10

// Fingerprint computes a 64-bit difference hash of an image. Re-encoding and
// resizing change it by a few bits at most.
func Fingerprint(data []byte) (uint64, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	// 9x8 gives 8 horizontal differences per row.
	small := image.NewRGBA(image.Rect(0, 0, 9, 8))
	draw.BiLinear.Scale(small, small.Bounds(), img, img.Bounds(), draw.Over, nil)

	var hash uint64
	bit := 63
	for y := range 8 {
		for x := range 8 {
			if luma(small, x, y) > luma(small, x+1, y) {
				hash |= 1 << bit
			}
			bit--
		}
	}
	return hash, nil
}

func luma(img *image.RGBA, x, y int) float64 {
	c := img.RGBAAt(x, y)
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

// HammingDistance counts the bits that differ between two fingerprints.
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether two fingerprints are within threshold bits.
func Similar(a, b uint64, threshold int) bool {
	return HammingDistance(a, b) <= threshold
}
