// Package imaging normalizes face images to the stored JPEG format.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultQuality is the JPEG quality every stored image is encoded with.
const DefaultQuality = 80

// ErrUnsupported is returned when the payload is not a decodable image.
var ErrUnsupported = errors.New("unsupported image data")

// Options controls EncodeJPEG.
type Options struct {
	Quality int // JPEG quality 1-100, DefaultQuality when zero
	MaxSize int // longest edge in pixels, 0 keeps the original size
}

// EncodeJPEG decodes any supported image and re-encodes it as JPEG, shrinking it
// to fit MaxSize while keeping the aspect ratio.
func EncodeJPEG(data []byte, opts Options) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	img = fit(img, opts.MaxSize)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// fit scales img down so neither edge exceeds maxSize.
func fit(img image.Image, maxSize int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if maxSize <= 0 || (width <= maxSize && height <= maxSize) {
		return img
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = maxSize
		newHeight = max(1, int(float64(height)*float64(maxSize)/float64(width)))
	} else {
		newHeight = maxSize
		newWidth = max(1, int(float64(width)*float64(maxSize)/float64(height)))
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
	return resized
}

// Placeholder renders a neutral head-and-shoulders silhouette used when a
// person's image is missing.
func Placeholder(size int) []byte {
	if size <= 0 {
		size = 256
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	bg := color.RGBA{R: 0xd8, G: 0xd8, B: 0xd8, A: 0xff}
	fg := color.RGBA{R: 0x9a, G: 0x9a, B: 0x9a, A: 0xff}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	cx := size / 2
	headR := size / 5
	headY := size * 2 / 5
	bodyR := size * 2 / 5
	bodyY := size + size/6

	for y := range size {
		for x := range size {
			if within(x, y, cx, headY, headR) || within(x, y, cx, bodyY, bodyR) {
				img.Set(x, y, fg)
			}
		}
	}

	var buf bytes.Buffer
	// Encoding an in-memory RGBA image cannot fail.
	_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: DefaultQuality})
	return buf.Bytes()
}

func within(x, y, cx, cy, r int) bool {
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= r*r
}
