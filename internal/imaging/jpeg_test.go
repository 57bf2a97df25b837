package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test png: %v", err)
	}
	return buf.Bytes()
}

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a JPEG: %v", err)
	}
	return img
}

func TestEncodeJPEG_ConvertsPNG(t *testing.T) {
	out, err := EncodeJPEG(testPNG(t, 64, 48), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img := decode(t, out)
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
		t.Errorf("expected 64x48, got %v", img.Bounds())
	}
}

func TestEncodeJPEG_Resize(t *testing.T) {
	tests := []struct {
		name          string
		w, h, maxSize int
		wantW, wantH  int
	}{
		{"landscape", 200, 100, 50, 50, 25},
		{"portrait", 100, 200, 50, 25, 50},
		{"already small", 40, 30, 50, 40, 30},
		{"no limit", 200, 100, 0, 200, 100},
		{"thin strip keeps one pixel", 400, 1, 100, 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := EncodeJPEG(testPNG(t, tt.w, tt.h), Options{MaxSize: tt.maxSize})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			b := decode(t, out).Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("expected %dx%d, got %dx%d", tt.wantW, tt.wantH, b.Dx(), b.Dy())
			}
		})
	}
}

func TestEncodeJPEG_RejectsGarbage(t *testing.T) {
	_, err := EncodeJPEG([]byte("definitely not an image"), Options{})
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

// Re-encoding an already compressed image at the same quality must not drift
// beyond a small per-channel tolerance.
func TestEncodeJPEG_RecompressionIsStable(t *testing.T) {
	first, err := EncodeJPEG(testPNG(t, 96, 96), Options{Quality: DefaultQuality})
	if err != nil {
		t.Fatalf("first encode: %v", err)
	}
	second, err := EncodeJPEG(first, Options{Quality: DefaultQuality})
	if err != nil {
		t.Fatalf("second encode: %v", err)
	}

	a, b := decode(t, first), decode(t, second)
	if a.Bounds() != b.Bounds() {
		t.Fatalf("bounds changed: %v -> %v", a.Bounds(), b.Bounds())
	}

	var total, n float64
	for y := a.Bounds().Min.Y; y < a.Bounds().Max.Y; y++ {
		for x := a.Bounds().Min.X; x < a.Bounds().Max.X; x++ {
			r1, g1, b1, _ := a.At(x, y).RGBA()
			r2, g2, b2, _ := b.At(x, y).RGBA()
			total += absDiff(r1, r2) + absDiff(g1, g2) + absDiff(b1, b2)
			n += 3
		}
	}

	// mean absolute difference in 8-bit units
	if mean := total / n / 257; mean > 2.0 {
		t.Errorf("recompression drifted by %.2f per channel", mean)
	}
}

func TestPlaceholder(t *testing.T) {
	img := decode(t, Placeholder(64))
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 64 {
		t.Errorf("expected 64x64 placeholder, got %v", img.Bounds())
	}

	img = decode(t, Placeholder(0))
	if img.Bounds().Dx() != 256 {
		t.Errorf("expected default size 256, got %v", img.Bounds())
	}
}

func absDiff(a, b uint32) float64 {
	if a > b {
		return float64(a - b)
	}
	return float64(b - a)
}
