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

func testNormalizer() *Normalizer {
	return &Normalizer{MaxBytes: 10 << 20, MaxDimension: 1024, Quality: 85}
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decodeDims(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("normalized output is not a valid JPEG: %v", err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestNormalizeRejectsNonImageContentType(t *testing.T) {
	_, err := testNormalizer().Normalize([]byte("plain text"), "text/plain")
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
}

func TestNormalizeRejectsOversizedUpload(t *testing.T) {
	n := &Normalizer{MaxBytes: 100, MaxDimension: 1024, Quality: 85}
	big := make([]byte, 101)
	if _, err := n.Normalize(big, "image/png"); !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
}

func TestNormalizeRejectsUndecodableBytes(t *testing.T) {
	_, err := testNormalizer().Normalize([]byte{0x00, 0x01, 0x02, 0x03}, "image/jpeg")
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
}

func TestNormalizeKeepsSmallImageDimensions(t *testing.T) {
	data := encodePNG(t, 640, 480)
	got, err := testNormalizer().Normalize(data, "image/png")
	if err != nil {
		t.Fatal(err)
	}
	if got.Width != 640 || got.Height != 480 {
		t.Errorf("dimensions = %dx%d, want 640x480", got.Width, got.Height)
	}
	if w, h := decodeDims(t, got.JPEG); w != 640 || h != 480 {
		t.Errorf("encoded dimensions = %dx%d, want 640x480", w, h)
	}
}

func TestNormalizeDownsamplesWideImage(t *testing.T) {
	data := encodePNG(t, 2048, 1000)
	got, err := testNormalizer().Normalize(data, "image/png")
	if err != nil {
		t.Fatal(err)
	}
	if got.Width != 1024 {
		t.Errorf("longer side = %d, want exactly 1024", got.Width)
	}
	if got.Height != 500 {
		t.Errorf("shorter side = %d, want 500 (aspect preserved)", got.Height)
	}
}

func TestNormalizeDownsamplesTallImage(t *testing.T) {
	data := encodePNG(t, 500, 2048)
	got, err := testNormalizer().Normalize(data, "image/png")
	if err != nil {
		t.Fatal(err)
	}
	if got.Height != 1024 {
		t.Errorf("longer side = %d, want exactly 1024", got.Height)
	}
	if got.Width != 250 {
		t.Errorf("shorter side = %d, want 250 (aspect preserved)", got.Width)
	}
}

func TestNormalizeReencodesAsJPEG(t *testing.T) {
	data := encodePNG(t, 100, 100)
	got, err := testNormalizer().Normalize(data, "image/png")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.JPEG) < 2 || got.JPEG[0] != 0xFF || got.JPEG[1] != 0xD8 {
		t.Error("output does not start with a JPEG SOI marker")
	}
}
