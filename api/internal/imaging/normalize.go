package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	"github.com/nfnt/resize"
)

// ErrInvalidImage marks uploads that cannot be turned into a normalized JPEG:
// wrong content type, too many bytes, or undecodable pixel data.
var ErrInvalidImage = errors.New("invalid image")

// Normalizer re-encodes uploads into a bounded-size JPEG that every
// downstream step (classification, OCR) consumes.
type Normalizer struct {
	MaxBytes     int64
	MaxDimension int
	Quality      int
}

// Normalized is the re-encoded image plus its final pixel dimensions.
type Normalized struct {
	JPEG   []byte
	Width  int
	Height int
}

// Normalize validates and re-encodes an upload. The declared content type
// must start with "image/" and the payload must fit MaxBytes; both are
// checked before any decoding happens. Images whose longer side exceeds
// MaxDimension are downsampled with Lanczos3, preserving aspect ratio.
func (n *Normalizer) Normalize(data []byte, contentType string) (*Normalized, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: file must be an image (JPEG, PNG, etc.)", ErrInvalidImage)
	}
	if int64(len(data)) > n.MaxBytes {
		return nil, fmt.Errorf("%w: file size must be less than %d bytes", ErrInvalidImage, n.MaxBytes)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	img = toRGB(img)

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > n.MaxDimension || h > n.MaxDimension {
		if w >= h {
			img = resize.Resize(uint(n.MaxDimension), 0, img, resize.Lanczos3)
		} else {
			img = resize.Resize(0, uint(n.MaxDimension), img, resize.Lanczos3)
		}
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: n.Quality}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	nb := img.Bounds()
	return &Normalized{JPEG: out.Bytes(), Width: nb.Dx(), Height: nb.Dy()}, nil
}

// toRGB flattens whatever color model the decoder produced onto an RGBA
// canvas so the JPEG encoder always sees three color channels.
func toRGB(img image.Image) image.Image {
	if _, ok := img.(*image.RGBA); ok {
		return img
	}
	dst := image.NewRGBA(img.Bounds())
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	return dst
}
