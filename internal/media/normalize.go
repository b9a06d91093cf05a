// Package media prepares product images and attaches them to products.
package media

import (
	"bytes"
	"image"
	_ "image/gif" // decoder registration
	"image/jpeg"
	_ "image/png" // decoder registration

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // decoder registration
)

// Default normalization settings.
const (
	DefaultMaxDimension = 800
	DefaultJPEGQuality  = 85
)

// Normalizer re-encodes images as opaque JPEGs bounded to MaxDimension on
// each side.
type Normalizer struct {
	MaxDimension int
	JPEGQuality  int
}

// Normalize uses the default settings.
func Normalize(data []byte) []byte {
	return Normalizer{}.Normalize(data)
}

// Normalize decodes data, flattens any transparency onto white, downscales
// with Catmull-Rom when a side exceeds MaxDimension and encodes a JPEG.
// Undecodable input is returned unchanged.
func (n Normalizer) Normalize(data []byte) []byte {
	maxDim := n.MaxDimension
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	quality := n.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}

	bounds := src.Bounds()
	width, height := fit(bounds.Dx(), bounds.Dy(), maxDim)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if width == bounds.Dx() && height == bounds.Dy() {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return data
	}
	return buf.Bytes()
}

// fit scales (w, h) down to fit a maxDim square, keeping aspect ratio.
func fit(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	if w >= h {
		return maxDim, max(1, h*maxDim/w)
	}
	return max(1, w*maxDim/h), maxDim
}

// DetectType returns the MIME type and file extension of data.
func DetectType(data []byte) (string, string) {
	mt := mimetype.Detect(data)
	return mt.String(), mt.Extension()
}
