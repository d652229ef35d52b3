// Package normalize prepares decoded images for transport to a remote
// inference service: transparency is flattened onto a white background, the
// pixels are converted to plain RGB and the result is re-encoded as a
// base64 JPEG.
package normalize

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/disintegration/imaging"
)

// DefaultQuality is the JPEG quality used for the transport encoding.
const DefaultQuality = 95

// Encoder converts decoded images into the byte encoding sent over the wire.
// The zero value is not usable; use NewEncoder.
type Encoder struct {
	// Quality is the JPEG quality (1-100).
	Quality int
	// MaxDim caps the long side of the encoded image in pixels.
	// 0 keeps the original size.
	MaxDim int
}

// NewEncoder returns an Encoder with the default transport settings.
func NewEncoder() *Encoder {
	return &Encoder{Quality: DefaultQuality}
}

// Encode flattens and re-encodes img as a JPEG. The output is deterministic
// for a given input image and encoder settings.
func (e *Encoder) Encode(img image.Image) ([]byte, error) {
	flat := Flatten(img)

	if e.MaxDim > 0 {
		b := flat.Bounds()
		if w, h := b.Dx(), b.Dy(); w > e.MaxDim || h > e.MaxDim {
			if w >= h {
				flat = imaging.Resize(flat, e.MaxDim, 0, imaging.Lanczos)
			} else {
				flat = imaging.Resize(flat, 0, e.MaxDim, imaging.Lanczos)
			}
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: e.Quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeBase64 encodes img as a JPEG and returns the bytes as a standard
// base64 string, ready to embed in a JSON request body.
func (e *Encoder) EncodeBase64(img image.Image) (string, error) {
	data, err := e.Encode(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Flatten returns img with any transparency composited onto an opaque white
// canvas of identical dimensions, using the image's own alpha channel as the
// compositing mask. Images that are already fully opaque are only converted
// to the plain color model.
func Flatten(img image.Image) *image.NRGBA {
	if isOpaque(img) {
		return imaging.Clone(img)
	}
	bounds := img.Bounds()
	canvas := imaging.New(bounds.Dx(), bounds.Dy(), color.NRGBA{255, 255, 255, 255})
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

func isOpaque(img image.Image) bool {
	type opaquer interface {
		Opaque() bool
	}
	if o, ok := img.(opaquer); ok {
		return o.Opaque()
	}
	// Unknown implementation: scan the alpha channel.
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}
