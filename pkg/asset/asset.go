// Package asset loads and holds the template image a certificate run
// stamps text onto.
//
// An [Image] wraps the decoded pixels together with the template's native
// resolution. Exports always happen at native resolution; on-screen or
// on-terminal coordinates are converted with a scale factor computed
// against the displayed width (see [Image.ScaleFactor]).
package asset

import (
	"bytes"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/mkoeppel/certpress/pkg/errors"
)

// Image is a decoded certificate template at its native resolution.
type Image struct {
	src    image.Image
	width  int
	height int
}

// Open loads and decodes the template image at path.
// Supported formats are those of the imaging package (PNG, JPEG, GIF,
// TIFF, BMP). EXIF orientation is applied so exports match the preview.
func Open(path string) (*Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "open template %s", path)
	}
	return FromImage(img), nil
}

// Decode reads and decodes a template image from r.
func Decode(r io.Reader) (*Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "decode template image")
	}
	return FromImage(img), nil
}

// DecodeBytes decodes a template image from an in-memory byte slice.
func DecodeBytes(data []byte) (*Image, error) {
	return Decode(bytes.NewReader(data))
}

// FromImage wraps an already-decoded image.
func FromImage(img image.Image) *Image {
	b := img.Bounds()
	return &Image{src: img, width: b.Dx(), height: b.Dy()}
}

// Source returns the decoded pixel data.
func (a *Image) Source() image.Image { return a.src }

// Width returns the native pixel width.
func (a *Image) Width() int { return a.width }

// Height returns the native pixel height.
func (a *Image) Height() int { return a.height }

// ScaleFactor returns the native-to-displayed scale for a template shown
// at displayWidth, native width divided by displayed width. A display
// wider than the template yields a factor below 1, shrinking overlay
// coordinates accordingly. A displayWidth of zero means coordinates are
// already native and the factor is 1.
func (a *Image) ScaleFactor(displayWidth float64) float64 {
	if displayWidth <= 0 {
		return 1
	}
	return float64(a.width) / displayWidth
}

// IsURL reports whether source names a remote template rather than a
// local file.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
