// Package encode turns rendered rasters into export artifacts: PNG bytes,
// single-page PDFs sized to the raster, and zip archives for batch runs.
package encode

import (
	"bytes"
	"image"
	"image/png"

	"github.com/mkoeppel/certpress/pkg/errors"
)

// Output format identifiers.
const (
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// ValidFormats is the set of supported export formats.
var ValidFormats = map[string]bool{
	FormatPNG: true,
	FormatPDF: true,
}

// Fixed artifact names for single-certificate exports and batch archives.
const (
	SinglePNGName = "edited-image.png"
	SinglePDFName = "edited-image.pdf"
	ArchiveName   = "certificates.zip"
)

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be 'png' or 'pdf')", format)
	}
	return nil
}

// Encode converts a raster to the requested format.
func Encode(img image.Image, format string) ([]byte, error) {
	switch format {
	case FormatPNG:
		return PNG(img)
	case FormatPDF:
		return PDF(img)
	default:
		return nil, ValidateFormat(format)
	}
}

// PNG encodes a raster as PNG bytes.
func PNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncodeFailed, err, "encode PNG")
	}
	return buf.Bytes(), nil
}

// SingleName returns the fixed output filename for a single export.
func SingleName(format string) string {
	if format == FormatPDF {
		return SinglePDFName
	}
	return SinglePNGName
}

// ContentType returns the MIME type for a format.
func ContentType(format string) string {
	if format == FormatPDF {
		return "application/pdf"
	}
	return "image/png"
}
