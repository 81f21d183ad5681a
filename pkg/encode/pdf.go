package encode

import (
	"bytes"
	"image"

	"codeberg.org/go-pdf/fpdf"

	"github.com/mkoeppel/certpress/pkg/errors"
)

// PDF encodes a raster as a single-page PDF.
//
// The page is sized exactly to the raster's pixel dimensions (in points),
// landscape when the raster is wider than tall, and the image fills the
// entire page from (0,0) with no scaling or cropping.
func PDF(img image.Image) ([]byte, error) {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	if w == 0 || h == 0 {
		return nil, errors.New(errors.ErrCodeEncodeFailed, "empty raster")
	}

	orientation, size := pageLayout(w, h)
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "pt",
		Size:           size,
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	raster, err := PNG(img)
	if err != nil {
		return nil, err
	}

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("raster", opts, bytes.NewReader(raster))
	pdf.ImageOptions("raster", 0, 0, w, h, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncodeFailed, err, "encode PDF")
	}
	return buf.Bytes(), nil
}

// pageLayout picks the page orientation and size for a raster. fpdf
// defines custom sizes in portrait terms and swaps them for landscape, so
// the landscape case passes (h, w) to end up with a w x h page.
func pageLayout(w, h float64) (string, fpdf.SizeType) {
	if w > h {
		return "L", fpdf.SizeType{Wd: h, Ht: w}
	}
	return "P", fpdf.SizeType{Wd: w, Ht: h}
}
