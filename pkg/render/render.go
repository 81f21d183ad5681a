// Package render rasterizes the text overlay onto a template image.
//
// Output is always at the template's native resolution. The overlay spec
// carries display-space coordinates and font size; both are multiplied by
// the scale factor (native width / displayed width) before compositing, so
// what was positioned on screen lands in the same relative spot in the
// export. Rasters are produced fresh on every call, never cached.
package render

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/mkoeppel/certpress/pkg/asset"
	"github.com/mkoeppel/certpress/pkg/errors"
	"github.com/mkoeppel/certpress/pkg/overlay"
)

// shadowBlur is the drop-shadow blur radius in display pixels. It scales
// with the export resolution like the font size does.
const shadowBlur = 5.0

// Engine composites overlay specs onto templates with a fixed typeface.
type Engine struct {
	font *truetype.Font
}

// NewEngine creates a render engine drawing with the given typeface.
func NewEngine(f *truetype.Font) *Engine {
	return &Engine{font: f}
}

// Render draws the overlay onto the template and returns the composited
// raster at native resolution. An empty overlay text yields an untouched
// copy of the template.
func (e *Engine) Render(tpl *asset.Image, spec overlay.Spec, scale float64) (image.Image, error) {
	if tpl == nil {
		return nil, errors.New(errors.ErrCodeInvalidImage, "no template image")
	}
	if scale <= 0 {
		scale = 1
	}

	w, h := tpl.Width(), tpl.Height()
	dc := gg.NewContext(w, h)
	dc.DrawImage(tpl.Source(), 0, 0)

	if spec.Text == "" {
		return dc.Image(), nil
	}

	fill, err := spec.ParseColor()
	if err != nil {
		return nil, err
	}

	face := e.face(spec.FontSize * scale)
	defer face.Close()

	// Anchor by baseline: vertical offset equals the font size, so the
	// text's visual top-left matches the display position.
	x := spec.Position.X * scale
	y := (spec.Position.Y + spec.FontSize) * scale

	dc.DrawImage(e.shadowLayer(w, h, face, spec.Text, x, y, scale), 0, 0)

	dc.SetFontFace(face)
	dc.SetColor(fill)
	dc.DrawString(spec.Text, x, y)

	return dc.Image(), nil
}

// shadowLayer rasterizes the text in black on a transparent layer and
// blurs it, producing the fixed drop shadow behind the overlay.
func (e *Engine) shadowLayer(w, h int, face font.Face, text string, x, y, scale float64) image.Image {
	sc := gg.NewContext(w, h)
	sc.SetFontFace(face)
	sc.SetColor(color.Black)
	sc.DrawString(text, x, y)
	return imaging.Blur(sc.Image(), shadowBlur*scale)
}

// Measure returns the overlay's bounding box in display units, used to
// clamp dragging so the text never leaves the template.
func (e *Engine) Measure(spec overlay.Spec) overlay.Size {
	if spec.Text == "" {
		return overlay.Size{}
	}
	face := e.face(spec.FontSize)
	defer face.Close()

	dc := gg.NewContext(1, 1)
	dc.SetFontFace(face)
	w, _ := dc.MeasureString(spec.Text)
	return overlay.Size{W: w, H: spec.FontSize}
}

func (e *Engine) face(size float64) font.Face {
	return truetype.NewFace(e.font, &truetype.Options{Size: size})
}
