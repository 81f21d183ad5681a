// Package overlay models the draggable text placed on top of a template.
//
// A [Spec] describes what is drawn: the text, its size and color, and its
// position in the coordinate space of the *displayed* template (not native
// pixels). The render engine converts display coordinates to native ones
// with the scale factor. [Drag] implements the two-state press/move/release
// interaction that positions the overlay.
package overlay

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/mkoeppel/certpress/pkg/errors"
)

// Font size bounds match the UI slider range.
const (
	MinFontSize = 10
	MaxFontSize = 80
)

// Point is a position in display coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair in display coordinates.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Spec describes the text overlay shared by every rendered variant.
// In batch mode each name is substituted into Text; everything else
// stays the same, so all certificates carry the overlay at the same
// relative position.
type Spec struct {
	Text     string  `json:"text"`
	FontSize float64 `json:"font_size"` // px in display space
	Color    string  `json:"color"`     // hex, e.g. "#1a2b3c"
	Position Point   `json:"position"`  // display coordinates, top-left of the text box
	Font     string  `json:"font,omitempty"`
}

// WithText returns a copy of the spec with the text replaced.
func (s Spec) WithText(text string) Spec {
	s.Text = text
	return s
}

// ParseColor converts the spec's hex color to a drawable color.
func (s Spec) ParseColor() (color.Color, error) {
	c, err := colorful.Hex(s.Color)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidColor, err, "invalid color %q", s.Color)
	}
	return c, nil
}

// Validate checks the spec's font size and color.
func (s Spec) Validate() error {
	if s.FontSize < MinFontSize || s.FontSize > MaxFontSize {
		return errors.New(errors.ErrCodeInvalidInput,
			"font size %.0f out of range [%d, %d]", s.FontSize, MinFontSize, MaxFontSize)
	}
	if _, err := s.ParseColor(); err != nil {
		return err
	}
	return nil
}
