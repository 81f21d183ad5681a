// Package pipeline provides the core certificate export pipeline.
//
// This package implements the complete resolve → render → encode flow
// shared by the CLI and the HTTP server. Centralizing it keeps single and
// batch exports behaving identically across entry points.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Resolve: derive the working name list from free text or a CSV column
//  2. Render: composite the overlay onto the template at native resolution
//  3. Encode: produce PNG/PDF bytes, zipped when in batch mode
//
// Batch runs are strictly sequential: one render in flight at a time, the
// archive finalized exactly once. A failed render skips that entry and
// continues; entries already written are never corrupted.
//
// # Usage
//
//	runner := pipeline.NewRunner(logger)
//	opts := pipeline.Options{
//	    Image:  "template.png",
//	    CSV:    "names.csv",
//	    Format: "pdf",
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile(result.Filename, result.Data, 0644)
package pipeline

import (
	"time"

	"github.com/mkoeppel/certpress/pkg/encode"
	"github.com/mkoeppel/certpress/pkg/errors"
	"github.com/mkoeppel/certpress/pkg/namelist"
	"github.com/mkoeppel/certpress/pkg/overlay"
)

// Default values shared by CLI and server.
const (
	// DefaultFormat is the export format when none is requested.
	DefaultFormat = encode.FormatPNG

	// DefaultFontSize is the overlay font size in display pixels.
	DefaultFontSize = 32

	// DefaultColor is the overlay fill color.
	DefaultColor = "#000000"
)

// Options contains all configuration for an export run.
// The struct supports JSON serialization for server requests.
type Options struct {
	// Template source: a local path or HTTP(S) URL, or raw bytes when the
	// caller already holds the upload in memory.
	Image     string `json:"image,omitempty"`
	ImageData []byte `json:"-"`

	// Name sources, in precedence order: an explicit list, a CSV path,
	// or the free-text field (comma-split per the resolver rules).
	Names namelist.List `json:"names,omitempty"`
	CSV   string        `json:"csv,omitempty"`
	Text  string        `json:"text,omitempty"`

	// ForceBatch archives the output even when the resolved list has at
	// most one entry, matching the CSV import behavior for callers that
	// resolved the list themselves.
	ForceBatch bool `json:"force_batch,omitempty"`

	// Overlay options
	FontSize float64 `json:"font_size,omitempty"`
	Color    string  `json:"color,omitempty"`
	Font     string  `json:"font,omitempty"`
	PosX     float64 `json:"pos_x,omitempty"`
	PosY     float64 `json:"pos_y,omitempty"`

	// DisplayWidth is the width at which the position was picked. Zero
	// means positions are already in native pixels (scale factor 1).
	DisplayWidth float64 `json:"display_width,omitempty"`

	// Render options
	Format string `json:"format,omitempty"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.Image == "" && o.ImageData == nil {
		return errors.New(errors.ErrCodeInvalidInput, "no template image selected")
	}

	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if err := encode.ValidateFormat(o.Format); err != nil {
		return err
	}

	if o.FontSize == 0 {
		o.FontSize = DefaultFontSize
	}
	if o.Color == "" {
		o.Color = DefaultColor
	}

	spec := o.Spec()
	if err := spec.Validate(); err != nil {
		return err
	}

	o.validated = true
	return nil
}

// Spec assembles the overlay template from the options. Batch entries
// substitute their name into the Text field.
func (o *Options) Spec() overlay.Spec {
	return overlay.Spec{
		Text:     o.Text,
		FontSize: o.FontSize,
		Color:    o.Color,
		Font:     o.Font,
		Position: overlay.Point{X: o.PosX, Y: o.PosY},
	}
}

// Result contains the output of an export run.
type Result struct {
	// Data is the encoded artifact: a PNG/PDF for single mode, a zip for
	// batch mode.
	Data []byte

	// Filename is the fixed download name for the artifact.
	Filename string

	// ContentType is the artifact's MIME type.
	ContentType string

	// Batch reports whether the run produced an archive.
	Batch bool

	// Skipped lists batch entries whose render failed.
	Skipped []string

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains export execution statistics.
type Stats struct {
	Names      int
	RenderTime time.Duration
	EncodeTime time.Duration
}
