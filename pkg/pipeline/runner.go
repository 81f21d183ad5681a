package pipeline

import (
	"bytes"
	"context"
	"image"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mkoeppel/certpress/pkg/asset"
	"github.com/mkoeppel/certpress/pkg/encode"
	"github.com/mkoeppel/certpress/pkg/errors"
	"github.com/mkoeppel/certpress/pkg/fonts"
	"github.com/mkoeppel/certpress/pkg/namelist"
	"github.com/mkoeppel/certpress/pkg/overlay"
	"github.com/mkoeppel/certpress/pkg/render"
)

// Runner executes the export pipeline.
type Runner struct {
	logger *log.Logger
}

// NewRunner creates a pipeline runner. A nil logger falls back to the
// default logger.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{logger: logger}
}

// Execute runs the complete pipeline: load the template, resolve the name
// list, render each certificate, and encode the artifact.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	tpl, err := r.loadTemplate(ctx, opts)
	if err != nil {
		return nil, err
	}
	r.logger.Debugf("Template loaded: %dx%d", tpl.Width(), tpl.Height())

	font, err := fonts.Load(opts.Font)
	if err != nil {
		return nil, err
	}
	engine := render.NewEngine(font)

	names, mode, err := r.resolveNames(opts)
	if err != nil {
		return nil, err
	}
	r.logger.Infof("Resolved %d name(s), %s mode", len(names), mode)

	scale := tpl.ScaleFactor(opts.DisplayWidth)
	if mode == namelist.ModeBatch {
		return r.exportBatch(ctx, engine.Render, tpl, opts, names, scale)
	}
	return r.exportSingle(engine, tpl, opts, scale)
}

// renderFunc rasterizes one overlay variant onto the template.
type renderFunc func(tpl *asset.Image, spec overlay.Spec, scale float64) (image.Image, error)

// loadTemplate resolves the template image from raw bytes, a URL, or a
// local path.
func (r *Runner) loadTemplate(ctx context.Context, opts Options) (*asset.Image, error) {
	switch {
	case opts.ImageData != nil:
		return asset.DecodeBytes(opts.ImageData)
	case asset.IsURL(opts.Image):
		r.logger.Infof("Fetching template %s", opts.Image)
		return asset.Fetch(ctx, opts.Image)
	default:
		return asset.Open(opts.Image)
	}
}

// resolveNames derives the working name list. Precedence: explicit list
// (always batch), CSV column, then the free-text field. ForceBatch keeps
// the resolution rules but pins the mode, promoting comma-free text to a
// one-name list so it lands in the archive.
func (r *Runner) resolveNames(opts Options) (namelist.List, namelist.Mode, error) {
	if len(opts.Names) > 0 {
		return opts.Names, namelist.ModeBatch, nil
	}
	if opts.CSV != "" {
		f, err := os.Open(opts.CSV)
		if err != nil {
			return nil, namelist.ModeSingle, errors.Wrap(errors.ErrCodeFileNotFound, err, "open CSV %s", opts.CSV)
		}
		defer f.Close()
		return namelist.FromCSV(f)
	}

	names, mode := namelist.FromText(opts.Text)
	if opts.ForceBatch {
		if len(names) == 0 {
			if text := strings.TrimSpace(opts.Text); text != "" {
				names = namelist.List{text}
			}
		}
		mode = namelist.ModeBatch
	}
	return names, mode, nil
}

// exportSingle renders the literal overlay text once and encodes it.
func (r *Runner) exportSingle(engine *render.Engine, tpl *asset.Image, opts Options, scale float64) (*Result, error) {
	var stats Stats
	stats.Names = 1

	start := time.Now()
	raster, err := engine.Render(tpl, opts.Spec(), scale)
	if err != nil {
		return nil, err
	}
	stats.RenderTime = time.Since(start)

	start = time.Now()
	data, err := encode.Encode(raster, opts.Format)
	if err != nil {
		return nil, err
	}
	stats.EncodeTime = time.Since(start)

	return &Result{
		Data:        data,
		Filename:    encode.SingleName(opts.Format),
		ContentType: encode.ContentType(opts.Format),
		Stats:       stats,
	}, nil
}

// exportBatch renders one certificate per name into a single archive.
// A failed render or encode skips that entry and continues; the archive
// is finalized exactly once after the loop. An empty name list yields an
// empty but valid archive.
func (r *Runner) exportBatch(ctx context.Context, renderName renderFunc, tpl *asset.Image, opts Options, names namelist.List, scale float64) (*Result, error) {
	var (
		buf   bytes.Buffer
		stats Stats
	)
	archive := encode.NewArchive(&buf)
	spec := opts.Spec()
	stats.Names = len(names)

	var skipped []string
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		raster, err := renderName(tpl, spec.WithText(name), scale)
		stats.RenderTime += time.Since(start)
		if err != nil {
			r.logger.Warnf("Skipping %q: %s", name, errors.UserMessage(err))
			skipped = append(skipped, name)
			continue
		}

		start = time.Now()
		data, err := encode.Encode(raster, opts.Format)
		stats.EncodeTime += time.Since(start)
		if err != nil {
			r.logger.Warnf("Skipping %q: %s", name, errors.UserMessage(err))
			skipped = append(skipped, name)
			continue
		}

		if err := archive.Add(encode.EntryName(name, opts.Format), data); err != nil {
			return nil, err
		}
		r.logger.Debugf("Added %s (%d bytes)", encode.EntryName(name, opts.Format), len(data))
	}

	if err := archive.Close(); err != nil {
		return nil, err
	}

	return &Result{
		Data:        buf.Bytes(),
		Filename:    encode.ArchiveName,
		ContentType: "application/zip",
		Batch:       true,
		Skipped:     skipped,
		Stats:       stats,
	}, nil
}
