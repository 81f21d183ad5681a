package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkoeppel/certpress/pkg/config"
	"github.com/mkoeppel/certpress/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output       string  // output file path (or directory for the archive)
	text         string  // overlay text, comma-split into a batch list
	csv          string  // CSV file whose first column is the name list
	format       string  // export format: png or pdf
	fontSize     float64 // overlay font size in display pixels
	color        string  // overlay fill color (#rgb or #rrggbb)
	font         string  // system font name, empty for the embedded default
	posX         float64 // overlay X in display pixels
	posY         float64 // overlay Y in display pixels
	displayWidth float64 // width the position was picked at, 0 for native
}

// newRenderCmd creates the render command for producing certificates.
// A comma list in --text or a --csv file switches to batch mode and zips
// the output; otherwise the literal text is stamped once.
//
// Default settings come from the config file: font size 32, black fill,
// PNG output into the current directory.
func newRenderCmd(cfgPath *string) *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [image]",
		Short: "Stamp text onto a template and export PNG, PDF, or a zipped batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			applyConfigDefaults(&opts, cmd, cfg)
			return runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: fixed name in output dir)")
	cmd.Flags().StringVarP(&opts.text, "text", "t", "", "overlay text; a comma list produces a zipped batch")
	cmd.Flags().StringVar(&opts.csv, "csv", "", "CSV file; first column drives a zipped batch")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "export format: png (default), pdf")
	cmd.Flags().Float64VarP(&opts.fontSize, "size", "s", 0, "font size in display pixels (10-80)")
	cmd.Flags().StringVarP(&opts.color, "color", "c", "", "text color, hex notation")
	cmd.Flags().StringVar(&opts.font, "font", "", "system font name (default: embedded bold)")
	cmd.Flags().Float64VarP(&opts.posX, "pos-x", "x", 0, "overlay X position in display pixels")
	cmd.Flags().Float64VarP(&opts.posY, "pos-y", "y", 0, "overlay Y position in display pixels")
	cmd.Flags().Float64VarP(&opts.displayWidth, "display-width", "w", 0, "display width the position was picked at")

	return cmd
}

// applyConfigDefaults fills unset flags from the config file.
func applyConfigDefaults(opts *renderOpts, cmd *cobra.Command, cfg config.Config) {
	if !cmd.Flags().Changed("size") {
		opts.fontSize = cfg.Render.FontSize
	}
	if !cmd.Flags().Changed("color") {
		opts.color = cfg.Render.Color
	}
	if !cmd.Flags().Changed("font") {
		opts.font = cfg.Render.Font
	}
	if opts.output == "" {
		opts.output = cfg.Output.Dir
	}
}

// runRender executes the export pipeline and writes the artifact to disk.
func runRender(ctx context.Context, image string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	spin := newSpinnerWithContext(ctx, "Rendering certificates")
	spin.Start()

	runner := pipeline.NewRunner(logger)
	result, err := runner.Execute(ctx, pipeline.Options{
		Image:        image,
		Text:         opts.text,
		CSV:          opts.csv,
		Format:       opts.format,
		FontSize:     opts.fontSize,
		Color:        opts.color,
		Font:         opts.font,
		PosX:         opts.posX,
		PosY:         opts.posY,
		DisplayWidth: opts.displayWidth,
	})
	if err != nil {
		spin.Stop()
		return err
	}
	spin.Stop()

	path, err := writeArtifact(opts.output, result)
	if err != nil {
		return err
	}

	prog.done(fmt.Sprintf("Exported %s", result.Filename))
	printSuccess("Export complete")
	printFile(path)
	printStats(result.Stats.Names, len(result.Skipped),
		(result.Stats.RenderTime + result.Stats.EncodeTime).Round(time.Millisecond).String())
	for _, name := range result.Skipped {
		printWarning("Skipped %q", name)
	}
	return nil
}

// writeArtifact stores result.Data under the output path. A directory (or
// empty) output keeps the artifact's fixed download name; anything else is
// taken as the target file.
func writeArtifact(output string, result *pipeline.Result) (string, error) {
	path := output
	if path == "" {
		path = result.Filename
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, result.Filename)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	if err := os.WriteFile(path, result.Data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
