package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mkoeppel/certpress/pkg/asset"
	"github.com/mkoeppel/certpress/pkg/fonts"
	"github.com/mkoeppel/certpress/pkg/overlay"
	"github.com/mkoeppel/certpress/pkg/pipeline"
	"github.com/mkoeppel/certpress/pkg/render"
)

// positionOpts holds the command-line flags for the position command.
type positionOpts struct {
	text         string  // overlay text to place
	fontSize     float64 // font size in display pixels
	font         string  // system font name
	displayWidth float64 // display width for coordinate reporting
}

// newPositionCmd creates the position command, an interactive picker for
// the overlay coordinates. The template is shown as a scaled canvas; drag
// the text with the mouse or nudge it with the arrow keys, then press
// enter to print the chosen position.
func newPositionCmd() *cobra.Command {
	opts := positionOpts{
		fontSize:     pipeline.DefaultFontSize,
		displayWidth: 800,
	}

	cmd := &cobra.Command{
		Use:   "position [image]",
		Short: "Pick the overlay position by dragging it on a canvas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPosition(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.text, "text", "t", "Sample Name", "overlay text to place")
	cmd.Flags().Float64VarP(&opts.fontSize, "size", "s", opts.fontSize, "font size in display pixels")
	cmd.Flags().StringVar(&opts.font, "font", "", "system font name (default: embedded bold)")
	cmd.Flags().Float64VarP(&opts.displayWidth, "display-width", "w", opts.displayWidth, "display width for the reported coordinates")

	return cmd
}

// runPosition loads the template, measures the overlay, and runs the
// picker TUI. The chosen coordinates are printed as ready-to-paste render
// flags.
func runPosition(ctx context.Context, image string, opts *positionOpts) error {
	logger := loggerFromContext(ctx)

	tpl, err := asset.Open(image)
	if err != nil {
		return err
	}
	logger.Debugf("Template loaded: %dx%d", tpl.Width(), tpl.Height())

	font, err := fonts.Load(opts.font)
	if err != nil {
		return err
	}
	engine := render.NewEngine(font)

	spec := overlay.Spec{
		Text:     opts.text,
		FontSize: opts.fontSize,
		Color:    pipeline.DefaultColor,
		Font:     opts.font,
	}
	box := engine.Measure(spec)

	display := overlay.Size{
		W: opts.displayWidth,
		H: opts.displayWidth * float64(tpl.Height()) / float64(tpl.Width()),
	}
	model := newPositionModel(display, box, opts.text)

	prog := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	final, err := prog.Run()
	if err != nil {
		return err
	}

	m, ok := final.(positionModel)
	if !ok || !m.chosen {
		printInfo("Cancelled, no position chosen")
		return nil
	}

	pos := m.drag.Position()
	printSuccess("Position: %.0f, %.0f (display width %.0f)", pos.X, pos.Y, opts.displayWidth)
	printDetail("template %d×%d px, overlay %.0f×%.0f", tpl.Width(), tpl.Height(), box.W, box.H)
	printNextStep("Render with", fmt.Sprintf("certpress render %s --text %q --pos-x %.0f --pos-y %.0f --display-width %.0f",
		image, opts.text, pos.X, pos.Y, opts.displayWidth))
	return nil
}
