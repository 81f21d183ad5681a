package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mkoeppel/certpress/pkg/overlay"
)

// Canvas styles
var (
	canvasBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim)

	labelIdleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	labelDragStyle = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
)

// canvasCols is the canvas width in terminal cells. Rows follow from the
// template's aspect ratio, with a 2:1 cell aspect correction.
const canvasCols = 64

// positionModel is the bubbletea model for the interactive position
// picker. The terminal canvas is a scaled-down view of the template in
// display pixels; mouse cells map back to pixel coordinates for the drag
// model, which owns all clamping.
type positionModel struct {
	drag    *overlay.Drag
	display overlay.Size // template size in display pixels
	box     overlay.Size // overlay bounding box in display pixels
	text    string

	cols, rows   int
	cellW, cellH float64 // display pixels per terminal cell
	chosen       bool
}

// newPositionModel creates a picker with the overlay centered.
func newPositionModel(display, box overlay.Size, text string) positionModel {
	cellW := display.W / canvasCols
	cellH := cellW * 2
	rows := int(display.H/cellH + 0.5)
	if rows < 3 {
		rows = 3
	}

	start := overlay.Point{
		X: (display.W - box.W) / 2,
		Y: (display.H - box.H) / 2,
	}
	return positionModel{
		drag:    overlay.NewDrag(display, box, start),
		display: display,
		box:     box,
		text:    text,
		cols:    canvasCols,
		rows:    rows,
		cellW:   cellW,
		cellH:   cellH,
	}
}

func (m positionModel) Init() tea.Cmd {
	return nil
}

func (m positionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			m.chosen = true
			return m, tea.Quit
		case "left":
			m.nudge(-m.cellW, 0)
		case "right":
			m.nudge(m.cellW, 0)
		case "up":
			m.nudge(0, -m.cellH)
		case "down":
			m.nudge(0, m.cellH)
		}
	case tea.MouseMsg:
		m.handleMouse(msg)
	}
	return m, nil
}

// nudge moves the overlay by one cell's worth of display pixels.
func (m *positionModel) nudge(dx, dy float64) {
	pos := m.drag.Position()
	m.drag.MoveTo(overlay.Point{X: pos.X + dx, Y: pos.Y + dy})
}

// handleMouse translates terminal cell coordinates into display pixels
// and feeds them to the drag model. The canvas border shifts content by
// one cell on each axis; the header occupies three rows above it.
func (m *positionModel) handleMouse(msg tea.MouseMsg) {
	p := overlay.Point{
		X: float64(msg.X-1) * m.cellW,
		Y: float64(msg.Y-headerRows-1) * m.cellH,
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			m.drag.Press(p)
		}
	case tea.MouseActionMotion:
		m.drag.Move(p)
	case tea.MouseActionRelease:
		m.drag.Release()
	}
}

// headerRows is the number of lines rendered above the canvas.
const headerRows = 3

func (m positionModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Position Overlay"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("drag with mouse  arrows nudge  ⏎ accept  q cancel"))
	b.WriteString("\n\n")

	b.WriteString(canvasBorderStyle.Render(m.renderCanvas()))
	b.WriteString("\n\n")

	pos := m.drag.Position()
	b.WriteString(StyleDim.Render("  position: ") +
		StyleHighlight.Render(fmt.Sprintf("%.0f, %.0f", pos.X, pos.Y)) +
		StyleDim.Render(fmt.Sprintf("  (of %.0f × %.0f)", m.display.W, m.display.H)))

	return b.String()
}

// renderCanvas draws the template area with the overlay text placed at
// its current cell.
func (m positionModel) renderCanvas() string {
	pos := m.drag.Position()
	labelCol := int(pos.X / m.cellW)
	labelRow := int(pos.Y / m.cellH)

	label := m.text
	if len(label) > m.cols-labelCol {
		label = label[:m.cols-labelCol]
	}
	style := labelIdleStyle
	if m.drag.Dragging() {
		style = labelDragStyle
	}

	var lines []string
	for row := 0; row < m.rows; row++ {
		if row != labelRow {
			lines = append(lines, strings.Repeat(" ", m.cols))
			continue
		}
		pad := m.cols - labelCol - len(label)
		if pad < 0 {
			pad = 0
		}
		lines = append(lines, strings.Repeat(" ", labelCol)+style.Render(label)+strings.Repeat(" ", pad))
	}
	return strings.Join(lines, "\n")
}
