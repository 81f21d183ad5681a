package overlay

// Drag positions the overlay inside its container with a two-state
// press/move/release interaction.
//
// Pressing inside the overlay's bounding box starts a drag and records the
// pointer-to-overlay offset. Every move recomputes the candidate position
// as pointer − offset and clamps both axes independently so the box never
// leaves the container. Releasing ends the drag from anywhere; moves while
// idle are ignored.
type Drag struct {
	container Size
	overlay   Size
	pos       Point

	dragging bool
	offset   Point
}

// NewDrag creates a drag model for an overlay of the given size inside a
// container. The initial position is clamped into bounds.
func NewDrag(container, overlay Size, start Point) *Drag {
	d := &Drag{container: container, overlay: overlay}
	d.pos = d.clamp(start)
	return d
}

// Position returns the overlay's current top-left corner.
func (d *Drag) Position() Point { return d.pos }

// Dragging reports whether a drag is in progress.
func (d *Drag) Dragging() bool { return d.dragging }

// SetOverlaySize updates the overlay's bounding box (the text was edited
// or resized) and re-clamps the current position.
func (d *Drag) SetOverlaySize(s Size) {
	d.overlay = s
	d.pos = d.clamp(d.pos)
}

// Press starts a drag if p falls inside the overlay's bounding box.
// It reports whether the press hit the overlay.
func (d *Drag) Press(p Point) bool {
	if p.X < d.pos.X || p.X > d.pos.X+d.overlay.W ||
		p.Y < d.pos.Y || p.Y > d.pos.Y+d.overlay.H {
		return false
	}
	d.dragging = true
	d.offset = Point{X: p.X - d.pos.X, Y: p.Y - d.pos.Y}
	return true
}

// Move updates the position while dragging. Moves outside a drag are
// ignored.
func (d *Drag) Move(p Point) {
	if !d.dragging {
		return
	}
	d.pos = d.clamp(Point{X: p.X - d.offset.X, Y: p.Y - d.offset.Y})
}

// MoveTo places the overlay directly (keyboard nudging), clamped.
func (d *Drag) MoveTo(p Point) {
	d.pos = d.clamp(p)
}

// Release ends the drag. Valid from anywhere, including outside the
// container.
func (d *Drag) Release() {
	d.dragging = false
}

// clamp restricts p so the overlay box stays inside the container. When
// the overlay is larger than the container on an axis the lower bound
// wins, pinning the box to the container's origin.
func (d *Drag) clamp(p Point) Point {
	return Point{
		X: clampAxis(p.X, d.container.W-d.overlay.W),
		Y: clampAxis(p.Y, d.container.H-d.overlay.H),
	}
}

func clampAxis(v, upper float64) float64 {
	return max(0, min(v, upper))
}
