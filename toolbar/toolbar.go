// Package toolbar places the floating formatting toolbar above a selection.
package toolbar

import "github.com/burntcarrot/richpad/geom"

// Defaults used before the toolbar has been laid out once.
const (
	DefaultMargin = 8
	DefaultWidth  = 180
	DefaultHeight = 36
)

// State is what the surface renders. Left and Top are relative to the container.
type State struct {
	Visible bool
	Left    float64
	Top     float64
}

// Hidden is the state for collapsed, empty or disabled selections.
var Hidden = State{}

// Positioner computes toolbar placement. The zero value is not usable; see New.
type Positioner struct {
	Margin   float64
	Fallback geom.Size
}

func New() Positioner {
	return Positioner{
		Margin:   DefaultMargin,
		Fallback: geom.Size{W: DefaultWidth, H: DefaultHeight},
	}
}

// Position centres the toolbar over sel, one margin above it, and clamps it
// inside container. A selection box with no width and no height hides it.
// It is pure and must be recomputed on every selection change, scrolls included.
func (p Positioner) Position(sel, container geom.Rect, size geom.Size) State {
	if sel.Empty() {
		return Hidden
	}

	w, h := size.W, size.H
	if w <= 0 {
		w = p.Fallback.W
	}
	if h <= 0 {
		h = p.Fallback.H
	}

	left := sel.X - container.X + sel.W/2 - w/2
	top := sel.Y - container.Y - h - p.Margin

	return State{
		Visible: true,
		Left:    clamp(left, p.Margin, container.W-w-p.Margin),
		Top:     clamp(top, p.Margin, container.H-h-p.Margin),
	}
}

// Position uses the default positioner.
func Position(sel, container geom.Rect, size geom.Size) State {
	return New().Position(sel, container, size)
}

// clamp keeps v in [lo, hi]; lo wins when the container is too small.
func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
