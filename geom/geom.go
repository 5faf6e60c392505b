// Package geom holds the small amount of screen geometry shared by the
// selection backend and the toolbar positioner.
package geom

// Rect is an axis-aligned box in logical units. X and Y are the top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// Size is the measured size of a box.
type Size struct {
	W, H float64
}

// Empty reports a box with neither width nor height.
func (r Rect) Empty() bool {
	return r.W == 0 && r.H == 0
}

func (r Rect) Right() float64 { return r.X + r.W }

func (r Rect) Bottom() float64 { return r.Y + r.H }

// Union returns the smallest rect covering every non-empty rect in rs.
func Union(rs ...Rect) Rect {
	var out Rect
	first := true
	for _, r := range rs {
		if r.Empty() {
			continue
		}
		if first {
			out = r
			first = false
			continue
		}
		x := min(out.X, r.X)
		y := min(out.Y, r.Y)
		right := max(out.Right(), r.Right())
		bottom := max(out.Bottom(), r.Bottom())
		out = Rect{X: x, Y: y, W: right - x, H: bottom - y}
	}
	return out
}
