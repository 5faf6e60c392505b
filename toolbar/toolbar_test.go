package toolbar

import (
	"testing"

	"github.com/burntcarrot/richpad/geom"
	"github.com/google/go-cmp/cmp"
)

func TestPosition(t *testing.T) {
	container := geom.Rect{X: 0, Y: 0, W: 500, H: 400}

	tests := []struct {
		description string
		sel         geom.Rect
		container   geom.Rect
		size        geom.Size
		expected    State
	}{
		{description: "empty selection box",
			sel: geom.Rect{X: 100, Y: 100}, container: container,
			expected: Hidden},
		{description: "centred above, fallback size",
			sel: geom.Rect{X: 100, Y: 100, W: 60, H: 16}, container: container,
			expected: State{Visible: true, Left: 40, Top: 56}},
		{description: "measured size",
			sel: geom.Rect{X: 100, Y: 100, W: 60, H: 16}, container: container, size: geom.Size{W: 100, H: 30},
			expected: State{Visible: true, Left: 80, Top: 62}},
		{description: "clamped to top margin",
			sel: geom.Rect{X: 100, Y: 10, W: 60, H: 16}, container: container,
			expected: State{Visible: true, Left: 40, Top: 8}},
		{description: "clamped to left margin",
			sel: geom.Rect{X: 0, Y: 100, W: 10, H: 16}, container: container,
			expected: State{Visible: true, Left: 8, Top: 56}},
		{description: "clamped to right edge",
			sel: geom.Rect{X: 480, Y: 100, W: 10, H: 16}, container: container,
			expected: State{Visible: true, Left: 312, Top: 56}},
		{description: "clamped to bottom edge",
			sel: geom.Rect{X: 100, Y: 1000, W: 60, H: 16}, container: container,
			expected: State{Visible: true, Left: 40, Top: 356}},
		{description: "relative to container origin",
			sel: geom.Rect{X: 150, Y: 130, W: 60, H: 16}, container: geom.Rect{X: 50, Y: 30, W: 500, H: 400},
			expected: State{Visible: true, Left: 40, Top: 56}},
		{description: "container narrower than toolbar",
			sel: geom.Rect{X: 40, Y: 100, W: 20, H: 16}, container: geom.Rect{W: 100, H: 400},
			expected: State{Visible: true, Left: 8, Top: 56}},
		{description: "zero-width caret box still has height",
			sel: geom.Rect{X: 100, Y: 100, H: 16}, container: container,
			expected: State{Visible: true, Left: 10, Top: 56}},
	}

	for _, tc := range tests {
		got := Position(tc.sel, tc.container, tc.size)
		if !cmp.Equal(got, tc.expected) {
			t.Errorf("(%s) got != expected, diff: %v\n", tc.description, cmp.Diff(got, tc.expected))
		}
	}
}

// TestPositionStaysInside sweeps selections across and beyond the container and
// checks the visible toolbar never leaves the margin box.
func TestPositionStaysInside(t *testing.T) {
	container := geom.Rect{X: 20, Y: 40, W: 500, H: 400}
	p := New()

	for x := -200.0; x <= 800; x += 37 {
		for y := -200.0; y <= 800; y += 41 {
			sel := geom.Rect{X: x, Y: y, W: 25, H: 16}
			got := p.Position(sel, container, geom.Size{})

			if !got.Visible {
				t.Fatalf("selection %+v: expected visible toolbar", sel)
			}
			if got.Left < 8 || got.Left > container.W-DefaultWidth-8 {
				t.Errorf("selection %+v: left %v outside [8, %v]", sel, got.Left, container.W-DefaultWidth-8)
			}
			if got.Top < 8 || got.Top > container.H-DefaultHeight-8 {
				t.Errorf("selection %+v: top %v outside [8, %v]", sel, got.Top, container.H-DefaultHeight-8)
			}
		}
	}
}

func TestCustomMargin(t *testing.T) {
	p := Positioner{Margin: 4, Fallback: geom.Size{W: 100, H: 20}}

	got := p.Position(geom.Rect{X: 0, Y: 0, W: 10, H: 10}, geom.Rect{W: 300, H: 300}, geom.Size{})
	want := State{Visible: true, Left: 4, Top: 4}

	if !cmp.Equal(got, want) {
		t.Errorf("got != want, diff: %v\n", cmp.Diff(got, want))
	}
}
