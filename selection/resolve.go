package selection

import (
	"errors"
	"fmt"

	"github.com/burntcarrot/richpad/dom"
	"github.com/burntcarrot/richpad/geom"
)

var (
	// ErrNoSelection means there is no actionable target for a command.
	ErrNoSelection = errors.New("no selection")

	// ErrOutsideRoot is reported for selections anchored outside the editable root.
	// It wraps ErrNoSelection; callers treat both the same way.
	ErrOutsideRoot = fmt.Errorf("%w: selection is outside the editable root", ErrNoSelection)
)

// HostSelection is the host's ambient selection, implementable over any
// text-layout backend.
type HostSelection interface {
	// Rects returns the client rects covered by the selection.
	Rects() []geom.Rect
	// Containers returns the anchor and focus positions, in selection order.
	Containers() (start, end Position, ok bool)
	IsCollapsed() bool
}

// Resolve maps sel onto a Range inside root. Backward selections are swapped
// and offsets are clamped to their containers. It never mutates anything.
func Resolve(root *dom.Node, sel HostSelection) (Range, error) {
	if sel == nil {
		return Range{}, ErrNoSelection
	}

	start, end, ok := sel.Containers()
	if !ok || start.Node == nil || end.Node == nil {
		return Range{}, ErrNoSelection
	}
	if !root.Contains(start.Node) || !root.Contains(end.Node) {
		return Range{}, ErrOutsideRoot
	}

	start, end = clamp(start), clamp(end)
	if sel.IsCollapsed() {
		end = start
	}
	if Compare(start, end) > 0 {
		start, end = end, start
	}

	return Range{Start: start, End: end}, nil
}

// Within reports whether a previously resolved range still points into root.
// Ranges go stale when their containers are detached by a content replacement.
func Within(root *dom.Node, r Range) bool {
	return r.Start.Valid() && r.End.Valid() &&
		root.Contains(r.Start.Node) && root.Contains(r.End.Node)
}

// Bounds returns the bounding box of the selection's client rects.
func Bounds(sel HostSelection) geom.Rect {
	if sel == nil {
		return geom.Rect{}
	}
	return geom.Union(sel.Rects()...)
}

func clamp(p Position) Position {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if n := p.Node.Len(); p.Offset > n {
		p.Offset = n
	}
	return p
}
