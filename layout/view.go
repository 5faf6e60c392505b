package layout

import (
	"errors"
	"fmt"

	"github.com/burntcarrot/richpad/command"
	"github.com/burntcarrot/richpad/dom"
	"github.com/burntcarrot/richpad/geom"
	"github.com/burntcarrot/richpad/selection"
)

var ErrOutOfRange = errors.New("offset out of range")

// View shows a document in a container of the cell grid and holds the host
// selection. Positions are kept exactly as set; they go stale when the
// document content is replaced.
type View struct {
	doc       *dom.Document
	metrics   Metrics
	container geom.Rect
	scrollY   float64

	anchor, focus selection.Position
	has           bool
}

// New returns a view of doc. container is in client coordinates.
func New(doc *dom.Document, m Metrics, container geom.Rect) *View {
	if m.CellW <= 0 || m.CellH <= 0 || m.Cols <= 0 {
		m = DefaultMetrics
	}
	if container.W == 0 && container.H == 0 {
		container = geom.Rect{W: float64(m.Cols) * m.CellW, H: 24 * m.CellH}
	}
	return &View{doc: doc, metrics: m, container: container}
}

// Bounds returns the container rect.
func (v *View) Bounds() geom.Rect { return v.container }

// Selection returns the live selection, or nil when there is none.
func (v *View) Selection() selection.HostSelection {
	if !v.has {
		return nil
	}
	return v
}

// SetSelection places the selection, anchor at r.Start and focus at r.End.
func (v *View) SetSelection(r selection.Range) {
	v.anchor, v.focus, v.has = r.Start, r.End, true
}

// ClearSelection drops the selection, as a click on non-text would.
func (v *View) ClearSelection() {
	v.anchor, v.focus, v.has = selection.Position{}, selection.Position{}, false
}

func (v *View) Containers() (selection.Position, selection.Position, bool) {
	return v.anchor, v.focus, v.has
}

func (v *View) IsCollapsed() bool {
	return !v.has || v.anchor == v.focus
}

// Rects returns one rect per line run of selected cells, shifted by the scroll offset.
func (v *View) Rects() []geom.Rect {
	root := v.doc.Root()
	if v.IsCollapsed() || !root.Contains(v.anchor.Node) || !root.Contains(v.focus.Node) {
		return nil
	}

	start, end := v.anchor, v.focus
	if selection.Compare(start, end) > 0 {
		start, end = end, start
	}

	var rects []geom.Rect
	var cur geom.Rect
	curLine := -1

	for _, c := range layoutCells(root, v.metrics.Cols) {
		if !covered(c, start, end) {
			continue
		}

		r := geom.Rect{
			X: v.container.X + float64(c.col)*v.metrics.CellW,
			Y: v.container.Y + float64(c.line)*v.metrics.CellH - v.scrollY,
			W: float64(c.width) * v.metrics.CellW,
			H: v.metrics.CellH,
		}
		if c.line == curLine && r.X <= cur.Right() {
			cur.W = r.Right() - cur.X
			continue
		}
		if curLine >= 0 {
			rects = append(rects, cur)
		}
		cur, curLine = r, c.line
	}
	if curLine >= 0 {
		rects = append(rects, cur)
	}
	return rects
}

func covered(c cell, start, end selection.Position) bool {
	from, to := cellStart(c), cellEnd(c)
	return selection.Compare(from, start) >= 0 && selection.Compare(to, end) <= 0
}

func cellStart(c cell) selection.Position {
	if c.node.Type() == dom.TextNode {
		return selection.Position{Node: c.node, Offset: c.off}
	}
	return selection.Before(c.node)
}

func cellEnd(c cell) selection.Position {
	if c.node.Type() == dom.TextNode {
		return selection.Position{Node: c.node, Offset: c.off + c.size}
	}
	return selection.After(c.node)
}

// ScrollBy moves the content up by dy; the offset never goes below zero.
func (v *View) ScrollBy(dy float64) {
	v.scrollY = max(0, v.scrollY+dy)
}

func (v *View) ScrollY() float64 { return v.scrollY }

// Len returns the number of selectable units: runes and images.
func (v *View) Len() int {
	return len(layoutCells(v.doc.Root(), v.metrics.Cols))
}

// Select sets the selection between unit offsets a (anchor) and b (focus).
// a > b gives a backward selection. Each boundary sticks to the content it
// encloses, so selecting all of a formatted run lands inside its element.
func (v *View) Select(a, b int) error {
	cells := layoutCells(v.doc.Root(), v.metrics.Cols)
	if a < 0 || b < 0 || a > len(cells) || b > len(cells) {
		return fmt.Errorf("%w: select %d..%d of %d", ErrOutOfRange, a, b, len(cells))
	}

	switch {
	case a == b:
		p := v.leading(cells, a)
		v.anchor, v.focus = p, p
	case a < b:
		v.anchor, v.focus = v.leading(cells, a), v.trailing(cells, b)
	default:
		v.anchor, v.focus = v.trailing(cells, a), v.leading(cells, b)
	}
	v.has = true
	return nil
}

// leading returns the position in front of unit k.
func (v *View) leading(cells []cell, k int) selection.Position {
	if k < len(cells) {
		return cellStart(cells[k])
	}
	return v.trailing(cells, k)
}

// trailing returns the position behind unit k-1.
func (v *View) trailing(cells []cell, k int) selection.Position {
	if k > 0 {
		return cellEnd(cells[k-1])
	}
	if len(cells) > 0 {
		return cellStart(cells[0])
	}
	return selection.End(v.doc.Root())
}

// Offset maps p back to a unit offset: the number of units entirely before p.
func (v *View) Offset(p selection.Position) int {
	root := v.doc.Root()
	if p.Node == nil || !root.Contains(p.Node) {
		return 0
	}

	n := 0
	for _, c := range layoutCells(root, v.metrics.Cols) {
		if selection.Compare(cellEnd(c), p) > 0 {
			break
		}
		n++
	}
	return n
}

// Lines renders the laid out document, images as their bracketed alt text.
func (v *View) Lines() []string {
	return render(layoutCells(v.doc.Root(), v.metrics.Cols))
}

// InsertText types s at the selection the way a host would: selected content
// is deleted first and the caret ends up after the new text.
func (v *View) InsertText(s string) error {
	r, err := selection.Resolve(v.doc.Root(), v.Selection())
	if err != nil {
		return err
	}

	at := r.Start
	if !r.Collapsed() {
		if at, err = command.Delete(r); err != nil {
			return err
		}
	}

	var caret selection.Position
	if at.Node.Type() == dom.TextNode {
		data := at.Node.Data()
		at.Node.SetData(data[:at.Offset] + s + data[at.Offset:])
		caret = selection.Position{Node: at.Node, Offset: at.Offset + len(s)}
	} else {
		t := dom.NewText(s)
		if _, err := command.Insert(at, t); err != nil {
			return err
		}
		caret = selection.End(t)
	}

	v.SetSelection(selection.Caret(caret))
	return nil
}
