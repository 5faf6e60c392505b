package selection

import (
	"strings"

	"github.com/burntcarrot/richpad/dom"
)

// Position is a boundary point: a container and an offset into it. The offset
// counts bytes for text containers and children for elements.
type Position struct {
	Node   *dom.Node
	Offset int
}

// Before returns the position right in front of n inside its parent.
func Before(n *dom.Node) Position {
	return Position{Node: n.Parent(), Offset: n.Index()}
}

// After returns the position right behind n inside its parent.
func After(n *dom.Node) Position {
	return Position{Node: n.Parent(), Offset: n.Index() + 1}
}

// End returns the position after the last child (or character) of n.
func End(n *dom.Node) Position {
	return Position{Node: n, Offset: n.Len()}
}

// Valid reports whether the offset fits the container.
func (p Position) Valid() bool {
	return p.Node != nil && p.Offset >= 0 && p.Offset <= p.Node.Len()
}

// Range is an ordered pair of positions; Start never comes after End.
type Range struct {
	Start Position
	End   Position
}

// Caret returns a collapsed range at p.
func Caret(p Position) Range {
	return Range{Start: p, End: p}
}

func (r Range) Collapsed() bool {
	return r.Start == r.End
}

// CommonAncestor returns the deepest node containing both boundaries.
func (r Range) CommonAncestor() *dom.Node {
	return CommonAncestor(r.Start.Node, r.End.Node)
}

// Text returns the text covered by the range.
func (r Range) Text() string {
	if r.Collapsed() {
		return ""
	}
	ca := r.CommonAncestor()
	if ca == nil {
		return ""
	}

	var sb strings.Builder
	dom.Walk(ca, func(n *dom.Node) {
		if lo, hi, ok := r.textSpan(n); ok {
			sb.WriteString(n.Data()[lo:hi])
		}
	})
	return sb.String()
}

// textSpan returns the byte span of text node n covered by r.
func (r Range) textSpan(n *dom.Node) (int, int, bool) {
	if n.Type() != dom.TextNode {
		return 0, 0, false
	}

	lo, hi := 0, n.Len()
	if n == r.Start.Node {
		lo = r.Start.Offset
	} else if Compare(Position{Node: n}, r.Start) < 0 {
		return 0, 0, false
	}
	if n == r.End.Node {
		hi = r.End.Offset
	} else if Compare(Position{Node: n}, r.End) > 0 {
		return 0, 0, false
	}
	if lo >= hi {
		return 0, 0, false
	}
	return lo, hi, true
}

// TextNodes returns every text node with a non-empty part inside r, in order.
func (r Range) TextNodes() []*dom.Node {
	var out []*dom.Node
	if r.Collapsed() {
		return out
	}
	if ca := r.CommonAncestor(); ca != nil {
		dom.Walk(ca, func(n *dom.Node) {
			if _, _, ok := r.textSpan(n); ok {
				out = append(out, n)
			}
		})
	}
	return out
}

// Compare orders two boundary points: -1 when a is before b, 1 when after, 0 when equal.
func Compare(a, b Position) int {
	if a.Node == b.Node {
		return cmpInt(a.Offset, b.Offset)
	}
	if treeOrder(a.Node, b.Node) > 0 {
		return -Compare(b, a)
	}
	if a.Node.Contains(b.Node) {
		child := b.Node
		for child.Parent() != a.Node {
			child = child.Parent()
		}
		if child.Index() < a.Offset {
			return 1
		}
	}
	return -1
}

// CommonAncestor returns the deepest inclusive ancestor shared by a and b.
func CommonAncestor(a, b *dom.Node) *dom.Node {
	for n := a; n != nil; n = n.Parent() {
		if n.Contains(b) {
			return n
		}
	}
	return nil
}

// treeOrder compares nodes in document order; ancestors precede descendants.
func treeOrder(a, b *dom.Node) int {
	pa, pb := path(a), path(b)
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if pa[i] != pb[i] {
			return cmpInt(pa[i], pb[i])
		}
	}
	return cmpInt(len(pa), len(pb))
}

func path(n *dom.Node) []int {
	var p []int
	for ; n.Parent() != nil; n = n.Parent() {
		p = append(p, n.Index())
	}
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
	return p
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
