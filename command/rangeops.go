package command

import (
	"errors"

	"github.com/burntcarrot/richpad/dom"
	"github.com/burntcarrot/richpad/selection"
)

var ErrDetached = errors.New("position is not attached to a document")

// Extract moves the content selected by r out of the tree and returns it as a
// detached fragment. Elements straddling a boundary stay in place and a
// shallow clone of each carries the selected part. The returned position is
// where the range collapses to.
func Extract(r selection.Range) ([]*dom.Node, selection.Position, error) {
	if r.Collapsed() {
		return nil, r.Start, nil
	}

	sc, so := r.Start.Node, r.Start.Offset
	ec, eo := r.End.Node, r.End.Offset

	if sc == ec && sc.Type() == dom.TextNode {
		data := sc.Data()
		sc.SetData(data[:so] + data[eo:])
		return []*dom.Node{dom.NewText(data[so:eo])}, r.Start, nil
	}

	common := selection.CommonAncestor(sc, ec)
	if common == nil {
		return nil, r.Start, ErrDetached
	}

	var firstPartial, lastPartial *dom.Node
	if !sc.Contains(ec) {
		firstPartial = childContaining(common, sc)
	}
	if !ec.Contains(sc) {
		lastPartial = childContaining(common, ec)
	}

	var contained []*dom.Node
	for _, c := range common.Children() {
		if isContained(c, r) {
			contained = append(contained, c)
		}
	}

	collapse := r.Start
	if !sc.Contains(ec) {
		ref := sc
		for !ref.Parent().Contains(ec) {
			ref = ref.Parent()
		}
		collapse = selection.After(ref)
	}

	var frag []*dom.Node

	if firstPartial != nil {
		if firstPartial.Type() == dom.TextNode {
			data := sc.Data()
			sc.SetData(data[:so])
			frag = append(frag, dom.NewText(data[so:]))
		} else {
			clone := firstPartial.ShallowClone()
			sub, _, err := Extract(selection.Range{Start: r.Start, End: selection.End(firstPartial)})
			if err != nil {
				return nil, r.Start, err
			}
			if err := appendAll(clone, sub); err != nil {
				return nil, r.Start, err
			}
			frag = append(frag, clone)
		}
	}

	for _, c := range contained {
		c.Remove()
		frag = append(frag, c)
	}

	if lastPartial != nil {
		if lastPartial.Type() == dom.TextNode {
			data := ec.Data()
			ec.SetData(data[eo:])
			frag = append(frag, dom.NewText(data[:eo]))
		} else {
			clone := lastPartial.ShallowClone()
			sub, _, err := Extract(selection.Range{Start: selection.Position{Node: lastPartial}, End: r.End})
			if err != nil {
				return nil, r.Start, err
			}
			if err := appendAll(clone, sub); err != nil {
				return nil, r.Start, err
			}
			frag = append(frag, clone)
		}
	}

	return frag, collapse, nil
}

// Delete removes the selected content and returns the collapsed position.
func Delete(r selection.Range) (selection.Position, error) {
	_, at, err := Extract(r)
	return at, err
}

// Insert places nodes at pos, splitting a text container when pos falls inside
// it. It returns the position right after the last inserted node.
func Insert(pos selection.Position, nodes ...*dom.Node) (selection.Position, error) {
	if pos.Node == nil {
		return pos, ErrDetached
	}

	parent, ref := pos.Node, pos.Node.ChildAt(pos.Offset)
	if pos.Node.Type() == dom.TextNode {
		t := pos.Node
		parent = t.Parent()
		if parent == nil {
			return pos, ErrDetached
		}

		switch {
		case pos.Offset <= 0:
			ref = t
		case pos.Offset >= t.Len():
			ref = t.NextSibling()
		default:
			tail, err := t.SplitText(pos.Offset)
			if err != nil {
				return pos, err
			}
			ref = tail
		}
	}

	if len(nodes) == 0 {
		if ref == nil {
			return selection.End(parent), nil
		}
		return selection.Before(ref), nil
	}

	for _, n := range nodes {
		if err := parent.InsertBefore(n, ref); err != nil {
			return pos, err
		}
	}
	return selection.After(nodes[len(nodes)-1]), nil
}

// CanWrapAtomically reports whether r can be enclosed in a single new element
// without cutting through an element: no non-text node may be an ancestor of
// one boundary but not of the other.
func CanWrapAtomically(r selection.Range) bool {
	return !partiallySelectsElement(r.Start.Node, r.End.Node) &&
		!partiallySelectsElement(r.End.Node, r.Start.Node)
}

func partiallySelectsElement(from, other *dom.Node) bool {
	for n := from; n != nil; n = n.Parent() {
		if n.Contains(other) {
			return false
		}
		if n.Type() != dom.TextNode {
			return true
		}
	}
	return false
}

// splitAt cuts the subtree rooted at top at pos. top keeps everything before
// pos; a shallow clone inserted after top receives everything after it. The
// returned position lies between the two halves.
func splitAt(top *dom.Node, pos selection.Position) (selection.Position, error) {
	parent := top.Parent()
	if parent == nil {
		return pos, ErrDetached
	}

	node, off := pos.Node, pos.Offset
	var carry *dom.Node

	if node.Type() == dom.TextNode {
		data := node.Data()
		node.SetData(data[:off])
		carry = dom.NewText(data[off:])
		off = node.Index() + 1
		node = node.Parent()
	}

	for {
		rest := node.Children()[off:]
		clone := node.ShallowClone()
		if carry != nil {
			if err := clone.AppendChild(carry); err != nil {
				return pos, err
			}
		}
		if err := appendAll(clone, rest); err != nil {
			return pos, err
		}

		if node == top {
			if err := parent.InsertBefore(clone, top.NextSibling()); err != nil {
				return pos, err
			}
			return selection.After(top), nil
		}

		carry = clone
		off = node.Index() + 1
		node = node.Parent()
	}
}

func childContaining(ancestor, n *dom.Node) *dom.Node {
	for n.Parent() != ancestor {
		n = n.Parent()
	}
	return n
}

func isContained(n *dom.Node, r selection.Range) bool {
	return selection.Compare(selection.Position{Node: n}, r.Start) > 0 &&
		selection.Compare(selection.End(n), r.End) < 0
}

func appendAll(parent *dom.Node, nodes []*dom.Node) error {
	for _, n := range nodes {
		if err := parent.AppendChild(n); err != nil {
			return err
		}
	}
	return nil
}
