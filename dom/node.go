package dom

import (
	"errors"
	"strings"
)

// NodeType distinguishes text leaves from elements.
type NodeType int

const (
	TextNode NodeType = iota + 1
	ElementNode
)

var (
	ErrCycle             = errors.New("node would become its own ancestor")
	ErrNotChild          = errors.New("reference node is not a child of this node")
	ErrNotElement        = errors.New("text nodes cannot have children")
	ErrNotText           = errors.New("operation requires a text node")
	ErrNilNode           = errors.New("nil node")
	ErrOffsetOutOfBounds = errors.New("offset out of bounds")
)

// Attr is a single element attribute. Attributes keep their insertion order.
type Attr struct {
	Key string
	Val string
}

// Node is either a text leaf or an element with ordered children.
// Every node has at most one parent; mutations that would break this are rejected.
type Node struct {
	typ      NodeType
	Tag      string
	Attrs    []Attr
	data     string
	parent   *Node
	children []*Node
}

// Document is the tree edited by a single surface. The root is the editable container.
type Document struct {
	root *Node
}

// New returns an empty document rooted at a div.
func New() *Document {
	return &Document{root: NewElement("div")}
}

// Root returns the editable container.
func (d *Document) Root() *Node {
	return d.root
}

// NewText returns a detached text node.
func NewText(s string) *Node {
	return &Node{typ: TextNode, data: s}
}

// NewElement returns a detached element.
func NewElement(tag string, attrs ...Attr) *Node {
	n := &Node{typ: ElementNode, Tag: strings.ToLower(tag)}
	n.Attrs = append(n.Attrs, attrs...)
	return n
}

func (n *Node) Type() NodeType { return n.typ }

// Is reports whether n is an element with the given tag.
func (n *Node) Is(tag string) bool {
	return n != nil && n.typ == ElementNode && n.Tag == tag
}

// Data returns the payload of a text node.
func (n *Node) Data() string { return n.data }

// SetData replaces the payload of a text node.
func (n *Node) SetData(s string) {
	if n.typ == TextNode {
		n.data = s
	}
}

func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// ChildAt returns the i-th child, or nil when i is out of range.
func (n *Node) ChildAt(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

func (n *Node) FirstChild() *Node { return n.ChildAt(0) }

func (n *Node) LastChild() *Node { return n.ChildAt(len(n.children) - 1) }

func (n *Node) NextSibling() *Node {
	if n.parent == nil {
		return nil
	}
	return n.parent.ChildAt(n.Index() + 1)
}

func (n *Node) PrevSibling() *Node {
	if n.parent == nil {
		return nil
	}
	return n.parent.ChildAt(n.Index() - 1)
}

// Len is the byte length of a text node, or the child count of an element.
// Offsets of positions inside n range over [0, Len()].
func (n *Node) Len() int {
	if n.typ == TextNode {
		return len(n.data)
	}
	return len(n.children)
}

// Index returns n's position among its parent's children, or -1 when detached.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

// Contains reports whether other is n or one of its descendants.
func (n *Node) Contains(other *Node) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// AppendChild moves child to the end of n's children.
func (n *Node) AppendChild(child *Node) error {
	return n.InsertBefore(child, nil)
}

// InsertBefore moves child in front of ref. A nil ref appends.
func (n *Node) InsertBefore(child, ref *Node) error {
	if child == nil {
		return ErrNilNode
	}
	if n.typ != ElementNode {
		return ErrNotElement
	}
	if child.Contains(n) {
		return ErrCycle
	}
	if ref != nil && ref.parent != n {
		return ErrNotChild
	}
	if ref == child {
		return nil
	}

	child.detach()

	idx := len(n.children)
	if ref != nil {
		idx = ref.Index()
	}
	n.children = append(n.children, nil)
	copy(n.children[idx+1:], n.children[idx:])
	n.children[idx] = child
	child.parent = n

	return nil
}

// RemoveChild detaches child from n.
func (n *Node) RemoveChild(child *Node) error {
	if child == nil || child.parent != n {
		return ErrNotChild
	}
	child.detach()
	return nil
}

// Remove detaches n from its parent, if any.
func (n *Node) Remove() {
	n.detach()
}

// ReplaceChildren drops every current child and adopts nodes in order.
func (n *Node) ReplaceChildren(nodes ...*Node) error {
	if n.typ != ElementNode {
		return ErrNotElement
	}
	for _, c := range nodes {
		if c != nil && c.Contains(n) {
			return ErrCycle
		}
	}
	for _, c := range n.Children() {
		c.detach()
	}
	for _, c := range nodes {
		if err := n.AppendChild(c); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) detach() {
	p := n.parent
	if p == nil {
		return
	}
	i := n.Index()
	p.children = append(p.children[:i], p.children[i+1:]...)
	n.parent = nil
}

// SplitText cuts a text node at offset. n keeps the head; the tail is returned
// and, when n is attached, inserted right after it.
func (n *Node) SplitText(offset int) (*Node, error) {
	if n.typ != TextNode {
		return nil, ErrNotText
	}
	if offset < 0 || offset > len(n.data) {
		return nil, ErrOffsetOutOfBounds
	}

	tail := NewText(n.data[offset:])
	n.data = n.data[:offset]
	if n.parent != nil {
		if err := n.parent.InsertBefore(tail, n.NextSibling()); err != nil {
			return nil, err
		}
	}
	return tail, nil
}

// Attr returns the value of the attribute key.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets key, keeping the original position when it already exists.
func (n *Node) SetAttr(key, val string) {
	for i, a := range n.Attrs {
		if a.Key == key {
			n.Attrs[i].Val = val
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Val: val})
}

// ShallowClone copies the node without its children or parent.
func (n *Node) ShallowClone() *Node {
	c := &Node{typ: n.typ, Tag: n.Tag, data: n.data}
	c.Attrs = append(c.Attrs, n.Attrs...)
	return c
}

// Clone copies the whole subtree rooted at n.
func (n *Node) Clone() *Node {
	c := n.ShallowClone()
	for _, child := range n.children {
		cc := child.Clone()
		cc.parent = c
		c.children = append(c.children, cc)
	}
	return c
}

// TextContent concatenates the payload of every text node under n.
func (n *Node) TextContent() string {
	if n.typ == TextNode {
		return n.data
	}
	var sb strings.Builder
	Walk(n, func(c *Node) {
		if c.typ == TextNode {
			sb.WriteString(c.data)
		}
	})
	return sb.String()
}

// Walk visits n and its descendants in document order.
func Walk(n *Node, fn func(*Node)) {
	fn(n)
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}
