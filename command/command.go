// Package command applies formatting operations to a document at a resolved range.
//
// Every operation either succeeds or returns a condition error and leaves the
// document as it was; none of them panics on user-reachable input.
package command

import (
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/burntcarrot/richpad/dom"
	"github.com/burntcarrot/richpad/selection"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNoLinkAtCaret is reported by RemoveLink when no anchor encloses or touches the caret.
	ErrNoLinkAtCaret = errors.New("no link at caret")

	// ErrEmptyInput aborts an operation whose url (or other required text) is empty.
	ErrEmptyInput = errors.New("empty input")

	ErrUnsupportedTag = errors.New("unsupported formatting tag")
)

// DefaultImageStyle keeps inserted images inside the editing column.
const DefaultImageStyle = "max-width:100%;height:auto;display:block;margin:0 0 8px 0;"

// Strategy records how an operation changed the tree.
type Strategy int

const (
	// Atomic encloses the range in one new element without touching siblings.
	Atomic Strategy = iota + 1
	// Fallback extracts the range (cloning straddled elements) and reinserts it wrapped.
	Fallback
	// Unwrap removes an existing format from the range.
	Unwrap
	// Inserted places new content at a position.
	Inserted
	// Unlinked replaces an anchor with its children.
	Unlinked
)

func (s Strategy) String() string {
	switch s {
	case Atomic:
		return "atomic"
	case Fallback:
		return "fallback"
	case Unwrap:
		return "unwrap"
	case Inserted:
		return "inserted"
	case Unlinked:
		return "unlinked"
	}
	return "unknown"
}

// Result is returned by every successful operation.
type Result struct {
	// Caret is where the host should place the collapsed selection.
	Caret    selection.Position
	Strategy Strategy
	// Node is the element that was created or removed, if any.
	Node *dom.Node
}

// Options tweak the markup produced by the engine.
type Options struct {
	LinkTarget string
	LinkRel    string
	ImageStyle string
}

func DefaultOptions() Options {
	return Options{
		LinkTarget: "_blank",
		LinkRel:    "noopener noreferrer",
		ImageStyle: DefaultImageStyle,
	}
}

// Engine runs commands against one document root.
type Engine struct {
	root *dom.Node
	opts Options
	log  logrus.FieldLogger
}

// New returns an engine bound to root. A nil logger discards output.
func New(root *dom.Node, opts Options, log logrus.FieldLogger) *Engine {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Engine{root: root, opts: opts, log: log}
}

var inlineTags = map[string]bool{"strong": true, "em": true}

// Wrap applies an inline format (strong or em) to r.
//
// When every selected run (text or image) is already inside an element with the same tag,
// the format is toggled off for the selected span instead, so wrapping twice
// never nests identical wrappers. The caret lands right after the affected content.
func (e *Engine) Wrap(r selection.Range, tag string) (Result, error) {
	if !inlineTags[tag] {
		return Result{}, ErrUnsupportedTag
	}
	if r.Collapsed() {
		return Result{}, selection.ErrNoSelection
	}
	if !selection.Within(e.root, r) {
		return Result{}, selection.ErrOutsideRoot
	}

	if e.formatted(r, tag) {
		return e.unwrap(r, tag)
	}

	res, err := e.surround(r, dom.NewElement(tag), tag)
	if err != nil {
		return Result{}, err
	}
	e.log.WithFields(logrus.Fields{"tag": tag, "strategy": res.Strategy}).Debug("wrapped selection")
	return res, nil
}

// surround encloses r in wrapper. Copies of wrapper's own tag inside the
// selected content are dissolved so the result holds a single layer.
func (e *Engine) surround(r selection.Range, wrapper *dom.Node, tag string) (Result, error) {
	strategy := Fallback
	if CanWrapAtomically(r) {
		strategy = Atomic
	}

	frag, at, err := Extract(r)
	if err != nil {
		return Result{}, err
	}
	if err := appendAll(wrapper, dissolve(frag, tag)); err != nil {
		return Result{}, err
	}

	parent := at.Node
	if parent.Type() == dom.TextNode {
		parent = parent.Parent()
	}
	if _, err := Insert(at, wrapper); err != nil {
		return Result{}, err
	}
	pruneEmpty(parent, wrapper)

	return Result{Caret: selection.After(wrapper), Strategy: strategy, Node: wrapper}, nil
}

// formatted reports whether every selected run has an ancestor with tag
// below the root.
func (e *Engine) formatted(r selection.Range, tag string) bool {
	nodes := runs(r)
	if len(nodes) == 0 {
		return false
	}
	for _, n := range nodes {
		if e.ancestor(n, tag) == nil {
			return false
		}
	}
	return true
}

var leafTags = map[string]bool{"img": true, "br": true}

// runs returns the selected text runs plus the leaf elements (images, breaks)
// lying wholly inside r, in document order.
func runs(r selection.Range) []*dom.Node {
	var out []*dom.Node
	ca := r.CommonAncestor()
	if r.Collapsed() || ca == nil {
		return out
	}
	texts := make(map[*dom.Node]bool)
	for _, n := range r.TextNodes() {
		texts[n] = true
	}
	dom.Walk(ca, func(n *dom.Node) {
		switch {
		case texts[n]:
			out = append(out, n)
		case n != ca && leafTags[n.Tag] &&
			selection.Compare(selection.Before(n), r.Start) >= 0 &&
			selection.Compare(selection.After(n), r.End) <= 0:
			out = append(out, n)
		}
	})
	return out
}

// ancestor returns the outermost inclusive ancestor of n with tag, below the root.
func (e *Engine) ancestor(n *dom.Node, tag string) *dom.Node {
	var found *dom.Node
	for p := n; p != nil && p != e.root; p = p.Parent() {
		if p.Is(tag) {
			found = p
		}
	}
	return found
}

func (e *Engine) unwrap(r selection.Range, tag string) (Result, error) {
	frag, at, err := Extract(r)
	if err != nil {
		return Result{}, err
	}

	var halves []*dom.Node
	if top := e.ancestor(at.Node, tag); top != nil {
		if frag, err = enclose(frag, at.Node, top); err != nil {
			return Result{}, err
		}
		if at, err = splitAt(top, at); err != nil {
			return Result{}, err
		}
		halves = []*dom.Node{top, top.NextSibling()}
	}
	frag = dissolve(frag, tag)

	parent := at.Node
	if parent.Type() == dom.TextNode {
		parent = parent.Parent()
	}
	if _, err := Insert(at, frag...); err != nil {
		return Result{}, err
	}
	for _, h := range halves {
		pruneDeep(h)
	}
	pruneEmpty(parent, frag...)

	caret := at
	if len(frag) > 0 {
		caret = selection.After(frag[len(frag)-1])
	}
	e.log.WithField("tag", tag).Debug("removed format from selection")

	return Result{Caret: caret, Strategy: Unwrap}, nil
}

var schemeRE = regexp.MustCompile(`(?i)^https?://`)

// NormalizeURL prefixes https:// unless the url already has an http(s) scheme.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || schemeRE.MatchString(raw) {
		return raw
	}
	return "https://" + raw
}

// InsertLink turns the selected content into a link. With a collapsed range, a
// new anchor holding text (or the url when text is empty) is inserted at the caret.
func (e *Engine) InsertLink(r *selection.Range, url, text string) (Result, error) {
	href := NormalizeURL(url)
	if href == "" {
		return Result{}, ErrEmptyInput
	}
	if r == nil {
		return Result{}, selection.ErrNoSelection
	}
	if !selection.Within(e.root, *r) {
		return Result{}, selection.ErrOutsideRoot
	}

	a := dom.NewElement("a", dom.Attr{Key: "href", Val: href})
	if e.opts.LinkTarget != "" {
		a.SetAttr("target", e.opts.LinkTarget)
	}
	if e.opts.LinkRel != "" {
		a.SetAttr("rel", e.opts.LinkRel)
	}

	if !r.Collapsed() {
		res, err := e.surround(*r, a, "a")
		if err != nil {
			return Result{}, err
		}
		res.Caret = selection.After(a)
		e.log.WithFields(logrus.Fields{"href": href, "strategy": res.Strategy}).Debug("linked selection")
		return res, nil
	}

	if strings.TrimSpace(text) == "" {
		text = href
	}
	if err := a.AppendChild(dom.NewText(text)); err != nil {
		return Result{}, err
	}
	caret, err := Insert(r.Start, a)
	if err != nil {
		return Result{}, err
	}
	e.log.WithField("href", href).Debug("inserted link")

	return Result{Caret: caret, Strategy: Inserted, Node: a}, nil
}

// RemoveLink unwraps the anchor touching or enclosing pos. An anchor directly
// before or after an element position wins over enclosing anchors; otherwise
// ancestors of pos's container are searched up to the root.
func (e *Engine) RemoveLink(pos selection.Position) (Result, error) {
	if pos.Node == nil || !e.root.Contains(pos.Node) {
		return Result{}, selection.ErrOutsideRoot
	}

	a := e.findAnchor(pos)
	if a == nil {
		return Result{}, ErrNoLinkAtCaret
	}

	parent, idx := a.Parent(), a.Index()
	kids := a.Children()
	for _, k := range kids {
		if err := parent.InsertBefore(k, a); err != nil {
			return Result{}, err
		}
	}
	a.Remove()

	caret := pos
	switch {
	case pos.Node == a:
		caret = selection.Position{Node: parent, Offset: idx + pos.Offset}
	case pos.Node == parent && pos.Offset > idx:
		caret.Offset += len(kids) - 1
	}
	e.log.WithField("children", len(kids)).Debug("removed link")

	return Result{Caret: caret, Strategy: Unlinked, Node: a}, nil
}

func (e *Engine) findAnchor(pos selection.Position) *dom.Node {
	if pos.Node.Type() == dom.ElementNode {
		if prev := pos.Node.ChildAt(pos.Offset - 1); prev.Is("a") {
			return prev
		}
		if next := pos.Node.ChildAt(pos.Offset); next.Is("a") {
			return next
		}
	}
	for n := pos.Node; n != nil && n != e.root; n = n.Parent() {
		if n.Is("a") {
			return n
		}
	}
	return nil
}

// InsertImage inserts an img at r, replacing selected content. A nil or stale
// range appends the image to the end of the document. Quotes in alt are escaped
// when the document is serialized.
func (e *Engine) InsertImage(r *selection.Range, url, alt string) (Result, error) {
	src := NormalizeURL(url)
	if src == "" {
		return Result{}, ErrEmptyInput
	}

	img := dom.NewElement("img", dom.Attr{Key: "src", Val: src})
	if alt = strings.TrimSpace(alt); alt != "" {
		img.SetAttr("alt", alt)
	}
	if e.opts.ImageStyle != "" {
		img.SetAttr("style", e.opts.ImageStyle)
	}

	at, err := e.target(r)
	if err != nil {
		return Result{}, err
	}
	caret, err := Insert(at, img)
	if err != nil {
		return Result{}, err
	}
	e.log.WithField("src", src).Debug("inserted image")

	return Result{Caret: caret, Strategy: Inserted, Node: img}, nil
}

// InsertHTML parses s and inserts its nodes at r (or at the end of the document).
func (e *Engine) InsertHTML(r *selection.Range, s string) (Result, error) {
	nodes, err := dom.ParseFragment(s)
	if err != nil {
		return Result{}, err
	}

	at, err := e.target(r)
	if err != nil {
		return Result{}, err
	}
	caret, err := Insert(at, nodes...)
	if err != nil {
		return Result{}, err
	}

	return Result{Caret: caret, Strategy: Inserted}, nil
}

// target returns where inserted content goes: the range with its content
// removed, or the end of the document when there is no usable range.
func (e *Engine) target(r *selection.Range) (selection.Position, error) {
	if r == nil || !selection.Within(e.root, *r) {
		return selection.End(e.root), nil
	}
	if r.Collapsed() {
		return r.Start, nil
	}
	return Delete(*r)
}

// enclose rebuilds the elements between n and top around frag, so content
// lifted out of top keeps its other inline formats.
func enclose(frag []*dom.Node, n, top *dom.Node) ([]*dom.Node, error) {
	if n.Type() == dom.TextNode {
		n = n.Parent()
	}
	for ; n != nil && n != top; n = n.Parent() {
		c := n.ShallowClone()
		if err := appendAll(c, frag); err != nil {
			return nil, err
		}
		frag = []*dom.Node{c}
	}
	return frag, nil
}

// dissolve replaces every element with tag in nodes, at any depth, by its children.
func dissolve(nodes []*dom.Node, tag string) []*dom.Node {
	var out []*dom.Node
	for _, n := range nodes {
		if n.Type() == dom.ElementNode {
			_ = n.ReplaceChildren(dissolve(n.Children(), tag)...)
		}
		if n.Is(tag) {
			out = append(out, n.Children()...)
			continue
		}
		out = append(out, n)
	}
	return out
}

// pruneEmpty drops empty text nodes and emptied inline shells among parent's
// children. Nodes in keep survive even when empty.
func pruneEmpty(parent *dom.Node, keep ...*dom.Node) {
	kept := make(map[*dom.Node]bool, len(keep))
	for _, k := range keep {
		kept[k] = true
	}
	for _, c := range parent.Children() {
		if kept[c] {
			continue
		}
		if isEmpty(c) {
			c.Remove()
		}
	}
}

// pruneDeep removes empty descendants of n left behind by a split.
func pruneDeep(n *dom.Node) {
	for _, c := range n.Children() {
		if isEmpty(c) {
			c.Remove()
			continue
		}
		if c.Type() == dom.ElementNode {
			pruneDeep(c)
		}
	}
}

var shellTags = map[string]bool{"strong": true, "em": true, "a": true, "b": true, "i": true, "u": true, "span": true}

func isEmpty(n *dom.Node) bool {
	if n.Type() == dom.TextNode {
		return n.Data() == ""
	}
	if !shellTags[n.Tag] {
		return false
	}
	for _, c := range n.Children() {
		if !isEmpty(c) {
			return false
		}
	}
	return true
}
