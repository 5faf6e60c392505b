package dom

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// tags lists the tag (or "#text") of each child, for structural assertions.
func tags(n *Node) []string {
	var out []string
	for _, c := range n.Children() {
		if c.Type() == TextNode {
			out = append(out, "#text")
		} else {
			out = append(out, c.Tag)
		}
	}
	return out
}

func TestDocument(t *testing.T) {
	doc := New()

	// A new document has an empty div root.
	got := []interface{}{doc.Root().Tag, doc.Root().Len(), doc.Root().Parent() == nil}
	want := []interface{}{"div", 0, true}

	if !cmp.Equal(got, want) {
		t.Errorf("got != want; diff = %v\n", cmp.Diff(got, want))
	}
}

func TestInsertBefore(t *testing.T) {
	root := NewElement("div")
	a, b, c := NewElement("strong"), NewText("b"), NewElement("em")

	for _, n := range []*Node{a, c} {
		if err := root.AppendChild(n); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := root.InsertBefore(b, c); err != nil {
		t.Fatalf("insert before: %v", err)
	}

	if diff := cmp.Diff([]string{"strong", "#text", "em"}, tags(root)); diff != "" {
		t.Errorf("wrong order, diff: %v\n", diff)
	}

	// Moving a node into another parent detaches it from the first one.
	other := NewElement("p")
	if err := other.AppendChild(b); err != nil {
		t.Fatalf("move: %v", err)
	}
	if diff := cmp.Diff([]string{"strong", "em"}, tags(root)); diff != "" {
		t.Errorf("node still attached to old parent, diff: %v\n", diff)
	}
	if b.Parent() != other || b.Index() != 0 {
		t.Errorf("got parent %v index %d, expected p at 0", b.Parent(), b.Index())
	}
}

func TestInsertBeforeRejectsInvalidTrees(t *testing.T) {
	tests := []struct {
		description string
		setup       func() (parent, child, ref *Node)
		expected    error
	}{
		{
			description: "ancestor into descendant",
			setup: func() (*Node, *Node, *Node) {
				outer, inner := NewElement("em"), NewElement("strong")
				_ = outer.AppendChild(inner)
				return inner, outer, nil
			},
			expected: ErrCycle,
		},
		{
			description: "node into itself",
			setup: func() (*Node, *Node, *Node) {
				n := NewElement("em")
				return n, n, nil
			},
			expected: ErrCycle,
		},
		{
			description: "child of a text node",
			setup: func() (*Node, *Node, *Node) {
				return NewText("x"), NewText("y"), nil
			},
			expected: ErrNotElement,
		},
		{
			description: "foreign reference",
			setup: func() (*Node, *Node, *Node) {
				return NewElement("p"), NewText("y"), NewText("z")
			},
			expected: ErrNotChild,
		},
	}

	for _, tc := range tests {
		parent, child, ref := tc.setup()
		err := parent.InsertBefore(child, ref)
		if !errors.Is(err, tc.expected) {
			t.Errorf("(%s) got err %v, expected %v", tc.description, err, tc.expected)
		}
	}
}

func TestSplitText(t *testing.T) {
	root := NewElement("div")
	text := NewText("abcdef")
	_ = root.AppendChild(text)

	tail, err := text.SplitText(3)
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	got := []string{text.Data(), tail.Data()}
	if diff := cmp.Diff([]string{"abc", "def"}, got); diff != "" {
		t.Errorf("wrong halves, diff: %v\n", diff)
	}
	if tail.Parent() != root || tail.Index() != 1 {
		t.Errorf("tail not inserted after head")
	}

	if _, err := text.SplitText(10); !errors.Is(err, ErrOffsetOutOfBounds) {
		t.Errorf("got err %v, expected %v", err, ErrOffsetOutOfBounds)
	}
}

func TestReplaceChildren(t *testing.T) {
	root := NewElement("div")
	old := NewText("old")
	_ = root.AppendChild(old)

	if err := root.ReplaceChildren(NewText("a"), NewElement("br")); err != nil {
		t.Fatalf("replace: %v", err)
	}

	if diff := cmp.Diff([]string{"#text", "br"}, tags(root)); diff != "" {
		t.Errorf("diff: %v\n", diff)
	}
	if old.Parent() != nil {
		t.Errorf("replaced child still has a parent")
	}
}

func TestHTMLRoundTrip(t *testing.T) {
	tests := []struct {
		description string
		html        string
		expected    string
	}{
		{description: "inline emphasis",
			html:     `<p>This is <strong>bold</strong> and <em>italic</em>.</p>`,
			expected: `<p>This is <strong>bold</strong> and <em>italic</em>.</p>`},
		{description: "anchor attributes keep their order",
			html:     `<a href="https://example.com" target="_blank" rel="noopener noreferrer">link</a>`,
			expected: `<a href="https://example.com" target="_blank" rel="noopener noreferrer">link</a>`},
		{description: "comments are dropped",
			html:     `a<!-- note -->b`,
			expected: `ab`},
		{description: "plain text",
			html:     `hello`,
			expected: `hello`},
		{description: "empty",
			html:     ``,
			expected: ``},
	}

	for _, tc := range tests {
		doc := New()
		if err := doc.SetHTML(tc.html); err != nil {
			t.Fatalf("(%s) set html: %v", tc.description, err)
		}

		got, err := doc.HTML()
		if err != nil {
			t.Fatalf("(%s) html: %v", tc.description, err)
		}
		if got != tc.expected {
			t.Errorf("(%s) got != expected, diff: %v\n", tc.description, cmp.Diff(got, tc.expected))
		}
	}
}

func TestRenderEscapesAttributeQuotes(t *testing.T) {
	img := NewElement("img", Attr{Key: "src", Val: "https://x.test/a.png"}, Attr{Key: "alt", Val: `say "hi"`})

	got := img.OuterHTML()
	want := `<img src="https://x.test/a.png" alt="say &#34;hi&#34;"/>`
	if got != want {
		t.Errorf("got != want, diff: %v\n", cmp.Diff(got, want))
	}

	// The escaped value survives a reparse unchanged.
	nodes, err := ParseFragment(got)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	alt, _ := nodes[0].Attr("alt")
	if alt != `say "hi"` {
		t.Errorf("got alt %q after reparse", alt)
	}
}

func TestTextContent(t *testing.T) {
	doc := New()
	_ = doc.SetHTML(`<p>ab<strong>cd<em>ef</em></strong></p>g`)

	if got := doc.Root().TextContent(); got != "abcdefg" {
		t.Errorf("got %q, expected %q", got, "abcdefg")
	}
}
