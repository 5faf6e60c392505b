package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseFragment parses s as the content of a div and returns detached nodes.
// Comments and doctypes are dropped.
func ParseFragment(s string) ([]*Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}

	parsed, err := html.ParseFragment(strings.NewReader(s), context)
	if err != nil {
		return nil, fmt.Errorf("parse html fragment: %w", err)
	}

	nodes := make([]*Node, 0, len(parsed))
	for _, hn := range parsed {
		if n := fromHTML(hn); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

// Render writes nodes as HTML. Attribute values and text are escaped by the
// renderer, so a quote inside a value can never terminate the attribute.
func Render(w io.Writer, nodes ...*Node) error {
	for _, n := range nodes {
		if err := html.Render(w, toHTML(n)); err != nil {
			return err
		}
	}
	return nil
}

// HTML serializes the content of the root (its inner HTML).
func (d *Document) HTML() (string, error) {
	var sb strings.Builder
	if err := Render(&sb, d.root.children...); err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	return sb.String(), nil
}

// SetHTML replaces the content of the root with the parsed fragment.
func (d *Document) SetHTML(s string) error {
	nodes, err := ParseFragment(s)
	if err != nil {
		return err
	}
	return d.root.ReplaceChildren(nodes...)
}

// OuterHTML renders n including its own tag. Used in logs and tests.
func (n *Node) OuterHTML() string {
	var sb strings.Builder
	if err := Render(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}

func fromHTML(hn *html.Node) *Node {
	switch hn.Type {
	case html.TextNode:
		return NewText(hn.Data)
	case html.ElementNode:
		el := NewElement(hn.Data)
		for _, a := range hn.Attr {
			el.Attrs = append(el.Attrs, Attr{Key: a.Key, Val: a.Val})
		}
		for c := hn.FirstChild; c != nil; c = c.NextSibling {
			if child := fromHTML(c); child != nil {
				child.parent = el
				el.children = append(el.children, child)
			}
		}
		return el
	}
	return nil
}

func toHTML(n *Node) *html.Node {
	if n.typ == TextNode {
		return &html.Node{Type: html.TextNode, Data: n.data}
	}

	hn := &html.Node{
		Type:     html.ElementNode,
		Data:     n.Tag,
		DataAtom: atom.Lookup([]byte(n.Tag)),
	}
	for _, a := range n.Attrs {
		hn.Attr = append(hn.Attr, html.Attribute{Key: a.Key, Val: a.Val})
	}
	for _, c := range n.children {
		hn.AppendChild(toHTML(c))
	}
	return hn
}
