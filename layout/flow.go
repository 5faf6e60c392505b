// Package layout flows a document into fixed-size character cells and keeps a
// host selection over it.
package layout

import (
	"strings"
	"unicode/utf8"

	"github.com/burntcarrot/richpad/dom"
	"github.com/mattn/go-runewidth"
)

// Metrics describes the cell grid.
type Metrics struct {
	CellW float64
	CellH float64
	Cols  int
}

// DefaultMetrics is an 80 column grid of 8x16 cells.
var DefaultMetrics = Metrics{CellW: 8, CellH: 16, Cols: 80}

// cell is one laid out unit: a rune of a text node, a newline, or an image.
type cell struct {
	node  *dom.Node
	off   int
	size  int
	line  int
	col   int
	width int
	label string
}

var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true, "blockquote": true, "pre": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

type flow struct {
	cols      int
	line, col int
	cells     []cell
}

func layoutCells(root *dom.Node, cols int) []cell {
	if cols <= 0 {
		cols = DefaultMetrics.Cols
	}
	f := &flow{cols: cols}
	for _, c := range root.Children() {
		f.visit(c)
	}
	return f.cells
}

// breakLine starts a new line unless the current one is still empty.
func (f *flow) breakLine() {
	if f.col > 0 {
		f.line++
		f.col = 0
	}
}

func (f *flow) visit(n *dom.Node) {
	switch {
	case n.Type() == dom.TextNode:
		f.text(n)

	case n.Is("img"):
		f.breakLine()
		label := imageLabel(n, f.cols)
		f.cells = append(f.cells, cell{node: n, line: f.line, width: runewidth.StringWidth(label), label: label})
		f.line++

	case n.Is("br"):
		f.line++
		f.col = 0

	case blockTags[n.Tag]:
		f.breakLine()
		for _, c := range n.Children() {
			f.visit(c)
		}
		f.breakLine()

	default:
		for _, c := range n.Children() {
			f.visit(c)
		}
	}
}

func (f *flow) text(n *dom.Node) {
	data := n.Data()
	for i, r := range data {
		size := utf8.RuneLen(r)
		if r == utf8.RuneError {
			size = 1
		}

		if r == '\n' {
			f.cells = append(f.cells, cell{node: n, off: i, size: size, line: f.line, col: f.col})
			f.line++
			f.col = 0
			continue
		}

		// Wrap by rune width.
		w := runewidth.RuneWidth(r)
		if f.col+w > f.cols {
			f.line++
			f.col = 0
		}
		f.cells = append(f.cells, cell{node: n, off: i, size: size, line: f.line, col: f.col, width: w})
		f.col += w
	}
}

func imageLabel(img *dom.Node, cols int) string {
	alt, _ := img.Attr("alt")
	if alt == "" {
		alt = "image"
	}
	return runewidth.Truncate("["+alt+"]", cols, "…")
}

// render draws cells as text lines.
func render(cells []cell) []string {
	var lines []string
	var sb strings.Builder
	line := 0

	flush := func(to int) {
		for line < to {
			lines = append(lines, sb.String())
			sb.Reset()
			line++
		}
	}

	for _, c := range cells {
		flush(c.line)
		switch {
		case c.label != "":
			sb.WriteString(c.label)
		default:
			if r := c.node.Data()[c.off : c.off+c.size]; r != "\n" {
				sb.WriteString(r)
			}
		}
	}
	if len(cells) > 0 {
		lines = append(lines, sb.String())
	}
	return lines
}
