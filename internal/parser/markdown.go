package parser

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser strips Markdown syntax with goldmark and keeps the text of
// each top-level block, headings included. The first h1 becomes the title.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(data []byte, filename string) (*Document, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(data))

	title := titleFromFilename(filename)
	titled := false
	var w blockWriter
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		block := blockText(n, data)
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 && !titled && block != "" {
			title = block
			titled = true
		}
		w.add(block)
	}

	return &Document{
		Title:  title,
		Format: formatOf(filename),
		Text:   w.String(),
	}, nil
}

// blockText returns the plain text under n. Leaf blocks (code, raw HTML)
// contribute their source lines; everything else is built from inline text.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && !n.HasChildren() {
		lines := n.Lines()
		for i := range lines.Len() {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		return string(bytes.TrimSpace(buf.Bytes()))
	}

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			buf.Write(c.Segment.Value(src))
			if c.SoftLineBreak() || c.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(c.Value)
		default:
			if c.Type() == ast.TypeBlock && buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(blockText(c, src))
		}
	}
	return string(bytes.TrimSpace(buf.Bytes()))
}
