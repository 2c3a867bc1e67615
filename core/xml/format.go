package xml

import (
	"bytes"
	"strings"

	"github.com/FocuswithJustin/isobib/core/encoding"
	"github.com/antchfx/xmlquery"
)

// FormatOptions controls XML formatting behavior.
type FormatOptions struct {
	Indent string // Indentation string (e.g., "  " or "\t"); empty means compact
}

// Format formats/pretty-prints XML data.
func Format(data []byte, opts FormatOptions) ([]byte, error) {
	if opts.Indent == "" {
		opts.Indent = "  "
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}

	p := printer{indent: opts.Indent}
	p.node(doc.root, 0)
	return p.buf.Bytes(), nil
}

// printer writes xmlquery trees. With an empty indent the output is a single
// line with no inter-element whitespace.
type printer struct {
	buf    bytes.Buffer
	indent string
}

func (p *printer) pretty() bool {
	return p.indent != ""
}

func (p *printer) newline() {
	if p.pretty() {
		p.buf.WriteByte('\n')
	}
}

func (p *printer) writeIndent(depth int) {
	for i := 0; i < depth; i++ {
		p.buf.WriteString(p.indent)
	}
}

func (p *printer) node(n *xmlquery.Node, depth int) {
	switch n.Type {
	case xmlquery.DocumentNode:
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			p.node(child, depth)
		}

	case xmlquery.DeclarationNode:
		p.buf.WriteString("<?xml")
		for _, attr := range n.Attr {
			p.buf.WriteString(" ")
			p.buf.WriteString(attr.Name.Local)
			p.buf.WriteString("=\"")
			p.buf.WriteString(encoding.EscapeXMLAttr(attr.Value))
			p.buf.WriteString("\"")
		}
		p.buf.WriteString("?>")
		p.newline()

	case xmlquery.ElementNode:
		p.element(n, depth)

	case xmlquery.TextNode:
		text := strings.TrimSpace(n.Data)
		if text != "" {
			p.buf.WriteString(encoding.EscapeXMLText(text))
		}

	case xmlquery.CommentNode:
		p.writeIndent(depth)
		p.buf.WriteString("<!--")
		p.buf.WriteString(n.Data)
		p.buf.WriteString("-->")
		p.newline()
	}
}

func (p *printer) element(n *xmlquery.Node, depth int) {
	p.writeIndent(depth)
	p.buf.WriteString("<")
	p.qname(n)

	for _, attr := range n.Attr {
		p.buf.WriteString(" ")
		switch {
		case attr.Name.Space == "xmlns":
			p.buf.WriteString("xmlns:")
			p.buf.WriteString(attr.Name.Local)
		case attr.Name.Space != "" && attr.Name.Local != "":
			p.buf.WriteString(attr.Name.Space)
			p.buf.WriteString(":")
			p.buf.WriteString(attr.Name.Local)
		default:
			p.buf.WriteString(attr.Name.Local)
		}
		p.buf.WriteString("=\"")
		p.buf.WriteString(encoding.EscapeXMLAttr(attr.Value))
		p.buf.WriteString("\"")
	}

	if n.FirstChild == nil {
		p.buf.WriteString("/>")
		p.newline()
		return
	}

	hasElementChildren := false
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			hasElementChildren = true
			break
		}
	}

	p.buf.WriteString(">")
	if hasElementChildren {
		p.newline()
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case xmlquery.ElementNode, xmlquery.CommentNode:
			p.node(child, depth+1)
		case xmlquery.TextNode:
			if !hasElementChildren {
				p.buf.WriteString(encoding.EscapeXMLText(child.Data))
				continue
			}
			text := strings.TrimSpace(child.Data)
			if text == "" {
				continue
			}
			p.writeIndent(depth + 1)
			p.buf.WriteString(encoding.EscapeXMLText(text))
			p.newline()
		case xmlquery.CharDataNode:
			p.buf.WriteString("<![CDATA[")
			p.buf.WriteString(child.Data)
			p.buf.WriteString("]]>")
		}
	}

	if hasElementChildren {
		p.writeIndent(depth)
	}
	p.buf.WriteString("</")
	p.qname(n)
	p.buf.WriteString(">")
	p.newline()
}

func (p *printer) qname(n *xmlquery.Node) {
	if n.Prefix != "" {
		p.buf.WriteString(n.Prefix)
		p.buf.WriteString(":")
	}
	p.buf.WriteString(n.Data)
}
