package xml

import (
	"github.com/antchfx/xmlquery"
)

// Element is an XML element under construction. Attributes keep the order
// in which they are set and children keep the order in which they are added.
type Element struct {
	node *xmlquery.Node
}

// NewElement creates a detached element.
func NewElement(name string) *Element {
	return &Element{node: &xmlquery.Node{Type: xmlquery.ElementNode, Data: name}}
}

// Name returns the element name.
func (e *Element) Name() string {
	return e.node.Data
}

// SetAttr sets an attribute, replacing any previous value.
func (e *Element) SetAttr(name, value string) *Element {
	e.node.SetAttr(name, value)
	return e
}

// SetOptionalAttr sets an attribute only when value is non-empty.
func (e *Element) SetOptionalAttr(name, value string) *Element {
	if value != "" {
		e.node.SetAttr(name, value)
	}
	return e
}

// SetText appends a text node.
func (e *Element) SetText(text string) *Element {
	xmlquery.AddChild(e.node, &xmlquery.Node{Type: xmlquery.TextNode, Data: text})
	return e
}

// AddElement appends a new child element and returns it.
func (e *Element) AddElement(name string) *Element {
	child := NewElement(name)
	xmlquery.AddChild(e.node, child.node)
	return child
}

// AddText appends <name>text</name> and returns the child.
func (e *Element) AddText(name, text string) *Element {
	return e.AddElement(name).SetText(text)
}

// AddOptionalText appends <name>text</name> unless text is empty.
func (e *Element) AddOptionalText(name, text string) {
	if text != "" {
		e.AddText(name, text)
	}
}

// Append attaches an existing element as the last child. A nil child is
// ignored.
func (e *Element) Append(child *Element) *Element {
	if child != nil {
		xmlquery.AddChild(e.node, child.node)
	}
	return e
}

// HasChildren reports whether anything has been added below e.
func (e *Element) HasChildren() bool {
	return e.node.FirstChild != nil
}

// Bytes renders the element compactly.
func (e *Element) Bytes() []byte {
	p := printer{}
	p.node(e.node, 0)
	return p.buf.Bytes()
}

// Indent renders the element with one element per line.
func (e *Element) Indent(indent string) []byte {
	if indent == "" {
		return e.Bytes()
	}
	p := printer{indent: indent}
	p.node(e.node, 0)
	return p.buf.Bytes()
}

// String renders the element compactly.
func (e *Element) String() string {
	return string(e.Bytes())
}

// Document returns a queryable document containing a copy of the element.
func (e *Element) Document() (*Document, error) {
	return Parse(e.Bytes())
}
