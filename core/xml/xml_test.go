package xml

import (
	"strings"
	"testing"
)

// TestParseValidXML verifies parsing of well-formed XML.
func TestParseValidXML(t *testing.T) {
	xmlData := `<?xml version="1.0"?>
<bibitem type="international-standard">
	<docidentifier type="ISO">ISO 19115-1:2014</docidentifier>
</bibitem>`

	doc, err := Parse([]byte(xmlData))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc == nil {
		t.Fatal("Parse returned nil document")
	}
}

// TestParseInvalidXML verifies error handling for malformed XML.
func TestParseInvalidXML(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{"unclosed tag", "<bibitem><title></bibitem>"},
		{"mismatched tags", "<bibitem></other>"},
		{"invalid chars", "<bibitem>\x00</bibitem>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.xml))
			if err == nil {
				t.Error("Parse should fail for invalid XML")
			}
		})
	}
}

// TestValidateWellFormed verifies well-formedness validation.
func TestValidateWellFormed(t *testing.T) {
	valid := `<?xml version="1.0"?><bibitem><title/></bibitem>`
	result := Validate([]byte(valid))
	if !result.Valid {
		t.Errorf("Valid XML should pass: %v", result.Errors)
	}
}

// TestValidateMalformed verifies malformed input is reported with a position.
func TestValidateMalformed(t *testing.T) {
	result := Validate([]byte("<bibitem>\n<title>\n</bibitem>"))
	if result.Valid {
		t.Fatal("Malformed XML should fail validation")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Errors = %d, want 1", len(result.Errors))
	}
	if result.Errors[0].Line < 2 {
		t.Errorf("Error line = %d, want at least 2", result.Errors[0].Line)
	}
}

// TestXPathQuery verifies XPath query execution.
func TestXPathQuery(t *testing.T) {
	xmlData := `<bibitem>
	<title language="en">Geographic information</title>
	<title language="fr">Information géographique</title>
</bibitem>`

	doc, err := Parse([]byte(xmlData))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	results, err := doc.XPath("/bibitem/title")
	if err != nil {
		t.Fatalf("XPath failed: %v", err)
	}

	if len(results) != 2 {
		t.Errorf("XPath should return 2 results, got %d", len(results))
	}
}

// TestXPathQueryText verifies XPath text extraction.
func TestXPathQueryText(t *testing.T) {
	xmlData := `<bibitem><edition>  1  </edition></bibitem>`

	doc, err := Parse([]byte(xmlData))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	node, err := doc.XPathFirst("//edition")
	if err != nil {
		t.Fatalf("XPathFirst failed: %v", err)
	}
	if node.Text() != "1" {
		t.Errorf("Text = %q, want %q", node.Text(), "1")
	}
	if node.InnerText() != "  1  " {
		t.Errorf("InnerText = %q, want %q", node.InnerText(), "  1  ")
	}
}

// TestXPathInvalidExpression verifies error handling for invalid XPath.
func TestXPathInvalidExpression(t *testing.T) {
	doc, err := Parse([]byte(`<bibitem/>`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if _, err = doc.XPath("[invalid"); err == nil {
		t.Error("Invalid XPath should return error")
	}
	if _, err = doc.XPathFirst("[invalid"); err == nil {
		t.Error("Invalid XPath should return error")
	}
}

// TestXPathFirstNotFound verifies a miss returns nil without error.
func TestXPathFirstNotFound(t *testing.T) {
	doc, err := Parse([]byte(`<bibitem/>`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	node, err := doc.XPathFirst("//copyright")
	if err != nil {
		t.Fatalf("XPathFirst failed: %v", err)
	}
	if node != nil {
		t.Error("XPathFirst should return nil for no match")
	}
}

// TestNodeRelativeXPath verifies queries evaluated from an element context.
func TestNodeRelativeXPath(t *testing.T) {
	xmlData := `<bibitem>
	<relation type="updates"><bibitem><formattedref>ISO 1</formattedref></bibitem></relation>
	<relation type="partOf"><bibitem><formattedref>ISO 2</formattedref></bibitem></relation>
</bibitem>`

	doc, err := Parse([]byte(xmlData))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	relations, err := doc.XPath("/bibitem/relation")
	if err != nil {
		t.Fatalf("XPath failed: %v", err)
	}
	if len(relations) != 2 {
		t.Fatalf("relations = %d, want 2", len(relations))
	}

	ref, err := relations[1].XPathFirst("bibitem/formattedref")
	if err != nil {
		t.Fatalf("XPathFirst failed: %v", err)
	}
	if ref.Text() != "ISO 2" {
		t.Errorf("formattedref = %q, want %q", ref.Text(), "ISO 2")
	}
}

// TestDocumentRoot verifies root element access.
func TestDocumentRoot(t *testing.T) {
	doc, err := Parse([]byte(`<?xml version="1.0"?><bibitem id="ISO1"><title/></bibitem>`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	root := doc.Root()
	if root == nil {
		t.Fatal("Root should not be nil")
	}
	if root.Name() != "bibitem" {
		t.Errorf("Root name = %q, want %q", root.Name(), "bibitem")
	}
}

// TestDocumentRootNilDocument verifies Root handles nil document.
func TestDocumentRootNilDocument(t *testing.T) {
	doc := &Document{root: nil}
	if doc.Root() != nil {
		t.Error("Root should return nil for document with nil root")
	}
}

// TestNodeAttributes verifies attribute access.
func TestNodeAttributes(t *testing.T) {
	doc, err := Parse([]byte(`<title format="text/plain" language="en" script=""/>`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	root := doc.Root()
	if attrs := root.Attributes(); len(attrs) != 3 {
		t.Errorf("Should have 3 attributes, got %d", len(attrs))
	}
	if root.Attr("language") != "en" {
		t.Errorf("Attr(language) = %q, want %q", root.Attr("language"), "en")
	}
	if !root.HasAttr("script") {
		t.Error("HasAttr(script) should be true for an empty attribute")
	}
	if root.HasAttr("id") {
		t.Error("HasAttr(id) should be false")
	}
}

// TestNodeNil verifies accessors tolerate a nil node.
func TestNodeNil(t *testing.T) {
	var n *Node
	if n.Name() != "" || n.Text() != "" || n.InnerText() != "" || n.InnerXML() != "" || n.Attr("x") != "" {
		t.Error("nil node accessors should return empty strings")
	}
	if n.Children() != nil || n.Attributes() != nil || n.HasAttr("x") {
		t.Error("nil node collections should be empty")
	}
	nodes, err := n.XPath("title")
	if err != nil || nodes != nil {
		t.Errorf("XPath on nil node = %v, %v", nodes, err)
	}
}

// TestNodeChildren verifies child element access skips text and comments.
func TestNodeChildren(t *testing.T) {
	doc, err := Parse([]byte(`<status> <stage>60</stage><!-- c --><substage>60</substage></status>`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if children := doc.Root().Children(); len(children) != 2 {
		t.Errorf("Should have 2 children, got %d", len(children))
	}
}

// TestNodeInnerXML verifies inner XML extraction.
func TestNodeInnerXML(t *testing.T) {
	doc, err := Parse([]byte(`<root>Hello <b>World</b>!</root>`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if innerXML := doc.Root().InnerXML(); !strings.Contains(innerXML, "<b>World</b>") {
		t.Errorf("InnerXML should contain markup: %q", innerXML)
	}
}

// TestSerialize verifies XML serialization.
func TestSerialize(t *testing.T) {
	doc, err := Parse([]byte(`<root attr="value"><child>text</child></root>`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	output := string(doc.Serialize())
	if !strings.Contains(output, `attr="value"`) {
		t.Error("Serialized XML should contain attribute")
	}
	if !strings.Contains(output, "<child>text</child>") {
		t.Error("Serialized XML should contain child element")
	}
}
