package xml

import (
	"strings"
	"testing"
)

// TestFormat verifies XML pretty-printing.
func TestFormat(t *testing.T) {
	xmlData := `<?xml version="1.0"?><date type="published"><on>2014</on></date>`

	formatted, err := Format([]byte(xmlData), FormatOptions{Indent: "  "})
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	want := "<?xml version=\"1.0\"?>\n<date type=\"published\">\n  <on>2014</on>\n</date>\n"
	if string(formatted) != want {
		t.Errorf("Format() =\n%s\nwant\n%s", formatted, want)
	}
}

// TestFormatDefaultIndent verifies two spaces are used when no indent is given.
func TestFormatDefaultIndent(t *testing.T) {
	formatted, err := Format([]byte(`<a><b/></a>`), FormatOptions{})
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(string(formatted), "\n  <b/>") {
		t.Errorf("Format() = %q, want two-space indent", formatted)
	}
}

// TestFormatWithTabs verifies tab indentation.
func TestFormatWithTabs(t *testing.T) {
	formatted, err := Format([]byte(`<root><child/></root>`), FormatOptions{Indent: "\t"})
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	if !strings.Contains(string(formatted), "\t<child/>") {
		t.Error("Formatted XML should contain tabs")
	}
}

// TestFormatInvalidXML verifies malformed input is rejected.
func TestFormatInvalidXML(t *testing.T) {
	if _, err := Format([]byte(`<a><b></a>`), FormatOptions{}); err == nil {
		t.Error("Format should fail for invalid XML")
	}
}

// TestFormatEscapesSpecialChars verifies special character escaping in text.
func TestFormatEscapesSpecialChars(t *testing.T) {
	formatted, err := Format([]byte(`<root>&lt;tag&gt; &amp; "quotes"</root>`), FormatOptions{Indent: "  "})
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	got := string(formatted)
	for _, want := range []string{"&lt;", "&gt;", "&amp;", `"quotes"`} {
		if !strings.Contains(got, want) {
			t.Errorf("Format() = %q, should contain %q", got, want)
		}
	}
}

// TestFormatEscapesAttributeQuotes verifies quote escaping in attributes.
func TestFormatEscapesAttributeQuotes(t *testing.T) {
	formatted, err := Format([]byte(`<root attr="value with &quot;quotes&quot;"/>`), FormatOptions{Indent: "  "})
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	if !strings.Contains(string(formatted), "&quot;") {
		t.Error("Should escape quotes in attributes as &quot;")
	}
}

// TestFormatWithNamespacePrefix verifies formatting preserves namespace prefixes.
func TestFormatWithNamespacePrefix(t *testing.T) {
	formatted, err := Format([]byte(`<ns:root xmlns:ns="http://example.com"><ns:child/></ns:root>`), FormatOptions{Indent: "  "})
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	got := string(formatted)
	for _, want := range []string{"<ns:root", "xmlns:ns=", "<ns:child/>", "</ns:root>"} {
		if !strings.Contains(got, want) {
			t.Errorf("Format() = %q, should contain %q", got, want)
		}
	}
}

// TestFormatWithCDATA verifies CDATA formatting.
func TestFormatWithCDATA(t *testing.T) {
	formatted, err := Format([]byte(`<root><![CDATA[<script>alert('test')</script>]]></root>`), FormatOptions{Indent: "  "})
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	if !strings.Contains(string(formatted), "<![CDATA[") || !strings.Contains(string(formatted), "]]>") {
		t.Errorf("Format() = %q, should preserve the CDATA section", formatted)
	}
}

// TestFormatWhitespaceOnlyText verifies whitespace between elements is dropped.
func TestFormatWhitespaceOnlyText(t *testing.T) {
	formatted, err := Format([]byte("<a>\n   <b>x</b>\n   </a>"), FormatOptions{Indent: " "})
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.HasSuffix(string(formatted), "<a>\n <b>x</b>\n</a>\n") {
		t.Errorf("Format() = %q", formatted)
	}
}
