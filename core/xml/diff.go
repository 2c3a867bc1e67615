package xml

import (
	"fmt"
	"sort"
	"strings"

	"github.com/FocuswithJustin/isobib/core/encoding"
	"github.com/antchfx/xmlquery"
)

// Diff compares two documents structurally and returns a description of the
// first difference, or "" when they are equivalent. Attribute order,
// comments and insignificant whitespace are ignored; element order and
// content are not. Elements named in ignore are skipped on both sides.
func Diff(a, b []byte, ignore ...string) (string, error) {
	da, err := Parse(a)
	if err != nil {
		return "", err
	}
	db, err := Parse(b)
	if err != nil {
		return "", err
	}

	skip := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		skip[name] = true
	}

	ra, rb := da.Root(), db.Root()
	switch {
	case ra == nil && rb == nil:
		return "", nil
	case ra == nil || rb == nil:
		return "/: root element present on one side only", nil
	}
	return diffElement(ra.node, rb.node, "/"+ra.node.Data, skip), nil
}

// Equivalent reports whether two documents are semantically equal.
func Equivalent(a, b []byte, ignore ...string) (bool, error) {
	d, err := Diff(a, b, ignore...)
	if err != nil {
		return false, err
	}
	return d == "", nil
}

func diffElement(a, b *xmlquery.Node, path string, skip map[string]bool) string {
	if qualified(a) != qualified(b) {
		return fmt.Sprintf("%s: element <%s> != <%s>", path, qualified(a), qualified(b))
	}

	if aa, ba := attrString(a), attrString(b); aa != ba {
		return fmt.Sprintf("%s: attributes [%s] != [%s]", path, aa, ba)
	}

	if at, bt := directText(a), directText(b); at != bt {
		return fmt.Sprintf("%s: text %q != %q", path, at, bt)
	}

	ac, bc := elementChildren(a, skip), elementChildren(b, skip)
	for i := 0; i < len(ac) && i < len(bc); i++ {
		childPath := fmt.Sprintf("%s/%s[%d]", path, qualified(ac[i]), i+1)
		if d := diffElement(ac[i], bc[i], childPath, skip); d != "" {
			return d
		}
	}
	switch {
	case len(ac) > len(bc):
		return fmt.Sprintf("%s: unexpected <%s> on the left", path, qualified(ac[len(bc)]))
	case len(bc) > len(ac):
		return fmt.Sprintf("%s: missing <%s> on the left", path, qualified(bc[len(ac)]))
	}
	return ""
}

func qualified(n *xmlquery.Node) string {
	if n.Prefix != "" {
		return n.Prefix + ":" + n.Data
	}
	return n.Data
}

func attrString(n *xmlquery.Node) string {
	parts := make([]string, 0, len(n.Attr))
	for _, attr := range n.Attr {
		name := attr.Name.Local
		if attr.Name.Space != "" {
			name = attr.Name.Space + ":" + name
		}
		parts = append(parts, name+"="+attr.Value)
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

func directText(n *xmlquery.Node) string {
	var sb strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.TextNode || child.Type == xmlquery.CharDataNode {
			sb.WriteString(child.Data)
			sb.WriteByte(' ')
		}
	}
	return encoding.CollapseSpace(sb.String())
}

func elementChildren(n *xmlquery.Node, skip map[string]bool) []*xmlquery.Node {
	var out []*xmlquery.Node
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode && !skip[child.Data] {
			out = append(out, child)
		}
	}
	return out
}
