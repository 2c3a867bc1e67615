package bibitem

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	bierrors "github.com/FocuswithJustin/isobib/core/errors"
	"github.com/FocuswithJustin/isobib/core/ics"
	"github.com/FocuswithJustin/isobib/core/xml"
	"github.com/FocuswithJustin/isobib/internal/logging"
)

// partTitle marks the second of two title segments as a part title.
var partTitle = regexp.MustCompile(`^(Part|Partie) \d+:`)

// FromXML parses a <bibitem> document. Fields are located by element name
// under the root, so document order does not matter. Optional elements that
// are absent (status, copyright, editorialgroup) stay nil.
func FromXML(data []byte) (*IsoBibliographicItem, error) {
	doc, err := xml.Parse(data)
	if err != nil {
		return nil, &bierrors.ParseError{Format: "bibitem", Path: "/", Message: "malformed XML", Err: err}
	}
	root, err := doc.XPathFirst("/bibitem")
	if err != nil {
		return nil, &bierrors.ParseError{Format: "bibitem", Path: "/", Message: "query failed", Err: err}
	}
	if root == nil {
		return nil, bierrors.NewParse("bibitem", "/", "no bibitem root element")
	}
	return parseItem(root, "/bibitem")
}

// SplitTitle splits a rendered title into intro, main and part. The
// placeholder "[ -- ]" is removed first. Two segments are (main, part) when
// the second starts with "Part N:" or "Partie N:" and (intro, main)
// otherwise; beyond three, the rest is joined back into the part. Titles
// that contain " -- " as ordinary text are split wrongly.
func SplitTitle(text string) (intro, main, part string) {
	text = strings.Replace(text, "[ -- ]", "", 1)
	var segs []string
	if text != "" {
		segs = strings.Split(text, titleSeparator)
	}
	switch len(segs) {
	case 0:
		return "", "", ""
	case 1:
		return "", segs[0], ""
	case 2:
		if partTitle.MatchString(segs[1]) {
			return "", segs[0], segs[1]
		}
		return segs[0], segs[1], ""
	default:
		return segs[0], segs[1], strings.Join(segs[2:], titleSeparator)
	}
}

// itemParser extracts one bibitem element. The first query or
// construction failure is kept and stops further work.
type itemParser struct {
	path string
	err  error
}

func parseItem(root *xml.Node, path string) (*IsoBibliographicItem, error) {
	p := &itemParser{path: path}
	it := p.item(root)
	if p.err != nil {
		return nil, p.err
	}
	return it, nil
}

func (p *itemParser) fail(at, message string, err error) {
	if p.err != nil {
		return
	}
	p.err = &bierrors.ParseError{Format: "bibitem", Path: p.path + "/" + at, Message: message, Err: err}
}

func (p *itemParser) all(n *xml.Node, expr string) []*xml.Node {
	if p.err != nil {
		return nil
	}
	nodes, err := n.XPath(expr)
	if err != nil {
		p.fail(expr, "query failed", err)
	}
	return nodes
}

func (p *itemParser) first(n *xml.Node, expr string) *xml.Node {
	if p.err != nil {
		return nil
	}
	node, err := n.XPathFirst(expr)
	if err != nil {
		p.fail(expr, "query failed", err)
	}
	return node
}

func (p *itemParser) text(n *xml.Node, expr string) string {
	return p.first(n, expr).Text()
}

func (p *itemParser) texts(n *xml.Node, expr string) []string {
	var out []string
	for _, node := range p.all(n, expr) {
		out = append(out, node.Text())
	}
	return out
}

func (p *itemParser) item(root *xml.Node) *IsoBibliographicItem {
	it := &IsoBibliographicItem{
		ID:          root.Attr("id"),
		Type:        root.Attr("type"),
		Edition:     p.text(root, "edition"),
		Language:    p.texts(root, "language"),
		Script:      p.texts(root, "script"),
		Relations:   NewDocRelationCollection(),
		idAttribute: root.HasAttr("id"),
	}
	it.Fetched = p.fetched(root)
	it.Titles = p.titles(root)
	for _, n := range p.all(root, "uri") {
		it.Links = append(it.Links, TypedURI{Type: n.Attr("type"), Content: n.Text()})
	}
	for _, n := range p.all(root, "docidentifier") {
		it.DocIdentifiers = append(it.DocIdentifiers, ParseDocID(n.Text(), n.Attr("type")))
	}
	for i, n := range p.all(root, "date") {
		d, err := NewBibliographicDate(DateRecord{
			Type: n.Attr("type"),
			On:   p.text(n, "on"),
			From: p.text(n, "from"),
			To:   p.text(n, "to"),
		})
		if err != nil {
			p.fail(fmt.Sprintf("date[%d]", i+1), "invalid date", err)
		}
		it.Dates = append(it.Dates, d)
	}
	for i, n := range p.all(root, "contributor") {
		it.Contributors = append(it.Contributors, p.contributor(n, i+1))
	}
	for _, n := range p.all(root, "abstract") {
		it.Abstracts = append(it.Abstracts, formatted(n))
	}
	it.Status = p.status(root)
	it.Copyright = p.copyright(root)
	for i, n := range p.all(root, "relation") {
		if r := p.relation(n, i+1); r != nil {
			it.Relations.Append(r)
			if r.Type == RelationInstance && r.IsEmbedded() {
				it.mostRecent = true
			}
		}
	}
	for i, n := range p.all(root, "series") {
		it.Series = append(it.Series, p.series(n, i+1))
	}
	it.Workgroup = p.workgroup(root)
	for _, n := range p.all(root, "note") {
		it.Notes = append(it.Notes, formatted(n))
	}
	for i, n := range p.all(root, "ics") {
		code, err := ics.Parse(p.text(n, "code"))
		if err != nil {
			p.fail(fmt.Sprintf("ics[%d]", i+1), "invalid ICS code", err)
			continue
		}
		it.Ics = append(it.Ics, Ics{Code: code, Description: p.text(n, "text")})
	}
	it.allParts = p.text(root, "allparts") == "true"
	return it
}

func (p *itemParser) fetched(root *xml.Node) time.Time {
	s := p.text(root, "fetched")
	if s == "" {
		return today()
	}
	if t, err := time.Parse(fetchedLayout, s); err == nil {
		return t
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		p.fail("fetched", "invalid fetched date", err)
		return time.Time{}
	}
	return t
}

func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (p *itemParser) titles(root *xml.Node) []IsoLocalizedTitle {
	type key struct{ lang, script string }
	seen := map[key]bool{}
	var out []IsoLocalizedTitle
	for _, n := range p.all(root, "title") {
		intro, main, part := SplitTitle(n.Text())
		t := IsoLocalizedTitle{
			TitleIntro: intro,
			TitleMain:  main,
			TitlePart:  part,
			Language:   n.Attr("language"),
			Script:     n.Attr("script"),
			Format:     n.Attr("format"),
		}
		k := key{t.Language, t.Script}
		if seen[k] {
			logging.Warn("duplicate title dropped", "path", p.path, "language", t.Language, "script", t.Script, "title", t.String())
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	return out
}

func (p *itemParser) contributor(n *xml.Node, pos int) ContributionInfo {
	var c ContributionInfo
	for _, r := range p.all(n, "role") {
		c.Roles = append(c.Roles, ContributorRole{Type: r.Attr("type"), Description: p.texts(r, "description")})
	}
	if org := p.first(n, "organization"); org != nil {
		c.Entity = p.organization(org)
	} else if person := p.first(n, "person"); person != nil {
		c.Entity = p.person(person)
	}
	if p.err == nil {
		if err := c.Validate(); err != nil {
			p.fail(fmt.Sprintf("contributor[%d]", pos), "invalid contributor", invalid("contributor", err))
		}
	}
	return c
}

func (p *itemParser) organization(n *xml.Node) *Organization {
	o := &Organization{URL: p.text(n, "uri")}
	for _, name := range p.all(n, "name") {
		o.Names = append(o.Names, localized(name))
	}
	if abbr := p.first(n, "abbreviation"); abbr != nil {
		o.Abbreviation = localized(abbr)
	}
	for _, id := range p.all(n, "identifier") {
		o.Identifiers = append(o.Identifiers, OrgIdentifier{Type: id.Attr("type"), Value: id.Text()})
	}
	o.Contacts = p.contacts(n, "address | phone | email")
	return o
}

func (p *itemParser) person(n *xml.Node) *Person {
	ps := &Person{}
	if name := p.first(n, "name"); name != nil {
		ps.Name = p.fullName(name)
	}
	for _, a := range p.all(n, "affiliation") {
		var aff Affiliation
		if org := p.first(a, "organization"); org != nil {
			aff.Organization = p.organization(org)
		}
		ps.Affiliations = append(ps.Affiliations, aff)
	}
	for _, id := range p.all(n, "identifier") {
		ps.Identifiers = append(ps.Identifiers, PersonIdentifier{Type: id.Attr("type"), Value: id.Text()})
	}
	ps.Contacts = p.contacts(n, "address | phone | email | uri")
	return ps
}

func (p *itemParser) fullName(n *xml.Node) FullName {
	var name FullName
	if cn := p.first(n, "completename"); cn != nil {
		v := localized(cn)
		name.Completename = &v
		return name
	}
	each := func(expr string) []LocalizedString {
		var out []LocalizedString
		for _, e := range p.all(n, expr) {
			out = append(out, localized(e))
		}
		return out
	}
	name.Prefix = each("prefix")
	name.Initials = each("initial")
	name.Additions = each("addition")
	name.Forenames = each("forename")
	if sn := p.first(n, "surname"); sn != nil {
		v := localized(sn)
		name.Surname = &v
	}
	return name
}

func (p *itemParser) contacts(n *xml.Node, expr string) []ContactMethod {
	var out []ContactMethod
	for _, c := range p.all(n, expr) {
		if c.Name() == "address" {
			out = append(out, &Address{
				Street:   p.texts(c, "street"),
				City:     p.text(c, "city"),
				State:    p.text(c, "state"),
				Country:  p.text(c, "country"),
				Postcode: p.text(c, "postcode"),
			})
			continue
		}
		out = append(out, &Contact{Type: c.Name(), Value: c.Text()})
	}
	return out
}

func (p *itemParser) status(root *xml.Node) Status {
	n := p.first(root, "status")
	if n == nil {
		return nil
	}
	r := StatusRecord{Stage: p.text(n, "stage"), Substage: p.text(n, "substage")}
	if len(n.Children()) == 0 {
		r.Status = n.Text()
	}
	if s := p.text(n, "iteration"); s != "" {
		iter, err := strconv.Atoi(s)
		if err != nil {
			p.fail("status/iteration", "iteration is not a number", err)
			return nil
		}
		r.Iteration = iter
	}
	s, err := NewIsoDocumentStatus(r)
	if err != nil {
		p.fail("status", "invalid status", err)
		return nil
	}
	return s
}

func (p *itemParser) copyright(root *xml.Node) *CopyrightAssociation {
	n := p.first(root, "copyright")
	if n == nil {
		return nil
	}
	c := &CopyrightAssociation{}
	var err error
	if c.From, err = parseYear(p.text(n, "from")); err != nil {
		p.fail("copyright/from", "invalid year", err)
		return nil
	}
	if c.To, err = parseYear(p.text(n, "to")); err != nil {
		p.fail("copyright/to", "invalid year", err)
		return nil
	}
	if org := p.first(n, "owner/organization"); org != nil {
		c.Owner.Entity = p.organization(org)
	}
	if p.err == nil {
		if err := c.Validate(); err != nil {
			p.fail("copyright", "invalid copyright", invalid("copyright", err))
			return nil
		}
	}
	return c
}

// relation parses a reference relation, or an embedded item when the
// nested bibitem carries more than a formattedref or docidentifier.
func (p *itemParser) relation(n *xml.Node, pos int) *DocumentRelation {
	at := fmt.Sprintf("relation[%d]", pos)
	r := &DocumentRelation{Type: normalizeRelationType(n.Attr("type"))}
	b := p.first(n, "bibitem")
	if b != nil && p.first(b, "formattedref") == nil && len(p.all(b, "*[not(self::docidentifier)]")) > 0 {
		nested, err := parseItem(b, p.path+"/"+at+"/bibitem")
		if err != nil {
			if p.err == nil {
				p.err = err
			}
			return nil
		}
		r.BibItem = nested
	} else {
		r.Identifier = p.text(b, "formattedref | docidentifier")
		for _, l := range p.all(n, "locality") {
			loc := BibItemLocality{Type: l.Attr("type")}
			if from := p.first(l, "referenceFrom"); from != nil {
				loc.ReferenceFrom = localized(from)
			}
			if to := p.first(l, "referenceTo"); to != nil {
				v := localized(to)
				loc.ReferenceTo = &v
			}
			r.Localities = append(r.Localities, loc)
		}
	}
	if p.err != nil {
		return nil
	}
	if err := r.Validate(); err != nil {
		p.fail(at, "invalid relation", invalid("relation", err))
		return nil
	}
	return r
}

func (p *itemParser) series(n *xml.Node, pos int) Series {
	s := Series{
		Type:         n.Attr("type"),
		Place:        p.text(n, "place"),
		Organization: p.text(n, "organization"),
		From:         p.text(n, "from"),
		To:           p.text(n, "to"),
		Number:       p.text(n, "number"),
		PartNumber:   p.text(n, "partnumber"),
	}
	if t := p.first(n, "title"); t != nil {
		s.Title = formatted(t)
	}
	if a := p.first(n, "abbreviation"); a != nil {
		v := localized(a)
		s.Abbreviation = &v
	}
	if p.err == nil {
		if err := s.Validate(); err != nil {
			p.fail(fmt.Sprintf("series[%d]", pos), "invalid series", invalid("series", err))
		}
	}
	return s
}

func (p *itemParser) workgroup(root *xml.Node) *IsoProjectGroup {
	n := p.first(root, "editorialgroup")
	if n == nil {
		return nil
	}
	g := &IsoProjectGroup{Secretariat: p.text(n, "secretariat")}
	if tc := p.subgroup(n, "technical_committee"); tc != nil {
		g.TechnicalCommittee = *tc
	}
	g.Subcommittee = p.subgroup(n, "subcommittee")
	g.Workgroup = p.subgroup(n, "workgroup")
	if p.err == nil {
		if err := g.Validate(); err != nil {
			p.fail("editorialgroup", "invalid editorial group", invalid("workgroup", err))
			return nil
		}
	}
	return g
}

func (p *itemParser) subgroup(n *xml.Node, name string) *IsoSubgroup {
	e := p.first(n, name)
	if e == nil {
		return nil
	}
	g := &IsoSubgroup{Name: e.Text(), Type: e.Attr("type")}
	if s := e.Attr("number"); s != "" {
		num, err := strconv.Atoi(s)
		if err != nil {
			p.fail(name+"/@number", "number is not an integer", err)
			return nil
		}
		g.Number = num
	}
	return g
}

func localized(n *xml.Node) LocalizedString {
	return LocalizedString{
		Content:  n.Text(),
		Language: splitList(n.Attr("language")),
		Script:   splitList(n.Attr("script")),
	}
}

func formatted(n *xml.Node) FormattedString {
	return FormattedString{LocalizedString: localized(n), Format: n.Attr("format")}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
