// Package bibitem models bibliographic items for standards documents and
// maps them to and from bibitem XML.
//
// An item is built once, from records (NewIsoBibliographicItem, NewFromMap)
// or from XML (FromXML), and is then rendered or derived in place by
// ToAllParts and ToMostRecentReference. Items are not safe for concurrent
// mutation.
package bibitem

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/FocuswithJustin/isobib/core/xml"
)

// ErrAlreadyDerived is returned when a derivation is applied to an item a
// second time.
var ErrAlreadyDerived = errors.New("item already derived")

// titleSeparator joins the intro, main and part components of a title.
const titleSeparator = " -- "

// fetchedLayout is the layout of the <fetched> element.
const fetchedLayout = "2006-01-02"

// RenderOptions controls XML rendering.
type RenderOptions struct {
	// FullDate renders dates as YYYY-MM when the month is known. Without
	// it a parsed YYYY-MM date renders as YYYY, so lossless round trips set
	// FullDate.
	FullDate bool
	// NoYear renders every date value as "--".
	NoYear bool
	// Note adds <note format="text/plain">ISO DATE: Note</note>.
	Note string
	// Indent pretty-prints ToXML output with this indent.
	Indent string
}

// ShortrefOptions controls Shortref.
type ShortrefOptions struct {
	NoYear   bool
	AllParts bool
}

// IsoLocalizedTitle is a title split into intro, main and part components
// for one language/script pair.
type IsoLocalizedTitle struct {
	TitleIntro string
	TitleMain  string
	TitlePart  string
	Language   string
	Script     string
	// Format is the MIME type of the title text; empty means text/plain.
	Format string
}

// String joins the non-empty components with " -- ".
func (t IsoLocalizedTitle) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{t.TitleIntro, t.TitleMain, t.TitlePart} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, titleSeparator)
}

// RemovePart clears the part component.
func (t *IsoLocalizedTitle) RemovePart() {
	t.TitlePart = ""
}

func (t IsoLocalizedTitle) element() *xml.Element {
	el := xml.NewElement("title")
	format := t.Format
	if format == "" {
		format = "text/plain"
	}
	el.SetAttr("format", format)
	el.SetOptionalAttr("language", t.Language)
	el.SetOptionalAttr("script", t.Script)
	if s := t.String(); s != "" {
		el.SetText(s)
	}
	return el
}

// IsoBibliographicItem is the aggregate describing one cited document.
type IsoBibliographicItem struct {
	ID             string
	Type           string
	Titles         []IsoLocalizedTitle
	DocIdentifiers []*DocumentIdentifier
	Dates          []*BibliographicDate
	Contributors   []ContributionInfo
	Edition        string
	Language       []string
	Script         []string
	Abstracts      []FormattedString
	Status         Status
	Copyright      *CopyrightAssociation
	Relations      *DocRelationCollection
	Series         []Series
	Links          []TypedURI
	Ics            []Ics
	Workgroup      *IsoProjectGroup
	Notes          []FormattedString
	Fetched        time.Time

	idAttribute bool
	allParts    bool
	mostRecent  bool
}

// DisableIDAttribute stops the id attribute from being rendered.
func (it *IsoBibliographicItem) DisableIDAttribute() {
	it.idAttribute = false
}

// IDAttributeEnabled reports whether the id attribute is rendered.
func (it *IsoBibliographicItem) IDAttributeEnabled() bool {
	return it.idAttribute
}

// AllParts reports whether the item cites all parts of a document.
func (it *IsoBibliographicItem) AllParts() bool {
	return it.allParts
}

// MostRecent reports whether the item has been derived into a reference
// to the most recent edition.
func (it *IsoBibliographicItem) MostRecent() bool {
	return it.mostRecent
}

// Title returns the first title in language lang.
func (it *IsoBibliographicItem) Title(lang string) (IsoLocalizedTitle, bool) {
	for _, t := range it.Titles {
		if t.Language == lang {
			return t, true
		}
	}
	return IsoLocalizedTitle{}, false
}

// Abstract returns the first abstract tagged with language lang.
func (it *IsoBibliographicItem) Abstract(lang string) (FormattedString, bool) {
	for _, a := range it.Abstracts {
		if a.HasLanguage(lang) {
			return a, true
		}
	}
	return FormattedString{}, false
}

// URL returns the first link of type typ; an empty typ means "src".
func (it *IsoBibliographicItem) URL(typ string) (string, bool) {
	if typ == "" {
		typ = "src"
	}
	for _, l := range it.Links {
		if l.Type == typ {
			return l.Content, true
		}
	}
	return "", false
}

// Publishers returns the contributions with the publisher role.
func (it *IsoBibliographicItem) Publishers() []ContributionInfo {
	var out []ContributionInfo
	for _, c := range it.Contributors {
		if c.HasRole("publisher") {
			out = append(out, c)
		}
	}
	return out
}

// PrimaryDocID returns the first identifier that is not a DOI.
func (it *IsoBibliographicItem) PrimaryDocID() *DocumentIdentifier {
	for _, d := range it.DocIdentifiers {
		if d.Type() != DOI {
			return d
		}
	}
	return nil
}

// PublishedYear returns the year of the first published date.
func (it *IsoBibliographicItem) PublishedYear() (int, bool) {
	for _, d := range it.Dates {
		if d.Type != DatePublished {
			continue
		}
		if v := d.Start(); v != nil {
			return v.Year, true
		}
	}
	return 0, false
}

// Shortref returns the short reference "project[-part][:year][: All Parts]"
// for id, or for the primary identifier when id is nil.
func (it *IsoBibliographicItem) Shortref(id *DocumentIdentifier, opts ShortrefOptions) string {
	if id == nil {
		id = it.PrimaryDocID()
	}
	var b strings.Builder
	if id != nil {
		b.WriteString(id.shortID())
	}
	if !opts.NoYear {
		if year, ok := it.PublishedYear(); ok {
			b.WriteString(":")
			b.WriteString(DateValue{Year: year}.Format(false))
		}
	}
	if opts.AllParts || it.allParts {
		b.WriteString(": All Parts")
	}
	return b.String()
}

// IDAttribute returns the value of the rendered id attribute, or "" when it
// is disabled. It is the primary identifier (or ID) with " (all parts)"
// appended for all-parts items, colons turned into hyphens and whitespace
// removed.
func (it *IsoBibliographicItem) IDAttribute() string {
	if !it.idAttribute {
		return ""
	}
	id := it.ID
	if d := it.PrimaryDocID(); d != nil {
		id = d.String()
	}
	if id == "" {
		return ""
	}
	if it.allParts {
		id += " (all parts)"
	}
	id = strings.ReplaceAll(id, ":", "-")
	return whitespaceRuns.ReplaceAllString(id, "")
}

// ToAllParts turns the item into a reference to all parts of the document.
// The original is kept as an embedded partOf relation; parts are removed
// from titles and identifiers and abstracts are dropped.
func (it *IsoBibliographicItem) ToAllParts() error {
	if it.allParts {
		return ErrAlreadyDerived
	}
	me := it.Clone()
	me.DisableIDAttribute()
	it.relations().Append(&DocumentRelation{Type: RelationPartOf, BibItem: me})

	for i := range it.Titles {
		it.Titles[i].RemovePart()
	}
	for _, d := range it.DocIdentifiers {
		d.RemovePart()
	}
	it.Abstracts = nil
	it.allParts = true
	return nil
}

// ToMostRecentReference turns the item into an undated reference. The
// original is kept as an embedded instance relation; abstracts and dates
// are dropped.
func (it *IsoBibliographicItem) ToMostRecentReference() error {
	if it.mostRecent {
		return ErrAlreadyDerived
	}
	me := it.Clone()
	me.DisableIDAttribute()
	it.relations().Append(&DocumentRelation{Type: RelationInstance, BibItem: me})

	it.Abstracts = nil
	it.Dates = nil
	it.mostRecent = true
	return nil
}

func (it *IsoBibliographicItem) relations() *DocRelationCollection {
	if it.Relations == nil {
		it.Relations = NewDocRelationCollection()
	}
	return it.Relations
}

// Clone returns a deep copy sharing no mutable state with it.
func (it *IsoBibliographicItem) Clone() *IsoBibliographicItem {
	c := &IsoBibliographicItem{
		ID:          it.ID,
		Type:        it.Type,
		Edition:     it.Edition,
		Language:    cloneStrings(it.Language),
		Script:      cloneStrings(it.Script),
		Copyright:   it.Copyright.clone(),
		Relations:   it.Relations.clone(),
		Workgroup:   it.Workgroup.clone(),
		Fetched:     it.Fetched,
		idAttribute: it.idAttribute,
		allParts:    it.allParts,
		mostRecent:  it.mostRecent,
	}
	if it.Titles != nil {
		c.Titles = append([]IsoLocalizedTitle(nil), it.Titles...)
	}
	if it.DocIdentifiers != nil {
		c.DocIdentifiers = make([]*DocumentIdentifier, len(it.DocIdentifiers))
		for i, d := range it.DocIdentifiers {
			c.DocIdentifiers[i] = d.clone()
		}
	}
	if it.Dates != nil {
		c.Dates = make([]*BibliographicDate, len(it.Dates))
		for i, d := range it.Dates {
			c.Dates[i] = d.clone()
		}
	}
	if it.Contributors != nil {
		c.Contributors = make([]ContributionInfo, len(it.Contributors))
		for i, ci := range it.Contributors {
			c.Contributors[i] = ci.clone()
		}
	}
	c.Abstracts = cloneFormatted(it.Abstracts)
	c.Notes = cloneFormatted(it.Notes)
	if it.Status != nil {
		c.Status = it.Status.cloneStatus()
	}
	if it.Series != nil {
		c.Series = make([]Series, len(it.Series))
		for i, s := range it.Series {
			c.Series[i] = s.clone()
		}
	}
	if it.Links != nil {
		c.Links = append([]TypedURI(nil), it.Links...)
	}
	if it.Ics != nil {
		c.Ics = append([]Ics(nil), it.Ics...)
	}
	return c
}

func cloneFormatted(in []FormattedString) []FormattedString {
	if in == nil {
		return nil
	}
	out := make([]FormattedString, len(in))
	for i, s := range in {
		out[i] = s.clone()
	}
	return out
}

// Validate implements validation.Validatable.
func (it *IsoBibliographicItem) Validate() error {
	return validation.ValidateStruct(it,
		validation.Field(&it.DocIdentifiers, validation.Each(validation.NotNil)),
		validation.Field(&it.Dates, validation.Each(validation.NotNil)),
		validation.Field(&it.Contributors),
		validation.Field(&it.Status),
		validation.Field(&it.Copyright),
		validation.Field(&it.Relations),
		validation.Field(&it.Series),
		validation.Field(&it.Links),
		validation.Field(&it.Ics),
		validation.Field(&it.Workgroup),
	)
}

// ToXML renders the item as a <bibitem> document.
func (it *IsoBibliographicItem) ToXML(opts RenderOptions) []byte {
	return it.element(opts).Indent(opts.Indent)
}

// Element renders the item as a detached <bibitem> element.
func (it *IsoBibliographicItem) Element(opts RenderOptions) *xml.Element {
	return it.element(opts)
}

func (it *IsoBibliographicItem) element(opts RenderOptions) *xml.Element {
	el := xml.NewElement("bibitem")
	el.SetOptionalAttr("type", it.Type)
	el.SetOptionalAttr("id", it.IDAttribute())

	if !it.Fetched.IsZero() {
		el.AddText("fetched", it.Fetched.Format(fetchedLayout))
	}
	for _, t := range it.Titles {
		el.Append(t.element())
	}
	for _, l := range it.Links {
		el.Append(l.element())
	}
	for _, d := range it.DocIdentifiers {
		el.Append(d.element())
	}
	for _, d := range it.Dates {
		el.Append(d.element(opts))
	}
	for _, c := range it.Contributors {
		el.Append(c.element())
	}
	el.AddOptionalText("edition", it.Edition)
	for _, l := range it.Language {
		el.AddText("language", l)
	}
	for _, s := range it.Script {
		el.AddText("script", s)
	}
	for _, a := range it.Abstracts {
		el.Append(a.element("abstract"))
	}
	if it.Status != nil {
		el.Append(it.Status.statusElement())
	}
	if it.Copyright != nil {
		el.Append(it.Copyright.element())
	}
	for _, r := range it.Relations.All() {
		el.Append(r.element(opts))
	}
	for _, s := range it.Series {
		el.Append(s.element())
	}
	if it.Workgroup != nil {
		el.Append(it.Workgroup.editorialGroup())
	}
	for _, n := range it.Notes {
		el.Append(n.element("note"))
	}
	if opts.Note != "" {
		el.AddText("note", "ISO DATE: "+opts.Note).SetAttr("format", "text/plain")
	}
	for _, i := range it.Ics {
		el.Append(i.element())
	}
	if it.allParts {
		el.AddText("allparts", "true")
	}
	return el
}
