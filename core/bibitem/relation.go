package bibitem

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/FocuswithJustin/isobib/core/xml"
)

// Relation types produced or recognised by this package. The set is open.
const (
	RelationPartOf    = "partOf"
	RelationInstance  = "instance"
	RelationReplace   = "replace"
	RelationObsoletes = "obsoletes"

	// nowWithdrawn is the registry wording normalized to RelationObsoletes.
	nowWithdrawn = "Now withdrawn"
)

// Common locality types. Other strings are accepted.
const (
	LocalitySection   = "section"
	LocalityClause    = "clause"
	LocalityPart      = "part"
	LocalityParagraph = "paragraph"
	LocalityChapter   = "chapter"
	LocalityPage      = "page"
	LocalityWhole     = "whole"
	LocalityTable     = "table"
	LocalityAnnex     = "annex"
	LocalityFigure    = "figure"
	LocalityNote      = "note"
	LocalityExample   = "example"
)

// BibItemLocality pinpoints a place inside a related document.
type BibItemLocality struct {
	Type          string
	ReferenceFrom LocalizedString
	ReferenceTo   *LocalizedString
}

// Validate implements validation.Validatable.
func (l BibItemLocality) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Type, validation.Required),
		validation.Field(&l.ReferenceFrom, validation.By(hasContent)),
	)
}

func (l BibItemLocality) element() *xml.Element {
	el := xml.NewElement("locality")
	el.SetAttr("type", l.Type)
	el.Append(l.ReferenceFrom.element("referenceFrom"))
	if l.ReferenceTo != nil {
		el.Append(l.ReferenceTo.element("referenceTo"))
	}
	return el
}

func (l BibItemLocality) clone() BibItemLocality {
	c := BibItemLocality{Type: l.Type, ReferenceFrom: l.ReferenceFrom.clone()}
	if l.ReferenceTo != nil {
		to := l.ReferenceTo.clone()
		c.ReferenceTo = &to
	}
	return c
}

// DocumentRelation links the item to another document, either by a
// formatted reference (Identifier, URL, Localities) or by embedding a
// complete item (BibItem). The two forms are exclusive.
type DocumentRelation struct {
	Type       string
	Identifier string
	URL        string
	Localities []BibItemLocality
	BibItem    *IsoBibliographicItem
}

// NewReferenceRelation builds a relation to a document cited by reference.
func NewReferenceRelation(typ, identifier, url string, localities ...BibItemLocality) (*DocumentRelation, error) {
	r := &DocumentRelation{
		Type:       normalizeRelationType(typ),
		Identifier: identifier,
		URL:        url,
		Localities: localities,
	}
	if err := r.Validate(); err != nil {
		return nil, invalid("relation", err)
	}
	return r, nil
}

// NewEmbeddedRelation builds a relation owning a complete item.
func NewEmbeddedRelation(typ string, item *IsoBibliographicItem) (*DocumentRelation, error) {
	r := &DocumentRelation{Type: normalizeRelationType(typ), BibItem: item}
	if err := r.Validate(); err != nil {
		return nil, invalid("relation", err)
	}
	return r, nil
}

func normalizeRelationType(t string) string {
	if t == nowWithdrawn {
		return RelationObsoletes
	}
	return t
}

// IsEmbedded reports whether the relation carries a full item.
func (r *DocumentRelation) IsEmbedded() bool {
	return r.BibItem != nil
}

// Validate implements validation.Validatable.
func (r *DocumentRelation) Validate() error {
	embedded := r.BibItem != nil
	return validation.ValidateStruct(r,
		validation.Field(&r.Type, validation.Required),
		validation.Field(&r.Identifier, validation.Required.When(!embedded), validation.Empty.When(embedded)),
		validation.Field(&r.URL, validation.By(isURI)),
		validation.Field(&r.Localities, validation.Empty.When(embedded)),
		validation.Field(&r.BibItem, validation.Skip),
	)
}

// element renders the relation. Embedded items take the date options of
// the enclosing item but never its note.
func (r *DocumentRelation) element(opts RenderOptions) *xml.Element {
	el := xml.NewElement("relation")
	el.SetOptionalAttr("type", r.Type)
	if r.BibItem != nil {
		return el.Append(r.BibItem.element(RenderOptions{FullDate: opts.FullDate, NoYear: opts.NoYear}))
	}
	el.AddElement("bibitem").AddText("formattedref", r.Identifier)
	for _, l := range r.Localities {
		el.Append(l.element())
	}
	return el
}

func (r *DocumentRelation) clone() *DocumentRelation {
	c := &DocumentRelation{Type: r.Type, Identifier: r.Identifier, URL: r.URL}
	if r.Localities != nil {
		c.Localities = make([]BibItemLocality, len(r.Localities))
		for i, l := range r.Localities {
			c.Localities[i] = l.clone()
		}
	}
	if r.BibItem != nil {
		c.BibItem = r.BibItem.Clone()
	}
	return c
}

// DocRelationCollection is the ordered list of an item's relations.
type DocRelationCollection struct {
	relations []*DocumentRelation
}

// NewDocRelationCollection returns a collection holding relations in order.
func NewDocRelationCollection(relations ...*DocumentRelation) *DocRelationCollection {
	return &DocRelationCollection{relations: append([]*DocumentRelation(nil), relations...)}
}

// All returns the relations in order. The slice is a copy; the relations
// are not.
func (c *DocRelationCollection) All() []*DocumentRelation {
	if c == nil {
		return nil
	}
	return append([]*DocumentRelation(nil), c.relations...)
}

// Len returns the number of relations.
func (c *DocRelationCollection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.relations)
}

// Last returns the most recently appended relation.
func (c *DocRelationCollection) Last() (*DocumentRelation, bool) {
	if c.Len() == 0 {
		return nil, false
	}
	return c.relations[len(c.relations)-1], true
}

// Append adds r at the end.
func (c *DocRelationCollection) Append(r *DocumentRelation) {
	c.relations = append(c.relations, r)
}

// Filter returns the relations of type t.
func (c *DocRelationCollection) Filter(t string) []*DocumentRelation {
	var out []*DocumentRelation
	for _, r := range c.All() {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}

// Replaces returns the relations of type "replace".
func (c *DocRelationCollection) Replaces() []*DocumentRelation {
	return c.Filter(RelationReplace)
}

// Validate implements validation.Validatable.
func (c *DocRelationCollection) Validate() error {
	if c == nil {
		return nil
	}
	return validation.Validate(c.relations)
}

func (c *DocRelationCollection) clone() *DocRelationCollection {
	if c == nil {
		return NewDocRelationCollection()
	}
	out := &DocRelationCollection{relations: make([]*DocumentRelation, len(c.relations))}
	for i, r := range c.relations {
		out.relations[i] = r.clone()
	}
	return out
}
