package bibitem

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/hashicorp/go-multierror"

	bierrors "github.com/FocuswithJustin/isobib/core/errors"
)

// ItemArgs are the arguments of NewIsoBibliographicItem. Most fields take
// either a raw record or an already built entity; built entities are
// copied so the item owns everything it holds.
type ItemArgs struct {
	ID           string
	Type         string
	Fetched      string
	Titles       []TitleSource
	DocIDs       []DocIDSource
	Dates        []DateSource
	Contributors []ContributorSource
	Edition      string
	Language     []string
	Script       []string
	Abstracts    []FormattedString
	Status       StatusSource
	Copyright    CopyrightSource
	Relations    []RelationSource
	Series       []Series
	Links        []LinkSource
	Ics          []IcsSource
	Workgroup    WorkgroupSource
	Notes        []FormattedString
}

// NewIsoBibliographicItem resolves args into an item. Every invalid
// argument is reported; the error is a *multierror.Error whose entries
// match bierrors.ErrInvalidArgument.
func NewIsoBibliographicItem(args ItemArgs) (*IsoBibliographicItem, error) {
	var result *multierror.Error
	add := func(err error, format string, a ...interface{}) {
		if err != nil {
			result = multierror.Append(result, bierrors.Wrapf(err, format, a...))
		}
	}

	it := &IsoBibliographicItem{
		ID:          args.ID,
		Type:        args.Type,
		Edition:     args.Edition,
		Language:    cloneStrings(args.Language),
		Script:      cloneStrings(args.Script),
		Abstracts:   cloneFormatted(args.Abstracts),
		Notes:       cloneFormatted(args.Notes),
		Relations:   NewDocRelationCollection(),
		idAttribute: true,
	}

	fetched, err := parseFetched(args.Fetched)
	add(err, "fetched")
	it.Fetched = fetched

	for i, src := range args.Titles {
		if src == nil {
			add(errNilSource, "titles[%d]", i)
			continue
		}
		it.Titles = append(it.Titles, src.title())
	}
	for i, src := range args.DocIDs {
		if src == nil {
			add(errNilSource, "docids[%d]", i)
			continue
		}
		it.DocIdentifiers = append(it.DocIdentifiers, src.docID())
	}
	for i, src := range args.Dates {
		if src == nil {
			add(errNilSource, "dates[%d]", i)
			continue
		}
		d, err := src.date()
		add(err, "dates[%d]", i)
		if err == nil {
			it.Dates = append(it.Dates, d)
		}
	}
	for i, src := range args.Contributors {
		if src == nil {
			add(errNilSource, "contributors[%d]", i)
			continue
		}
		c, err := src.contribution()
		add(err, "contributors[%d]", i)
		if err == nil {
			it.Contributors = append(it.Contributors, c)
		}
	}
	if args.Status != nil {
		s, err := args.Status.status()
		add(err, "status")
		it.Status = s
	}
	if args.Copyright != nil {
		c, err := args.Copyright.copyright()
		add(err, "copyright")
		it.Copyright = c
	}
	for i, src := range args.Relations {
		if src == nil {
			add(errNilSource, "relations[%d]", i)
			continue
		}
		r, err := src.relation()
		add(err, "relations[%d]", i)
		if err == nil {
			it.Relations.Append(r)
		}
	}
	for i, s := range args.Series {
		_, err := NewSeries(s)
		add(err, "series[%d]", i)
		if err == nil {
			it.Series = append(it.Series, s.clone())
		}
	}
	for i, src := range args.Links {
		if src == nil {
			add(errNilSource, "links[%d]", i)
			continue
		}
		l, err := src.link()
		add(err, "links[%d]", i)
		if err == nil {
			it.Links = append(it.Links, l)
		}
	}
	for i, src := range args.Ics {
		if src == nil {
			add(errNilSource, "ics[%d]", i)
			continue
		}
		c, err := src.ics()
		add(err, "ics[%d]", i)
		if err == nil {
			it.Ics = append(it.Ics, c)
		}
	}
	if args.Workgroup != nil {
		g, err := args.Workgroup.workgroup()
		add(err, "workgroup")
		it.Workgroup = g
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return it, nil
}

var errNilSource = bierrors.NewValidation("", "nil source")

func parseFetched(s string) (time.Time, error) {
	if s == "" {
		return today(), nil
	}
	if t, err := time.Parse(fetchedLayout, s); err == nil {
		return t, nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, &bierrors.ValidationError{Field: "fetched", Message: fmt.Sprintf("cannot parse %q", s), Err: err}
	}
	return t, nil
}

// TitleSource is a TitleRecord or an IsoLocalizedTitle.
type TitleSource interface{ title() IsoLocalizedTitle }

// TitleRecord is the raw form of a title. When Text is set it is split
// with SplitTitle and the component fields are ignored.
type TitleRecord struct {
	Text     string `mapstructure:"text"`
	Intro    string `mapstructure:"title_intro"`
	Main     string `mapstructure:"title_main"`
	Part     string `mapstructure:"title_part"`
	Language string `mapstructure:"language"`
	Script   string `mapstructure:"script"`
}

func (r TitleRecord) title() IsoLocalizedTitle {
	t := IsoLocalizedTitle{TitleIntro: r.Intro, TitleMain: r.Main, TitlePart: r.Part, Language: r.Language, Script: r.Script}
	if r.Text != "" {
		t.TitleIntro, t.TitleMain, t.TitlePart = SplitTitle(r.Text)
	}
	return t
}

func (t IsoLocalizedTitle) title() IsoLocalizedTitle { return t }

// DocIDSource is a DocIDRecord or a *DocumentIdentifier.
type DocIDSource interface{ docID() *DocumentIdentifier }

func (r DocIDRecord) docID() *DocumentIdentifier         { return NewDocID(r) }
func (d *DocumentIdentifier) docID() *DocumentIdentifier { return d.clone() }

// DateSource is a DateRecord or a *BibliographicDate.
type DateSource interface {
	date() (*BibliographicDate, error)
}

func (r DateRecord) date() (*BibliographicDate, error) { return NewBibliographicDate(r) }

func (d *BibliographicDate) date() (*BibliographicDate, error) {
	if err := d.Validate(); err != nil {
		return nil, invalid("date", err)
	}
	return d.clone(), nil
}

// ContributorSource is a ContributionRecord or a ContributionInfo.
type ContributorSource interface {
	contribution() (ContributionInfo, error)
}

// ContributionRecord is the raw form of a ContributionInfo.
type ContributionRecord struct {
	Entity EntitySource
	Roles  []ContributorRole
}

func (r ContributionRecord) contribution() (ContributionInfo, error) {
	if r.Entity == nil {
		return ContributionInfo{}, bierrors.NewValidation("contributor", "entity is required")
	}
	e, err := r.Entity.entity()
	if err != nil {
		return ContributionInfo{}, err
	}
	c := ContributionInfo{Entity: e, Roles: r.Roles}
	return c.clone(), invalid("contributor", c.Validate())
}

func (c ContributionInfo) contribution() (ContributionInfo, error) {
	if err := c.Validate(); err != nil {
		return ContributionInfo{}, invalid("contributor", err)
	}
	return c.clone(), nil
}

// EntitySource is an OrganizationRecord, a PersonRecord, an *Organization,
// a *Person or an *IsoProjectGroup.
type EntitySource interface {
	entity() (Contributor, error)
}

// OrganizationRecord is the raw form of an Organization.
type OrganizationRecord struct {
	Name         string          `mapstructure:"name"`
	Abbreviation string          `mapstructure:"abbreviation"`
	URL          string          `mapstructure:"url"`
	Identifiers  []OrgIdentifier `mapstructure:"identifiers"`
}

func (r OrganizationRecord) organization() (*Organization, error) {
	o := &Organization{
		Abbreviation: LocalizedString{Content: r.Abbreviation},
		URL:          r.URL,
		Identifiers:  append([]OrgIdentifier(nil), r.Identifiers...),
	}
	if r.Name != "" {
		o.Names = []LocalizedString{{Content: r.Name}}
	}
	if err := o.Validate(); err != nil {
		return nil, invalid("organization", err)
	}
	return o, nil
}

func (r OrganizationRecord) entity() (Contributor, error) { return r.organization() }

// PersonRecord is the raw form of a Person. Completename wins over the
// decomposed name.
type PersonRecord struct {
	Completename string               `mapstructure:"completename"`
	Surname      string               `mapstructure:"surname"`
	Forenames    []string             `mapstructure:"forenames"`
	Initials     []string             `mapstructure:"initials"`
	Language     string               `mapstructure:"language"`
	Affiliations []OrganizationRecord `mapstructure:"affiliations"`
	Contacts     []ContactMethod      `mapstructure:"-"`
}

func (r PersonRecord) entity() (Contributor, error) {
	var name FullName
	if r.Completename != "" {
		cn := NewLocalizedString(r.Completename, r.Language)
		name.Completename = &cn
	} else if r.Surname != "" {
		sn := NewLocalizedString(r.Surname, r.Language)
		name.Surname = &sn
		for _, f := range r.Forenames {
			name.Forenames = append(name.Forenames, NewLocalizedString(f, r.Language))
		}
		for _, i := range r.Initials {
			name.Initials = append(name.Initials, NewLocalizedString(i, r.Language))
		}
	}
	var result *multierror.Error
	var affs []Affiliation
	for i, a := range r.Affiliations {
		org, err := a.organization()
		if err != nil {
			result = multierror.Append(result, bierrors.Wrapf(err, "affiliations[%d]", i))
			continue
		}
		affs = append(affs, Affiliation{Organization: org})
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	p, err := NewPerson(name, affs, cloneContacts(r.Contacts))
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (o *Organization) entity() (Contributor, error) {
	if err := o.Validate(); err != nil {
		return nil, invalid("organization", err)
	}
	return o.clone(), nil
}

func (p *Person) entity() (Contributor, error) {
	if err := p.Validate(); err != nil {
		return nil, invalid("person", err)
	}
	return p.cloneContributor(), nil
}

func (g *IsoProjectGroup) entity() (Contributor, error) {
	if err := g.Validate(); err != nil {
		return nil, invalid("workgroup", err)
	}
	return g.clone(), nil
}

// StatusSource is a StatusRecord, a *DocumentStatus or an
// *IsoDocumentStatus.
type StatusSource interface {
	status() (Status, error)
}

func (r StatusRecord) status() (Status, error) {
	s, err := NewIsoDocumentStatus(r)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DocumentStatus) status() (Status, error) {
	return s.cloneStatus(), invalid("status", s.Validate())
}

func (s *IsoDocumentStatus) status() (Status, error) {
	return s.cloneStatus(), invalid("status", s.Validate())
}

// CopyrightSource is a CopyrightRecord or a *CopyrightAssociation.
type CopyrightSource interface {
	copyright() (*CopyrightAssociation, error)
}

func (r CopyrightRecord) copyright() (*CopyrightAssociation, error) { return NewCopyright(r) }

func (c *CopyrightAssociation) copyright() (*CopyrightAssociation, error) {
	if err := c.Validate(); err != nil {
		return nil, invalid("copyright", err)
	}
	return c.clone(), nil
}

// RelationSource is a RelationRecord or a *DocumentRelation.
type RelationSource interface {
	relation() (*DocumentRelation, error)
}

// RelationRecord is the raw form of a reference relation.
type RelationRecord struct {
	Type       string           `mapstructure:"type"`
	Identifier string           `mapstructure:"identifier"`
	URL        string           `mapstructure:"url"`
	Localities []LocalityRecord `mapstructure:"localities"`
}

// LocalityRecord is the raw form of a BibItemLocality.
type LocalityRecord struct {
	Type string `mapstructure:"type"`
	From string `mapstructure:"reference_from"`
	To   string `mapstructure:"reference_to"`
}

func (r RelationRecord) relation() (*DocumentRelation, error) {
	locs := make([]BibItemLocality, 0, len(r.Localities))
	for _, l := range r.Localities {
		loc := BibItemLocality{Type: l.Type, ReferenceFrom: LocalizedString{Content: l.From}}
		if l.To != "" {
			loc.ReferenceTo = &LocalizedString{Content: l.To}
		}
		locs = append(locs, loc)
	}
	return NewReferenceRelation(r.Type, r.Identifier, r.URL, locs...)
}

func (r *DocumentRelation) relation() (*DocumentRelation, error) {
	c := r.clone()
	c.Type = normalizeRelationType(c.Type)
	if err := c.Validate(); err != nil {
		return nil, invalid("relation", err)
	}
	return c, nil
}

// LinkSource is a LinkRecord or a TypedURI.
type LinkSource interface {
	link() (TypedURI, error)
}

// LinkRecord is the raw form of a TypedURI.
type LinkRecord struct {
	Type    string `mapstructure:"type"`
	Content string `mapstructure:"content"`
}

func (r LinkRecord) link() (TypedURI, error) {
	return TypedURI(r).link()
}

func (u TypedURI) link() (TypedURI, error) {
	u.Content = strings.TrimSpace(u.Content)
	if err := u.Validate(); err != nil {
		return TypedURI{}, invalid("uri", err)
	}
	return u, nil
}

// IcsSource is an IcsRecord or an Ics.
type IcsSource interface {
	ics() (Ics, error)
}

func (r IcsRecord) ics() (Ics, error) { return NewIcs(r) }

func (i Ics) ics() (Ics, error) {
	if err := i.Validate(); err != nil {
		return Ics{}, invalid("ics", err)
	}
	return i, nil
}

// WorkgroupSource is a WorkgroupRecord or an *IsoProjectGroup.
type WorkgroupSource interface {
	workgroup() (*IsoProjectGroup, error)
}

func (r WorkgroupRecord) workgroup() (*IsoProjectGroup, error) { return NewIsoProjectGroup(r) }

func (g *IsoProjectGroup) workgroup() (*IsoProjectGroup, error) {
	if err := g.Validate(); err != nil {
		return nil, invalid("workgroup", err)
	}
	return g.clone(), nil
}
