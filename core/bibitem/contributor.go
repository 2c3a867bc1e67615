package bibitem

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	bierrors "github.com/FocuswithJustin/isobib/core/errors"
	"github.com/FocuswithJustin/isobib/core/xml"
)

// Contributor is an organization or a person taking part in a document.
// The set of implementations is closed: *Organization, *Person and
// *IsoProjectGroup.
type Contributor interface {
	validation.Validatable
	// URI returns the contributor's web address, or "".
	URI() string
	// ContactMethods returns the contributor's addresses and contacts.
	ContactMethods() []ContactMethod

	element() *xml.Element
	cloneContributor() Contributor
}

// Organization is a named body such as a standards organization.
type Organization struct {
	// Names holds one entry per language/script variant. At least one is
	// required.
	Names        []LocalizedString
	Abbreviation LocalizedString
	URL          string
	Identifiers  []OrgIdentifier
	Contacts     []ContactMethod
}

// NewOrganization builds a validated organization with a single name.
func NewOrganization(name, abbreviation, url string) (*Organization, error) {
	o := &Organization{
		Names:        []LocalizedString{{Content: name}},
		Abbreviation: LocalizedString{Content: abbreviation},
		URL:          url,
	}
	if err := o.Validate(); err != nil {
		return nil, invalid("organization", err)
	}
	return o, nil
}

// Name returns the first name of the organization.
func (o *Organization) Name() string {
	if len(o.Names) == 0 {
		return ""
	}
	return o.Names[0].Content
}

// URI implements Contributor.
func (o *Organization) URI() string { return o.URL }

// ContactMethods implements Contributor.
func (o *Organization) ContactMethods() []ContactMethod { return o.Contacts }

// Validate implements validation.Validatable.
func (o *Organization) Validate() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.Names, validation.Required, validation.Each(validation.By(nonBlankName))),
		validation.Field(&o.URL, validation.By(isURI)),
		validation.Field(&o.Contacts, validation.Each(validation.By(noURIContact))),
	)
}

func nonBlankName(value interface{}) error {
	if s, ok := value.(LocalizedString); ok && s.Content == "" {
		return validation.NewError("validation_name_blank", "name cannot be blank")
	}
	return nil
}

// Organizations carry their web address in URL; a uri contact would render
// a second <uri> element.
func noURIContact(value interface{}) error {
	if c, ok := value.(*Contact); ok && c.Type == ContactURI {
		return validation.NewError("validation_org_uri_contact", "organization web address belongs in URL")
	}
	return nil
}

func (o *Organization) element() *xml.Element {
	el := xml.NewElement("organization")
	o.renderBody(el)
	return el
}

func (o *Organization) renderBody(el *xml.Element) {
	for _, n := range o.Names {
		el.Append(n.element("name"))
	}
	if o.Abbreviation.Content != "" {
		el.Append(o.Abbreviation.element("abbreviation"))
	}
	el.AddOptionalText("uri", o.URL)
	for _, id := range o.Identifiers {
		el.Append(id.element())
	}
	for _, c := range o.Contacts {
		el.Append(c.contactElement())
	}
}

func (o *Organization) clone() *Organization {
	if o == nil {
		return nil
	}
	c := &Organization{
		Abbreviation: o.Abbreviation.clone(),
		URL:          o.URL,
		Identifiers:  append([]OrgIdentifier(nil), o.Identifiers...),
		Contacts:     cloneContacts(o.Contacts),
	}
	if o.Names != nil {
		c.Names = make([]LocalizedString, len(o.Names))
		for i, n := range o.Names {
			c.Names[i] = n.clone()
		}
	}
	return c
}

func (o *Organization) cloneContributor() Contributor { return o.clone() }

// FullName is either a complete name or its decomposition into prefix,
// initials, additions, surname and forenames.
type FullName struct {
	Completename *LocalizedString
	Prefix       []LocalizedString
	Initials     []LocalizedString
	Additions    []LocalizedString
	Surname      *LocalizedString
	Forenames    []LocalizedString
}

// NewFullName validates that a surname or a complete name is present.
func NewFullName(n FullName) (FullName, error) {
	if err := n.Validate(); err != nil {
		return FullName{}, invalid("name", err)
	}
	return n, nil
}

// Validate implements validation.Validatable.
func (n FullName) Validate() error {
	if n.Completename == nil && n.Surname == nil {
		return validation.NewError("validation_name_required", "surname or completename is required")
	}
	return nil
}

func (n FullName) element() *xml.Element {
	el := xml.NewElement("name")
	if n.Completename != nil {
		el.Append(n.Completename.element("completename"))
		return el
	}
	for _, p := range n.Prefix {
		el.Append(p.element("prefix"))
	}
	for _, i := range n.Initials {
		el.Append(i.element("initial"))
	}
	for _, a := range n.Additions {
		el.Append(a.element("addition"))
	}
	if n.Surname != nil {
		el.Append(n.Surname.element("surname"))
	}
	for _, f := range n.Forenames {
		el.Append(f.element("forename"))
	}
	return el
}

func (n FullName) clone() FullName {
	c := FullName{
		Prefix:    cloneLocalized(n.Prefix),
		Initials:  cloneLocalized(n.Initials),
		Additions: cloneLocalized(n.Additions),
		Forenames: cloneLocalized(n.Forenames),
	}
	if n.Completename != nil {
		v := n.Completename.clone()
		c.Completename = &v
	}
	if n.Surname != nil {
		v := n.Surname.clone()
		c.Surname = &v
	}
	return c
}

// Affiliation ties a person to an organization.
type Affiliation struct {
	Organization *Organization
}

// Validate implements validation.Validatable.
func (a Affiliation) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Organization, validation.NotNil),
	)
}

func (a Affiliation) element() *xml.Element {
	el := xml.NewElement("affiliation")
	if a.Organization != nil {
		el.Append(a.Organization.element())
	}
	return el
}

// Person is an individual contributor.
type Person struct {
	Name         FullName
	Affiliations []Affiliation
	Identifiers  []PersonIdentifier
	Contacts     []ContactMethod
}

// NewPerson builds a validated person.
func NewPerson(name FullName, affiliations []Affiliation, contacts []ContactMethod) (*Person, error) {
	p := &Person{Name: name, Affiliations: affiliations, Contacts: contacts}
	if err := p.Validate(); err != nil {
		return nil, invalid("person", err)
	}
	return p, nil
}

// URI returns the value of the first uri contact.
func (p *Person) URI() string {
	for _, c := range p.Contacts {
		if ct, ok := c.(*Contact); ok && ct.Type == ContactURI {
			return ct.Value
		}
	}
	return ""
}

// ContactMethods implements Contributor.
func (p *Person) ContactMethods() []ContactMethod { return p.Contacts }

// Validate implements validation.Validatable.
func (p *Person) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Name),
		validation.Field(&p.Affiliations),
		validation.Field(&p.Contacts),
	)
}

func (p *Person) element() *xml.Element {
	el := xml.NewElement("person")
	el.Append(p.Name.element())
	for _, a := range p.Affiliations {
		el.Append(a.element())
	}
	for _, id := range p.Identifiers {
		el.Append(id.element())
	}
	for _, c := range p.Contacts {
		el.Append(c.contactElement())
	}
	return el
}

func (p *Person) cloneContributor() Contributor {
	c := &Person{
		Name:        p.Name.clone(),
		Identifiers: append([]PersonIdentifier(nil), p.Identifiers...),
		Contacts:    cloneContacts(p.Contacts),
	}
	if p.Affiliations != nil {
		c.Affiliations = make([]Affiliation, len(p.Affiliations))
		for i, a := range p.Affiliations {
			c.Affiliations[i] = Affiliation{Organization: a.Organization.clone()}
		}
	}
	return c
}

// ContributorRole is what a contributor did: author, publisher, ...
type ContributorRole struct {
	Type        string
	Description []string
}

// Validate implements validation.Validatable.
func (r ContributorRole) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required),
	)
}

func (r ContributorRole) element() *xml.Element {
	el := xml.NewElement("role")
	el.SetAttr("type", r.Type)
	for _, d := range r.Description {
		el.AddText("description", d)
	}
	return el
}

// ContributionInfo pairs a contributor with its roles.
type ContributionInfo struct {
	Entity Contributor
	Roles  []ContributorRole
}

// NewContributionInfo builds a contribution and requires at least one role.
func NewContributionInfo(entity Contributor, roles ...ContributorRole) (ContributionInfo, error) {
	c := ContributionInfo{Entity: entity, Roles: roles}
	if err := c.Validate(); err != nil {
		return ContributionInfo{}, invalid("contributor", err)
	}
	return c, nil
}

// Validate implements validation.Validatable.
func (c ContributionInfo) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Entity, validation.Required),
		validation.Field(&c.Roles, validation.Required),
	)
}

// HasRole reports whether any role has type t.
func (c ContributionInfo) HasRole(t string) bool {
	for _, r := range c.Roles {
		if r.Type == t {
			return true
		}
	}
	return false
}

func (c ContributionInfo) element() *xml.Element {
	el := xml.NewElement("contributor")
	for _, r := range c.Roles {
		el.Append(r.element())
	}
	if c.Entity != nil {
		el.Append(c.Entity.element())
	}
	return el
}

func (c ContributionInfo) clone() ContributionInfo {
	out := ContributionInfo{}
	if c.Entity != nil {
		out.Entity = c.Entity.cloneContributor()
	}
	if c.Roles != nil {
		out.Roles = make([]ContributorRole, len(c.Roles))
		for i, r := range c.Roles {
			out.Roles[i] = ContributorRole{Type: r.Type, Description: cloneStrings(r.Description)}
		}
	}
	return out
}

func cloneLocalized(in []LocalizedString) []LocalizedString {
	if in == nil {
		return nil
	}
	out := make([]LocalizedString, len(in))
	for i, s := range in {
		out[i] = s.clone()
	}
	return out
}

// invalid converts a rule failure into a ValidationError for entity.
func invalid(entity string, err error) error {
	if err == nil {
		return nil
	}
	var ve *bierrors.ValidationError
	if bierrors.As(err, &ve) {
		return err
	}
	return &bierrors.ValidationError{Field: entity, Message: err.Error(), Err: err}
}
