package bibitem

import (
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/FocuswithJustin/isobib/core/xml"
)

// LocalizedString is text tagged with the languages and scripts it is
// written in.
type LocalizedString struct {
	Content  string
	Language []string
	Script   []string
}

// NewLocalizedString returns content tagged with a single language. An
// empty language leaves the tag list empty.
func NewLocalizedString(content, language string) LocalizedString {
	s := LocalizedString{Content: content}
	if language != "" {
		s.Language = []string{language}
	}
	return s
}

// HasLanguage reports whether lang is one of the string's languages.
func (s LocalizedString) HasLanguage(lang string) bool {
	for _, l := range s.Language {
		if l == lang {
			return true
		}
	}
	return false
}

// IsZero reports whether the string carries neither text nor tags.
func (s LocalizedString) IsZero() bool {
	return s.Content == "" && len(s.Language) == 0 && len(s.Script) == 0
}

func (s LocalizedString) String() string {
	return s.Content
}

func (s LocalizedString) clone() LocalizedString {
	return LocalizedString{
		Content:  s.Content,
		Language: cloneStrings(s.Language),
		Script:   cloneStrings(s.Script),
	}
}

// renderInto writes the language/script attributes and the text onto el.
func (s LocalizedString) renderInto(el *xml.Element) *xml.Element {
	el.SetOptionalAttr("language", strings.Join(s.Language, ","))
	el.SetOptionalAttr("script", strings.Join(s.Script, ","))
	if s.Content != "" {
		el.SetText(s.Content)
	}
	return el
}

func (s LocalizedString) element(name string) *xml.Element {
	return s.renderInto(xml.NewElement(name))
}

// FormattedString is a LocalizedString with a MIME format such as
// "text/plain".
type FormattedString struct {
	LocalizedString
	Format string
}

func (s FormattedString) clone() FormattedString {
	return FormattedString{LocalizedString: s.LocalizedString.clone(), Format: s.Format}
}

func (s FormattedString) element(name string) *xml.Element {
	el := s.LocalizedString.renderInto(xml.NewElement(name))
	el.SetOptionalAttr("format", s.Format)
	return el
}

// TypedURI is a link to a rendition of the document. Type is an open set
// (src, obp, rss, ...).
type TypedURI struct {
	Type    string
	Content string
}

// Validate implements validation.Validatable.
func (u TypedURI) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Content, validation.Required, validation.By(isURI)),
	)
}

func (u TypedURI) element() *xml.Element {
	el := xml.NewElement("uri")
	el.SetOptionalAttr("type", u.Type)
	return el.SetText(u.Content)
}

func isURI(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := url.Parse(s); err != nil {
		return validation.NewError("validation_is_uri", "must be a valid URI")
	}
	return nil
}

// OrgIdentifier identifies an organization in an external registry.
type OrgIdentifier struct {
	Type  string
	Value string
}

func (i OrgIdentifier) element() *xml.Element {
	el := xml.NewElement("identifier")
	el.SetOptionalAttr("type", i.Type)
	return el.SetText(i.Value)
}

// PersonIdentifier identifies a person, e.g. by ISNI or ORCID.
type PersonIdentifier struct {
	Type  string
	Value string
}

func (i PersonIdentifier) element() *xml.Element {
	el := xml.NewElement("identifier")
	el.SetOptionalAttr("type", i.Type)
	return el.SetText(i.Value)
}

// ContactMethod is either an Address or a Contact.
type ContactMethod interface {
	validation.Validatable
	contactElement() *xml.Element
	cloneContact() ContactMethod
}

// Contact types accepted by Contact.
const (
	ContactPhone = "phone"
	ContactEmail = "email"
	ContactURI   = "uri"
)

// Address is a postal address.
type Address struct {
	Street   []string
	City     string
	State    string
	Country  string
	Postcode string
}

// Validate implements validation.Validatable.
func (a *Address) Validate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.City, validation.Required),
		validation.Field(&a.Country, validation.Required),
	)
}

func (a *Address) contactElement() *xml.Element {
	el := xml.NewElement("address")
	for _, s := range a.Street {
		el.AddText("street", s)
	}
	el.AddOptionalText("city", a.City)
	el.AddOptionalText("state", a.State)
	el.AddOptionalText("country", a.Country)
	el.AddOptionalText("postcode", a.Postcode)
	return el
}

func (a *Address) cloneContact() ContactMethod {
	c := *a
	c.Street = cloneStrings(a.Street)
	return &c
}

// Contact is a single phone number, email address or web address.
type Contact struct {
	Type  string
	Value string
}

// Validate implements validation.Validatable.
func (c *Contact) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Type, validation.Required, validation.In(ContactPhone, ContactEmail, ContactURI)),
		validation.Field(&c.Value, validation.Required),
	)
}

func (c *Contact) contactElement() *xml.Element {
	return xml.NewElement(c.Type).SetText(c.Value)
}

func (c *Contact) cloneContact() ContactMethod {
	cp := *c
	return &cp
}

func cloneContacts(in []ContactMethod) []ContactMethod {
	if in == nil {
		return nil
	}
	out := make([]ContactMethod, len(in))
	for i, c := range in {
		out[i] = c.cloneContact()
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
