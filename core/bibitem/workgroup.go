package bibitem

import (
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/FocuswithJustin/isobib/core/xml"
)

// IsoSubgroup is a technical committee, subcommittee or working group.
// Number is 0 when unknown.
type IsoSubgroup struct {
	Name   string
	Type   string
	Number int
}

// Validate implements validation.Validatable.
func (g IsoSubgroup) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.Name, validation.Required),
		validation.Field(&g.Number, validation.Min(0)),
	)
}

func (g IsoSubgroup) element(name string) *xml.Element {
	el := xml.NewElement(name)
	if g.Number > 0 {
		el.SetAttr("number", strconv.Itoa(g.Number))
	}
	el.SetOptionalAttr("type", g.Type)
	return el.SetText(g.Name)
}

// IsoProjectGroup is the committee structure responsible for a document.
// It is an Organization and can stand as a contributor entity; only the
// committee structure is rendered as the item's editorial group.
type IsoProjectGroup struct {
	Organization
	TechnicalCommittee IsoSubgroup
	Subcommittee       *IsoSubgroup
	Workgroup          *IsoSubgroup
	Secretariat        string
}

// WorkgroupRecord is the raw form of an IsoProjectGroup.
type WorkgroupRecord struct {
	Name               string       `mapstructure:"name"`
	URL                string       `mapstructure:"url"`
	TechnicalCommittee IsoSubgroup  `mapstructure:"technical_committee"`
	Subcommittee       *IsoSubgroup `mapstructure:"subcommittee"`
	Workgroup          *IsoSubgroup `mapstructure:"workgroup"`
	Secretariat        string       `mapstructure:"secretariat"`
}

// NewIsoProjectGroup requires a named technical committee.
func NewIsoProjectGroup(r WorkgroupRecord) (*IsoProjectGroup, error) {
	g := &IsoProjectGroup{
		TechnicalCommittee: r.TechnicalCommittee,
		Subcommittee:       r.Subcommittee,
		Workgroup:          r.Workgroup,
		Secretariat:        r.Secretariat,
	}
	g.URL = r.URL
	if r.Name != "" {
		g.Names = []LocalizedString{{Content: r.Name}}
	}
	if err := g.Validate(); err != nil {
		return nil, invalid("workgroup", err)
	}
	return g, nil
}

// Validate implements validation.Validatable. The organization name is
// optional here because the editorial group does not render it.
func (g *IsoProjectGroup) Validate() error {
	return validation.ValidateStruct(g,
		validation.Field(&g.TechnicalCommittee),
		validation.Field(&g.Subcommittee),
		validation.Field(&g.Workgroup),
		validation.Field(&g.URL, validation.By(isURI)),
	)
}

func (g *IsoProjectGroup) editorialGroup() *xml.Element {
	el := xml.NewElement("editorialgroup")
	el.Append(g.TechnicalCommittee.element("technical_committee"))
	if g.Subcommittee != nil {
		el.Append(g.Subcommittee.element("subcommittee"))
	}
	if g.Workgroup != nil {
		el.Append(g.Workgroup.element("workgroup"))
	}
	el.AddOptionalText("secretariat", g.Secretariat)
	return el
}

func (g *IsoProjectGroup) clone() *IsoProjectGroup {
	if g == nil {
		return nil
	}
	c := &IsoProjectGroup{
		TechnicalCommittee: g.TechnicalCommittee,
		Secretariat:        g.Secretariat,
	}
	c.Organization = *g.Organization.clone()
	if g.Subcommittee != nil {
		sc := *g.Subcommittee
		c.Subcommittee = &sc
	}
	if g.Workgroup != nil {
		wg := *g.Workgroup
		c.Workgroup = &wg
	}
	return c
}

func (g *IsoProjectGroup) cloneContributor() Contributor { return g.clone() }
