package bibitem

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	bierrors "github.com/FocuswithJustin/isobib/core/errors"
	"github.com/FocuswithJustin/isobib/core/xml"
)

// CopyrightAssociation records who holds the copyright and since when.
// To is 0 for an open-ended period.
type CopyrightAssociation struct {
	Owner ContributionInfo
	From  int
	To    int
}

// CopyrightRecord is the raw form of a CopyrightAssociation. Owner is an
// organization; From is a year and To any date dateparse understands.
type CopyrightRecord struct {
	Owner OrganizationRecord `mapstructure:"owner"`
	From  string             `mapstructure:"from"`
	To    string             `mapstructure:"to"`
}

// NewCopyright builds a copyright association from a record.
func NewCopyright(r CopyrightRecord) (*CopyrightAssociation, error) {
	org, err := r.Owner.organization()
	if err != nil {
		return nil, bierrors.Wrap(err, "copyright owner")
	}
	c := &CopyrightAssociation{Owner: ContributionInfo{Entity: org}}
	if c.From, err = parseYear(r.From); err != nil {
		return nil, bierrors.Wrap(err, "copyright from")
	}
	if r.To != "" {
		if c.To, err = parseYear(r.To); err != nil {
			return nil, bierrors.Wrap(err, "copyright to")
		}
	}
	if err := c.Validate(); err != nil {
		return nil, invalid("copyright", err)
	}
	return c, nil
}

func parseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if yearPattern.MatchString(s) {
		return strconv.Atoi(s)
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return 0, &bierrors.ValidationError{Field: "year", Message: fmt.Sprintf("cannot parse %q", s), Err: err}
	}
	return t.Year(), nil
}

// Validate implements validation.Validatable.
func (c *CopyrightAssociation) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Owner, validation.By(ownerPresent), validation.Skip),
		validation.Field(&c.From, validation.Required),
		validation.Field(&c.To, validation.When(c.To != 0, validation.Min(c.From))),
	)
}

// The owner needs an entity but, unlike an item contributor, no roles.
func ownerPresent(value interface{}) error {
	owner, _ := value.(ContributionInfo)
	if owner.Entity == nil {
		return validation.NewError("validation_owner_required", "owner is required")
	}
	return owner.Entity.Validate()
}

func (c *CopyrightAssociation) element() *xml.Element {
	el := xml.NewElement("copyright")
	el.AddText("from", strconv.Itoa(c.From))
	if c.To != 0 {
		el.AddText("to", strconv.Itoa(c.To))
	}
	owner := el.AddElement("owner")
	if c.Owner.Entity != nil {
		owner.Append(c.Owner.Entity.element())
	}
	return el
}

func (c *CopyrightAssociation) clone() *CopyrightAssociation {
	if c == nil {
		return nil
	}
	return &CopyrightAssociation{Owner: c.Owner.clone(), From: c.From, To: c.To}
}
