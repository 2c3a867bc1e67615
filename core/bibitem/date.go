package bibitem

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	bierrors "github.com/FocuswithJustin/isobib/core/errors"
	"github.com/FocuswithJustin/isobib/core/xml"
)

// Common date types. The set is open.
const (
	DatePublished = "published"
	DateAccessed  = "accessed"
	DateCreated   = "created"
	DateActivated = "activated"
)

var (
	yearPattern      = regexp.MustCompile(`^\d{4}$`)
	yearMonthPattern = regexp.MustCompile(`^(\d{4})-(\d{1,2})$`)
)

// DateValue is a year with an optional month. Month is 0 when unknown.
type DateValue struct {
	Year  int
	Month int
}

// ParseDateValue parses "YYYY" or "YYYY-MM". Any other complete date is
// accepted through dateparse and reduced to year and month.
func ParseDateValue(s string) (DateValue, error) {
	s = strings.TrimSpace(s)
	if yearPattern.MatchString(s) {
		y, _ := strconv.Atoi(s)
		return DateValue{Year: y}, nil
	}
	if m := yearMonthPattern.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		if mo < 1 || mo > 12 {
			return DateValue{}, bierrors.NewValidation("date", fmt.Sprintf("month out of range in %q", s))
		}
		return DateValue{Year: y, Month: mo}, nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return DateValue{}, &bierrors.ValidationError{Field: "date", Message: fmt.Sprintf("cannot parse %q", s), Err: err}
	}
	return DateValue{Year: t.Year(), Month: int(t.Month())}, nil
}

// Format renders the value as YYYY, or YYYY-MM when full is set and the
// month is known.
func (v DateValue) Format(full bool) string {
	if full && v.Month > 0 {
		return fmt.Sprintf("%04d-%02d", v.Year, v.Month)
	}
	return fmt.Sprintf("%04d", v.Year)
}

func (v DateValue) String() string { return v.Format(true) }

// BibliographicDate is a typed point in time or time range.
type BibliographicDate struct {
	Type string
	On   *DateValue
	From *DateValue
	To   *DateValue
}

// DateRecord is the raw form of a BibliographicDate.
type DateRecord struct {
	Type string `mapstructure:"type"`
	On   string `mapstructure:"on"`
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

// NewBibliographicDate parses a record. Exactly one of On and From must be
// given; To is only allowed with From.
func NewBibliographicDate(r DateRecord) (*BibliographicDate, error) {
	d := &BibliographicDate{Type: r.Type}
	var err error
	parse := func(s string) *DateValue {
		if s == "" || err != nil {
			return nil
		}
		v, perr := ParseDateValue(s)
		if perr != nil {
			err = perr
			return nil
		}
		return &v
	}
	d.On = parse(r.On)
	d.From = parse(r.From)
	d.To = parse(r.To)
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, invalid("date", err)
	}
	return d, nil
}

// Validate implements validation.Validatable.
func (d *BibliographicDate) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Type, validation.Required),
		validation.Field(&d.On, validation.By(d.exclusive)),
		validation.Field(&d.To, validation.When(d.To != nil, validation.By(d.toNeedsFrom))),
	)
}

func (d *BibliographicDate) exclusive(interface{}) error {
	switch {
	case d.On == nil && d.From == nil:
		return validation.NewError("validation_date_missing", "on or from is required")
	case d.On != nil && d.From != nil:
		return validation.NewError("validation_date_exclusive", "on and from are mutually exclusive")
	}
	return nil
}

func (d *BibliographicDate) toNeedsFrom(interface{}) error {
	if d.From == nil {
		return validation.NewError("validation_date_to", "to requires from")
	}
	return nil
}

// Start returns On, or From for a range.
func (d *BibliographicDate) Start() *DateValue {
	if d.On != nil {
		return d.On
	}
	return d.From
}

func (d *BibliographicDate) element(opts RenderOptions) *xml.Element {
	el := xml.NewElement("date")
	el.SetOptionalAttr("type", d.Type)
	value := func(v *DateValue) string {
		if opts.NoYear {
			return "--"
		}
		return v.Format(opts.FullDate)
	}
	if d.On != nil {
		el.AddText("on", value(d.On))
		return el
	}
	if d.From != nil {
		el.AddText("from", value(d.From))
	}
	if d.To != nil {
		el.AddText("to", value(d.To))
	}
	return el
}

func (d *BibliographicDate) clone() *BibliographicDate {
	return &BibliographicDate{
		Type: d.Type,
		On:   cloneDateValue(d.On),
		From: cloneDateValue(d.From),
		To:   cloneDateValue(d.To),
	}
}

func cloneDateValue(v *DateValue) *DateValue {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
