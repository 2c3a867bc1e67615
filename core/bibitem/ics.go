package bibitem

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	bierrors "github.com/FocuswithJustin/isobib/core/errors"
	"github.com/FocuswithJustin/isobib/core/ics"
	"github.com/FocuswithJustin/isobib/core/xml"
	"github.com/FocuswithJustin/isobib/internal/logging"
)

// Ics is an ICS classification of the document.
type Ics struct {
	Code        ics.Code
	Description string
}

// IcsRecord is the raw form of an Ics. Either Code ("35.240.70") or the
// numeric levels starting with Field must be given.
type IcsRecord struct {
	Code        string `mapstructure:"code"`
	Field       int    `mapstructure:"field"`
	Group       int    `mapstructure:"group"`
	Subgroup    int    `mapstructure:"subgroup"`
	Description string `mapstructure:"description"`
}

// NewIcs resolves a record. A description missing from the record is
// looked up in the ICS table.
func NewIcs(r IcsRecord) (Ics, error) {
	var (
		code ics.Code
		err  error
	)
	switch {
	case r.Code != "":
		code, err = ics.Parse(r.Code)
	case r.Field > 0:
		code, err = ics.New(pad(r.Field, 2), pad(r.Group, 3), pad(r.Subgroup, 2))
	default:
		err = bierrors.NewValidation("ics", "code or field is required")
	}
	if err != nil {
		return Ics{}, err
	}

	i := Ics{Code: code, Description: r.Description}
	if i.Description == "" {
		if d, ok := ics.Lookup(code); ok {
			i.Description = d
		} else {
			logging.Debug("no ICS description", "code", code.String())
		}
	}
	return i, nil
}

func pad(n, width int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("%0*d", width, n)
}

// Validate implements validation.Validatable.
func (i Ics) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Code, validation.By(func(interface{}) error {
			if i.Code.IsZero() {
				return validation.ErrRequired
			}
			return nil
		})),
	)
}

func (i Ics) element() *xml.Element {
	el := xml.NewElement("ics")
	el.AddText("code", i.Code.String())
	el.AddOptionalText("text", i.Description)
	return el
}
