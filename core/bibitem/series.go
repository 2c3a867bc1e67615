package bibitem

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/FocuswithJustin/isobib/core/xml"
)

// Series types. An empty type is also accepted.
const (
	SeriesMain = "main"
	SeriesAlt  = "alt"
)

// Series is a publication series the document belongs to.
type Series struct {
	Type         string
	Title        FormattedString
	Place        string
	Organization string
	Abbreviation *LocalizedString
	From         string
	To           string
	Number       string
	PartNumber   string
}

// NewSeries validates s. A title is required and the type must be empty,
// "main" or "alt".
func NewSeries(s Series) (Series, error) {
	if err := s.Validate(); err != nil {
		return Series{}, invalid("series", err)
	}
	return s, nil
}

// Validate implements validation.Validatable.
func (s Series) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Type, validation.In(SeriesMain, SeriesAlt)),
		validation.Field(&s.Title, validation.By(hasContent)),
	)
}

func (s Series) element() *xml.Element {
	el := xml.NewElement("series")
	el.SetOptionalAttr("type", s.Type)
	el.Append(s.Title.element("title"))
	el.AddOptionalText("place", s.Place)
	el.AddOptionalText("organization", s.Organization)
	if s.Abbreviation != nil {
		el.Append(s.Abbreviation.element("abbreviation"))
	}
	el.AddOptionalText("from", s.From)
	el.AddOptionalText("to", s.To)
	el.AddOptionalText("number", s.Number)
	el.AddOptionalText("partnumber", s.PartNumber)
	return el
}

func (s Series) clone() Series {
	c := s
	c.Title = s.Title.clone()
	if s.Abbreviation != nil {
		a := s.Abbreviation.clone()
		c.Abbreviation = &a
	}
	return c
}
