package bibitem

import (
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/FocuswithJustin/isobib/core/xml"
)

// Status is the publication status of a document: *DocumentStatus or
// *IsoDocumentStatus.
type Status interface {
	validation.Validatable
	statusElement() *xml.Element
	cloneStatus() Status
}

// DocumentStatus is a free-text status.
type DocumentStatus struct {
	Status LocalizedString
}

// Validate implements validation.Validatable.
func (s *DocumentStatus) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Status, validation.By(hasContent)),
	)
}

func hasContent(value interface{}) error {
	var content string
	switch v := value.(type) {
	case LocalizedString:
		content = v.Content
	case FormattedString:
		content = v.Content
	case *LocalizedString:
		if v != nil {
			content = v.Content
		}
	}
	if content == "" {
		return validation.ErrRequired
	}
	return nil
}

func (s *DocumentStatus) statusElement() *xml.Element {
	return s.Status.element("status")
}

func (s *DocumentStatus) cloneStatus() Status {
	return &DocumentStatus{Status: s.Status.clone()}
}

// IsoDocumentStatus is an ISO harmonized stage code such as 60.60. When a
// stage is present only the stage codes are rendered.
type IsoDocumentStatus struct {
	Status    string
	Stage     string
	Substage  string
	Iteration int
}

// StatusRecord is the raw form of an IsoDocumentStatus.
type StatusRecord struct {
	Status    string `mapstructure:"status"`
	Stage     string `mapstructure:"stage"`
	Substage  string `mapstructure:"substage"`
	Iteration int    `mapstructure:"iteration"`
}

// NewIsoDocumentStatus requires a status text or a stage. A substage is
// only valid with a stage.
func NewIsoDocumentStatus(r StatusRecord) (*IsoDocumentStatus, error) {
	s := &IsoDocumentStatus{Status: r.Status, Stage: r.Stage, Substage: r.Substage, Iteration: r.Iteration}
	if err := s.Validate(); err != nil {
		return nil, invalid("status", err)
	}
	return s, nil
}

// Validate implements validation.Validatable.
func (s *IsoDocumentStatus) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Status, validation.Required.When(s.Stage == "").Error("status or stage is required")),
		validation.Field(&s.Substage, validation.Empty.When(s.Stage == "").Error("substage requires stage")),
		validation.Field(&s.Iteration, validation.Min(0)),
	)
}

func (s *IsoDocumentStatus) statusElement() *xml.Element {
	el := xml.NewElement("status")
	if s.Stage == "" {
		return el.SetText(s.Status)
	}
	el.AddText("stage", s.Stage)
	el.AddOptionalText("substage", s.Substage)
	if s.Iteration > 0 {
		el.AddText("iteration", strconv.Itoa(s.Iteration))
	}
	return el
}

func (s *IsoDocumentStatus) cloneStatus() Status {
	c := *s
	return &c
}
