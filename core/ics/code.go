// Package ics parses International Classification for Standards codes and
// looks up their descriptions.
//
// A code has one to three dot-separated levels: a two-digit field, a
// three-digit group and a two-digit subgroup, for example "35", "35.240" or
// "35.240.70".
package ics

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	bierrors "github.com/FocuswithJustin/isobib/core/errors"
)

// Code is a parsed ICS code. Levels are kept as digit strings so leading
// zeros survive ("01.040").
type Code struct {
	Field    string `json:"field"`
	Group    string `json:"group,omitempty"`
	Subgroup string `json:"subgroup,omitempty"`
}

// codeGrammar is the participle grammar for ICS codes.
// Examples: "01", "01.040", "35.240.70"
//
//nolint:govet // participle grammar tags are not standard struct tags
type codeGrammar struct {
	Field string     `parser:"@Int"`
	Group *groupPart `parser:"( \".\" @@ )?"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type groupPart struct {
	Group    string  `parser:"@Int"`
	Subgroup *string `parser:"( \".\" @Int )?"`
}

var codeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `\.`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var codeParser = participle.MustBuild[codeGrammar](
	participle.Lexer(codeLexer),
	participle.Elide("Whitespace"),
)

// Parse parses a dotted ICS code.
func Parse(s string) (Code, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Code{}, bierrors.NewParse("ICS code", "", "empty code")
	}

	parsed, err := codeParser.ParseString("", s)
	if err != nil {
		return Code{}, &bierrors.ParseError{
			Format:  "ICS code",
			Message: fmt.Sprintf("%q is not a field.group.subgroup code", s),
			Err:     err,
		}
	}

	code := Code{Field: parsed.Field}
	if parsed.Group != nil {
		code.Group = parsed.Group.Group
		if parsed.Group.Subgroup != nil {
			code.Subgroup = *parsed.Group.Subgroup
		}
	}
	if err := code.check(); err != nil {
		return Code{}, bierrors.NewParse("ICS code", "", err.Error())
	}
	return code, nil
}

// New builds a code from its levels. Group and subgroup may be empty.
func New(field, group, subgroup string) (Code, error) {
	code := Code{Field: field, Group: group, Subgroup: subgroup}
	if err := code.check(); err != nil {
		return Code{}, &bierrors.ValidationError{Field: "ics", Message: err.Error()}
	}
	return code, nil
}

func (c Code) check() error {
	switch {
	case c.Field == "":
		return fmt.Errorf("field is required")
	case !digits(c.Field, 2):
		return fmt.Errorf("field %q must be two digits", c.Field)
	case c.Group == "" && c.Subgroup != "":
		return fmt.Errorf("subgroup %q without a group", c.Subgroup)
	case c.Group != "" && !digits(c.Group, 3):
		return fmt.Errorf("group %q must be three digits", c.Group)
	case c.Subgroup != "" && !digits(c.Subgroup, 2):
		return fmt.Errorf("subgroup %q must be two digits", c.Subgroup)
	}
	return nil
}

func digits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// String returns the dotted form of the code.
func (c Code) String() string {
	var sb strings.Builder
	sb.WriteString(c.Field)
	if c.Group != "" {
		sb.WriteString(".")
		sb.WriteString(c.Group)
		if c.Subgroup != "" {
			sb.WriteString(".")
			sb.WriteString(c.Subgroup)
		}
	}
	return sb.String()
}

// IsZero reports whether the code is unset.
func (c Code) IsZero() bool {
	return c == Code{}
}

// Parent returns the code one level up. A field has no parent.
func (c Code) Parent() (Code, bool) {
	switch {
	case c.Subgroup != "":
		return Code{Field: c.Field, Group: c.Group}, true
	case c.Group != "":
		return Code{Field: c.Field}, true
	}
	return Code{}, false
}

// Contains reports whether other lies at or below c in the hierarchy.
func (c Code) Contains(other Code) bool {
	if c.Field != other.Field {
		return false
	}
	if c.Group == "" {
		return true
	}
	if c.Group != other.Group {
		return false
	}
	return c.Subgroup == "" || c.Subgroup == other.Subgroup
}
