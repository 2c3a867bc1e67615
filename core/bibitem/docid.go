package bibitem

import (
	"regexp"
	"strings"

	"github.com/FocuswithJustin/isobib/core/xml"
)

// IEV is the International Electrotechnical Vocabulary identifier. It is
// kept whole and never decomposed.
const IEV = "IEV"

// DOI is the docidentifier type skipped when choosing the identifier for
// short references and id attributes.
const DOI = "DOI"

var (
	docIDPattern   = regexp.MustCompile(`^(.*?\d+)(?:(-)(\d*))?`)
	trailingYear   = regexp.MustCompile(`[-:]([12]\d{3})$`)
	dottedPart     = regexp.MustCompile(`^\.\d+`)
	yearOnly       = regexp.MustCompile(`^[12]\d{3}$`)
	allDigits      = regexp.MustCompile(`^\d+$`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// DocumentIdentifier is a document citation code such as
// "ISO 19115-1:2014", decomposed into project, part and year.
//
// String always returns project + "-" + part + suffix, so the literal
// round-trips through ParseDocID until RemovePart or RemoveDate is called.
type DocumentIdentifier struct {
	project string
	part    string
	hasPart bool
	suffix  string
	year    string
	prefix  string
	typ     string
}

// DocIDRecord is the raw form of a DocumentIdentifier. When ID is set it is
// decomposed; otherwise the literal is assembled from the other fields.
type DocIDRecord struct {
	ID            string `mapstructure:"id"`
	ProjectNumber string `mapstructure:"project_number"`
	PartNumber    string `mapstructure:"part_number"`
	Year          string `mapstructure:"year"`
	Prefix        string `mapstructure:"prefix"`
	Type          string `mapstructure:"type"`
}

// ParseDocID decomposes a literal identifier. Literals without a numeric
// project number are kept whole as the project, with no part.
func ParseDocID(literal, typ string) *DocumentIdentifier {
	d := &DocumentIdentifier{typ: typ}
	if literal == IEV {
		d.project = IEV
		return d
	}

	m := docIDPattern.FindStringSubmatch(literal)
	if m == nil {
		d.project = literal
		return d
	}
	d.project = m[1]
	d.hasPart = m[2] != ""
	d.part = m[3]
	d.suffix = literal[len(m[0]):]
	if y := trailingYear.FindStringSubmatch(d.suffix); y != nil {
		d.year = y[1]
	}
	return d
}

// NewDocID builds an identifier from a record.
func NewDocID(r DocIDRecord) *DocumentIdentifier {
	if r.ID != "" {
		d := ParseDocID(r.ID, r.Type)
		d.prefix = r.Prefix
		return d
	}

	project := r.ProjectNumber
	if r.Prefix != "" && allDigits.MatchString(project) {
		project = r.Prefix + " " + project
	}
	d := &DocumentIdentifier{
		project: project,
		part:    r.PartNumber,
		hasPart: r.PartNumber != "",
		year:    r.Year,
		prefix:  r.Prefix,
		typ:     r.Type,
	}
	if r.Year != "" {
		d.suffix = ":" + r.Year
	}
	return d
}

// String returns the literal identifier.
func (d *DocumentIdentifier) String() string {
	var b strings.Builder
	b.WriteString(d.project)
	if d.hasPart {
		b.WriteString("-")
		b.WriteString(d.part)
	}
	b.WriteString(d.suffix)
	return b.String()
}

// ID is an alias of String.
func (d *DocumentIdentifier) ID() string { return d.String() }

// Project returns the project portion, e.g. "ISO 19115".
func (d *DocumentIdentifier) Project() string { return d.project }

// Part returns the part number and whether the literal had a part segment.
func (d *DocumentIdentifier) Part() (string, bool) { return d.part, d.hasPart }

// Year returns the publication year carried by the literal, or "".
func (d *DocumentIdentifier) Year() string { return d.year }

// Prefix returns the publisher prefix given at construction.
func (d *DocumentIdentifier) Prefix() string { return d.prefix }

// Type returns the identifier type, e.g. "ISO" or "DOI".
func (d *DocumentIdentifier) Type() string { return d.typ }

// IsIEV reports whether this is the IEV special case.
func (d *DocumentIdentifier) IsIEV() bool { return d.project == IEV }

// RemovePart drops the part number from the identifier. A dotted part
// directly after the project ("GB 1.2-2014") is dropped as well.
func (d *DocumentIdentifier) RemovePart() {
	if d.hasPart {
		d.part = ""
		d.hasPart = false
		return
	}
	if loc := dottedPart.FindStringIndex(d.suffix); loc != nil {
		d.suffix = d.suffix[loc[1]:]
	}
}

// RemoveDate strips a trailing "-YYYY" or ":YYYY" and clears the year.
func (d *DocumentIdentifier) RemoveDate() {
	d.year = ""
	if loc := trailingYear.FindStringIndex(d.suffix); loc != nil {
		d.suffix = d.suffix[:loc[0]]
		return
	}
	// "GB 1-2014" decomposes with 2014 as the part.
	if d.hasPart && d.suffix == "" && yearOnly.MatchString(d.part) {
		d.part = ""
		d.hasPart = false
	}
}

// shortID is project[-part], with IEV kept verbatim.
func (d *DocumentIdentifier) shortID() string {
	if d.IsIEV() {
		return IEV
	}
	id := d.project
	if d.part != "" {
		id += "-" + d.part
	}
	return strings.TrimSpace(id)
}

func (d *DocumentIdentifier) element() *xml.Element {
	el := xml.NewElement("docidentifier")
	el.SetOptionalAttr("type", d.typ)
	return el.SetText(d.String())
}

func (d *DocumentIdentifier) clone() *DocumentIdentifier {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
