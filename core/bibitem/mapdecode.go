package bibitem

import (
	"reflect"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"

	bierrors "github.com/FocuswithJustin/isobib/core/errors"
)

// itemMap is the plain-map shape accepted by NewFromMap. Keys follow the
// snake_case names used by registry exports.
type itemMap struct {
	ID           string           `mapstructure:"id"`
	Type         string           `mapstructure:"type"`
	Fetched      string           `mapstructure:"fetched"`
	Titles       []TitleRecord    `mapstructure:"titles"`
	DocID        []DocIDRecord    `mapstructure:"docid"`
	Dates        []DateRecord     `mapstructure:"dates"`
	Contributors []contributorMap `mapstructure:"contributors"`
	Edition      string           `mapstructure:"edition"`
	Language     []string         `mapstructure:"language"`
	Script       []string         `mapstructure:"script"`
	Abstract     []stringMap      `mapstructure:"abstract"`
	DocStatus    *StatusRecord    `mapstructure:"docstatus"`
	Copyright    *CopyrightRecord `mapstructure:"copyright"`
	Relations    []RelationRecord `mapstructure:"relations"`
	Series       []seriesMap      `mapstructure:"series"`
	Link         []LinkRecord     `mapstructure:"link"`
	Ics          []IcsRecord      `mapstructure:"ics"`
	Workgroup    *WorkgroupRecord `mapstructure:"workgroup"`
	Notes        []stringMap      `mapstructure:"notes"`
}

type contributorMap struct {
	Entity map[string]interface{} `mapstructure:"entity"`
	Roles  []ContributorRole      `mapstructure:"roles"`
}

type stringMap struct {
	Content  string   `mapstructure:"content"`
	Language []string `mapstructure:"language"`
	Script   []string `mapstructure:"script"`
	Format   string   `mapstructure:"format"`
}

func (m stringMap) formatted() FormattedString {
	return FormattedString{
		LocalizedString: LocalizedString{Content: m.Content, Language: m.Language, Script: m.Script},
		Format:          m.Format,
	}
}

type seriesMap struct {
	Type         string     `mapstructure:"type"`
	Title        stringMap  `mapstructure:"title"`
	Place        string     `mapstructure:"place"`
	Organization string     `mapstructure:"organization"`
	Abbreviation *stringMap `mapstructure:"abbreviation"`
	From         string     `mapstructure:"from"`
	To           string     `mapstructure:"to"`
	Number       string     `mapstructure:"number"`
	PartNumber   string     `mapstructure:"part_number"`
}

var (
	roleType      = reflect.TypeOf(ContributorRole{})
	docIDType     = reflect.TypeOf(DocIDRecord{})
	titleType     = reflect.TypeOf(TitleRecord{})
	stringMapType = reflect.TypeOf(stringMap{})
)

// scalarHook lets plain strings stand for records: a role type, a literal
// docidentifier, a full title text or an untagged string.
func scalarHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	s := data.(string)
	switch to {
	case roleType:
		return ContributorRole{Type: s}, nil
	case docIDType:
		return DocIDRecord{ID: s}, nil
	case titleType:
		return TitleRecord{Text: s}, nil
	case stringMapType:
		return stringMap{Content: s}, nil
	}
	return data, nil
}

func decodeMap(input interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       scalarHook,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// NewFromMap builds an item from nested plain maps such as decoded JSON or
// YAML. A single value is accepted where a list is expected, and a string
// may stand for a role, docidentifier, title, abstract or note.
func NewFromMap(m map[string]interface{}) (*IsoBibliographicItem, error) {
	var im itemMap
	if err := decodeMap(m, &im); err != nil {
		return nil, &bierrors.ValidationError{Field: "item map", Message: err.Error(), Err: err}
	}

	args := ItemArgs{
		ID:       im.ID,
		Type:     im.Type,
		Fetched:  im.Fetched,
		Edition:  im.Edition,
		Language: im.Language,
		Script:   im.Script,
	}
	for _, t := range im.Titles {
		args.Titles = append(args.Titles, t)
	}
	for _, d := range im.DocID {
		args.DocIDs = append(args.DocIDs, d)
	}
	for _, d := range im.Dates {
		args.Dates = append(args.Dates, d)
	}
	var result *multierror.Error
	for i, c := range im.Contributors {
		e, err := entityFromMap(c.Entity)
		if err != nil {
			result = multierror.Append(result, bierrors.Wrapf(err, "contributors[%d]", i))
			continue
		}
		args.Contributors = append(args.Contributors, ContributionRecord{Entity: e, Roles: c.Roles})
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	for _, a := range im.Abstract {
		args.Abstracts = append(args.Abstracts, a.formatted())
	}
	for _, n := range im.Notes {
		args.Notes = append(args.Notes, n.formatted())
	}
	if im.DocStatus != nil {
		args.Status = *im.DocStatus
	}
	if im.Copyright != nil {
		args.Copyright = *im.Copyright
	}
	for _, r := range im.Relations {
		args.Relations = append(args.Relations, r)
	}
	for _, s := range im.Series {
		series := Series{
			Type:         s.Type,
			Title:        s.Title.formatted(),
			Place:        s.Place,
			Organization: s.Organization,
			From:         s.From,
			To:           s.To,
			Number:       s.Number,
			PartNumber:   s.PartNumber,
		}
		if s.Abbreviation != nil {
			a := s.Abbreviation.formatted().LocalizedString
			series.Abbreviation = &a
		}
		args.Series = append(args.Series, series)
	}
	for _, l := range im.Link {
		args.Links = append(args.Links, l)
	}
	for _, i := range im.Ics {
		args.Ics = append(args.Ics, i)
	}
	if im.Workgroup != nil {
		args.Workgroup = *im.Workgroup
	}
	return NewIsoBibliographicItem(args)
}

// entityFromMap picks a person when the map names one and an organization
// otherwise.
func entityFromMap(m map[string]interface{}) (EntitySource, error) {
	if m == nil {
		return nil, bierrors.NewValidation("contributor", "entity is required")
	}
	_, complete := m["completename"]
	_, surname := m["surname"]
	if complete || surname {
		var p PersonRecord
		if err := decodeMap(m, &p); err != nil {
			return nil, &bierrors.ValidationError{Field: "person", Message: err.Error(), Err: err}
		}
		return p, nil
	}
	var o OrganizationRecord
	if err := decodeMap(m, &o); err != nil {
		return nil, &bierrors.ValidationError{Field: "organization", Message: err.Error(), Err: err}
	}
	return o, nil
}
