package bibitem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	bierrors "github.com/FocuswithJustin/isobib/core/errors"
)

const itemYAML = `
id: ISO19115-1-2014
type: international-standard
fetched: "2019-01-02"
titles:
  - text: "Geographic information -- Metadata -- Part 1: Fundamentals"
    language: en
    script: Latn
  - title_main: Métadonnées
    title_part: "Partie 1: Principes de base"
    language: fr
docid: ISO 19115-1:2014
dates:
  type: published
  on: 2014
contributors:
  - entity:
      name: International Organization for Standardization
      abbreviation: ISO
      url: www.iso.org
    roles: publisher
  - entity:
      completename: John Smith
      language: en
      affiliations:
        - name: Example Corp
    roles:
      - type: author
        description: [Chair]
edition: 1
language: [en, fr]
script: Latn
abstract: Defines the schema for metadata.
docstatus:
  stage: "60"
  substage: "60"
copyright:
  owner:
    name: ISO
  from: 2014
relations:
  - type: updates
    identifier: ISO 19115:2003
    localities:
      - type: section
        reference_from: "1"
  - type: Now withdrawn
    identifier: ISO 19115:2003/Cor 1:2006
series:
  type: main
  title: ISO/IEC FDIS 10118-3
  place: Geneva
link:
  type: src
  content: https://www.iso.org/standard/53798.html
ics:
  field: 35
  group: 240
  subgroup: 70
workgroup:
  technical_committee:
    name: Geographic information/Geomatics
    type: TC
    number: 211
  secretariat: SAC
`

func decodeYAML(t *testing.T, src string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(src), &m))
	return m
}

func TestNewFromMap(t *testing.T) {
	it, err := NewFromMap(decodeYAML(t, itemYAML))
	require.NoError(t, err)

	assert.Equal(t, "international-standard", it.Type)
	require.Len(t, it.Titles, 2)
	assert.Equal(t, "Part 1: Fundamentals", it.Titles[0].TitlePart)
	assert.Equal(t, "Métadonnées -- Partie 1: Principes de base", it.Titles[1].String())

	require.Len(t, it.DocIdentifiers, 1)
	assert.Equal(t, "ISO 19115-1:2014", it.DocIdentifiers[0].String())
	year, ok := it.PublishedYear()
	require.True(t, ok)
	assert.Equal(t, 2014, year)

	require.Len(t, it.Contributors, 2)
	assert.True(t, it.Contributors[0].HasRole("publisher"))
	org, ok := it.Contributors[0].Entity.(*Organization)
	require.True(t, ok)
	assert.Equal(t, "ISO", org.Abbreviation.Content)
	person, ok := it.Contributors[1].Entity.(*Person)
	require.True(t, ok)
	assert.Equal(t, "John Smith", person.Name.Completename.Content)
	assert.Equal(t, "Example Corp", person.Affiliations[0].Organization.Name())
	assert.Equal(t, []string{"Chair"}, it.Contributors[1].Roles[0].Description)

	assert.Equal(t, "1", it.Edition)
	assert.Equal(t, []string{"en", "fr"}, it.Language)
	assert.Equal(t, []string{"Latn"}, it.Script)
	require.Len(t, it.Abstracts, 1)
	assert.Equal(t, "Defines the schema for metadata.", it.Abstracts[0].Content)

	status, ok := it.Status.(*IsoDocumentStatus)
	require.True(t, ok)
	assert.Equal(t, "60", status.Stage)
	require.NotNil(t, it.Copyright)
	assert.Equal(t, 2014, it.Copyright.From)

	rels := it.Relations.All()
	require.Len(t, rels, 2)
	assert.Equal(t, "1", rels[0].Localities[0].ReferenceFrom.Content)
	assert.Equal(t, RelationObsoletes, rels[1].Type)

	require.Len(t, it.Series, 1)
	assert.Equal(t, "ISO/IEC FDIS 10118-3", it.Series[0].Title.Content)
	u, ok := it.URL("src")
	require.True(t, ok)
	assert.Equal(t, "https://www.iso.org/standard/53798.html", u)
	require.Len(t, it.Ics, 1)
	assert.Equal(t, "35.240.70", it.Ics[0].Code.String())
	require.NotNil(t, it.Workgroup)
	assert.Equal(t, 211, it.Workgroup.TechnicalCommittee.Number)

	assert.Equal(t, "ISO19115-1-2014", it.IDAttribute())
	assert.Equal(t, "ISO 19115-1:2014", it.Shortref(nil, ShortrefOptions{}))
	assert.NoError(t, it.Validate())
}

func TestNewFromMapRoundTrip(t *testing.T) {
	m := decodeYAML(t, itemYAML)
	it, err := NewFromMap(m)
	require.NoError(t, err)

	back, err := FromXML(it.ToXML(RenderOptions{}))
	require.NoError(t, err)
	requireSameXML(t, it.ToXML(RenderOptions{}), back.ToXML(RenderOptions{}))
}

func TestNewFromMapErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown key", "titel: Metadata"},
		{"unknown entity key", "contributors:\n  - entity: {name: ISO, website: iso.org}\n    roles: publisher"},
		{"missing entity", "contributors:\n  - roles: publisher"},
		{"bad date", "dates: {type: published, on: 2014, from: 2013}"},
		{"bad series type", "series: {type: other, title: ISO}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFromMap(decodeYAML(t, tt.src))
			require.Error(t, err)
			assert.ErrorIs(t, err, bierrors.ErrInvalidArgument)
		})
	}
}
