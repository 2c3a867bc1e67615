package ics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedTable(t *testing.T) {
	m, err := decodeTable(tableYAML)
	require.NoError(t, err)
	assert.Equal(t, len(m), Len())
	assert.Greater(t, Len(), 40)
}

func TestLookup(t *testing.T) {
	d, ok := Lookup(Code{Field: "35", Group: "240", Subgroup: "70"})
	require.True(t, ok)
	assert.Equal(t, "IT applications in science", d)

	d, ok = Lookup(Code{Field: "01", Group: "040"})
	require.True(t, ok)
	assert.Equal(t, "Vocabularies", d)

	_, ok = Lookup(Code{Field: "35", Group: "240", Subgroup: "99"})
	assert.False(t, ok)
}

func TestDescribeFallsBackToAncestor(t *testing.T) {
	d, at, ok := Describe(Code{Field: "35", Group: "240", Subgroup: "99"})
	require.True(t, ok)
	assert.Equal(t, "Applications of information technology", d)
	assert.Equal(t, "35.240", at.String())

	_, _, ok = Describe(Code{Field: "99"})
	assert.False(t, ok)
}

func TestDecodeTableRejectsBadEntries(t *testing.T) {
	_, err := decodeTable([]byte("- code: \"3\"\n  description: x\n"))
	assert.Error(t, err)

	_, err = decodeTable([]byte("- code: \"35\"\n  description: a\n- code: \"35\"\n  description: b\n"))
	assert.Error(t, err)

	_, err = decodeTable([]byte("{not a list"))
	assert.Error(t, err)
}
