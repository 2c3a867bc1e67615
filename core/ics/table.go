package ics

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed table.yaml
var tableYAML []byte

type entry struct {
	Code        string `yaml:"code"`
	Description string `yaml:"description"`
}

var (
	tableOnce sync.Once
	table     map[string]string
	tableErr  error
)

func loadTable() (map[string]string, error) {
	tableOnce.Do(func() {
		table, tableErr = decodeTable(tableYAML)
	})
	return table, tableErr
}

func decodeTable(data []byte) (map[string]string, error) {
	var entries []entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding ICS table: %w", err)
	}

	m := make(map[string]string, len(entries))
	for _, e := range entries {
		if _, err := Parse(e.Code); err != nil {
			return nil, fmt.Errorf("ICS table entry %q: %w", e.Code, err)
		}
		if _, dup := m[e.Code]; dup {
			return nil, fmt.Errorf("ICS table entry %q listed twice", e.Code)
		}
		m[e.Code] = e.Description
	}
	return m, nil
}

// Lookup returns the description of exactly this code.
func Lookup(c Code) (string, bool) {
	t, err := loadTable()
	if err != nil {
		return "", false
	}
	d, ok := t[c.String()]
	return d, ok
}

// Describe returns the description of c, falling back to the nearest
// described ancestor. The second result is the code that was described.
func Describe(c Code) (string, Code, bool) {
	for cur, ok := c, true; ok; cur, ok = cur.Parent() {
		if d, found := Lookup(cur); found {
			return d, cur, true
		}
	}
	return "", Code{}, false
}

// Len returns the number of codes in the table.
func Len() int {
	t, _ := loadTable()
	return len(t)
}
