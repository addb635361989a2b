package source

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/dashbrief-cli/internal/analysis"
)

// Schema is the on-disk column declaration:
//
//	columns:
//	  - key: amount
//	    header: Amount Paid
//	    type: currency
//	    source: "Amount (₹)"
type Schema struct {
	Title   string         `yaml:"title,omitempty"`
	Context string         `yaml:"context,omitempty"`
	Columns []SchemaColumn `yaml:"columns"`
}

// SchemaColumn declares one column. Source names the loaded column (header or
// derived key) when it differs from Key.
type SchemaColumn struct {
	Key    string              `yaml:"key"`
	Header string              `yaml:"header,omitempty"`
	Type   analysis.ColumnType `yaml:"type,omitempty"`
	Source string              `yaml:"source,omitempty"`
}

// LoadSchema reads and validates a YAML schema file.
func LoadSchema(path string) (*Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	var s Schema
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if len(s.Columns) == 0 {
		return nil, fmt.Errorf("schema %s declares no columns", path)
	}
	for i, c := range s.Columns {
		if strings.TrimSpace(c.Key) == "" {
			return nil, fmt.Errorf("schema column %d has no key", i+1)
		}
		if c.Type != "" && !c.Type.Valid() {
			return nil, fmt.Errorf("schema column %q: unknown type %q", c.Key, c.Type)
		}
	}
	return &s, nil
}

// ColumnList returns the declared columns; headers default to the key.
func (s *Schema) ColumnList() []analysis.Column {
	out := make([]analysis.Column, len(s.Columns))
	for i, c := range s.Columns {
		h := c.Header
		if h == "" {
			h = c.Key
		}
		out[i] = analysis.Column{Key: c.Key, Header: h, Type: c.Type}
	}
	return out
}

// sources maps declared keys to their source names.
func (s *Schema) sources() map[string]string {
	m := map[string]string{}
	for _, c := range s.Columns {
		if c.Source != "" {
			m[c.Key] = c.Source
		}
	}
	return m
}

// Apply re-keys t's rows to the declared columns. A declared column matches a
// loaded one by Source, key, derived key or case-insensitive header.
func (s *Schema) Apply(t *Table) error {
	declared, sources := s.ColumnList(), s.sources()
	from := make([]string, len(declared))
	for i, d := range declared {
		want := d.Key
		if src, ok := sources[d.Key]; ok {
			want = src
		}
		key, ok := matchColumn(t.Columns, want)
		if !ok && want != d.Header {
			key, ok = matchColumn(t.Columns, d.Header)
		}
		if !ok {
			return fmt.Errorf("column %q not found in %s (available: %s)", want, t.Name, headerList(t.Columns))
		}
		from[i] = key
	}
	rows := make([]analysis.Row, len(t.Rows))
	for i, r := range t.Rows {
		nr := make(analysis.Row, len(declared))
		for j, d := range declared {
			nr[d.Key] = r[from[j]]
		}
		rows[i] = nr
	}
	cols := make([]analysis.Column, len(declared))
	copy(cols, declared)
	t.Columns, t.Rows = cols, rows
	return nil
}

func matchColumn(cols []analysis.Column, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	for _, c := range cols {
		if c.Key == name {
			return c.Key, true
		}
	}
	k := KeyFor(name)
	for _, c := range cols {
		if c.Key == k || strings.EqualFold(c.Header, name) {
			return c.Key, true
		}
	}
	return "", false
}

func headerList(cols []analysis.Column) string {
	hs := make([]string, len(cols))
	for i, c := range cols {
		hs[i] = c.Header
	}
	return strings.Join(hs, ", ")
}
