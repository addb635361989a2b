// Package source materialises tabular rows from files and databases.
package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/KaramelBytes/dashbrief-cli/internal/analysis"
)

// Table is a loaded data set. Rows are keyed by Column.Key.
type Table struct {
	Name    string
	Columns []analysis.Column
	Rows    []analysis.Row
}

// Options control loading. Zero values mean: infer columns, first sheet, all rows.
type Options struct {
	// Schema, when set, selects and types the columns instead of inference.
	Schema *Schema
	// Sheet picks an XLSX worksheet by name; SheetIndex (1-based) is used otherwise.
	Sheet      string
	SheetIndex int
	// Delimiter overrides the CSV separator; '\t' is chosen for .tsv files.
	Delimiter rune
	// MaxRows truncates the table after loading (0 = all rows).
	MaxRows int
}

// Loader reads one family of file formats.
type Loader interface {
	CanLoad(path string) bool
	Load(path string, opt Options) (*Table, error)
}

var registry []Loader

// Register adds a loader. Earlier registrations win on overlapping extensions.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported is returned when no loader accepts a file.
var ErrUnsupported = errors.New("unsupported data file")

// Load picks a loader by file extension, then applies the schema (or inference)
// and the row limit.
func Load(path string, opt Options) (*Table, error) {
	for _, l := range registry {
		if l.CanLoad(path) {
			t, err := l.Load(path, opt)
			if err != nil {
				return nil, err
			}
			return Finish(t, opt)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(path))
}

// Finish types a raw table: the declared schema first, inference otherwise.
// Numeric cells are then normalised to float64.
func Finish(t *Table, opt Options) (*Table, error) {
	if opt.MaxRows > 0 && len(t.Rows) > opt.MaxRows {
		t.Rows = t.Rows[:opt.MaxRows]
	}
	if opt.Schema != nil {
		if err := opt.Schema.Apply(t); err != nil {
			return nil, err
		}
	} else {
		t.Columns = InferColumns(t.Columns, t.Rows)
	}
	Normalize(t)
	return t, nil
}

var nonKey = regexp.MustCompile(`[^a-z0-9]+`)

// KeyFor derives a stable snake_case key from a header ("Amount Paid (₹)" -> "amount_paid").
func KeyFor(header string) string {
	k := strings.Trim(nonKey.ReplaceAllString(strings.ToLower(header), "_"), "_")
	if k == "" {
		return "column"
	}
	return k
}

// headerColumns turns a header row into untyped columns with unique keys.
func headerColumns(header []string) []analysis.Column {
	seen := map[string]int{}
	cols := make([]analysis.Column, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		k := KeyFor(h)
		if n := seen[k]; n > 0 {
			seen[k] = n + 1
			k = fmt.Sprintf("%s_%d", k, n+1)
		} else {
			seen[k] = 1
		}
		cols[i] = analysis.Column{Key: k, Header: h}
	}
	return cols
}

// recordRow maps a string record onto cols. Blank cells become nil.
func recordRow(cols []analysis.Column, rec []string) analysis.Row {
	row := make(analysis.Row, len(cols))
	for i, c := range cols {
		var v any
		if i < len(rec) {
			if s := strings.TrimSpace(rec[i]); s != "" {
				v = s
			}
		}
		row[c.Key] = v
	}
	return row
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}
