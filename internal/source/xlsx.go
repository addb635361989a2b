package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xlsm")
}

// Load reads the selected worksheet; the first non-empty row is the header.
// Cells are read as formatted text, so dates keep their display form.
func (xlsxLoader) Load(path string, opt Options) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet, err := pickSheet(f.GetSheetList(), opt.Sheet, opt.SheetIndex, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	t := &Table{Name: filepath.Base(path) + ":" + sheet}
	i := 0
	for i < len(records) && blank(records[i]) {
		i++
	}
	if i == len(records) {
		return t, nil
	}
	t.Columns = headerColumns(records[i])
	for _, rec := range records[i+1:] {
		if blank(rec) {
			continue
		}
		t.Rows = append(t.Rows, recordRow(t.Columns, rec))
	}
	return t, nil
}

// pickSheet resolves a sheet by case-insensitive name, else by 1-based index.
func pickSheet(sheets []string, name string, index int, book string) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook %q has no sheets", book)
	}
	if name != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, name) {
				return s, nil
			}
		}
		return "", fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
			name, book, strings.Join(sheets, ", "))
	}
	if index <= 0 {
		index = 1
	}
	if index > len(sheets) {
		return "", fmt.Errorf("sheet index %d out of range (workbook '%s' has %d sheets)", index, book, len(sheets))
	}
	return sheets[index-1], nil
}
