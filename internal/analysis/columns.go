package analysis

import "strings"

// ColumnType declares how a column's values are aggregated.
type ColumnType string

const (
	TypeNumber     ColumnType = "number"
	TypeCurrency   ColumnType = "currency"
	TypePercentage ColumnType = "percentage"
	TypeText       ColumnType = "text"
	TypeDate       ColumnType = "date"
)

// IsNumeric reports whether values of this type are summed and averaged.
func (t ColumnType) IsNumeric() bool {
	return t == TypeNumber || t == TypeCurrency || t == TypePercentage
}

// Valid reports whether t is one of the known column types.
func (t ColumnType) Valid() bool {
	return t.IsNumeric() || t == TypeText || t == TypeDate
}

// DisplayName returns the type, or "text" for an undeclared type.
func (t ColumnType) DisplayName() string {
	if t == "" {
		return string(TypeText)
	}
	return string(t)
}

// Column describes one field of a row. Key indexes into Row; Header is the display label.
type Column struct {
	Key    string     `json:"key" yaml:"key"`
	Header string     `json:"header" yaml:"header"`
	Type   ColumnType `json:"type,omitempty" yaml:"type,omitempty"`
}

// Row maps column keys to loosely typed values (string, number, time.Time or nil).
type Row map[string]any

// ColumnPurpose guesses the business role of a column from keywords in its key.
func ColumnPurpose(c Column) string {
	key := strings.ToLower(c.Key)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(key, w) {
				return true
			}
		}
		return false
	}
	switch {
	case has("revenue", "amount", "price"):
		return "Financial metric for revenue analysis"
	case has("date", "time"):
		return "Temporal dimension for trend analysis"
	case has("member", "customer", "user"):
		return "Customer/member identifier or attribute"
	case has("name", "title"):
		return "Categorical identifier for segmentation"
	case has("count", "quantity", "number"):
		return "Volume or quantity metric"
	case has("rate", "percentage"):
		return "Performance ratio or percentage metric"
	}
	return "Business attribute for analysis and segmentation"
}
