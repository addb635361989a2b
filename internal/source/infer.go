package source

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/dashbrief-cli/internal/analysis"
	"github.com/KaramelBytes/dashbrief-cli/internal/dateutil"
)

type numberShape int

const (
	plainNumber numberShape = iota
	currencyNumber
	percentNumber
)

// parseNumber reads a whole cell as a number. Thousands separators, a leading
// ₹/$/Rs. symbol and a trailing % are accepted; anything else fails.
func parseNumber(s string) (float64, numberShape, bool) {
	s = strings.TrimSpace(s)
	shape := plainNumber
	neg := false
	if strings.HasPrefix(s, "-") {
		neg, s = true, strings.TrimSpace(s[1:])
	}
	for _, sym := range []string{"₹", "$", "Rs.", "Rs", "INR"} {
		if strings.HasPrefix(s, sym) {
			shape, s = currencyNumber, strings.TrimSpace(s[len(sym):])
			break
		}
	}
	if shape == plainNumber && strings.HasSuffix(s, "%") {
		shape, s = percentNumber, strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || strings.ContainsAny(s, "xXpP_") || strings.EqualFold(s, "nan") {
		return 0, shape, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, shape, false
	}
	if neg {
		f = -f
	}
	return f, shape, true
}

// InferColumns assigns a type to every untyped column from its non-empty values:
// a majority of numbers makes it numeric (currency or percentage when most of
// them carry the symbol), a majority of dates makes it a date, otherwise text.
func InferColumns(cols []analysis.Column, rows []analysis.Row) []analysis.Column {
	out := make([]analysis.Column, len(cols))
	copy(out, cols)
	for i, c := range out {
		if c.Type != "" {
			continue
		}
		out[i].Type = inferType(c.Key, rows)
	}
	return out
}

func inferType(key string, rows []analysis.Row) analysis.ColumnType {
	var seen, numeric, currency, percent, dates int
	for _, r := range rows {
		v := r[key]
		if v == nil {
			continue
		}
		seen++
		switch x := v.(type) {
		case string:
			if _, shape, ok := parseNumber(x); ok {
				numeric++
				switch shape {
				case currencyNumber:
					currency++
				case percentNumber:
					percent++
				}
				continue
			}
			if _, ok := dateutil.ParseFlexibleDate(x); ok {
				dates++
			}
		case time.Time:
			dates++
		case bool:
		default:
			if _, ok := analysis.CoerceNumber(x); ok {
				numeric++
			}
		}
	}
	switch {
	case seen == 0:
		return analysis.TypeText
	case numeric*2 > seen:
		if currency*2 > numeric {
			return analysis.TypeCurrency
		}
		if percent*2 > numeric {
			return analysis.TypePercentage
		}
		return analysis.TypeNumber
	case dates*2 > seen:
		return analysis.TypeDate
	}
	return analysis.TypeText
}

// Normalize converts string cells of numeric columns to float64 so symbols such
// as ₹ do not defeat later coercion. Cells that do not parse are left untouched.
func Normalize(t *Table) {
	for _, c := range t.Columns {
		if !c.Type.IsNumeric() {
			continue
		}
		for _, r := range t.Rows {
			if s, ok := r[c.Key].(string); ok {
				if f, _, ok := parseNumber(s); ok {
					r[c.Key] = f
				}
			}
		}
	}
}
