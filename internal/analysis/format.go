package analysis

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const (
	lakh     = 100000
	thousand = 1000
)

// FormatCurrency renders an INR amount: lakhs with two decimals from one lakh up,
// thousands with one decimal from 1000 up, otherwise the amount with Indian digit grouping.
func FormatCurrency(amount float64) string {
	if s, ok := nonFinite(amount); ok {
		return "₹" + s
	}
	d := decimal.NewFromFloat(amount)
	if amount/lakh >= 1 {
		return "₹" + d.Div(decimal.NewFromInt(lakh)).StringFixed(2) + " lakhs"
	}
	if amount/thousand >= 1 {
		return "₹" + d.Div(decimal.NewFromInt(thousand)).StringFixed(1) + "K"
	}
	return "₹" + groupIndian(d.Round(3).String())
}

// groupIndian inserts separators into a plain decimal string using the
// Indian convention: the last three integer digits, then pairs (12,34,567).
func groupIndian(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return sign + intPart + frac
	}
	head, tail := intPart[:len(intPart)-3], intPart[len(intPart)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return sign + strings.Join(groups, ",") + "," + tail + frac
}

// FormatNumber renders v with thousands separators and at most two decimals.
func FormatNumber(v float64) string {
	if s, ok := nonFinite(v); ok {
		return s
	}
	r := decimal.NewFromFloat(v).Round(2).InexactFloat64()
	return humanize.CommafWithDigits(r, 2)
}

// FormatPercent renders v with one decimal and a percent sign.
func FormatPercent(v float64) string {
	if s, ok := nonFinite(v); ok {
		return s + "%"
	}
	return decimal.NewFromFloat(v).StringFixed(1) + "%"
}

// FormatValue formats v according to the column type.
func FormatValue(t ColumnType, v float64) string {
	switch t {
	case TypeCurrency:
		return FormatCurrency(v)
	case TypePercentage:
		return FormatPercent(v)
	default:
		return FormatNumber(v)
	}
}

// decimal cannot represent NaN or infinities.
func nonFinite(v float64) (string, bool) {
	switch {
	case math.IsNaN(v):
		return "NaN", true
	case math.IsInf(v, 1):
		return "Infinity", true
	case math.IsInf(v, -1):
		return "-Infinity", true
	}
	return "", false
}
