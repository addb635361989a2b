package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/KaramelBytes/dashbrief-cli/internal/dateutil"
)

const maxExamples = 5

// Statistics aggregates a row set per declared column type.
// A column appears in at most one of the maps.
type Statistics struct {
	TotalRows int                         `json:"totalRows"`
	Numeric   map[string]NumericStats     `json:"numericColumns"`
	Text      map[string]CategoricalStats `json:"textColumns"`
	Dates     map[string]DateStats        `json:"dateColumns"`

	// column keys in declaration order, for stable rendering
	order []string
}

// NumericStats summarises a number, currency or percentage column.
type NumericStats struct {
	Header  string     `json:"header"`
	Count   int        `json:"count"`
	Sum     float64    `json:"sum"`
	Average float64    `json:"average"`
	Min     float64    `json:"min"`
	Max     float64    `json:"max"`
	Type    ColumnType `json:"type"`
}

// MarshalJSON writes non-finite values, such as a sum that overflowed, as strings
// ("+Inf", "-Inf", "NaN") since JSON has no literal for them.
func (n NumericStats) MarshalJSON() ([]byte, error) {
	type plain NumericStats
	return json.Marshal(struct {
		plain
		Sum     any `json:"sum"`
		Average any `json:"average"`
		Min     any `json:"min"`
		Max     any `json:"max"`
	}{plain(n), jsonFloat(n.Sum), jsonFloat(n.Average), jsonFloat(n.Min), jsonFloat(n.Max)})
}

func jsonFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return f
}

// ValueCount pairs a categorical value with its number of occurrences.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CategoricalStats summarises a text column.
type CategoricalStats struct {
	Header      string     `json:"header"`
	Unique      []string   `json:"unique"`
	UniqueCount int        `json:"uniqueCount"`
	MostCommon  ValueCount `json:"mostCommon"`
	Examples    []string   `json:"examples"`
}

// DateStats summarises a date column.
type DateStats struct {
	Header   string    `json:"header"`
	Count    int       `json:"count"`
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`
	Range    string    `json:"range"`
}

// Keyed is a statistic paired with its column key.
type Keyed[T any] struct {
	Key   string
	Stats T
}

// NumericColumns returns numeric statistics in column declaration order.
func (s *Statistics) NumericColumns() []Keyed[NumericStats] {
	return ordered(s.order, s.Numeric)
}

// TextColumns returns categorical statistics in column declaration order.
func (s *Statistics) TextColumns() []Keyed[CategoricalStats] {
	return ordered(s.order, s.Text)
}

// DateColumns returns date statistics in column declaration order.
func (s *Statistics) DateColumns() []Keyed[DateStats] {
	return ordered(s.order, s.Dates)
}

func ordered[T any](order []string, m map[string]T) []Keyed[T] {
	out := make([]Keyed[T], 0, len(m))
	seen := make(map[string]bool, len(order))
	for _, k := range order {
		if seen[k] {
			continue
		}
		seen[k] = true
		if v, ok := m[k]; ok {
			out = append(out, Keyed[T]{Key: k, Stats: v})
		}
	}
	return out
}

// Extract computes per-column statistics. Values that cannot be coerced to the
// column's declared type are skipped; malformed input never causes an error.
func Extract(rows []Row, columns []Column) *Statistics {
	st := &Statistics{
		TotalRows: len(rows),
		Numeric:   map[string]NumericStats{},
		Text:      map[string]CategoricalStats{},
		Dates:     map[string]DateStats{},
	}
	if len(rows) == 0 {
		return st
	}
	for _, col := range columns {
		st.order = append(st.order, col.Key)
		switch {
		case col.Type.IsNumeric():
			if ns, ok := numericColumn(rows, col); ok {
				st.Numeric[col.Key] = ns
			}
		case col.Type == TypeText:
			if cs, ok := textColumn(rows, col); ok {
				st.Text[col.Key] = cs
			}
		case col.Type == TypeDate:
			if ds, ok := dateColumn(rows, col); ok {
				st.Dates[col.Key] = ds
			}
		}
	}
	return st
}

func numericColumn(rows []Row, col Column) (NumericStats, bool) {
	ns := NumericStats{Header: col.Header, Type: col.Type, Min: math.Inf(1), Max: math.Inf(-1)}
	for _, r := range rows {
		v, ok := r[col.Key]
		if !ok || v == nil {
			continue
		}
		x, ok := CoerceNumber(v)
		if !ok {
			continue
		}
		ns.Count++
		ns.Sum += x
		if x < ns.Min {
			ns.Min = x
		}
		if x > ns.Max {
			ns.Max = x
		}
	}
	if ns.Count == 0 {
		return NumericStats{}, false
	}
	ns.Average = ns.Sum / float64(ns.Count)
	return ns, true
}

func textColumn(rows []Row, col Column) (CategoricalStats, bool) {
	counts := map[string]int{}
	var unique []string
	for _, r := range rows {
		v, ok := r[col.Key]
		if !ok || v == nil {
			continue
		}
		s := Stringify(v)
		if _, seen := counts[s]; !seen {
			unique = append(unique, s)
		}
		counts[s]++
	}
	if len(unique) == 0 {
		// all-null columns are still reported, with the zero-count sentinel as mode
		return CategoricalStats{Header: col.Header, Unique: []string{}, Examples: []string{}}, true
	}
	// strict greater-than: the first value to reach the top count keeps it
	best := ValueCount{}
	for _, u := range unique {
		if counts[u] > best.Count {
			best = ValueCount{Value: u, Count: counts[u]}
		}
	}
	ex := unique
	if len(ex) > maxExamples {
		ex = ex[:maxExamples]
	}
	return CategoricalStats{
		Header:      col.Header,
		Unique:      unique,
		UniqueCount: len(unique),
		MostCommon:  best,
		Examples:    append([]string(nil), ex...),
	}, true
}

func dateColumn(rows []Row, col Column) (DateStats, bool) {
	ds := DateStats{Header: col.Header}
	for _, r := range rows {
		v, ok := r[col.Key]
		if !ok || v == nil {
			continue
		}
		t, ok := CoerceDate(v)
		if !ok {
			continue
		}
		if ds.Count == 0 || t.Before(ds.Earliest) {
			ds.Earliest = t
		}
		if ds.Count == 0 || t.After(ds.Latest) {
			ds.Latest = t
		}
		ds.Count++
	}
	if ds.Count == 0 {
		return DateStats{}, false
	}
	ds.Range = SpanLabel(ds.Count, ds.Earliest, ds.Latest)
	return ds, true
}

// SpanLabel describes the distance between earliest and latest coarsely:
// days below 30, months (of 30 days) below 365, otherwise years.
func SpanLabel(count int, earliest, latest time.Time) string {
	if count < 2 {
		return "Single date"
	}
	// milliseconds rather than time.Duration, which tops out near 292 years
	const dayMs = 24 * 60 * 60 * 1000
	days := int(math.Ceil(float64(latest.UnixMilli()-earliest.UnixMilli()) / dayMs))
	switch {
	case days < 30:
		return fmt.Sprintf("%d days", days)
	case days < 365:
		return fmt.Sprintf("%d months", int(math.Ceil(float64(days)/30)))
	default:
		return fmt.Sprintf("%d years", int(math.Ceil(float64(days)/365)))
	}
}

// CoerceNumber converts v to a finite float64. Strings lose any '$', ',' and '%'
// characters and are then read up to the longest numeric prefix ("12abc" is 12).
func CoerceNumber(v any) (float64, bool) {
	var x float64
	switch n := v.(type) {
	case float64:
		x = n
	case float32:
		x = float64(n)
	case int:
		x = float64(n)
	case int8:
		x = float64(n)
	case int16:
		x = float64(n)
	case int32:
		x = float64(n)
	case int64:
		x = float64(n)
	case uint:
		x = float64(n)
	case uint8:
		x = float64(n)
	case uint16:
		x = float64(n)
	case uint32:
		x = float64(n)
	case uint64:
		x = float64(n)
	case bool:
		if n {
			x = 1
		}
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		x = f
	case string:
		f, ok := parseLeadingFloat(stripDecoration(n))
		if !ok {
			return 0, false
		}
		x = f
	default:
		return 0, false
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}

var decoration = strings.NewReplacer("$", "", ",", "", "%", "")

func stripDecoration(s string) string { return decoration.Replace(s) }

// parseLeadingFloat reads an optional sign, digits, an optional fraction and an
// optional exponent from the start of s, after leading whitespace. Trailing text is ignored.
func parseLeadingFloat(s string) (float64, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	end := i
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			end = k
		}
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		// out-of-range exponents report ±Inf with ErrRange; callers discard those
		return 0, false
	}
	return f, true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// maxEpochMs bounds numeric dates to ±100,000,000 days around the epoch.
const maxEpochMs = 8.64e15

// CoerceDate converts v to a time. Numbers are epoch milliseconds within
// ±maxEpochMs and strings go through dateutil.ParseFlexibleDate.
func CoerceDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return time.Time{}, false
		}
		return d, true
	case *time.Time:
		if d == nil || d.IsZero() {
			return time.Time{}, false
		}
		return *d, true
	case string:
		return dateutil.ParseFlexibleDate(d)
	case bool:
		return time.Time{}, false
	}
	ms, ok := CoerceNumber(v)
	if !ok || math.Abs(ms) > maxEpochMs {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)), true
}

// Stringify renders a value for display and categorical grouping.
func Stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case time.Time:
		return s.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}
