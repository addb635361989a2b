package analysis

import (
	"sort"
	"time"

	"github.com/KaramelBytes/dashbrief-cli/internal/dateutil"
)

// MonthBucket counts the records falling in one calendar month.
type MonthBucket struct {
	Key     string   `json:"key"`
	Display string   `json:"display"`
	Count   int      `json:"count"`
	Change  *float64 `json:"change,omitempty"` // percent vs previous bucket; nil for the first
}

// MonthlyBreakdown groups rows by the calendar month of dateCol, ascending.
// Rows whose value does not coerce to a date are skipped.
func MonthlyBreakdown(rows []Row, dateCol Column) []MonthBucket {
	counts := map[string]int{}
	firsts := map[string]time.Time{}
	for _, r := range rows {
		v, ok := r[dateCol.Key]
		if !ok || v == nil {
			continue
		}
		t, ok := CoerceDate(v)
		if !ok {
			continue
		}
		k := dateutil.MonthKey(t)
		if _, seen := firsts[k]; !seen {
			firsts[k] = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		}
		counts[k]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]MonthBucket, 0, len(keys))
	for i, k := range keys {
		b := MonthBucket{Key: k, Display: firsts[k].Format("January 2006"), Count: counts[k]}
		if i > 0 {
			prev := float64(counts[keys[i-1]])
			ch := (float64(b.Count) - prev) / prev * 100
			b.Change = &ch
		}
		out = append(out, b)
	}
	return out
}

// FirstDateColumn returns the first column declared as a date.
func FirstDateColumn(columns []Column) (Column, bool) {
	for _, c := range columns {
		if c.Type == TypeDate {
			return c, true
		}
	}
	return Column{}, false
}
