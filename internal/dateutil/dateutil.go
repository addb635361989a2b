// Package dateutil computes calendar month ranges and parses loosely formatted dates.
// All helpers read "now" from an injectable clock so they can be tested deterministically.
package dateutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DateLayout is the YYYY-MM-DD layout used for range boundaries.
const DateLayout = "2006-01-02"

// StandardWindow is the number of months returned by StandardMonthRange.
const StandardWindow = 22

// DefaultDynamicMonths is used by DynamicMonths when count <= 0.
const DefaultDynamicMonths = 18

// Clock returns the current time.
type Clock func() time.Time

// DateRange is an inclusive calendar range formatted as YYYY-MM-DD.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// MonthDescriptor describes one calendar month.
type MonthDescriptor struct {
	Key       string `json:"key"`
	Display   string `json:"display"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Quarter   int    `json:"quarter"`
	SortOrder int    `json:"sortOrder"`
}

// Helper computes ranges relative to its clock, in the clock's location.
type Helper struct {
	now Clock
}

// New returns a Helper reading time from clock. A nil clock means time.Now.
func New(clock Clock) *Helper {
	if clock == nil {
		clock = time.Now
	}
	return &Helper{now: clock}
}

var std = New(nil)

// monthStart returns the first day of the month offset months away from now.
// time.Date normalises out-of-range months, so offsets may cross year boundaries.
func (h *Helper) monthStart(offset int) time.Time {
	n := h.now()
	return time.Date(n.Year(), n.Month()+time.Month(offset), 1, 0, 0, 0, 0, n.Location())
}

// monthEnd returns the last day of the month offset months away from now.
// Day 0 of the following month is the last day of the target month.
func (h *Helper) monthEnd(offset int) time.Time {
	n := h.now()
	return time.Date(n.Year(), n.Month()+time.Month(offset)+1, 0, 0, 0, 0, 0, n.Location())
}

// PreviousMonthRange returns the first and last day of the previous calendar month.
func (h *Helper) PreviousMonthRange() DateRange {
	return DateRange{
		Start: h.monthStart(-1).Format(DateLayout),
		End:   h.monthEnd(-1).Format(DateLayout),
	}
}

// CurrentMonthRange returns the first and last day of the current calendar month.
func (h *Helper) CurrentMonthRange() DateRange {
	return DateRange{
		Start: h.monthStart(0).Format(DateLayout),
		End:   h.monthEnd(0).Format(DateLayout),
	}
}

// MonthsBackRange spans the first day of (current month - n) to the last day of the current month.
func (h *Helper) MonthsBackRange(n int) DateRange {
	return DateRange{
		Start: h.monthStart(-n).Format(DateLayout),
		End:   h.monthEnd(0).Format(DateLayout),
	}
}

// StandardMonthRange returns the trailing 22 months ending at the current month, oldest first.
func (h *Helper) StandardMonthRange() []MonthDescriptor {
	out := make([]MonthDescriptor, 0, StandardWindow)
	for i := StandardWindow - 1; i >= 0; i-- {
		out = append(out, describe(h.monthStart(-i)))
	}
	return out
}

// DynamicMonths returns count months ending at the current month, oldest first.
// A count of zero or less yields an empty list.
func (h *Helper) DynamicMonths(count int) []MonthDescriptor {
	if count <= 0 {
		return []MonthDescriptor{}
	}
	out := make([]MonthDescriptor, 0, count)
	for i := count - 1; i >= 0; i-- {
		out = append(out, describe(h.monthStart(-i)))
	}
	return out
}

// PreviousMonthPeriod returns the previous month as YYYY-MM.
func (h *Helper) PreviousMonthPeriod() string {
	return MonthKey(h.monthStart(-1))
}

// PreviousMonthDisplay returns the previous month as e.g. "February 2025".
func (h *Helper) PreviousMonthDisplay() string {
	return h.monthStart(-1).Format("January 2006")
}

// PreviousMonthName returns only the month name of the previous month.
func (h *Helper) PreviousMonthName() string {
	return h.monthStart(-1).Month().String()
}

// ParseFlexibleDate parses s in the helper's location. See ParseFlexibleDate.
func (h *Helper) ParseFlexibleDate(s string) (time.Time, bool) {
	return parseFlexible(s, h.now().Location())
}

// MonthKey formats t as YYYY-MM.
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

func describe(t time.Time) MonthDescriptor {
	m := int(t.Month())
	return MonthDescriptor{
		Key:       MonthKey(t),
		Display:   t.Format("Jan 2006"),
		Year:      t.Year(),
		Month:     m,
		Quarter:   (m + 2) / 3,
		SortOrder: t.Year()*100 + m,
	}
}

// ParseFlexibleDate tries, in order:
//  1. the part before the first comma ("2020-01-01, 17:30:00"),
//  2. DD/MM/YYYY with any time after a space ignored ("14/09/2025 10:00:00");
//     years 0-99 mean 1900-1999,
//  3. a general parse for strings containing '-',
//  4. a general parse of the whole string.
//
// It reports false for blank input or when every attempt fails.
func ParseFlexibleDate(s string) (time.Time, bool) {
	return parseFlexible(s, time.Local)
}

func parseFlexible(s string, loc *time.Location) (time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, false
	}
	if strings.Contains(s, ",") {
		part := strings.TrimSpace(strings.SplitN(s, ",", 2)[0])
		if t, ok := parseNative(part, loc); ok {
			return t, true
		}
	}
	if strings.Contains(s, "/") {
		part := strings.TrimSpace(strings.SplitN(s, " ", 2)[0])
		parts := strings.Split(part, "/")
		if len(parts) == 3 {
			day, okd := leadingInt(parts[0])
			month, okm := leadingInt(parts[1])
			year, oky := leadingInt(parts[2])
			if okd && okm && oky {
				if year >= 0 && year <= 99 {
					year += 1900
				}
				return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), true
			}
		}
	}
	if strings.Contains(s, "-") {
		if t, ok := parseNative(s, loc); ok {
			return t, true
		}
	}
	return parseNative(s, loc)
}

func parseNative(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// leadingInt parses an optional sign and the leading run of digits, ignoring the rest.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Package-level helpers using the system clock.

func PreviousMonthRange() DateRange { return std.PreviousMonthRange() }
func CurrentMonthRange() DateRange { return std.CurrentMonthRange() }
func MonthsBackRange(n int) DateRange { return std.MonthsBackRange(n) }
func StandardMonthRange() []MonthDescriptor { return std.StandardMonthRange() }
func DynamicMonths(count int) []MonthDescriptor { return std.DynamicMonths(count) }
func PreviousMonthPeriod() string { return std.PreviousMonthPeriod() }
func PreviousMonthDisplay() string { return std.PreviousMonthDisplay() }
