package dateutil

import (
	"testing"
	"time"
)

func fixedClock(y int, m time.Month, d int) Clock {
	return func() time.Time { return time.Date(y, m, d, 12, 30, 0, 0, time.UTC) }
}

func TestPreviousMonthRange(t *testing.T) {
	cases := []struct {
		name       string
		now        Clock
		start, end string
	}{
		{"march to february", fixedClock(2025, time.March, 15), "2025-02-01", "2025-02-28"},
		{"leap february", fixedClock(2024, time.March, 1), "2024-02-01", "2024-02-29"},
		{"january wraps year", fixedClock(2025, time.January, 31), "2024-12-01", "2024-12-31"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := New(c.now).PreviousMonthRange()
			if got.Start != c.start || got.End != c.end {
				t.Fatalf("got %+v, want %s..%s", got, c.start, c.end)
			}
		})
	}
}

func TestCurrentAndMonthsBackRange(t *testing.T) {
	h := New(fixedClock(2025, time.April, 10))
	cur := h.CurrentMonthRange()
	if cur.Start != "2025-04-01" || cur.End != "2025-04-30" {
		t.Fatalf("current range: %+v", cur)
	}
	back := h.MonthsBackRange(5)
	if back.Start != "2024-11-01" || back.End != "2025-04-30" {
		t.Fatalf("months back range: %+v", back)
	}
	zero := h.MonthsBackRange(0)
	if zero != cur {
		t.Fatalf("MonthsBackRange(0) = %+v, want %+v", zero, cur)
	}
}

func TestStandardMonthRange(t *testing.T) {
	for _, now := range []Clock{
		fixedClock(2025, time.October, 5),
		fixedClock(2024, time.January, 31),
		fixedClock(2025, time.December, 1),
	} {
		months := New(now).StandardMonthRange()
		if len(months) != StandardWindow {
			t.Fatalf("expected %d months, got %d", StandardWindow, len(months))
		}
		seen := map[string]bool{}
		for i, m := range months {
			if seen[m.Key] {
				t.Fatalf("duplicate key %s", m.Key)
			}
			seen[m.Key] = true
			if i > 0 && m.SortOrder <= months[i-1].SortOrder {
				t.Fatalf("not strictly ascending at %d: %d <= %d", i, m.SortOrder, months[i-1].SortOrder)
			}
			if m.Quarter < 1 || m.Quarter > 4 {
				t.Fatalf("bad quarter %d for %s", m.Quarter, m.Key)
			}
		}
		last := months[len(months)-1]
		n := now()
		if last.Year != n.Year() || last.Month != int(n.Month()) {
			t.Fatalf("window should end at current month, got %s", last.Key)
		}
	}
}

func TestStandardMonthRangeBoundaries(t *testing.T) {
	months := New(fixedClock(2025, time.October, 5)).StandardMonthRange()
	first := months[0]
	if first.Key != "2024-01" || first.Display != "Jan 2024" || first.Quarter != 1 || first.SortOrder != 202401 {
		t.Fatalf("unexpected first month: %+v", first)
	}
	if months[21].Key != "2025-10" || months[21].Quarter != 4 {
		t.Fatalf("unexpected last month: %+v", months[21])
	}
}

func TestDynamicMonths(t *testing.T) {
	h := New(fixedClock(2025, time.February, 20))
	got := h.DynamicMonths(3)
	want := []string{"2024-12", "2025-01", "2025-02"}
	if len(got) != len(want) {
		t.Fatalf("len=%d", len(got))
	}
	for i, k := range want {
		if got[i].Key != k {
			t.Fatalf("month %d: got %s want %s", i, got[i].Key, k)
		}
	}
	if got[0].Display != "Dec 2024" {
		t.Fatalf("display: %q", got[0].Display)
	}
	for _, n := range []int{0, -2} {
		if got := h.DynamicMonths(n); got == nil || len(got) != 0 {
			t.Fatalf("DynamicMonths(%d) = %v, want empty", n, got)
		}
	}
}

func TestPreviousMonthPeriodAndDisplay(t *testing.T) {
	h := New(fixedClock(2025, time.January, 3))
	if got := h.PreviousMonthPeriod(); got != "2024-12" {
		t.Fatalf("period: %q", got)
	}
	if got := h.PreviousMonthDisplay(); got != "December 2024" {
		t.Fatalf("display: %q", got)
	}
	if got := h.PreviousMonthName(); got != "December" {
		t.Fatalf("name: %q", got)
	}
}

func TestParseFlexibleDate(t *testing.T) {
	h := New(fixedClock(2025, time.March, 15))
	cases := []struct {
		in string
		ok bool
		y  int
		m  time.Month
		d  int
	}{
		{"14/09/2025 10:00:00", true, 2025, time.September, 14},
		{"01/02/2024", true, 2024, time.February, 1},
		{"14/09/25", true, 1925, time.September, 14},
		{"03/04/0099", true, 1999, time.April, 3},
		{"2020-01-01, 17:30:00", true, 2020, time.January, 1},
		{"2025-09-14", true, 2025, time.September, 14},
		{"2025-09-14 08:15:00", true, 2025, time.September, 14},
		{"not a date", false, 0, 0, 0},
		{"", false, 0, 0, 0},
		{"   ", false, 0, 0, 0},
		{"a/b/c", false, 0, 0, 0},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, ok := h.ParseFlexibleDate(c.in)
			if ok != c.ok {
				t.Fatalf("ok=%v want %v (got %v)", ok, c.ok, got)
			}
			if !ok {
				return
			}
			if got.Year() != c.y || got.Month() != c.m || got.Day() != c.d {
				t.Fatalf("got %v, want %04d-%02d-%02d", got, c.y, c.m, c.d)
			}
		})
	}
}

func TestParseFlexibleDateIgnoresTime(t *testing.T) {
	got, ok := New(fixedClock(2025, time.March, 15)).ParseFlexibleDate("14/09/2025 10:00:00")
	if !ok {
		t.Fatal("expected a date")
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Fatalf("time component should be dropped: %v", got)
	}
}
