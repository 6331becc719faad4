package balance

import (
	"fmt"
	"time"
)

// Window selects the vouchers that contribute to a balance computation.
// Start is inclusive and End exclusive; a zero bound is unbounded.
type Window struct {
	Start time.Time
	End   time.Time
}

// All includes every voucher.
func All() Window { return Window{} }

// AsOf includes vouchers dated on or before d.
func AsOf(d time.Time) Window {
	return Window{End: Day(d).AddDate(0, 0, 1)}
}

// Year includes vouchers dated within the calendar year.
func Year(year int) Window {
	return FiscalYear(year, time.January, 1)
}

// FiscalYear includes vouchers dated within the fiscal year that starts on
// (startMonth, startDay) of year.
func FiscalYear(year int, startMonth time.Month, startDay int) Window {
	start := time.Date(year, startMonth, startDay, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(1, 0, 0)}
}

// Range includes vouchers dated in [start, end).
func Range(start, end time.Time) Window {
	return Window{Start: Day(start), End: Day(end)}
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d time.Time) bool {
	d = Day(d)
	if !w.Start.IsZero() && d.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !d.Before(w.End) {
		return false
	}
	return true
}

// LastDay returns the last date inside a bounded window.
func (w Window) LastDay() time.Time {
	return w.End.AddDate(0, 0, -1)
}

func (w Window) String() string {
	switch {
	case w.Start.IsZero() && w.End.IsZero():
		return "all"
	case w.Start.IsZero():
		return "as of " + w.LastDay().Format("2006-01-02")
	case w.End.IsZero():
		return "from " + w.Start.Format("2006-01-02")
	default:
		return fmt.Sprintf("%s to %s", w.Start.Format("2006-01-02"), w.LastDay().Format("2006-01-02"))
	}
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
