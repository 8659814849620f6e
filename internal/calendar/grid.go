package calendar

import (
	"errors"
	"time"
)

// ErrInvalidRange indicates a span whose end precedes its start.
var ErrInvalidRange = errors.New("calendar: range end precedes start")

// Span is an inclusive range of calendar dates.
type Span struct {
	Start Date
	End   Date
}

// Contains reports whether day lies within the span, boundaries included.
// A single-day span (Start == End) contains exactly that day.
func (s Span) Contains(day Date) bool {
	if day.Equal(s.Start) || day.Equal(s.End) {
		return true
	}
	return day.After(s.Start) && day.Before(s.End)
}

// Overlaps reports whether two spans share at least one day.
func (s Span) Overlaps(other Span) bool {
	return !s.End.Before(other.Start) && !other.End.Before(s.Start)
}

// Days expands the span into its dates in ascending order.
func (s Span) Days() ([]Date, error) {
	if s.End.Before(s.Start) {
		return nil, ErrInvalidRange
	}
	out := make([]Date, 0, s.Start.DaysUntil(s.End)+1)
	for day := s.Start; !day.After(s.End); day = day.AddDays(1) {
		out = append(out, day)
	}
	return out, nil
}

// ChargeableDays is the number of whole days from start to end, rounded up.
// Equal dates charge zero days.
func ChargeableDays(start, end Date) int {
	hours := end.Time().Sub(start.Time()).Hours()
	days := int(hours / 24)
	if float64(days)*24 < hours {
		days++
	}
	return days
}

// MonthGrid returns the days of the month containing ref.
func MonthGrid(ref Date) []Date {
	days, _ := Span{Start: ref.StartOfMonth(), End: ref.EndOfMonth()}.Days()
	return days
}

// WeekGrid returns the Sunday-to-Saturday week containing ref.
func WeekGrid(ref Date) []Date {
	days, _ := Span{Start: ref.StartOfWeek(), End: ref.EndOfWeek()}.Days()
	return days
}

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing d.
func MonthOf(d Date) Month {
	return Month{Year: d.Year, Month: d.Month}
}

// Label formats the month as "Jan 2006".
func (m Month) Label() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
}

// TrailingMonths returns n months ending with the month containing ref, oldest first.
func TrailingMonths(ref Date, n int) []Month {
	if n <= 0 {
		return nil
	}
	out := make([]Month, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, MonthOf(ref.AddMonths(-i)))
	}
	return out
}
