package calendar

import (
	"encoding/json"
	"fmt"
	"iter"
	"time"
)

// MonthLayout is the wire format for calendar months.
const MonthLayout = "2006-01"

// Month is a calendar month of a specific year (a "year-month").
type Month struct {
	year  int
	month time.Month
}

// NewMonth returns the calendar month. Out-of-range months are normalized,
// so NewMonth(2020, 13) is 2021-01.
func NewMonth(year int, month time.Month) Month {
	return monthFromIndex(year*12 + int(month) - 1)
}

// ParseMonth parses a YYYY-MM month.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return Month{year: t.Year(), month: t.Month()}, nil
}

// MustParseMonth is like ParseMonth but panics on error.
func MustParseMonth(s string) Month {
	m, err := ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Month) Year() int { return m.year }
func (m Month) Month() time.Month { return m.month }
func (m Month) IsZero() bool { return m == Month{} }

// index counts months since year 0 so that month arithmetic is plain integer math.
func (m Month) index() int {
	return m.year*12 + int(m.month) - 1
}

func monthFromIndex(i int) Month {
	y := i / 12
	r := i % 12
	if r < 0 {
		r += 12
		y--
	}
	return Month{year: y, month: time.Month(r + 1)}
}

// AddMonths returns m shifted by n months.
func (m Month) AddMonths(n int) Month {
	return monthFromIndex(m.index() + n)
}

// Until returns the number of whole months from m to other.
// It is negative when other is before m.
func (m Month) Until(other Month) int {
	return other.index() - m.index()
}

// FirstDay returns the first day of m.
func (m Month) FirstDay() Date {
	return Date{year: m.year, month: m.month, day: 1}
}

// Contains reports whether d falls within m.
func (m Month) Contains(d Date) bool {
	return d.year == m.year && d.month == m.month
}

func (m Month) Before(other Month) bool { return m.index() < other.index() }
func (m Month) After(other Month) bool { return m.index() > other.index() }

// String formats m as YYYY-MM.
func (m Month) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.year, m.month)
}

// MarshalJSON encodes m as a YYYY-MM string.
func (m Month) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a YYYY-MM string.
func (m *Month) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("month must be a string: %w", err)
	}
	parsed, err := ParseMonth(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalText lets Month be used by flag, env and yaml decoders.
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText parses a YYYY-MM month.
func (m *Month) UnmarshalText(text []byte) error {
	parsed, err := ParseMonth(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MonthRange is the closed-open month interval [Start, End).
type MonthRange struct {
	Start Month // inclusive
	End   Month // exclusive
}

// NewMonthRange returns [start, end).
func NewMonthRange(start, end Month) MonthRange {
	return MonthRange{Start: start, End: end}
}

// YearOf returns the twelve months of the given year.
func YearOf(year int) MonthRange {
	start := NewMonth(year, time.January)
	return MonthRange{Start: start, End: start.AddMonths(12)}
}

// Len returns the number of months in r. Empty or inverted ranges have length 0.
func (r MonthRange) Len() int {
	n := r.Start.Until(r.End)
	if n < 0 {
		return 0
	}
	return n
}

// Contains reports whether m lies in [Start, End).
func (r MonthRange) Contains(m Month) bool {
	return !m.Before(r.Start) && m.Before(r.End)
}

// Months yields every month of r once, in increasing order.
func (r MonthRange) Months() iter.Seq[Month] {
	return func(yield func(Month) bool) {
		for m := r.Start; m.Before(r.End); m = m.AddMonths(1) {
			if !yield(m) {
				return
			}
		}
	}
}

// Slice returns the months of r in order.
func (r MonthRange) Slice() []Month {
	months := make([]Month, 0, r.Len())
	for m := range r.Months() {
		months = append(months, m)
	}
	return months
}

// RemainingMonths returns the whole months after m up to End, excluding m
// itself. For the last month of the range it returns 0.
//
// A month at or past End yields a RangeUnderflowError.
func (r MonthRange) RemainingMonths(m Month) (int, error) {
	remaining := m.Until(r.End) - 1
	if remaining < 0 {
		return 0, &RangeUnderflowError{Range: r, Month: m, Remaining: remaining}
	}
	return remaining, nil
}

// String formats r as [YYYY-MM, YYYY-MM).
func (r MonthRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start, r.End)
}

// RangeUnderflowError reports a month that lies at or past the end of the
// range it is being reported against.
type RangeUnderflowError struct {
	Range     MonthRange
	Month     Month
	Remaining int
}

func (e *RangeUnderflowError) Error() string {
	return fmt.Sprintf("RANGE_UNDERFLOW: month %s is not before range end %s (remaining=%d)",
		e.Month, e.Range.End, e.Remaining)
}
