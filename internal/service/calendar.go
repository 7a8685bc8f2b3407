package service

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidMonth = errors.New("invalid month, expected YYYY-MM")

// Month is a calendar month with no day or time component. All day math in
// the planning engine starts from here so there is no mutable date cursor.
type Month struct {
	Year  int
	Month time.Month
}

func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, ErrInvalidMonth
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// First returns midnight UTC on the 1st.
func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Last returns midnight UTC on the final day of the month.
func (m Month) Last() time.Time {
	return m.First().AddDate(0, 1, -1)
}

// NumDays is the Gregorian day count (28-31).
func (m Month) NumDays() int {
	return m.Last().Day()
}

// Days returns every calendar day of the month in chronological order.
func (m Month) Days() []time.Time {
	days := make([]time.Time, 0, m.NumDays())
	for d := m.First(); d.Month() == m.Month; d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// DayPredicate reports whether a calendar day is eligible for planned
// distribution. The active policy is injected so tests and future holiday
// rules can swap it.
type DayPredicate func(time.Time) bool

// ExcludeSundays is the default working-day policy: agents do not deliver on
// Sundays.
func ExcludeSundays(t time.Time) bool {
	return t.Weekday() != time.Sunday
}

// WorkingDays filters the month's days through the policy predicate,
// preserving chronological order.
func WorkingDays(m Month, include DayPredicate) []time.Time {
	var days []time.Time
	for _, d := range m.Days() {
		if include(d) {
			days = append(days, d)
		}
	}
	return days
}
