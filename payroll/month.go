package payroll

import (
	"fmt"
	"strconv"
	"time"
)

// =============================================================================
// DATE - A calendar day, no time of day
// =============================================================================

const dateLayout = "2006-01-02"

// Date is a calendar date stored at midnight UTC.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t as observed in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int            { return d.Time.Year() }
func (d Date) Month() time.Month    { return d.Time.Month() }
func (d Date) Day() int             { return d.Time.Day() }
func (d Date) IsZero() bool         { return d.Time.IsZero() }
func (d Date) String() string       { return d.Time.Format(dateLayout) }
func (d Date) CalendarMonth() Month { return NewMonth(d.Year(), d.Month()) }

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// MONTH - The key for rules and summaries
// =============================================================================

// Month is a calendar month, rendered as YYYY-MM.
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth normalizes out-of-range months (e.g. month 13 → January next year).
func NewMonth(year int, month time.Month) Month {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Month{Year: t.Year(), Month: t.Month()}
}

// MonthOf returns the month containing t, in t's own location.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a four-digit-year, two-digit-month key such as "2026-02".
func ParseMonth(s string) (Month, error) {
	if len(s) != 7 || s[4] != '-' {
		return Month{}, fmt.Errorf("%w: %q (want YYYY-MM)", ErrInvalidMonth, s)
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	mon, err := strconv.Atoi(s[5:])
	if err != nil || mon < 1 || mon > 12 {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	m := Month{Year: year, Month: time.Month(mon)}
	if err := m.Validate(); err != nil {
		return Month{}, err
	}
	return m, nil
}

// MustParseMonth is for tests and constant tables.
func MustParseMonth(s string) Month {
	m, err := ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Validate is a range sanity check: the derived last day must still fall in
// the same month of a four-digit year.
func (m Month) Validate() error {
	if m.Year < 1 || m.Year > 9999 || m.Month < time.January || m.Month > time.December {
		return fmt.Errorf("%w: %04d-%02d", ErrInvalidMonth, m.Year, int(m.Month))
	}
	end := m.End()
	if end.Month() != m.Month || end.Year() != m.Year {
		return fmt.Errorf("%w: %s has no valid last day", ErrInvalidMonth, m)
	}
	return nil
}

func (m Month) String() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }
func (m Month) IsZero() bool   { return m.Year == 0 && m.Month == 0 }

// Start returns the first day of the month.
func (m Month) Start() Date { return NewDate(m.Year, m.Month, 1) }

// End returns the last day of the month, leap years included.
func (m Month) End() Date {
	return Date{Time: time.Date(m.Year, m.Month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)}
}

// Days returns the number of days in the month.
func (m Month) Days() int { return m.End().Day() }

// Period returns [Start, End] inclusive.
func (m Month) Period() Period { return Period{Start: m.Start(), End: m.End()} }

func (m Month) AddMonths(n int) Month { return NewMonth(m.Year, m.Month+time.Month(n)) }
func (m Month) Prev() Month           { return m.AddMonths(-1) }
func (m Month) Next() Month           { return m.AddMonths(1) }

// Compare returns -1, 0 or +1.
func (m Month) Compare(other Month) int {
	switch {
	case m.Year < other.Year:
		return -1
	case m.Year > other.Year:
		return 1
	case m.Month < other.Month:
		return -1
	case m.Month > other.Month:
		return 1
	}
	return 0
}

func (m Month) Before(other Month) bool { return m.Compare(other) < 0 }
func (m Month) After(other Month) bool  { return m.Compare(other) > 0 }
func (m Month) Equal(other Month) bool  { return m.Compare(other) == 0 }

func (m Month) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// =============================================================================
// PERIOD - Inclusive date window
// =============================================================================

type Period struct {
	Start Date
	End   Date
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
