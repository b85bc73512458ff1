/*
Package calendar provides the date arithmetic the cashflow engine runs on.

PURPOSE:
  Every financial input (pay days, bill due dates, instalments) is a calendar
  date with no time-of-day. This package gives those dates a proper value type
  so the rest of the engine never compares formatted strings or worries about
  time zones.

KEY CONCEPTS:
  - Date:      A calendar day (UTC midnight), compared as whole days
  - Window:    An inclusive [Start, End] range of days
  - Frequency: A closed set of recurrence steps (weekly ... yearly)
  - Expand:    Every occurrence of a recurring date inside a window

WIRE FORMAT:
  Dates cross every boundary (JSON, SQLite, CLI flags) as zero-padded
  YYYY-MM-DD strings. ParseDate rejects anything else.

SEE ALSO:
  - recurrence.go: Frequency steps and window expansion
  - cashflow/collect.go: Turns recurring inputs into dated events
*/
package calendar

import (
	"fmt"
	"time"
)

// Layout is the only accepted textual date format.
const Layout = "2006-01-02"

// =============================================================================
// DATE - Calendar day value type
// =============================================================================

// Date is a calendar day. The zero value is "no date".
type Date struct {
	t time.Time
}

// New returns the date for year/month/day. Out-of-range days normalise the
// way time.Date does; use Clamped for month-end clamping.
func New(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Clamped returns year/month/day with day clamped to the last valid day of
// that month (Feb 31 -> Feb 28/29). Month overflow rolls the year.
func Clamped(year int, month time.Month, day int) Date {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	if last := DaysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return New(first.Year(), first.Month(), day)
}

// FromTime drops the time-of-day of t, keeping t's calendar day in its own
// location.
func FromTime(t time.Time) Date {
	return New(t.Year(), t.Month(), t.Day())
}

// Today returns the current local calendar day.
func Today() Date {
	return FromTime(time.Now())
}

// ParseDate parses a zero-padded YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(Layout, s)
	if err != nil || len(s) != len(Layout) {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return FromTime(t), nil
}

// MustParseDate is ParseDate for literals in tests and presets.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DaysIn returns the number of days in the month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.t.After(other.t) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.t.Before(other.t) }
func (d Date) IsZero() bool                  { return d.t.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// AddMonths adds n calendar months, clamping the day to the target month.
func (d Date) AddMonths(n int) Date {
	return Clamped(d.Year(), d.Month()+time.Month(n), d.Day())
}

// AddYears adds n years, clamping Feb 29 to Feb 28 in non-leap years.
func (d Date) AddYears(n int) Date {
	return Clamped(d.Year()+n, d.Month(), d.Day())
}

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) Time() time.Time       { return d.t }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(Layout)
}

// DaysBetween returns the whole days from -> to (negative if to is earlier).
func DaysBetween(from, to Date) int {
	return int(to.t.Sub(from.t).Hours() / 24)
}

// MinDate returns the earlier of a and b.
func MinDate(a, b Date) Date {
	if b.Before(a) {
		return b
	}
	return a
}

// =============================================================================
// SERIALIZATION
// =============================================================================

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
