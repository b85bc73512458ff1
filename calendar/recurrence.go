package calendar

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// =============================================================================
// FREQUENCY - Closed set of recurrence steps
// =============================================================================

// Frequency is how often a recurring income, bill or instalment repeats.
// Values coming from outside the process must go through ParseFrequency.
type Frequency string

const (
	Weekly      Frequency = "weekly"
	Fortnightly Frequency = "fortnightly"
	Monthly     Frequency = "monthly"
	Quarterly   Frequency = "quarterly"
	Yearly      Frequency = "yearly"
)

// FallbackStepDays is the step used for a Frequency outside the enum.
const FallbackStepDays = 30

// AllFrequencies lists every supported frequency in ascending step size.
var AllFrequencies = []Frequency{Weekly, Fortnightly, Monthly, Quarterly, Yearly}

// PaymentFrequencies are the steps accepted for incomes and BNPL plans.
var PaymentFrequencies = []Frequency{Weekly, Fortnightly, Monthly}

// ParseFrequency converts external input into a Frequency.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFrequency, s)
	}
	return f, nil
}

// IsValid reports whether f is one of the supported frequencies.
func (f Frequency) IsValid() bool {
	for _, known := range AllFrequencies {
		if f == known {
			return true
		}
	}
	return false
}

// Validate returns an error unless f is valid and, when allowed is non-empty,
// one of allowed.
func (f Frequency) Validate(allowed ...Frequency) error {
	if !f.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownFrequency, string(f))
	}
	if len(allowed) == 0 {
		return nil
	}
	for _, a := range allowed {
		if f == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrFrequencyNotAllowed, f)
}

// step returns the size of one step as (days, months). ok is false for an
// unknown frequency, in which case the fallback step is returned.
func (f Frequency) step() (days, months int, ok bool) {
	switch f {
	case Weekly:
		return 7, 0, true
	case Fortnightly:
		return 14, 0, true
	case Monthly:
		return 0, 1, true
	case Quarterly:
		return 0, 3, true
	case Yearly:
		return 0, 12, true
	default:
		return FallbackStepDays, 0, false
	}
}

func warnFallback(f Frequency) {
	logrus.WithFields(logrus.Fields{
		"frequency": string(f),
		"step_days": FallbackStepDays,
	}).Warn("unknown frequency, using fallback step")
}

// =============================================================================
// RECURRENCE EXPANSION
// =============================================================================

// AdvanceN applies Advance n times (n=0 is anchor itself). Month-based steps
// clamp at every step, so a series anchored on the 31st moves to the 28th
// after February and stays there.
func AdvanceN(anchor Date, f Frequency, n int) Date {
	days, months, ok := f.step()
	if !ok {
		warnFallback(f)
	}
	if months == 0 {
		return anchor.AddDays(days * n)
	}
	current := anchor
	for i := 0; i < n; i++ {
		current = current.AddMonths(months)
	}
	return current
}

// Advance returns the next occurrence after date.
func Advance(date Date, f Frequency) Date {
	return AdvanceN(date, f, 1)
}

// NextAfter advances anchor one step at a time until it is strictly after
// day. An anchor already after day is returned unchanged.
func NextAfter(anchor Date, f Frequency, day Date) Date {
	days, months, ok := f.step()
	if !ok {
		warnFallback(f)
	}
	current := skipTo(anchor, days, day.AddDays(1))
	for !current.After(day) {
		current = next(current, days, months)
	}
	return current
}

// next returns the occurrence one step after d.
func next(d Date, days, months int) Date {
	if months > 0 {
		return d.AddMonths(months)
	}
	return d.AddDays(days)
}

// skipTo jumps a day-based series to its first occurrence on or after
// target. Month-based series return anchor and are walked by the caller.
func skipTo(anchor Date, days int, target Date) Date {
	if days <= 0 || !anchor.Before(target) {
		return anchor
	}
	gap := DaysBetween(anchor, target)
	return anchor.AddDays(days * ((gap + days - 1) / days))
}

// Expand returns every occurrence of the series starting at anchor that falls
// inside w, ascending. The anchor itself is included when it is in w.
func Expand(anchor Date, f Frequency, w Window) []Date {
	if anchor.IsZero() || w.IsEmpty() {
		return nil
	}

	days, months, ok := f.step()
	if !ok {
		warnFallback(f)
	}

	current := skipTo(anchor, days, w.Start)
	for current.Before(w.Start) {
		current = next(current, days, months)
	}

	var out []Date
	for current.BeforeOrEqual(w.End) {
		out = append(out, current)
		current = next(current, days, months)
	}
	return out
}
