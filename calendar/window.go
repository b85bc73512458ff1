package calendar

// =============================================================================
// WINDOW - Inclusive range of days
// =============================================================================

// Window is the inclusive range [Start, End] a projection covers.
type Window struct {
	Start Date
	End   Date
}

// WeeksFrom returns the window [start, start + weeks*7 days].
func WeeksFrom(start Date, weeks int) Window {
	return Window{Start: start, End: start.AddDays(weeks * 7)}
}

// DaysFrom returns the window [start, start + days].
func DaysFrom(start Date, days int) Window {
	return Window{Start: start, End: start.AddDays(days)}
}

// Contains returns true if d is within [Start, End].
func (w Window) Contains(d Date) bool {
	return d.AfterOrEqual(w.Start) && d.BeforeOrEqual(w.End)
}

// IsEmpty returns true when End is before Start.
func (w Window) IsEmpty() bool {
	return w.End.Before(w.Start)
}

// Len returns the number of days in the window (0 when empty).
func (w Window) Len() int {
	if w.IsEmpty() {
		return 0
	}
	return DaysBetween(w.Start, w.End) + 1
}

// Days returns every day in the window in ascending order.
func (w Window) Days() []Date {
	days := make([]Date, 0, w.Len())
	for current := w.Start; current.BeforeOrEqual(w.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

func (w Window) String() string {
	return "[" + w.Start.String() + ", " + w.End.String() + "]"
}
