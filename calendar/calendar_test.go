package calendar_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cashflow-engine/calendar"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) calendar.Date {
	return calendar.New(year, month, day)
}

func window(from, to calendar.Date) calendar.Window {
	return calendar.Window{Start: from, End: to}
}

// =============================================================================
// DATE TESTS
// =============================================================================

func TestDate_AddMonths_ClampsToMonthEnd(t *testing.T) {
	assert.Equal(t, date(2025, time.February, 28), date(2025, time.January, 31).AddMonths(1))
	assert.Equal(t, date(2024, time.February, 29), date(2024, time.January, 31).AddMonths(1))
	assert.Equal(t, date(2025, time.April, 30), date(2025, time.January, 31).AddMonths(3))
	assert.Equal(t, date(2026, time.January, 15), date(2025, time.December, 15).AddMonths(1))
}

func TestDate_AddYears_LeapDay(t *testing.T) {
	assert.Equal(t, date(2025, time.February, 28), date(2024, time.February, 29).AddYears(1))
}

func TestParseDate_RejectsNonPaddedInput(t *testing.T) {
	_, err := calendar.ParseDate("2025-1-5")
	assert.ErrorIs(t, err, calendar.ErrInvalidDate)

	_, err = calendar.ParseDate("05/01/2025")
	assert.ErrorIs(t, err, calendar.ErrInvalidDate)

	d, err := calendar.ParseDate("2025-01-05")
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.January, 5), d)
}

func TestDate_JSONRoundTrip(t *testing.T) {
	type payload struct {
		Due calendar.Date `json:"due"`
	}

	b, err := json.Marshal(payload{Due: date(2025, time.March, 9)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"2025-03-09"}`, string(b))

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2025-12-31"}`), &p))
	assert.Equal(t, date(2025, time.December, 31), p.Due)

	err = json.Unmarshal([]byte(`{"due":"31-12-2025"}`), &p)
	assert.ErrorIs(t, err, calendar.ErrInvalidDate)
}

func TestWindow_DaysInclusive(t *testing.T) {
	w := calendar.WeeksFrom(date(2025, time.March, 1), 1)
	days := w.Days()

	assert.Len(t, days, 8)
	assert.Equal(t, 8, w.Len())
	assert.Equal(t, date(2025, time.March, 1), days[0])
	assert.Equal(t, date(2025, time.March, 8), days[7])
	assert.Empty(t, window(date(2025, time.March, 2), date(2025, time.March, 1)).Days())
}

// =============================================================================
// FREQUENCY TESTS
// =============================================================================

func TestParseFrequency(t *testing.T) {
	for _, s := range []string{"weekly", "Fortnightly", " monthly ", "QUARTERLY", "yearly"} {
		_, err := calendar.ParseFrequency(s)
		assert.NoError(t, err, s)
	}

	_, err := calendar.ParseFrequency("biweekly")
	assert.ErrorIs(t, err, calendar.ErrUnknownFrequency)
}

func TestFrequency_Validate_RestrictsSet(t *testing.T) {
	assert.NoError(t, calendar.Monthly.Validate(calendar.PaymentFrequencies...))
	assert.ErrorIs(t, calendar.Yearly.Validate(calendar.PaymentFrequencies...), calendar.ErrFrequencyNotAllowed)
	assert.ErrorIs(t, calendar.Frequency("daily").Validate(), calendar.ErrUnknownFrequency)
}

// =============================================================================
// EXPANSION TESTS
// =============================================================================

func TestExpand_AnchorInsideWindowIsFirst(t *testing.T) {
	anchor := date(2025, time.March, 3)
	got := calendar.Expand(anchor, calendar.Weekly, window(date(2025, time.March, 3), date(2025, time.March, 24)))

	assert.Equal(t, []calendar.Date{
		date(2025, time.March, 3),
		date(2025, time.March, 10),
		date(2025, time.March, 17),
		date(2025, time.March, 24),
	}, got)
}

func TestExpand_AnchorBeforeWindowSkipsForward(t *testing.T) {
	anchor := date(2025, time.January, 1)
	got := calendar.Expand(anchor, calendar.Fortnightly, window(date(2025, time.February, 1), date(2025, time.February, 28)))

	// Jan 1 + 14n: Jan 29, Feb 12, Feb 26
	assert.Equal(t, []calendar.Date{
		date(2025, time.February, 12),
		date(2025, time.February, 26),
	}, got)
}

func TestExpand_AnchorAfterWindowIsEmpty(t *testing.T) {
	got := calendar.Expand(date(2025, time.June, 1), calendar.Monthly, window(date(2025, time.January, 1), date(2025, time.May, 31)))
	assert.Empty(t, got)
}

func TestExpand_MonthlyFromThe31st(t *testing.T) {
	got := calendar.Expand(date(2025, time.January, 31), calendar.Monthly, window(date(2025, time.January, 1), date(2025, time.May, 31)))

	assert.Equal(t, []calendar.Date{
		date(2025, time.January, 31),
		date(2025, time.February, 28),
		date(2025, time.March, 28),
		date(2025, time.April, 28),
		date(2025, time.May, 28),
	}, got)
}

// Expanding a series and advancing its next date one pay at a time must
// agree, otherwise a stored next date drifts from the projection.
func TestExpand_MatchesRepeatedAdvance(t *testing.T) {
	anchor := date(2025, time.January, 31)
	w := window(anchor, date(2025, time.December, 31))

	for _, f := range calendar.AllFrequencies {
		got := calendar.Expand(anchor, f, w)

		current := anchor
		for i, d := range got {
			assert.Equal(t, current, d, "%s occurrence %d", f, i)
			assert.Equal(t, calendar.AdvanceN(anchor, f, i), d, "%s AdvanceN(%d)", f, i)
			current = calendar.Advance(current, f)
		}
	}
}

func TestExpand_QuarterlyAndYearly(t *testing.T) {
	w := window(date(2025, time.January, 1), date(2026, time.December, 31))

	quarterly := calendar.Expand(date(2024, time.November, 30), calendar.Quarterly, w)
	assert.Equal(t, date(2025, time.February, 28), quarterly[0])
	assert.Equal(t, date(2025, time.May, 28), quarterly[1])
	assert.Len(t, quarterly, 8)

	yearly := calendar.Expand(date(2020, time.July, 4), calendar.Yearly, w)
	assert.Equal(t, []calendar.Date{date(2025, time.July, 4), date(2026, time.July, 4)}, yearly)
}

func TestExpand_UnknownFrequencyFallsBackTo30Days(t *testing.T) {
	got := calendar.Expand(date(2025, time.January, 1), calendar.Frequency("daily"), window(date(2025, time.January, 1), date(2025, time.March, 31)))

	assert.Equal(t, []calendar.Date{
		date(2025, time.January, 1),
		date(2025, time.January, 31),
		date(2025, time.March, 2),
	}, got)
}

// Every emitted date lies in the window, dates strictly ascend, and each is
// exactly one step from the previous one.
func TestExpand_Properties(t *testing.T) {
	anchors := []calendar.Date{
		date(2024, time.January, 31),
		date(2024, time.February, 29),
		date(2025, time.March, 15),
		date(2025, time.August, 1),
	}
	windows := []calendar.Window{
		window(date(2025, time.January, 1), date(2025, time.December, 31)),
		window(date(2025, time.February, 10), date(2025, time.April, 9)),
		window(date(2025, time.August, 1), date(2025, time.August, 1)),
	}

	for _, f := range calendar.AllFrequencies {
		for _, anchor := range anchors {
			for _, w := range windows {
				got := calendar.Expand(anchor, f, w)
				for i, d := range got {
					require.True(t, w.Contains(d), "%s %s %s: %s outside window", f, anchor, w, d)
					if i == 0 {
						continue
					}
					prev := got[i-1]
					require.True(t, prev.Before(d), "%s: not ascending", f)

					switch f {
					case calendar.Weekly:
						assert.Equal(t, 7, calendar.DaysBetween(prev, d))
					case calendar.Fortnightly:
						assert.Equal(t, 14, calendar.DaysBetween(prev, d))
					default:
						months := map[calendar.Frequency]int{calendar.Monthly: 1, calendar.Quarterly: 3, calendar.Yearly: 12}[f]
						gap := (d.Year()-prev.Year())*12 + int(d.Month()) - int(prev.Month())
						assert.Equal(t, months, gap, "%s: %s -> %s", f, prev, d)
					}
				}
			}
		}
	}
}

func TestNextAfter(t *testing.T) {
	today := date(2025, time.March, 10)

	// Already in the future: unchanged
	assert.Equal(t, date(2025, time.March, 13), calendar.NextAfter(date(2025, time.March, 13), calendar.Fortnightly, today))

	// Due today: strictly after means one more step
	assert.Equal(t, date(2025, time.March, 24), calendar.NextAfter(today, calendar.Fortnightly, today))

	// Stale monthly anchor: Oct 31 -> Nov 30 -> Dec 30 -> Jan 30 -> Feb 28 -> Mar 28
	assert.Equal(t, date(2025, time.March, 28), calendar.NextAfter(date(2024, time.October, 31), calendar.Monthly, today))
}

func TestAdvance_SingleStep(t *testing.T) {
	assert.Equal(t, date(2025, time.March, 8), calendar.Advance(date(2025, time.March, 1), calendar.Weekly))
	assert.Equal(t, date(2025, time.February, 28), calendar.Advance(date(2025, time.January, 31), calendar.Monthly))
	assert.Equal(t, date(2026, time.March, 1), calendar.Advance(date(2025, time.March, 1), calendar.Yearly))
}
