/*
simulate.go - Daily balance simulation

PURPOSE:
  Walks a window day by day applying each day's events to a running
  balance. The result has exactly one entry per calendar day, including
  quiet days where the balance just carries over.

INVARIANTS:
  - days[0].Balance == start + sum(events on window start)
  - days[i].Balance == days[i-1].Balance + sum(days[i].Events)
  - events on the same day keep the order they were collected in

WINDOWS:
  Project:           [today, today + weeks*7], default 8 weeks
  UpcomingPayments:  [today, today + 14 days]
  ComputeSafeToSpend: [today, next pay date), see safetospend.go

SEE ALSO:
  - collect.go: Produces the events
  - strategy/builder.go: Re-runs Project per payment strategy
*/
package cashflow

import (
	"github.com/warp/cashflow-engine/calendar"
)

// DefaultProjectionWeeks is the look-ahead used when the caller gives none.
const DefaultProjectionWeeks = 8

// Simulate returns the end-of-day balance for every day of w. Events outside
// w are ignored.
func Simulate(start Cents, events []CashEvent, w calendar.Window) []DailyBalance {
	byDay := make(map[calendar.Date][]CashEvent, len(events))
	for _, e := range events {
		if w.Contains(e.Date) {
			byDay[e.Date] = append(byDay[e.Date], e)
		}
	}

	days := make([]DailyBalance, 0, w.Len())
	balance := start
	for _, d := range w.Days() {
		dayEvents := byDay[d]
		for _, e := range dayEvents {
			balance += e.Amount
		}
		if dayEvents == nil {
			dayEvents = []CashEvent{}
		}
		days = append(days, DailyBalance{Date: d, Balance: balance, Events: dayEvents})
	}
	return days
}

// ProjectionWindow returns the window Project uses for the given weeks.
// weeks <= 0 means DefaultProjectionWeeks.
func ProjectionWindow(today calendar.Date, weeks int) calendar.Window {
	if weeks <= 0 {
		weeks = DefaultProjectionWeeks
	}
	return calendar.WeeksFrom(today, weeks)
}

// Project simulates snap's balance from today over the given number of weeks,
// with extra events injected on top of the recurring ones.
func Project(snap Snapshot, today calendar.Date, weeks int, extra ...CashEvent) []DailyBalance {
	w := ProjectionWindow(today, weeks)
	events := CollectEvents(w, snap, extra...)
	return Simulate(snap.StartingBalance, events, w)
}

// MinimumBalance returns the lowest end-of-day balance, or 0 for no days.
func MinimumBalance(days []DailyBalance) Cents {
	if len(days) == 0 {
		return 0
	}
	lowest := days[0].Balance
	for _, d := range days[1:] {
		if d.Balance < lowest {
			lowest = d.Balance
		}
	}
	return lowest
}

// EndingBalance returns the balance on the last day, or 0 for no days.
func EndingBalance(days []DailyBalance) Cents {
	if len(days) == 0 {
		return 0
	}
	return days[len(days)-1].Balance
}

// FirstNegative returns the first day whose balance is below zero.
func FirstNegative(days []DailyBalance) (DailyBalance, bool) {
	for _, d := range days {
		if d.Balance < 0 {
			return d, true
		}
	}
	return DailyBalance{}, false
}
