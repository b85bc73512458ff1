/*
safetospend.go - How much can be spent before the next pay lands

PURPOSE:
  A single-cycle variant of the projection. Instead of a fixed number of
  weeks the window ends the day before the next income, because the
  question is "what is not already earmarked before money comes in again".

ALGORITHM:
  1. Advance every income's next date until it is strictly after today;
     the earliest is the next pay date. No incomes -> today + 14 days,
     flagged as estimated.
  2. Collect expense, BNPL and credit card outflows in [today, payDate).
  3. SafeToSpend = balance - sum(outflows). Negative means overcommitted.

EXAMPLE:
  Balance $1,000, pay $2,000 in 3 days, rent $500 in 10 days:
    next pay in 3 days, rent is after it, safe to spend = $1,000

SEE ALSO:
  - collect.go: CollectObligations
  - calendar/recurrence.go: NextAfter
*/
package cashflow

import (
	"sort"

	"github.com/warp/cashflow-engine/calendar"
)

// DefaultPayCycleDays is the assumed distance to the next pay when the
// household has no income configured.
const DefaultPayCycleDays = 14

// Obligation is an outflow due before the next pay.
type Obligation struct {
	Date   calendar.Date `json:"date"`
	Label  string        `json:"label"`
	Amount Cents         `json:"amount"` // positive amount owed
	Kind   EventKind     `json:"kind"`
}

// SafeToSpend is the answer for the current pay cycle.
type SafeToSpend struct {
	Amount              Cents         `json:"safe_to_spend"`
	CurrentBalance      Cents         `json:"current_balance"`
	TotalObligations    Cents         `json:"total_obligations"`
	NextPayDate         calendar.Date `json:"next_pay_date"`
	DaysUntilPay        int           `json:"days_until_pay"`
	PayDateEstimated    bool          `json:"pay_date_estimated"`
	UpcomingObligations []Obligation  `json:"upcoming_obligations"`
}

// IsOvercommitted reports whether obligations exceed the current balance.
func (s SafeToSpend) IsOvercommitted() bool { return s.Amount < 0 }

// NextPayDate returns the earliest income date strictly after today. ok is
// false when there are no incomes.
func NextPayDate(incomes []IncomeSource, today calendar.Date) (next calendar.Date, ok bool) {
	for _, inc := range incomes {
		if inc.NextDate.IsZero() {
			continue
		}
		candidate := calendar.NextAfter(inc.NextDate, inc.Frequency, today)
		if !ok || candidate.Before(next) {
			next, ok = candidate, true
		}
	}
	return next, ok
}

// ComputeSafeToSpend returns what snap can spend today without missing an
// obligation due before the next pay.
func ComputeSafeToSpend(snap Snapshot, today calendar.Date) SafeToSpend {
	payDate, ok := NextPayDate(snap.Incomes, today)
	if !ok {
		payDate = today.AddDays(DefaultPayCycleDays)
	}

	w := calendar.Window{Start: today, End: payDate.AddDays(-1)}
	events := CollectObligations(w, snap)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})

	obligations := make([]Obligation, 0, len(events))
	var total Cents
	for _, e := range events {
		owed := -e.Amount
		total += owed
		obligations = append(obligations, Obligation{
			Date:   e.Date,
			Label:  e.Description,
			Amount: owed,
			Kind:   e.Kind,
		})
	}

	return SafeToSpend{
		Amount:              snap.StartingBalance - total,
		CurrentBalance:      snap.StartingBalance,
		TotalObligations:    total,
		NextPayDate:         payDate,
		DaysUntilPay:        calendar.DaysBetween(today, payDate),
		PayDateEstimated:    !ok,
		UpcomingObligations: obligations,
	}
}
