package cashflow

import (
	"sort"

	"github.com/warp/cashflow-engine/calendar"
)

// DefaultUpcomingDays is the dashboard "upcoming payments" horizon.
const DefaultUpcomingDays = 14

// UpcomingPayments lists the outflows of snap in [today, today+days], sorted
// by date. days <= 0 means DefaultUpcomingDays.
func UpcomingPayments(snap Snapshot, today calendar.Date, days int) []Obligation {
	if days <= 0 {
		days = DefaultUpcomingDays
	}
	events := CollectObligations(calendar.DaysFrom(today, days), snap)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})

	out := make([]Obligation, len(events))
	for i, e := range events {
		out[i] = Obligation{Date: e.Date, Label: e.Description, Amount: -e.Amount, Kind: e.Kind}
	}
	return out
}
