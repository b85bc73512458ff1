package cashflow

import (
	"github.com/warp/cashflow-engine/calendar"
)

// =============================================================================
// EVENT COLLECTOR - Recurring inputs -> dated, signed events
// =============================================================================

// CollectEvents expands every recurring input of snap over w and appends
// extra unchanged. Order: incomes, expenses, BNPL plans, credit cards, extra;
// input order is kept inside each group.
//
// extra is how "what if" scenarios reuse the simulator: a hypothetical
// purchase or a strategy's own payment schedule rides along with the
// baseline events.
func CollectEvents(w calendar.Window, snap Snapshot, extra ...CashEvent) []CashEvent {
	var events []CashEvent
	events = append(events, IncomeEvents(w, snap.Incomes)...)
	events = append(events, CollectObligations(w, snap)...)
	events = append(events, extra...)
	return events
}

// CollectObligations returns the outflows of snap in w: expenses, BNPL
// instalments and credit card minimum payments. Income is excluded.
func CollectObligations(w calendar.Window, snap Snapshot) []CashEvent {
	var events []CashEvent
	events = append(events, ExpenseEvents(w, snap.Expenses)...)
	events = append(events, BnplEvents(w, snap.BnplPlans)...)
	events = append(events, CreditCardEvents(w, snap.CreditCards)...)
	return events
}

// IncomeEvents returns one inflow per income occurrence in w.
func IncomeEvents(w calendar.Window, incomes []IncomeSource) []CashEvent {
	var events []CashEvent
	for _, inc := range incomes {
		for _, d := range calendar.Expand(inc.NextDate, inc.Frequency, w) {
			events = append(events, CashEvent{
				Date:        d,
				Description: inc.Name,
				Amount:      inc.Amount,
				Kind:        KindIncome,
			})
		}
	}
	return events
}

// ExpenseEvents returns one outflow per bill occurrence in w.
func ExpenseEvents(w calendar.Window, expenses []FixedExpense) []CashEvent {
	var events []CashEvent
	for _, exp := range expenses {
		for _, d := range calendar.Expand(exp.NextDueDate, exp.Frequency, w) {
			events = append(events, CashEvent{
				Date:        d,
				Description: exp.Name,
				Amount:      -exp.Amount,
				Kind:        KindExpense,
			})
		}
	}
	return events
}

// BnplEvents returns the instalments of each plan that fall in w. A plan never
// produces more events than it has instalments remaining, however long the
// window is.
func BnplEvents(w calendar.Window, plans []BnplPlan) []CashEvent {
	var events []CashEvent
	for _, plan := range plans {
		if plan.InstalmentsRemaining <= 0 {
			continue
		}
		dates := calendar.Expand(plan.NextPaymentDate, plan.Frequency, w)
		if len(dates) > plan.InstalmentsRemaining {
			dates = dates[:plan.InstalmentsRemaining]
		}
		for _, d := range dates {
			events = append(events, CashEvent{
				Date:        d,
				Description: plan.Label(),
				Amount:      -plan.InstalmentAmount,
				Kind:        KindBnpl,
			})
		}
	}
	return events
}

// CreditCardEvents returns one minimum payment per month on each card's due
// day (clamped to short months) while the card carries a balance.
func CreditCardEvents(w calendar.Window, cards []CreditCard) []CashEvent {
	var events []CashEvent
	for _, card := range cards {
		if card.OutstandingBalance <= 0 || card.MinimumPayment <= 0 {
			continue
		}
		for _, d := range MonthlyDueDates(card.DueDay, w) {
			events = append(events, CashEvent{
				Date:        d,
				Description: card.Label(),
				Amount:      -card.MinimumPayment,
				Kind:        KindCreditCard,
			})
		}
	}
	return events
}

// MonthlyDueDates returns the dueDay of every month that falls in w. The first
// candidate is dueDay in w.Start's month, rolled to the next month when it is
// before w.Start.
func MonthlyDueDates(dueDay int, w calendar.Window) []calendar.Date {
	if w.IsEmpty() {
		return nil
	}
	year, month := w.Start.Year(), w.Start.Month()
	current := calendar.Clamped(year, month, dueDay)
	if current.Before(w.Start) {
		month++
		current = calendar.Clamped(year, month, dueDay)
	}

	var dates []calendar.Date
	for current.BeforeOrEqual(w.End) {
		dates = append(dates, current)
		month++
		current = calendar.Clamped(year, month, dueDay)
	}
	return dates
}
