/*
builder.go - Payment schedules per payment option

STRATEGIES BUILT (in this order):
  1. Cash:               one payment today, needs the balance to cover it
  2. Per credit card:    pay in full by the next due date
                         minimum payments while the purchase revolves
  3. Per BNPL account:   the provider's plan from the rule table

Each builder is independent: it gets the request and returns a strategy
with its schedule and costs, or an unavailable strategy with a reason.
Projection and scoring happen afterwards in Compare.

CREDIT CARD DUE DATE:
  The next statement due date is one month from today on the card's due
  day, capped at the 28th so every month has it.

REVOLVING:
  Month by month: interest on what is still owed is added first, then the
  card's minimum repayment for that balance is paid, never more than what
  is owed. Stops when cleared or after MaxRevolveMonths. Anything left at
  the cap is reported in RemainingAfterCap with StillRevolving set.
*/
package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/cashflow-engine/calendar"
	"github.com/warp/cashflow-engine/cashflow"
)

const (
	// MaxRevolveMonths caps minimum-payment simulations.
	MaxRevolveMonths = 24

	// Latest due day used for credit card payment dates.
	maxDueDay = 28
)

var (
	hundred = decimal.NewFromInt(100)

	// Percent per annum to a monthly fraction.
	annualPercentDivisor = decimal.NewFromInt(1200)
)

// MonthlyInterest returns one month of interest on balance at an annual
// percentage rate, rounded half away from zero.
func MonthlyInterest(balance cashflow.Cents, annualPercent decimal.Decimal) cashflow.Cents {
	return cashflow.FromDecimal(balance.Decimal().Mul(annualPercent).Div(annualPercentDivisor))
}

// Build returns one strategy per payment option in construction order,
// without projections or scores.
func Build(req Request, rules Rules) []PaymentStrategy {
	snap := req.Snapshot
	out := make([]PaymentStrategy, 0, 1+2*len(snap.CreditCards)+len(snap.BnplAccounts))

	out = append(out, buildCash(req))
	for _, card := range snap.CreditCards {
		out = append(out, buildCardPayInFull(req, card), buildCardRevolve(req, card))
	}
	for _, acct := range snap.BnplAccounts {
		out = append(out, buildBnpl(req, acct, rules))
	}
	return out
}

// =============================================================================
// CASH
// =============================================================================

func buildCash(req Request) PaymentStrategy {
	s := PaymentStrategy{
		Label:    "Cash",
		Kind:     KindCash,
		Provider: "cash",
	}
	if req.Snapshot.StartingBalance < req.Price {
		return unavailable(s, fmt.Sprintf("Balance of %s does not cover %s", req.Snapshot.StartingBalance, req.Price))
	}

	s.Available = true
	s.TotalCost = req.Price
	s.Schedule = []ScheduledPayment{{Date: req.Today, Amount: req.Price, Label: "Paid today"}}
	return s
}

// =============================================================================
// CREDIT CARDS
// =============================================================================

// NextDueDate returns the card due date used for a purchase made today.
func NextDueDate(today calendar.Date, dueDay int) calendar.Date {
	if dueDay > maxDueDay {
		dueDay = maxDueDay
	}
	return calendar.Clamped(today.Year(), today.Month()+1, dueDay)
}

func cardQualifies(req Request, card cashflow.CreditCard) (string, bool) {
	if card.AvailableCredit() < req.Price {
		return fmt.Sprintf("Available credit of %s on %s does not cover %s", card.AvailableCredit(), card.Name, req.Price), false
	}
	return "", true
}

func buildCardPayInFull(req Request, card cashflow.CreditCard) PaymentStrategy {
	s := PaymentStrategy{
		Label:    card.Name + " (pay in full)",
		Kind:     KindCardPayInFull,
		Provider: card.Name,
	}
	if reason, ok := cardQualifies(req, card); !ok {
		return unavailable(s, reason)
	}

	s.Available = true
	s.TotalCost = req.Price
	s.Schedule = []ScheduledPayment{{
		Date:   NextDueDate(req.Today, card.DueDay),
		Amount: req.Price,
		Label:  "Pay statement in full",
	}}
	return s
}

func buildCardRevolve(req Request, card cashflow.CreditCard) PaymentStrategy {
	s := PaymentStrategy{
		Label:    card.Name + " (minimum payments)",
		Kind:     KindCardMinimum,
		Provider: card.Name,
	}
	if reason, ok := cardQualifies(req, card); !ok {
		return unavailable(s, reason)
	}

	apr := decimal.NewFromFloat(card.PurchaseAPR)
	first := NextDueDate(req.Today, card.DueDay)

	remaining := req.Price
	var interest cashflow.Cents
	s.Schedule = []ScheduledPayment{}
	for month := 0; month < MaxRevolveMonths && remaining > 0; month++ {
		accrued := MonthlyInterest(remaining, apr)
		remaining += accrued
		interest += accrued

		payment := cashflow.MinCents(remaining, cashflow.MinimumPaymentFor(remaining))
		remaining -= payment
		s.Schedule = append(s.Schedule, ScheduledPayment{
			Date:   calendar.AdvanceN(first, calendar.Monthly, month),
			Amount: payment,
			Label:  fmt.Sprintf("Minimum payment %d", month+1),
		})
	}

	s.Available = true
	s.TotalFeesOrInterest = interest
	s.TotalCost = req.Price + interest
	if remaining > 0 {
		s.StillRevolving = true
		s.RemainingAfterCap = remaining
	}
	return s
}

// =============================================================================
// BNPL
// =============================================================================

func buildBnpl(req Request, acct cashflow.BnplAccount, rules Rules) PaymentStrategy {
	rule, ok := rules.Lookup(acct.Provider)
	if !ok {
		return unavailable(PaymentStrategy{
			Label:    acct.Provider,
			Kind:     KindBnpl,
			Provider: acct.Provider,
		}, fmt.Sprintf("Unsupported provider %q", acct.Provider))
	}

	s := PaymentStrategy{
		Label:    rule.DisplayName,
		Kind:     KindBnpl,
		Provider: rule.Provider,
	}
	switch {
	case req.Price > acct.AvailableLimit:
		return unavailable(s, fmt.Sprintf("Purchase of %s exceeds available %s limit of %s", req.Price, rule.DisplayName, acct.AvailableLimit))
	case req.Price < rule.MinAmount || req.Price > rule.MaxAmount:
		return unavailable(s, fmt.Sprintf("%s purchases must be between %s and %s", rule.DisplayName, rule.MinAmount, rule.MaxAmount))
	case rule.Plan != PlanPercentOfBalance && rule.Instalments <= 0:
		return unavailable(s, fmt.Sprintf("%s has no instalment schedule configured", rule.DisplayName))
	}

	s.Available = true
	switch rule.Plan {
	case PlanPercentOfBalance:
		return percentOfBalancePlan(s, req, rule)
	case PlanInterestBearing:
		return interestBearingPlan(s, req, rule)
	default:
		return equalInstalmentPlan(s, req, rule)
	}
}

// EqualInstalments splits price into n payments. Every payment but the last
// is price/n rounded down; the last takes the remainder so the sum is exact.
func EqualInstalments(price cashflow.Cents, n int) []cashflow.Cents {
	if n <= 0 {
		return nil
	}
	each := price / cashflow.Cents(n)
	out := make([]cashflow.Cents, n)
	for i := range out {
		out[i] = each
	}
	out[n-1] = price - each*cashflow.Cents(n-1)
	return out
}

func firstPaymentDate(today calendar.Date, rule ProviderRule) calendar.Date {
	if rule.FirstPaymentToday {
		return today
	}
	return calendar.Advance(today, rule.Frequency)
}

func equalInstalmentPlan(s PaymentStrategy, req Request, rule ProviderRule) PaymentStrategy {
	first := firstPaymentDate(req.Today, rule)
	amounts := EqualInstalments(req.Price, rule.Instalments)

	s.Schedule = make([]ScheduledPayment, len(amounts))
	for i, amount := range amounts {
		s.Schedule[i] = ScheduledPayment{
			Date:   calendar.AdvanceN(first, rule.Frequency, i),
			Amount: amount,
			Label:  fmt.Sprintf("Instalment %d of %d", i+1, len(amounts)),
		}
	}
	s.TotalFeesOrInterest = rule.MonthlyFee * cashflow.Cents(monthsSpanned(s.Schedule))
	s.TotalCost = req.Price + s.TotalFeesOrInterest
	return s
}

// Zip Pay style: repay the larger of a floor and a percentage of the balance
// each month, paying the account fee for every month with a repayment.
func percentOfBalancePlan(s PaymentStrategy, req Request, rule ProviderRule) PaymentStrategy {
	first := firstPaymentDate(req.Today, rule)

	remaining := req.Price
	var fees cashflow.Cents
	s.Schedule = []ScheduledPayment{}
	for month := 0; month < rule.MaxMonths && remaining > 0; month++ {
		pct := cashflow.CeilDecimal(remaining.Decimal().Mul(rule.RepaymentPercent).Div(hundred))
		payment := cashflow.MinCents(remaining, cashflow.MaxCents(rule.MinimumRepayment, pct))
		remaining -= payment
		fees += rule.MonthlyFee

		s.Schedule = append(s.Schedule, ScheduledPayment{
			Date:   calendar.AdvanceN(first, rule.Frequency, month),
			Amount: payment,
			Label:  fmt.Sprintf("Repayment %d", month+1),
		})
	}

	s.TotalFeesOrInterest = fees
	s.TotalCost = req.Price + fees
	if remaining > 0 {
		s.StillRevolving = true
		s.RemainingAfterCap = remaining
	}
	return s
}

// Zip Money style: fixed instalments, interest on the balance after the
// interest-free months is charged as a fee and never changes the payments.
func interestBearingPlan(s PaymentStrategy, req Request, rule ProviderRule) PaymentStrategy {
	first := firstPaymentDate(req.Today, rule)
	amounts := EqualInstalments(req.Price, rule.Instalments)

	remaining := req.Price
	var fees cashflow.Cents
	s.Schedule = make([]ScheduledPayment, len(amounts))
	for i, amount := range amounts {
		if i >= rule.InterestFreeMonths {
			fees += MonthlyInterest(remaining, rule.AnnualRate)
		}
		fees += rule.MonthlyFee
		remaining -= amount

		s.Schedule[i] = ScheduledPayment{
			Date:   calendar.AdvanceN(first, rule.Frequency, i),
			Amount: amount,
			Label:  fmt.Sprintf("Instalment %d of %d", i+1, len(amounts)),
		}
	}

	s.TotalFeesOrInterest = fees
	s.TotalCost = req.Price + fees
	return s
}

// monthsSpanned counts the distinct calendar months a schedule touches, used
// when a provider configured with a monthly fee runs a fortnightly plan.
func monthsSpanned(schedule []ScheduledPayment) int {
	seen := make(map[[2]int]struct{}, len(schedule))
	for _, p := range schedule {
		seen[[2]int{p.Date.Year(), int(p.Date.Month())}] = struct{}{}
	}
	return len(seen)
}

// =============================================================================
// EVENTS
// =============================================================================

// Events converts a strategy's schedule into outflows for the simulator.
func (s PaymentStrategy) Events() []cashflow.CashEvent {
	kind := cashflow.KindPurchase
	switch s.Kind {
	case KindBnpl:
		kind = cashflow.KindBnpl
	case KindCardPayInFull, KindCardMinimum:
		kind = cashflow.KindCreditCard
	}

	events := make([]cashflow.CashEvent, len(s.Schedule))
	for i, p := range s.Schedule {
		events[i] = cashflow.CashEvent{
			Date:        p.Date,
			Description: s.Label + ": " + p.Label,
			Amount:      -p.Amount,
			Kind:        kind,
		}
	}
	return events
}
