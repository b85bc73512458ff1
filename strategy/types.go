/*
Package strategy compares ways of paying for a purchase.

PURPOSE:
  "Can I afford this, and how should I pay for it?" For a hypothetical
  purchase the package builds one candidate plan per payment option the
  household has (cash, each credit card, each BNPL account), projects the
  household balance with that plan's payments injected, and scores the
  plans on cost, cashflow stress and simplicity.

KEY CONCEPTS:
  - PaymentStrategy:  One candidate plan with its schedule and projection
  - ScheduledPayment: One payment the household makes under a plan
  - ProviderRule:     How a BNPL provider finances a purchase (providers.go)

RANKING:
  Available strategies sort before unavailable ones, then by score
  descending. Ties keep construction order: cash, credit cards in input
  order, BNPL accounts in input order.

EXAMPLE:
  strategies := strategy.Compare(strategy.Request{
      Price:    cashflow.Dollars(400),
      Today:    calendar.Today(),
      Snapshot: snap,
  }, strategy.DefaultRules())

  best, ok := strategy.Best(strategies)

SEE ALSO:
  - builder.go: Schedules per payment option
  - score.go: Scoring and ranking
  - cashflow/: Balance projection the scores are based on
*/
package strategy

import (
	"github.com/warp/cashflow-engine/calendar"
	"github.com/warp/cashflow-engine/cashflow"
)

// Kind identifies the payment option a strategy uses.
type Kind string

const (
	KindCash          Kind = "cash"
	KindCardPayInFull Kind = "credit_card_pay_in_full"
	KindCardMinimum   Kind = "credit_card_minimum"
	KindBnpl          Kind = "bnpl"
)

// ScheduledPayment is one payment made under a strategy.
type ScheduledPayment struct {
	Date   calendar.Date  `json:"date"`
	Amount cashflow.Cents `json:"amount"`
	Label  string         `json:"label"`
}

// PaymentStrategy is one way to pay for the purchase.
type PaymentStrategy struct {
	Label    string `json:"label"`
	Kind     Kind   `json:"kind"`
	Provider string `json:"provider"` // "cash", card name or BNPL provider id

	Available         bool   `json:"available"`
	UnavailableReason string `json:"unavailable_reason,omitempty"`

	TotalCost           cashflow.Cents     `json:"total_cost"`
	TotalFeesOrInterest cashflow.Cents     `json:"total_fees_or_interest"`
	Schedule            []ScheduledPayment `json:"payment_schedule"`

	Projection              []cashflow.DailyBalance `json:"projected_daily_balances,omitempty"`
	MinimumProjectedBalance cashflow.Cents          `json:"minimum_projected_balance"`
	SavingsGoalImpact       cashflow.Cents          `json:"savings_goal_impact"`

	// Set when a revolving plan hits its month cap with money still owed.
	StillRevolving    bool           `json:"still_revolving,omitempty"`
	RemainingAfterCap cashflow.Cents `json:"remaining_after_cap,omitempty"`

	Score int `json:"score"`
}

// NumberOfPayments returns how many payments the schedule has.
func (s PaymentStrategy) NumberOfPayments() int { return len(s.Schedule) }

// ScheduledTotal returns the sum of the scheduled payments.
func (s PaymentStrategy) ScheduledTotal() cashflow.Cents {
	var total cashflow.Cents
	for _, p := range s.Schedule {
		total += p.Amount
	}
	return total
}

// Request is a hypothetical purchase against a household snapshot.
type Request struct {
	Price           cashflow.Cents
	Description     string
	Today           calendar.Date
	Snapshot        cashflow.Snapshot
	ProjectionWeeks int
}

func (r Request) description() string {
	if r.Description == "" {
		return "Purchase"
	}
	return r.Description
}

func unavailable(s PaymentStrategy, reason string) PaymentStrategy {
	s.Available = false
	s.UnavailableReason = reason
	s.Schedule = []ScheduledPayment{}
	return s
}
