/*
Package cashflow projects a household's bank balance day by day.

PURPOSE:
  Given irregular income, recurring bills, BNPL instalment plans and credit
  card minimum payments, this package answers three questions:
  - What will my balance be on each day of the next N weeks? (Project)
  - How much can I spend before my next pay lands? (ComputeSafeToSpend)
  - What leaves my account in the next two weeks? (UpcomingPayments)

KEY CONCEPTS IN THIS FILE (types.go):
  - Cents:     Money as integer minor units, never floating point
  - Inputs:    Recurring income, bills, BNPL plans, credit cards
  - CashEvent: One dated, signed movement of money
  - DailyBalance: Balance at the end of one day plus that day's events

DESIGN PRINCIPLES:
  1. Purity: every entry point is a function of (snapshot, today)
  2. No mutation: inputs are read-only, outputs are freshly allocated
  3. Edge cases are data: negative balances are answers, not errors

USAGE:
  snap := cashflow.Snapshot{
      StartingBalance: 150000,
      Incomes: []cashflow.IncomeSource{{
          Name: "Salary", Amount: 200000,
          Frequency: calendar.Fortnightly, NextDate: payday,
      }},
  }
  days := cashflow.Project(snap, calendar.Today(), 8)

SEE ALSO:
  - collect.go: Inputs -> CashEvents
  - simulate.go: CashEvents -> DailyBalances
  - safetospend.go: Single pay-cycle variant
  - strategy/: Purchase strategy comparison built on Project
*/
package cashflow

import (
	"github.com/shopspring/decimal"
	"github.com/warp/cashflow-engine/calendar"
)

// =============================================================================
// CENTS - Money as integer minor units
// =============================================================================

// Cents is an amount of money in minor units (1/100 of a dollar).
type Cents int64

var hundred = decimal.NewFromInt(100)

// Dollars converts a whole-dollar amount.
func Dollars(d int64) Cents { return Cents(d * 100) }

// Decimal returns the amount in cents as a decimal.
func (c Cents) Decimal() decimal.Decimal { return decimal.NewFromInt(int64(c)) }

// FromDecimal rounds a cent-denominated decimal half away from zero.
func FromDecimal(d decimal.Decimal) Cents { return Cents(d.Round(0).IntPart()) }

// CeilDecimal rounds a cent-denominated decimal up to the next whole cent.
func CeilDecimal(d decimal.Decimal) Cents { return Cents(d.Ceil().IntPart()) }

func (c Cents) Abs() Cents {
	if c < 0 {
		return -c
	}
	return c
}

// String formats the amount as dollars, e.g. "$1,234.56" or "-$12.00".
func (c Cents) String() string {
	sign := ""
	if c < 0 {
		sign = "-"
	}
	whole := c.Abs().Decimal().Div(hundred).StringFixed(2)

	intPart, frac := whole[:len(whole)-3], whole[len(whole)-3:]
	var grouped []byte
	for i := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, intPart[i])
	}
	return sign + "$" + string(grouped) + frac
}

// MaxCents returns the larger of a and b.
func MaxCents(a, b Cents) Cents {
	if a > b {
		return a
	}
	return b
}

// MinCents returns the smaller of a and b.
func MinCents(a, b Cents) Cents {
	if a < b {
		return a
	}
	return b
}

// =============================================================================
// INPUTS - Supplied by collaborators from persisted records
// =============================================================================

// IncomeSource is a recurring inflow. NextDate is advanced by whoever marks a
// payment as received; the engine only reads it.
type IncomeSource struct {
	Name      string             `json:"name"`
	Amount    Cents              `json:"amount"`
	Frequency calendar.Frequency `json:"frequency"`
	NextDate  calendar.Date      `json:"next_date"`
}

// FixedExpense is a recurring bill.
type FixedExpense struct {
	Name        string             `json:"name"`
	Amount      Cents              `json:"amount"`
	Frequency   calendar.Frequency `json:"frequency"`
	NextDueDate calendar.Date      `json:"next_due_date"`
}

// BnplPlan is an existing buy-now-pay-later purchase still being paid off.
type BnplPlan struct {
	ItemName             string             `json:"item_name"`
	Provider             string             `json:"provider"`
	InstalmentAmount     Cents              `json:"instalment_amount"`
	Frequency            calendar.Frequency `json:"frequency"`
	InstalmentsRemaining int                `json:"instalments_remaining"`
	NextPaymentDate      calendar.Date      `json:"next_payment_date"`
}

// Label is how the plan shows up in obligation lists.
func (p BnplPlan) Label() string { return p.Provider + " - " + p.ItemName }

// CreditCard is a card account with a monthly minimum payment.
type CreditCard struct {
	Name               string `json:"name"`
	OutstandingBalance Cents  `json:"outstanding_balance"`
	MinimumPayment     Cents  `json:"minimum_payment"`
	DueDay             int    `json:"due_day"`

	// Used by purchase strategies only.
	CreditLimit Cents   `json:"credit_limit"`
	PurchaseAPR float64 `json:"purchase_apr"`
}

// Label is how the card's minimum payment shows up in obligation lists.
func (c CreditCard) Label() string { return c.Name + " min. payment" }

// AvailableCredit is the unused part of the limit.
func (c CreditCard) AvailableCredit() Cents { return c.CreditLimit - c.OutstandingBalance }

// WithPolicyMinimum returns a copy of c whose MinimumPayment is set from the
// balance by MinimumPaymentFor.
func (c CreditCard) WithPolicyMinimum() CreditCard {
	c.MinimumPayment = MinimumPaymentFor(c.OutstandingBalance)
	return c
}

// Credit card minimum repayment policy: the greater of a flat floor and a
// percentage of the balance, rounded up.
const (
	MinimumPaymentFloor   Cents = 2500
	MinimumPaymentPercent       = 2
)

// MinimumPaymentFor returns max(2500, ceil(balance * 2%)), or 0 for a
// non-positive balance.
func MinimumPaymentFor(balance Cents) Cents {
	if balance <= 0 {
		return 0
	}
	pct := CeilDecimal(balance.Decimal().Mul(decimal.NewFromInt(MinimumPaymentPercent)).Div(hundred))
	return MaxCents(MinimumPaymentFloor, pct)
}

// Snapshot is everything the engine needs about a household at one moment.
type Snapshot struct {
	StartingBalance Cents          `json:"starting_balance"`
	Incomes         []IncomeSource `json:"incomes,omitempty"`
	Expenses        []FixedExpense `json:"expenses,omitempty"`
	BnplPlans       []BnplPlan     `json:"bnpl_plans,omitempty"`
	CreditCards     []CreditCard   `json:"credit_cards,omitempty"`
	BnplAccounts    []BnplAccount  `json:"bnpl_accounts,omitempty"`
}

// BnplAccount is a provider account the household could finance a new
// purchase with.
type BnplAccount struct {
	Provider       string `json:"provider"`
	AvailableLimit Cents  `json:"available_limit"`
}

// =============================================================================
// OUTPUTS
// =============================================================================

// EventKind classifies a CashEvent by where it came from.
type EventKind string

const (
	KindIncome     EventKind = "income"
	KindExpense    EventKind = "expense"
	KindBnpl       EventKind = "bnpl"
	KindCreditCard EventKind = "credit_card"
	KindPurchase   EventKind = "purchase"
)

// CashEvent is one dated movement of money. Positive amounts are inflows.
type CashEvent struct {
	Date        calendar.Date `json:"date"`
	Description string        `json:"description"`
	Amount      Cents         `json:"amount"`
	Kind        EventKind     `json:"kind"`
}

// DailyBalance is the running balance after all of Date's events.
type DailyBalance struct {
	Date    calendar.Date `json:"date"`
	Balance Cents         `json:"balance"`
	Events  []CashEvent   `json:"events"`
}
