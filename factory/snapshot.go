/*
Package factory converts JSON household snapshots into engine inputs.

PURPOSE:
  The engine works on typed values (calendar.Date, calendar.Frequency,
  cashflow.Cents). Anything arriving over HTTP, from a file or from the
  database is JSON with plain strings and integers, so it goes through
  here first. Malformed values are rejected at this boundary with a
  FieldError naming the offending field; the engine never sees them.

JSON SCHEMA (amounts are integer cents, dates are YYYY-MM-DD):
  {
    "starting_balance": 150000,
    "incomes": [
      {"name": "Salary", "amount": 200000, "frequency": "fortnightly", "next_date": "2025-03-14"}
    ],
    "expenses": [
      {"name": "Rent", "amount": 180000, "frequency": "monthly", "next_due_date": "2025-03-15"}
    ],
    "bnpl_plans": [
      {"item_name": "Headphones", "provider": "afterpay", "instalment_amount": 5000,
       "frequency": "fortnightly", "instalments_remaining": 2, "next_payment_date": "2025-03-12"}
    ],
    "credit_cards": [
      {"name": "Visa", "outstanding_balance": 120000, "minimum_payment": 2500,
       "due_day": 20, "credit_limit": 500000, "purchase_apr": 19.99}
    ],
    "bnpl_accounts": [
      {"provider": "afterpay", "available_limit": 100000}
    ]
  }

VALIDATION:
  - frequency:       incomes and BNPL plans weekly/fortnightly/monthly,
                     expenses any supported frequency
  - dates:           required, zero-padded YYYY-MM-DD
  - amounts:         never negative (starting_balance may be, overdrawn)
  - due_day:         1-31
  - minimum_payment: omitted means the card policy minimum for the balance

SEE ALSO:
  - errors.go: FieldError and sentinels
  - cashflow/types.go: The typed inputs produced here
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/warp/cashflow-engine/calendar"
	"github.com/warp/cashflow-engine/cashflow"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// SnapshotJSON is the wire form of a household snapshot.
type SnapshotJSON struct {
	StartingBalance int64             `json:"starting_balance"`
	Incomes         []IncomeJSON      `json:"incomes,omitempty"`
	Expenses        []ExpenseJSON     `json:"expenses,omitempty"`
	BnplPlans       []BnplPlanJSON    `json:"bnpl_plans,omitempty"`
	CreditCards     []CreditCardJSON  `json:"credit_cards,omitempty"`
	BnplAccounts    []BnplAccountJSON `json:"bnpl_accounts,omitempty"`
}

type IncomeJSON struct {
	Name      string `json:"name"`
	Amount    int64  `json:"amount"`
	Frequency string `json:"frequency"`
	NextDate  string `json:"next_date"`
}

type ExpenseJSON struct {
	Name        string `json:"name"`
	Amount      int64  `json:"amount"`
	Frequency   string `json:"frequency"`
	NextDueDate string `json:"next_due_date"`
}

type BnplPlanJSON struct {
	ItemName             string `json:"item_name"`
	Provider             string `json:"provider"`
	InstalmentAmount     int64  `json:"instalment_amount"`
	Frequency            string `json:"frequency"`
	InstalmentsRemaining int    `json:"instalments_remaining"`
	NextPaymentDate      string `json:"next_payment_date"`
}

type CreditCardJSON struct {
	Name               string  `json:"name"`
	OutstandingBalance int64   `json:"outstanding_balance"`
	MinimumPayment     *int64  `json:"minimum_payment,omitempty"`
	DueDay             int     `json:"due_day"`
	CreditLimit        int64   `json:"credit_limit,omitempty"`
	PurchaseAPR        float64 `json:"purchase_apr,omitempty"`
}

type BnplAccountJSON struct {
	Provider       string `json:"provider"`
	AvailableLimit int64  `json:"available_limit"`
}

// PurchaseJSON is a hypothetical purchase against a snapshot.
type PurchaseJSON struct {
	Snapshot    SnapshotJSON `json:"snapshot"`
	Price       int64        `json:"price"`
	Description string       `json:"description,omitempty"`
}

// =============================================================================
// SNAPSHOT FACTORY
// =============================================================================

// ParseSnapshot decodes and validates a JSON snapshot.
func ParseSnapshot(data []byte) (cashflow.Snapshot, error) {
	var sj SnapshotJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return cashflow.Snapshot{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return FromJSON(sj)
}

// ParsePurchase decodes a purchase request and returns the snapshot, price
// and description.
func ParsePurchase(data []byte) (cashflow.Snapshot, cashflow.Cents, string, error) {
	var pj PurchaseJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return cashflow.Snapshot{}, 0, "", fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	price, err := ParsePrice(pj.Price)
	if err != nil {
		return cashflow.Snapshot{}, 0, "", err
	}
	snap, err := FromJSON(pj.Snapshot)
	if err != nil {
		return cashflow.Snapshot{}, 0, "", err
	}
	return snap, price, pj.Description, nil
}

// ParsePrice validates a purchase price in cents.
func ParsePrice(price int64) (cashflow.Cents, error) {
	if price <= 0 {
		return 0, fieldErr("price", price, ErrInvalidAmount)
	}
	return cashflow.Cents(price), nil
}

// FromJSON converts a decoded snapshot into engine inputs. The first invalid
// field is reported.
func FromJSON(sj SnapshotJSON) (cashflow.Snapshot, error) {
	snap := cashflow.Snapshot{StartingBalance: cashflow.Cents(sj.StartingBalance)}

	for i, ij := range sj.Incomes {
		income, err := parseIncome(fmt.Sprintf("incomes[%d]", i), ij)
		if err != nil {
			return cashflow.Snapshot{}, err
		}
		snap.Incomes = append(snap.Incomes, income)
	}

	for i, ej := range sj.Expenses {
		expense, err := parseExpense(fmt.Sprintf("expenses[%d]", i), ej)
		if err != nil {
			return cashflow.Snapshot{}, err
		}
		snap.Expenses = append(snap.Expenses, expense)
	}

	for i, bj := range sj.BnplPlans {
		plan, err := parseBnplPlan(fmt.Sprintf("bnpl_plans[%d]", i), bj)
		if err != nil {
			return cashflow.Snapshot{}, err
		}
		snap.BnplPlans = append(snap.BnplPlans, plan)
	}

	for i, cj := range sj.CreditCards {
		card, err := parseCreditCard(fmt.Sprintf("credit_cards[%d]", i), cj)
		if err != nil {
			return cashflow.Snapshot{}, err
		}
		snap.CreditCards = append(snap.CreditCards, card)
	}

	for i, aj := range sj.BnplAccounts {
		path := fmt.Sprintf("bnpl_accounts[%d]", i)
		if aj.Provider == "" {
			return cashflow.Snapshot{}, fieldErr(path+".provider", aj.Provider, ErrMissingField)
		}
		limit, err := parseAmount(path+".available_limit", aj.AvailableLimit)
		if err != nil {
			return cashflow.Snapshot{}, err
		}
		snap.BnplAccounts = append(snap.BnplAccounts, cashflow.BnplAccount{Provider: aj.Provider, AvailableLimit: limit})
	}

	return snap, nil
}

// ToJSON converts engine inputs back to the wire form.
func ToJSON(snap cashflow.Snapshot) SnapshotJSON {
	sj := SnapshotJSON{StartingBalance: int64(snap.StartingBalance)}

	for _, in := range snap.Incomes {
		sj.Incomes = append(sj.Incomes, IncomeJSON{
			Name:      in.Name,
			Amount:    int64(in.Amount),
			Frequency: string(in.Frequency),
			NextDate:  in.NextDate.String(),
		})
	}
	for _, ex := range snap.Expenses {
		sj.Expenses = append(sj.Expenses, ExpenseJSON{
			Name:        ex.Name,
			Amount:      int64(ex.Amount),
			Frequency:   string(ex.Frequency),
			NextDueDate: ex.NextDueDate.String(),
		})
	}
	for _, p := range snap.BnplPlans {
		sj.BnplPlans = append(sj.BnplPlans, BnplPlanJSON{
			ItemName:             p.ItemName,
			Provider:             p.Provider,
			InstalmentAmount:     int64(p.InstalmentAmount),
			Frequency:            string(p.Frequency),
			InstalmentsRemaining: p.InstalmentsRemaining,
			NextPaymentDate:      p.NextPaymentDate.String(),
		})
	}
	for _, c := range snap.CreditCards {
		minimum := int64(c.MinimumPayment)
		sj.CreditCards = append(sj.CreditCards, CreditCardJSON{
			Name:               c.Name,
			OutstandingBalance: int64(c.OutstandingBalance),
			MinimumPayment:     &minimum,
			DueDay:             c.DueDay,
			CreditLimit:        int64(c.CreditLimit),
			PurchaseAPR:        c.PurchaseAPR,
		})
	}
	for _, a := range snap.BnplAccounts {
		sj.BnplAccounts = append(sj.BnplAccounts, BnplAccountJSON{
			Provider:       a.Provider,
			AvailableLimit: int64(a.AvailableLimit),
		})
	}
	return sj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseIncome(path string, ij IncomeJSON) (cashflow.IncomeSource, error) {
	amount, err := parseAmount(path+".amount", ij.Amount)
	if err != nil {
		return cashflow.IncomeSource{}, err
	}
	freq, err := parseFrequency(path+".frequency", ij.Frequency, calendar.PaymentFrequencies...)
	if err != nil {
		return cashflow.IncomeSource{}, err
	}
	next, err := parseDate(path+".next_date", ij.NextDate)
	if err != nil {
		return cashflow.IncomeSource{}, err
	}
	return cashflow.IncomeSource{Name: ij.Name, Amount: amount, Frequency: freq, NextDate: next}, nil
}

func parseExpense(path string, ej ExpenseJSON) (cashflow.FixedExpense, error) {
	amount, err := parseAmount(path+".amount", ej.Amount)
	if err != nil {
		return cashflow.FixedExpense{}, err
	}
	freq, err := parseFrequency(path+".frequency", ej.Frequency)
	if err != nil {
		return cashflow.FixedExpense{}, err
	}
	due, err := parseDate(path+".next_due_date", ej.NextDueDate)
	if err != nil {
		return cashflow.FixedExpense{}, err
	}
	return cashflow.FixedExpense{Name: ej.Name, Amount: amount, Frequency: freq, NextDueDate: due}, nil
}

func parseBnplPlan(path string, bj BnplPlanJSON) (cashflow.BnplPlan, error) {
	amount, err := parseAmount(path+".instalment_amount", bj.InstalmentAmount)
	if err != nil {
		return cashflow.BnplPlan{}, err
	}
	freq, err := parseFrequency(path+".frequency", bj.Frequency, calendar.PaymentFrequencies...)
	if err != nil {
		return cashflow.BnplPlan{}, err
	}
	if bj.InstalmentsRemaining < 0 {
		return cashflow.BnplPlan{}, fieldErr(path+".instalments_remaining", bj.InstalmentsRemaining, ErrInvalidInstalments)
	}
	next, err := parseDate(path+".next_payment_date", bj.NextPaymentDate)
	if err != nil {
		return cashflow.BnplPlan{}, err
	}
	return cashflow.BnplPlan{
		ItemName:             bj.ItemName,
		Provider:             bj.Provider,
		InstalmentAmount:     amount,
		Frequency:            freq,
		InstalmentsRemaining: bj.InstalmentsRemaining,
		NextPaymentDate:      next,
	}, nil
}

func parseCreditCard(path string, cj CreditCardJSON) (cashflow.CreditCard, error) {
	balance, err := parseAmount(path+".outstanding_balance", cj.OutstandingBalance)
	if err != nil {
		return cashflow.CreditCard{}, err
	}
	limit, err := parseAmount(path+".credit_limit", cj.CreditLimit)
	if err != nil {
		return cashflow.CreditCard{}, err
	}
	if cj.DueDay < 1 || cj.DueDay > 31 {
		return cashflow.CreditCard{}, fieldErr(path+".due_day", cj.DueDay, ErrInvalidDueDay)
	}
	if cj.PurchaseAPR < 0 {
		return cashflow.CreditCard{}, fieldErr(path+".purchase_apr", cj.PurchaseAPR, ErrInvalidAmount)
	}

	card := cashflow.CreditCard{
		Name:               cj.Name,
		OutstandingBalance: balance,
		DueDay:             cj.DueDay,
		CreditLimit:        limit,
		PurchaseAPR:        cj.PurchaseAPR,
	}
	if cj.MinimumPayment == nil {
		return card.WithPolicyMinimum(), nil
	}
	card.MinimumPayment, err = parseAmount(path+".minimum_payment", *cj.MinimumPayment)
	if err != nil {
		return cashflow.CreditCard{}, err
	}
	return card, nil
}

func parseAmount(field string, v int64) (cashflow.Cents, error) {
	if v < 0 {
		return 0, fieldErr(field, v, ErrInvalidAmount)
	}
	return cashflow.Cents(v), nil
}

func parseFrequency(field, s string, allowed ...calendar.Frequency) (calendar.Frequency, error) {
	f, err := calendar.ParseFrequency(s)
	if err != nil {
		return "", fieldErr(field, s, err)
	}
	if err := f.Validate(allowed...); err != nil {
		return "", fieldErr(field, s, err)
	}
	return f, nil
}

func parseDate(field, s string) (calendar.Date, error) {
	if s == "" {
		return calendar.Date{}, fieldErr(field, s, ErrMissingField)
	}
	d, err := calendar.ParseDate(s)
	if err != nil {
		return calendar.Date{}, fieldErr(field, s, err)
	}
	return d, nil
}
