/*
scenarios.go - Demo household loaders for testing and demonstrations

PURPOSE:
  Provides pre-built households that populate the database with realistic
  data for testing and demos. Dates are relative to the day the scenario
  is loaded, so a demo loaded next month still has pay and bills ahead.

AVAILABLE SCENARIOS:

	payday-soon:      Pay lands in 3 days, rent after it (safe-to-spend = balance)
	afterpay-ready:   $500 Afterpay limit, try a $400 purchase
	card-revolver:    $5,000 card at 19.99%, try a $3,000 purchase
	overcommitted:    Bills before payday exceed the balance
	bnpl-stack:       Several BNPL plans and a Zip account
	no-income:        Nothing configured yet, 14 day fallback

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Build each household's snapshot from today's date
 3. Save households

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "card-revolver"}

ADDING NEW SCENARIOS:
 1. Write a builder: func(today calendar.Date) []sqlite.Household
 2. Add it to 'scenarios' with ID, name, description

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Household endpoints that read the loaded data
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/warp/cashflow-engine/calendar"
	"github.com/warp/cashflow-engine/cashflow"
	"github.com/warp/cashflow-engine/factory"
	"github.com/warp/cashflow-engine/store/sqlite"
	"github.com/warp/cashflow-engine/strategy"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ErrUnknownScenario is returned for a scenario id not in the list.
var ErrUnknownScenario = errors.New("unknown scenario")

type scenario struct {
	ScenarioDTO
	build func(today calendar.Date) []sqlite.Household
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "payday-soon",
			Name:        "Payday Soon",
			Description: "Fortnightly pay in 3 days, rent due after it",
			Category:    "safe-to-spend",
		},
		build: paydaySoon,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "afterpay-ready",
			Name:        "Afterpay Ready",
			Description: "Afterpay account with a $500 limit; compare a $400 purchase",
			Category:    "strategies",
		},
		build: afterpayReady,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "card-revolver",
			Name:        "Card Revolver",
			Description: "$5,000 available on a 19.99% card; compare a $3,000 purchase",
			Category:    "strategies",
		},
		build: cardRevolver,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "overcommitted",
			Name:        "Overcommitted",
			Description: "Rent and card payments before payday exceed the balance",
			Category:    "safe-to-spend",
		},
		build: overcommitted,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "bnpl-stack",
			Name:        "BNPL Stack",
			Description: "Three running instalment plans plus Zip and PayPal accounts",
			Category:    "projection",
		},
		build: bnplStack,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "no-income",
			Name:        "No Income Yet",
			Description: "Bills configured but no income; next pay falls back to 14 days",
			Category:    "safe-to-spend",
		},
		build: noIncome,
	},
}

// Scenarios returns the available demo scenarios.
func Scenarios() []ScenarioDTO {
	out := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		out[i] = s.ScenarioDTO
	}
	return out
}

// ScenarioHouseholds builds a scenario's households as of today.
func ScenarioHouseholds(id string, today calendar.Date) ([]sqlite.Household, error) {
	for _, s := range scenarios {
		if s.ID == id {
			return s.build(today), nil
		}
	}
	return nil, &factory.FieldError{Field: "scenario_id", Value: id, Err: ErrUnknownScenario}
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Scenarios())
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s.ScenarioDTO)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, "Invalid request body", err)
		return
	}
	today, err := h.today(r)
	if err != nil {
		h.fail(w, "Invalid today", err)
		return
	}

	households, err := ScenarioHouseholds(req.ScenarioID, today)
	if err != nil {
		h.fail(w, "Unknown scenario", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.loadHouseholds(r.Context(), households); err != nil {
		h.currentScenario = ""
		h.fail(w, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID

	h.log.WithField("scenario", req.ScenarioID).Info("scenario loaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		h.fail(w, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) loadHouseholds(ctx context.Context, households []sqlite.Household) error {
	if err := h.Store.Reset(ctx); err != nil {
		return err
	}
	for _, hh := range households {
		if err := h.Store.SaveHousehold(ctx, hh); err != nil {
			return fmt.Errorf("saving %s: %w", hh.ID, err)
		}
	}
	return nil
}

// =============================================================================
// SCENARIO BUILDERS
// =============================================================================

func paydaySoon(today calendar.Date) []sqlite.Household {
	return []sqlite.Household{{
		ID:   "payday-soon",
		Name: "Payday Soon",
		Snapshot: cashflow.Snapshot{
			StartingBalance: cashflow.Dollars(1000),
			Incomes: []cashflow.IncomeSource{
				{Name: "Salary", Amount: cashflow.Dollars(2000), Frequency: calendar.Fortnightly, NextDate: today.AddDays(3)},
			},
			Expenses: []cashflow.FixedExpense{
				{Name: "Rent", Amount: cashflow.Dollars(500), Frequency: calendar.Monthly, NextDueDate: today.AddDays(10)},
			},
		},
	}}
}

func afterpayReady(today calendar.Date) []sqlite.Household {
	return []sqlite.Household{{
		ID:   "afterpay-ready",
		Name: "Afterpay Ready",
		Snapshot: cashflow.Snapshot{
			StartingBalance: cashflow.Dollars(500),
			Incomes: []cashflow.IncomeSource{
				{Name: "Salary", Amount: cashflow.Dollars(1800), Frequency: calendar.Fortnightly, NextDate: today.AddDays(9)},
			},
			Expenses: []cashflow.FixedExpense{
				{Name: "Phone", Amount: 6500, Frequency: calendar.Monthly, NextDueDate: today.AddDays(4)},
			},
			BnplAccounts: []cashflow.BnplAccount{
				{Provider: strategy.Afterpay, AvailableLimit: cashflow.Dollars(500)},
			},
		},
	}}
}

func cardRevolver(today calendar.Date) []sqlite.Household {
	return []sqlite.Household{{
		ID:   "card-revolver",
		Name: "Card Revolver",
		Snapshot: cashflow.Snapshot{
			StartingBalance: cashflow.Dollars(1200),
			Incomes: []cashflow.IncomeSource{
				{Name: "Salary", Amount: cashflow.Dollars(2600), Frequency: calendar.Fortnightly, NextDate: today.AddDays(6)},
			},
			Expenses: []cashflow.FixedExpense{
				{Name: "Rent", Amount: cashflow.Dollars(2100), Frequency: calendar.Monthly, NextDueDate: today.AddDays(12)},
				{Name: "Car insurance", Amount: cashflow.Dollars(480), Frequency: calendar.Quarterly, NextDueDate: today.AddDays(20)},
			},
			CreditCards: []cashflow.CreditCard{
				{Name: "Visa", MinimumPayment: 0, DueDay: 15, CreditLimit: cashflow.Dollars(5000), PurchaseAPR: 19.99},
			},
		},
	}}
}

func overcommitted(today calendar.Date) []sqlite.Household {
	visa := cashflow.CreditCard{Name: "Visa", OutstandingBalance: cashflow.Dollars(3400), DueDay: today.AddDays(5).Day(), CreditLimit: cashflow.Dollars(4000), PurchaseAPR: 21.49}
	return []sqlite.Household{{
		ID:   "overcommitted",
		Name: "Overcommitted",
		Snapshot: cashflow.Snapshot{
			StartingBalance: cashflow.Dollars(900),
			Incomes: []cashflow.IncomeSource{
				{Name: "Wages", Amount: cashflow.Dollars(1400), Frequency: calendar.Weekly, NextDate: today.AddDays(6)},
			},
			Expenses: []cashflow.FixedExpense{
				{Name: "Rent", Amount: cashflow.Dollars(850), Frequency: calendar.Fortnightly, NextDueDate: today.AddDays(2)},
				{Name: "Electricity", Amount: 18000, Frequency: calendar.Quarterly, NextDueDate: today.AddDays(4)},
			},
			BnplPlans: []cashflow.BnplPlan{
				{ItemName: "Laptop", Provider: strategy.Afterpay, InstalmentAmount: 27500, Frequency: calendar.Fortnightly, InstalmentsRemaining: 2, NextPaymentDate: today.AddDays(1)},
			},
			CreditCards: []cashflow.CreditCard{visa.WithPolicyMinimum()},
		},
	}}
}

func bnplStack(today calendar.Date) []sqlite.Household {
	return []sqlite.Household{{
		ID:   "bnpl-stack",
		Name: "BNPL Stack",
		Snapshot: cashflow.Snapshot{
			StartingBalance: cashflow.Dollars(2300),
			Incomes: []cashflow.IncomeSource{
				{Name: "Salary", Amount: cashflow.Dollars(3100), Frequency: calendar.Monthly, NextDate: today.AddDays(11)},
				{Name: "Side gig", Amount: cashflow.Dollars(250), Frequency: calendar.Weekly, NextDate: today.AddDays(2)},
			},
			Expenses: []cashflow.FixedExpense{
				{Name: "Rent", Amount: cashflow.Dollars(1700), Frequency: calendar.Monthly, NextDueDate: today.AddDays(13)},
				{Name: "Gym", Amount: 2400, Frequency: calendar.Weekly, NextDueDate: today.AddDays(3)},
			},
			BnplPlans: []cashflow.BnplPlan{
				{ItemName: "Sneakers", Provider: strategy.Afterpay, InstalmentAmount: 5000, Frequency: calendar.Fortnightly, InstalmentsRemaining: 3, NextPaymentDate: today.AddDays(1)},
				{ItemName: "Headphones", Provider: strategy.PayPalPay4, InstalmentAmount: 8750, Frequency: calendar.Fortnightly, InstalmentsRemaining: 2, NextPaymentDate: today.AddDays(8)},
				{ItemName: "Couch", Provider: strategy.ZipPay, InstalmentAmount: 4000, Frequency: calendar.Monthly, InstalmentsRemaining: 9, NextPaymentDate: today.AddDays(17)},
			},
			BnplAccounts: []cashflow.BnplAccount{
				{Provider: strategy.ZipPay, AvailableLimit: cashflow.Dollars(600)},
				{Provider: strategy.PayPalPay4, AvailableLimit: cashflow.Dollars(1500)},
			},
		},
	}}
}

func noIncome(today calendar.Date) []sqlite.Household {
	return []sqlite.Household{{
		ID:   "no-income",
		Name: "No Income Yet",
		Snapshot: cashflow.Snapshot{
			StartingBalance: cashflow.Dollars(640),
			Expenses: []cashflow.FixedExpense{
				{Name: "Streaming", Amount: 1699, Frequency: calendar.Monthly, NextDueDate: today.AddDays(5)},
				{Name: "Rent", Amount: cashflow.Dollars(400), Frequency: calendar.Weekly, NextDueDate: today.AddDays(20)},
			},
		},
	}}
}
