/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Engine types
  (cashflow.DailyBalance, cashflow.SafeToSpend, strategy.PaymentStrategy)
  already carry JSON tags and are embedded as-is; the types here add the
  request echo fields and summaries a client needs to render a screen.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

WIRE RULES:
  - Money is integer cents
  - Dates are YYYY-MM-DD
  - Snapshots use factory.SnapshotJSON in both directions

TYPES:
  Computation:
    ProjectionResponse, SafeToSpendResponse, StrategiesResponse,
    UpcomingResponse

  Households:
    HouseholdDTO, HouseholdSummaryDTO, SaveHouseholdRequest,
    PurchaseRequest

  Income processing:
    ProcessIncomeResponse, IncomeReceiptDTO, IncomeRunDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

SEE ALSO:
  - handlers.go: Uses these types
  - factory/snapshot.go: SnapshotJSON
*/
package api

import (
	"time"

	"github.com/warp/cashflow-engine/calendar"
	"github.com/warp/cashflow-engine/cashflow"
	"github.com/warp/cashflow-engine/factory"
	"github.com/warp/cashflow-engine/store/sqlite"
	"github.com/warp/cashflow-engine/strategy"
)

// =============================================================================
// COMPUTATION RESPONSES
// =============================================================================

// ProjectionResponse is a day-by-day balance projection.
type ProjectionResponse struct {
	Today           calendar.Date           `json:"today"`
	Weeks           int                     `json:"weeks"`
	StartingBalance cashflow.Cents          `json:"starting_balance"`
	MinimumBalance  cashflow.Cents          `json:"minimum_balance"`
	EndingBalance   cashflow.Cents          `json:"ending_balance"`
	FirstNegative   *calendar.Date          `json:"first_negative_date,omitempty"`
	Days            []cashflow.DailyBalance `json:"days"`
}

// SafeToSpendResponse is the current pay cycle's spending headroom.
type SafeToSpendResponse struct {
	cashflow.SafeToSpend
	Today         calendar.Date `json:"today"`
	Overcommitted bool          `json:"overcommitted"`
}

// StrategiesResponse is the ranked list of ways to pay for a purchase.
type StrategiesResponse struct {
	Today       calendar.Date              `json:"today"`
	Price       cashflow.Cents             `json:"price"`
	Description string                     `json:"description,omitempty"`
	Recommended string                     `json:"recommended,omitempty"`
	Strategies  []strategy.PaymentStrategy `json:"strategies"`
}

// UpcomingResponse lists outflows over the next few days.
type UpcomingResponse struct {
	From     calendar.Date         `json:"from"`
	Days     int                   `json:"days"`
	Total    cashflow.Cents        `json:"total"`
	Payments []cashflow.Obligation `json:"payments"`
}

// ProviderDTO describes one BNPL provider's rules.
type ProviderDTO struct {
	ID          string             `json:"id"`
	DisplayName string             `json:"display_name"`
	Plan        strategy.PlanType  `json:"plan"`
	Instalments int                `json:"instalments,omitempty"`
	Frequency   calendar.Frequency `json:"frequency"`
	MinAmount   cashflow.Cents     `json:"min_amount"`
	MaxAmount   cashflow.Cents     `json:"max_amount"`
	MonthlyFee  cashflow.Cents     `json:"monthly_fee"`
}

// =============================================================================
// HOUSEHOLDS
// =============================================================================

// HouseholdDTO is a stored household with its snapshot.
type HouseholdDTO struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Version   int                  `json:"version"`
	Snapshot  factory.SnapshotJSON `json:"snapshot"`
	UpdatedAt string               `json:"updated_at"`
}

// HouseholdSummaryDTO is a household in list responses.
type HouseholdSummaryDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Version   int    `json:"version"`
	UpdatedAt string `json:"updated_at"`
}

// SaveHouseholdRequest is the body of PUT /api/households/{id}.
type SaveHouseholdRequest struct {
	Name     string               `json:"name"`
	Snapshot factory.SnapshotJSON `json:"snapshot"`
}

// PurchaseRequest is a hypothetical purchase against a stored household.
type PurchaseRequest struct {
	Price       int64  `json:"price"`
	Description string `json:"description,omitempty"`
}

func householdDTO(h *sqlite.Household) HouseholdDTO {
	return HouseholdDTO{
		ID:        h.ID,
		Name:      h.Name,
		Version:   h.Version,
		Snapshot:  factory.ToJSON(h.Snapshot),
		UpdatedAt: h.UpdatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// INCOME PROCESSING
// =============================================================================

// IncomeReceiptDTO is one credited income payment.
type IncomeReceiptDTO struct {
	IncomeName string         `json:"income_name"`
	ReceivedOn calendar.Date  `json:"received_on"`
	Amount     cashflow.Cents `json:"amount"`
}

// ProcessIncomeResponse reports what processing did to one household.
type ProcessIncomeResponse struct {
	HouseholdID string             `json:"household_id"`
	Today       calendar.Date      `json:"today"`
	Receipts    []IncomeReceiptDTO `json:"receipts"`
	Credited    cashflow.Cents     `json:"credited"`
	Balance     cashflow.Cents     `json:"balance"`
	Shared      bool               `json:"shared"` // result joined an in-flight call
}

// IncomeRunDTO is one scheduler pass.
type IncomeRunDTO struct {
	ID          string         `json:"id"`
	RunDate     calendar.Date  `json:"run_date"`
	Status      string         `json:"status"`
	Households  int            `json:"households"`
	Payments    int            `json:"payments"`
	Credited    cashflow.Cents `json:"credited"`
	Error       string         `json:"error,omitempty"`
	StartedAt   string         `json:"started_at"`
	CompletedAt string         `json:"completed_at,omitempty"`
}

func receiptDTOs(receipts []sqlite.IncomeReceipt) []IncomeReceiptDTO {
	dtos := make([]IncomeReceiptDTO, len(receipts))
	for i, r := range receipts {
		dtos[i] = IncomeReceiptDTO{IncomeName: r.IncomeName, ReceivedOn: r.ReceivedOn, Amount: r.Amount}
	}
	return dtos
}

func incomeRunDTO(r sqlite.IncomeRun) IncomeRunDTO {
	dto := IncomeRunDTO{
		ID:         r.ID,
		RunDate:    r.RunDate,
		Status:     r.Status,
		Households: r.Households,
		Payments:   r.Payments,
		Credited:   r.Credited,
		Error:      r.Error,
		StartedAt:  r.StartedAt.Format(time.RFC3339),
	}
	if r.CompletedAt != nil {
		dto.CompletedAt = r.CompletedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
