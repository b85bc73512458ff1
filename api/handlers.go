/*
handlers.go - HTTP API handlers for the cashflow engine

PURPOSE:
  Exposes the projection, safe-to-spend and purchase strategy engines via
  REST API. Handles HTTP request/response, JSON serialization, and
  delegates to the pure engine packages.

ENDPOINTS:
  Stateless (snapshot in the body):
    POST   /api/projection             Daily balances for N weeks
    POST   /api/safe-to-spend          Headroom until next pay
    POST   /api/strategies             Rank ways to pay for a purchase
    POST   /api/upcoming               Outflows over the next 14 days

  Households:
    GET    /api/households                      List households
    GET    /api/households/{id}                 Get snapshot
    PUT    /api/households/{id}                 Save snapshot
    DELETE /api/households/{id}                 Delete household
    GET    /api/households/{id}/projection      Projection of stored snapshot
    GET    /api/households/{id}/safe-to-spend   Safe-to-spend of stored snapshot
    GET    /api/households/{id}/upcoming        Upcoming outflows
    POST   /api/households/{id}/strategies      Compare a purchase
    POST   /api/households/{id}/process-income  Credit income that has landed
    GET    /api/households/{id}/receipts        Credited income history

  Income:
    GET    /api/income/runs            Scheduler run history
    POST   /api/income/process         Process every household now

  Providers:
    GET    /api/providers              BNPL provider rules in effect

QUERY PARAMETERS:
  today=YYYY-MM-DD  Every computation endpoint; defaults to the server date
  weeks=N           Projection length
  days=N            Upcoming horizon

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed JSON, unknown frequency, invalid date or amount
  - 404: Household not found
  - 409: Income payment already credited
  - 500: Internal errors
  Negative balances and unavailable strategies are normal responses.

SEE ALSO:
  - dto.go: Request/response data structures
  - processor.go: Single-flight income processing
  - scenarios.go: Demo households
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/warp/cashflow-engine/calendar"
	"github.com/warp/cashflow-engine/cashflow"
	"github.com/warp/cashflow-engine/config"
	"github.com/warp/cashflow-engine/factory"
	"github.com/warp/cashflow-engine/store/sqlite"
	"github.com/warp/cashflow-engine/strategy"
)

const maxBodyBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Rules  strategy.Rules
	Engine config.EngineConfig
	Income *IncomeProcessor

	// Today is the server's notion of the current date. Tests pin it.
	Today func() calendar.Date

	log *logrus.Entry

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store and engine settings.
func NewHandler(store *sqlite.Store, rules strategy.Rules, engine config.EngineConfig, logger *logrus.Logger) *Handler {
	return &Handler{
		Store:  store,
		Rules:  rules,
		Engine: engine,
		Income: NewIncomeProcessor(store, logger),
		Today:  calendar.Today,
		log:    logger.WithField("component", "api"),
	}
}

// =============================================================================
// STATELESS COMPUTATION
// =============================================================================

// Projection returns daily balances for the snapshot in the body.
func (h *Handler) Projection(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshotFromBody(w, r)
	if err != nil {
		h.fail(w, "Invalid snapshot", err)
		return
	}
	h.writeProjection(w, r, snap)
}

// SafeToSpend returns the spending headroom for the snapshot in the body.
func (h *Handler) SafeToSpend(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshotFromBody(w, r)
	if err != nil {
		h.fail(w, "Invalid snapshot", err)
		return
	}
	h.writeSafeToSpend(w, r, snap)
}

// Strategies ranks the ways to pay for the purchase in the body.
func (h *Handler) Strategies(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.fail(w, "Invalid request body", err)
		return
	}
	snap, price, description, err := factory.ParsePurchase(body)
	if err != nil {
		h.fail(w, "Invalid purchase", err)
		return
	}
	h.writeStrategies(w, r, snap, price, description)
}

// Upcoming lists the outflows of the snapshot in the body.
func (h *Handler) Upcoming(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshotFromBody(w, r)
	if err != nil {
		h.fail(w, "Invalid snapshot", err)
		return
	}
	h.writeUpcoming(w, r, snap)
}

func (h *Handler) writeProjection(w http.ResponseWriter, r *http.Request, snap cashflow.Snapshot) {
	today, err := h.today(r)
	if err != nil {
		h.fail(w, "Invalid today", err)
		return
	}
	weeks, err := positiveQuery(r, "weeks", h.Engine.ProjectionWeeks)
	if err != nil {
		h.fail(w, "Invalid weeks", err)
		return
	}

	days := cashflow.Project(snap, today, weeks)
	resp := ProjectionResponse{
		Today:           today,
		Weeks:           weeks,
		StartingBalance: snap.StartingBalance,
		MinimumBalance:  cashflow.MinimumBalance(days),
		EndingBalance:   cashflow.EndingBalance(days),
		Days:            days,
	}
	if neg, ok := cashflow.FirstNegative(days); ok {
		d := neg.Date
		resp.FirstNegative = &d
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeSafeToSpend(w http.ResponseWriter, r *http.Request, snap cashflow.Snapshot) {
	today, err := h.today(r)
	if err != nil {
		h.fail(w, "Invalid today", err)
		return
	}

	sts := cashflow.ComputeSafeToSpend(snap, today)
	writeJSON(w, http.StatusOK, SafeToSpendResponse{
		SafeToSpend:   sts,
		Today:         today,
		Overcommitted: sts.IsOvercommitted(),
	})
}

func (h *Handler) writeStrategies(w http.ResponseWriter, r *http.Request, snap cashflow.Snapshot, price cashflow.Cents, description string) {
	today, err := h.today(r)
	if err != nil {
		h.fail(w, "Invalid today", err)
		return
	}

	ranked := strategy.Compare(strategy.Request{
		Price:           price,
		Description:     description,
		Today:           today,
		Snapshot:        snap,
		ProjectionWeeks: h.Engine.ProjectionWeeks,
	}, h.Rules)

	resp := StrategiesResponse{
		Today:       today,
		Price:       price,
		Description: description,
		Strategies:  ranked,
	}
	if best, ok := strategy.Best(ranked); ok {
		resp.Recommended = best.Label
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeUpcoming(w http.ResponseWriter, r *http.Request, snap cashflow.Snapshot) {
	today, err := h.today(r)
	if err != nil {
		h.fail(w, "Invalid today", err)
		return
	}
	days, err := positiveQuery(r, "days", h.Engine.UpcomingDays)
	if err != nil {
		h.fail(w, "Invalid days", err)
		return
	}

	payments := cashflow.UpcomingPayments(snap, today, days)
	var total cashflow.Cents
	for _, p := range payments {
		total += p.Amount
	}
	writeJSON(w, http.StatusOK, UpcomingResponse{From: today, Days: days, Total: total, Payments: payments})
}

// =============================================================================
// HOUSEHOLD HANDLERS
// =============================================================================

// ListHouseholds returns all stored households.
func (h *Handler) ListHouseholds(w http.ResponseWriter, r *http.Request) {
	households, err := h.Store.ListHouseholds(r.Context())
	if err != nil {
		h.fail(w, "Failed to list households", err)
		return
	}

	dtos := make([]HouseholdSummaryDTO, len(households))
	for i, hh := range households {
		dtos[i] = HouseholdSummaryDTO{
			ID:        hh.ID,
			Name:      hh.Name,
			Version:   hh.Version,
			UpdatedAt: hh.UpdatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetHousehold returns a household and its snapshot.
func (h *Handler) GetHousehold(w http.ResponseWriter, r *http.Request) {
	hh, err := h.Store.GetHousehold(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to get household", err)
		return
	}
	writeJSON(w, http.StatusOK, householdDTO(hh))
}

// PutHousehold validates and stores a household snapshot.
func (h *Handler) PutHousehold(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req SaveHouseholdRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, "Invalid request body", err)
		return
	}
	snap, err := factory.FromJSON(req.Snapshot)
	if err != nil {
		h.fail(w, "Invalid snapshot", err)
		return
	}
	if req.Name == "" {
		req.Name = id
	}

	if err := h.Store.SaveHousehold(r.Context(), sqlite.Household{ID: id, Name: req.Name, Snapshot: snap}); err != nil {
		h.fail(w, "Failed to save household", err)
		return
	}
	hh, err := h.Store.GetHousehold(r.Context(), id)
	if err != nil {
		h.fail(w, "Failed to get household", err)
		return
	}

	h.log.WithFields(logrus.Fields{"household": id, "version": hh.Version}).Info("household saved")
	writeJSON(w, http.StatusOK, householdDTO(hh))
}

// DeleteHousehold removes a household and its receipts.
func (h *Handler) DeleteHousehold(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteHousehold(r.Context(), id); err != nil {
		h.fail(w, "Failed to delete household", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HouseholdProjection projects a stored household.
func (h *Handler) HouseholdProjection(w http.ResponseWriter, r *http.Request) {
	hh, err := h.Store.GetHousehold(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to get household", err)
		return
	}
	h.writeProjection(w, r, hh.Snapshot)
}

// HouseholdSafeToSpend computes safe-to-spend for a stored household.
func (h *Handler) HouseholdSafeToSpend(w http.ResponseWriter, r *http.Request) {
	hh, err := h.Store.GetHousehold(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to get household", err)
		return
	}
	h.writeSafeToSpend(w, r, hh.Snapshot)
}

// HouseholdUpcoming lists a stored household's upcoming outflows.
func (h *Handler) HouseholdUpcoming(w http.ResponseWriter, r *http.Request) {
	hh, err := h.Store.GetHousehold(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to get household", err)
		return
	}
	h.writeUpcoming(w, r, hh.Snapshot)
}

// HouseholdStrategies compares ways to pay for a purchase against a stored
// household.
func (h *Handler) HouseholdStrategies(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, "Invalid request body", err)
		return
	}
	price, err := factory.ParsePrice(req.Price)
	if err != nil {
		h.fail(w, "Invalid price", err)
		return
	}

	hh, err := h.Store.GetHousehold(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Failed to get household", err)
		return
	}
	h.writeStrategies(w, r, hh.Snapshot, price, req.Description)
}

// =============================================================================
// INCOME HANDLERS
// =============================================================================

// ProcessIncome credits a household's income payments due on or before
// today. Concurrent calls for the same household and day share one result.
func (h *Handler) ProcessIncome(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	today, err := h.today(r)
	if err != nil {
		h.fail(w, "Invalid today", err)
		return
	}

	result, shared, err := h.Income.Process(r.Context(), id, today)
	if err != nil {
		h.fail(w, "Failed to process income", err)
		return
	}

	writeJSON(w, http.StatusOK, ProcessIncomeResponse{
		HouseholdID: id,
		Today:       today,
		Receipts:    receiptDTOs(result.Receipts),
		Credited:    result.Credited,
		Balance:     result.Balance,
		Shared:      shared,
	})
}

// HouseholdReceipts returns the credited income history of a household.
func (h *Handler) HouseholdReceipts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetHousehold(r.Context(), id); err != nil {
		h.fail(w, "Failed to get household", err)
		return
	}

	receipts, err := h.Store.IncomeReceipts(r.Context(), id)
	if err != nil {
		h.fail(w, "Failed to list receipts", err)
		return
	}
	writeJSON(w, http.StatusOK, receiptDTOs(receipts))
}

// ListIncomeRuns returns scheduler runs, newest first.
func (h *Handler) ListIncomeRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.IncomeRuns(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.fail(w, "Failed to list income runs", err)
		return
	}

	dtos := make([]IncomeRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = incomeRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// TriggerIncomeRun processes every household immediately.
func (h *Handler) TriggerIncomeRun(w http.ResponseWriter, r *http.Request) {
	today, err := h.today(r)
	if err != nil {
		h.fail(w, "Invalid today", err)
		return
	}

	run, err := h.Income.ProcessAll(r.Context(), today)
	if err != nil {
		h.fail(w, "Income run failed", err)
		return
	}
	writeJSON(w, http.StatusOK, incomeRunDTO(run))
}

// =============================================================================
// PROVIDERS
// =============================================================================

// ListProviders returns the BNPL provider rules in effect.
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	ids := h.Rules.Providers()
	dtos := make([]ProviderDTO, len(ids))
	for i, id := range ids {
		rule := h.Rules[id]
		dtos[i] = ProviderDTO{
			ID:          id,
			DisplayName: rule.DisplayName,
			Plan:        rule.Plan,
			Instalments: rule.Instalments,
			Frequency:   rule.Frequency,
			MinAmount:   rule.MinAmount,
			MaxAmount:   rule.MaxAmount,
			MonthlyFee:  rule.MonthlyFee,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

// today reads ?today=YYYY-MM-DD, defaulting to the server date.
func (h *Handler) today(r *http.Request) (calendar.Date, error) {
	s := r.URL.Query().Get("today")
	if s == "" {
		return h.Today(), nil
	}
	d, err := calendar.ParseDate(s)
	if err != nil {
		return calendar.Date{}, &factory.FieldError{Field: "today", Value: s, Err: factory.ErrInvalidDate}
	}
	return d, nil
}

func positiveQuery(r *http.Request, key string, def int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, &factory.FieldError{Field: key, Value: s, Err: factory.ErrInvalidAmount}
	}
	return n, nil
}

func (h *Handler) snapshotFromBody(w http.ResponseWriter, r *http.Request) (cashflow.Snapshot, error) {
	body, err := readBody(w, r)
	if err != nil {
		return cashflow.Snapshot{}, err
	}
	return factory.ParseSnapshot(body)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", factory.ErrMalformedJSON, err)
	}
	return body, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", factory.ErrMalformedJSON, err)
	}
	return nil
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, sqlite.ErrHouseholdNotFound):
		return http.StatusNotFound
	case errors.Is(err, sqlite.ErrAlreadyProcessed):
		return http.StatusConflict
	case factory.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	entry := h.log.WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		entry.Error(message)
	} else {
		entry.Debug(message)
	}
	writeError(w, status, message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
