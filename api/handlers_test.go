/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Stateless computation endpoints (projection, safe-to-spend, strategies)
- Error mapping (400 / 404 / 409)
- Household storage and income processing
- Demo scenarios
*/
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cashflow-engine/calendar"
	"github.com/warp/cashflow-engine/cashflow"
	"github.com/warp/cashflow-engine/config"
	"github.com/warp/cashflow-engine/store/sqlite"
	"github.com/warp/cashflow-engine/strategy"
)

var testToday = calendar.New(2025, time.March, 10)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupTestHandler(t *testing.T) (*Handler, http.Handler) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store, strategy.DefaultRules(), config.DefaultConfig().Engine, quietLogger())
	h.Today = func() calendar.Date { return testToday }
	return h, NewRouter(h)
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// Pay of $2000 lands in 3 days, $500 rent in 10 days, $1000 in the bank.
const paydaySoonJSON = `{
	"starting_balance": 100000,
	"incomes": [{"name": "Salary", "amount": 200000, "frequency": "fortnightly", "next_date": "2025-03-13"}],
	"expenses": [{"name": "Rent", "amount": 50000, "frequency": "monthly", "next_due_date": "2025-03-20"}]
}`

// =============================================================================
// STATELESS COMPUTATION
// =============================================================================

func TestSafeToSpend_ExpenseAfterPayIsExcluded(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodPost, "/api/safe-to-spend", paydaySoonJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[SafeToSpendResponse](t, rec)
	assert.Equal(t, cashflow.Dollars(1000), resp.Amount)
	assert.Equal(t, 3, resp.DaysUntilPay)
	assert.Equal(t, calendar.New(2025, time.March, 13), resp.NextPayDate)
	assert.Empty(t, resp.UpcomingObligations)
	assert.False(t, resp.Overcommitted)
}

func TestProjection_WeeksAndTodayFromQuery(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodPost, "/api/projection?weeks=1&today=2025-03-10", paydaySoonJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[ProjectionResponse](t, rec)
	assert.Equal(t, 1, resp.Weeks)
	require.Len(t, resp.Days, 8)
	assert.Equal(t, testToday, resp.Days[0].Date)
	assert.Equal(t, cashflow.Dollars(1000), resp.MinimumBalance)
	assert.Equal(t, cashflow.Dollars(3000), resp.EndingBalance)
	assert.Nil(t, resp.FirstNegative)
}

func TestProjection_ReportsFirstNegativeDay(t *testing.T) {
	_, router := setupTestHandler(t)

	body := `{
		"starting_balance": 1000,
		"expenses": [{"name": "Rent", "amount": 5000, "frequency": "weekly", "next_due_date": "2025-03-12"}]
	}`
	rec := do(t, router, http.MethodPost, "/api/projection?weeks=1", body)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[ProjectionResponse](t, rec)
	require.NotNil(t, resp.FirstNegative)
	assert.Equal(t, calendar.New(2025, time.March, 12), *resp.FirstNegative)
	assert.Equal(t, cashflow.Cents(-4000), resp.MinimumBalance)
}

func TestStrategies_AfterpayFourPayments(t *testing.T) {
	_, router := setupTestHandler(t)

	// GIVEN: a $400 purchase and a $500 Afterpay limit
	body := `{
		"snapshot": {
			"starting_balance": 50000,
			"bnpl_accounts": [{"provider": "afterpay", "available_limit": 50000}]
		},
		"price": 40000,
		"description": "Bike"
	}`

	// WHEN
	rec := do(t, router, http.MethodPost, "/api/strategies", body)

	// THEN
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[StrategiesResponse](t, rec)
	assert.Equal(t, cashflow.Dollars(400), resp.Price)
	assert.Equal(t, "Cash", resp.Recommended)

	var afterpay *strategy.PaymentStrategy
	for i := range resp.Strategies {
		if resp.Strategies[i].Provider == strategy.Afterpay {
			afterpay = &resp.Strategies[i]
		}
	}
	require.NotNil(t, afterpay)
	assert.True(t, afterpay.Available)
	assert.Equal(t, cashflow.Dollars(400), afterpay.TotalCost)
	assert.Zero(t, afterpay.TotalFeesOrInterest)
	require.Len(t, afterpay.Schedule, 4)
	for i, p := range afterpay.Schedule {
		assert.Equal(t, cashflow.Dollars(100), p.Amount)
		assert.Equal(t, testToday.AddDays(14*i), p.Date)
	}
}

func TestStrategies_RejectsNonPositivePrice(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodPost, "/api/strategies", `{"snapshot": {"starting_balance": 100}, "price": 0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Details, "price")
}

func TestUpcoming_TotalsOutflows(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodPost, "/api/upcoming", paydaySoonJSON)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[UpcomingResponse](t, rec)
	assert.Equal(t, cashflow.DefaultUpcomingDays, resp.Days)
	require.Len(t, resp.Payments, 1)
	assert.Equal(t, "Rent", resp.Payments[0].Label)
	assert.Equal(t, cashflow.Dollars(500), resp.Total)
}

func TestBadInput_Returns400(t *testing.T) {
	_, router := setupTestHandler(t)

	tests := map[string]struct {
		path string
		body string
	}{
		"malformed json":    {"/api/projection", `{"starting_balance":`},
		"unknown frequency": {"/api/projection", `{"incomes": [{"name": "Pay", "amount": 1, "frequency": "daily", "next_date": "2025-03-13"}]}`},
		"unpadded date":     {"/api/safe-to-spend", `{"incomes": [{"name": "Pay", "amount": 1, "frequency": "weekly", "next_date": "2025-3-13"}]}`},
		"bad today":         {"/api/upcoming?today=tomorrow", `{}`},
		"zero weeks":        {"/api/projection?weeks=0", `{}`},
		"negative days":     {"/api/upcoming?days=-3", `{}`},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
		})
	}
}

// =============================================================================
// HOUSEHOLDS
// =============================================================================

func TestHousehold_PutGetDelete(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodPut, "/api/households/smiths", `{"name": "The Smiths", "snapshot": `+paydaySoonJSON+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decode[HouseholdDTO](t, rec)
	assert.Equal(t, 1, saved.Version)

	rec = do(t, router, http.MethodGet, "/api/households/smiths", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[HouseholdDTO](t, rec)
	assert.Equal(t, "The Smiths", got.Name)
	assert.Equal(t, int64(100000), got.Snapshot.StartingBalance)
	require.Len(t, got.Snapshot.Incomes, 1)
	assert.Equal(t, "2025-03-13", got.Snapshot.Incomes[0].NextDate)

	rec = do(t, router, http.MethodGet, "/api/households", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]HouseholdSummaryDTO](t, rec), 1)

	rec = do(t, router, http.MethodDelete, "/api/households/smiths", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/households/smiths", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHousehold_PutRejectsInvalidSnapshot(t *testing.T) {
	_, router := setupTestHandler(t)

	body := `{"snapshot": {"credit_cards": [{"name": "Visa", "outstanding_balance": 100, "due_day": 40}]}}`
	rec := do(t, router, http.MethodPut, "/api/households/smiths", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Details, "credit_cards[0].due_day")
}

func TestHousehold_ComputationsUseStoredSnapshot(t *testing.T) {
	_, router := setupTestHandler(t)
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPut, "/api/households/smiths", `{"snapshot": `+paydaySoonJSON+`}`).Code)

	rec := do(t, router, http.MethodGet, "/api/households/smiths/safe-to-spend", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, cashflow.Dollars(1000), decode[SafeToSpendResponse](t, rec).Amount)

	rec = do(t, router, http.MethodGet, "/api/households/smiths/projection?weeks=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[ProjectionResponse](t, rec).Days, 15)

	rec = do(t, router, http.MethodGet, "/api/households/smiths/upcoming", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[UpcomingResponse](t, rec).Payments, 1)

	rec = do(t, router, http.MethodPost, "/api/households/smiths/strategies", `{"price": 25000}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Cash", decode[StrategiesResponse](t, rec).Recommended)

	rec = do(t, router, http.MethodGet, "/api/households/nobody/safe-to-spend", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// INCOME PROCESSING
// =============================================================================

func TestProcessIncome_CreditsAndAdvances(t *testing.T) {
	_, router := setupTestHandler(t)
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPut, "/api/households/smiths", `{"snapshot": `+paydaySoonJSON+`}`).Code)

	// WHEN: processing on payday
	rec := do(t, router, http.MethodPost, "/api/households/smiths/process-income?today=2025-03-13", "")

	// THEN: the pay is credited and the next pay date moves a fortnight
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[ProcessIncomeResponse](t, rec)
	require.Len(t, resp.Receipts, 1)
	assert.Equal(t, cashflow.Dollars(2000), resp.Credited)
	assert.Equal(t, cashflow.Dollars(3000), resp.Balance)

	rec = do(t, router, http.MethodGet, "/api/households/smiths", "")
	got := decode[HouseholdDTO](t, rec)
	assert.Equal(t, "2025-03-27", got.Snapshot.Incomes[0].NextDate)

	rec = do(t, router, http.MethodGet, "/api/households/smiths/receipts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]IncomeReceiptDTO](t, rec), 1)
}

func TestProcessIncome_ReplayIsConflict(t *testing.T) {
	_, router := setupTestHandler(t)
	put := `{"snapshot": ` + paydaySoonJSON + `}`
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPut, "/api/households/smiths", put).Code)
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/households/smiths/process-income?today=2025-03-13", "").Code)

	// GIVEN: the pre-payday snapshot is saved again
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPut, "/api/households/smiths", put).Code)

	// WHEN / THEN
	rec := do(t, router, http.MethodPost, "/api/households/smiths/process-income?today=2025-03-13", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTriggerIncomeRun_RecordsRun(t *testing.T) {
	_, router := setupTestHandler(t)
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPut, "/api/households/smiths", `{"snapshot": `+paydaySoonJSON+`}`).Code)
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPut, "/api/households/empty", `{"snapshot": {"starting_balance": 0}}`).Code)

	rec := do(t, router, http.MethodPost, "/api/income/process?today=2025-03-13", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	run := decode[IncomeRunDTO](t, rec)
	assert.Equal(t, RunCompleted, run.Status)
	assert.Equal(t, 2, run.Households)
	assert.Equal(t, 1, run.Payments)
	assert.Equal(t, cashflow.Dollars(2000), run.Credited)

	rec = do(t, router, http.MethodGet, "/api/income/runs?status=completed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	runs := decode[[]IncomeRunDTO](t, rec)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}

// =============================================================================
// PROVIDERS AND SCENARIOS
// =============================================================================

func TestListProviders_Sorted(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodGet, "/api/providers", "")
	require.Equal(t, http.StatusOK, rec.Code)

	providers := decode[[]ProviderDTO](t, rec)
	ids := make([]string, len(providers))
	for i, p := range providers {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{strategy.Afterpay, strategy.PayPalPay4, strategy.ZipMoney, strategy.ZipPay}, ids)
}

func TestScenario_PaydaySoon(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "payday-soon"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/scenarios/current", "")
	assert.Equal(t, "payday-soon", decode[ScenarioDTO](t, rec).ID)

	// THEN: rent falls after pay, so all of the balance is spendable
	rec = do(t, router, http.MethodGet, "/api/households/payday-soon/safe-to-spend", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[SafeToSpendResponse](t, rec)
	assert.Equal(t, cashflow.Dollars(1000), resp.Amount)
	assert.Equal(t, 3, resp.DaysUntilPay)
}

func TestScenario_CardRevolverStillRevolving(t *testing.T) {
	_, router := setupTestHandler(t)
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "card-revolver"}`).Code)

	rec := do(t, router, http.MethodPost, "/api/households/card-revolver/strategies", `{"price": 300000}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var minimum *strategy.PaymentStrategy
	resp := decode[StrategiesResponse](t, rec)
	for i := range resp.Strategies {
		if resp.Strategies[i].Kind == strategy.KindCardMinimum {
			minimum = &resp.Strategies[i]
		}
	}
	require.NotNil(t, minimum)
	assert.True(t, minimum.Available)
	assert.Len(t, minimum.Schedule, strategy.MaxRevolveMonths)
	assert.True(t, minimum.StillRevolving)
	assert.Positive(t, minimum.TotalFeesOrInterest)
}

func TestScenario_AllLoadWithoutError(t *testing.T) {
	_, router := setupTestHandler(t)

	for _, s := range Scenarios() {
		t.Run(s.ID, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "`+s.ID+`"}`)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			rec = do(t, router, http.MethodGet, "/api/households/"+s.ID+"/projection", "")
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestScenario_UnknownAndReset(t *testing.T) {
	h, router := setupTestHandler(t)

	rec := do(t, router, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "lottery-win"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "no-income"}`).Code)
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/scenarios/reset", "").Code)

	assert.Empty(t, h.currentScenario)
	rec = do(t, router, http.MethodGet, "/api/households", "")
	assert.Empty(t, decode[[]HouseholdSummaryDTO](t, rec))
}
