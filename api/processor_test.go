package api

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cashflow-engine/calendar"
	"github.com/warp/cashflow-engine/cashflow"
	"github.com/warp/cashflow-engine/config"
	"github.com/warp/cashflow-engine/store/sqlite"
)

func newProcessor(t *testing.T) *IncomeProcessor {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewIncomeProcessor(store, quietLogger())
}

func saveSalaried(t *testing.T, store *sqlite.Store, id string, payday calendar.Date) {
	t.Helper()
	require.NoError(t, store.SaveHousehold(context.Background(), sqlite.Household{
		ID:   id,
		Name: id,
		Snapshot: cashflow.Snapshot{
			StartingBalance: cashflow.Dollars(100),
			Incomes: []cashflow.IncomeSource{
				{Name: "Salary", Amount: cashflow.Dollars(2000), Frequency: calendar.Fortnightly, NextDate: payday},
			},
		},
	}))
}

func TestProcess_ConcurrentCallsCreditOnce(t *testing.T) {
	ctx := context.Background()
	p := newProcessor(t)
	payday := calendar.New(2025, time.March, 14)
	saveSalaried(t, p.Store, "smiths", payday)

	// WHEN: many requests race to process the same payday
	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = p.Process(ctx, "smiths", payday)
		}(i)
	}
	wg.Wait()

	// THEN: none fail and the pay lands exactly once
	for _, err := range errs {
		assert.NoError(t, err)
	}
	hh, err := p.Store.GetHousehold(ctx, "smiths")
	require.NoError(t, err)
	assert.Equal(t, cashflow.Dollars(2100), hh.Snapshot.StartingBalance)

	receipts, err := p.Store.IncomeReceipts(ctx, "smiths")
	require.NoError(t, err)
	assert.Len(t, receipts, 1)
}

func TestProcess_UnknownHousehold(t *testing.T) {
	p := newProcessor(t)

	_, _, err := p.Process(context.Background(), "nobody", calendar.New(2025, time.March, 14))
	assert.ErrorIs(t, err, sqlite.ErrHouseholdNotFound)
}

func TestProcessAll_CountsEveryHousehold(t *testing.T) {
	ctx := context.Background()
	p := newProcessor(t)
	saveSalaried(t, p.Store, "due", calendar.New(2025, time.March, 14))
	saveSalaried(t, p.Store, "later", calendar.New(2025, time.March, 21))

	run, err := p.ProcessAll(ctx, calendar.New(2025, time.March, 14))
	require.NoError(t, err)

	assert.Equal(t, RunCompleted, run.Status)
	assert.Equal(t, 2, run.Households)
	assert.Equal(t, 1, run.Payments)
	assert.Equal(t, cashflow.Dollars(2000), run.Credited)
	require.NotNil(t, run.CompletedAt)

	runs, err := p.Store.IncomeRuns(ctx, "")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, RunCompleted, runs[0].Status)
}

func TestProcessAll_ReplayMarksRunFailed(t *testing.T) {
	ctx := context.Background()
	p := newProcessor(t)
	payday := calendar.New(2025, time.March, 14)
	saveSalaried(t, p.Store, "smiths", payday)
	_, _, err := p.Process(ctx, "smiths", payday)
	require.NoError(t, err)

	// GIVEN: the pre-payday snapshot is restored
	saveSalaried(t, p.Store, "smiths", payday)

	run, err := p.ProcessAll(ctx, payday)
	require.NoError(t, err)
	assert.Equal(t, RunFailed, run.Status)
	assert.Contains(t, run.Error, "smiths")
	assert.Zero(t, run.Households)
}

// =============================================================================
// SCHEDULER
// =============================================================================

func TestScheduler_DisabledDoesNothing(t *testing.T) {
	p := newProcessor(t)
	s := NewIncomeScheduler(p, config.SchedulerConfig{Enabled: false, Spec: "0 6 * * *"}, quietLogger())

	require.NoError(t, s.Start())
	s.Stop()

	runs, err := p.Store.IncomeRuns(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestScheduler_InvalidSpec(t *testing.T) {
	p := newProcessor(t)
	s := NewIncomeScheduler(p, config.SchedulerConfig{Enabled: true, Spec: "every morning"}, quietLogger())

	assert.Error(t, s.Start())
}

func TestScheduler_RunsOnStart(t *testing.T) {
	ctx := context.Background()
	p := newProcessor(t)
	payday := calendar.New(2025, time.March, 14)
	saveSalaried(t, p.Store, "smiths", payday)

	s := NewIncomeScheduler(p, config.SchedulerConfig{Enabled: true, Spec: "0 6 * * *"}, quietLogger())
	s.today = func() calendar.Date { return payday }

	require.NoError(t, s.Start())
	s.Stop()

	runs, err := p.Store.IncomeRuns(ctx, RunCompleted)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Payments)
}
