/*
processor.go - Single-flight income processing

PURPOSE:
  Crediting landed income mutates a household's balance, so two requests
  racing to process the same household must not both run. IncomeProcessor
  coalesces them: the first caller does the work, later callers with the
  same key wait for and share its result. The key is cleared as soon as
  the call returns, so the next request starts fresh.

KEY:
  "<household id>@<YYYY-MM-DD>". Different days are different operations.

BATCH RUNS:
  ProcessAll walks every household and records an IncomeRun so the
  scheduler and the manual trigger leave the same audit trail.

SEE ALSO:
  - store/sqlite/sqlite.go: MarkIncomeProcessed (the transactional work)
  - scheduler.go: Cron trigger for ProcessAll
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/cashflow-engine/calendar"
	"github.com/warp/cashflow-engine/store/sqlite"
	"golang.org/x/sync/singleflight"
)

// Run statuses.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// IncomeProcessor credits landed income, one call per household and day at
// a time.
type IncomeProcessor struct {
	Store *sqlite.Store

	group singleflight.Group
	log   *logrus.Entry
	now   func() time.Time
}

// NewIncomeProcessor creates a processor over store.
func NewIncomeProcessor(store *sqlite.Store, logger *logrus.Logger) *IncomeProcessor {
	return &IncomeProcessor{
		Store: store,
		log:   logger.WithField("component", "income"),
		now:   time.Now,
	}
}

// Process credits householdID's income due on or before today. shared is
// true when the result came from a call already in flight.
func (p *IncomeProcessor) Process(ctx context.Context, householdID string, today calendar.Date) (result sqlite.ProcessResult, shared bool, err error) {
	key := householdID + "@" + today.String()
	v, err, shared := p.group.Do(key, func() (any, error) {
		return p.Store.MarkIncomeProcessed(ctx, householdID, today)
	})
	if err != nil {
		return sqlite.ProcessResult{}, shared, err
	}

	result = v.(sqlite.ProcessResult)
	if !shared && len(result.Receipts) > 0 {
		p.log.WithFields(logrus.Fields{
			"household": householdID,
			"payments":  len(result.Receipts),
			"credited":  result.Credited.String(),
			"balance":   result.Balance.String(),
		}).Info("income credited")
	}
	return result, shared, nil
}

// ProcessAll processes every household and records the run. A household
// that fails is logged and counted against the run; the others still
// proceed. The returned error is only for failures to record the run.
func (p *IncomeProcessor) ProcessAll(ctx context.Context, today calendar.Date) (sqlite.IncomeRun, error) {
	started := p.now().UTC()
	run := sqlite.IncomeRun{
		ID:        fmt.Sprintf("income-%s-%d", today, started.UnixNano()),
		RunDate:   today,
		Status:    RunRunning,
		StartedAt: started,
	}
	if err := p.Store.SaveIncomeRun(ctx, run); err != nil {
		return run, fmt.Errorf("recording income run: %w", err)
	}

	households, err := p.Store.ListHouseholds(ctx)
	if err != nil {
		return p.finish(ctx, run, err)
	}

	var failures []error
	for _, hh := range households {
		result, _, err := p.Process(ctx, hh.ID, today)
		if err != nil {
			entry := p.log.WithError(err).WithField("household", hh.ID)
			if errors.Is(err, sqlite.ErrAlreadyProcessed) {
				entry.Warn("income already credited")
			} else {
				entry.Error("income processing failed")
			}
			failures = append(failures, fmt.Errorf("%s: %w", hh.ID, err))
			continue
		}
		run.Households++
		run.Payments += len(result.Receipts)
		run.Credited += result.Credited
	}

	return p.finish(ctx, run, errors.Join(failures...))
}

func (p *IncomeProcessor) finish(ctx context.Context, run sqlite.IncomeRun, runErr error) (sqlite.IncomeRun, error) {
	completed := p.now().UTC()
	run.CompletedAt = &completed
	run.Status = RunCompleted
	if runErr != nil {
		run.Status = RunFailed
		run.Error = runErr.Error()
	}

	p.log.WithFields(logrus.Fields{
		"run":        run.ID,
		"status":     run.Status,
		"households": run.Households,
		"payments":   run.Payments,
		"credited":   run.Credited.String(),
	}).Info("income run finished")

	if err := p.Store.SaveIncomeRun(ctx, run); err != nil {
		return run, fmt.Errorf("recording income run: %w", err)
	}
	return run, nil
}
