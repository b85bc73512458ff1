/*
scheduler.go - Automated income processing scheduler

PURPOSE:
  Credits landed income for every household on a cron schedule, so that
  stored snapshots roll forward without a client calling
  process-income each payday.

DESIGN:
  - robfig/cron drives the schedule (standard 5-field spec, UTC)
  - Each tick calls IncomeProcessor.ProcessAll for today's date
  - Runs are recorded in income_runs for audit and UI display
  - Income already credited is skipped by the store, so a missed or
    repeated tick is harmless

CONFIGURATION ([scheduler] in config.toml):
  - enabled: Whether scheduler is active (default: false)
  - spec:    Cron expression (default: "0 6 * * *", 06:00 UTC daily)

USAGE:
  scheduler := NewIncomeScheduler(processor, cfg.Scheduler, logger)
  if err := scheduler.Start(); err != nil { ... }
  // ... later
  scheduler.Stop()

SEE ALSO:
  - processor.go: ProcessAll
  - handlers.go: TriggerIncomeRun endpoint (manual run)
*/
package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/warp/cashflow-engine/calendar"
	"github.com/warp/cashflow-engine/config"
)

// IncomeScheduler runs income processing on a cron schedule.
type IncomeScheduler struct {
	Processor *IncomeProcessor
	Spec      string
	Enabled   bool

	// RunOnStart processes once immediately, catching up on days the
	// server was down.
	RunOnStart bool

	today func() calendar.Date
	log   *logrus.Entry

	cron *cron.Cron
	wg   sync.WaitGroup
	mu   sync.Mutex
}

// NewIncomeScheduler creates a new scheduler.
func NewIncomeScheduler(p *IncomeProcessor, cfg config.SchedulerConfig, logger *logrus.Logger) *IncomeScheduler {
	return &IncomeScheduler{
		Processor:  p,
		Spec:       cfg.Spec,
		Enabled:    cfg.Enabled,
		RunOnStart: true,
		today:      calendar.Today,
		log:        logger.WithField("component", "scheduler"),
	}
}

// Start begins the scheduler. An invalid cron spec is an error; a disabled
// scheduler is not.
func (s *IncomeScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.log.Info("disabled, not starting")
		return nil
	}
	if s.cron != nil {
		return nil
	}

	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cron.PrintfLogger(s.log)),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(s.log))),
	)
	if _, err := c.AddFunc(s.Spec, s.tick); err != nil {
		return fmt.Errorf("scheduler spec %q: %w", s.Spec, err)
	}

	s.cron = c
	c.Start()

	if s.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.tick()
		}()
	}

	s.log.WithField("spec", s.Spec).Info("started")
	return nil
}

// Stop stops the scheduler and waits for a running pass to finish.
func (s *IncomeScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.cron = nil
	s.log.Info("stopped")
}

func (s *IncomeScheduler) tick() {
	today := s.today()
	run, err := s.Processor.ProcessAll(context.Background(), today)
	if err != nil {
		s.log.WithError(err).WithField("date", today.String()).Error("income run not recorded")
		return
	}
	if run.Status == RunFailed {
		s.log.WithField("run", run.ID).Warn("income run finished with failures")
	}
}
