/*
Package sqlite persists household snapshots for the cashflow engine.

PURPOSE:
  The engine is pure: it takes a snapshot and a date and returns numbers.
  Something still has to remember each household between requests and
  apply the one write the engine's outputs depend on: when a pay lands,
  the balance goes up and the income's next date moves forward. This
  package is that collaborator.

KEY TABLES:
  households:       One row per household, snapshot stored as JSON
  income_receipts:  Append-only log of every income credited
  income_runs:      One row per scheduled processing run

IDEMPOTENCY:
  income_receipts has a unique index on (household, income position, date).
  Incomes are identified by their position in the snapshot, not their name,
  so two incomes sharing a name are still separate payments. Marking the
  same pay as received twice fails the insert, so a retried or duplicated
  run never double-credits a balance.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. MarkIncomeProcessed runs its
  read-modify-write inside one SQL transaction under the write lock.

WAL MODE:
  File databases are opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  ":memory:" databases are pinned to one connection so every query sees
  the same schema.

USAGE:
  store, err := sqlite.New("./data/cashflow.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  err = store.SaveHousehold(ctx, sqlite.Household{ID: "smiths", Name: "The Smiths", Snapshot: snap})
  result, err := store.MarkIncomeProcessed(ctx, "smiths", calendar.Today())

SEE ALSO:
  - factory/snapshot.go: JSON form of the stored snapshot
  - api/processor.go: Single-flight wrapper around MarkIncomeProcessed
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/warp/cashflow-engine/calendar"
	"github.com/warp/cashflow-engine/cashflow"
	"github.com/warp/cashflow-engine/factory"
)

var (
	// ErrHouseholdNotFound is returned when no household has the given ID.
	ErrHouseholdNotFound = errors.New("household not found")

	// ErrAlreadyProcessed is returned when an income payment has already
	// been credited for that date.
	ErrAlreadyProcessed = errors.New("income already processed")
)

// Store persists households using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL"
	if dbPath == ":memory:" {
		dsn = dbPath + "?_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS households (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		snapshot_json TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Append-only: one row per income payment credited to a balance
	CREATE TABLE IF NOT EXISTS income_receipts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		household_id TEXT NOT NULL REFERENCES households(id) ON DELETE CASCADE,
		income_index INTEGER NOT NULL,
		income_name TEXT NOT NULL,
		received_on TEXT NOT NULL,
		amount INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_income_receipts_unique
		ON income_receipts(household_id, income_index, received_on);
	CREATE INDEX IF NOT EXISTS idx_income_receipts_household
		ON income_receipts(household_id, received_on);

	CREATE TABLE IF NOT EXISTS income_runs (
		id TEXT PRIMARY KEY,
		run_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'running',
		households INTEGER DEFAULT 0,
		payments INTEGER DEFAULT 0,
		credited INTEGER DEFAULT 0,
		error TEXT,
		started_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_income_runs_status
		ON income_runs(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// HOUSEHOLDS
// =============================================================================

// Household is a stored household and its current snapshot.
type Household struct {
	ID        string
	Name      string
	Snapshot  cashflow.Snapshot
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SaveHousehold inserts or replaces a household. Each save bumps Version.
func (s *Store) SaveHousehold(ctx context.Context, h Household) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveHousehold(ctx, s.db, h)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) saveHousehold(ctx context.Context, db execer, h Household) error {
	snapshotJSON, err := json.Marshal(factory.ToJSON(h.Snapshot))
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	query := `
		INSERT INTO households (id, name, snapshot_json, version, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			snapshot_json = excluded.snapshot_json,
			version = households.version + 1,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := db.ExecContext(ctx, query, h.ID, h.Name, string(snapshotJSON), now, now); err != nil {
		return fmt.Errorf("failed to save household %s: %w", h.ID, err)
	}
	return nil
}

// GetHousehold retrieves a household by ID.
func (s *Store) GetHousehold(ctx context.Context, id string) (*Household, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getHousehold(ctx, s.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) getHousehold(ctx context.Context, db queryRower, id string) (*Household, error) {
	var h Household
	var snapshotJSON, createdAt, updatedAt string

	err := db.QueryRowContext(ctx,
		"SELECT id, name, snapshot_json, version, created_at, updated_at FROM households WHERE id = ?",
		id,
	).Scan(&h.ID, &h.Name, &snapshotJSON, &h.Version, &createdAt, &updatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrHouseholdNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	h.Snapshot, err = factory.ParseSnapshot([]byte(snapshotJSON))
	if err != nil {
		return nil, fmt.Errorf("stored snapshot for %s is invalid: %w", id, err)
	}
	h.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	h.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &h, nil
}

// HouseholdSummary is a household without its snapshot.
type HouseholdSummary struct {
	ID        string
	Name      string
	Version   int
	UpdatedAt time.Time
}

// ListHouseholds returns all households ordered by name.
func (s *Store) ListHouseholds(ctx context.Context) ([]HouseholdSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, version, updated_at FROM households ORDER BY name, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var households []HouseholdSummary
	for rows.Next() {
		var h HouseholdSummary
		var updatedAt string
		if err := rows.Scan(&h.ID, &h.Name, &h.Version, &updatedAt); err != nil {
			return nil, err
		}
		h.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		households = append(households, h)
	}
	return households, rows.Err()
}

// DeleteHousehold removes a household and its receipts.
func (s *Store) DeleteHousehold(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM households WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrHouseholdNotFound, id)
	}
	return nil
}

// =============================================================================
// INCOME PROCESSING
// =============================================================================

// IncomeReceipt is one income payment credited to a household's balance.
type IncomeReceipt struct {
	HouseholdID string
	IncomeIndex int // position in Snapshot.Incomes
	IncomeName  string
	ReceivedOn  calendar.Date
	Amount      cashflow.Cents
}

// ProcessResult is what MarkIncomeProcessed did to one household.
type ProcessResult struct {
	HouseholdID string
	Receipts    []IncomeReceipt
	Credited    cashflow.Cents
	Balance     cashflow.Cents
}

// MarkIncomeProcessed credits every income payment due on or before today:
// for each income whose NextDate has arrived, the amount is added to the
// balance and NextDate moves forward one step, repeating until NextDate is
// after today. A household with nothing due is left untouched.
func (s *Store) MarkIncomeProcessed(ctx context.Context, householdID string, today calendar.Date) (ProcessResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := ProcessResult{HouseholdID: householdID}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	h, err := s.getHousehold(ctx, tx, householdID)
	if err != nil {
		return result, err
	}

	snap := h.Snapshot
	incomes := make([]cashflow.IncomeSource, len(snap.Incomes))
	copy(incomes, snap.Incomes)

	for i := range incomes {
		in := &incomes[i]
		for !in.NextDate.After(today) {
			receipt := IncomeReceipt{
				HouseholdID: householdID,
				IncomeIndex: i,
				IncomeName:  in.Name,
				ReceivedOn:  in.NextDate,
				Amount:      in.Amount,
			}
			if err := insertReceipt(ctx, tx, receipt); err != nil {
				return result, err
			}
			result.Receipts = append(result.Receipts, receipt)
			result.Credited += in.Amount
			in.NextDate = calendar.Advance(in.NextDate, in.Frequency)
		}
	}

	snap.Incomes = incomes
	snap.StartingBalance += result.Credited
	result.Balance = snap.StartingBalance

	if len(result.Receipts) == 0 {
		return result, nil
	}

	h.Snapshot = snap
	if err := s.saveHousehold(ctx, tx, *h); err != nil {
		return result, err
	}
	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("failed to commit income processing: %w", err)
	}
	return result, nil
}

func insertReceipt(ctx context.Context, db execer, r IncomeReceipt) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO income_receipts (household_id, income_index, income_name, received_on, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.HouseholdID, r.IncomeIndex, r.IncomeName, r.ReceivedOn.String(), int64(r.Amount), time.Now().UTC().Format(time.RFC3339))

	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: %s %s on %s", ErrAlreadyProcessed, r.HouseholdID, r.IncomeName, r.ReceivedOn)
	}
	if err != nil {
		return fmt.Errorf("failed to record income receipt: %w", err)
	}
	return nil
}

// IncomeReceipts returns a household's credited payments, oldest first.
func (s *Store) IncomeReceipts(ctx context.Context, householdID string) ([]IncomeReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT household_id, income_index, income_name, received_on, amount
		FROM income_receipts
		WHERE household_id = ?
		ORDER BY received_on ASC, id ASC
	`, householdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []IncomeReceipt
	for rows.Next() {
		var r IncomeReceipt
		var receivedOn string
		var amount int64
		if err := rows.Scan(&r.HouseholdID, &r.IncomeIndex, &r.IncomeName, &receivedOn, &amount); err != nil {
			return nil, err
		}
		if r.ReceivedOn, err = calendar.ParseDate(receivedOn); err != nil {
			return nil, err
		}
		r.Amount = cashflow.Cents(amount)
		receipts = append(receipts, r)
	}
	return receipts, rows.Err()
}

// =============================================================================
// INCOME RUNS
// =============================================================================

// IncomeRun records one pass of the income scheduler over all households.
type IncomeRun struct {
	ID          string
	RunDate     calendar.Date
	Status      string // running, completed, failed
	Households  int
	Payments    int
	Credited    cashflow.Cents
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// SaveIncomeRun inserts or updates a run.
func (s *Store) SaveIncomeRun(ctx context.Context, r IncomeRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO income_runs (id, run_date, status, households, payments, credited, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			households = excluded.households,
			payments = excluded.payments,
			credited = excluded.credited,
			error = excluded.error,
			completed_at = excluded.completed_at
	`

	var completedAt *string
	if r.CompletedAt != nil {
		ts := r.CompletedAt.UTC().Format(time.RFC3339)
		completedAt = &ts
	}

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.RunDate.String(), r.Status, r.Households, r.Payments, int64(r.Credited),
		nullString(r.Error), r.StartedAt.UTC().Format(time.RFC3339), completedAt,
	)
	return err
}

// IncomeRuns returns runs newest first, optionally filtered by status.
func (s *Store) IncomeRuns(ctx context.Context, status string) ([]IncomeRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, run_date, status, households, payments, credited, error, started_at, completed_at
		FROM income_runs
	`
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY started_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []IncomeRun
	for rows.Next() {
		var r IncomeRun
		var runDate, startedAt string
		var credited int64
		var runErr, completedAt sql.NullString
		if err := rows.Scan(&r.ID, &runDate, &r.Status, &r.Households, &r.Payments, &credited, &runErr, &startedAt, &completedAt); err != nil {
			return nil, err
		}

		r.RunDate, _ = calendar.ParseDate(runDate)
		r.Credited = cashflow.Cents(credited)
		r.Error = runErr.String
		r.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		if completedAt.Valid {
			t, _ := time.Parse(time.RFC3339, completedAt.String)
			r.CompletedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"income_receipts", "income_runs", "households"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}
