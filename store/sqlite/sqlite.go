/*
Package sqlite provides the SQLite-backed persistence layer.

PURPOSE:
  Stores the account balance, recurring/one-shot cash-flow sources, and
  manual balance adjustments. The forecast engine itself is pure; this
  package is the only place rows are read or written. In production, the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  account:      Single-row current balance with last-updated timestamp
  sources:      Incomes, bills, and expenses (kind column discriminates)
  adjustments:  Dated manual corrections to the projected balance

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/cashflow.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  input, err := store.LoadForecastInput(ctx, 90)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - forecast/aggregate.go: Consumes ForecastInput built from these rows
  - api/handlers.go: CRUD endpoints over this store
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/cashflow-engine/forecast"
)

// Store wraps the SQLite connection with the persistence operations the
// API layer needs.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
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
	-- Single-row account balance. id is fixed at 1.
	CREATE TABLE IF NOT EXISTS account (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		balance REAL NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);

	-- Cash-flow sources. kind discriminates income/bill/expense.
	CREATE TABLE IF NOT EXISTS sources (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		amount REAL NOT NULL,
		anchor_date TEXT NOT NULL,
		frequency TEXT NOT NULL DEFAULT '',
		recurring BOOLEAN NOT NULL DEFAULT FALSE,
		category TEXT NOT NULL DEFAULT '',
		end_date TEXT,
		is_paid BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sources_kind
		ON sources(kind);

	-- Composite index for the expansion query (hot path)
	CREATE INDEX IF NOT EXISTS idx_sources_kind_anchor
		ON sources(kind, anchor_date);

	-- Manual balance adjustments
	CREATE TABLE IF NOT EXISTS adjustments (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		amount REAL NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_adjustments_date
		ON adjustments(date);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Seed the balance row so reads never miss.
	_, err := s.db.Exec(
		`INSERT INTO account (id, balance, updated_at) VALUES (1, 0, ?)
		 ON CONFLICT(id) DO NOTHING`,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// =============================================================================
// ACCOUNT BALANCE
// =============================================================================

// GetBalance returns the current balance and when it was last updated.
func (s *Store) GetBalance(ctx context.Context) (float64, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var balance float64
	var updatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT balance, updated_at FROM account WHERE id = 1",
	).Scan(&balance, &updatedAt)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to read balance: %w", err)
	}

	t, _ := time.Parse(time.RFC3339, updatedAt)
	return balance, t, nil
}

// SetBalance overwrites the current balance.
func (s *Store) SetBalance(ctx context.Context, balance float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE account SET balance = ?, updated_at = ? WHERE id = 1",
		balance, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// =============================================================================
// SOURCES
// =============================================================================

// SaveSource inserts or updates a source.
func (s *Store) SaveSource(ctx context.Context, src forecast.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var endDate *string
	if src.EndDate != nil {
		d := src.EndDate.String()
		endDate = &d
	}

	query := `
		INSERT INTO sources
		(id, kind, name, amount, anchor_date, frequency, recurring, category, end_date, is_paid, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			name = excluded.name,
			amount = excluded.amount,
			anchor_date = excluded.anchor_date,
			frequency = excluded.frequency,
			recurring = excluded.recurring,
			category = excluded.category,
			end_date = excluded.end_date,
			is_paid = excluded.is_paid,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		src.ID, string(src.Kind), src.Name, src.Amount,
		src.AnchorDate.String(), src.Frequency, src.Recurring,
		src.Category, endDate, src.IsPaid, now, now,
	)
	return err
}

// GetSource retrieves a source by ID. Returns nil when not found.
func (s *Store) GetSource(ctx context.Context, id string) (*forecast.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := sourceSelect + " WHERE id = ?"
	sources, err := s.querySources(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, nil
	}
	return &sources[0], nil
}

// ListSources returns sources of one kind, ordered by anchor date.
func (s *Store) ListSources(ctx context.Context, kind forecast.SourceKind) ([]forecast.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := sourceSelect + " WHERE kind = ? ORDER BY anchor_date ASC, id ASC"
	return s.querySources(ctx, query, string(kind))
}

// ListAllSources returns every source regardless of kind.
func (s *Store) ListAllSources(ctx context.Context) ([]forecast.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := sourceSelect + " ORDER BY kind ASC, anchor_date ASC, id ASC"
	return s.querySources(ctx, query)
}

// DeleteSource removes a source. Deleting a missing ID is not an error.
func (s *Store) DeleteSource(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM sources WHERE id = ?", id)
	return err
}

// MarkBillPaid flips the paid flag on a bill.
func (s *Store) MarkBillPaid(ctx context.Context, id string, paid bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE sources SET is_paid = ?, updated_at = ? WHERE id = ? AND kind = ?",
		paid, time.Now().UTC().Format(time.RFC3339), id, string(forecast.SourceBill),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return forecast.ErrSourceNotFound
	}
	return nil
}

// UpdateAnchor moves a source's anchor date. Used by the anchor-refresh
// sweep to pull stale recurring dates forward.
func (s *Store) UpdateAnchor(ctx context.Context, id string, anchor forecast.TimePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE sources SET anchor_date = ?, updated_at = ? WHERE id = ?",
		anchor.String(), time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return forecast.ErrSourceNotFound
	}
	return nil
}

const sourceSelect = `
	SELECT id, kind, name, amount, anchor_date, frequency, recurring, category, end_date, is_paid
	FROM sources`

func (s *Store) querySources(ctx context.Context, query string, args ...any) ([]forecast.Source, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var sources []forecast.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

func scanSource(rows *sql.Rows) (forecast.Source, error) {
	var (
		src        forecast.Source
		kind       string
		anchorDate string
		endDate    sql.NullString
	)

	err := rows.Scan(
		&src.ID, &kind, &src.Name, &src.Amount, &anchorDate,
		&src.Frequency, &src.Recurring, &src.Category, &endDate, &src.IsPaid,
	)
	if err != nil {
		return src, fmt.Errorf("failed to scan source: %w", err)
	}

	src.Kind = forecast.SourceKind(kind)
	src.AnchorDate, _ = forecast.ParseDate(anchorDate)
	if endDate.Valid && endDate.String != "" {
		if d, perr := forecast.ParseDate(endDate.String); perr == nil {
			src.EndDate = &d
		}
	}
	return src, nil
}

// =============================================================================
// ADJUSTMENTS
// =============================================================================

// SaveAdjustment inserts or updates a balance adjustment.
func (s *Store) SaveAdjustment(ctx context.Context, adj forecast.BalanceAdjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO adjustments (id, date, amount, reason, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			amount = excluded.amount,
			reason = excluded.reason
	`

	_, err := s.db.ExecContext(ctx, query,
		adj.ID, adj.Date.String(), adj.Amount, adj.Reason,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ListAdjustments returns all adjustments ordered by date.
func (s *Store) ListAdjustments(ctx context.Context) ([]forecast.BalanceAdjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, date, amount, reason FROM adjustments ORDER BY date ASC, id ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []forecast.BalanceAdjustment
	for rows.Next() {
		var adj forecast.BalanceAdjustment
		var date string
		if err := rows.Scan(&adj.ID, &date, &adj.Amount, &adj.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan adjustment: %w", err)
		}
		adj.Date, _ = forecast.ParseDate(date)
		adjustments = append(adjustments, adj)
	}
	return adjustments, rows.Err()
}

// DeleteAdjustment removes an adjustment.
func (s *Store) DeleteAdjustment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM adjustments WHERE id = ?", id)
	return err
}

// =============================================================================
// FORECAST INPUT
// =============================================================================

// LoadForecastInput assembles a full engine input from stored rows.
func (s *Store) LoadForecastInput(ctx context.Context, horizonDays int) (forecast.ForecastInput, error) {
	balance, _, err := s.GetBalance(ctx)
	if err != nil {
		return forecast.ForecastInput{}, err
	}

	incomes, err := s.ListSources(ctx, forecast.SourceIncome)
	if err != nil {
		return forecast.ForecastInput{}, err
	}
	bills, err := s.ListSources(ctx, forecast.SourceBill)
	if err != nil {
		return forecast.ForecastInput{}, err
	}
	expenses, err := s.ListSources(ctx, forecast.SourceExpense)
	if err != nil {
		return forecast.ForecastInput{}, err
	}
	adjustments, err := s.ListAdjustments(ctx)
	if err != nil {
		return forecast.ForecastInput{}, err
	}

	return forecast.ForecastInput{
		CurrentBalance: balance,
		HorizonDays:    horizonDays,
		Incomes:        incomes,
		Bills:          bills,
		Expenses:       expenses,
		Adjustments:    adjustments,
	}, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data and zeroes the balance (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"sources", "adjustments"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE account SET balance = 0, updated_at = ? WHERE id = 1",
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// CountSources returns per-kind row counts. The reset endpoint reports
// them so callers can see what a destructive reset actually removed.
func (s *Store) CountSources(ctx context.Context) (map[forecast.SourceKind]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT kind, COUNT(*) FROM sources GROUP BY kind")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[forecast.SourceKind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[forecast.SourceKind(strings.ToLower(kind))] = n
	}
	return counts, rows.Err()
}
