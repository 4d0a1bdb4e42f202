// Package stats persists per-entity operation statistics in SQLite.
//
// A Store is a metrics.Collector: every recorded operation is folded into
// one row per (entity, operation) holding the call count, the total time
// and the slowest call. The database survives process restarts, so the
// `docdal stats` command can report on earlier runs.
package stats

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/docdal/internal/metrics"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added op_stats.updated_at
const currentSchemaVersion = 1

// Store provides durable operation statistics.
// Uses SQLite with WAL mode so a reader can inspect a live database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report failed writes from Record.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithNow sets the time source for updated_at.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{db: db, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Add folds one operation into the statistics.
func (s *Store) Add(ctx context.Context, entity, operation string, elapsed time.Duration) error {
	ms := durationMS(elapsed)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO op_stats (entity, operation, calls, total_ms, max_ms, updated_at)
		VALUES (?, ?, 1, ?, ?, ?)
		ON CONFLICT (entity, operation) DO UPDATE SET
			calls      = calls + 1,
			total_ms   = total_ms + excluded.total_ms,
			max_ms     = MAX(max_ms, excluded.max_ms),
			updated_at = excluded.updated_at
	`, entity, operation, ms, ms, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record %s %s: %w", entity, operation, err)
	}
	return nil
}

// Record implements metrics.Collector. Write failures are logged, never
// returned, so statistics cannot fail a query.
func (s *Store) Record(entity, operation string, elapsed time.Duration, _ ...any) {
	if err := s.Add(context.Background(), entity, operation, elapsed); err != nil {
		s.logger.Warn("stats write failed", "entity", entity, "operation", operation, "error", err)
	}
}

// List returns the statistics ordered by entity, then operation.
func (s *Store) List(ctx context.Context) ([]metrics.OpStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entity, operation, calls, total_ms, max_ms
		FROM op_stats
		ORDER BY entity COLLATE BINARY, operation COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("list stats: %w", err)
	}
	defer rows.Close()

	var out []metrics.OpStat
	for rows.Next() {
		var (
			st           metrics.OpStat
			total, slowest float64
		)
		if err := rows.Scan(&st.Entity, &st.Operation, &st.Calls, &total, &slowest); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		st.Total = msDuration(total)
		st.Max = msDuration(slowest)
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}
	return out, nil
}

// Reset deletes all statistics.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM op_stats"); err != nil {
		return fmt.Errorf("reset stats: %w", err)
	}
	return nil
}

func durationMS(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func msDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds updated_at to tables created before it was part of
// schema.sql. New databases already have the column.
func migrateToV1(db *sql.DB) error {
	var n int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM pragma_table_info('op_stats') WHERE name = 'updated_at'",
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := db.Exec(`ALTER TABLE op_stats ADD COLUMN updated_at TEXT NOT NULL DEFAULT ''`); err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
