package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloud-nimbus/chronoguard/internal/alarm"
	cgerrors "github.com/cloud-nimbus/chronoguard/internal/errors"
	"github.com/cloud-nimbus/chronoguard/internal/timeutil"
)

// PostgresStore is the pgxpool-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// PostgresConfig configures the bounded connection pool.
type PostgresConfig struct {
	URL      string
	MinConns int32
	MaxConns int32
}

// NewPostgresStore opens a connection pool and verifies connectivity.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, cgerrors.NewStoreUnavailableError("parse connection string", err)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, cgerrors.NewStoreUnavailableError("open connection pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, cgerrors.NewStoreUnavailableError("ping", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Migrate runs the embedded schema migrations against the store's
// schema_migrations table, skipping any version already applied.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("store: create migrations table: %w", err)
	}

	for _, m := range migrations {
		if err := s.runMigration(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) runMigration(ctx context.Context, m migration) error {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", m.version,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("store: check migration %d: %w", m.version, err)
	}
	if exists {
		return nil
	}

	if _, err := s.pool.Exec(ctx, m.sql); err != nil {
		return fmt.Errorf("store: run migration %d: %w", m.version, err)
	}
	if _, err := s.pool.Exec(ctx,
		"INSERT INTO schema_migrations (version) VALUES ($1)", m.version,
	); err != nil {
		return fmt.Errorf("store: record migration %d: %w", m.version, err)
	}
	return nil
}

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
			CREATE TABLE alarms (
				code_id TEXT NOT NULL,
				email TEXT NOT NULL,
				local_time TEXT NOT NULL,
				utc_time TEXT NOT NULL,
				is_recurring BOOLEAN NOT NULL DEFAULT false,
				days_of_week TEXT NOT NULL,
				timezone TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				PRIMARY KEY (code_id, email, local_time)
			);

			CREATE INDEX idx_alarms_utc_time ON alarms(utc_time);

			CREATE TABLE code_descriptions (
				code_id TEXT PRIMARY KEY,
				description TEXT NOT NULL
			);
		`,
	},
}

// Insert writes a new alarm row.
func (s *PostgresStore) Insert(ctx context.Context, a alarm.Alarm) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO alarms (code_id, email, local_time, utc_time, is_recurring, days_of_week, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, a.CodeID, a.Email, a.LocalTime, a.UTCTime, a.IsRecurring, a.DaysOfWeek.String(), a.Timezone, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return cgerrors.NewAlreadyExistsError(a.ID())
		}
		return cgerrors.NewStoreUnavailableError("Insert", err)
	}
	return nil
}

// Delete removes the row keyed by (codeID, email, localTime).
func (s *PostgresStore) Delete(ctx context.Context, codeID, email, localTime string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM alarms WHERE code_id = $1 AND email = $2 AND local_time = $3
	`, codeID, email, localTime)
	if err != nil {
		return 0, cgerrors.NewStoreUnavailableError("Delete", err)
	}
	return tag.RowsAffected(), nil
}

// SelectAll returns every alarm row.
func (s *PostgresStore) SelectAll(ctx context.Context) ([]alarm.Alarm, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT code_id, email, local_time, utc_time, is_recurring, days_of_week, timezone, created_at, updated_at
		FROM alarms
	`)
	if err != nil {
		return nil, cgerrors.NewStoreUnavailableError("SelectAll", err)
	}
	defer rows.Close()

	var out []alarm.Alarm
	for rows.Next() {
		var a alarm.Alarm
		var daysStr string
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&a.CodeID, &a.Email, &a.LocalTime, &a.UTCTime, &a.IsRecurring, &daysStr, &a.Timezone, &createdAt, &updatedAt); err != nil {
			return nil, cgerrors.NewStoreUnavailableError("SelectAll scan", err)
		}
		// A malformed days_of_week leaves the set empty; the row then fails
		// Validate at the caller and is skipped rather than aborting the
		// whole select.
		if days, err := timeutil.ParseWeekdaySet(daysStr); err == nil {
			a.DaysOfWeek = days
		}
		a.CreatedAt = createdAt
		a.UpdatedAt = updatedAt
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, cgerrors.NewStoreUnavailableError("SelectAll rows", err)
	}
	return out, nil
}

// GetDescription returns the registered description for codeID.
func (s *PostgresStore) GetDescription(ctx context.Context, codeID string) (string, bool, error) {
	var description string
	err := s.pool.QueryRow(ctx,
		"SELECT description FROM code_descriptions WHERE code_id = $1", codeID,
	).Scan(&description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, cgerrors.NewStoreUnavailableError("GetDescription", err)
	}
	return description, true, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
