// Package sqlite keeps a bounded probe history in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hamed0406/pgpinger/internal/domain"
	"github.com/hamed0406/pgpinger/internal/repo"
)

var _ repo.ResultStore = (*Store)(nil)
var _ repo.HistoryReader = (*Store)(nil)

// DefaultRetention applies when Open is given a non-positive retention.
const DefaultRetention = 1000

type Store struct {
	db        *sql.DB
	retention int
}

// Open initialises the database with WAL enabled and the history schema applied.
func Open(path string, retention int) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := configure(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	s := &Store{db: db, retention: retention}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func configure(db *sql.DB) error {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	return nil
}

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS probe_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			version TEXT,
			latency_us INTEGER,
			atypical INTEGER NOT NULL DEFAULT 0,
			note TEXT NOT NULL DEFAULT '',
			kind TEXT,
			reason TEXT NOT NULL DEFAULT '',
			checked_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_probe_results_run ON probe_results (run_id, tick);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Append stores r and prunes rows beyond the retention limit.
func (s *Store) Append(ctx context.Context, r *domain.ProbeResult) (err error) {
	var (
		version sql.NullString
		latency sql.NullInt64
		kind    sql.NullString
	)
	if r.OK() {
		version = sql.NullString{String: r.Version, Valid: true}
		latency = sql.NullInt64{Int64: r.Latency.Microseconds(), Valid: true}
	} else {
		kind = sql.NullString{String: string(r.Kind), Valid: true}
	}
	checkedAt := r.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO probe_results (run_id, tick, outcome, version, latency_us, atypical, note, kind, reason, checked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.RunID, r.Tick, string(r.Outcome), version, latency, boolToInt(r.Atypical), r.Note, kind, r.Reason,
		checkedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert probe_result: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM probe_results
		WHERE id NOT IN (
			SELECT id FROM probe_results
			ORDER BY id DESC
			LIMIT ?
		)
	`, s.retention)
	if err != nil {
		return fmt.Errorf("prune probe_results: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit probe_result: %w", err)
	}
	return nil
}

// Recent returns up to limit results, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.ProbeResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, tick, outcome, version, latency_us, atypical, note, kind, reason, checked_at
		FROM probe_results
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query probe_results: %w", err)
	}
	defer rows.Close()

	var out []domain.ProbeResult
	for rows.Next() {
		var (
			r         domain.ProbeResult
			outcome   string
			version   sql.NullString
			latency   sql.NullInt64
			atypical  int
			kind      sql.NullString
			checkedAt string
		)
		if err := rows.Scan(&r.RunID, &r.Tick, &outcome, &version, &latency,
			&atypical, &r.Note, &kind, &r.Reason, &checkedAt); err != nil {
			return nil, fmt.Errorf("scan probe_result: %w", err)
		}
		r.Outcome = domain.Outcome(outcome)
		r.Version = version.String
		r.Latency = time.Duration(latency.Int64) * time.Microsecond
		r.Atypical = atypical != 0
		r.Kind = domain.FailureKind(kind.String)
		if r.CheckedAt, err = time.Parse(time.RFC3339Nano, checkedAt); err != nil {
			return nil, fmt.Errorf("parse checked_at %q: %w", checkedAt, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
