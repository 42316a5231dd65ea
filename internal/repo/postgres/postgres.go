package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/pgpinger/internal/domain"
	"github.com/hamed0406/pgpinger/internal/repo"
)

var _ repo.ResultStore = (*Store)(nil)
var _ repo.HistoryReader = (*Store)(nil)

// Schema is applied by New; every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS probe_results (
  id          BIGSERIAL PRIMARY KEY,
  run_id      TEXT NOT NULL,
  tick        BIGINT NOT NULL,
  outcome     TEXT NOT NULL,
  version     TEXT NULL,
  latency_ms  DOUBLE PRECISION NULL,
  atypical    BOOLEAN NOT NULL DEFAULT false,
  note        TEXT NOT NULL DEFAULT '',
  kind        TEXT NULL,
  reason      TEXT NOT NULL DEFAULT '',
  checked_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_probe_results_checked_at ON probe_results (checked_at DESC);
`

// Store records probe history in a Postgres database other than the one
// being probed.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctxPing, Schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	log.Info("history_store_ready", zap.String("table", "probe_results"))
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Append(ctx context.Context, r *domain.ProbeResult) error {
	var (
		version *string
		latency *float64
		kind    *string
	)
	if r.OK() {
		v, l := r.Version, r.LatencyMS()
		version, latency = &v, &l
	} else {
		k := string(r.Kind)
		kind = &k
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO probe_results
		   (run_id, tick, outcome, version, latency_ms, atypical, note, kind, reason, checked_at)
		 VALUES
		   ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.RunID, r.Tick, string(r.Outcome), version, latency, r.Atypical, r.Note, kind, r.Reason, r.CheckedAt,
	)
	if err != nil {
		s.log.Debug("history_append_failed", zap.Int64("tick", r.Tick), zap.Error(err))
		return fmt.Errorf("insert probe result: %w", err)
	}
	return nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]domain.ProbeResult, error) {
	rows, err := s.pool.Query(ctx, `
SELECT run_id, tick, outcome, version, latency_ms, atypical, note, kind, reason, checked_at
  FROM probe_results
 ORDER BY checked_at DESC, id DESC
 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent: %w", err)
	}
	defer rows.Close()

	var out []domain.ProbeResult
	for rows.Next() {
		var (
			r       domain.ProbeResult
			outcome string
			version *string
			latency *float64
			kind    *string
		)
		if err := rows.Scan(&r.RunID, &r.Tick, &outcome, &version, &latency,
			&r.Atypical, &r.Note, &kind, &r.Reason, &r.CheckedAt); err != nil {
			return nil, fmt.Errorf("scan probe result: %w", err)
		}
		r.Outcome = domain.Outcome(outcome)
		if version != nil {
			r.Version = *version
		}
		if latency != nil {
			r.Latency = time.Duration(*latency * float64(time.Millisecond))
		}
		if kind != nil {
			r.Kind = domain.FailureKind(*kind)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
