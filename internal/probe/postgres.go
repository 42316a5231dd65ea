package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hamed0406/pgpinger/internal/domain"
)

const versionQuery = "SELECT version()"

var _ Prober = (*Postgres)(nil)

// Postgres keeps a single-connection pool so a healthy connection is reused
// between ticks and a broken one is re-dialed on the next tick.
type Postgres struct {
	pool   *pgxpool.Pool
	expect ExpectedVersion
}

// NewPostgres parses the target without connecting; the first probe makes
// the first connection attempt.
func NewPostgres(ctx context.Context, connString string, expect ExpectedVersion) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse target: %w", err)
	}
	cfg.MaxConns = 1
	cfg.MinConns = 0

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}
	return &Postgres{pool: pool, expect: expect}, nil
}

func (p *Postgres) Probe(ctx context.Context) domain.ProbeResult {
	start := time.Now()
	var version string
	err := p.pool.QueryRow(ctx, versionQuery).Scan(&version)
	latency := time.Since(start)
	if err != nil {
		return domain.FailureFrom(Classify(err))
	}

	res := domain.Success(version, latency)
	v := p.expect.Check(version)
	res.Atypical, res.Note = v.Atypical, v.Note
	return res
}

func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}
