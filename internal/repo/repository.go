package repo

import (
	"context"

	"github.com/hamed0406/pgpinger/internal/domain"
)

// Ports (interfaces) for probe history; memory, Postgres and SQLite adapters
// implement both.
type ResultStore interface {
	Append(ctx context.Context, r *domain.ProbeResult) error
}

type HistoryReader interface {
	// Recent returns up to limit results, newest first.
	Recent(ctx context.Context, limit int) ([]domain.ProbeResult, error)
}
