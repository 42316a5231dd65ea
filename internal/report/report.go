// Package report delivers each probe result to the configured sinks.
package report

import (
	"context"

	"go.uber.org/multierr"

	"github.com/hamed0406/pgpinger/internal/domain"
	"github.com/hamed0406/pgpinger/internal/repo"
)

// Reporter receives every probe result, in tick order, from a single
// goroutine.
type Reporter interface {
	Report(ctx context.Context, r domain.ProbeResult) error
}

// Multi calls every reporter in order, even after one fails, and returns the
// combined error.
type Multi []Reporter

func (m Multi) Report(ctx context.Context, r domain.ProbeResult) error {
	var err error
	for _, rep := range m {
		if rep == nil {
			continue
		}
		err = multierr.Append(err, rep.Report(ctx, r))
	}
	return err
}

// Persist appends results to a store.
type Persist struct {
	Store repo.ResultStore
}

func (p Persist) Report(ctx context.Context, r domain.ProbeResult) error {
	return p.Store.Append(ctx, &r)
}
