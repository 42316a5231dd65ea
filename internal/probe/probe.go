// Package probe checks a PostgreSQL server once and classifies what went
// wrong when it cannot.
package probe

import (
	"context"

	"github.com/hamed0406/pgpinger/internal/domain"
)

// Prober runs one connectivity check and never returns an error: failures
// are part of the result.
type Prober interface {
	Probe(ctx context.Context) domain.ProbeResult
}
