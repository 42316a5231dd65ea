package report

import (
	"context"

	"go.uber.org/zap"

	"github.com/hamed0406/pgpinger/internal/domain"
)

// Log writes one entry per result through the process logger, which fans
// out to the console and file sinks.
type Log struct {
	Logger *zap.Logger
}

func (l Log) Report(_ context.Context, r domain.ProbeResult) error {
	fields := []zap.Field{
		zap.Int64("tick", r.Tick),
		zap.String("outcome", string(r.Outcome)),
	}
	switch {
	case !r.OK():
		l.Logger.Error("probe_failed", append(fields,
			zap.String("kind", string(r.Kind)),
			zap.String("reason", r.Reason),
		)...)
	case r.Atypical:
		l.Logger.Warn("probe_atypical", append(fields,
			zap.String("version", r.Version),
			zap.Float64("latency_ms", r.LatencyMS()),
			zap.Bool("atypical", true),
			zap.String("note", r.Note),
		)...)
	default:
		l.Logger.Info("probe_ok", append(fields,
			zap.String("version", r.Version),
			zap.Float64("latency_ms", r.LatencyMS()),
		)...)
	}
	return nil
}
