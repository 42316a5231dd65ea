package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/pgpinger/internal/domain"
	"github.com/hamed0406/pgpinger/internal/probe"
	"github.com/hamed0406/pgpinger/internal/report"
)

// Pinger probes the target once per interval until its context is cancelled.
type Pinger struct {
	Logger   *zap.Logger
	Prober   probe.Prober
	Reporter report.Reporter
	Interval time.Duration
	Timeout  time.Duration
	RunID    string
	Target   domain.Target
}

func NewPinger(
	logger *zap.Logger,
	prober probe.Prober,
	reporter report.Reporter,
	interval time.Duration,
	timeout time.Duration,
) *Pinger {
	if timeout <= 0 || timeout > interval {
		timeout = interval
	}
	return &Pinger{
		Logger:   logger,
		Prober:   prober,
		Reporter: reporter,
		Interval: interval,
		Timeout:  timeout,
	}
}

// Run probes immediately, then at start+n*interval. Boundaries that pass
// while a probe is running are skipped rather than queued. An in-flight probe
// is allowed to finish after ctx is cancelled. Returns nil on cancellation.
func (p *Pinger) Run(ctx context.Context) error {
	if p.Interval <= 0 {
		return errors.New("scheduler: interval must be positive")
	}
	p.Logger.Info("pinger_started",
		zap.Stringer("target", p.Target),
		zap.Duration("interval", p.Interval),
		zap.Duration("timeout", p.Timeout),
	)

	var ticks int64
	defer func() {
		p.Logger.Info("pinger_stopped", zap.Int64("ticks", ticks))
	}()

	start := time.Now()
	var due int64 // boundary index of the tick just run
	for {
		if ctx.Err() != nil {
			return nil
		}
		p.runOnce(ctx, ticks)
		ticks++

		next, k := nextBoundary(start, time.Now(), p.Interval)
		if skipped := k - due - 1; skipped > 0 {
			p.Logger.Debug("tick_skipped", zap.Int64("skipped", skipped), zap.Int64("next_tick", ticks))
		}
		due = k

		t := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

func (p *Pinger) runOnce(ctx context.Context, tick int64) {
	// Shutdown must not abort a probe mid-flight; the timeout still bounds it.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.Timeout)
	res := p.Prober.Probe(pctx)
	cancel()

	res.Tick = tick
	res.RunID = p.RunID

	rctx, rcancel := context.WithTimeout(context.WithoutCancel(ctx), p.Interval)
	defer rcancel()
	if err := p.Reporter.Report(rctx, res); err != nil {
		p.Logger.Warn("report_failed", zap.Int64("tick", tick), zap.Error(err))
	}
}

// nextBoundary returns the first start+k*interval strictly after now, and k.
func nextBoundary(start, now time.Time, interval time.Duration) (time.Time, int64) {
	if now.Before(start) {
		return start, 0
	}
	k := int64(now.Sub(start)/interval) + 1
	return start.Add(time.Duration(k) * interval), k
}
