package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/hamed0406/pgpinger/internal/config"
	"github.com/hamed0406/pgpinger/internal/httpapi"
	"github.com/hamed0406/pgpinger/internal/logging"
	"github.com/hamed0406/pgpinger/internal/observability"
	"github.com/hamed0406/pgpinger/internal/probe"
	"github.com/hamed0406/pgpinger/internal/repo"
	"github.com/hamed0406/pgpinger/internal/repo/memory"
	pg "github.com/hamed0406/pgpinger/internal/repo/postgres"
	"github.com/hamed0406/pgpinger/internal/repo/sqlite"
	"github.com/hamed0406/pgpinger/internal/report"
	"github.com/hamed0406/pgpinger/internal/scheduler"
)

var version = "dev"

const (
	exitOK     = 0
	exitFail   = 1
	exitConfig = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run returns the process exit code. It blocks until ctx is cancelled.
func run(ctx context.Context, stdout, stderr io.Writer) int {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(stderr, "pgpinger:", err)
		if errors.Is(err, config.ErrInvalidConfig) {
			return exitConfig
		}
		return exitFail
	}

	target, err := cfg.Target.Describe()
	if err != nil {
		fmt.Fprintln(stderr, "pgpinger:", err)
		return exitConfig
	}

	base, closeLog, err := logging.New(cfg.Log, stdout)
	if err != nil {
		fmt.Fprintln(stderr, "pgpinger:", err)
		return exitFail
	}
	defer closeLog()

	runID := uuid.NewString()
	logger := base.With(zap.String("run_id", runID))

	rollbarOn, flush := observability.SetupRollbar(logger, version)
	defer flush()
	defer observability.CapturePanic(logger, rollbarOn)()

	expect, err := probe.NewExpectedVersion(cfg.ExpectedMajors, cfg.ExpectedPattern)
	if err != nil {
		logger.Error("config_invalid", zap.Error(err))
		return exitConfig
	}
	prober, err := probe.NewPostgres(ctx, cfg.Target.ConnString(), expect)
	if err != nil {
		logger.Error("probe_init_failed", zap.Error(err))
		return exitConfig
	}
	defer prober.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	status := memory.New(memory.DefaultCapacity)
	reporters := report.Multi{
		report.Log{Logger: logger},
		report.NewMetrics(reg),
		report.Persist{Store: status},
	}

	// A history sink that cannot be opened is skipped, not fatal.
	var history repo.HistoryReader
	if cfg.HistoryDatabaseURL != "" {
		hist, err := pg.New(ctx, cfg.HistoryDatabaseURL, logger)
		if err != nil {
			logger.Warn("history_init_failed", zap.String("sink", "postgres"), zap.Error(err))
		} else {
			defer hist.Close()
			reporters = append(reporters, report.Persist{Store: hist})
			history = hist
		}
	}
	if cfg.HistorySQLitePath != "" {
		hist, err := sqlite.Open(cfg.HistorySQLitePath, cfg.HistoryRetention)
		if err != nil {
			logger.Warn("history_init_failed", zap.String("sink", "sqlite"), zap.Error(err))
		} else {
			defer hist.Close()
			reporters = append(reporters, report.Persist{Store: hist})
			if history == nil {
				history = hist
			}
		}
	}
	if s := report.NewSlack(cfg.SlackWebhook, target.String()); s != nil {
		reporters = append(reporters, s)
	}

	if cfg.StatusAddr != "" {
		api := httpapi.NewServer(logger, status, target, cfg.StatusAPIKeys, cfg.AllowedOrigins, reg)
		api.History = history
		srv := &http.Server{
			Addr:              cfg.StatusAddr,
			Handler:           api.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("status_listen", zap.String("addr", cfg.StatusAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("status_server_failed", zap.Error(err))
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	p := scheduler.NewPinger(logger, prober, reporters, cfg.Interval, cfg.Timeout)
	p.RunID = runID
	p.Target = target
	if err := p.Run(ctx); err != nil {
		logger.Error("pinger_failed", zap.Error(err))
		return exitFail
	}
	return exitOK
}
