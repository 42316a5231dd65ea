// Package observability wires optional crash reporting.
package observability

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rollbar/rollbar-go"
	"go.uber.org/zap"
)

// SetupRollbar enables Rollbar when ROLLBAR_ACCESS_TOKEN is set. The returned
// func flushes pending items and should be deferred.
func SetupRollbar(logger *zap.Logger, codeVersion string) (bool, func()) {
	token := strings.TrimSpace(os.Getenv("ROLLBAR_ACCESS_TOKEN"))
	if token == "" {
		rollbar.SetEnabled(false)
		logger.Debug("rollbar_disabled", zap.String("reason", "missing access token"))
		return false, func() {}
	}

	rollbar.SetEnabled(true)
	rollbar.SetToken(token)

	env := strings.TrimSpace(os.Getenv("ROLLBAR_ENVIRONMENT"))
	if env == "" {
		env = "production"
	}
	rollbar.SetEnvironment(env)

	if codeVersion != "" {
		rollbar.SetCodeVersion(codeVersion)
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		rollbar.SetServerHost(hostname)
	}
	if wd, err := os.Getwd(); err == nil {
		rollbar.SetServerRoot(filepath.Clean(wd))
	}

	logger.Info("rollbar_enabled", zap.String("environment", env))

	return true, rollbar.Wait
}

// CapturePanic reports a panic to Rollbar, logs it, and re-panics. Use as
// `defer CapturePanic(logger, enabled)()`.
func CapturePanic(logger *zap.Logger, enabled bool) func() {
	return func() {
		rec := recover()
		if rec == nil {
			return
		}
		if enabled {
			switch err := rec.(type) {
			case error:
				rollbar.Critical(err)
			default:
				rollbar.Critical(fmt.Errorf("panic: %v", rec))
			}
			rollbar.Wait()
		}
		logger.Error("panic_captured", zap.Any("panic", rec), zap.Stack("stack"))
		_ = logger.Sync()
		panic(rec)
	}
}
