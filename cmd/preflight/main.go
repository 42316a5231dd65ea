// cmd/preflight/main.go
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hamed0406/pgpinger/internal/config"
)

func main() {
	if !preflight(os.Stdout, os.Stderr) {
		os.Exit(1)
	}
}

// preflight prints one line per check and reports whether none failed.
func preflight(stdout, stderr io.Writer) bool {
	passed := true
	fail := func(msg string) {
		fmt.Fprintln(stderr, "✖", msg)
		passed = false
	}
	warn := func(msg string) { fmt.Fprintln(stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(stdout, "✔", msg) }

	cfg, err := config.FromEnv()
	if err != nil {
		fail(err.Error())
		return false
	}
	ok(fmt.Sprintf("PING_INTERVAL=%s PROBE_TIMEOUT=%s", cfg.Interval, cfg.Timeout))

	target, err := cfg.Target.Describe()
	if err != nil {
		fail("target: " + err.Error())
	} else if strings.TrimSpace(os.Getenv("DATABASE_URL")) == "" && strings.TrimSpace(os.Getenv("DB_HOST")) == "" && os.Getenv("CONFIG_FILE") == "" {
		warn("no DATABASE_URL, DB_HOST or CONFIG_FILE; probing default " + target.String())
	} else {
		ok("target " + target.String())
	}
	if cfg.Target.Password == "" && cfg.Target.DatabaseURL == "" {
		warn("DB_PASSWORD empty; relying on .pgpass or trust auth.")
	}

	if cfg.Log.File == "" {
		ok("LOG_FILE unset; logging to console only")
	} else if err := writableDir(filepath.Dir(cfg.Log.File)); err != nil {
		fail("LOG_FILE directory not writable: " + err.Error())
	} else {
		ok("LOG_FILE=" + cfg.Log.File)
	}

	if cfg.StatusAddr == "" {
		ok("STATUS_ADDR unset; status server disabled")
	} else {
		ok("STATUS_ADDR=" + cfg.StatusAddr)
		if len(cfg.StatusAPIKeys) == 0 {
			warn("STATUS_API_KEYS empty; /api/* is open to anyone who can reach STATUS_ADDR.")
		}
		if strings.Contains(os.Getenv("STATUS_API_KEYS"), " ") {
			warn("STATUS_API_KEYS contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
		if len(cfg.AllowedOrigins) == 0 {
			warn("ALLOWED_ORIGINS empty; every origin is allowed by CORS.")
		}
	}

	if cfg.HistorySQLitePath != "" {
		if err := writableDir(filepath.Dir(cfg.HistorySQLitePath)); err != nil {
			fail("HISTORY_SQLITE_PATH directory not writable: " + err.Error())
		} else {
			ok("HISTORY_SQLITE_PATH=" + cfg.HistorySQLitePath)
		}
	}
	if cfg.HistoryDatabaseURL != "" {
		ok("HISTORY_DATABASE_URL present")
	}
	if cfg.SlackWebhook != "" {
		ok("SLACK_WEBHOOK_URL present")
	}

	if passed {
		ok("preflight passed")
	}
	return passed
}

// writableDir creates dir if needed and checks a file can be created in it.
func writableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
