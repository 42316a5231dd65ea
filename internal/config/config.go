package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultInterval     = 20 * time.Second
	defaultMaxTimeout   = 10 * time.Second
	defaultHistoryLimit = 1000
)

// Target holds the parts of the connection descriptor. DatabaseURL, when
// set, replaces all of them.
type Target struct {
	DatabaseURL    string
	Host           string
	Port           int
	DBName         string
	User           string
	Password       string
	SSLMode        string
	ConnectTimeout int // seconds, 0 = driver default
	ClientEncoding string
}

type LogConfig struct {
	File       string // empty means console only
	Level      string
	Format     string // json | console
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Config struct {
	Interval time.Duration
	Timeout  time.Duration
	Target   Target
	Log      LogConfig

	ExpectedMajors  []int
	ExpectedPattern string

	StatusAddr     string
	StatusAPIKeys  []string
	AllowedOrigins []string

	HistoryDatabaseURL string
	HistorySQLitePath  string
	HistoryRetention   int

	SlackWebhook string
}

func defaults() Config {
	return Config{
		Interval: DefaultInterval,
		Target: Target{
			Host:           "localhost",
			Port:           5432,
			DBName:         "mydb",
			SSLMode:        "prefer",
			ClientEncoding: "UTF8",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 14,
		},
		ExpectedMajors:   []int{16, 17},
		HistoryRetention: defaultHistoryLimit,
	}
}

// FromEnv builds the configuration from defaults, then the optional
// CONFIG_FILE, then environment variables, and validates the result.
func FromEnv() (Config, error) {
	cfg := defaults()

	if path := env("CONFIG_FILE"); path != "" {
		fc, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		fc.apply(&cfg.Target)
	}

	var timeoutSet bool
	if v := env("PING_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fieldError("PING_INTERVAL", fmt.Errorf("want a positive number of seconds, got %q", v))
		}
		cfg.Interval = time.Duration(n) * time.Second
	}
	if v := env("PROBE_TIMEOUT_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fieldError("PROBE_TIMEOUT_MS", fmt.Errorf("not a number: %q", v))
		}
		cfg.Timeout = time.Duration(ms) * time.Millisecond
		timeoutSet = true
	}
	if !timeoutSet {
		cfg.Timeout = min(cfg.Interval, defaultMaxTimeout)
	}

	// Target
	cfg.Target.DatabaseURL = env("DATABASE_URL")
	setString(&cfg.Target.Host, "DB_HOST")
	setString(&cfg.Target.DBName, "DB_NAME")
	setString(&cfg.Target.User, "DB_USER")
	if v, ok := os.LookupEnv("DB_PASSWORD"); ok {
		cfg.Target.Password = v
	}
	setString(&cfg.Target.SSLMode, "DB_SSLMODE")
	setString(&cfg.Target.ClientEncoding, "DB_CLIENT_ENCODING")
	if err := setInt(&cfg.Target.Port, "DB_PORT"); err != nil {
		return Config{}, err
	}
	if err := setInt(&cfg.Target.ConnectTimeout, "DB_CONNECT_TIMEOUT"); err != nil {
		return Config{}, err
	}

	// Logging
	cfg.Log.File = env("LOG_FILE")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	for name, dst := range map[string]*int{
		"LOG_MAX_SIZE_MB":  &cfg.Log.MaxSizeMB,
		"LOG_MAX_BACKUPS":  &cfg.Log.MaxBackups,
		"LOG_MAX_AGE_DAYS": &cfg.Log.MaxAgeDays,
	} {
		if err := setInt(dst, name); err != nil {
			return Config{}, err
		}
	}
	if v := env("LOG_COMPRESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fieldError("LOG_COMPRESS", fmt.Errorf("not a boolean: %q", v))
		}
		cfg.Log.Compress = b
	}

	// Version policy
	if v := env("EXPECTED_PG_MAJORS"); v != "" {
		majors, err := parseMajors(v)
		if err != nil {
			return Config{}, fieldError("EXPECTED_PG_MAJORS", err)
		}
		cfg.ExpectedMajors = majors
	}
	cfg.ExpectedPattern = env("EXPECTED_VERSION_PATTERN")

	// Optional sinks and status server
	cfg.StatusAddr = env("STATUS_ADDR")
	cfg.StatusAPIKeys = splitCSV(env("STATUS_API_KEYS"))
	cfg.AllowedOrigins = splitCSV(env("ALLOWED_ORIGINS"))
	cfg.HistoryDatabaseURL = env("HISTORY_DATABASE_URL")
	cfg.HistorySQLitePath = env("HISTORY_SQLITE_PATH")
	if err := setInt(&cfg.HistoryRetention, "HISTORY_RETENTION"); err != nil {
		return Config{}, err
	}
	cfg.SlackWebhook = env("SLACK_WEBHOOK_URL")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

func setString(dst *string, name string) {
	if v := env(name); v != "" {
		*dst = v
	}
}

func setInt(dst *int, name string) error {
	v := env(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fieldError(name, fmt.Errorf("not a number: %q", v))
	}
	*dst = n
	return nil
}

func parseMajors(raw string) ([]int, error) {
	var out []int
	for _, part := range splitCSV(raw) {
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("bad major version %q", part)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no major versions in %q", raw)
	}
	return out, nil
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
