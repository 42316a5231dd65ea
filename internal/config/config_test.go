package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var knownVars = []string{
	"CONFIG_FILE", "PING_INTERVAL", "PROBE_TIMEOUT_MS",
	"DATABASE_URL", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
	"DB_SSLMODE", "DB_CONNECT_TIMEOUT", "DB_CLIENT_ENCODING",
	"LOG_FILE", "LOG_LEVEL", "LOG_FORMAT", "LOG_MAX_SIZE_MB", "LOG_MAX_BACKUPS",
	"LOG_MAX_AGE_DAYS", "LOG_COMPRESS",
	"EXPECTED_PG_MAJORS", "EXPECTED_VERSION_PATTERN",
	"STATUS_ADDR", "STATUS_API_KEYS", "ALLOWED_ORIGINS",
	"HISTORY_DATABASE_URL", "HISTORY_SQLITE_PATH", "HISTORY_RETENTION",
	"SLACK_WEBHOOK_URL",
}

// clearEnv blanks every variable FromEnv reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range knownVars {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 20*time.Second, cfg.Interval)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "localhost", cfg.Target.Host)
	assert.Equal(t, 5432, cfg.Target.Port)
	assert.Equal(t, "mydb", cfg.Target.DBName)
	assert.Empty(t, cfg.Log.File)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, []int{16, 17}, cfg.ExpectedMajors)
	assert.Empty(t, cfg.StatusAddr)
}

func TestFromEnv_ParsesValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PING_INTERVAL", "5")
	t.Setenv("PROBE_TIMEOUT_MS", "1500")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_NAME", "shop")
	t.Setenv("DB_USER", "pinger")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("LOG_FILE", "/var/log/pinger.log")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("EXPECTED_PG_MAJORS", "15, 16")
	t.Setenv("STATUS_ADDR", ":9102")
	t.Setenv("STATUS_API_KEYS", "k1,k2")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Interval)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)
	assert.Equal(t, 6543, cfg.Target.Port)
	assert.Equal(t, "s3cret", cfg.Target.Password)
	assert.Equal(t, "/var/log/pinger.log", cfg.Log.File)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []int{15, 16}, cfg.ExpectedMajors)
	assert.Equal(t, []string{"k1", "k2"}, cfg.StatusAPIKeys)
}

func TestFromEnv_ShortIntervalCapsDefaultTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("PING_INTERVAL", "1")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Timeout)
}

func TestFromEnv_ConfigErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"zero interval", map[string]string{"PING_INTERVAL": "0"}},
		{"negative interval", map[string]string{"PING_INTERVAL": "-3"}},
		{"non-numeric interval", map[string]string{"PING_INTERVAL": "soon"}},
		{"timeout exceeds interval", map[string]string{"PING_INTERVAL": "2", "PROBE_TIMEOUT_MS": "2500"}},
		{"zero timeout", map[string]string{"PROBE_TIMEOUT_MS": "0"}},
		{"bad port", map[string]string{"DB_PORT": "70000"}},
		{"port not a number", map[string]string{"DB_PORT": "pg"}},
		{"unparsable url", map[string]string{"DATABASE_URL": "postgres://%zz"}},
		{"bad sslmode", map[string]string{"DB_SSLMODE": "sometimes"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}},
		{"bad majors", map[string]string{"EXPECTED_PG_MAJORS": "sixteen"}},
		{"bad pattern", map[string]string{"EXPECTED_VERSION_PATTERN": "(["}},
		{"bad status addr", map[string]string{"STATUS_ADDR": "nope"}},
		{"bad slack url", map[string]string{"SLACK_WEBHOOK_URL": "not a url"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)

			var ce *ConfigError
			assert.ErrorAs(t, err, &ce)
		})
	}
}

func TestFromEnv_DatabaseURLOverridesParts(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_HOST", "ignored")
	t.Setenv("DATABASE_URL", "postgres://app:pw@pg.example:5433/inventory?sslmode=disable")

	cfg, err := FromEnv()
	require.NoError(t, err)

	d, err := cfg.Target.Describe()
	require.NoError(t, err)
	assert.Equal(t, "pg.example", d.Host)
	assert.Equal(t, uint16(5433), d.Port)
	assert.Equal(t, "inventory", d.Database)
	assert.Equal(t, "app", d.User)
}

func TestFromEnv_ConfigFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
  "host": "file-host",
  "port": "5544",
  "dbname": "from_file",
  "user": "should-not-be-read",
  "password": "should-not-be-read",
  "options": "-c statement_timeout=0",
  "connect_timeout": 3
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DB_NAME", "from_env")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "file-host", cfg.Target.Host)
	assert.Equal(t, 5544, cfg.Target.Port)
	assert.Equal(t, "from_env", cfg.Target.DBName)
	assert.Equal(t, 3, cfg.Target.ConnectTimeout)
	assert.Empty(t, cfg.Target.User)
	assert.Empty(t, cfg.Target.Password)
	assert.NotContains(t, cfg.Target.ConnString(), "statement_timeout")
}

func TestFromEnv_MissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.json"))

	_, err := FromEnv()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("host: y\nport: 6000\nsslmode: require\n"), 0o600))

	fc, err := LoadFile(path)
	require.NoError(t, err)

	tgt := TargetFromFile(fc)
	assert.Equal(t, "y", tgt.Host)
	assert.Equal(t, 6000, tgt.Port)
	assert.Equal(t, "require", tgt.SSLMode)
	assert.Equal(t, "mydb", tgt.DBName)
}

func TestTarget_ConnStringQuotes(t *testing.T) {
	tgt := Target{Host: "h", Port: 5432, DBName: "d", User: "u", Password: `it's a \ pw`}
	cs := tgt.ConnString()
	assert.Contains(t, cs, `password='it\'s a \\ pw'`)
	assert.Contains(t, cs, "application_name='pgpinger'")

	_, err := tgt.Describe()
	assert.NoError(t, err)
}
