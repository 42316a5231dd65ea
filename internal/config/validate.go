package config

import (
	"net"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

var sslModes = []interface{}{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

// Validate reports every rule violation as a single ConfigError.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Interval, validation.By(positiveDuration)),
		validation.Field(&c.Timeout,
			validation.By(positiveDuration),
			validation.By(func(value interface{}) error {
				if d, _ := value.(time.Duration); d > c.Interval {
					return validation.NewError("validation_timeout_exceeds_interval", "must not exceed the ping interval")
				}
				return nil
			}),
		),
		validation.Field(&c.Target, validation.By(validateTarget)),
		validation.Field(&c.Log, validation.By(validateLog)),
		validation.Field(&c.ExpectedMajors, validation.Required.When(c.ExpectedPattern == "")),
		validation.Field(&c.ExpectedPattern, validation.By(validateRegexp)),
		validation.Field(&c.StatusAddr, validation.By(validateHostPort)),
		validation.Field(&c.SlackWebhook, is.URL),
		validation.Field(&c.HistoryRetention, validation.Min(1)),
	)
	if err != nil {
		return &ConfigError{Err: err}
	}
	return nil
}

func positiveDuration(value interface{}) error {
	d, ok := value.(time.Duration)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a duration")
	}
	if d <= 0 {
		return validation.NewError("validation_non_positive", "must be positive")
	}
	return nil
}

func validateTarget(value interface{}) error {
	t, ok := value.(Target)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a Target")
	}
	if t.DatabaseURL == "" {
		if err := validation.ValidateStruct(&t,
			validation.Field(&t.Host, validation.Required),
			validation.Field(&t.Port, validation.Required, validation.Min(1), validation.Max(65535)),
			validation.Field(&t.DBName, validation.Required),
			validation.Field(&t.SSLMode, validation.In(sslModes...)),
			validation.Field(&t.ConnectTimeout, validation.Min(0)),
		); err != nil {
			return err
		}
	}
	if _, err := t.Describe(); err != nil {
		return validation.NewError("validation_unparsable_target", err.Error())
	}
	return nil
}

func validateLog(value interface{}) error {
	lc, ok := value.(LogConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a LogConfig")
	}
	return validation.ValidateStruct(&lc,
		validation.Field(&lc.Level,
			validation.Required,
			validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
		),
		validation.Field(&lc.Format, validation.Required, validation.In("json", "console")),
		validation.Field(&lc.MaxSizeMB, validation.Min(1)),
		validation.Field(&lc.MaxBackups, validation.Min(0)),
		validation.Field(&lc.MaxAgeDays, validation.Min(0)),
	)
}

func validateRegexp(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := regexp.Compile(s); err != nil {
		return validation.NewError("validation_invalid_regexp", "must be a valid regular expression")
	}
	return nil
}

func validateHostPort(value interface{}) error {
	addr, _ := value.(string)
	if addr == "" {
		return nil
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}
	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}
	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}
	return nil
}
