package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hamed0406/pgpinger/internal/domain"
)

// ConnString renders the target as a libpq keyword/value string, or returns
// DatabaseURL verbatim when set.
func (t Target) ConnString() string {
	if t.DatabaseURL != "" {
		return t.DatabaseURL
	}
	var b strings.Builder
	kv := func(k, v string) {
		if v == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(quote(v))
	}
	kv("host", t.Host)
	if t.Port != 0 {
		kv("port", strconv.Itoa(t.Port))
	}
	kv("dbname", t.DBName)
	kv("user", t.User)
	kv("password", t.Password)
	kv("sslmode", t.SSLMode)
	if t.ConnectTimeout > 0 {
		kv("connect_timeout", strconv.Itoa(t.ConnectTimeout))
	}
	kv("client_encoding", t.ClientEncoding)
	kv("application_name", "pgpinger")
	return b.String()
}

func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// Describe parses the descriptor and returns its printable part.
func (t Target) Describe() (domain.Target, error) {
	pc, err := pgconn.ParseConfig(t.ConnString())
	if err != nil {
		return domain.Target{}, fmt.Errorf("parse target: %w", err)
	}
	return domain.Target{
		Host:     pc.Host,
		Port:     pc.Port,
		Database: pc.Database,
		User:     pc.User,
	}, nil
}
