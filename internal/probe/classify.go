package probe

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hamed0406/pgpinger/internal/domain"
)

// SQLSTATE codes for rejected credentials.
const (
	codeInvalidPassword      = "28P01"
	codeInvalidAuthorization = "28000"
)

var protocolHints = []string{
	"protocol",
	"unexpected message",
	"unknown message type",
	"message body too large",
	"refused tls",
	"does not support ssl",
}

// Classify wraps err in a ProbeError tagged with its cause.
func Classify(err error) *domain.ProbeError {
	return &domain.ProbeError{Kind: kindOf(err), Err: err}
}

func kindOf(err error) domain.FailureKind {
	var pgErr *pgconn.PgError
	isPg := errors.As(err, &pgErr)
	msg := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, context.DeadlineExceeded), pgconn.Timeout(err), isNetTimeout(err):
		return domain.KindTimeout
	case isPg && (pgErr.Code == codeInvalidPassword || pgErr.Code == codeInvalidAuthorization):
		return domain.KindAuthFailure
	case errors.Is(err, syscall.ECONNREFUSED), isUnknownHost(err):
		return domain.KindConnectionRefused
	case isPg && strings.HasPrefix(pgErr.Code, "08"):
		return domain.KindProtocolMismatch
	case containsAny(msg, protocolHints):
		return domain.KindProtocolMismatch
	case strings.Contains(msg, "password authentication failed"):
		return domain.KindAuthFailure
	}
	return domain.KindOther
}

func isNetTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isUnknownHost(err error) bool {
	var de *net.DNSError
	return errors.As(err, &de) && de.IsNotFound
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
