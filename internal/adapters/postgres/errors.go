package postgres

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fieldops/fieldops-api/internal/ports/out/repoerr"
)

// SQLSTATE codes the adapters branch on.
const (
	UniqueViolationCode     = "23505"
	ForeignKeyViolationCode = "23503"
	CheckViolationCode      = "23514"
	SerializationFailure    = "40001"
	DeadlockDetected        = "40P01"
)

// AsPgError unwraps a server-side error.
func AsPgError(err error) (*pgconn.PgError, bool) {
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// Classify maps driver and network failures onto the repoerr taxonomy. Errors that
// already carry a kind, and ordinary query errors, are returned unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return repoerr.Transient(op, err)
	}
	if repoerr.KindOf(err) != repoerr.KindUnknown {
		return err
	}
	if isTransient(err) {
		return repoerr.Transient(op, err)
	}
	return err
}

func isTransient(err error) bool {
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	if pe, ok := AsPgError(err); ok {
		switch {
		case pe.Code == SerializationFailure, pe.Code == DeadlockDetected:
			return true
		// Class 08 connection exception, 53 insufficient resources, 57P operator intervention.
		case strings.HasPrefix(pe.Code, "08"), strings.HasPrefix(pe.Code, "53"), strings.HasPrefix(pe.Code, "57P"):
			return true
		}
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var ce *pgconn.ConnectError
	return errors.As(err, &ce)
}
