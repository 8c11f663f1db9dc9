package authrepo

import (
	"context"

	"github.com/fieldops/fieldops-api/internal/domain"
)

// Auth is the account/session capability of one client handle.
type Auth interface {
	SignIn(ctx context.Context, email, password string) (domain.Account, error)
	SignUp(ctx context.Context, email, password, displayName string) (domain.Account, error)
	SignOut(ctx context.Context) error

	// CurrentUser returns a point-in-time snapshot of the signed-in account. It never
	// blocks on the backend and does not track later changes.
	CurrentUser() (domain.Account, bool)
}

// Session is the bearer credential issued on sign-in.
type Session struct {
	Token   string
	Account domain.Account
}

// SessionAuth is implemented by Auth adapters that issue bearer tokens, so that
// transports can authenticate requests.
type SessionAuth interface {
	Auth
	CurrentSession() (Session, bool)
	Verify(ctx context.Context, token string) (domain.Account, error)
}

// SessionStore keeps bearer sessions for Auth adapters whose accounts live elsewhere.
type SessionStore interface {
	// Create issues a new token for acct.
	Create(ctx context.Context, acct domain.Account) (Session, error)
	// Lookup returns ErrSessionNotFound for unknown or expired tokens.
	Lookup(ctx context.Context, token string) (domain.Account, error)
	// Revoke is idempotent.
	Revoke(ctx context.Context, token string) error
}
