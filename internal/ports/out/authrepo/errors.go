package authrepo

import (
	"errors"
	"fmt"

	"github.com/fieldops/fieldops-api/internal/ports/out/repoerr"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", repoerr.ErrForbidden)

	// ErrEmailTaken indicates sign-up with an email that already has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrSessionNotFound indicates an unknown or expired session token.
	ErrSessionNotFound = fmt.Errorf("session %w", repoerr.ErrNotFound)

	ErrInvalid = errors.New("invalid sign-up")
)
