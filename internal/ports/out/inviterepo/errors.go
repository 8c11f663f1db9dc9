package inviterepo

import (
	"errors"
	"fmt"

	"github.com/fieldops/fieldops-api/internal/ports/out/repoerr"
)

var (
	// ErrNotFound indicates the code does not exist.
	ErrNotFound = fmt.Errorf("invite %w", repoerr.ErrNotFound)

	// ErrUnusable indicates the code exists but has expired or was already redeemed.
	ErrUnusable = fmt.Errorf("invite expired or already used: %w", repoerr.ErrForbidden)

	// ErrNotMember indicates the invite creator has no membership in the team.
	ErrNotMember = fmt.Errorf("creator is not a member of the team: %w", repoerr.ErrForbidden)

	// ErrInvalidRole indicates an invite for an unknown role or for owner.
	ErrInvalidRole = errors.New("invalid invite role")
)
