package userrepo

import (
	"errors"
	"fmt"

	"github.com/fieldops/fieldops-api/internal/ports/out/repoerr"
)

var (
	// ErrNotFound indicates no membership exists for (userID, teamID).
	ErrNotFound = fmt.Errorf("user %w", repoerr.ErrNotFound)

	// ErrAlreadyExists indicates the user is already a member of the team.
	ErrAlreadyExists = errors.New("user already a member of team")

	ErrInvalid = errors.New("invalid user")
)
