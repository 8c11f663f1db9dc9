package teamrepo

import (
	"errors"
	"fmt"

	"github.com/fieldops/fieldops-api/internal/ports/out/repoerr"
)

var (
	// ErrNotFound indicates the team does not exist. Every team-scoped port returns it
	// for an unknown teamID.
	ErrNotFound = fmt.Errorf("team %w", repoerr.ErrNotFound)

	ErrInvalid = errors.New("invalid team")
)
