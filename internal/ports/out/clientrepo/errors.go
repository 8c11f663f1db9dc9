package clientrepo

import (
	"errors"
	"fmt"

	"github.com/fieldops/fieldops-api/internal/ports/out/repoerr"
)

var (
	// ErrNotFound indicates the client does not exist (or was deleted).
	ErrNotFound = fmt.Errorf("client %w", repoerr.ErrNotFound)

	// ErrForbidden indicates the client exists but belongs to a different team.
	ErrForbidden = fmt.Errorf("client belongs to another team: %w", repoerr.ErrForbidden)

	// ErrInvalid indicates the record or change-set failed validation (e.g. empty name).
	ErrInvalid = errors.New("invalid client")
)
