package incidentrepo

import (
	"errors"
	"fmt"

	"github.com/fieldops/fieldops-api/internal/ports/out/repoerr"
)

var (
	ErrNotFound  = fmt.Errorf("incident %w", repoerr.ErrNotFound)
	ErrForbidden = fmt.Errorf("incident belongs to another team: %w", repoerr.ErrForbidden)
	ErrInvalid   = errors.New("invalid incident")
)
