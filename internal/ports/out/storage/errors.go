package storage

import (
	"errors"
	"fmt"

	"github.com/fieldops/fieldops-api/internal/ports/out/repoerr"
)

var (
	ErrForbidden = fmt.Errorf("storage access denied: %w", repoerr.ErrForbidden)

	// ErrInvalidPath indicates an empty or unsafe object path.
	ErrInvalidPath = errors.New("invalid storage path")
)
