package userrepo

import (
	"context"
	"fmt"

	"github.com/oapi-codegen/nullable"

	"github.com/fieldops/fieldops-api/internal/domain"
)

type Patch struct {
	DisplayName nullable.Nullable[string]
	Role        nullable.Nullable[domain.Role]
}

func (p Patch) Apply(u *domain.User) error {
	if p.DisplayName.IsSpecified() {
		if p.DisplayName.IsNull() {
			return fmt.Errorf("%w: displayName cannot be null", ErrInvalid)
		}
		name := domain.NormalizeHumanName(p.DisplayName.MustGet())
		if name == "" {
			return fmt.Errorf("%w: displayName must be non-empty", ErrInvalid)
		}
		u.DisplayName = name
	}
	if p.Role.IsSpecified() {
		if p.Role.IsNull() || !p.Role.MustGet().Valid() {
			return fmt.Errorf("%w: unknown role", ErrInvalid)
		}
		u.Role = p.Role.MustGet()
	}
	return nil
}

// Repository manages team memberships, keyed by (userID, teamID).
//
// Result ordering expectations:
// - ListByTeam returns non-deleted members ordered by DisplayName (case-insensitive), then ID.
type Repository interface {
	// Create adds u (u.ID required) to teamID.
	Create(ctx context.Context, teamID domain.TeamID, u domain.User) (domain.User, error)
	Get(ctx context.Context, userID domain.UserID, teamID domain.TeamID) (domain.User, error)
	ListByTeam(ctx context.Context, teamID domain.TeamID) ([]domain.User, error)
	Update(ctx context.Context, userID domain.UserID, teamID domain.TeamID, p Patch) (domain.User, error)
	Delete(ctx context.Context, userID domain.UserID, teamID domain.TeamID) error
}
