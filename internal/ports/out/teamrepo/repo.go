package teamrepo

import (
	"context"

	"github.com/fieldops/fieldops-api/internal/domain"
)

// Repository manages teams.
//
// Result ordering expectations:
// - ListForUser returns teams ordered by Name (case-insensitive), then ID.
type Repository interface {
	// Create persists the team and the owner's membership as one operation; on failure
	// neither exists. owner.ID must be set (it is the account's UserID); the role is forced to owner.
	Create(ctx context.Context, t domain.Team, owner domain.User) (domain.Team, domain.User, error)
	GetByID(ctx context.Context, id domain.TeamID) (domain.Team, error)
	// ListForUser returns every team with a non-deleted membership for userID.
	ListForUser(ctx context.Context, userID domain.UserID) ([]domain.Team, error)
}
