package clientrepo

import (
	"context"
	"fmt"
	"strings"

	"github.com/oapi-codegen/nullable"

	"github.com/fieldops/fieldops-api/internal/domain"
)

// Patch is a sparse change-set: unspecified fields are left untouched.
type Patch struct {
	// Name cannot be null or blank.
	Name nullable.Nullable[string]
	// Notes set to null clears them.
	Notes   nullable.Nullable[string]
	Phone   nullable.Nullable[string]
	Address nullable.Nullable[string]
}

// Apply writes the specified fields of p onto c.
func (p Patch) Apply(c *domain.Client) error {
	if p.Name.IsSpecified() {
		if p.Name.IsNull() {
			return fmt.Errorf("%w: name cannot be null", ErrInvalid)
		}
		name := domain.NormalizeHumanName(p.Name.MustGet())
		if name == "" {
			return fmt.Errorf("%w: name must be non-empty", ErrInvalid)
		}
		c.Name = name
	}
	if p.Notes.IsSpecified() {
		if p.Notes.IsNull() {
			c.Notes = ""
		} else {
			c.Notes = strings.TrimSpace(p.Notes.MustGet())
		}
	}
	c.Phone = applyOptional(c.Phone, p.Phone)
	c.Address = applyOptional(c.Address, p.Address)
	return nil
}

func applyOptional(cur *string, v nullable.Nullable[string]) *string {
	if !v.IsSpecified() {
		return cur
	}
	if v.IsNull() {
		return nil
	}
	s := strings.TrimSpace(v.MustGet())
	return &s
}

// Repository provides team-scoped access to clients.
//
// Result ordering expectations:
// - ListByTeam returns non-deleted clients ordered by Name (case-insensitive), then ID.
//
// Errors: an unknown team yields teamrepo.ErrNotFound; a client in another team yields
// ErrForbidden; a missing or deleted client yields ErrNotFound.
type Repository interface {
	// Create assigns the ID and timestamps; any ID on c is ignored.
	Create(ctx context.Context, teamID domain.TeamID, c domain.Client) (domain.Client, error)
	GetByID(ctx context.Context, teamID domain.TeamID, id domain.ClientID) (domain.Client, error)
	ListByTeam(ctx context.Context, teamID domain.TeamID) ([]domain.Client, error)
	Update(ctx context.Context, teamID domain.TeamID, id domain.ClientID, p Patch) (domain.Client, error)
	// Delete is a soft delete.
	Delete(ctx context.Context, teamID domain.TeamID, id domain.ClientID) error
}
