package incidentrepo

import (
	"context"
	"fmt"
	"strings"

	"github.com/oapi-codegen/nullable"

	"github.com/fieldops/fieldops-api/internal/domain"
)

// Patch is a sparse change-set for an incident. The client reference is immutable.
type Patch struct {
	Description nullable.Nullable[string]
	Status      nullable.Nullable[domain.IncidentStatus]
}

func (p Patch) Apply(inc *domain.Incident) error {
	if p.Description.IsSpecified() {
		if p.Description.IsNull() {
			inc.Description = ""
		} else {
			inc.Description = strings.TrimSpace(p.Description.MustGet())
		}
	}
	if p.Status.IsSpecified() {
		if p.Status.IsNull() || !p.Status.MustGet().Valid() {
			return fmt.Errorf("%w: unknown status", ErrInvalid)
		}
		inc.Status = p.Status.MustGet()
	}
	return nil
}

// Repository provides team-scoped access to incidents.
//
// Result ordering expectations:
// - List methods return non-deleted incidents ordered by CreatedAt ascending, then ID.
// - ListByClient is exactly ListByTeam filtered on ClientID.
type Repository interface {
	// Create assigns ID and timestamps (CreatedAt is kept when already set). The referenced
	// client must exist in teamID.
	Create(ctx context.Context, teamID domain.TeamID, inc domain.Incident) (domain.Incident, error)
	GetByID(ctx context.Context, teamID domain.TeamID, id domain.IncidentID) (domain.Incident, error)
	ListByClient(ctx context.Context, teamID domain.TeamID, clientID domain.ClientID) ([]domain.Incident, error)
	ListByTeam(ctx context.Context, teamID domain.TeamID) ([]domain.Incident, error)
	Update(ctx context.Context, teamID domain.TeamID, id domain.IncidentID, p Patch) (domain.Incident, error)
	Delete(ctx context.Context, teamID domain.TeamID, id domain.IncidentID) error
}
