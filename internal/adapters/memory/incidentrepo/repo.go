package incidentrepo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fieldops/fieldops-api/internal/adapters/memory/memdb"
	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/ports/out/clientrepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/incidentrepo"
)

// Repo is an in-memory implementation of incidentrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	db *memdb.DB
}

func NewRepo(db *memdb.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, teamID domain.TeamID, inc domain.Incident) (domain.Incident, error) {
	if inc.Status == "" {
		inc.Status = domain.IncidentStatusOpen
	}
	if !inc.Status.Valid() {
		return domain.Incident{}, fmt.Errorf("%w: unknown status %q", incidentrepo.ErrInvalid, inc.Status)
	}
	inc.Description = strings.TrimSpace(inc.Description)

	var out domain.Incident
	err := r.db.Update(ctx, "incidents.create", func(t *memdb.Tables) error {
		if err := requireClient(t, teamID, inc.ClientID); err != nil {
			return err
		}
		now := r.db.Now()
		inc.ID = domain.IncidentID(r.db.NewID())
		inc.TeamID = teamID
		inc.IsDeleted = false
		if inc.CreatedAt.IsZero() {
			inc.CreatedAt = now
		}
		inc.UpdatedAt = now
		t.Incidents[inc.ID] = inc
		out = inc
		return nil
	})
	return out, err
}

func (r *Repo) GetByID(ctx context.Context, teamID domain.TeamID, id domain.IncidentID) (domain.Incident, error) {
	var out domain.Incident
	err := r.db.View(ctx, "incidents.get", func(t *memdb.Tables) error {
		inc, err := lookup(t, teamID, id)
		out = inc
		return err
	})
	return out, err
}

func (r *Repo) ListByClient(ctx context.Context, teamID domain.TeamID, clientID domain.ClientID) ([]domain.Incident, error) {
	var out []domain.Incident
	err := r.db.View(ctx, "incidents.list_by_client", func(t *memdb.Tables) error {
		if err := requireClient(t, teamID, clientID); err != nil {
			return err
		}
		out = listTeam(t, teamID, func(inc domain.Incident) bool { return inc.ClientID == clientID })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) ListByTeam(ctx context.Context, teamID domain.TeamID) ([]domain.Incident, error) {
	var out []domain.Incident
	err := r.db.View(ctx, "incidents.list", func(t *memdb.Tables) error {
		if err := t.RequireTeam(teamID); err != nil {
			return err
		}
		out = listTeam(t, teamID, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) Update(ctx context.Context, teamID domain.TeamID, id domain.IncidentID, p incidentrepo.Patch) (domain.Incident, error) {
	var out domain.Incident
	err := r.db.Update(ctx, "incidents.update", func(t *memdb.Tables) error {
		inc, err := lookup(t, teamID, id)
		if err != nil {
			return err
		}
		if err := p.Apply(&inc); err != nil {
			return err
		}
		inc.UpdatedAt = r.db.Now()
		t.Incidents[id] = inc
		out = inc
		return nil
	})
	return out, err
}

func (r *Repo) Delete(ctx context.Context, teamID domain.TeamID, id domain.IncidentID) error {
	return r.db.Update(ctx, "incidents.delete", func(t *memdb.Tables) error {
		inc, err := lookup(t, teamID, id)
		if err != nil {
			return err
		}
		inc.IsDeleted = true
		inc.UpdatedAt = r.db.Now()
		t.Incidents[id] = inc
		return nil
	})
}

func requireClient(t *memdb.Tables, teamID domain.TeamID, clientID domain.ClientID) error {
	if err := t.RequireTeam(teamID); err != nil {
		return err
	}
	c, ok := t.Clients[clientID]
	if !ok || c.IsDeleted {
		return clientrepo.ErrNotFound
	}
	if c.TeamID != teamID {
		return clientrepo.ErrForbidden
	}
	return nil
}

func lookup(t *memdb.Tables, teamID domain.TeamID, id domain.IncidentID) (domain.Incident, error) {
	if err := t.RequireTeam(teamID); err != nil {
		return domain.Incident{}, err
	}
	inc, ok := t.Incidents[id]
	if !ok || inc.IsDeleted {
		return domain.Incident{}, incidentrepo.ErrNotFound
	}
	if inc.TeamID != teamID {
		return domain.Incident{}, incidentrepo.ErrForbidden
	}
	return inc, nil
}

func listTeam(t *memdb.Tables, teamID domain.TeamID, keep func(domain.Incident) bool) []domain.Incident {
	out := make([]domain.Incident, 0)
	for _, inc := range t.Incidents {
		if inc.TeamID != teamID || inc.IsDeleted {
			continue
		}
		if keep != nil && !keep(inc) {
			continue
		}
		out = append(out, inc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return string(out[i].ID) < string(out[j].ID)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
