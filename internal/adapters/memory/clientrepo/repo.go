package clientrepo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fieldops/fieldops-api/internal/adapters/memory/memdb"
	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/ports/out/clientrepo"
)

// Repo is an in-memory implementation of clientrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	db *memdb.DB
}

func NewRepo(db *memdb.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, teamID domain.TeamID, c domain.Client) (domain.Client, error) {
	c.Name = domain.NormalizeHumanName(c.Name)
	if c.Name == "" {
		return domain.Client{}, fmt.Errorf("%w: name must be non-empty", clientrepo.ErrInvalid)
	}
	var out domain.Client
	err := r.db.Update(ctx, "clients.create", func(t *memdb.Tables) error {
		if err := t.RequireTeam(teamID); err != nil {
			return err
		}
		now := r.db.Now()
		c.ID = domain.ClientID(r.db.NewID())
		c.TeamID = teamID
		c.IsDeleted = false
		c.CreatedAt = now
		c.UpdatedAt = now
		t.Clients[c.ID] = cloneClient(c)
		out = cloneClient(c)
		return nil
	})
	return out, err
}

func (r *Repo) GetByID(ctx context.Context, teamID domain.TeamID, id domain.ClientID) (domain.Client, error) {
	var out domain.Client
	err := r.db.View(ctx, "clients.get", func(t *memdb.Tables) error {
		c, err := lookup(t, teamID, id)
		if err != nil {
			return err
		}
		out = cloneClient(c)
		return nil
	})
	return out, err
}

func (r *Repo) ListByTeam(ctx context.Context, teamID domain.TeamID) ([]domain.Client, error) {
	var out []domain.Client
	err := r.db.View(ctx, "clients.list", func(t *memdb.Tables) error {
		if err := t.RequireTeam(teamID); err != nil {
			return err
		}
		out = make([]domain.Client, 0)
		for _, c := range t.Clients {
			if c.TeamID != teamID || c.IsDeleted {
				continue
			}
			out = append(out, cloneClient(c))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortClientsByName(out)
	return out, nil
}

func (r *Repo) Update(ctx context.Context, teamID domain.TeamID, id domain.ClientID, p clientrepo.Patch) (domain.Client, error) {
	var out domain.Client
	err := r.db.Update(ctx, "clients.update", func(t *memdb.Tables) error {
		c, err := lookup(t, teamID, id)
		if err != nil {
			return err
		}
		if err := p.Apply(&c); err != nil {
			return err
		}
		c.UpdatedAt = r.db.Now()
		t.Clients[id] = c
		out = cloneClient(c)
		return nil
	})
	return out, err
}

func (r *Repo) Delete(ctx context.Context, teamID domain.TeamID, id domain.ClientID) error {
	return r.db.Update(ctx, "clients.delete", func(t *memdb.Tables) error {
		c, err := lookup(t, teamID, id)
		if err != nil {
			return err
		}
		c.IsDeleted = true
		c.UpdatedAt = r.db.Now()
		t.Clients[id] = c
		return nil
	})
}

func lookup(t *memdb.Tables, teamID domain.TeamID, id domain.ClientID) (domain.Client, error) {
	if err := t.RequireTeam(teamID); err != nil {
		return domain.Client{}, err
	}
	c, ok := t.Clients[id]
	if !ok || c.IsDeleted {
		return domain.Client{}, clientrepo.ErrNotFound
	}
	if c.TeamID != teamID {
		return domain.Client{}, clientrepo.ErrForbidden
	}
	return c, nil
}

func cloneClient(c domain.Client) domain.Client {
	out := c
	out.Phone = cloneStringPtr(c.Phone)
	out.Address = cloneStringPtr(c.Address)
	return out
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func sortClientsByName(cs []domain.Client) {
	sort.Slice(cs, func(i, j int) bool {
		ni := strings.ToLower(cs[i].Name)
		nj := strings.ToLower(cs[j].Name)
		if ni == nj {
			return string(cs[i].ID) < string(cs[j].ID)
		}
		return ni < nj
	})
}
