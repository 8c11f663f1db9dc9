package teamrepo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fieldops/fieldops-api/internal/adapters/memory/memdb"
	memuserrepo "github.com/fieldops/fieldops-api/internal/adapters/memory/userrepo"
	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/ports/out/teamrepo"
)

// Repo is an in-memory implementation of teamrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	db *memdb.DB
}

func NewRepo(db *memdb.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, t domain.Team, owner domain.User) (domain.Team, domain.User, error) {
	t.Name = domain.NormalizeHumanName(t.Name)
	if t.Name == "" {
		return domain.Team{}, domain.User{}, fmt.Errorf("%w: name must be non-empty", teamrepo.ErrInvalid)
	}
	if !owner.ID.Valid() {
		return domain.Team{}, domain.User{}, fmt.Errorf("%w: owner id required", teamrepo.ErrInvalid)
	}
	owner.Role = domain.RoleOwner
	owner, err := memuserrepo.Prepare(owner, "")
	if err != nil {
		return domain.Team{}, domain.User{}, fmt.Errorf("%w: owner: %w", teamrepo.ErrInvalid, err)
	}

	var (
		outTeam  domain.Team
		outOwner domain.User
	)
	err = r.db.Update(ctx, "teams.create", func(tb *memdb.Tables) error {
		now := r.db.Now()
		t.ID = domain.TeamID(r.db.NewID())
		t.OwnerID = owner.ID
		t.CreatedAt = now
		tb.Teams[t.ID] = t

		owner.TeamID = t.ID
		member, err := memuserrepo.Insert(tb, owner, now)
		if err != nil {
			return err
		}
		outTeam, outOwner = t, member
		return nil
	})
	if err != nil {
		return domain.Team{}, domain.User{}, err
	}
	return outTeam, outOwner, nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.TeamID) (domain.Team, error) {
	var out domain.Team
	err := r.db.View(ctx, "teams.get", func(tb *memdb.Tables) error {
		t, ok := tb.Teams[id]
		if !ok {
			return teamrepo.ErrNotFound
		}
		out = t
		return nil
	})
	return out, err
}

func (r *Repo) ListForUser(ctx context.Context, userID domain.UserID) ([]domain.Team, error) {
	out := make([]domain.Team, 0)
	err := r.db.View(ctx, "teams.list_for_user", func(tb *memdb.Tables) error {
		for k, u := range tb.Users {
			if k.UserID != userID || u.IsDeleted {
				continue
			}
			if t, ok := tb.Teams[k.TeamID]; ok {
				out = append(out, t)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		ni, nj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if ni == nj {
			return string(out[i].ID) < string(out[j].ID)
		}
		return ni < nj
	})
	return out, nil
}
