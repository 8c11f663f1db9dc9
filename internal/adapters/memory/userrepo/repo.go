package userrepo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fieldops/fieldops-api/internal/adapters/memory/memdb"
	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/ports/out/userrepo"
)

// Repo is an in-memory implementation of userrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	db *memdb.DB
}

func NewRepo(db *memdb.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, teamID domain.TeamID, u domain.User) (domain.User, error) {
	u, err := Prepare(u, teamID)
	if err != nil {
		return domain.User{}, err
	}
	var out domain.User
	err = r.db.Update(ctx, "users.create", func(t *memdb.Tables) error {
		out, err = Insert(t, u, r.db.Now())
		return err
	})
	return out, err
}

// Prepare normalises and validates a new membership record.
func Prepare(u domain.User, teamID domain.TeamID) (domain.User, error) {
	if !u.ID.Valid() {
		return domain.User{}, fmt.Errorf("%w: id required", userrepo.ErrInvalid)
	}
	if u.Role == "" {
		u.Role = domain.RoleMember
	}
	if !u.Role.Valid() {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", userrepo.ErrInvalid, u.Role)
	}
	u.TeamID = teamID
	u.Email = domain.NormalizeEmail(u.Email)
	u.DisplayName = domain.NormalizeHumanName(u.DisplayName)
	if u.DisplayName == "" {
		return domain.User{}, fmt.Errorf("%w: displayName must be non-empty", userrepo.ErrInvalid)
	}
	u.IsDeleted = false
	return u, nil
}

// Insert adds a prepared membership inside an Update. A previously deleted membership
// is revived.
func Insert(t *memdb.Tables, u domain.User, now time.Time) (domain.User, error) {
	if err := t.RequireTeam(u.TeamID); err != nil {
		return domain.User{}, err
	}
	key := memdb.MemberKey{UserID: u.ID, TeamID: u.TeamID}
	if existing, ok := t.Users[key]; ok && !existing.IsDeleted {
		return domain.User{}, userrepo.ErrAlreadyExists
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	t.Users[key] = u
	return u, nil
}

func (r *Repo) Get(ctx context.Context, userID domain.UserID, teamID domain.TeamID) (domain.User, error) {
	var out domain.User
	err := r.db.View(ctx, "users.get", func(t *memdb.Tables) error {
		u, err := lookup(t, userID, teamID)
		out = u
		return err
	})
	return out, err
}

func (r *Repo) ListByTeam(ctx context.Context, teamID domain.TeamID) ([]domain.User, error) {
	out := make([]domain.User, 0)
	err := r.db.View(ctx, "users.list", func(t *memdb.Tables) error {
		if err := t.RequireTeam(teamID); err != nil {
			return err
		}
		for k, u := range t.Users {
			if k.TeamID == teamID && !u.IsDeleted {
				out = append(out, u)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := strings.ToLower(out[i].DisplayName), strings.ToLower(out[j].DisplayName)
		if di == dj {
			return string(out[i].ID) < string(out[j].ID)
		}
		return di < dj
	})
	return out, nil
}

func (r *Repo) Update(ctx context.Context, userID domain.UserID, teamID domain.TeamID, p userrepo.Patch) (domain.User, error) {
	var out domain.User
	err := r.db.Update(ctx, "users.update", func(t *memdb.Tables) error {
		u, err := lookup(t, userID, teamID)
		if err != nil {
			return err
		}
		if err := p.Apply(&u); err != nil {
			return err
		}
		u.UpdatedAt = r.db.Now()
		t.Users[memdb.MemberKey{UserID: userID, TeamID: teamID}] = u
		out = u
		return nil
	})
	return out, err
}

func (r *Repo) Delete(ctx context.Context, userID domain.UserID, teamID domain.TeamID) error {
	return r.db.Update(ctx, "users.delete", func(t *memdb.Tables) error {
		u, err := lookup(t, userID, teamID)
		if err != nil {
			return err
		}
		u.IsDeleted = true
		u.UpdatedAt = r.db.Now()
		t.Users[memdb.MemberKey{UserID: userID, TeamID: teamID}] = u
		return nil
	})
}

func lookup(t *memdb.Tables, userID domain.UserID, teamID domain.TeamID) (domain.User, error) {
	if err := t.RequireTeam(teamID); err != nil {
		return domain.User{}, err
	}
	u, ok := t.Users[memdb.MemberKey{UserID: userID, TeamID: teamID}]
	if !ok || u.IsDeleted {
		return domain.User{}, userrepo.ErrNotFound
	}
	return u, nil
}
