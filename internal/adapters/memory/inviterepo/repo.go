package inviterepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldops/fieldops-api/internal/adapters/memory/memdb"
	memuserrepo "github.com/fieldops/fieldops-api/internal/adapters/memory/userrepo"
	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/ports/out/inviterepo"
)

const maxCodeAttempts = 5

// Repo is an in-memory implementation of inviterepo.Repository.
type Repo struct {
	db      *memdb.DB
	newCode func() domain.InviteCode
}

func NewRepo(db *memdb.DB) *Repo {
	return &Repo{db: db, newCode: inviterepo.NewCode}
}

// WithCodes replaces code generation; used for deterministic fixtures.
func (r *Repo) WithCodes(gen func() domain.InviteCode) *Repo {
	r.newCode = gen
	return r
}

func (r *Repo) CreateCode(ctx context.Context, teamID domain.TeamID, createdBy domain.UserID, role domain.Role) (domain.Invite, error) {
	if role == "" {
		role = domain.RoleMember
	}
	if !role.Valid() || role == domain.RoleOwner {
		return domain.Invite{}, fmt.Errorf("%w: %q", inviterepo.ErrInvalidRole, role)
	}

	var out domain.Invite
	err := r.db.Update(ctx, "invites.create", func(t *memdb.Tables) error {
		if err := t.RequireTeam(teamID); err != nil {
			return err
		}
		if u, ok := t.Users[memdb.MemberKey{UserID: createdBy, TeamID: teamID}]; !ok || u.IsDeleted {
			return inviterepo.ErrNotMember
		}
		code, err := r.freshCode(t)
		if err != nil {
			return err
		}
		now := r.db.Now()
		inv := domain.Invite{
			Code:      code,
			TeamID:    teamID,
			Role:      role,
			CreatedBy: createdBy,
			CreatedAt: now,
			ExpiresAt: now.Add(inviterepo.DefaultTTL),
		}
		t.Invites[code] = inv
		out = inv
		return nil
	})
	return out, err
}

func (r *Repo) freshCode(t *memdb.Tables) (domain.InviteCode, error) {
	for range maxCodeAttempts {
		c := r.newCode()
		if _, taken := t.Invites[c]; !taken {
			return c, nil
		}
	}
	return "", errors.New("could not allocate a unique invite code")
}

func (r *Repo) ValidateCode(ctx context.Context, code domain.InviteCode) (domain.Invite, error) {
	var out domain.Invite
	err := r.db.View(ctx, "invites.validate", func(t *memdb.Tables) error {
		inv, err := usable(t, inviterepo.NormalizeCode(code), r.db.Now())
		out = inv
		return err
	})
	return out, err
}

func (r *Repo) JoinWithCode(ctx context.Context, code domain.InviteCode, u domain.User) (domain.User, error) {
	var out domain.User
	err := r.db.Update(ctx, "invites.join", func(t *memdb.Tables) error {
		now := r.db.Now()
		inv, err := usable(t, inviterepo.NormalizeCode(code), now)
		if err != nil {
			return err
		}
		u.Role = inv.Role
		prepared, err := memuserrepo.Prepare(u, inv.TeamID)
		if err != nil {
			return err
		}
		member, err := memuserrepo.Insert(t, prepared, now)
		if err != nil {
			return err
		}
		redeemedBy := member.ID
		inv.RedeemedBy = &redeemedBy
		inv.RedeemedAt = &now
		t.Invites[inv.Code] = inv
		out = member
		return nil
	})
	return out, err
}

func usable(t *memdb.Tables, code domain.InviteCode, now time.Time) (domain.Invite, error) {
	inv, ok := t.Invites[code]
	if !ok {
		return domain.Invite{}, inviterepo.ErrNotFound
	}
	if err := t.RequireTeam(inv.TeamID); err != nil {
		return domain.Invite{}, err
	}
	if !inv.Usable(now) {
		return domain.Invite{}, inviterepo.ErrUnusable
	}
	return inv, nil
}
