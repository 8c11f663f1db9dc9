package inviterepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/fieldops/fieldops-api/internal/adapters/postgres"
	pguserrepo "github.com/fieldops/fieldops-api/internal/adapters/postgres/userrepo"
	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/ports/out/inviterepo"
)

const maxCodeAttempts = 5

// Repo is a Postgres implementation of inviterepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const selectInvite = `
	SELECT i.code, t.external_id, i.role, i.created_by, i.created_at, i.expires_at, i.redeemed_by, i.redeemed_at
	FROM invites i
	JOIN teams t ON t.id = i.team_id
	WHERE i.code = $1
`

func (r *Repo) CreateCode(ctx context.Context, teamID domain.TeamID, createdBy domain.UserID, role domain.Role) (domain.Invite, error) {
	if r.pool == nil {
		return domain.Invite{}, errors.New("nil postgres pool")
	}
	if role == "" {
		role = domain.RoleMember
	}
	if !role.Valid() || role == domain.RoleOwner {
		return domain.Invite{}, fmt.Errorf("%w: %q", inviterepo.ErrInvalidRole, role)
	}

	var out domain.Invite
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		teamPK, err := postgres.TeamPK(ctx, tx, teamID)
		if err != nil {
			return err
		}
		creator, ok := postgres.ParseID(createdBy)
		if !ok {
			return inviterepo.ErrNotMember
		}
		var member bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2 AND NOT is_deleted)
		`, teamPK, creator).Scan(&member); err != nil {
			return err
		}
		if !member {
			return inviterepo.ErrNotMember
		}

		now := time.Now().UTC()
		for range maxCodeAttempts {
			code := inviterepo.NewCode()
			tag, err := tx.Exec(ctx, `
				INSERT INTO invites (code, team_id, role, created_by, created_at, expires_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (code) DO NOTHING
			`, string(code), teamPK, string(role), creator, now, now.Add(inviterepo.DefaultTTL))
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 1 {
				teamExt, _ := postgres.ParseID(teamID)
				out = domain.Invite{
					Code:      code,
					TeamID:    domain.TeamID(teamExt.String()),
					Role:      role,
					CreatedBy: domain.UserID(creator.String()),
					CreatedAt: now,
					ExpiresAt: now.Add(inviterepo.DefaultTTL),
				}
				return nil
			}
		}
		return errors.New("could not allocate a unique invite code")
	})
	if err != nil {
		return domain.Invite{}, postgres.Classify("invites.create", err)
	}
	return out, nil
}

func (r *Repo) ValidateCode(ctx context.Context, code domain.InviteCode) (domain.Invite, error) {
	if r.pool == nil {
		return domain.Invite{}, errors.New("nil postgres pool")
	}
	inv, err := usable(ctx, r.pool, inviterepo.NormalizeCode(code), false)
	return inv, postgres.Classify("invites.validate", err)
}

func (r *Repo) JoinWithCode(ctx context.Context, code domain.InviteCode, u domain.User) (domain.User, error) {
	if r.pool == nil {
		return domain.User{}, errors.New("nil postgres pool")
	}
	var out domain.User
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		inv, err := usable(ctx, tx, inviterepo.NormalizeCode(code), true)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		u.Role = inv.Role
		member, err := pguserrepo.Insert(ctx, tx, inv.TeamID, u, now)
		if err != nil {
			return err
		}
		uid, _ := postgres.ParseID(member.ID)
		if _, err := tx.Exec(ctx, `
			UPDATE invites SET redeemed_by = $2, redeemed_at = $3 WHERE code = $1
		`, string(inv.Code), uid, now); err != nil {
			return err
		}
		out = member
		return nil
	})
	if err != nil {
		return domain.User{}, postgres.Classify("invites.join", err)
	}
	return out, nil
}

// usable loads the invite and checks it can still be redeemed. forUpdate locks the row
// so concurrent joins serialise on it.
func usable(ctx context.Context, q postgres.Querier, code domain.InviteCode, forUpdate bool) (domain.Invite, error) {
	query := selectInvite
	if forUpdate {
		query += ` FOR UPDATE OF i`
	}
	inv, err := scanInvite(q.QueryRow(ctx, query, string(code)))
	if err != nil {
		return domain.Invite{}, err
	}
	if !inv.Usable(time.Now().UTC()) {
		return domain.Invite{}, inviterepo.ErrUnusable
	}
	return inv, nil
}

func scanInvite(row postgres.Scanner) (domain.Invite, error) {
	var (
		code, role string
		team       pgtype.UUID
		createdBy  pgtype.UUID
		redeemedBy pgtype.UUID
		redeemedAt pgtype.Timestamptz
		inv        domain.Invite
	)
	if err := row.Scan(&code, &team, &role, &createdBy, &inv.CreatedAt, &inv.ExpiresAt, &redeemedBy, &redeemedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Invite{}, inviterepo.ErrNotFound
		}
		return domain.Invite{}, err
	}
	inv.Code = domain.InviteCode(code)
	inv.TeamID = domain.TeamID(postgres.StringOrEmpty(team))
	inv.Role = domain.Role(role)
	inv.CreatedBy = domain.UserID(postgres.StringOrEmpty(createdBy))
	inv.CreatedAt = inv.CreatedAt.UTC()
	inv.ExpiresAt = inv.ExpiresAt.UTC()
	if redeemedBy.Valid {
		id := domain.UserID(postgres.StringOrEmpty(redeemedBy))
		inv.RedeemedBy = &id
	}
	if redeemedAt.Valid {
		at := redeemedAt.Time.UTC()
		inv.RedeemedAt = &at
	}
	return inv, nil
}
