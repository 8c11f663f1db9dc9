package userrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/fieldops/fieldops-api/internal/adapters/postgres"
	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/ports/out/userrepo"
)

// Repo is a Postgres implementation of userrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const selectMember = `
	SELECT m.user_id, t.external_id, m.email, m.display_name, m.role, m.is_deleted, m.created_at, m.updated_at
	FROM team_members m
	JOIN teams t ON t.id = m.team_id
`

func (r *Repo) Create(ctx context.Context, teamID domain.TeamID, u domain.User) (domain.User, error) {
	if r.pool == nil {
		return domain.User{}, errors.New("nil postgres pool")
	}
	var out domain.User
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		out, err = Insert(ctx, tx, teamID, u, time.Now().UTC())
		return err
	})
	if err != nil {
		return domain.User{}, postgres.Classify("users.create", err)
	}
	return out, nil
}

// Insert validates u and adds it to teamID within tx. A previously deleted membership
// is revived.
func Insert(ctx context.Context, tx pgx.Tx, teamID domain.TeamID, u domain.User, now time.Time) (domain.User, error) {
	uid, ok := postgres.ParseID(u.ID)
	if !ok {
		return domain.User{}, fmt.Errorf("%w: id required", userrepo.ErrInvalid)
	}
	if u.Role == "" {
		u.Role = domain.RoleMember
	}
	if !u.Role.Valid() {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", userrepo.ErrInvalid, u.Role)
	}
	u.Email = domain.NormalizeEmail(u.Email)
	u.DisplayName = domain.NormalizeHumanName(u.DisplayName)
	if u.DisplayName == "" {
		return domain.User{}, fmt.Errorf("%w: displayName must be non-empty", userrepo.ErrInvalid)
	}

	teamPK, err := postgres.TeamPK(ctx, tx, teamID)
	if err != nil {
		return domain.User{}, err
	}
	tag, err := tx.Exec(ctx, `
		INSERT INTO team_members (team_id, user_id, email, display_name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (team_id, user_id) DO UPDATE
		SET email = EXCLUDED.email,
		    display_name = EXCLUDED.display_name,
		    role = EXCLUDED.role,
		    is_deleted = false,
		    created_at = EXCLUDED.created_at,
		    updated_at = EXCLUDED.updated_at
		WHERE team_members.is_deleted
	`, teamPK, uid, u.Email, u.DisplayName, string(u.Role), now)
	if err != nil {
		return domain.User{}, err
	}
	if tag.RowsAffected() == 0 {
		return domain.User{}, userrepo.ErrAlreadyExists
	}
	teamExt, _ := postgres.ParseID(teamID)
	u.ID = domain.UserID(uid.String())
	u.TeamID = domain.TeamID(teamExt.String())
	u.IsDeleted = false
	u.CreatedAt = now
	u.UpdatedAt = now
	return u, nil
}

func (r *Repo) Get(ctx context.Context, userID domain.UserID, teamID domain.TeamID) (domain.User, error) {
	if r.pool == nil {
		return domain.User{}, errors.New("nil postgres pool")
	}
	u, err := lookup(ctx, r.pool, userID, teamID, false)
	return u, postgres.Classify("users.get", err)
}

func (r *Repo) ListByTeam(ctx context.Context, teamID domain.TeamID) ([]domain.User, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	teamPK, err := postgres.TeamPK(ctx, r.pool, teamID)
	if err != nil {
		return nil, postgres.Classify("users.list", err)
	}
	rows, err := r.pool.Query(ctx, selectMember+`
		WHERE m.team_id = $1 AND NOT m.is_deleted
		ORDER BY lower(m.display_name) ASC, m.user_id::text ASC
	`, teamPK)
	if err != nil {
		return nil, postgres.Classify("users.list", err)
	}
	defer rows.Close()

	out := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanMember(rows)
		if err != nil {
			return nil, postgres.Classify("users.list", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Classify("users.list", err)
	}
	return out, nil
}

func (r *Repo) Update(ctx context.Context, userID domain.UserID, teamID domain.TeamID, p userrepo.Patch) (domain.User, error) {
	if r.pool == nil {
		return domain.User{}, errors.New("nil postgres pool")
	}
	var out domain.User
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		u, err := lookup(ctx, tx, userID, teamID, true)
		if err != nil {
			return err
		}
		if err := p.Apply(&u); err != nil {
			return err
		}
		u.UpdatedAt = time.Now().UTC()
		uid, _ := postgres.ParseID(userID)
		if _, err := tx.Exec(ctx, `
			UPDATE team_members m SET display_name = $3, role = $4, updated_at = $5
			FROM teams t
			WHERE t.id = m.team_id AND m.user_id = $1 AND t.external_id = $2
		`, uid, mustTeam(teamID), u.DisplayName, string(u.Role), u.UpdatedAt); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return domain.User{}, postgres.Classify("users.update", err)
	}
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, userID domain.UserID, teamID domain.TeamID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := lookup(ctx, tx, userID, teamID, true); err != nil {
			return err
		}
		uid, _ := postgres.ParseID(userID)
		_, err := tx.Exec(ctx, `
			UPDATE team_members m SET is_deleted = true, updated_at = $3
			FROM teams t
			WHERE t.id = m.team_id AND m.user_id = $1 AND t.external_id = $2
		`, uid, mustTeam(teamID), time.Now().UTC())
		return err
	})
	return postgres.Classify("users.delete", err)
}

// mustTeam is only called after TeamPK has accepted teamID.
func mustTeam(teamID domain.TeamID) uuid.UUID {
	u, _ := postgres.ParseID(teamID)
	return u
}

func lookup(ctx context.Context, q postgres.Querier, userID domain.UserID, teamID domain.TeamID, forUpdate bool) (domain.User, error) {
	teamPK, err := postgres.TeamPK(ctx, q, teamID)
	if err != nil {
		return domain.User{}, err
	}
	uid, ok := postgres.ParseID(userID)
	if !ok {
		return domain.User{}, userrepo.ErrNotFound
	}
	query := selectMember + ` WHERE m.team_id = $1 AND m.user_id = $2`
	if forUpdate {
		query += ` FOR UPDATE OF m`
	}
	u, err := scanMember(q.QueryRow(ctx, query, teamPK, uid))
	if err != nil {
		return domain.User{}, err
	}
	if u.IsDeleted {
		return domain.User{}, userrepo.ErrNotFound
	}
	return u, nil
}

func scanMember(row postgres.Scanner) (domain.User, error) {
	var (
		uid, team uuid.UUID
		role      string
		u         domain.User
	)
	if err := row.Scan(&uid, &team, &u.Email, &u.DisplayName, &role, &u.IsDeleted, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, userrepo.ErrNotFound
		}
		return domain.User{}, err
	}
	u.ID = domain.UserID(uid.String())
	u.TeamID = domain.TeamID(team.String())
	u.Role = domain.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}
