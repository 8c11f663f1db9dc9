package teamrepo

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
	"github.com/fieldops/fieldops-api/internal/ports/out/teamrepo"
)

// Repo is a Postgres implementation of teamrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, t domain.Team, owner domain.User) (domain.Team, domain.User, error) {
	if r.pool == nil {
		return domain.Team{}, domain.User{}, errors.New("nil postgres pool")
	}
	t.Name = domain.NormalizeHumanName(t.Name)
	if t.Name == "" {
		return domain.Team{}, domain.User{}, fmt.Errorf("%w: name must be non-empty", teamrepo.ErrInvalid)
	}
	ownerExt, ok := postgres.ParseID(owner.ID)
	if !ok {
		return domain.Team{}, domain.User{}, fmt.Errorf("%w: owner id required", teamrepo.ErrInvalid)
	}

	now := time.Now().UTC()
	ext := uuid.New()
	owner.ID = domain.UserID(ownerExt.String())
	owner.Role = domain.RoleOwner
	owner.Email = domain.NormalizeEmail(owner.Email)
	owner.DisplayName = domain.NormalizeHumanName(owner.DisplayName)
	owner.IsDeleted = false
	if owner.DisplayName == "" {
		return domain.Team{}, domain.User{}, fmt.Errorf("%w: owner displayName must be non-empty", teamrepo.ErrInvalid)
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var pk int64
		if err := tx.QueryRow(ctx, `
			INSERT INTO teams (external_id, name, owner_user_id, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at
		`, ext, t.Name, ownerExt, now).Scan(&pk, &t.CreatedAt); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO team_members (team_id, user_id, email, display_name, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
		`, pk, ownerExt, owner.Email, owner.DisplayName, string(owner.Role), now)
		return err
	})
	if err != nil {
		return domain.Team{}, domain.User{}, postgres.Classify("teams.create", err)
	}

	t.ID = domain.TeamID(ext.String())
	t.OwnerID = owner.ID
	t.CreatedAt = t.CreatedAt.UTC()
	owner.TeamID = t.ID
	owner.CreatedAt = now
	owner.UpdatedAt = now
	return t, owner, nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.TeamID) (domain.Team, error) {
	if r.pool == nil {
		return domain.Team{}, errors.New("nil postgres pool")
	}
	ext, ok := postgres.ParseID(id)
	if !ok {
		return domain.Team{}, teamrepo.ErrNotFound
	}
	t, err := scanTeam(r.pool.QueryRow(ctx, `
		SELECT external_id, name, owner_user_id, created_at FROM teams WHERE external_id = $1
	`, ext))
	return t, postgres.Classify("teams.get", err)
}

func (r *Repo) ListForUser(ctx context.Context, userID domain.UserID) ([]domain.Team, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	out := make([]domain.Team, 0)
	uid, ok := postgres.ParseID(userID)
	if !ok {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT t.external_id, t.name, t.owner_user_id, t.created_at
		FROM teams t
		JOIN team_members m ON m.team_id = t.id
		WHERE m.user_id = $1 AND NOT m.is_deleted
		ORDER BY lower(t.name) ASC, t.external_id::text ASC
	`, uid)
	if err != nil {
		return nil, postgres.Classify("teams.list_for_user", err)
	}
	defer rows.Close()
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, postgres.Classify("teams.list_for_user", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Classify("teams.list_for_user", err)
	}
	return out, nil
}

func scanTeam(row postgres.Scanner) (domain.Team, error) {
	var (
		ext, owner uuid.UUID
		t          domain.Team
	)
	if err := row.Scan(&ext, &t.Name, &owner, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Team{}, teamrepo.ErrNotFound
		}
		return domain.Team{}, err
	}
	t.ID = domain.TeamID(ext.String())
	t.OwnerID = domain.UserID(owner.String())
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}
