package clientrepo

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
	"github.com/fieldops/fieldops-api/internal/ports/out/clientrepo"
)

// Repo is a Postgres implementation of clientrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const selectClient = `
	SELECT c.external_id, t.external_id, c.name, c.notes, c.phone, c.address, c.is_deleted, c.created_at, c.updated_at
	FROM clients c
	JOIN teams t ON t.id = c.team_id
`

func (r *Repo) Create(ctx context.Context, teamID domain.TeamID, c domain.Client) (domain.Client, error) {
	if r.pool == nil {
		return domain.Client{}, errors.New("nil postgres pool")
	}
	c.Name = domain.NormalizeHumanName(c.Name)
	if c.Name == "" {
		return domain.Client{}, fmt.Errorf("%w: name must be non-empty", clientrepo.ErrInvalid)
	}

	var out domain.Client
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		teamPK, err := postgres.TeamPK(ctx, tx, teamID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		row := tx.QueryRow(ctx, `
			WITH ins AS (
				INSERT INTO clients (external_id, team_id, name, notes, phone, address, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
				RETURNING *
			)
			SELECT ins.external_id, t.external_id, ins.name, ins.notes, ins.phone, ins.address, ins.is_deleted, ins.created_at, ins.updated_at
			FROM ins JOIN teams t ON t.id = ins.team_id
		`, uuid.New(), teamPK, c.Name, c.Notes, c.Phone, c.Address, now)
		out, err = scanClient(row)
		return err
	})
	if err != nil {
		return domain.Client{}, postgres.Classify("clients.create", err)
	}
	return out, nil
}

func (r *Repo) GetByID(ctx context.Context, teamID domain.TeamID, id domain.ClientID) (domain.Client, error) {
	if r.pool == nil {
		return domain.Client{}, errors.New("nil postgres pool")
	}
	c, err := lookup(ctx, r.pool, teamID, id, false)
	return c, postgres.Classify("clients.get", err)
}

func (r *Repo) ListByTeam(ctx context.Context, teamID domain.TeamID) ([]domain.Client, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	teamPK, err := postgres.TeamPK(ctx, r.pool, teamID)
	if err != nil {
		return nil, postgres.Classify("clients.list", err)
	}
	rows, err := r.pool.Query(ctx, selectClient+`
		WHERE c.team_id = $1 AND NOT c.is_deleted
		ORDER BY lower(c.name) ASC, c.external_id::text ASC
	`, teamPK)
	if err != nil {
		return nil, postgres.Classify("clients.list", err)
	}
	defer rows.Close()

	out := make([]domain.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, postgres.Classify("clients.list", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Classify("clients.list", err)
	}
	return out, nil
}

func (r *Repo) Update(ctx context.Context, teamID domain.TeamID, id domain.ClientID, p clientrepo.Patch) (domain.Client, error) {
	if r.pool == nil {
		return domain.Client{}, errors.New("nil postgres pool")
	}
	var out domain.Client
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		c, err := lookup(ctx, tx, teamID, id, true)
		if err != nil {
			return err
		}
		if err := p.Apply(&c); err != nil {
			return err
		}
		c.UpdatedAt = time.Now().UTC()
		ext, _ := postgres.ParseID(id)
		if _, err := tx.Exec(ctx, `
			UPDATE clients
			SET name = $2, notes = $3, phone = $4, address = $5, updated_at = $6
			WHERE external_id = $1
		`, ext, c.Name, c.Notes, c.Phone, c.Address, c.UpdatedAt); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return domain.Client{}, postgres.Classify("clients.update", err)
	}
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, teamID domain.TeamID, id domain.ClientID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := lookup(ctx, tx, teamID, id, true); err != nil {
			return err
		}
		ext, _ := postgres.ParseID(id)
		_, err := tx.Exec(ctx, `UPDATE clients SET is_deleted = true, updated_at = $2 WHERE external_id = $1`, ext, time.Now().UTC())
		return err
	})
	return postgres.Classify("clients.delete", err)
}

// Lookup resolves a live client and enforces team scope. It is shared with the
// incident repository, which must validate client references the same way.
func Lookup(ctx context.Context, q postgres.Querier, teamID domain.TeamID, id domain.ClientID) (domain.Client, error) {
	return lookup(ctx, q, teamID, id, false)
}

func lookup(ctx context.Context, q postgres.Querier, teamID domain.TeamID, id domain.ClientID, forUpdate bool) (domain.Client, error) {
	if _, err := postgres.TeamPK(ctx, q, teamID); err != nil {
		return domain.Client{}, err
	}
	ext, ok := postgres.ParseID(id)
	if !ok {
		return domain.Client{}, clientrepo.ErrNotFound
	}
	query := selectClient + ` WHERE c.external_id = $1`
	if forUpdate {
		query += ` FOR UPDATE OF c`
	}
	c, err := scanClient(q.QueryRow(ctx, query, ext))
	if err != nil {
		return domain.Client{}, err
	}
	if c.IsDeleted {
		return domain.Client{}, clientrepo.ErrNotFound
	}
	if teamExt, _ := postgres.ParseID(teamID); string(c.TeamID) != teamExt.String() {
		return domain.Client{}, clientrepo.ErrForbidden
	}
	return c, nil
}

func scanClient(row postgres.Scanner) (domain.Client, error) {
	var (
		ext, team uuid.UUID
		c         domain.Client
	)
	if err := row.Scan(&ext, &team, &c.Name, &c.Notes, &c.Phone, &c.Address, &c.IsDeleted, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Client{}, clientrepo.ErrNotFound
		}
		return domain.Client{}, err
	}
	c.ID = domain.ClientID(ext.String())
	c.TeamID = domain.TeamID(team.String())
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}
