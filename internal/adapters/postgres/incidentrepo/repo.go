package incidentrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/fieldops/fieldops-api/internal/adapters/postgres"
	pgclientrepo "github.com/fieldops/fieldops-api/internal/adapters/postgres/clientrepo"
	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/ports/out/incidentrepo"
)

// Repo is a Postgres implementation of incidentrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const selectIncident = `
	SELECT i.external_id, t.external_id, c.external_id, i.description, i.status, i.created_by,
	       i.is_deleted, i.created_at, i.updated_at
	FROM incidents i
	JOIN teams t ON t.id = i.team_id
	JOIN clients c ON c.id = i.client_id
`

func (r *Repo) Create(ctx context.Context, teamID domain.TeamID, inc domain.Incident) (domain.Incident, error) {
	if r.pool == nil {
		return domain.Incident{}, errors.New("nil postgres pool")
	}
	if inc.Status == "" {
		inc.Status = domain.IncidentStatusOpen
	}
	if !inc.Status.Valid() {
		return domain.Incident{}, fmt.Errorf("%w: unknown status %q", incidentrepo.ErrInvalid, inc.Status)
	}
	inc.Description = strings.TrimSpace(inc.Description)

	var out domain.Incident
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		client, err := pgclientrepo.Lookup(ctx, tx, teamID, inc.ClientID)
		if err != nil {
			return err
		}
		clientExt, _ := postgres.ParseID(client.ID)
		now := time.Now().UTC()
		created := inc.CreatedAt.UTC()
		if inc.CreatedAt.IsZero() {
			created = now
		}
		ext := uuid.New()
		if _, err := tx.Exec(ctx, `
			INSERT INTO incidents (external_id, team_id, client_id, description, status, created_by, created_at, updated_at)
			SELECT $1, c.team_id, c.id, $3, $4, $5, $6, $7
			FROM clients c WHERE c.external_id = $2
		`, ext, clientExt, inc.Description, string(inc.Status), postgres.NullUUID(inc.CreatedBy), created, now); err != nil {
			return err
		}
		out, err = get(ctx, tx, ext)
		return err
	})
	if err != nil {
		return domain.Incident{}, postgres.Classify("incidents.create", err)
	}
	return out, nil
}

func (r *Repo) GetByID(ctx context.Context, teamID domain.TeamID, id domain.IncidentID) (domain.Incident, error) {
	if r.pool == nil {
		return domain.Incident{}, errors.New("nil postgres pool")
	}
	inc, err := lookup(ctx, r.pool, teamID, id, false)
	return inc, postgres.Classify("incidents.get", err)
}

func (r *Repo) ListByClient(ctx context.Context, teamID domain.TeamID, clientID domain.ClientID) ([]domain.Incident, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	if _, err := pgclientrepo.Lookup(ctx, r.pool, teamID, clientID); err != nil {
		return nil, postgres.Classify("incidents.list_by_client", err)
	}
	ext, _ := postgres.ParseID(clientID)
	out, err := r.list(ctx, teamID, `AND c.external_id = $2`, ext)
	return out, postgres.Classify("incidents.list_by_client", err)
}

func (r *Repo) ListByTeam(ctx context.Context, teamID domain.TeamID) ([]domain.Incident, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	out, err := r.list(ctx, teamID, "")
	return out, postgres.Classify("incidents.list", err)
}

func (r *Repo) list(ctx context.Context, teamID domain.TeamID, filter string, args ...any) ([]domain.Incident, error) {
	teamPK, err := postgres.TeamPK(ctx, r.pool, teamID)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, selectIncident+`
		WHERE i.team_id = $1 AND NOT i.is_deleted `+filter+`
		ORDER BY i.created_at ASC, i.external_id::text ASC
	`, append([]any{teamPK}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Incident, 0)
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inc)
	}
	return out, rows.Err()
}

func (r *Repo) Update(ctx context.Context, teamID domain.TeamID, id domain.IncidentID, p incidentrepo.Patch) (domain.Incident, error) {
	if r.pool == nil {
		return domain.Incident{}, errors.New("nil postgres pool")
	}
	var out domain.Incident
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		inc, err := lookup(ctx, tx, teamID, id, true)
		if err != nil {
			return err
		}
		if err := p.Apply(&inc); err != nil {
			return err
		}
		inc.UpdatedAt = time.Now().UTC()
		ext, _ := postgres.ParseID(id)
		if _, err := tx.Exec(ctx, `
			UPDATE incidents SET description = $2, status = $3, updated_at = $4 WHERE external_id = $1
		`, ext, inc.Description, string(inc.Status), inc.UpdatedAt); err != nil {
			return err
		}
		out = inc
		return nil
	})
	if err != nil {
		return domain.Incident{}, postgres.Classify("incidents.update", err)
	}
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, teamID domain.TeamID, id domain.IncidentID) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := lookup(ctx, tx, teamID, id, true); err != nil {
			return err
		}
		ext, _ := postgres.ParseID(id)
		_, err := tx.Exec(ctx, `UPDATE incidents SET is_deleted = true, updated_at = $2 WHERE external_id = $1`, ext, time.Now().UTC())
		return err
	})
	return postgres.Classify("incidents.delete", err)
}

func lookup(ctx context.Context, q postgres.Querier, teamID domain.TeamID, id domain.IncidentID, forUpdate bool) (domain.Incident, error) {
	if _, err := postgres.TeamPK(ctx, q, teamID); err != nil {
		return domain.Incident{}, err
	}
	ext, ok := postgres.ParseID(id)
	if !ok {
		return domain.Incident{}, incidentrepo.ErrNotFound
	}
	query := selectIncident + ` WHERE i.external_id = $1`
	if forUpdate {
		query += ` FOR UPDATE OF i`
	}
	inc, err := scanIncident(q.QueryRow(ctx, query, ext))
	if err != nil {
		return domain.Incident{}, err
	}
	if inc.IsDeleted {
		return domain.Incident{}, incidentrepo.ErrNotFound
	}
	if teamExt, _ := postgres.ParseID(teamID); string(inc.TeamID) != teamExt.String() {
		return domain.Incident{}, incidentrepo.ErrForbidden
	}
	return inc, nil
}

func get(ctx context.Context, q postgres.Querier, ext uuid.UUID) (domain.Incident, error) {
	return scanIncident(q.QueryRow(ctx, selectIncident+` WHERE i.external_id = $1`, ext))
}

func scanIncident(row postgres.Scanner) (domain.Incident, error) {
	var (
		ext, team, client uuid.UUID
		createdBy         pgtype.UUID
		status            string
		inc               domain.Incident
	)
	if err := row.Scan(&ext, &team, &client, &inc.Description, &status, &createdBy, &inc.IsDeleted, &inc.CreatedAt, &inc.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Incident{}, incidentrepo.ErrNotFound
		}
		return domain.Incident{}, err
	}
	inc.ID = domain.IncidentID(ext.String())
	inc.TeamID = domain.TeamID(team.String())
	inc.ClientID = domain.ClientID(client.String())
	inc.Status = domain.IncidentStatus(status)
	inc.CreatedBy = domain.UserID(postgres.StringOrEmpty(createdBy))
	inc.CreatedAt = inc.CreatedAt.UTC()
	inc.UpdatedAt = inc.UpdatedAt.UTC()
	return inc, nil
}
