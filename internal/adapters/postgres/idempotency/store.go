package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/fieldops/fieldops-api/internal/adapters/postgres"
	"github.com/fieldops/fieldops-api/internal/ports/out/idempotency"
)

// Store is a Postgres implementation of idempotency.Store.
type Store struct {
	pool *pgxpool.Pool
}

var _ idempotency.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	if s.pool == nil {
		return idempotency.Record{}, false, errors.New("nil postgres pool")
	}
	subject, ok := postgres.ParseID(fp.Subject)
	if !ok {
		return idempotency.Record{}, false, nil
	}
	var rec idempotency.Record
	err := s.pool.QueryRow(ctx, `
		SELECT status_code, content_type, body, created_at
		FROM request_replays
		WHERE idempotency_key = $1
		  AND subject = $2
		  AND method = $3
		  AND path = $4
		  AND body_hash = $5
	`, string(fp.Key), subject, fp.Method, fp.Path, fp.BodyHash).
		Scan(&rec.StatusCode, &rec.ContentType, &rec.Body, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return idempotency.Record{}, false, nil
	}
	if err != nil {
		return idempotency.Record{}, false, postgres.Classify("idempotency.get", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, true, nil
}

// Put overwrites any record stored under fp.
func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	subject, ok := postgres.ParseID(fp.Subject)
	if !ok {
		return errors.New("idempotency: subject must be a user id")
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	body := rec.Body
	if body == nil {
		body = []byte{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO request_replays (
			idempotency_key, subject, method, path, body_hash,
			status_code, content_type, body, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (idempotency_key, subject, method, path, body_hash)
		DO UPDATE SET
			status_code = EXCLUDED.status_code,
			content_type = EXCLUDED.content_type,
			body = EXCLUDED.body,
			created_at = EXCLUDED.created_at
	`,
		string(fp.Key), subject, fp.Method, fp.Path, fp.BodyHash,
		rec.StatusCode, rec.ContentType, body, createdAt.UTC(),
	)
	return postgres.Classify("idempotency.put", err)
}
