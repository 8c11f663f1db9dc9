// Package postgres holds the pgx plumbing shared by the Postgres repositories.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/ports/out/teamrepo"
)

type PoolOptions struct {
	MaxConns        int32
	ConnectTimeout  time.Duration
	MaxConnLifetime time.Duration
}

// NewPool opens and pings a pool for dsn.
func NewPool(ctx context.Context, dsn string, opts PoolOptions) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, errors.New("postgres: empty DSN")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse DSN: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.ConnectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = opts.ConnectTimeout
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Scanner is implemented by pgx.Row and pgx.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ParseID parses an external identifier. Malformed IDs cannot exist in the database,
// so callers map ok=false to their not-found error.
func ParseID[T ~string](id T) (uuid.UUID, bool) {
	u, err := uuid.Parse(string(id))
	return u, err == nil
}

// TeamPK resolves a team's internal key, returning teamrepo.ErrNotFound for unknown teams.
func TeamPK(ctx context.Context, q Querier, teamID domain.TeamID) (int64, error) {
	ext, ok := ParseID(teamID)
	if !ok {
		return 0, teamrepo.ErrNotFound
	}
	var pk int64
	err := q.QueryRow(ctx, `SELECT id FROM teams WHERE external_id = $1`, ext).Scan(&pk)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, teamrepo.ErrNotFound
	}
	return pk, err
}

// NullUUID returns nil for the zero ID so optional references store NULL.
func NullUUID[T ~string](id T) any {
	if u, ok := ParseID(id); ok {
		return u
	}
	return nil
}

// StringOrEmpty turns a nullable uuid column back into an ID string.
func StringOrEmpty(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}
