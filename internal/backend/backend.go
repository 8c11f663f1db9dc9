// Package backend builds a complete, ready-to-use set of repositories for either the
// mock (in-memory, fixture-seeded) or the live (Postgres, Redis, S3) family.
package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fieldops/fieldops-api/internal/adapters/memory"
	"github.com/fieldops/fieldops-api/internal/adapters/memory/clock"
	"github.com/fieldops/fieldops-api/internal/adapters/memory/fixtures"
	"github.com/fieldops/fieldops-api/internal/adapters/memory/memdb"
	"github.com/fieldops/fieldops-api/internal/adapters/postgres"
	pgauthrepo "github.com/fieldops/fieldops-api/internal/adapters/postgres/authrepo"
	pgclientrepo "github.com/fieldops/fieldops-api/internal/adapters/postgres/clientrepo"
	pgidempotency "github.com/fieldops/fieldops-api/internal/adapters/postgres/idempotency"
	pgincidentrepo "github.com/fieldops/fieldops-api/internal/adapters/postgres/incidentrepo"
	pginviterepo "github.com/fieldops/fieldops-api/internal/adapters/postgres/inviterepo"
	pgteamrepo "github.com/fieldops/fieldops-api/internal/adapters/postgres/teamrepo"
	pguserrepo "github.com/fieldops/fieldops-api/internal/adapters/postgres/userrepo"
	"github.com/fieldops/fieldops-api/internal/adapters/redis/sessionstore"
	s3storage "github.com/fieldops/fieldops-api/internal/adapters/s3/storage"
	"github.com/fieldops/fieldops-api/internal/platform/config"
	"github.com/fieldops/fieldops-api/internal/ports/out/authrepo"
	clockport "github.com/fieldops/fieldops-api/internal/ports/out/clock"
	"github.com/fieldops/fieldops-api/internal/ports/out/clientrepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/idempotency"
	"github.com/fieldops/fieldops-api/internal/ports/out/incidentrepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/inviterepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/storage"
	"github.com/fieldops/fieldops-api/internal/ports/out/teamrepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/userrepo"
)

// ErrConfiguration is wrapped by every New failure. It is fatal: retrying with the same
// options will fail the same way.
var ErrConfiguration = errors.New("backend configuration failed")

// MockNow is the frozen time of mock handles built without an explicit clock.
var MockNow = fixtures.Epoch.Add(30 * 24 * time.Hour)

type Options struct {
	// UseMock selects the in-memory family regardless of Profile.Backend.
	UseMock bool
	// Profile is required for the live family.
	Profile *config.Config
	Logger  *zap.Logger

	// MockClock overrides the frozen mock clock.
	MockClock clockport.Clock
}

// Handle is the set of repositories one client works with.
type Handle struct {
	Backend   config.Backend
	Clients   clientrepo.Repository
	Incidents incidentrepo.Repository
	Teams     teamrepo.Repository
	Users     userrepo.Repository
	Invites   inviterepo.Repository
	Auth      authrepo.SessionAuth
	Storage   storage.Store
	Replays   idempotency.Store

	// Mock is set only for mock handles; tests use it for fault injection.
	Mock *memory.Family

	closers []func()
}

// Close releases connections in reverse order of acquisition. It is safe to call twice
// and on a nil handle.
func (h *Handle) Close() {
	if h == nil {
		return
	}
	for i := len(h.closers) - 1; i >= 0; i-- {
		h.closers[i]()
	}
	h.closers = nil
}

func New(ctx context.Context, opts Options) (*Handle, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.UseMock || (opts.Profile != nil && opts.Profile.Backend == config.BackendMock) {
		h, err := newMock(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		log.Info("backend ready", zap.String("backend", string(config.BackendMock)))
		return h, nil
	}
	if opts.Profile == nil {
		return nil, fmt.Errorf("%w: live backend requires a profile", ErrConfiguration)
	}
	if err := opts.Profile.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	h, err := newLive(ctx, *opts.Profile, log)
	if err != nil {
		log.Error("backend setup failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	log.Info("backend ready", zap.String("backend", string(config.BackendLive)))
	return h, nil
}

func newMock(ctx context.Context, opts Options) (*Handle, error) {
	clk := opts.MockClock
	if clk == nil {
		clk = clock.NewManualClock(MockNow)
	}
	db := memdb.New(memdb.WithClock(clk), memdb.WithSequentialIDs("mock"))
	if err := fixtures.Seed(ctx, db); err != nil {
		return nil, fmt.Errorf("seed fixtures: %w", err)
	}
	f := memory.New(db)
	return &Handle{
		Backend:   config.BackendMock,
		Clients:   f.Clients,
		Incidents: f.Incidents,
		Teams:     f.Teams,
		Users:     f.Users,
		Invites:   f.Invites,
		Auth:      f.Auth,
		Storage:   f.Storage,
		Replays:   f.Replays,
		Mock:      &f,
	}, nil
}

func newLive(ctx context.Context, cfg config.Config, log *zap.Logger) (_ *Handle, err error) {
	h := &Handle{Backend: config.BackendLive}
	defer func() {
		if err != nil {
			h.Close()
		}
	}()

	pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN, postgres.PoolOptions{
		MaxConns:       cfg.Postgres.MaxConns,
		ConnectTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	h.closers = append(h.closers, pool.Close)
	applied, err := postgres.Migrate(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if len(applied) > 0 {
		log.Info("applied migrations", zap.Strings("versions", applied))
	}

	rdb := sessionstore.NewClient(sessionstore.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	sessions := sessionstore.New(rdb, cfg.Redis.SessionTTL)
	h.closers = append(h.closers, func() { _ = sessions.Close() })
	if err := sessions.Ping(ctx); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	store, err := s3storage.New(ctx, s3storage.Config{
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		Endpoint:  cfg.Storage.Endpoint,
		PathStyle: cfg.Storage.PathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: %w", err)
	}

	h.Clients = pgclientrepo.NewRepo(pool)
	h.Incidents = pgincidentrepo.NewRepo(pool)
	h.Teams = pgteamrepo.NewRepo(pool)
	h.Users = pguserrepo.NewRepo(pool)
	h.Invites = pginviterepo.NewRepo(pool)
	h.Auth = pgauthrepo.New(pool, sessions)
	h.Storage = store
	h.Replays = pgidempotency.NewStore(pool)
	return h, nil
}
