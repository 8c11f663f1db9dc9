package postgres_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fieldops/fieldops-api/internal/adapters/contracttest"
	"github.com/fieldops/fieldops-api/internal/adapters/postgres/authrepo"
	"github.com/fieldops/fieldops-api/internal/adapters/postgres/clientrepo"
	"github.com/fieldops/fieldops-api/internal/adapters/postgres/idempotency"
	"github.com/fieldops/fieldops-api/internal/adapters/postgres/incidentrepo"
	"github.com/fieldops/fieldops-api/internal/adapters/postgres/inviterepo"
	"github.com/fieldops/fieldops-api/internal/adapters/postgres/teamrepo"
	"github.com/fieldops/fieldops-api/internal/adapters/postgres/testutil"
	"github.com/fieldops/fieldops-api/internal/adapters/postgres/userrepo"
	"github.com/fieldops/fieldops-api/internal/domain"
	authport "github.com/fieldops/fieldops-api/internal/ports/out/authrepo"
	idemport "github.com/fieldops/fieldops-api/internal/ports/out/idempotency"
)

func TestContract_Postgres(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)
	newRepos := func(t *testing.T) (contracttest.Repos, func()) {
		t.Helper()
		return contracttest.Repos{
			Clients:   clientrepo.NewRepo(pool),
			Incidents: incidentrepo.NewRepo(pool),
			Teams:     teamrepo.NewRepo(pool),
			Users:     userrepo.NewRepo(pool),
			Invites:   inviterepo.NewRepo(pool),
		}, nil
	}

	t.Run("clients", func(t *testing.T) { contracttest.RunClientRepo(t, newRepos) })
	t.Run("incidents", func(t *testing.T) { contracttest.RunIncidentRepo(t, newRepos) })
	t.Run("teams", func(t *testing.T) { contracttest.RunTeamRepo(t, newRepos) })
	t.Run("users", func(t *testing.T) { contracttest.RunUserRepo(t, newRepos) })
	t.Run("invites", func(t *testing.T) { contracttest.RunInviteRepo(t, newRepos) })
	t.Run("auth", func(t *testing.T) {
		contracttest.RunAuth(t, func(t *testing.T) (authport.Auth, func()) {
			t.Helper()
			return authrepo.New(pool, newMapSessions(), authrepo.WithBcryptCost(bcrypt.MinCost)), nil
		})
	})
	t.Run("replays", func(t *testing.T) {
		contracttest.RunReplayStore(t, func(t *testing.T) (idemport.Store, func()) {
			t.Helper()
			return idempotency.NewStore(pool), nil
		})
	})
}

type mapSessions struct {
	mu sync.Mutex
	m  map[string]domain.Account
}

func newMapSessions() *mapSessions { return &mapSessions{m: map[string]domain.Account{}} }

func (s *mapSessions) Create(_ context.Context, acct domain.Account) (authport.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok := uuid.NewString()
	s.m[tok] = acct
	return authport.Session{Token: tok, Account: acct}, nil
}

func (s *mapSessions) Lookup(_ context.Context, token string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.m[token]
	if !ok {
		return domain.Account{}, authport.ErrSessionNotFound
	}
	return acct, nil
}

func (s *mapSessions) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, token)
	return nil
}
