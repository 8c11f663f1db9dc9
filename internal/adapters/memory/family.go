// Package memory wires the in-memory adapters over one shared memdb.DB.
package memory

import (
	"github.com/fieldops/fieldops-api/internal/adapters/memory/authrepo"
	"github.com/fieldops/fieldops-api/internal/adapters/memory/clientrepo"
	"github.com/fieldops/fieldops-api/internal/adapters/memory/idempotency"
	"github.com/fieldops/fieldops-api/internal/adapters/memory/incidentrepo"
	"github.com/fieldops/fieldops-api/internal/adapters/memory/inviterepo"
	"github.com/fieldops/fieldops-api/internal/adapters/memory/memdb"
	"github.com/fieldops/fieldops-api/internal/adapters/memory/storage"
	"github.com/fieldops/fieldops-api/internal/adapters/memory/teamrepo"
	"github.com/fieldops/fieldops-api/internal/adapters/memory/userrepo"
)

// Family is the complete mock backend.
type Family struct {
	DB        *memdb.DB
	Clients   *clientrepo.Repo
	Incidents *incidentrepo.Repo
	Teams     *teamrepo.Repo
	Users     *userrepo.Repo
	Invites   *inviterepo.Repo
	Auth      *authrepo.Auth
	Storage   *storage.Store
	Replays   *idempotency.Store
}

func New(db *memdb.DB, authOpts ...authrepo.Option) Family {
	return Family{
		DB:        db,
		Clients:   clientrepo.NewRepo(db),
		Incidents: incidentrepo.NewRepo(db),
		Teams:     teamrepo.NewRepo(db),
		Users:     userrepo.NewRepo(db),
		Invites:   inviterepo.NewRepo(db),
		Auth:      authrepo.New(db, authOpts...),
		Storage:   storage.New(db, ""),
		Replays:   idempotency.NewStore(db),
	}
}
