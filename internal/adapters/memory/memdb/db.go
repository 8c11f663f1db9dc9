// Package memdb is the shared state behind the in-memory adapters. One DB plays the role
// of a whole backend so that cross-entity rules (team scope, atomic joins) hold across
// repositories built on it.
package memdb

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/platform/clock"
	clockport "github.com/fieldops/fieldops-api/internal/ports/out/clock"
	"github.com/fieldops/fieldops-api/internal/ports/out/idempotency"
	"github.com/fieldops/fieldops-api/internal/ports/out/repoerr"
	"github.com/fieldops/fieldops-api/internal/ports/out/teamrepo"
)

type MemberKey struct {
	UserID domain.UserID
	TeamID domain.TeamID
}

type Account struct {
	domain.Account
	PasswordHash []byte
}

// Tables is the raw state. It is only reachable inside View/Update callbacks.
type Tables struct {
	Teams     map[domain.TeamID]domain.Team
	Clients   map[domain.ClientID]domain.Client
	Incidents map[domain.IncidentID]domain.Incident
	Users     map[MemberKey]domain.User
	Invites   map[domain.InviteCode]domain.Invite
	// Accounts are keyed by normalised email.
	Accounts map[string]Account
	// Sessions maps bearer tokens to the signed-in account.
	Sessions map[string]domain.Account
	Objects  map[string][]byte
	Replays  map[idempotency.Fingerprint]idempotency.Record
}

func newTables() Tables {
	return Tables{
		Teams:     make(map[domain.TeamID]domain.Team),
		Clients:   make(map[domain.ClientID]domain.Client),
		Incidents: make(map[domain.IncidentID]domain.Incident),
		Users:     make(map[MemberKey]domain.User),
		Invites:   make(map[domain.InviteCode]domain.Invite),
		Accounts:  make(map[string]Account),
		Sessions:  make(map[string]domain.Account),
		Objects:   make(map[string][]byte),
		Replays:   make(map[idempotency.Fingerprint]idempotency.Record),
	}
}

func (t Tables) clone() Tables {
	return Tables{
		Teams:     maps.Clone(t.Teams),
		Clients:   maps.Clone(t.Clients),
		Incidents: maps.Clone(t.Incidents),
		Users:     maps.Clone(t.Users),
		Invites:   maps.Clone(t.Invites),
		Accounts:  maps.Clone(t.Accounts),
		Sessions:  maps.Clone(t.Sessions),
		Objects:   maps.Clone(t.Objects),
		Replays:   maps.Clone(t.Replays),
	}
}

// RequireTeam returns teamrepo.ErrNotFound when id is unknown.
func (t *Tables) RequireTeam(id domain.TeamID) error {
	if _, ok := t.Teams[id]; !ok {
		return teamrepo.ErrNotFound
	}
	return nil
}

// FaultFunc is consulted before every operation; a non-nil error fails the operation
// as transient.
type FaultFunc func(op string) error

// DB is safe for concurrent use.
type DB struct {
	mu sync.RWMutex
	t  Tables

	clk   clockport.Clock
	newID func() string
	fault atomic.Pointer[FaultFunc]
}

type Option func(*DB)

func WithClock(clk clockport.Clock) Option {
	return func(db *DB) { db.clk = clk }
}

// WithSequentialIDs makes generated IDs deterministic: prefix-000001, prefix-000002, ...
func WithSequentialIDs(prefix string) Option {
	return func(db *DB) {
		var n atomic.Int64
		db.newID = func() string {
			return fmt.Sprintf("%s-%06d", prefix, n.Add(1))
		}
	}
}

func New(opts ...Option) *DB {
	db := &DB{
		t:     newTables(),
		clk:   clock.NewSystemClock(),
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(db)
	}
	return db
}

func (db *DB) Now() time.Time { return db.clk.Now().UTC() }

func (db *DB) NewID() string { return db.newID() }

// InjectFault installs f; nil removes it.
func (db *DB) InjectFault(f FaultFunc) {
	if f == nil {
		db.fault.Store(nil)
		return
	}
	db.fault.Store(&f)
}

func (db *DB) precheck(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return repoerr.Transient(op, err)
	}
	if f := db.fault.Load(); f != nil {
		if err := (*f)(op); err != nil {
			return repoerr.Transient(op, err)
		}
	}
	return nil
}

// View runs fn under a read lock. fn must not mutate t.
func (db *DB) View(ctx context.Context, op string, fn func(t *Tables) error) error {
	if err := db.precheck(ctx, op); err != nil {
		return err
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	return fn(&db.t)
}

// Update runs fn under the write lock. If fn returns an error every change it made is
// rolled back.
func (db *DB) Update(ctx context.Context, op string, fn func(t *Tables) error) error {
	if err := db.precheck(ctx, op); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	snapshot := db.t.clone()
	if err := fn(&db.t); err != nil {
		db.t = snapshot
		return err
	}
	return nil
}
