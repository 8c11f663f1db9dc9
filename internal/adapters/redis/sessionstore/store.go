// Package sessionstore keeps bearer sessions in Redis with a sliding TTL.
package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/ports/out/authrepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/repoerr"
)

const (
	DefaultTTL = 24 * time.Hour
	keyPrefix  = "fieldops:session:"
)

type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewClient builds a client from opts without connecting.
func NewClient(opts Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// Store implements authrepo.SessionStore.
type Store struct {
	c   *redis.Client
	ttl time.Duration
}

var _ authrepo.SessionStore = (*Store)(nil)

func New(c *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{c: c, ttl: ttl}
}

func (s *Store) Ping(ctx context.Context) error {
	return classify("sessions.ping", s.c.Ping(ctx).Err())
}

func (s *Store) Close() error { return s.c.Close() }

type record struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

func (s *Store) Create(ctx context.Context, acct domain.Account) (authrepo.Session, error) {
	token := uuid.NewString()
	b, err := json.Marshal(record{UserID: string(acct.UserID), Email: acct.Email, DisplayName: acct.DisplayName})
	if err != nil {
		return authrepo.Session{}, err
	}
	if err := s.c.Set(ctx, keyPrefix+token, b, s.ttl).Err(); err != nil {
		return authrepo.Session{}, classify("sessions.create", err)
	}
	return authrepo.Session{Token: token, Account: acct}, nil
}

// Lookup also extends the session's TTL.
func (s *Store) Lookup(ctx context.Context, token string) (domain.Account, error) {
	if token == "" {
		return domain.Account{}, authrepo.ErrSessionNotFound
	}
	val, err := s.c.GetEx(ctx, keyPrefix+token, s.ttl).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Account{}, authrepo.ErrSessionNotFound
		}
		return domain.Account{}, classify("sessions.lookup", err)
	}
	var rec record
	if err := json.Unmarshal(val, &rec); err != nil {
		return domain.Account{}, err
	}
	return domain.Account{UserID: domain.UserID(rec.UserID), Email: rec.Email, DisplayName: rec.DisplayName}, nil
}

func (s *Store) Revoke(ctx context.Context, token string) error {
	return classify("sessions.revoke", s.c.Del(ctx, keyPrefix+token).Err())
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var ne net.Error
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &ne) || errors.Is(err, redis.ErrClosed) {
		return repoerr.Transient(op, err)
	}
	return err
}
