package sessionstore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/ports/out/authrepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/repoerr"
)

func TestStore_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	s := New(NewClient(Options{Addr: addr}), time.Minute)
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping() err=%v", err)
	}

	acct := domain.Account{UserID: "u-1", Email: "a@example.com", DisplayName: "A"}
	sess, err := s.Create(ctx, acct)
	if err != nil {
		t.Fatalf("Create() err=%v", err)
	}
	got, err := s.Lookup(ctx, sess.Token)
	if err != nil || got != acct {
		t.Fatalf("Lookup()=(%+v, %v), want %+v", got, err, acct)
	}
	if err := s.Revoke(ctx, sess.Token); err != nil {
		t.Fatalf("Revoke() err=%v", err)
	}
	if _, err := s.Lookup(ctx, sess.Token); !errors.Is(err, authrepo.ErrSessionNotFound) {
		t.Fatalf("Lookup() after revoke err=%v, want ErrSessionNotFound", err)
	}
}

func TestStore_UnreachableIsTransient(t *testing.T) {
	t.Parallel()

	c := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	s := New(c, 0)
	t.Cleanup(func() { _ = s.Close() })

	_, err := s.Lookup(context.Background(), "tok")
	if !repoerr.Retryable(err) {
		t.Fatalf("Lookup() err=%v, want transient", err)
	}
}

func TestStore_EmptyTokenNotFound(t *testing.T) {
	t.Parallel()

	s := New(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), 0)
	t.Cleanup(func() { _ = s.Close() })
	if _, err := s.Lookup(context.Background(), ""); !errors.Is(err, authrepo.ErrSessionNotFound) {
		t.Fatalf("Lookup(\"\") err=%v, want ErrSessionNotFound", err)
	}
}
