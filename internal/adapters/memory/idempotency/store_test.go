package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fieldops/fieldops-api/internal/adapters/memory/clock"
	"github.com/fieldops/fieldops-api/internal/adapters/memory/memdb"
	"github.com/fieldops/fieldops-api/internal/ports/out/idempotency"
	"github.com/fieldops/fieldops-api/internal/ports/out/repoerr"
)

func fingerprint() idempotency.Fingerprint {
	return idempotency.Fingerprint{
		Key:      "k1",
		Subject:  "user-1",
		Method:   "POST",
		Path:     "/teams/t1/clients",
		BodyHash: "abc123",
	}
}

func TestStore_PutStampsCreatedAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(memdb.New(memdb.WithClock(clock.NewManualClock(now))))
	body := []byte(`{"id":"c1"}`)
	if err := s.Put(context.Background(), fingerprint(), idempotency.Record{StatusCode: 201, ContentType: "application/json", Body: body}); err != nil {
		t.Fatalf("Put() err=%v", err)
	}
	body[2] = 'X'

	got, ok, err := s.Get(context.Background(), fingerprint())
	if err != nil || !ok {
		t.Fatalf("Get() ok=%v err=%v, want hit", ok, err)
	}
	if got.StatusCode != 201 || string(got.Body) != `{"id":"c1"}` || !got.CreatedAt.Equal(now) {
		t.Fatalf("Get()=%+v", got)
	}
}

func TestStore_ClaimIsSeparateRecord(t *testing.T) {
	t.Parallel()

	s := NewStore(memdb.New())
	if err := s.Put(context.Background(), fingerprint(), idempotency.Record{StatusCode: 201}); err != nil {
		t.Fatalf("Put() err=%v", err)
	}
	if _, ok, _ := s.Get(context.Background(), fingerprint().Claim()); ok {
		t.Fatalf("Get(claim) ok=true, want false")
	}
}

func TestStore_FaultIsTransient(t *testing.T) {
	t.Parallel()

	db := memdb.New()
	db.InjectFault(func(op string) error {
		if op == "idempotency.get" {
			return errors.New("boom")
		}
		return nil
	})
	_, _, err := NewStore(db).Get(context.Background(), fingerprint())
	if !repoerr.Retryable(err) {
		t.Fatalf("Get() err=%v, want retryable", err)
	}
}
