package idempotency

import (
	"bytes"
	"context"

	"github.com/fieldops/fieldops-api/internal/adapters/memory/memdb"
	"github.com/fieldops/fieldops-api/internal/ports/out/idempotency"
)

// Store keeps replay records in the shared DB.
type Store struct {
	db *memdb.DB
}

var _ idempotency.Store = (*Store)(nil)

func NewStore(db *memdb.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	var (
		rec idempotency.Record
		ok  bool
	)
	err := s.db.View(ctx, "idempotency.get", func(t *memdb.Tables) error {
		rec, ok = t.Replays[fp]
		rec.Body = bytes.Clone(rec.Body)
		return nil
	})
	if err != nil {
		return idempotency.Record{}, false, err
	}
	return rec, ok, nil
}

// Put overwrites any record stored under fp.
func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	return s.db.Update(ctx, "idempotency.put", func(t *memdb.Tables) error {
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = s.db.Now()
		}
		rec.Body = bytes.Clone(rec.Body)
		t.Replays[fp] = rec
		return nil
	})
}
