package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/fieldops/fieldops-api/internal/adapters/memory/memdb"
	"github.com/fieldops/fieldops-api/internal/ports/out/storage"
)

// Scheme prefixes locations returned by Store.
const Scheme = "mem"

// Store keeps objects in the shared DB.
type Store struct {
	db     *memdb.DB
	bucket string
}

var _ storage.Store = (*Store)(nil)

func New(db *memdb.DB, bucket string) *Store {
	if bucket == "" {
		bucket = "local"
	}
	return &Store{db: db, bucket: bucket}
}

func (s *Store) Upload(ctx context.Context, data []byte, p string) (storage.Location, error) {
	key, err := storage.CleanPath(p)
	if err != nil {
		return "", err
	}
	err = s.db.Update(ctx, "storage.upload", func(t *memdb.Tables) error {
		t.Objects[key] = bytes.Clone(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return s.location(key), nil
}

func (s *Store) Delete(ctx context.Context, loc storage.Location) error {
	key, err := s.key(loc)
	if err != nil {
		return err
	}
	return s.db.Update(ctx, "storage.delete", func(t *memdb.Tables) error {
		delete(t.Objects, key)
		return nil
	})
}

// Get returns a copy of the object at loc.
func (s *Store) Get(ctx context.Context, loc storage.Location) ([]byte, bool, error) {
	key, err := s.key(loc)
	if err != nil {
		return nil, false, err
	}
	var (
		out []byte
		ok  bool
	)
	err = s.db.View(ctx, "storage.get", func(t *memdb.Tables) error {
		var data []byte
		data, ok = t.Objects[key]
		out = bytes.Clone(data)
		return nil
	})
	return out, ok, err
}

func (s *Store) location(key string) storage.Location {
	return storage.Location(fmt.Sprintf("%s://%s/%s", Scheme, s.bucket, key))
}

func (s *Store) key(loc storage.Location) (string, error) {
	scheme, bucket, key, err := storage.SplitLocation(loc)
	if err != nil {
		return "", err
	}
	if scheme != Scheme || bucket != s.bucket {
		return "", fmt.Errorf("%w: location %q is not in this store", storage.ErrInvalidPath, loc)
	}
	return key, nil
}
