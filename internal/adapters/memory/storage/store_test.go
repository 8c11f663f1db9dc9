package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/fieldops/fieldops-api/internal/adapters/memory/memdb"
	storageport "github.com/fieldops/fieldops-api/internal/ports/out/storage"
)

func TestStore_UploadCopiesData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(memdb.New(), "fixtures")
	data := []byte("signature")
	loc, err := s.Upload(ctx, data, "teams/t1/sig.png")
	if err != nil {
		t.Fatalf("Upload() err=%v", err)
	}
	if loc != "mem://fixtures/teams/t1/sig.png" {
		t.Fatalf("Upload()=%q", loc)
	}
	data[0] = 'X'

	got, ok, err := s.Get(ctx, loc)
	if err != nil || !ok || !bytes.Equal(got, []byte("signature")) {
		t.Fatalf("Get()=(%q,%v,%v), want stored copy", got, ok, err)
	}
}

func TestStore_RejectsForeignLocations(t *testing.T) {
	t.Parallel()

	s := New(memdb.New(), "")
	for _, loc := range []storageport.Location{"s3://local/a", "mem://other/a"} {
		if err := s.Delete(context.Background(), loc); !errors.Is(err, storageport.ErrInvalidPath) {
			t.Fatalf("Delete(%q) err=%v, want ErrInvalidPath", loc, err)
		}
	}
}
