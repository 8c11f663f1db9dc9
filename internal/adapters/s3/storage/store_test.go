package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/fieldops/fieldops-api/internal/adapters/contracttest"
	"github.com/fieldops/fieldops-api/internal/ports/out/repoerr"
	storageport "github.com/fieldops/fieldops-api/internal/ports/out/storage"
)

// fakeS3 serves a path-style subset of the S3 API: PUT and DELETE on objects.
// Keys under "denied/" answer 403 AccessDenied and keys under "down/" answer 503.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	switch {
	case strings.HasPrefix(key, "denied/"):
		return xmlError(http.StatusForbidden, "AccessDenied"), nil
	case strings.HasPrefix(key, "down/"):
		return xmlError(http.StatusServiceUnavailable, "ServiceUnavailable"), nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	switch req.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		f.objects[key] = body
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{"ETag": {"\"etag\""}}}, nil
	case http.MethodDelete:
		delete(f.objects, key)
		return &http.Response{StatusCode: http.StatusNoContent, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
	}
	return &http.Response{StatusCode: http.StatusNotImplemented, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
}

func xmlError(status int, code string) *http.Response {
	body := "<?xml version=\"1.0\"?><Error><Code>" + code + "</Code><Message>" + code + "</Message></Error>"
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": {"application/xml"}},
	}
}

func newFakeStore(t *testing.T) (*Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}}
	s, err := New(context.Background(), Config{
		Bucket:          "field-bucket",
		Region:          "us-east-1",
		Endpoint:        "https://mock.s3.local",
		PathStyle:       true,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		HTTPClient:      &http.Client{Transport: fake},
		MaxAttempts:     1,
	})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	return s, fake
}

func TestContract_S3Store(t *testing.T) {
	contracttest.RunStore(t, func(t *testing.T) (storageport.Store, func()) {
		t.Helper()
		s, _ := newFakeStore(t)
		return s, nil
	})
}

func TestUpload_WritesObject(t *testing.T) {
	t.Parallel()

	s, fake := newFakeStore(t)
	loc, err := s.Upload(context.Background(), []byte("hello"), "teams/t1/note.txt")
	if err != nil {
		t.Fatalf("Upload() err=%v", err)
	}
	if loc != "s3://field-bucket/teams/t1/note.txt" {
		t.Fatalf("Upload()=%q", loc)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if _, ok := fake.objects["teams/t1/note.txt"]; !ok {
		t.Fatalf("object not stored; have %v", fake.objects)
	}
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	s, _ := newFakeStore(t)
	ctx := context.Background()

	_, err := s.Upload(ctx, []byte("x"), "denied/a.jpg")
	if !errors.Is(err, storageport.ErrForbidden) || repoerr.KindOf(err) != repoerr.KindForbidden {
		t.Fatalf("Upload(denied) err=%v, want forbidden", err)
	}
	_, err = s.Upload(ctx, []byte("x"), "down/a.jpg")
	if !repoerr.Retryable(err) {
		t.Fatalf("Upload(down) err=%v, want transient", err)
	}
	if err := s.Delete(ctx, "s3://other-bucket/a.jpg"); !errors.Is(err, storageport.ErrInvalidPath) {
		t.Fatalf("Delete(other bucket) err=%v, want ErrInvalidPath", err)
	}
}
