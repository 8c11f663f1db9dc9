package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Location is the opaque address of an uploaded object, e.g. "s3://bucket/key".
type Location string

// Store holds binary attachments (photos, signatures, documents).
type Store interface {
	// Upload writes data at p and returns its location. Uploading the same bytes to the
	// same path again yields the same location, so retries after a transient failure are safe.
	Upload(ctx context.Context, data []byte, p string) (Location, error)
	// Delete removes the object. Deleting an object that does not exist succeeds.
	Delete(ctx context.Context, loc Location) error
}

// CleanPath normalises an object path and rejects empty or escaping paths.
func CleanPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", ErrInvalidPath
	}
	clean := strings.TrimPrefix(path.Clean("/"+p), "/")
	if clean == "" || clean == "." || strings.Contains(p, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return clean, nil
}

// SplitLocation parses "scheme://bucket/key".
func SplitLocation(loc Location) (scheme, bucket, key string, err error) {
	s := string(loc)
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok || scheme == "" {
		return "", "", "", fmt.Errorf("%w: malformed location %q", ErrInvalidPath, s)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", "", fmt.Errorf("%w: malformed location %q", ErrInvalidPath, s)
	}
	return scheme, bucket, key, nil
}
