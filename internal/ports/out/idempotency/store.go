// Package idempotency stores responses of create requests so a retry carrying the same
// Idempotency-Key gets the original response back instead of a second record.
package idempotency

import (
	"context"
	"time"

	"github.com/fieldops/fieldops-api/internal/domain"
)

// Key is the caller-provided Idempotency-Key header value.
type Key string

// Fingerprint scopes a key to one caller and one request target. The claim record of a
// key has an empty BodyHash and stores the hash of the body the key was first used with.
type Fingerprint struct {
	Key      Key
	Subject  domain.UserID
	Method   string
	Path     string
	BodyHash string
}

// Claim returns the body-independent fingerprint of fp.
func (fp Fingerprint) Claim() Fingerprint {
	fp.BodyHash = ""
	return fp
}

// Record is a stored response.
type Record struct {
	StatusCode  int
	ContentType string
	Body        []byte
	CreatedAt   time.Time
}

type Store interface {
	Get(ctx context.Context, fp Fingerprint) (Record, bool, error)
	Put(ctx context.Context, fp Fingerprint, rec Record) error
}
