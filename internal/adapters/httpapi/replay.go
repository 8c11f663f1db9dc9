package httpapi

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/fieldops/fieldops-api/internal/ports/out/idempotency"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	// ReplayedHeader is set on responses served from the replay store.
	ReplayedHeader = "Idempotent-Replayed"

	maxReplayBody = 1 << 20
)

// replayable makes a create endpoint safe to retry. A request with an Idempotency-Key
// that already succeeded gets the stored response; reusing the key with a different
// body is a 409. Requests without the header, and failed responses, pass through.
func (s *Server) replayable(store idempotency.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			acct, ok := AccountFromContext(r.Context())
			if key == "" || !ok {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxReplayBody+1))
			if err != nil {
				writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "could not read request body", nil)
				return
			}
			if len(body) > maxReplayBody {
				writeError(w, r, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "request body too large", nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			sum := sha256.Sum256(body)

			fp := idempotency.Fingerprint{
				Key:      idempotency.Key(key),
				Subject:  acct.UserID,
				Method:   r.Method,
				Path:     r.URL.Path,
				BodyHash: hex.EncodeToString(sum[:]),
			}
			ctx := r.Context()

			claim, claimed, err := store.Get(ctx, fp.Claim())
			if err != nil {
				s.writeErr(w, r, "replay_lookup", err)
				return
			}
			if claimed {
				if string(claim.Body) != fp.BodyHash {
					writeError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE", "idempotency key reuse with different payload", nil)
					return
				}
				rec, found, err := store.Get(ctx, fp)
				if err != nil {
					s.writeErr(w, r, "replay_lookup", err)
					return
				}
				if found {
					if rec.ContentType != "" {
						w.Header().Set("Content-Type", rec.ContentType)
					}
					w.Header().Set(ReplayedHeader, "true")
					w.WriteHeader(rec.StatusCode)
					_, _ = w.Write(rec.Body)
					return
				}
			}

			var captured bytes.Buffer
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&captured)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status < 200 || status >= 300 {
				return
			}
			now := time.Now().UTC()
			if err := store.Put(ctx, fp.Claim(), idempotency.Record{Body: []byte(fp.BodyHash), CreatedAt: now}); err != nil {
				s.log.Warn("store idempotency claim", zap.String("path", fp.Path), zap.Error(err))
				return
			}
			err = store.Put(ctx, fp, idempotency.Record{
				StatusCode:  status,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        captured.Bytes(),
				CreatedAt:   now,
			})
			if err != nil {
				s.log.Warn("store idempotent response", zap.String("path", fp.Path), zap.Error(err))
			}
		})
	}
}
