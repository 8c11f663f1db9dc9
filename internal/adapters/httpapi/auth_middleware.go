package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/ports/out/repoerr"
)

// TokenVerifier resolves a bearer session token to its account.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (domain.Account, error)
}

func isPublic(path string) bool {
	return path == "/healthz" || path == "/metrics"
}

// NewSessionAuthMiddleware enforces Authorization: Bearer <session token> for every
// non-public endpoint and stores the account in the request context.
func NewSessionAuthMiddleware(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authz := r.Header.Get("Authorization")
			if authz == "" {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing Authorization header", nil)
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(authz, prefix) {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "malformed Authorization header", nil)
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, prefix))
			if raw == "" {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token", nil)
				return
			}

			acct, err := v.Verify(r.Context(), raw)
			if err != nil {
				if repoerr.Retryable(err) {
					w.Header().Set("Retry-After", RetryAfterSeconds)
					writeError(w, r, http.StatusServiceUnavailable, "BACKEND_UNAVAILABLE", "session store unavailable", nil)
					return
				}
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired session", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), acct)))
		})
	}
}

// NewDevAuthMiddleware is a local/dev-only auth shim.
//
// It accepts an explicit user ID via X-Debug-Subject and falls back to defaultSubject.
// Do NOT use this in production deployments.
func NewDevAuthMiddleware(defaultSubject string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			sub := strings.TrimSpace(r.Header.Get("X-Debug-Subject"))
			if sub == "" {
				sub = strings.TrimSpace(defaultSubject)
			}
			if sub == "" {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject (set X-Debug-Subject)", nil)
				return
			}

			acct := domain.Account{
				UserID:      domain.UserID(sub),
				Email:       strings.TrimSpace(r.Header.Get("X-Debug-Email")),
				DisplayName: sub,
			}
			if name := strings.TrimSpace(r.Header.Get("X-Debug-Name")); name != "" {
				acct.DisplayName = name
			}
			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), acct)))
		})
	}
}
