package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fieldops/fieldops-api/internal/adapters/memory/fixtures"
	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/ports/out/authrepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/repoerr"
)

type stubVerifier struct {
	tokens map[string]domain.Account
	err    error
}

func (v stubVerifier) Verify(_ context.Context, token string) (domain.Account, error) {
	if v.err != nil {
		return domain.Account{}, v.err
	}
	acct, ok := v.tokens[token]
	if !ok {
		return domain.Account{}, authrepo.ErrSessionNotFound
	}
	return acct, nil
}

type verifierFunc func(ctx context.Context, token string) (domain.Account, error)

func (f verifierFunc) Verify(ctx context.Context, token string) (domain.Account, error) {
	return f(ctx, token)
}

func probe() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acct, ok := AccountFromContext(r.Context())
		if !ok {
			writeError(w, r, http.StatusInternalServerError, "MISSING_SUBJECT", "subject missing from context", nil)
			return
		}
		_, _ = w.Write([]byte(acct.UserID))
	})
}

func TestSessionAuth(t *testing.T) {
	t.Parallel()

	v := stubVerifier{tokens: map[string]domain.Account{"good": {UserID: "u-1"}}}
	h := NewSessionAuthMiddleware(v)(probe())

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "Token good", http.StatusUnauthorized},
		{"empty bearer", "Bearer   ", http.StatusUnauthorized},
		{"unknown", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/teams", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != tc.status {
			t.Fatalf("%s: status=%d body=%s, want %d", tc.name, rr.Code, rr.Body.String(), tc.status)
		}
		if tc.status == http.StatusOK && rr.Body.String() != "u-1" {
			t.Fatalf("%s: subject=%q", tc.name, rr.Body.String())
		}
	}
}

func TestSessionAuth_PublicPaths(t *testing.T) {
	t.Parallel()

	h := NewSessionAuthMiddleware(stubVerifier{})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	for _, p := range []string{"/healthz", "/metrics"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, p, nil))
		if rr.Code != http.StatusTeapot {
			t.Fatalf("%s status=%d, want passthrough", p, rr.Code)
		}
	}
}

func TestSessionAuth_StoreUnavailable(t *testing.T) {
	t.Parallel()

	h := NewSessionAuthMiddleware(stubVerifier{err: repoerr.Transient("session.lookup", context.DeadlineExceeded)})(probe())
	req := httptest.NewRequest(http.MethodGet, "/teams", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusServiceUnavailable || rr.Header().Get("Retry-After") == "" {
		t.Fatalf("status=%d retry-after=%q, want 503 with Retry-After", rr.Code, rr.Header().Get("Retry-After"))
	}
}

func TestDevAuth(t *testing.T) {
	t.Parallel()

	h := NewDevAuthMiddleware("fallback")(probe())

	req := httptest.NewRequest(http.MethodGet, "/teams", nil)
	req.Header.Set("X-Debug-Subject", "explicit")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Body.String() != "explicit" {
		t.Fatalf("subject=%q, want explicit", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/teams", nil))
	if rr.Body.String() != "fallback" {
		t.Fatalf("subject=%q, want fallback", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	NewDevAuthMiddleware("")(probe()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/teams", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401 without subject", rr.Code)
	}
}

func TestSessionAuth_EndToEndWithMockAuth(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// The router is built before env exists, so resolve the verifier per request.
	var env testEnv
	env = newTestEnv(t, NewSessionAuthMiddleware(verifierFunc(func(ctx context.Context, token string) (domain.Account, error) {
		return env.backend.Auth.Verify(ctx, token)
	})))

	if _, err := env.backend.Auth.SignIn(ctx, fixtures.OwnerEmail, fixtures.Password); err != nil {
		t.Fatalf("SignIn() err=%v", err)
	}
	sess, ok := env.backend.Auth.CurrentSession()
	if !ok {
		t.Fatalf("CurrentSession() ok=false after SignIn")
	}

	req := httptest.NewRequest(http.MethodGet, teamPath("/members"), nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	rr := httptest.NewRecorder()
	env.h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	if err := env.backend.Auth.SignOut(ctx); err != nil {
		t.Fatalf("SignOut() err=%v", err)
	}
	rr = httptest.NewRecorder()
	env.h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d after sign-out, want 401", rr.Code)
	}
}
