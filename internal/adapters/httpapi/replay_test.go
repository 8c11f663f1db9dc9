package httpapi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/fieldops-api/internal/adapters/memory/fixtures"
	"github.com/fieldops/fieldops-api/internal/domain"
)

func (e testEnv) doWithKey(t *testing.T, method, path string, subject domain.UserID, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-Debug-Subject", string(subject))
	req.Header.Set(IdempotencyKeyHeader, key)
	rr := httptest.NewRecorder()
	e.h.ServeHTTP(rr, req)
	return rr
}

func countClients(t *testing.T, env testEnv) int {
	t.Helper()
	rr := env.do(t, http.MethodGet, teamPath("/clients"), fixtures.OwnerID, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return len(decode[struct {
		Clients []ClientRowDTO `json:"clients"`
	}](t, rr).Clients)
}

func TestReplay_RetryReturnsOriginalResponse(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	body := `{"name":"Bay Bakery"}`

	first := env.doWithKey(t, http.MethodPost, teamPath("/clients"), fixtures.AdminID, "retry-1", body)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := env.doWithKey(t, http.MethodPost, teamPath("/clients"), fixtures.AdminID, "retry-1", body)
	require.Equal(t, http.StatusCreated, second.Code, second.Body.String())

	assert.Equal(t, "true", second.Header().Get(ReplayedHeader))
	assert.Empty(t, first.Header().Get(ReplayedHeader))
	assert.Equal(t, decode[ClientDTO](t, first).ID, decode[ClientDTO](t, second).ID)
	assert.Equal(t, 4, countClients(t, env))
}

func TestReplay_KeyReuseWithDifferentBody(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rr := env.doWithKey(t, http.MethodPost, teamPath("/clients"), fixtures.AdminID, "reuse", `{"name":"Bay Bakery"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = env.doWithKey(t, http.MethodPost, teamPath("/clients"), fixtures.AdminID, "reuse", `{"name":"Corner Deli"}`)
	wantError(t, rr, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE")
	assert.Equal(t, 4, countClients(t, env))
}

func TestReplay_KeyIsPerCaller(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	body := `{"name":"Bay Bakery"}`

	require.Equal(t, http.StatusCreated, env.doWithKey(t, http.MethodPost, teamPath("/clients"), fixtures.AdminID, "shared", body).Code)
	require.Equal(t, http.StatusCreated, env.doWithKey(t, http.MethodPost, teamPath("/clients"), fixtures.OwnerID, "shared", body).Code)
	assert.Equal(t, 5, countClients(t, env))
}

func TestReplay_FailuresAreNotStored(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rr := env.doWithKey(t, http.MethodPost, teamPath("/clients"), fixtures.AdminID, "blank", `{"name":"  "}`)
	wantError(t, rr, http.StatusUnprocessableEntity, "VALIDATION_ERROR")

	rr = env.doWithKey(t, http.MethodPost, teamPath("/clients"), fixtures.AdminID, "blank", `{"name":"Bay Bakery"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func TestReplay_StoreUnavailable(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.backend.Mock.DB.InjectFault(func(op string) error {
		if op == "idempotency.get" {
			return errors.New("replay store down")
		}
		return nil
	})

	rr := env.doWithKey(t, http.MethodPost, teamPath("/clients"), fixtures.AdminID, "k", `{"name":"Bay Bakery"}`)
	wantError(t, rr, http.StatusServiceUnavailable, "BACKEND_UNAVAILABLE")

	rr = env.do(t, http.MethodPost, teamPath("/clients"), fixtures.AdminID, `{"name":"Bay Bakery"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}
