package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fieldops/fieldops-api/internal/ports/out/clientrepo"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics code=%d", rec.Code)
	}
	return rec.Body.String()
}

func TestMetrics_CountsAndExposes(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveRequest("/teams/{teamId}/clients", http.MethodGet, 200, 15*time.Millisecond)
	m.ObserveRequest("/teams/{teamId}/clients", http.MethodGet, 200, 5*time.Millisecond)
	m.RepoError("clients.get", clientrepo.ErrForbidden)
	m.RepoError("clients.get", errors.New("boom"))
	m.RepoError("clients.get", nil)

	body := scrape(t, m)
	for _, want := range []string{
		`fieldops_http_requests_total{method="GET",route="/teams/{teamId}/clients",status="200"} 2`,
		`fieldops_http_request_duration_seconds_count{method="GET",route="/teams/{teamId}/clients"} 2`,
		`fieldops_repository_errors_total{kind="forbidden",op="clients.get"} 1`,
		`fieldops_repository_errors_total{kind="other",op="clients.get"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("/metrics missing %q", want)
		}
	}
	if strings.Contains(body, `kind="transient"`) {
		t.Fatalf("/metrics has unexpected transient series")
	}
}
