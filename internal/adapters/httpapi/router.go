package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fieldops/fieldops-api/internal/platform/metrics"
	"github.com/fieldops/fieldops-api/internal/ports/out/idempotency"
)

type RouterOptions struct {
	// AuthMiddleware authenticates every non-public route. Nil leaves routes open, which
	// only makes sense in tests that inject an account themselves.
	AuthMiddleware func(http.Handler) http.Handler
	// Replays enables Idempotency-Key handling on create endpoints.
	Replays idempotency.Store
}

// NewRouter constructs the API HTTP router without authentication.
func NewRouter(api *Server) http.Handler {
	return NewRouterWithOptions(api, RouterOptions{})
}

func NewRouterWithOptions(api *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if api.metrics != nil {
		r.Use(instrument(api.metrics))
	}
	if opts.AuthMiddleware != nil {
		r.Use(opts.AuthMiddleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if api.metrics != nil {
		r.Method(http.MethodGet, "/metrics", api.metrics.Handler())
	}

	create := func(h http.HandlerFunc) http.Handler {
		if opts.Replays == nil {
			return h
		}
		return api.replayable(opts.Replays)(h)
	}

	r.Get("/teams", api.listTeams)
	r.Method(http.MethodPost, "/teams", create(api.createTeam))
	r.Route("/teams/{teamId}", func(r chi.Router) {
		r.Use(api.teamScope)

		r.Get("/clients", api.listClients)
		r.Method(http.MethodPost, "/clients", create(api.createClient))
		r.Get("/clients/{clientId}", api.getClient)
		r.Patch("/clients/{clientId}", api.updateClient)
		r.Delete("/clients/{clientId}", api.deleteClient)
		r.Get("/clients/{clientId}/incidents", api.listClientIncidents)

		r.Get("/incidents", api.listIncidents)
		r.Method(http.MethodPost, "/incidents", create(api.createIncident))
		r.Get("/incidents/{incidentId}", api.getIncident)
		r.Patch("/incidents/{incidentId}", api.updateIncident)
		r.Delete("/incidents/{incidentId}", api.deleteIncident)

		r.Get("/members", api.listMembers)
		r.Method(http.MethodPost, "/invites", create(api.createInvite))
	})
	r.Get("/invites/{code}", api.getInvite)
	r.Method(http.MethodPost, "/invites/{code}/join", create(api.joinInvite))
	return r
}

// instrument records one observation per request under the matched route pattern.
func instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveRequest(route, r.Method, status, time.Since(start))
		})
	}
}
