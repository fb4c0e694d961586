/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, logged by the zap middleware
  2. Logger:     zap request logging (Warn on 4xx, Error on 5xx)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. Metrics:    Prometheus request duration by route pattern (optional)
  5. CORS:       Cross-origin requests for the payroll frontend
  6. Actor:      Caller identity from a Bearer token, or X-Actor-* headers

ROUTE GROUPS:
  /api/companies/{companyID}/config/*    Pay-period and overtime config
  /api/companies/{companyID}/periods/*   Period generation and reports
  /api/companies/{companyID}/sessions/*  Work sessions
  /api/companies/{companyID}/employees   Employee directory
  /healthz                               Liveness and database ping
  /metrics                               Prometheus scrape endpoint

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/payroll-engine/observability"
)

// RouterOptions configures the ambient parts of the router.
type RouterOptions struct {
	AllowedOrigins []string

	// Metrics, when set, instruments every route and serves /metrics.
	Metrics *observability.Metrics

	// Ping reports database health on /healthz.
	Ping func(ctx context.Context) error

	// JWTSecret, when set, authenticates callers by Bearer token instead of
	// trusting the actor headers.
	JWTSecret []byte
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(observability.ZapLoggerMiddleware(h.Logger))
	r.Use(middleware.Recoverer)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", HeaderActorID, HeaderActorRole},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if opts.Ping != nil {
			if err := opts.Ping(r.Context()); err != nil {
				writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	actor := ActorMiddleware
	if len(opts.JWTSecret) > 0 {
		actor = JWTActorMiddleware(opts.JWTSecret, h.Logger)
	}

	// API routes
	r.Route("/api/companies/{companyID}", func(r chi.Router) {
		r.Use(actor)

		r.Route("/config", func(r chi.Router) {
			r.Get("/", h.GetConfig)
			r.Put("/", h.SaveConfig)
			r.Post("/default", h.EnsureDefaultConfig)
		})

		r.Route("/periods", func(r chi.Router) {
			r.Get("/", h.ListPeriods)
			r.Post("/generate", h.GeneratePeriods)
			r.Get("/{periodID}/hours", h.GetHoursReport)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.ListSessions)
			r.Post("/", h.CreateSession)
			r.Post("/reclassify", h.ReclassifySessions)
			r.Put("/{sessionID}", h.UpdateSession)
			r.Delete("/{sessionID}", h.DeleteSession)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.UpsertEmployee)
		})
	})

	return r
}
