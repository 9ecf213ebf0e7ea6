// Package web serves the browser surface of the airline administration
// tool: server-rendered listing, search and form pages for the users and
// tickets tables behind a cookie session login, plus the read-only JSON
// listing API, the health probe and the metrics endpoint.
package web

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"airline-admin/internal/logging"
	"airline-admin/internal/middleware"
	"airline-admin/internal/naming"
	"airline-admin/internal/observability"
	"airline-admin/internal/store"
)

// Config wires the web surface together. Stores, Sessions, Namer and
// Logger are required; everything else degrades to disabled when unset.
type Config struct {
	Stores   *store.Stores
	Sessions *middleware.Sessions
	Namer    *naming.Namer
	Logger   *logging.Logger

	// MaxJump is how far the listing quick jump links move.
	MaxJump int

	RateLimit middleware.RateLimitConfig
	CORS      middleware.CORSConfig

	// APIEnabled mounts the JSON listing API under /api/v1. APIAuthToken
	// guards it with a bearer token; empty falls back to the browser
	// session.
	APIEnabled   bool
	APIAuthToken string

	// RequestMetrics and SessionMetrics may be nil when metrics are
	// disabled. MetricsHandler serves /metrics when set.
	RequestMetrics *observability.RequestMetrics
	SessionMetrics *observability.SessionMetrics
	MetricsHandler http.Handler

	// HealthCheck pings the backing database for /healthz.
	HealthCheck   func(ctx context.Context) error
	HealthTimeout time.Duration
}

// Server owns the handlers and parsed templates behind the router.
type Server struct {
	stores   *store.Stores
	sessions *middleware.Sessions
	namer    *naming.Namer
	logger   *logging.Logger

	templates map[string]*template.Template
	maxJump   int

	rateLimit func(http.Handler) http.Handler
	cors      middleware.CORSConfig

	apiEnabled   bool
	apiAuthToken string

	requestMetrics *observability.RequestMetrics
	sessionMetrics *observability.SessionMetrics
	metricsHandler http.Handler

	healthCheck   func(ctx context.Context) error
	healthTimeout time.Duration
}

// New builds the web server and parses its page templates.
func New(cfg Config) (*Server, error) {
	namer := cfg.Namer
	if namer == nil {
		namer = naming.Default()
	}

	templates, err := parseTemplates(namer)
	if err != nil {
		return nil, err
	}

	healthTimeout := cfg.HealthTimeout
	if healthTimeout <= 0 {
		healthTimeout = 2 * time.Second
	}

	return &Server{
		stores:         cfg.Stores,
		sessions:       cfg.Sessions,
		namer:          namer,
		logger:         cfg.Logger,
		templates:      templates,
		maxJump:        cfg.MaxJump,
		rateLimit:      middleware.RateLimitMiddleware(cfg.RateLimit),
		cors:           cfg.CORS,
		apiEnabled:     cfg.APIEnabled,
		apiAuthToken:   cfg.APIAuthToken,
		requestMetrics: cfg.RequestMetrics,
		sessionMetrics: cfg.SessionMetrics,
		metricsHandler: cfg.MetricsHandler,
		healthCheck:    cfg.HealthCheck,
		healthTimeout:  healthTimeout,
	}, nil
}

// Router assembles the full route tree. Every request gets the request id
// logger and the session identity; the login and admin gates sit on the
// individual mutating routes, and the login page and the API share one
// rate limit bucket.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.LoggingMiddleware(s.logger))
	if s.requestMetrics != nil {
		r.Use(middleware.RequestMetricsMiddleware(s.requestMetrics))
	}
	r.Use(s.sessions.WithIdentityMiddleware())

	r.Get("/healthz", s.handleHealth)
	if s.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.metricsHandler)
	}

	r.With(s.sessions.RequireLogin).Get("/", s.handleIndex)

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Get("/login", s.handleLoginForm)
		r.Post("/login", s.handleLogin)
	})
	r.Get("/logout", s.handleLogout)

	r.Route("/users", func(r chi.Router) {
		r.Get("/", s.handleUsersList)
		r.Get("/search", s.handleUsersSearchForm)
		r.Post("/search", s.handleUsersSearch)
		r.With(s.sessions.RequireAdmin(msgOnlyAdminsUpdateUsers)).Get("/edit/{userid}", s.handleUserEdit)
		r.With(s.sessions.RequireAdmin(msgOnlyAdminsUpdateUsers)).Post("/update", s.handleUserUpdate)
		r.With(s.sessions.RequireAdmin(msgOnlyAdminsAddUsers)).Get("/add", s.handleUserAddForm)
		r.With(s.sessions.RequireAdmin(msgOnlyAdminsAddUsers)).Post("/add", s.handleUserAdd)
		r.With(s.sessions.RequireLogin).Post("/delete/{userid}", s.handleUserDelete)
		r.Get("/{userid}", s.handleUserSingle)
	})
	r.Get("/consolidated/users", s.handleUsersConsolidated)
	r.Get("/user_stats", s.handleUserStats)

	r.Route("/tickets", func(r chi.Router) {
		r.Get("/", s.handleTicketsList)
		r.Get("/search", s.handleTicketsSearchForm)
		r.Post("/search", s.handleTicketsSearch)
		r.With(s.sessions.RequireAdmin(msgOnlyAdminsUpdateTickets)).Get("/edit/{ticketid}", s.handleTicketEdit)
		r.With(s.sessions.RequireAdmin(msgOnlyAdminsUpdateTickets)).Post("/update", s.handleTicketUpdate)
		r.With(s.sessions.RequireAdmin(msgOnlyAdminsAddTickets)).Get("/add", s.handleTicketAddForm)
		r.With(s.sessions.RequireAdmin(msgOnlyAdminsAddTickets)).Post("/add", s.handleTicketAdd)
		r.With(s.sessions.RequireLogin).Post("/delete/{ticketid}", s.handleTicketDelete)
		r.Get("/{ticketid}", s.handleTicketSingle)
	})
	r.Get("/consolidated/tickets", s.handleTicketsConsolidated)
	r.Get("/ticket_stats", s.handleTicketStats)

	if s.apiEnabled {
		r.Route("/api/v1", func(r chi.Router) {
			r.Use(s.rateLimit)
			r.Use(middleware.CORSMiddleware(s.cors))
			r.Use(middleware.APIAuthMiddleware(middleware.APIAuthConfig{
				Token:    s.apiAuthToken,
				Sessions: s.sessions,
				Metrics:  s.sessionMetrics,
			}))
			r.Get("/{table}", s.handleAPIListing)
		})
	}

	return r
}
