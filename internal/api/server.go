// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/medora-health/medora/internal/iam/audit"
	"github.com/medora-health/medora/internal/iam/auth"
	"github.com/medora-health/medora/internal/iam/mfa"
	"github.com/medora-health/medora/internal/iam/session"
	"github.com/medora-health/medora/internal/platform/config"
	"github.com/medora-health/medora/internal/platform/constants"
	"github.com/medora-health/medora/internal/platform/middleware"
	"github.com/medora-health/medora/internal/platform/ratelimit"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here; no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler. Always 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler. 200 only when all deps are healthy.
	Readiness http.HandlerFunc

	// Auth handles login, logout, identity echo, and organization assumption.
	Auth *auth.Handler

	// MFA handles the second-factor enrollment lifecycle.
	MFA *mfa.Handler

	// Audit exposes the read-only audit trail.
	Audit *audit.Handler
}

// RateLimits groups the named policies applied to route classes.
type RateLimits struct {
	Limiter *ratelimit.Limiter

	// Auth guards credential-accepting endpoints (login).
	Auth ratelimit.Policy

	// API is the general ceiling for authenticated traffic.
	API ratelimit.Policy

	// Sensitive guards destructive or secret-revealing operations.
	Sensitive ratelimit.Policy
}

// PoliciesFromConfig builds the standard three policies from deployment
// configuration.
func PoliciesFromConfig(cfg *config.Config, limiter *ratelimit.Limiter) RateLimits {
	return RateLimits{
		Limiter:   limiter,
		Auth:      ratelimit.Policy{Name: "auth", Window: cfg.RateLimitAuthWindow, MaxRequests: cfg.RateLimitAuthMax},
		API:       ratelimit.Policy{Name: "api", Window: cfg.RateLimitAPIWindow, MaxRequests: cfg.RateLimitAPIMax},
		Sensitive: ratelimit.Policy{Name: "sensitive", Window: cfg.RateLimitSensitiveWin, MaxRequests: cfg.RateLimitSensitiveMax},
	}
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(
	cfg *config.Config,
	log *slog.Logger,
	verifier middleware.TokenVerifier,
	sessions session.Store,
	limits RateLimits,
	h Handlers,
) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution. Credential
	// materialization is NOT global: it runs per group, after that group's
	// rate limit, so a flood of bogus tokens or cookies is throttled before
	// it costs signature checks and session-store lookups.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	materialize := middleware.Materialize(verifier, sessions)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Application API
	// Domain-specific route groups mounted under a versioned prefix, each
	// behind its named rate-limit policy.
	r.Route("/api/v1", func(api chi.Router) {

		// Credential-accepting routes get the tightest per-client budget.
		api.Group(func(guarded chi.Router) {
			guarded.Use(middleware.RateLimit(limits.Limiter, limits.Auth))
			guarded.Use(materialize)
			guarded.Mount("/auth", h.Auth.Routes())
		})

		// Second-factor operations reveal or destroy secrets.
		api.Group(func(guarded chi.Router) {
			guarded.Use(middleware.RateLimit(limits.Limiter, limits.Sensitive))
			guarded.Use(materialize)
			guarded.Use(middleware.RequireAuth)
			guarded.Mount("/mfa", h.MFA.Routes())
		})

		// Read-only administrative surface under the general API ceiling.
		api.Group(func(guarded chi.Router) {
			guarded.Use(middleware.RateLimit(limits.Limiter, limits.API))
			guarded.Use(materialize)
			guarded.Use(middleware.RequireSuperOrOrgAdmin)
			guarded.Mount("/audit", h.Audit.Routes())
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
