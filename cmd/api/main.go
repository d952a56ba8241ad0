// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

// Command api is the entry point for the Medora identity and access API.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool); fall back to in-memory sessions if down.
//  4. Connect to Redis; fall back to in-process rate limiting if down.
//  5. Run database migrations (idempotent).
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medora-health/medora/internal/api"
	"github.com/medora-health/medora/internal/iam/audit"
	"github.com/medora-health/medora/internal/iam/auth"
	"github.com/medora-health/medora/internal/iam/mfa"
	"github.com/medora-health/medora/internal/iam/session"
	"github.com/medora-health/medora/internal/platform/config"
	"github.com/medora-health/medora/internal/platform/constants"
	"github.com/medora-health/medora/internal/platform/migration"
	pgstore "github.com/medora-health/medora/internal/platform/postgres"
	"github.com/medora-health/medora/internal/platform/ratelimit"
	redisstore "github.com/medora-health/medora/internal/platform/redis"
	"github.com/medora-health/medora/internal/platform/sec"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load(log)
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. A 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL + Session Store ─────────────────────────────────────
	// Sessions prefer the durable store. If Postgres is unreachable at boot
	// the service still comes up with in-process sessions: logins keep
	// working once the database returns, but sessions created meanwhile
	// die with the process and do not survive a restart.
	var sessions session.Store
	postgresHealthy := true

	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	if err != nil {
		postgresHealthy = false
		log.Error("postgres_unreachable_at_startup_sessions_degraded_to_memory",
			slog.Any("error", err),
		)

		// Lazy pool: repositories hold it and recover per-request when the
		// database comes back.
		pool, err = pgxpool.New(startupCtx, cfg.DatabaseURL)
		must(log, err, "parse database url")
		sessions = session.NewMemoryStore(cfg.SessionMaxAge)
	} else {
		sessions = session.NewPostgresStore(pool, cfg.SessionMaxAge)
	}
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis + Rate-Limit Store ───────────────────────────────────────
	// The limiter prefers Redis so budgets hold across replicas. Without it
	// each instance enforces its own budget, which is still a budget.
	var limitStore ratelimit.Store

	rdb, redisErr := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	if redisErr != nil {
		log.Error("redis_unreachable_at_startup_rate_limits_degraded_to_memory",
			slog.Any("error", redisErr),
		)
		memoryStore := ratelimit.NewMemoryStore()
		memoryStore.StartSweeper(context.Background())
		limitStore = memoryStore
	} else {
		defer func() {
			log.Info("closing redis client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}()
		limitStore = ratelimit.NewRedisStore(rdb)
	}

	limiter := ratelimit.NewLimiter(limitStore, log)

	// ── 5. Migrations ─────────────────────────────────────────────────────
	if postgresHealthy {
		must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")
	} else {
		log.Warn("migrations_skipped_postgres_unreachable")
	}

	// ── 6. Token Service ──────────────────────────────────────────────────
	tokens, err := sec.NewTokenService(cfg.TokenSecret, constants.AuthIssuer)
	must(log, err, "initialize token service")

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			if rdb == nil {
				return redisErr
			}
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	auditLogger := audit.NewLogger(audit.NewPostgresStore(pool), log)
	auditHandler := audit.NewHandler(audit.NewPostgresStore(pool))

	userRepository := auth.NewUserRepository(pool)
	authService := auth.NewService(userRepository, sessions, tokens, auditLogger)
	authHandler := auth.NewHandler(authService, !cfg.IsDevelopment(), cfg.SessionMaxAge)

	mfaService := mfa.NewService(mfa.NewPostgresStore(pool), limiter, auditLogger, constants.AuthIssuer)
	mfaHandler := mfa.NewHandler(mfaService)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		MFA:       mfaHandler,
		Audit:     auditHandler,
	}

	server := api.NewServer(cfg, log, tokens, sessions, api.PoliciesFromConfig(cfg, limiter), handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
