// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package api_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medora-health/medora/internal/api"
	"github.com/medora-health/medora/internal/iam/audit"
	"github.com/medora-health/medora/internal/iam/auth"
	"github.com/medora-health/medora/internal/iam/mfa"
	"github.com/medora-health/medora/internal/iam/session"
	"github.com/medora-health/medora/internal/platform/apperr"
	"github.com/medora-health/medora/internal/platform/config"
	"github.com/medora-health/medora/internal/platform/constants"
	"github.com/medora-health/medora/internal/platform/ratelimit"
	"github.com/medora-health/medora/internal/platform/sec"
	"github.com/medora-health/medora/pkg/pagination"
)

// Empty stubs: the chain tests below never reach a live repository.

type stubUserRepository struct{}

func (stubUserRepository) Create(context.Context, *auth.User) error { return nil }
func (stubUserRepository) FindByUsername(context.Context, string) (*auth.User, error) {
	return nil, apperr.NotFound("User")
}
func (stubUserRepository) FindByID(context.Context, string) (*auth.User, error) {
	return nil, apperr.NotFound("User")
}

type stubAuditStore struct{}

func (stubAuditStore) Insert(context.Context, *audit.Entry) error { return nil }
func (stubAuditStore) List(context.Context, audit.Filter, pagination.Params) ([]audit.Entry, int, error) {
	return nil, 0, nil
}

type stubMFAStore struct{}

func (stubMFAStore) GetEnrollment(context.Context, string) (*mfa.Enrollment, error) {
	return nil, nil
}
func (stubMFAStore) SavePending(context.Context, string, string, []string) error { return nil }
func (stubMFAStore) Enable(context.Context, string) error                        { return nil }
func (stubMFAStore) Disable(context.Context, string) error                       { return nil }
func (stubMFAStore) ConsumeBackupCode(context.Context, string, string) (bool, error) {
	return false, nil
}
func (stubMFAStore) ReplaceBackupCodes(context.Context, string, []string) error { return nil }
func (stubMFAStore) CountBackupCodes(context.Context, string) (int, error)      { return 0, nil }

func newTestRouter(t *testing.T, authPolicy ratelimit.Policy) http.Handler {
	t.Helper()

	log := slog.New(slog.NewJSONHandler(bytes.NewBuffer(nil), nil))

	tokens, err := sec.NewTokenService("0123456789abcdef0123456789abcdef", constants.AuthIssuer)
	require.NoError(t, err)

	sessions := session.NewMemoryStore(time.Hour)
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), log)
	auditLogger := audit.NewLogger(stubAuditStore{}, log)

	authService := auth.NewService(stubUserRepository{}, sessions, tokens, auditLogger)
	mfaService := mfa.NewService(stubMFAStore{}, limiter, auditLogger, constants.AuthIssuer)

	server := api.NewServer(
		&config.Config{ServerPort: "8080", Environment: "development"},
		log,
		tokens,
		sessions,
		api.RateLimits{
			Limiter:   limiter,
			Auth:      authPolicy,
			API:       ratelimit.Policy{Name: "api", Window: time.Minute, MaxRequests: 100},
			Sensitive: ratelimit.Policy{Name: "sensitive", Window: time.Minute, MaxRequests: 100},
		},
		api.Handlers{
			Liveness:  func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) },
			Readiness: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) },
			Auth:      auth.NewHandler(authService, false, time.Hour),
			MFA:       mfa.NewHandler(mfaService),
			Audit:     audit.NewHandler(stubAuditStore{}),
		},
	)

	return api.RouterForTest(server)
}

func requestWithBogusCookie(router http.Handler, ip string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	request.Header.Set("X-Real-IP", ip)
	request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "bogus"})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

// The limiter must see and count a request before the credential carriers
// are inspected, so invalid-cookie floods hit the budget, not the session
// store.
func TestInvalidCarrierTrafficIsRateLimited(t *testing.T) {
	router := newTestRouter(t, ratelimit.Policy{Name: "auth", Window: time.Minute, MaxRequests: 3})

	for attempt := 1; attempt <= 3; attempt++ {
		recorder := requestWithBogusCookie(router, "203.0.113.7")

		assert.Equal(t, http.StatusUnauthorized, recorder.Code, "attempt %d", attempt)
		assert.Equal(t, "3", recorder.Header().Get("X-RateLimit-Limit"), "attempt %d", attempt)
		assert.Equal(t, strconv.Itoa(3-attempt), recorder.Header().Get("X-RateLimit-Remaining"), "attempt %d", attempt)
	}

	// Budget exhausted: the refusal now wins over the 401.
	refused := requestWithBogusCookie(router, "203.0.113.7")
	assert.Equal(t, http.StatusTooManyRequests, refused.Code)
	assert.NotEmpty(t, refused.Header().Get("Retry-After"))

	// A different client is unaffected.
	other := requestWithBogusCookie(router, "198.51.100.9")
	assert.Equal(t, http.StatusUnauthorized, other.Code)
}

func TestInvalidBearerTrafficIsRateLimited(t *testing.T) {
	router := newTestRouter(t, ratelimit.Policy{Name: "auth", Window: time.Minute, MaxRequests: 2})

	send := func() *httptest.ResponseRecorder {
		request := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		request.Header.Set("X-Real-IP", "203.0.113.8")
		request.Header.Set("Authorization", "Bearer forged")

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		return recorder
	}

	assert.Equal(t, http.StatusUnauthorized, send().Code)
	assert.Equal(t, http.StatusUnauthorized, send().Code)
	assert.Equal(t, http.StatusTooManyRequests, send().Code)
}

func TestHealthProbesBypassRateLimiting(t *testing.T) {
	router := newTestRouter(t, ratelimit.Policy{Name: "auth", Window: time.Minute, MaxRequests: 1})

	for i := 0; i < 5; i++ {
		request := httptest.NewRequest(http.MethodGet, "/health", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Empty(t, recorder.Header().Get("X-RateLimit-Limit"))
	}
}
