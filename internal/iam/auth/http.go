// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package auth

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medora-health/medora/internal/platform/constants"
	"github.com/medora-health/medora/internal/platform/ctxutil"
	"github.com/medora-health/medora/internal/platform/middleware"
	requestutil "github.com/medora-health/medora/internal/platform/request"
	"github.com/medora-health/medora/internal/platform/respond"
	"github.com/medora-health/medora/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the authentication HTTP endpoints.
//
// # Scope
//
// Transport concerns only: decoding, validation, cookie handling, status
// codes. All decisions live in [Service].
type Handler struct {
	authService   *Service
	cookieSecure  bool
	sessionMaxAge time.Duration
}

// NewHandler constructs the auth [Handler].
//
// cookieSecure should be true everywhere except local development over
// plain HTTP, where browsers drop Secure cookies.
func NewHandler(service *Service, cookieSecure bool, sessionMaxAge time.Duration) *Handler {
	return &Handler{
		authService:   service,
		cookieSecure:  cookieSecure,
		sessionMaxAge: sessionMaxAge,
	}
}

// Routes returns a [chi.Router] with the authentication endpoints.
//
// # Endpoints
//   - POST /login               : Authenticates and mints both carriers.
//   - POST /logout              : Destroys the session, clears the cookie.
//   - GET  /me                  : Returns the materialized principal.
//   - POST /assume-organization : Switches the session's effective tenant.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoint
	router.Post("/login", handler.login)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout", handler.logout)
		r.Get("/me", handler.me)

		// Route gate mirrors the service-level permission check. The
		// service still decides which organizations an admin may assume.
		r.With(middleware.RequireSuperOrOrgAdmin).Post("/assume-organization", handler.assumeOrganization)
	})

	return router
}

// # Request Payloads

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type assumeOrganizationRequest struct {
	OrganizationID string `json:"organization_id"`
}

/*
Login authenticates a user and establishes both credential carriers.

POST /api/v1/auth/login

Description: Verifies credentials, issues a bearer token for API clients,
and injects the session cookie for browser clients.

Request:
  - Body: loginRequest (Username, Password)

Response:
  - 200: Token, expiry, and user profile
  - 401: INVALID_CREDENTIALS: Generic rejection, never says which part failed
  - 429: RATE_LIMITED: Too many attempts from this client
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.authService.Authenticate(request.Context(), LoginInput{
		Username:  input.Username,
		Password:  input.Password,
		IPAddress: clientIP(request),
		UserAgent: request.UserAgent(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookie(writer, result.SessionID, time.Now().Add(handler.sessionMaxAge))

	respond.OK(writer, map[string]any{
		FieldToken: result.Token,
		"expires_at": result.TokenExpiresAt,
		FieldUser:  result.User,
	})
}

/*
Logout terminates the current session.

POST /api/v1/auth/logout

Description: Destroys the server-side session if the request carried one
and clears the cookie either way. Token-authenticated callers get the
cookie cleared as a no-op; their token stays valid until expiry.

Response:
  - 204: No Content: Session terminated
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if sessionID := ctxutil.GetSessionID(request.Context()); sessionID != "" {
		if err := handler.authService.Logout(request.Context(), principal, sessionID, metaFrom(request)); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	handler.clearSessionCookie(writer)
	respond.NoContent(writer)
}

/*
Me returns the identity the request resolved to.

GET /api/v1/auth/me

Response:
  - 200: Principal snapshot plus the carrier that produced it
  - 401: UNAUTHENTICATED: No valid credential presented
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"principal": principal,
		"carrier":   ctxutil.GetCarrier(request.Context()),
	})
}

/*
AssumeOrganization switches the session's effective tenant.

POST /api/v1/auth/assume-organization

Request:
  - Body: assumeOrganizationRequest (OrganizationID)

Response:
  - 200: Updated principal snapshot
  - 403: FORBIDDEN: Token carrier, or role not permitted to assume
*/
func (handler *Handler) assumeOrganization(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input assumeOrganizationRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldOrganizationID, input.OrganizationID)
	validator.UUID(FieldOrganizationID, input.OrganizationID)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.authService.AssumeOrganization(
		request.Context(),
		principal,
		ctxutil.GetSessionID(request.Context()),
		input.OrganizationID,
		metaFrom(request),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"principal": updated})
}

// # Helpers

// setSessionCookie installs the session carrier on the client.
func (handler *Handler) setSessionCookie(writer http.ResponseWriter, sessionID string, expiresAt time.Time) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Expires:  expiresAt,
		Secure:   handler.cookieSecure,
		HttpOnly: true,
		SameSite: handler.sameSiteMode(),
	})
}

// sameSiteMode is Strict in production. Development runs the frontend on a
// different origin over plain HTTP, where Strict would eat the cookie on
// every cross-site navigation.
func (handler *Handler) sameSiteMode() http.SameSite {
	if handler.cookieSecure {
		return http.SameSiteStrictMode
	}
	return http.SameSiteLaxMode
}

// clearSessionCookie expires the session cookie immediately.
func (handler *Handler) clearSessionCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   handler.cookieSecure,
		HttpOnly: true,
		SameSite: handler.sameSiteMode(),
	})
}

// metaFrom captures the audit context of the call.
func metaFrom(request *http.Request) RequestMeta {
	return RequestMeta{
		IPAddress: clientIP(request),
		UserAgent: request.UserAgent(),
	}
}

// clientIP resolves the originating address, preferring proxy headers.
func clientIP(request *http.Request) string {
	if realIP := request.Header.Get(constants.HeaderXRealIP); realIP != "" {
		return realIP
	}
	if forwarded := request.Header.Get(constants.HeaderXForwardedFor); forwarded != "" {
		if first, _, ok := strings.Cut(forwarded, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwarded)
	}
	if host, _, err := net.SplitHostPort(request.RemoteAddr); err == nil {
		return host
	}
	return request.RemoteAddr
}
