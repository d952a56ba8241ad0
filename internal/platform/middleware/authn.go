// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/medora-health/medora/internal/iam/session"
	"github.com/medora-health/medora/internal/platform/apperr"
	"github.com/medora-health/medora/internal/platform/constants"
	"github.com/medora-health/medora/internal/platform/ctxutil"
	"github.com/medora-health/medora/internal/platform/respond"
	"github.com/medora-health/medora/internal/platform/sec"
)

// TokenVerifier defines the contract needed to verify bearer tokens.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from the concrete
// token service, allowing mocks to be injected during unit testing.
type TokenVerifier interface {
	VerifyToken(tokenString string) (*sec.Principal, error)
}

// Materialize resolves the request's identity from exactly one credential
// carrier and injects the resulting [sec.Principal] into the context.
//
// # Flow
//  1. Inspect 'Authorization: Bearer <token>' and the session cookie.
//  2. Both present: reject. A request must choose one carrier.
//  3. Token present: verify signature and expiry, materialize Principal.
//  4. Cookie present: load the session, slide its expiry window, materialize
//     the stored snapshot and remember the session id for logout/assume.
//  5. Neither: the request proceeds anonymous; RequireAuth gates from there.
func Materialize(verifier TokenVerifier, sessions session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			authHeader := request.Header.Get(constants.HeaderAuthorization)
			cookie, cookieErr := request.Cookie(constants.SessionCookieName)
			hasCookie := cookieErr == nil && cookie.Value != ""

			// ── 1. Exclusive Carrier Rule ─────────────────────────────────────
			if authHeader != "" && hasCookie {
				respond.Error(writer, request, apperr.Unauthenticated("Provide a bearer token or a session cookie, not both"))
				return
			}

			// ── 2. Bearer Token Carrier ───────────────────────────────────────
			if authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
					respond.Error(writer, request, apperr.Unauthenticated("Invalid authorization format"))
					return
				}

				principal, err := verifier.VerifyToken(parts[1])
				if err != nil {
					respond.Error(writer, request, apperr.Unauthenticated("Invalid or expired token"))
					return
				}

				ctx := ctxutil.WithPrincipal(request.Context(), principal, sec.CarrierToken)
				next.ServeHTTP(writer, request.WithContext(ctx))
				return
			}

			// ── 3. Session Cookie Carrier ─────────────────────────────────────
			if hasCookie {
				stored, err := sessions.Get(request.Context(), cookie.Value)
				if err != nil {
					respond.Error(writer, request, err)
					return
				}

				// Sliding expiry: any authenticated activity restarts the window.
				// A failed touch must not fail the request, but a persistent
				// failure stops the window from sliding, so it has to be loud.
				if touchErr := sessions.Touch(request.Context(), stored.ID); touchErr != nil {
					ctxutil.GetLogger(request.Context()).WarnContext(request.Context(),
						"session_touch_failed",
						slog.Any("error", touchErr),
					)
				}

				principal := stored.Principal
				ctx := ctxutil.WithPrincipal(request.Context(), &principal, sec.CarrierSession)
				ctx = ctxutil.WithSessionID(ctx, stored.ID)
				next.ServeHTTP(writer, request.WithContext(ctx))
				return
			}

			// ── 4. Anonymous Access ───────────────────────────────────────────
			next.ServeHTTP(writer, request)
		})
	}
}
