// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package middleware

import (
	"net/http"

	"github.com/medora-health/medora/internal/platform/apperr"
	"github.com/medora-health/medora/internal/platform/ctxutil"
	"github.com/medora-health/medora/internal/platform/respond"
	"github.com/medora-health/medora/internal/platform/sec"
)

// RequireAuth blocks requests that did not materialize a principal.
//
// # Usage
//
// Must be registered in the router AFTER [Materialize].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetPrincipal(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthenticated("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireAnyRole admits only principals holding one of the listed roles.
//
// # Flow
//  1. Check that a principal exists in context (implies AuthN).
//  2. Admit when the role is in the allow-list; a super admin passes every
//     role gate unconditionally.
//  3. Otherwise abort with HTTP 403 Forbidden.
//
// It automatically implies [RequireAuth], so there is no need to mount both.
func RequireAnyRole(allowed ...sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			principal := ctxutil.GetPrincipal(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if principal == nil {
				respond.Error(writer, request, apperr.Unauthenticated("Authentication required"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !principal.Role.In(allowed...) {
				respond.Error(writer, request, apperr.InsufficientPermissions())
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// RequireRole admits principals holding exactly the given role (plus the
// super-admin bypass). Thin alias over [RequireAnyRole] for single-role routes.
func RequireRole(role sec.Role) func(http.Handler) http.Handler {
	return RequireAnyRole(role)
}

// RequireSuperOrOrgAdmin admits super admins and organization admins only.
//
// This gate is kept distinct from [RequireAnyRole] because administrative
// routes are audited and reviewed as a class; collapsing it into a generic
// role list would hide those routes from review.
func RequireSuperOrOrgAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		principal := ctxutil.GetPrincipal(request.Context())

		if principal == nil {
			respond.Error(writer, request, apperr.Unauthenticated("Authentication required"))
			return
		}

		if !principal.Role.IsSuperAdmin() && principal.Role != sec.RoleAdmin {
			respond.Error(writer, request, apperr.InsufficientPermissions())
			return
		}

		next.ServeHTTP(writer, request)
	})
}
