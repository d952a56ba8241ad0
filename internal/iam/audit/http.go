// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/medora-health/medora/internal/platform/request"
	"github.com/medora-health/medora/internal/platform/respond"
	"github.com/medora-health/medora/pkg/pagination"
)

// Handler exposes the audit trail to organization and platform admins.
type Handler struct {
	store Store
}

// NewHandler constructs the audit [Handler].
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Routes returns the audit route group. The router mounts it behind the
// super-or-org-admin policy; this handler only applies tenant scoping.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.list)
	return router
}

/*
List returns a page of the audit trail.

GET /api/v1/audit?actor_id=&action=&page=&limit=

Description: Organization admins are pinned to their current organization;
only the super admin may browse across tenants.

Response:
  - 200: Paginated []Entry
  - 401/403: Authentication or role failures (enforced upstream)
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	filter := Filter{
		ActorUserID: request.URL.Query().Get("actor_id"),
		Action:      request.URL.Query().Get("action"),
	}

	// Tenant scoping: non-super admins never see other organizations.
	if !principal.Role.IsSuperAdmin() {
		filter.OrganizationID = principal.CurrentOrganizationID
	} else if org := request.URL.Query().Get("organization_id"); org != "" {
		filter.OrganizationID = org
	}

	page := pagination.FromRequest(request)

	entries, total, err := handler.store.List(request.Context(), filter, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, entries, pagination.NewMeta(page.Page, page.Limit, total))
}
