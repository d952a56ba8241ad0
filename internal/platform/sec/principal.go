// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package sec

// Principal is the resolved identity for a single request: who is calling,
// with which role, inside which organization.
//
// # Resolution
//
// A Principal is derived per request from exactly one credential carrier
// (a Bearer token or a server-side session) and is never persisted
// directly. Its OrganizationID is immutable for the lifetime of the request.
//
// # Tenancy
//
// CurrentOrganizationID may diverge from OrganizationID when a platform or
// organization admin has assumed another organization via the audited
// assume-organization operation. Handlers must scope all data access by
// CurrentOrganizationID.
type Principal struct {
	UserID                string `json:"user_id"`
	Username              string `json:"username"`
	Role                  Role   `json:"role"`
	OrganizationID        string `json:"organization_id"`
	CurrentOrganizationID string `json:"current_organization_id"`
}

// Carrier identifies which credential mechanism produced a Principal.
type Carrier string

const (
	// CarrierToken marks a Principal materialized from a Bearer token.
	CarrierToken Carrier = "token"

	// CarrierSession marks a Principal materialized from a server-side session.
	CarrierSession Carrier = "session"
)
