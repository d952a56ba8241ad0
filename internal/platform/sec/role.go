// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package sec

import "strings"

// # Clinical Roles

// Role represents the authorization level granted to an account.
//
// # Model
//
// Roles are a closed, flat set: no role implies another, and there is no
// hierarchy graph. The single exception is [RoleSuperAdmin], which bypasses
// every role check. Authorization is always "is the role in the allowed set,
// or is it the super admin".
type Role string

const (
	// Platform operators. Bypasses every role check.
	RoleSuperAdmin Role = "super_admin"

	// Organization administrator. Manages members and settings of their own organization.
	RoleAdmin Role = "admin"

	// Licensed physician
	RoleDoctor Role = "doctor"

	// Nursing staff
	RoleNurse Role = "nurse"

	// Dispensing and medication management
	RolePharmacist Role = "pharmacist"

	// Physical therapy staff
	RolePhysiotherapist Role = "physiotherapist"

	// Front-desk and intake staff
	RoleReceptionist Role = "receptionist"

	// Laboratory staff
	RoleLabTechnician Role = "lab_technician"

	// View-only access for auditors and integrations
	RoleReadOnly Role = "read_only"
)

// AllRoles enumerates every valid canonical role value.
var AllRoles = []Role{
	RoleSuperAdmin,
	RoleAdmin,
	RoleDoctor,
	RoleNurse,
	RolePharmacist,
	RolePhysiotherapist,
	RoleReceptionist,
	RoleLabTechnician,
	RoleReadOnly,
}

// # Normalization

// ParseRole converts a stored role string into a canonical [Role].
//
// # Legacy Spellings
//
// Historic account rows carry "superadmin" (no underscore) and hyphenated
// variants such as "lab-technician". These are folded into their canonical
// value here, at the ingestion boundary, so the rest of the codebase never
// performs stringly-typed comparisons against alternate spellings.
func ParseRole(value string) (Role, bool) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_")

	if normalized == "superadmin" {
		normalized = string(RoleSuperAdmin)
	}

	candidate := Role(normalized)
	for _, role := range AllRoles {
		if candidate == role {
			return role, true
		}
	}
	return "", false
}

// MustParseRole converts a role string, falling back to [RoleReadOnly] for
// unknown values. Used when hydrating rows where failing the whole request
// over a bad stored role would be worse than degraded access.
func MustParseRole(value string) Role {
	role, ok := ParseRole(value)
	if !ok {
		return RoleReadOnly
	}
	return role
}

// # Predicates

// IsSuperAdmin reports whether the role is the reserved platform-operator
// role that bypasses all authorization checks.
func (r Role) IsSuperAdmin() bool {
	return r == RoleSuperAdmin
}

// In reports whether the role is a member of the allowed set OR is the
// super admin bypass.
func (r Role) In(allowed ...Role) bool {
	if r.IsSuperAdmin() {
		return true
	}
	for _, candidate := range allowed {
		if r == candidate {
			return true
		}
	}
	return false
}
