// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

/*
Package audit provides the append-only record of privileged actions.

Every security-relevant transition (logins in both outcomes, logout, MFA
lifecycle changes, organization assumption) produces one immutable entry.
There is no update or delete surface, by contract.

# Durability vs Availability

Audit persistence must never block the action being audited. When the
primary sink fails, the entry is escalated to the process log (slog) so
operators retain visibility into the gap. Availability wins; the gap is
loud, never silent.
*/
package audit

import (
	"context"
	"time"

	"github.com/medora-health/medora/pkg/pagination"
)

// # Audited Actions

const (
	ActionLoginSucceeded        = "auth.login_succeeded"
	ActionLoginFailed           = "auth.login_failed"
	ActionLogout                = "auth.logout"
	ActionAssumeOrganization    = "auth.assume_organization"
	ActionMFASetupRequested     = "mfa.setup_requested"
	ActionMFAEnabled            = "mfa.enabled"
	ActionMFAVerifySucceeded    = "mfa.verify_succeeded"
	ActionMFAVerifyFailed       = "mfa.verify_failed"
	ActionMFABackupCodeConsumed = "mfa.backup_code_consumed"
	ActionMFADisabled           = "mfa.disabled"
	ActionMFACodesRegenerated   = "mfa.backup_codes_regenerated"
)

// Entry is one immutable audit record.
//
// # Security
//
// Details may carry contextual metadata (counts, organization ids, outcome
// reasons) but NEVER secrets, codes, passwords, or token material.
type Entry struct {
	ID             string         `json:"id"`
	ActorUserID    string         `json:"actor_user_id"`
	OrganizationID string         `json:"organization_id"`
	Action         string         `json:"action"`
	EntityType     string         `json:"entity_type"`
	EntityID       string         `json:"entity_id"`
	Details        map[string]any `json:"details,omitempty"`
	IPAddress      string         `json:"ip_address"`
	UserAgent      string         `json:"user_agent"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Filter narrows an audit trail listing.
type Filter struct {
	// ActorUserID limits to one actor when non-empty.
	ActorUserID string
	// Action limits to one action when non-empty.
	Action string
	// OrganizationID limits to one tenant when non-empty. Organization
	// admins are always pinned to their own tenant by the handler.
	OrganizationID string
}

// # Contracts

// Store defines the persistence contract for audit entries.
type Store interface {

	/*
		Insert appends one entry. There is deliberately no update or
		delete counterpart.

		Parameters:
		  - context: context.Context
		  - entry: *Entry

		Returns:
		  - error: Persistence failures
	*/
	Insert(context context.Context, entry *Entry) error

	/*
		List returns entries newest-first with the total match count.

		Parameters:
		  - context: context.Context
		  - filter: Filter
		  - page: pagination.Params

		Returns:
		  - []Entry: One page of entries
		  - int: Total matches across all pages
		  - error: Retrieval failures
	*/
	List(context context.Context, filter Filter, page pagination.Params) ([]Entry, int, error)
}
