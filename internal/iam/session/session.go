// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

/*
Package session implements server-authoritative session state.

A session is the revocable credential carrier: the client holds only an
opaque, high-entropy identifier in a cookie, while the authoritative state
(a principal snapshot and activity timestamps) lives server-side. Logout and
step-down therefore take effect immediately, unlike Bearer tokens which stay
valid until expiry.

# Expiry

Sessions use sliding expiry: every authenticated request refreshes
LastActivity, and a session dies once now-LastActivity exceeds the configured
MaxAge. A session created at t0 and never touched again is invalid at
t0+MaxAge regardless of any other state.

# Durability

The primary store is PostgreSQL so sessions survive process restarts. When
the database is unreachable at startup, an in-memory store takes over with a
loud warning: durability is sacrificed, but expiry enforcement and session
integrity never are.
*/
package session

import (
	"context"
	"time"

	"github.com/medora-health/medora/internal/platform/sec"
)

// Session is the server-side state for one authenticated client.
type Session struct {
	// ID is the opaque identifier held by the client. 256 bits of entropy.
	ID string `json:"id"`

	// Principal is the identity snapshot taken at login. Its
	// CurrentOrganizationID is the only field mutated after creation, and
	// only through the audited assume-organization operation.
	Principal sec.Principal `json:"principal"`

	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// ExpiresAt returns the instant the session dies if it sees no further activity.
func (s *Session) ExpiresAt(maxAge time.Duration) time.Time {
	return s.LastActivity.Add(maxAge)
}

// Expired reports whether the session has outlived the sliding window.
func (s *Session) Expired(now time.Time, maxAge time.Duration) bool {
	return now.Sub(s.LastActivity) > maxAge
}

// # Store Contract

// Store defines the data access contract for sessions.
//
// Each method is a single atomic unit against its backing store; a request
// that times out mid-flight leaves at most one method's state applied.
type Store interface {

	/*
		Create materializes a new session from a principal snapshot.

		Parameters:
		  - context: context.Context
		  - principal: sec.Principal

		Returns:
		  - string: Cryptographically random session id
		  - error: Persistence failures
	*/
	Create(context context.Context, principal sec.Principal) (string, error)

	/*
		Get loads a live session by id. Expired sessions are treated as absent.

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - *Session: Hydrated session
		  - error: apperr.Unauthenticated when missing or expired
	*/
	Get(context context.Context, sessionID string) (*Session, error)

	/*
		Touch refreshes LastActivity, restarting the sliding-expiry window.

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - error: Persistence failures
	*/
	Touch(context context.Context, sessionID string) error

	/*
		Destroy removes the session. Idempotent: destroying an absent
		session is a successful no-op.

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - error: Persistence failures
	*/
	Destroy(context context.Context, sessionID string) error

	/*
		AssumeOrganization rewrites the snapshot's CurrentOrganizationID.
		Callers are responsible for permission checks and audit.

		Parameters:
		  - context: context.Context
		  - sessionID: string
		  - organizationID: string

		Returns:
		  - error: Persistence failures or apperr.Unauthenticated
	*/
	AssumeOrganization(context context.Context, sessionID, organizationID string) error
}
