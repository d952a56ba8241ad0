// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

// Package ctxkey defines typed context keys used by middleware and handlers.
//
// # Safety
//
// It is used to store and retrieve per-request values (principal, request ID,
// logger). Using a private, unexported type for keys prevents collisions with
// third-party packages that might also use context for storage.
package ctxkey

// key is an unexported type used for context keys to ensure type safety.
//
// # Collision Prevention
//
// Even if another package uses "request_id" as a string key, it will not
// collide with this key type because Go's [context.Context] uses both the
// value AND the type for lookups.
type key string

const (
	// KeyRequestID is the context key for the X-Request-ID correlation value.
	KeyRequestID key = "request_id"

	// KeyPrincipal is the context key for the materialized [sec.Principal].
	KeyPrincipal key = "principal"

	// KeyCarrier is the context key recording which credential carrier
	// (token or session) produced the principal.
	KeyCarrier key = "carrier"

	// KeySessionID is the context key for the opaque session id, set only
	// when the principal was materialized from a session cookie.
	KeySessionID key = "session_id"

	// KeyLogger is the context key for the per-request [*log/slog.Logger].
	KeyLogger key = "logger"
)
