// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate-limit policies, and cross-cutting keys that
are shared between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Named window policies and sweep intervals.
  - Security: Token issuer and session cookie configuration.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "medora-api"
	AppVersion = "0.3.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in Bearer tokens.
	AuthIssuer = "medora.health"

	// BearerTokenTTL is the default validity of an issued Bearer token.
	// Revocable only by key rotation or expiry; sessions are the revocable path.
	BearerTokenTTL = 30 * 24 * time.Hour

	// SessionCookieName is the name of the cookie carrying the opaque session id.
	SessionCookieName = "medora_session"

	// SessionIDLength is the entropy, in bytes, of a session identifier.
	SessionIDLength = 32

	// DefaultSessionMaxAge is the sliding-expiry window for sessions. A
	// session dies once it sees no activity for this long, regardless of age.
	DefaultSessionMaxAge = 30 * 24 * time.Hour
)

// # HTTP Headers

const (
	HeaderXRequestID     = "X-Request-ID"
	HeaderXRealIP        = "X-Real-IP"
	HeaderXForwardedFor  = "X-Forwarded-For"
	HeaderOrigin         = "Origin"
	HeaderAuthorization  = "Authorization"
	HeaderRetryAfter     = "Retry-After"
	HeaderRateLimitLimit = "X-RateLimit-Limit"
	HeaderRateLimitRem   = "X-RateLimit-Remaining"
	HeaderRateLimitReset = "X-RateLimit-Reset"
)

// # JSON Field Identifiers

const (
	FieldError = "error"
	FieldCode  = "code"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixRateLimit = "ratelimit:"
)
