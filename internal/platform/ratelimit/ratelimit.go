// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

/*
Package ratelimit implements per-key request throttling with a fixed window
that resets on the first request after expiry.

Algorithm:

  - One record per key: {count, windowStart}.
  - A request inside [windowStart, windowStart+window) increments count.
  - A request after that boundary resets windowStart=now, count=1.
  - allowed = count <= maxRequests.

This deliberately permits brief bursts across a window boundary. It is cheaper
than a sliding log and the burst is bounded at 2x the limit; do not "fix" it
unless a policy genuinely needs stricter guarantees.

The counter backend is abstracted behind [Store]: the in-memory store is
process-local (N replicas => N x the effective limit), the Redis store shares
one counter across replicas.
*/
package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// Store abstracts the windowed counter backend.
type Store interface {

	/*
		Hit records one request against the key within a fixed window.

		Parameters:
		  - context: context.Context
		  - key: string (policy-qualified, e.g. "auth:10.0.0.1")
		  - window: time.Duration

		Returns:
		  - int64: Request count within the current window, including this hit
		  - time.Time: Start of the current window
		  - error: Backend failures
	*/
	Hit(context context.Context, key string, window time.Duration) (int64, time.Time, error)
}

// Policy is a named throttling rule. Distinct policies use distinct key
// prefixes, so one client has independent budgets per policy.
type Policy struct {
	// Name prefixes every key ("auth", "api", "sensitive").
	Name string
	// Window is the fixed window duration.
	Window time.Duration
	// MaxRequests is the number of requests allowed per window.
	MaxRequests int
}

// Key returns the store key for a client identifier under this policy.
func (p Policy) Key(clientID string) string {
	return p.Name + ":" + clientID
}

// Result describes the outcome of a single rate-limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetTime time.Time
}

// RetryAfter returns the whole seconds until the window resets, minimum 1.
// Used to populate the Retry-After header on rejections.
func (r Result) RetryAfter(now time.Time) int {
	seconds := int(r.ResetTime.Sub(now).Seconds())
	if seconds < 1 {
		return 1
	}
	return seconds
}

// Limiter evaluates policies against a [Store].
type Limiter struct {
	store  Store
	logger *slog.Logger
}

// NewLimiter constructs a Limiter on top of the given counter store.
func NewLimiter(store Store, logger *slog.Logger) *Limiter {
	return &Limiter{store: store, logger: logger}
}

/*
Check records a hit for the client under the policy and evaluates the limit.

Description: The increment and the window bookkeeping are a single atomic
operation against the store; two concurrent requests can never observe the
same count.

Parameters:
  - context: context.Context
  - policy: Policy
  - clientID: string (usually the client IP)

Returns:
  - Result: Allowed flag plus X-RateLimit-* metadata
*/
func (limiter *Limiter) Check(context context.Context, policy Policy, clientID string) Result {
	count, windowStart, err := limiter.store.Hit(context, policy.Key(clientID), policy.Window)

	// A degraded counter backend must not take the whole API down with it.
	// Failing open trades throttling precision for availability; the loud
	// log entry keeps the gap visible to operators.
	if err != nil {
		limiter.logger.Warn("rate_limit_store_degraded_failing_open",
			slog.String("policy", policy.Name),
			slog.Any("error", err),
		)
		return Result{
			Allowed:   true,
			Limit:     policy.MaxRequests,
			Remaining: policy.MaxRequests - 1,
			ResetTime: time.Now().Add(policy.Window),
		}
	}

	remaining := policy.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   count <= int64(policy.MaxRequests),
		Limit:     policy.MaxRequests,
		Remaining: remaining,
		ResetTime: windowStart.Add(policy.Window),
	}
}
