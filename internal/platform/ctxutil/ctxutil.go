// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/medora-health/medora/internal/platform/ctxkey"
	"github.com/medora-health/medora/internal/platform/sec"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

// WithPrincipal returns a new context with the materialized principal and the
// carrier that produced it attached.
func WithPrincipal(ctx context.Context, principal *sec.Principal, carrier sec.Carrier) context.Context {
	ctx = context.WithValue(ctx, ctxkey.KeyPrincipal, principal)
	return context.WithValue(ctx, ctxkey.KeyCarrier, carrier)
}

// GetPrincipal retrieves the [*sec.Principal] from the context.
// Returns nil for anonymous requests.
func GetPrincipal(ctx context.Context) *sec.Principal {
	principal, ok := ctx.Value(ctxkey.KeyPrincipal).(*sec.Principal)
	if !ok {
		return nil
	}
	return principal
}

// GetCarrier reports which credential carrier produced the principal.
// Returns the zero value for anonymous requests.
func GetCarrier(ctx context.Context) sec.Carrier {
	carrier, _ := ctx.Value(ctxkey.KeyCarrier).(sec.Carrier)
	return carrier
}

// WithSessionID returns a new context carrying the opaque session id.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ctxkey.KeySessionID, sessionID)
}

// GetSessionID retrieves the opaque session id from the context.
// Returns an empty string when the request was not session-authenticated.
func GetSessionID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeySessionID).(string)
	return id
}
