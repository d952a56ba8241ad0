// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package ctxutil_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medora-health/medora/internal/platform/ctxutil"
	"github.com/medora-health/medora/internal/platform/sec"
)

/*
TestContext_RequestID verifies that Request IDs can be injected and retrieved.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	requestID := "test-request-id"

	// 1. Initially should be empty
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithRequestID(ctx, requestID)
	assert.Equal(t, requestID, ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// 1. Initially should return the default logger
	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_Principal verifies that a principal and its carrier can be stored
in context.
*/
func TestContext_Principal(t *testing.T) {
	ctx := context.Background()
	principal := &sec.Principal{
		UserID:                "user-123",
		Role:                  sec.RoleDoctor,
		OrganizationID:        "org-1",
		CurrentOrganizationID: "org-1",
	}

	// 1. Initially should be nil / zero
	assert.Nil(t, ctxutil.GetPrincipal(ctx))
	assert.Empty(t, ctxutil.GetCarrier(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithPrincipal(ctx, principal, sec.CarrierSession)
	retrieved := ctxutil.GetPrincipal(ctx)

	assert.NotNil(t, retrieved)
	assert.Equal(t, "user-123", retrieved.UserID)
	assert.Equal(t, sec.RoleDoctor, retrieved.Role)
	assert.Equal(t, sec.CarrierSession, ctxutil.GetCarrier(ctx))
}

/*
TestContext_SessionID verifies session id round-trips through the context.
*/
func TestContext_SessionID(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, ctxutil.GetSessionID(ctx))

	ctx = ctxutil.WithSessionID(ctx, "sess-abc")
	assert.Equal(t, "sess-abc", ctxutil.GetSessionID(ctx))
}
