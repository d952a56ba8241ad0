// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package audit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medora-health/medora/internal/iam/audit"
	"github.com/medora-health/medora/internal/platform/ctxutil"
	"github.com/medora-health/medora/internal/platform/sec"
	"github.com/medora-health/medora/pkg/pagination"
)

// fakeStore records inserts and serves canned listings.
type fakeStore struct {
	mu         sync.Mutex
	entries    []audit.Entry
	insertErr  error
	lastFilter audit.Filter
}

func (store *fakeStore) Insert(_ context.Context, entry *audit.Entry) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.insertErr != nil {
		return store.insertErr
	}
	store.entries = append(store.entries, *entry)
	return nil
}

func (store *fakeStore) List(_ context.Context, filter audit.Filter, _ pagination.Params) ([]audit.Entry, int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.lastFilter = filter
	return store.entries, len(store.entries), nil
}

func TestLogAssignsIdentityAndPersists(t *testing.T) {
	store := &fakeStore{}
	logger := audit.NewLogger(store, slog.New(slog.NewJSONHandler(bytes.NewBuffer(nil), nil)))

	logger.Log(context.Background(), audit.Entry{
		ActorUserID:    "user-1",
		OrganizationID: "org-1",
		Action:         audit.ActionLoginSucceeded,
		IPAddress:      "10.0.0.9",
	})

	require.Len(t, store.entries, 1)
	persisted := store.entries[0]

	assert.NotEmpty(t, persisted.ID)
	assert.False(t, persisted.CreatedAt.IsZero())
	assert.Equal(t, "user-1", persisted.ActorUserID)
	assert.Equal(t, audit.ActionLoginSucceeded, persisted.Action)
}

func TestLogEscalatesToProcessLogOnSinkFailure(t *testing.T) {
	store := &fakeStore{insertErr: errors.New("connection refused")}

	var captured bytes.Buffer
	logger := audit.NewLogger(store, slog.New(slog.NewJSONHandler(&captured, nil)))

	// Must not panic and must not block the caller.
	logger.Log(context.Background(), audit.Entry{
		ActorUserID: "user-1",
		Action:      audit.ActionMFAEnabled,
	})

	assert.Empty(t, store.entries)

	var record map[string]any
	require.NoError(t, json.Unmarshal(captured.Bytes(), &record))
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "audit_sink_unavailable_entry_escalated", record["msg"])
	assert.Equal(t, audit.ActionMFAEnabled, record["action"])
	assert.Equal(t, "user-1", record["actor_user_id"])
}

func listAs(t *testing.T, store *fakeStore, principal sec.Principal, query string) *httptest.ResponseRecorder {
	t.Helper()

	handler := audit.NewHandler(store)
	request := httptest.NewRequest(http.MethodGet, "/"+query, nil)
	request = request.WithContext(ctxutil.WithPrincipal(request.Context(), &principal, sec.CarrierSession))

	recorder := httptest.NewRecorder()
	handler.Routes().ServeHTTP(recorder, request)
	return recorder
}

func TestListPinsOrganizationAdminToOwnTenant(t *testing.T) {
	store := &fakeStore{}

	recorder := listAs(t, store, sec.Principal{
		UserID:                "admin-1",
		Role:                  sec.RoleAdmin,
		OrganizationID:        "org-home",
		CurrentOrganizationID: "org-home",
	}, "?organization_id=org-other&actor_id=user-9&action=auth.login_failed")

	require.Equal(t, http.StatusOK, recorder.Code)

	// The requested foreign tenant is ignored; scoping wins.
	assert.Equal(t, "org-home", store.lastFilter.OrganizationID)
	assert.Equal(t, "user-9", store.lastFilter.ActorUserID)
	assert.Equal(t, "auth.login_failed", store.lastFilter.Action)
}

func TestListSuperAdminMayBrowseAnyTenant(t *testing.T) {
	store := &fakeStore{}

	recorder := listAs(t, store, sec.Principal{
		UserID: "root-1",
		Role:   sec.RoleSuperAdmin,
	}, "?organization_id=org-other")

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "org-other", store.lastFilter.OrganizationID)
}

func TestListSuperAdminUnscopedByDefault(t *testing.T) {
	store := &fakeStore{}

	recorder := listAs(t, store, sec.Principal{
		UserID: "root-1",
		Role:   sec.RoleSuperAdmin,
	}, "")

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, store.lastFilter.OrganizationID)
}

func TestListRequiresPrincipal(t *testing.T) {
	store := &fakeStore{}
	handler := audit.NewHandler(store)

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	recorder := httptest.NewRecorder()
	handler.Routes().ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
