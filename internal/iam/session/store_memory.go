// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/medora-health/medora/internal/platform/apperr"
	"github.com/medora-health/medora/internal/platform/constants"
	"github.com/medora-health/medora/internal/platform/sec"
)

// memorySweepInterval is how often expired in-memory sessions are purged.
const memorySweepInterval = 10 * time.Minute

// MemoryStore is the documented degraded-mode [Store]: it activates when the
// durable store is unreachable at startup. Sessions do not survive a restart,
// but expiry enforcement and snapshot integrity behave exactly like the
// durable store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	maxAge   time.Duration

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewMemoryStore creates the in-memory fallback store.
func NewMemoryStore(maxAge time.Duration) *MemoryStore {
	if maxAge <= 0 {
		maxAge = constants.DefaultSessionMaxAge
	}
	return &MemoryStore{
		sessions: make(map[string]*Session),
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// Create implements [Store].
func (store *MemoryStore) Create(_ context.Context, principal sec.Principal) (string, error) {
	sessionID, err := sec.GenerateSecureToken(constants.SessionIDLength)
	if err != nil {
		return "", fmt.Errorf("session_store_id_generation_failed: %w", err)
	}

	now := store.now()
	store.mu.Lock()
	store.sessions[sessionID] = &Session{
		ID:           sessionID,
		Principal:    principal,
		CreatedAt:    now,
		LastActivity: now,
	}
	store.mu.Unlock()

	return sessionID, nil
}

// Get implements [Store] with the same expired-means-absent semantics as the
// durable store.
func (store *MemoryStore) Get(_ context.Context, sessionID string) (*Session, error) {
	store.mu.RLock()
	entry, found := store.sessions[sessionID]
	store.mu.RUnlock()

	if !found {
		return nil, apperr.Unauthenticated("Session is invalid or expired")
	}

	if entry.Expired(store.now(), store.maxAge) {
		store.mu.Lock()
		delete(store.sessions, sessionID)
		store.mu.Unlock()
		return nil, apperr.Unauthenticated("Session is invalid or expired")
	}

	// Copy so callers cannot mutate the authoritative snapshot.
	copied := *entry
	return &copied, nil
}

// Touch implements [Store].
func (store *MemoryStore) Touch(_ context.Context, sessionID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if entry, found := store.sessions[sessionID]; found {
		entry.LastActivity = store.now()
	}
	return nil
}

// Destroy implements [Store]. Idempotent.
func (store *MemoryStore) Destroy(_ context.Context, sessionID string) error {
	store.mu.Lock()
	delete(store.sessions, sessionID)
	store.mu.Unlock()
	return nil
}

// AssumeOrganization implements [Store].
func (store *MemoryStore) AssumeOrganization(_ context.Context, sessionID, organizationID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	entry, found := store.sessions[sessionID]
	if !found {
		return apperr.Unauthenticated("Session is invalid or expired")
	}
	entry.Principal.CurrentOrganizationID = organizationID
	return nil
}

// StartSweeper launches the background purge of expired sessions.
func (store *MemoryStore) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(memorySweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				store.sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// sweep deletes sessions whose sliding window has lapsed.
func (store *MemoryStore) sweep() {
	now := store.now()
	store.mu.Lock()
	defer store.mu.Unlock()

	for id, entry := range store.sessions {
		if entry.Expired(now, store.maxAge) {
			delete(store.sessions, id)
		}
	}
}
