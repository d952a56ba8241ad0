// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	// sweepInterval is how often the background sweep scans for idle records.
	sweepInterval = 5 * time.Minute

	// recordIdleTTL is how long a key must be idle before its record is purged.
	recordIdleTTL = 1 * time.Hour
)

// record is one key's fixed-window state.
type record struct {
	count       int64
	windowStart time.Time
	lastSeen    time.Time
}

// MemoryStore is a process-local [Store] backed by a mutex-guarded map.
//
// # Scaling Caveat
//
// Counters live in process memory: N horizontally-scaled replicas yield
// N x MaxRequests effective throughput per client. Use [RedisStore] when a
// shared budget is required.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*record
}

// NewMemoryStore creates an empty in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*record)}
}

// Hit implements [Store]. The whole read-modify-write happens under one lock,
// so concurrent hits on the same key serialize and each observes a distinct count.
func (store *MemoryStore) Hit(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	now := time.Now()

	store.mu.Lock()
	defer store.mu.Unlock()

	entry, found := store.records[key]

	// First request for this key, or first request after the window boundary:
	// the window resets exactly, never partially.
	if !found || !now.Before(entry.windowStart.Add(window)) {
		entry = &record{count: 1, windowStart: now, lastSeen: now}
		store.records[key] = entry
		return 1, now, nil
	}

	entry.count++
	entry.lastSeen = now
	return entry.count, entry.windowStart, nil
}

// StartSweeper launches the background purge of idle records. It runs on an
// independent timer and holds the map lock only for the duration of one scan,
// never blocking request-path increments for longer than that.
func (store *MemoryStore) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				store.sweep(time.Now())
			case <-ctx.Done():
				return
			}
		}
	}()
}

// sweep removes records idle beyond recordIdleTTL.
func (store *MemoryStore) sweep(now time.Time) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for key, entry := range store.records {
		if now.Sub(entry.lastSeen) > recordIdleTTL {
			delete(store.records, key)
		}
	}
}

// Len reports the number of live records. Used by tests and diagnostics.
func (store *MemoryStore) Len() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.records)
}
