// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package ratelimit

import "time"

// SweepForTest runs one sweep pass as of the given instant.
func (store *MemoryStore) SweepForTest(now time.Time) {
	store.sweep(now)
}
