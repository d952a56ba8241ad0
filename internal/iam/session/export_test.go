// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package session

import "time"

// SetClockForTest swaps the store's time source so expiry can be simulated
// without sleeping.
func (store *MemoryStore) SetClockForTest(now func() time.Time) {
	store.now = now
}
