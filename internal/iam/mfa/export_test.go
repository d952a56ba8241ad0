// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package mfa

import "time"

// SetClockForTest pins the service clock so TOTP windows are deterministic.
func SetClockForTest(service *Service, now func() time.Time) {
	service.now = now
}
