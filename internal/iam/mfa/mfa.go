// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

/*
Package mfa implements the second-factor (TOTP) subsystem.

It covers the full enrollment lifecycle, code verification with backup-code
fallback, and regeneration. Each transition is audited; secrets are never logged.

# Lifecycle

	Unenrolled -> PendingSetup -> Enabled -> Disabled -> PendingSetup

A fresh secret is untrusted until the user proves possession by round-tripping
one valid code through setup verification. Only that proof flips the
enrollment to Enabled; codes from a pending secret are otherwise worthless.

# Backup Codes

Ten single-use codes are issued alongside the secret. Consumption is an
atomic test-and-delete against the store: two requests racing on the same
code yield exactly one success.
*/
package mfa

import (
	"context"
	"time"
)

// State is the derived position in the enrollment lifecycle.
type State string

const (
	StateUnenrolled   State = "unenrolled"
	StatePendingSetup State = "pending_setup"
	StateEnabled      State = "enabled"
	StateDisabled     State = "disabled"
)

// Enrollment is one user's second-factor state.
//
// # Security
//
// Secret is the base32 TOTP seed. It is returned to the client exactly once,
// at setup time, and never appears in logs or audit entries.
type Enrollment struct {
	UserID    string    `json:"user_id"`
	Secret    string    `json:"-"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// State derives the lifecycle position from the stored fields.
func (e *Enrollment) State() State {
	switch {
	case e == nil:
		return StateUnenrolled
	case e.Enabled:
		return StateEnabled
	case e.Secret != "":
		return StatePendingSetup
	default:
		return StateDisabled
	}
}

// # Store Contract

// Store defines the persistence contract for enrollments and backup codes.
//
// Every method is a single atomic unit; in particular ConsumeBackupCode must
// combine the existence test and the removal in one operation.
type Store interface {

	/*
		GetEnrollment loads a user's enrollment.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - *Enrollment: nil when the user has never enrolled
		  - error: Retrieval failures
	*/
	GetEnrollment(context context.Context, userID string) (*Enrollment, error)

	/*
		SavePending upserts a pending (untrusted) enrollment: new secret,
		enabled=false, and a full replacement set of backup-code hashes.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - secret: string (base32 TOTP seed)
		  - codeHashes: []string (SHA-256 digests, never plaintext)

		Returns:
		  - error: Persistence failures
	*/
	SavePending(context context.Context, userID, secret string, codeHashes []string) error

	/*
		Enable flips a pending enrollment to enabled.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	Enable(context context.Context, userID string) error

	/*
		Disable clears the secret and removes every backup code.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	Disable(context context.Context, userID string) error

	/*
		ConsumeBackupCode atomically tests and deletes one backup code.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - codeHash: string

		Returns:
		  - bool: true iff the code existed and was removed by THIS call
		  - error: Persistence failures
	*/
	ConsumeBackupCode(context context.Context, userID, codeHash string) (bool, error)

	/*
		ReplaceBackupCodes swaps the entire backup-code set in one atomic
		operation: old codes are invalid the instant new ones are valid,
		with no overlap window.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - codeHashes: []string

		Returns:
		  - error: Persistence failures
	*/
	ReplaceBackupCodes(context context.Context, userID string, codeHashes []string) error

	/*
		CountBackupCodes reports how many unconsumed codes remain.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - int: Remaining code count
		  - error: Retrieval failures
	*/
	CountBackupCodes(context context.Context, userID string) (int, error)
}
