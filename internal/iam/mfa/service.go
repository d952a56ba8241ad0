// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package mfa

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/medora-health/medora/internal/iam/audit"
	"github.com/medora-health/medora/internal/platform/apperr"
	"github.com/medora-health/medora/internal/platform/ratelimit"
	"github.com/medora-health/medora/internal/platform/sec"
)

// # Policy Constants

const (
	// BackupCodeCount is the size of the single-use backup-code set.
	BackupCodeCount = 10

	// backupCodeBytes is the entropy per backup code (10 hex chars).
	backupCodeBytes = 5

	// totpPeriod is the TOTP step length in seconds.
	totpPeriod = 30

	// totpSkew is the allowed clock drift, in steps, on either side
	// (one step = ±30s).
	totpSkew = 1
)

// AttemptPolicy bounds verification attempts per user. Without it a stolen
// session could brute-force the 6-digit space; at 10 attempts per 15 minutes
// an attacker gets under a thousand guesses a day against a million codes.
var AttemptPolicy = ratelimit.Policy{
	Name:        "mfa",
	Window:      15 * time.Minute,
	MaxRequests: 10,
}

// # Service

// Service implements the second-factor use cases.
type Service struct {
	store    Store
	limiter  *ratelimit.Limiter
	auditLog *audit.Logger
	issuer   string

	// now is swappable for clock-window tests.
	now func() time.Time
}

// NewService constructs the MFA [Service].
func NewService(store Store, limiter *ratelimit.Limiter, auditLog *audit.Logger, issuer string) *Service {
	return &Service{
		store:    store,
		limiter:  limiter,
		auditLog: auditLog,
		issuer:   issuer,
		now:      time.Now,
	}
}

// RequestMeta carries audit context from the transport layer.
type RequestMeta struct {
	OrganizationID string
	IPAddress      string
	UserAgent      string
}

// SetupResult is the one-time disclosure of fresh enrollment material.
type SetupResult struct {
	Secret      string   `json:"secret"`
	QRCodeURL   string   `json:"qr_code_url"`
	BackupCodes []string `json:"backup_codes"`
}

/*
Setup begins enrollment: a fresh TOTP secret and backup-code set in pending
(untrusted) form.

Description: Idempotent over earlier pending or disabled states; each call
replaces the pending material wholesale. An already-enabled enrollment is a
Conflict and the call leaves the existing secret untouched.

Parameters:
  - context: context.Context
  - userID: string
  - label: string (account label shown in the authenticator app)
  - meta: RequestMeta

Returns:
  - *SetupResult: Secret, otpauth URL, plaintext backup codes
  - error: Conflict (already enabled) or storage failures
*/
func (service *Service) Setup(context context.Context, userID, label string, meta RequestMeta) (*SetupResult, error) {
	enrollment, err := service.store.GetEnrollment(context, userID)
	if err != nil {
		return nil, err
	}
	if enrollment.State() == StateEnabled {
		return nil, apperr.Conflict("Multi-factor authentication is already enabled")
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      service.issuer,
		AccountName: label,
		Period:      totpPeriod,
	})
	if err != nil {
		return nil, fmt.Errorf("mfa_service_secret_generation_failed: %w", err)
	}

	codes, hashes, err := generateBackupCodes(BackupCodeCount)
	if err != nil {
		return nil, fmt.Errorf("mfa_service_backup_code_generation_failed: %w", err)
	}

	if err := service.store.SavePending(context, userID, key.Secret(), hashes); err != nil {
		return nil, fmt.Errorf("mfa_service_save_pending_failed: %w", err)
	}

	service.auditLog.Log(context, audit.Entry{
		ActorUserID:    userID,
		OrganizationID: meta.OrganizationID,
		Action:         audit.ActionMFASetupRequested,
		EntityType:     "mfa_enrollment",
		EntityID:       userID,
		IPAddress:      meta.IPAddress,
		UserAgent:      meta.UserAgent,
	})

	return &SetupResult{
		Secret:      key.Secret(),
		QRCodeURL:   key.URL(),
		BackupCodes: codes,
	}, nil
}

/*
VerifySetup proves possession of the pending secret and enables enrollment.

Description: Accepts a current-window TOTP code with ±1 step of clock skew.
On success the enrollment flips to Enabled exactly once; on failure state is
completely unchanged.

Parameters:
  - context: context.Context
  - userID: string
  - code: string
  - meta: RequestMeta

Returns:
  - error: MFAInvalidCode, RateLimited, or storage failures
*/
func (service *Service) VerifySetup(context context.Context, userID, code string, meta RequestMeta) error {
	if err := service.checkAttemptBudget(context, userID); err != nil {
		return err
	}

	enrollment, err := service.store.GetEnrollment(context, userID)
	if err != nil {
		return err
	}
	if enrollment.State() != StatePendingSetup {
		// Same generic failure whether unenrolled, disabled, or already
		// enabled; the response must not disclose enrollment state.
		return apperr.MFAInvalidCode()
	}

	if !service.validateTOTP(code, enrollment.Secret) {
		service.logOutcome(context, userID, audit.ActionMFAVerifyFailed, meta, map[string]any{"phase": "setup"})
		return apperr.MFAInvalidCode()
	}

	if err := service.store.Enable(context, userID); err != nil {
		return fmt.Errorf("mfa_service_enable_failed: %w", err)
	}

	service.logOutcome(context, userID, audit.ActionMFAEnabled, meta, nil)
	return nil
}

/*
Verify checks a second factor for an enabled enrollment.

Description: Accepts either a current TOTP code or an unconsumed backup code.
Backup-code consumption is atomic test-and-delete: two requests racing on
the same code yield exactly one success and one MFAInvalidCode.

Parameters:
  - context: context.Context
  - userID: string
  - code: string
  - meta: RequestMeta

Returns:
  - error: MFAInvalidCode, RateLimited, or storage failures
*/
func (service *Service) Verify(context context.Context, userID, code string, meta RequestMeta) error {
	if err := service.checkAttemptBudget(context, userID); err != nil {
		return err
	}

	enrollment, err := service.store.GetEnrollment(context, userID)
	if err != nil {
		return err
	}
	if enrollment.State() != StateEnabled {
		return apperr.MFAInvalidCode()
	}

	if service.validateTOTP(code, enrollment.Secret) {
		service.logOutcome(context, userID, audit.ActionMFAVerifySucceeded, meta, map[string]any{"method": "totp"})
		return nil
	}

	// Fallback: single-use backup code. The decision and the removal are
	// one store operation.
	consumed, err := service.store.ConsumeBackupCode(context, userID, hashBackupCode(code))
	if err != nil {
		return fmt.Errorf("mfa_service_backup_code_consume_failed: %w", err)
	}
	if consumed {
		remaining, _ := service.store.CountBackupCodes(context, userID)
		service.logOutcome(context, userID, audit.ActionMFABackupCodeConsumed, meta, map[string]any{"remaining": remaining})
		return nil
	}

	service.logOutcome(context, userID, audit.ActionMFAVerifyFailed, meta, nil)
	return apperr.MFAInvalidCode()
}

/*
Disable clears the enrollment after a just-verified code.

Parameters:
  - context: context.Context
  - userID: string
  - code: string (current TOTP or backup code; re-verified here)
  - meta: RequestMeta

Returns:
  - error: MFAInvalidCode, RateLimited, or storage failures
*/
func (service *Service) Disable(context context.Context, userID, code string, meta RequestMeta) error {
	if err := service.Verify(context, userID, code, meta); err != nil {
		return err
	}

	if err := service.store.Disable(context, userID); err != nil {
		return fmt.Errorf("mfa_service_disable_failed: %w", err)
	}

	service.logOutcome(context, userID, audit.ActionMFADisabled, meta, nil)
	return nil
}

/*
RegenerateBackupCodes atomically replaces the whole backup-code set.

Description: Requires a valid current TOTP code. The old set is invalidated
in the same store operation that installs the new one, so no overlap window
in which both sets are usable.

Parameters:
  - context: context.Context
  - userID: string
  - code: string (current TOTP code; backup codes cannot authorize this)
  - meta: RequestMeta

Returns:
  - []string: Fresh plaintext codes, disclosed once
  - error: MFAInvalidCode, RateLimited, or storage failures
*/
func (service *Service) RegenerateBackupCodes(context context.Context, userID, code string, meta RequestMeta) ([]string, error) {
	if err := service.checkAttemptBudget(context, userID); err != nil {
		return nil, err
	}

	enrollment, err := service.store.GetEnrollment(context, userID)
	if err != nil {
		return nil, err
	}
	if enrollment.State() != StateEnabled || !service.validateTOTP(code, enrollment.Secret) {
		service.logOutcome(context, userID, audit.ActionMFAVerifyFailed, meta, map[string]any{"phase": "regenerate"})
		return nil, apperr.MFAInvalidCode()
	}

	codes, hashes, err := generateBackupCodes(BackupCodeCount)
	if err != nil {
		return nil, fmt.Errorf("mfa_service_backup_code_generation_failed: %w", err)
	}

	if err := service.store.ReplaceBackupCodes(context, userID, hashes); err != nil {
		return nil, fmt.Errorf("mfa_service_replace_codes_failed: %w", err)
	}

	service.logOutcome(context, userID, audit.ActionMFACodesRegenerated, meta, map[string]any{"count": len(codes)})
	return codes, nil
}

// # Internals

// checkAttemptBudget enforces [AttemptPolicy] per user. Exhausting the
// budget rejects before any code is compared.
func (service *Service) checkAttemptBudget(context context.Context, userID string) error {
	result := service.limiter.Check(context, AttemptPolicy, userID)
	if !result.Allowed {
		return apperr.RateLimited(result.RetryAfter(service.now()))
	}
	return nil
}

// validateTOTP checks a 6-digit code against the secret within ±totpSkew steps.
func (service *Service) validateTOTP(code, secret string) bool {
	if secret == "" {
		return false
	}
	valid, err := totp.ValidateCustom(code, secret, service.now(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && valid
}

// logOutcome writes one audit entry for an enrollment transition or
// verification outcome. Details never include secrets or codes.
func (service *Service) logOutcome(context context.Context, userID, action string, meta RequestMeta, details map[string]any) {
	service.auditLog.Log(context, audit.Entry{
		ActorUserID:    userID,
		OrganizationID: meta.OrganizationID,
		Action:         action,
		EntityType:     "mfa_enrollment",
		EntityID:       userID,
		Details:        details,
		IPAddress:      meta.IPAddress,
		UserAgent:      meta.UserAgent,
	})
}

// generateBackupCodes returns plaintext codes and their storage digests.
func generateBackupCodes(count int) ([]string, []string, error) {
	codes := make([]string, 0, count)
	hashes := make([]string, 0, count)

	for i := 0; i < count; i++ {
		raw, err := sec.GenerateSecureToken(backupCodeBytes)
		if err != nil {
			return nil, nil, err
		}
		// "xxxxx-xxxxx" reads better over the phone than a bare hex run.
		code := raw[:5] + "-" + raw[5:]
		codes = append(codes, code)
		hashes = append(hashes, hashBackupCode(code))
	}

	return codes, hashes, nil
}

// hashBackupCode normalizes then digests a backup code for storage/lookup.
func hashBackupCode(code string) string {
	return sec.HashToken(strings.ToLower(strings.TrimSpace(code)))
}
