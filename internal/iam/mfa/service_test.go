// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package mfa_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medora-health/medora/internal/iam/audit"
	"github.com/medora-health/medora/internal/iam/mfa"
	"github.com/medora-health/medora/internal/platform/apperr"
	"github.com/medora-health/medora/internal/platform/ratelimit"
	"github.com/medora-health/medora/pkg/pagination"
)

// fakeStore is an in-memory Store whose ConsumeBackupCode is atomic under
// a mutex, mirroring the single-statement DELETE of the Postgres store.
type fakeStore struct {
	mu          sync.Mutex
	enrollments map[string]*mfa.Enrollment
	codes       map[string]map[string]bool // userID -> codeHash -> present
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		enrollments: make(map[string]*mfa.Enrollment),
		codes:       make(map[string]map[string]bool),
	}
}

func (s *fakeStore) GetEnrollment(_ context.Context, userID string) (*mfa.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	enrollment, ok := s.enrollments[userID]
	if !ok {
		return nil, nil
	}
	clone := *enrollment
	return &clone, nil
}

func (s *fakeStore) SavePending(_ context.Context, userID, secret string, codeHashes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrollments[userID] = &mfa.Enrollment{UserID: userID, Secret: secret, Enabled: false}
	set := make(map[string]bool, len(codeHashes))
	for _, hash := range codeHashes {
		set[hash] = true
	}
	s.codes[userID] = set
	return nil
}

func (s *fakeStore) Enable(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if enrollment, ok := s.enrollments[userID]; ok {
		enrollment.Enabled = true
	}
	return nil
}

func (s *fakeStore) Disable(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if enrollment, ok := s.enrollments[userID]; ok {
		enrollment.Secret = ""
		enrollment.Enabled = false
	}
	delete(s.codes, userID)
	return nil
}

func (s *fakeStore) ConsumeBackupCode(_ context.Context, userID, codeHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.codes[userID]
	if !set[codeHash] {
		return false, nil
	}
	delete(set, codeHash)
	return true, nil
}

func (s *fakeStore) ReplaceBackupCodes(_ context.Context, userID string, codeHashes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[string]bool, len(codeHashes))
	for _, hash := range codeHashes {
		set[hash] = true
	}
	s.codes[userID] = set
	return nil
}

func (s *fakeStore) CountBackupCodes(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes[userID]), nil
}

// recordingAuditStore captures entries so tests can assert on the trail.
type recordingAuditStore struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (s *recordingAuditStore) Insert(_ context.Context, entry *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *recordingAuditStore) List(_ context.Context, _ audit.Filter, _ pagination.Params) ([]audit.Entry, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Entry(nil), s.entries...), len(s.entries), nil
}

func (s *recordingAuditStore) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	actions := make([]string, 0, len(s.entries))
	for _, entry := range s.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

type serviceFixture struct {
	service *mfa.Service
	store   *fakeStore
	trail   *recordingAuditStore
	clock   time.Time
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()

	store := newFakeStore()
	trail := &recordingAuditStore{}
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), discard)
	service := mfa.NewService(store, limiter, audit.NewLogger(trail, discard), "medora.health")

	fixture := &serviceFixture{
		service: service,
		store:   store,
		trail:   trail,
		clock:   time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}
	mfa.SetClockForTest(service, func() time.Time { return fixture.clock })
	return fixture
}

// codeAt derives the valid TOTP code for a secret at a given instant.
func codeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

// enroll drives a user through setup + verification to the enabled state.
func enroll(t *testing.T, fixture *serviceFixture, userID string) *mfa.SetupResult {
	t.Helper()
	ctx := context.Background()

	result, err := fixture.service.Setup(ctx, userID, "user@medora.health", mfa.RequestMeta{})
	require.NoError(t, err)
	require.NoError(t, fixture.service.VerifySetup(ctx, userID, codeAt(t, result.Secret, fixture.clock), mfa.RequestMeta{}))
	return result
}

func TestSetupIssuesPendingEnrollment(t *testing.T) {
	fixture := newFixture(t)

	result, err := fixture.service.Setup(context.Background(), "u1", "ade@medora.health", mfa.RequestMeta{})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Secret)
	assert.Contains(t, result.QRCodeURL, "otpauth://totp/")
	assert.Contains(t, result.QRCodeURL, "medora.health")
	require.Len(t, result.BackupCodes, mfa.BackupCodeCount)
	for _, code := range result.BackupCodes {
		assert.Regexp(t, `^[0-9a-f]{5}-[0-9a-f]{5}$`, code)
	}

	// Pending, not enabled: a code from the fresh secret must not pass Verify.
	err = fixture.service.Verify(context.Background(), "u1", codeAt(t, result.Secret, fixture.clock), mfa.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, "MFA_INVALID_CODE", apperr.As(err).Code)
}

func TestSetupRestartReplacesPendingMaterial(t *testing.T) {
	fixture := newFixture(t)
	ctx := context.Background()

	first, err := fixture.service.Setup(ctx, "u1", "ade@medora.health", mfa.RequestMeta{})
	require.NoError(t, err)

	second, err := fixture.service.Setup(ctx, "u1", "ade@medora.health", mfa.RequestMeta{})
	require.NoError(t, err)
	assert.NotEqual(t, first.Secret, second.Secret)

	// A code from the superseded secret no longer verifies setup.
	err = fixture.service.VerifySetup(ctx, "u1", codeAt(t, first.Secret, fixture.clock), mfa.RequestMeta{})
	require.Error(t, err)

	require.NoError(t, fixture.service.VerifySetup(ctx, "u1", codeAt(t, second.Secret, fixture.clock), mfa.RequestMeta{}))
}

func TestSetupConflictsWhenAlreadyEnabled(t *testing.T) {
	fixture := newFixture(t)
	enrolled := enroll(t, fixture, "u1")

	_, err := fixture.service.Setup(context.Background(), "u1", "ade@medora.health", mfa.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)

	// The live secret must be untouched by the rejected call.
	err = fixture.service.Verify(context.Background(), "u1", codeAt(t, enrolled.Secret, fixture.clock), mfa.RequestMeta{})
	require.NoError(t, err)
}

func TestVerifySetupAcceptsAdjacentWindow(t *testing.T) {
	fixture := newFixture(t)
	ctx := context.Background()

	result, err := fixture.service.Setup(ctx, "u1", "ade@medora.health", mfa.RequestMeta{})
	require.NoError(t, err)

	// Code from one step behind the server clock, within the allowed skew.
	stale := codeAt(t, result.Secret, fixture.clock.Add(-30*time.Second))
	require.NoError(t, fixture.service.VerifySetup(ctx, "u1", stale, mfa.RequestMeta{}))
}

func TestVerifySetupRejectsDistantWindow(t *testing.T) {
	fixture := newFixture(t)
	ctx := context.Background()

	result, err := fixture.service.Setup(ctx, "u1", "ade@medora.health", mfa.RequestMeta{})
	require.NoError(t, err)

	old := codeAt(t, result.Secret, fixture.clock.Add(-5*time.Minute))
	err = fixture.service.VerifySetup(ctx, "u1", old, mfa.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, "MFA_INVALID_CODE", apperr.As(err).Code)
}

func TestVerifySetupGenericFailureForNonPendingStates(t *testing.T) {
	fixture := newFixture(t)
	ctx := context.Background()

	// Unenrolled user: same generic error, no state disclosure.
	err := fixture.service.VerifySetup(ctx, "ghost", "123456", mfa.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, "MFA_INVALID_CODE", apperr.As(err).Code)

	// Already enabled: identical error.
	enrolled := enroll(t, fixture, "u1")
	err = fixture.service.VerifySetup(ctx, "u1", codeAt(t, enrolled.Secret, fixture.clock), mfa.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, "MFA_INVALID_CODE", apperr.As(err).Code)
}

func TestVerifyAcceptsBackupCodeOnce(t *testing.T) {
	fixture := newFixture(t)
	ctx := context.Background()
	enrolled := enroll(t, fixture, "u1")

	backup := enrolled.BackupCodes[3]
	require.NoError(t, fixture.service.Verify(ctx, "u1", backup, mfa.RequestMeta{}))

	// Single use: the same code is dead on arrival the second time.
	err := fixture.service.Verify(ctx, "u1", backup, mfa.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, "MFA_INVALID_CODE", apperr.As(err).Code)

	remaining, err := fixture.store.CountBackupCodes(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, mfa.BackupCodeCount-1, remaining)
}

func TestVerifyBackupCodeIsCaseAndSpaceInsensitive(t *testing.T) {
	fixture := newFixture(t)
	enrolled := enroll(t, fixture, "u1")

	noisy := "  " + strings.ToUpper(enrolled.BackupCodes[0]) + " "
	require.NoError(t, fixture.service.Verify(context.Background(), "u1", noisy, mfa.RequestMeta{}))
}

func TestConcurrentBackupCodeConsumptionSingleWinner(t *testing.T) {
	fixture := newFixture(t)
	enrolled := enroll(t, fixture, "u1")
	backup := enrolled.BackupCodes[0]

	const racers = 8
	var wg sync.WaitGroup
	outcomes := make(chan error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes <- fixture.service.Verify(context.Background(), "u1", backup, mfa.RequestMeta{})
		}()
	}
	wg.Wait()
	close(outcomes)

	successes := 0
	for err := range outcomes {
		if err == nil {
			successes++
		} else {
			assert.Equal(t, "MFA_INVALID_CODE", apperr.As(err).Code)
		}
	}
	assert.Equal(t, 1, successes, "exactly one racer may consume the code")
}

func TestDisableRequiresValidCodeAndAllowsReEnrollment(t *testing.T) {
	fixture := newFixture(t)
	ctx := context.Background()
	enrolled := enroll(t, fixture, "u1")

	// Wrong code leaves the enrollment intact.
	err := fixture.service.Disable(ctx, "u1", "000000", mfa.RequestMeta{})
	require.Error(t, err)
	require.NoError(t, fixture.service.Verify(ctx, "u1", codeAt(t, enrolled.Secret, fixture.clock), mfa.RequestMeta{}))

	require.NoError(t, fixture.service.Disable(ctx, "u1", codeAt(t, enrolled.Secret, fixture.clock), mfa.RequestMeta{}))

	// Disabled: old codes are worthless and backup codes are purged.
	err = fixture.service.Verify(ctx, "u1", codeAt(t, enrolled.Secret, fixture.clock), mfa.RequestMeta{})
	require.Error(t, err)
	remaining, err := fixture.store.CountBackupCodes(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, remaining)

	// Re-enrollment restarts the lifecycle with fresh material.
	fresh, err := fixture.service.Setup(ctx, "u1", "ade@medora.health", mfa.RequestMeta{})
	require.NoError(t, err)
	assert.NotEqual(t, enrolled.Secret, fresh.Secret)
	require.NoError(t, fixture.service.VerifySetup(ctx, "u1", codeAt(t, fresh.Secret, fixture.clock), mfa.RequestMeta{}))
}

func TestRegenerateReplacesEntireSet(t *testing.T) {
	fixture := newFixture(t)
	ctx := context.Background()
	enrolled := enroll(t, fixture, "u1")

	// Burn one code so the old set is partially consumed.
	require.NoError(t, fixture.service.Verify(ctx, "u1", enrolled.BackupCodes[0], mfa.RequestMeta{}))

	fresh, err := fixture.service.RegenerateBackupCodes(ctx, "u1", codeAt(t, enrolled.Secret, fixture.clock), mfa.RequestMeta{})
	require.NoError(t, err)
	require.Len(t, fresh, mfa.BackupCodeCount)

	// Old unconsumed codes are invalidated by the swap.
	err = fixture.service.Verify(ctx, "u1", enrolled.BackupCodes[1], mfa.RequestMeta{})
	require.Error(t, err)

	// New codes work.
	require.NoError(t, fixture.service.Verify(ctx, "u1", fresh[0], mfa.RequestMeta{}))
}

func TestRegenerateRejectsBackupCodeAsAuthorization(t *testing.T) {
	fixture := newFixture(t)
	enrolled := enroll(t, fixture, "u1")

	_, err := fixture.service.RegenerateBackupCodes(context.Background(), "u1", enrolled.BackupCodes[0], mfa.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, "MFA_INVALID_CODE", apperr.As(err).Code)

	// The backup code was not consumed by the rejected attempt.
	remaining, err := fixture.store.CountBackupCodes(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, mfa.BackupCodeCount, remaining)
}

func TestVerifyAttemptBudgetLocksOut(t *testing.T) {
	fixture := newFixture(t)
	ctx := context.Background()
	enrolled := enroll(t, fixture, "u1")

	// The enrollment itself consumed budget; exhaust what remains with
	// wrong codes.
	for i := 0; i < mfa.AttemptPolicy.MaxRequests; i++ {
		_ = fixture.service.Verify(ctx, "u1", "000000", mfa.RequestMeta{})
	}

	// Even a correct code is refused while locked out.
	err := fixture.service.Verify(ctx, "u1", codeAt(t, enrolled.Secret, fixture.clock), mfa.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, "RATE_LIMITED", apperr.As(err).Code)

	// Lockout is per user.
	enrolledOther := enroll(t, fixture, "u2")
	require.NoError(t, fixture.service.Verify(ctx, "u2", codeAt(t, enrolledOther.Secret, fixture.clock), mfa.RequestMeta{}))
}

func TestLifecycleTransitionsAreAudited(t *testing.T) {
	fixture := newFixture(t)
	ctx := context.Background()
	enrolled := enroll(t, fixture, "u1")

	require.NoError(t, fixture.service.Verify(ctx, "u1", enrolled.BackupCodes[0], mfa.RequestMeta{}))
	require.NoError(t, fixture.service.Disable(ctx, "u1", enrolled.BackupCodes[1], mfa.RequestMeta{}))

	actions := fixture.trail.actions()
	assert.Contains(t, actions, audit.ActionMFASetupRequested)
	assert.Contains(t, actions, audit.ActionMFAEnabled)
	assert.Contains(t, actions, audit.ActionMFABackupCodeConsumed)
	assert.Contains(t, actions, audit.ActionMFADisabled)
}
