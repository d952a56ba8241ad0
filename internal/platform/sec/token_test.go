// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medora-health/medora/internal/platform/sec"
)

const testSigningSecret = "0123456789abcdef0123456789abcdef"

func newTokenService(t *testing.T) *sec.TokenService {
	t.Helper()
	service, err := sec.NewTokenService(testSigningSecret, "medora.health")
	require.NoError(t, err)
	return service
}

func testPrincipal() sec.Principal {
	return sec.Principal{
		UserID:                "0195a1b2-0000-7000-8000-000000000001",
		Username:              "drhouse",
		Role:                  sec.RoleDoctor,
		OrganizationID:        "0195a1b2-0000-7000-8000-0000000000aa",
		CurrentOrganizationID: "0195a1b2-0000-7000-8000-0000000000aa",
	}
}

func TestNewTokenServiceRejectsEmptySecret(t *testing.T) {
	_, err := sec.NewTokenService("", "medora.health")
	require.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	service := newTokenService(t)
	principal := testPrincipal()

	token, expiresAt, err := service.IssueToken(principal, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	verified, err := service.VerifyToken(token)
	require.NoError(t, err)

	assert.Equal(t, principal.UserID, verified.UserID)
	assert.Equal(t, principal.Username, verified.Username)
	assert.Equal(t, principal.Role, verified.Role)
	assert.Equal(t, principal.OrganizationID, verified.OrganizationID)

	// The stateless path carries no switch state: current == home.
	assert.Equal(t, verified.OrganizationID, verified.CurrentOrganizationID)
}

func TestVerifyTokenExpired(t *testing.T) {
	service := newTokenService(t)

	token, _, err := service.IssueToken(testPrincipal(), -time.Minute)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	require.ErrorIs(t, err, sec.ErrTokenExpired)
}

func TestVerifyTokenMalformed(t *testing.T) {
	service := newTokenService(t)

	for _, token := range []string{
		"",
		"not-a-token",
		"aaaa.bbbb.cccc",
	} {
		_, err := service.VerifyToken(token)
		assert.ErrorIs(t, err, sec.ErrTokenMalformed, "token %q", token)
	}
}

func TestVerifyTokenRejectsForeignSignature(t *testing.T) {
	service := newTokenService(t)

	foreign, err := sec.NewTokenService("ffffffffffffffffffffffffffffffff", "medora.health")
	require.NoError(t, err)

	token, _, err := foreign.IssueToken(testPrincipal(), time.Hour)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	require.ErrorIs(t, err, sec.ErrTokenMalformed)
}

func TestVerifyTokenRejectsUnknownRole(t *testing.T) {
	service := newTokenService(t)

	principal := testPrincipal()
	principal.Role = sec.Role("intruder")

	token, _, err := service.IssueToken(principal, time.Hour)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	require.ErrorIs(t, err, sec.ErrTokenMalformed)
}

func TestHashTokenIsDeterministicDigest(t *testing.T) {
	first := sec.HashToken("abcde-fghij")
	second := sec.HashToken("abcde-fghij")
	other := sec.HashToken("abcde-fghik")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Len(t, first, 64)
}

func TestGenerateSecureTokenLengthAndUniqueness(t *testing.T) {
	first, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	second, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	assert.Len(t, first, 64)
	assert.NotEqual(t, first, second)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := sec.HashPassword("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, sec.CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, sec.CheckPasswordHash("wrong password", hash))
}
