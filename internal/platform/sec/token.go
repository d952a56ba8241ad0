// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

// Package sec provides cryptographic primitives, token management, and the
// closed role model for the Medora identity core.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, token signing,
// role normalization) from the domain logic. It acts as an Infrastructure
// service injected into the Application layer via small interfaces.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Sentinel token verification failures.
//
// # Why two values?
//
// An expired token and a malformed/forged token are both rejected, but the
// distinction matters for clients: an expired token means "log in again",
// while a malformed one is a protocol error that retrying will never fix.
var (
	ErrTokenExpired   = errors.New("sec: token expired")
	ErrTokenMalformed = errors.New("sec: token malformed or invalid signature")
)

// TokenClaims represents the payload embedded inside a signed Bearer token.
//
// # Why custom claims?
//
// Embedding identity, role, and organization directly inside the token lets
// the middleware materialize a [Principal] WITHOUT a database round-trip.
// The cost of that statelessness: a stolen token stays valid until expiry.
// There is deliberately no server-side blacklist — revocation happens only
// through key rotation or expiry. Session cookies are the revocable path.
type TokenClaims struct {
	jwt.RegisteredClaims

	// Claim names are abbreviated to keep the token payload small.
	UserID         string `json:"uid"`
	Username       string `json:"unm"`
	Role           string `json:"rol"`
	OrganizationID string `json:"org"`
}

// TokenService signs and verifies Bearer tokens using HMAC-SHA256.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService creates a TokenService from the shared signing secret.
func NewTokenService(signingSecret, issuer string) (*TokenService, error) {
	if signingSecret == "" {
		return nil, errors.New("sec: token signing secret must not be empty")
	}
	return &TokenService{
		secret: []byte(signingSecret),
		issuer: issuer,
	}, nil
}

// IssueToken creates a signed Bearer token for the given principal.
func (service *TokenService) IssueToken(principal Principal, timeToLive time.Duration) (string, time.Time, error) {
	currentTime := time.Now()
	expiresAt := currentTime.Add(timeToLive)

	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:         principal.UserID,
		Username:       principal.Username,
		Role:           string(principal.Role),
		OrganizationID: principal.OrganizationID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, expiresAt, nil
}

// VerifyToken checks the signature and expiry of a Bearer token string and
// reconstructs the embedded [Principal].
//
// # Failure Modes
//   - [ErrTokenExpired]: signature valid but past its expiry.
//   - [ErrTokenMalformed]: anything else (bad signature, wrong alg, garbage).
func (service *TokenService) VerifyToken(tokenString string) (*Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	role, ok := ParseRole(claims.Role)
	if !ok {
		return nil, ErrTokenMalformed
	}

	// A token carries no organization-switch state: the current organization
	// always equals the home organization on the stateless path.
	return &Principal{
		UserID:                claims.UserID,
		Username:              claims.Username,
		Role:                  role,
		OrganizationID:        claims.OrganizationID,
		CurrentOrganizationID: claims.OrganizationID,
	}, nil
}
