// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medora-health/medora/internal/platform/apperr"
	"github.com/medora-health/medora/internal/platform/constants"
	"github.com/medora-health/medora/internal/platform/database/schema"
	"github.com/medora-health/medora/internal/platform/sec"
)

// PostgresStore implements [Store] on the users.session table.
type PostgresStore struct {
	pool   *pgxpool.Pool
	maxAge time.Duration
}

// NewPostgresStore creates the durable session store.
func NewPostgresStore(pool *pgxpool.Pool, maxAge time.Duration) *PostgresStore {
	if maxAge <= 0 {
		maxAge = constants.DefaultSessionMaxAge
	}
	return &PostgresStore{pool: pool, maxAge: maxAge}
}

/*
Create persists a new session row with a fresh random identifier.

Parameters:
  - context: context.Context
  - principal: sec.Principal

Returns:
  - string: Session id
  - error: Persistence failures
*/
func (store *PostgresStore) Create(context context.Context, principal sec.Principal) (string, error) {
	sessionID, err := sec.GenerateSecureToken(constants.SessionIDLength)
	if err != nil {
		return "", fmt.Errorf("session_store_id_generation_failed: %w", err)
	}

	table := schema.UserSession
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		table.Table, strings.Join(table.Columns(), ", "),
	)

	now := time.Now()
	_, err = store.pool.Exec(context, query,
		sessionID,
		principal.UserID,
		principal.Username,
		string(principal.Role),
		principal.OrganizationID,
		principal.CurrentOrganizationID,
		now,
	)
	if err != nil {
		return "", fmt.Errorf("session_store_create_failed: %w", err)
	}

	return sessionID, nil
}

/*
Get loads a session and enforces sliding expiry.

Description: An expired row is deleted opportunistically and reported as
absent; the caller cannot distinguish "never existed" from "expired",
which is deliberate.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - *Session: Hydrated session
  - error: apperr.Unauthenticated or database errors
*/
func (store *PostgresStore) Get(context context.Context, sessionID string) (*Session, error) {
	table := schema.UserSession
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1`,
		strings.Join(table.Columns(), ", "), table.Table, table.ID,
	)

	loaded := &Session{}
	var roleValue string
	err := store.pool.QueryRow(context, query, sessionID).Scan(
		&loaded.ID,
		&loaded.Principal.UserID,
		&loaded.Principal.Username,
		&roleValue,
		&loaded.Principal.OrganizationID,
		&loaded.Principal.CurrentOrganizationID,
		&loaded.CreatedAt,
		&loaded.LastActivity,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Unauthenticated("Session is invalid or expired")
		}
		return nil, fmt.Errorf("session_store_get_failed: %w", err)
	}

	if loaded.Expired(time.Now(), store.maxAge) {
		_ = store.Destroy(context, sessionID)
		return nil, apperr.Unauthenticated("Session is invalid or expired")
	}

	loaded.Principal.Role = sec.MustParseRole(roleValue)
	return loaded, nil
}

/*
Touch refreshes the session's LastActivity timestamp.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - error: Persistence failures
*/
func (store *PostgresStore) Touch(context context.Context, sessionID string) error {
	table := schema.UserSession
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`,
		table.Table, table.LastActivity, table.ID)

	if _, err := store.pool.Exec(context, query, sessionID, time.Now()); err != nil {
		return fmt.Errorf("session_store_touch_failed: %w", err)
	}
	return nil
}

/*
Destroy removes the session row. Idempotent.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - error: Persistence failures
*/
func (store *PostgresStore) Destroy(context context.Context, sessionID string) error {
	table := schema.UserSession
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table.Table, table.ID)

	if _, err := store.pool.Exec(context, query, sessionID); err != nil {
		return fmt.Errorf("session_store_destroy_failed: %w", err)
	}
	return nil
}

/*
AssumeOrganization rewrites the snapshot's CurrentOrganizationID.

Parameters:
  - context: context.Context
  - sessionID: string
  - organizationID: string

Returns:
  - error: apperr.Unauthenticated when the session is absent
*/
func (store *PostgresStore) AssumeOrganization(context context.Context, sessionID, organizationID string) error {
	table := schema.UserSession
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`,
		table.Table, table.CurrentOrganizationID, table.ID)

	tag, err := store.pool.Exec(context, query, sessionID, organizationID)
	if err != nil {
		return fmt.Errorf("session_store_assume_org_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Unauthenticated("Session is invalid or expired")
	}
	return nil
}

/*
DeleteExpired physically removes rows whose sliding window has lapsed.
Run periodically; correctness does not depend on it because Get enforces
expiry on read.

Parameters:
  - context: context.Context

Returns:
  - error: Persistence failures
*/
func (store *PostgresStore) DeleteExpired(context context.Context) error {
	table := schema.UserSession
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s < $1`, table.Table, table.LastActivity)

	cutoff := time.Now().Add(-store.maxAge)
	if _, err := store.pool.Exec(context, query, cutoff); err != nil {
		return fmt.Errorf("session_store_delete_expired_failed: %w", err)
	}
	return nil
}
