// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package mfa

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medora-health/medora/internal/platform/database/schema"
)

// PostgresStore implements [Store] on users.mfa and users.mfabackupcode.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates the durable MFA store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

/*
GetEnrollment loads a user's enrollment row.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *Enrollment: nil (no error) when the user never enrolled
  - error: Retrieval failures
*/
func (store *PostgresStore) GetEnrollment(context context.Context, userID string) (*Enrollment, error) {
	table := schema.UserMFA
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1`,
		strings.Join(table.Columns(), ", "), table.Table, table.UserID,
	)

	enrollment := &Enrollment{}
	err := store.pool.QueryRow(context, query, userID).Scan(
		&enrollment.UserID,
		&enrollment.Secret,
		&enrollment.Enabled,
		&enrollment.CreatedAt,
		&enrollment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("mfa_store_get_failed: %w", err)
	}

	return enrollment, nil
}

/*
SavePending upserts the enrollment into pending state and installs a fresh
backup-code set in one transaction, so a half-written setup can never exist.

Parameters:
  - context: context.Context
  - userID: string
  - secret: string
  - codeHashes: []string

Returns:
  - error: Persistence failures
*/
func (store *PostgresStore) SavePending(context context.Context, userID, secret string, codeHashes []string) error {
	transaction, err := store.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("mfa_store_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	now := time.Now()
	table := schema.UserMFA
	upsert := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, FALSE, $3, $3)
		ON CONFLICT (%s)
		DO UPDATE SET %s = $2, %s = FALSE, %s = $3`,
		table.Table, strings.Join(table.Columns(), ", "),
		table.UserID, table.Secret, table.Enabled, table.UpdatedAt,
	)

	if _, err := transaction.Exec(context, upsert, userID, secret, now); err != nil {
		return fmt.Errorf("mfa_store_save_pending_failed: %w", err)
	}

	if err := replaceCodesTx(context, transaction, userID, codeHashes); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("mfa_store_commit_failed: %w", err)
	}
	return nil
}

/*
Enable flips a pending enrollment to enabled.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Persistence failures
*/
func (store *PostgresStore) Enable(context context.Context, userID string) error {
	table := schema.UserMFA
	query := fmt.Sprintf(`UPDATE %s SET %s = TRUE, %s = $2 WHERE %s = $1`,
		table.Table, table.Enabled, table.UpdatedAt, table.UserID)

	if _, err := store.pool.Exec(context, query, userID, time.Now()); err != nil {
		return fmt.Errorf("mfa_store_enable_failed: %w", err)
	}
	return nil
}

/*
Disable clears the secret and removes every backup code in one transaction.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Persistence failures
*/
func (store *PostgresStore) Disable(context context.Context, userID string) error {
	transaction, err := store.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("mfa_store_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	table := schema.UserMFA
	clear := fmt.Sprintf(`UPDATE %s SET %s = '', %s = FALSE, %s = $2 WHERE %s = $1`,
		table.Table, table.Secret, table.Enabled, table.UpdatedAt, table.UserID)
	if _, err := transaction.Exec(context, clear, userID, time.Now()); err != nil {
		return fmt.Errorf("mfa_store_disable_failed: %w", err)
	}

	codes := schema.UserMFABackupCode
	purge := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, codes.Table, codes.UserID)
	if _, err := transaction.Exec(context, purge, userID); err != nil {
		return fmt.Errorf("mfa_store_purge_codes_failed: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("mfa_store_commit_failed: %w", err)
	}
	return nil
}

/*
ConsumeBackupCode atomically tests and deletes one backup code.

Description: DELETE's row count is the success signal: the database
serializes racing deletes, so exactly one caller observes RowsAffected==1.

Parameters:
  - context: context.Context
  - userID: string
  - codeHash: string

Returns:
  - bool: true iff this call removed the code
  - error: Persistence failures
*/
func (store *PostgresStore) ConsumeBackupCode(context context.Context, userID, codeHash string) (bool, error) {
	codes := schema.UserMFABackupCode
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
		codes.Table, codes.UserID, codes.CodeHash)

	tag, err := store.pool.Exec(context, query, userID, codeHash)
	if err != nil {
		return false, fmt.Errorf("mfa_store_consume_code_failed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

/*
ReplaceBackupCodes swaps the entire code set inside one transaction.

Parameters:
  - context: context.Context
  - userID: string
  - codeHashes: []string

Returns:
  - error: Persistence failures
*/
func (store *PostgresStore) ReplaceBackupCodes(context context.Context, userID string, codeHashes []string) error {
	transaction, err := store.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("mfa_store_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	if err := replaceCodesTx(context, transaction, userID, codeHashes); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("mfa_store_commit_failed: %w", err)
	}
	return nil
}

/*
CountBackupCodes reports how many unconsumed codes remain.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - int: Remaining codes
  - error: Retrieval failures
*/
func (store *PostgresStore) CountBackupCodes(context context.Context, userID string) (int, error) {
	codes := schema.UserMFABackupCode
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1`, codes.Table, codes.UserID)

	var count int
	if err := store.pool.QueryRow(context, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("mfa_store_count_codes_failed: %w", err)
	}
	return count, nil
}

// replaceCodesTx deletes the current set and inserts the replacement within
// the caller's transaction.
func replaceCodesTx(context context.Context, transaction pgx.Tx, userID string, codeHashes []string) error {
	codes := schema.UserMFABackupCode
	purge := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, codes.Table, codes.UserID)
	if _, err := transaction.Exec(context, purge, userID); err != nil {
		return fmt.Errorf("mfa_store_purge_codes_failed: %w", err)
	}

	insert := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3)`,
		codes.Table, strings.Join(codes.Columns(), ", "))
	now := time.Now()
	for _, hash := range codeHashes {
		if _, err := transaction.Exec(context, insert, userID, hash, now); err != nil {
			return fmt.Errorf("mfa_store_insert_code_failed: %w", err)
		}
	}
	return nil
}
