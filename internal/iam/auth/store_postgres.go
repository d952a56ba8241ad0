// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medora-health/medora/internal/platform/apperr"
	"github.com/medora-health/medora/internal/platform/database/schema"
	"github.com/medora-health/medora/internal/platform/sec"
)

// # User Repository

// PostgresUserRepository implements [UserRepository] on users.account.
//
// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] values so callers never see pgx internals.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates the PostgreSQL account repository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

/*
Create persists a new account into users.account.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - error: Constraint violations or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	table := schema.UserAccount
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		table.Table, strings.Join(table.Columns(), ", "),
	)

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.Role,
		user.OrganizationID,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByUsername loads an account by its unique username.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - *User: Hydrated account
  - error: apperr.NotFound or connectivity errors
*/
func (repository *PostgresUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	query := selectUser() + fmt.Sprintf(` WHERE %s = $1`, schema.UserAccount.Username)
	return scanOne(repository.pool.QueryRow(context, query, username))
}

/*
FindByID loads an account by primary key.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *User: Hydrated account
  - error: apperr.NotFound or connectivity errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := selectUser() + fmt.Sprintf(` WHERE %s = $1`, schema.UserAccount.ID)
	return scanOne(repository.pool.QueryRow(context, query, id))
}

func selectUser() string {
	table := schema.UserAccount
	return fmt.Sprintf(`SELECT %s FROM %s`, strings.Join(table.Columns(), ", "), table.Table)
}

// scanOne hydrates a single account row. The stored role value is folded
// into its canonical spelling here, so legacy rows ("superadmin",
// hyphenated variants) never leak past the repository.
func scanOne(row pgx.Row) (*User, error) {
	user := &User{}
	var roleValue string
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&roleValue,
		&user.OrganizationID,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_failed: %w", err)
	}

	user.Role = sec.MustParseRole(roleValue)
	return user, nil
}
