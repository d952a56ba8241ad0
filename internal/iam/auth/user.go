// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

/*
Package auth implements credential verification and the login surface.

It owns the user account entity, password verification, bearer-token
issuance, and session establishment. Every authentication outcome, success
or failure, lands in the audit trail.

# Architecture

  - Service: Orchestrates the login/logout/assume-organization use cases.
  - UserRepository: Abstracted account lookup against Postgres.
  - Sessions and tokens: Two independent credential carriers produced at
    login; a request authenticates with exactly one of them.
*/
package auth

import (
	"context"
	"time"

	"github.com/medora-health/medora/internal/platform/sec"
)

// # Domain Entities

// User represents a provisioned account within an organization.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"` // Explicitly omitted from JSON for security.
	DisplayName    string    `json:"display_name"`
	Role           sec.Role  `json:"role"`
	OrganizationID string    `json:"organization_id"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Principal builds the identity snapshot used by both credential carriers.
func (user *User) Principal() sec.Principal {
	return sec.Principal{
		UserID:                user.ID,
		Username:              user.Username,
		Role:                  user.Role,
		OrganizationID:        user.OrganizationID,
		CurrentOrganizationID: user.OrganizationID,
	}
}

// # Repository Contract

// UserRepository defines the account lookup contract.
type UserRepository interface {

	/*
		Create persists a new account.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Constraint violations or connectivity errors
	*/
	Create(context context.Context, user *User) error

	/*
		FindByUsername loads an account by its unique username.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *User: Hydrated account
		  - error: apperr.NotFound or connectivity errors
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	/*
		FindByID loads an account by primary key.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated account
		  - error: apperr.NotFound or connectivity errors
	*/
	FindByID(context context.Context, id string) (*User, error)
}

// # Field Identifiers

// Field names for validation and response mapping in the auth domain.
const (
	FieldUsername       = "username"
	FieldPassword       = "password"
	FieldOrganizationID = "organization_id"
	FieldToken          = "token"
	FieldUser           = "user"
)
