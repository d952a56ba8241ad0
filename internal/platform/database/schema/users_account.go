// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

// Package schema centralizes physical table and column names.
//
// # Architecture
//
// Repositories reference these definitions when composing SQL so that a
// rename touches exactly one file. Names are lowercase without underscores,
// matching the migration files.
package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table          string
	ID             string
	Username       string
	Email          string
	Password       string
	DisplayName    string
	Role           string
	OrganizationID string
	IsActive       string
	CreatedAt      string
	UpdatedAt      string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:          "users.account",
	ID:             "id",
	Username:       "username",
	Email:          "email",
	Password:       "passwordhash",
	DisplayName:    "displayname",
	Role:           "role",
	OrganizationID: "organizationid",
	IsActive:       "isactive",
	CreatedAt:      "createdat",
	UpdatedAt:      "updatedat",
}

// Columns returns all standard column names
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Username, t.Email, t.Password, t.DisplayName, t.Role,
		t.OrganizationID, t.IsActive, t.CreatedAt, t.UpdatedAt,
	}
}
