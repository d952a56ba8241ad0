// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package schema

// UserMFATable represents the 'users.mfa' table
type UserMFATable struct {
	Table     string
	UserID    string
	Secret    string
	Enabled   string
	CreatedAt string
	UpdatedAt string
}

// UserMFA is the schema definition for users.mfa
var UserMFA = UserMFATable{
	Table:     "users.mfa",
	UserID:    "userid",
	Secret:    "secret",
	Enabled:   "enabled",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

// Columns returns all standard column names
func (t UserMFATable) Columns() []string {
	return []string{t.UserID, t.Secret, t.Enabled, t.CreatedAt, t.UpdatedAt}
}
