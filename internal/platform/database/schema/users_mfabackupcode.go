// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package schema

// UserMFABackupCodeTable represents the 'users.mfabackupcode' table
type UserMFABackupCodeTable struct {
	Table     string
	UserID    string
	CodeHash  string
	CreatedAt string
}

// UserMFABackupCode is the schema definition for users.mfabackupcode
var UserMFABackupCode = UserMFABackupCodeTable{
	Table:     "users.mfabackupcode",
	UserID:    "userid",
	CodeHash:  "codehash",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t UserMFABackupCodeTable) Columns() []string {
	return []string{t.UserID, t.CodeHash, t.CreatedAt}
}
