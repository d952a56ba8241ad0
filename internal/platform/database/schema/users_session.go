// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package schema

// UserSessionTable represents the 'users.session' table
type UserSessionTable struct {
	Table                 string
	ID                    string
	UserID                string
	Username              string
	Role                  string
	OrganizationID        string
	CurrentOrganizationID string
	CreatedAt             string
	LastActivity          string
}

// UserSession is the schema definition for users.session
var UserSession = UserSessionTable{
	Table:                 "users.session",
	ID:                    "id",
	UserID:                "userid",
	Username:              "username",
	Role:                  "role",
	OrganizationID:        "organizationid",
	CurrentOrganizationID: "currentorganizationid",
	CreatedAt:             "createdat",
	LastActivity:          "lastactivity",
}

// Columns returns all standard column names
func (t UserSessionTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.Username, t.Role, t.OrganizationID,
		t.CurrentOrganizationID, t.CreatedAt, t.LastActivity,
	}
}
