// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package schema

// SystemAuditLogTable represents the 'system.auditlog' table
type SystemAuditLogTable struct {
	Table          string
	ID             string
	ActorUserID    string
	OrganizationID string
	Action         string
	EntityType     string
	EntityID       string
	Details        string
	IPAddress      string
	UserAgent      string
	CreatedAt      string
}

// SystemAuditLog is the schema definition for system.auditlog
var SystemAuditLog = SystemAuditLogTable{
	Table:          "system.auditlog",
	ID:             "id",
	ActorUserID:    "actoruserid",
	OrganizationID: "organizationid",
	Action:         "action",
	EntityType:     "entitytype",
	EntityID:       "entityid",
	Details:        "details",
	IPAddress:      "ipaddress",
	UserAgent:      "useragent",
	CreatedAt:      "createdat",
}

// Columns returns all standard column names
func (t SystemAuditLogTable) Columns() []string {
	return []string{
		t.ID, t.ActorUserID, t.OrganizationID, t.Action, t.EntityType,
		t.EntityID, t.Details, t.IPAddress, t.UserAgent, t.CreatedAt,
	}
}
