// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medora-health/medora/internal/platform/database/schema"
	"github.com/medora-health/medora/pkg/pagination"
)

// PostgresStore implements [Store] on the system.auditlog table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates the durable audit store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

/*
Insert appends one audit row.

Parameters:
  - context: context.Context
  - entry: *Entry

Returns:
  - error: Persistence failures
*/
func (store *PostgresStore) Insert(context context.Context, entry *Entry) error {
	table := schema.SystemAuditLog
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		table.Table,
		table.ID, table.ActorUserID, table.OrganizationID, table.Action, table.EntityType,
		table.EntityID, table.Details, table.IPAddress, table.UserAgent, table.CreatedAt,
	)

	detailsJSON, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("audit_store_details_marshal_failed: %w", err)
	}

	_, err = store.pool.Exec(context, query,
		entry.ID,
		entry.ActorUserID,
		entry.OrganizationID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		detailsJSON,
		entry.IPAddress,
		entry.UserAgent,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit_store_insert_failed: %w", err)
	}

	return nil
}

/*
List returns one page of entries newest-first plus the total match count.

Parameters:
  - context: context.Context
  - filter: Filter
  - page: pagination.Params

Returns:
  - []Entry: Hydrated entries
  - int: Total matches
  - error: Retrieval failures
*/
func (store *PostgresStore) List(context context.Context, filter Filter, page pagination.Params) ([]Entry, int, error) {
	// Filters are optional; empty string disables each predicate.
	table := schema.SystemAuditLog
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total
		FROM %s
		WHERE ($1 = '' OR %s = $1)
		  AND ($2 = '' OR %s = $2)
		  AND ($3 = '' OR %s = $3)
		ORDER BY %s DESC
		LIMIT $4 OFFSET $5`,
		strings.Join(table.Columns(), ", "),
		table.Table,
		table.ActorUserID,
		table.Action,
		table.OrganizationID,
		table.CreatedAt,
	)

	rows, err := store.pool.Query(context, query,
		filter.ActorUserID,
		filter.Action,
		filter.OrganizationID,
		page.Limit,
		page.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("audit_store_list_failed: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, page.Limit)
	total := 0

	for rows.Next() {
		var entry Entry
		var detailsJSON []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.ActorUserID,
			&entry.OrganizationID,
			&entry.Action,
			&entry.EntityType,
			&entry.EntityID,
			&detailsJSON,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.CreatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("audit_store_scan_failed: %w", err)
		}

		if len(detailsJSON) > 0 {
			_ = json.Unmarshal(detailsJSON, &entry.Details)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("audit_store_rows_failed: %w", err)
	}

	return entries, total, nil
}
