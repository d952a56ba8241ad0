// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/medora-health/medora/pkg/uuid"
)

// Logger writes audit entries to the primary store and escalates failures
// to the process log so entries are never dropped silently.
type Logger struct {
	store    Store
	fallback *slog.Logger
}

// NewLogger constructs an audit Logger.
func NewLogger(store Store, fallback *slog.Logger) *Logger {
	return &Logger{store: store, fallback: fallback}
}

/*
Log appends one audit entry.

Description: Assigns id and timestamp, then persists. A persistence failure
is NOT returned to the caller — the primary action must complete — but the
full entry is written to the secondary slog channel at ERROR level so the
gap in the trail stays visible.

Parameters:
  - context: context.Context
  - entry: Entry (ID and CreatedAt are assigned here)
*/
func (logger *Logger) Log(context context.Context, entry Entry) {
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()

	if err := logger.store.Insert(context, &entry); err != nil {
		logger.fallback.ErrorContext(context, "audit_sink_unavailable_entry_escalated",
			slog.Any("error", err),
			slog.String("audit_id", entry.ID),
			slog.String("actor_user_id", entry.ActorUserID),
			slog.String("organization_id", entry.OrganizationID),
			slog.String("action", entry.Action),
			slog.String("entity_type", entry.EntityType),
			slog.String("entity_id", entry.EntityID),
			slog.String("ip_address", entry.IPAddress),
			slog.Any("details", entry.Details),
		)
	}
}
