package models

import (
	"time"
)

// AuditAction represents the kind of change being recorded
type AuditAction string

const (
	AuditActionInsert AuditAction = "insert"
	AuditActionUpdate AuditAction = "update"
)

// AuditLogEntry is an append-only record of a data change
type AuditLogEntry struct {
	ID        int64          `db:"id"`
	TableName string         `db:"table_name"`
	RecordID  string         `db:"record_id"`
	Action    AuditAction    `db:"action"`
	OldValue  map[string]any `db:"old_value"`
	NewValue  map[string]any `db:"new_value"`
	IPAddress string         `db:"ip_address"`
	CreatedAt time.Time      `db:"created_at"`
}
