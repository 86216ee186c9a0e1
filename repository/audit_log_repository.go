package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"mesocratic/database"
	"mesocratic/models"
)

// AuditLogRepository implements the append-only AuditLogRepository interface.
// The table rejects UPDATE and DELETE at the trigger level.
type AuditLogRepository struct {
	q queryable
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *database.DB) *AuditLogRepository {
	return &AuditLogRepository{q: db.Pool}
}

// Append inserts one entry
func (r *AuditLogRepository) Append(ctx context.Context, entry *models.AuditLogEntry) error {
	oldJSON, err := marshalSnapshot(entry.OldValue)
	if err != nil {
		return fmt.Errorf("failed to marshal old value: %w", err)
	}
	newJSON, err := marshalSnapshot(entry.NewValue)
	if err != nil {
		return fmt.Errorf("failed to marshal new value: %w", err)
	}

	query := `
		INSERT INTO audit_log (table_name, record_id, action, old_value, new_value, ip_address)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		entry.TableName,
		entry.RecordID,
		entry.Action,
		oldJSON,
		newJSON,
		entry.IPAddress,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit entry for %s/%s: %w", entry.TableName, entry.RecordID, err)
	}
	return nil
}

// ListByRecord returns the history of one record, oldest first
func (r *AuditLogRepository) ListByRecord(ctx context.Context, tableName, recordID string) ([]*models.AuditLogEntry, error) {
	query := `
		SELECT id, table_name, record_id, action, old_value, new_value, COALESCE(ip_address, ''), created_at
		FROM audit_log
		WHERE table_name = $1 AND record_id = $2
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.q.Query(ctx, query, tableName, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditLogEntry
	for rows.Next() {
		var e models.AuditLogEntry
		var oldJSON, newJSON []byte
		if err := rows.Scan(&e.ID, &e.TableName, &e.RecordID, &e.Action, &oldJSON, &newJSON, &e.IPAddress, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if oldJSON != nil {
			if err := json.Unmarshal(oldJSON, &e.OldValue); err != nil {
				return nil, fmt.Errorf("failed to unmarshal old value: %w", err)
			}
		}
		if newJSON != nil {
			if err := json.Unmarshal(newJSON, &e.NewValue); err != nil {
				return nil, fmt.Errorf("failed to unmarshal new value: %w", err)
			}
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log: %w", err)
	}
	return entries, nil
}

// marshalSnapshot keeps a nil map as SQL NULL rather than JSON null
func marshalSnapshot(v map[string]any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
