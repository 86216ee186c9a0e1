package service

import (
	"context"
	"sync"

	"mesocratic/models"

	log "github.com/sirupsen/logrus"
)

// AuditRecorder appends audit entries on background goroutines. A failed
// append is logged and dropped; the change it describes is never undone.
type AuditRecorder struct {
	repo     AuditLogRepository
	inflight sync.WaitGroup
}

// NewAuditRecorder creates a new audit recorder
func NewAuditRecorder(repo AuditLogRepository) *AuditRecorder {
	return &AuditRecorder{repo: repo}
}

// Record queues entry for append and returns immediately
func (r *AuditRecorder) Record(ctx context.Context, entry *models.AuditLogEntry) {
	ctx = context.WithoutCancel(ctx)
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		if err := r.repo.Append(ctx, entry); err != nil {
			log.WithFields(log.Fields{
				"table":    entry.TableName,
				"recordID": entry.RecordID,
				"action":   entry.Action,
				"error":    err,
			}).Error("Failed to append audit log entry")
		}
	}()
}

// Drain blocks until queued appends finish or ctx is done
func (r *AuditRecorder) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
