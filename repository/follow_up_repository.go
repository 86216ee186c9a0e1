package repository

import (
	"context"
	"fmt"
	"time"

	"mesocratic/database"
	"mesocratic/models"

	"github.com/google/uuid"
)

// FollowUpRepository implements the FollowUpRepository interface
type FollowUpRepository struct {
	q queryable
}

// NewFollowUpRepository creates a new follow-up attempt repository
func NewFollowUpRepository(db *database.DB) *FollowUpRepository {
	return &FollowUpRepository{q: db.Pool}
}

// ListAttempts returns a donor's attempts of one type ordered by attempt number
func (r *FollowUpRepository) ListAttempts(ctx context.Context, donorID uuid.UUID, followUpType models.FollowUpType) ([]*models.FollowUpAttempt, error) {
	query := `
		SELECT id, donor_id, donation_id, follow_up_type, attempt_number, sent_at, response_received_at
		FROM follow_up_attempts
		WHERE donor_id = $1 AND follow_up_type = $2
		ORDER BY attempt_number ASC
	`

	rows, err := r.q.Query(ctx, query, donorID, followUpType)
	if err != nil {
		return nil, fmt.Errorf("failed to query follow-up attempts for donor %s: %w", donorID, err)
	}
	defer rows.Close()

	var attempts []*models.FollowUpAttempt
	for rows.Next() {
		var a models.FollowUpAttempt
		if err := rows.Scan(&a.ID, &a.DonorID, &a.DonationID, &a.Type, &a.AttemptNumber, &a.SentAt, &a.ResponseReceivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan follow-up attempt: %w", err)
		}
		attempts = append(attempts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating follow-up attempts: %w", err)
	}
	return attempts, nil
}

// ClaimAttempt inserts an attempt slot. The unique (donor_id,
// follow_up_type, attempt_number) constraint decides between concurrent
// claimers; the loser gets false.
func (r *FollowUpRepository) ClaimAttempt(ctx context.Context, attempt *models.FollowUpAttempt) (bool, error) {
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	if attempt.AttemptNumber < 1 {
		return false, models.NewValidationError("attempt_number", "must be at least 1, got %d", attempt.AttemptNumber)
	}

	query := `
		INSERT INTO follow_up_attempts (id, donor_id, donation_id, follow_up_type, attempt_number, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (donor_id, follow_up_type, attempt_number) DO NOTHING
	`

	tag, err := r.q.Exec(ctx, query,
		attempt.ID, attempt.DonorID, attempt.DonationID, attempt.Type, attempt.AttemptNumber, attempt.SentAt)
	if err != nil {
		return false, fmt.Errorf("failed to claim follow-up attempt %d for donor %s: %w", attempt.AttemptNumber, attempt.DonorID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseAttempt deletes a claimed slot that was never answered
func (r *FollowUpRepository) ReleaseAttempt(ctx context.Context, attemptID uuid.UUID) error {
	query := `DELETE FROM follow_up_attempts WHERE id = $1 AND response_received_at IS NULL`

	if _, err := r.q.Exec(ctx, query, attemptID); err != nil {
		return fmt.Errorf("failed to release follow-up attempt %s: %w", attemptID, err)
	}
	return nil
}

// MarkResponseReceived stamps an attempt once; a second stamp is a no-op
func (r *FollowUpRepository) MarkResponseReceived(ctx context.Context, attemptID uuid.UUID, at time.Time) error {
	query := `
		UPDATE follow_up_attempts
		SET response_received_at = $2
		WHERE id = $1 AND response_received_at IS NULL
	`

	tag, err := r.q.Exec(ctx, query, attemptID, at)
	if err != nil {
		return fmt.Errorf("failed to mark follow-up %s received: %w", attemptID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM follow_up_attempts WHERE id = $1)`, attemptID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check follow-up %s: %w", attemptID, err)
		}
		if !exists {
			return fmt.Errorf("follow-up attempt %s: %w", attemptID, models.ErrNotFound)
		}
	}
	return nil
}
