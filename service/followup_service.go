package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mesocratic/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// followUpService implements the FollowUpService interface. All workflow
// state lives in the follow-up attempt rows; nothing is cached here.
type followUpService struct {
	donorRepo    DonorRepository
	donationRepo DonationRepository
	followUpRepo FollowUpRepository
	notifier     FollowUpNotifier
	audit        AuditLogger
	now          func() time.Time
}

// NewFollowUpService creates a new follow-up service
func NewFollowUpService(
	donorRepo DonorRepository,
	donationRepo DonationRepository,
	followUpRepo FollowUpRepository,
	notifier FollowUpNotifier,
	audit AuditLogger,
) FollowUpService {
	return &followUpService{
		donorRepo:    donorRepo,
		donationRepo: donationRepo,
		followUpRepo: followUpRepo,
		notifier:     notifier,
		audit:        audit,
		now:          time.Now,
	}
}

// Evaluate runs one step of the employer/occupation workflow for a donor.
// Every failure is logged and reported as FollowUpOutcomeFailed; the next
// qualifying donation triggers another evaluation.
func (s *followUpService) Evaluate(ctx context.Context, donorID, donationID uuid.UUID) models.FollowUpOutcome {
	now := s.now().UTC()
	logger := log.WithFields(log.Fields{
		"donorID":    donorID,
		"donationID": donationID,
	})

	donor, err := s.donorRepo.GetByID(ctx, donorID)
	if err != nil {
		logger.WithError(err).Error("Failed to load donor for follow-up")
		return models.FollowUpOutcomeFailed
	}
	if donor == nil {
		logger.Warn("Donor not found for follow-up")
		return models.FollowUpOutcomeFailed
	}

	missing := donor.MissingFields()
	if len(missing) == 0 {
		return models.FollowUpOutcomeNotRequired
	}

	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	ytd, err := s.donationRepo.SumSucceededForDonor(ctx, donorID, yearStart, yearStart.AddDate(1, 0, 0))
	if err != nil {
		logger.WithError(err).Error("Failed to compute year-to-date aggregate for follow-up")
		return models.FollowUpOutcomeFailed
	}
	if ytd <= models.ItemizationThresholdCents {
		return models.FollowUpOutcomeNotRequired
	}

	attempts, err := s.followUpRepo.ListAttempts(ctx, donorID, models.FollowUpTypeEmployerOccupation)
	if err != nil {
		logger.WithError(err).Error("Failed to list follow-up attempts")
		return models.FollowUpOutcomeFailed
	}

	switch models.DeriveFollowUpState(attempts) {
	case models.FollowUpStateCompleted:
		return models.FollowUpOutcomeCompleted
	case models.FollowUpStateExhausted:
		logger.Debug("Follow-up attempts exhausted")
		return models.FollowUpOutcomeExhausted
	case models.FollowUpStateSent:
		last := attempts[len(attempts)-1]
		if now.Sub(last.SentAt) < models.FollowUpCooldown {
			logger.WithField("lastSentAt", last.SentAt).Debug("Follow-up deferred until cooldown elapses")
			return models.FollowUpOutcomeDeferred
		}
	}

	// The attempt slot is claimed before anything is sent. A concurrent
	// evaluation for the same donor loses the claim and defers.
	attempt := &models.FollowUpAttempt{
		ID:            uuid.New(),
		DonorID:       donor.ID,
		DonationID:    donationID,
		Type:          models.FollowUpTypeEmployerOccupation,
		AttemptNumber: len(attempts) + 1,
		SentAt:        now,
	}
	claimed, err := s.followUpRepo.ClaimAttempt(ctx, attempt)
	if err != nil {
		logger.WithError(err).Error("Failed to claim follow-up attempt")
		return models.FollowUpOutcomeFailed
	}
	if !claimed {
		logger.WithField("attempt", attempt.AttemptNumber).Debug("Follow-up attempt already claimed by another evaluation")
		return models.FollowUpOutcomeDeferred
	}

	request := &models.FollowUpRequest{
		DonorID:       donor.ID,
		DonationID:    donationID,
		Email:         donor.Email,
		FirstName:     donor.FirstName,
		Attempt:       attempt.AttemptNumber,
		MissingFields: missing,
		RequestedAt:   now,
	}
	if err := s.notifier.SendFollowUp(ctx, request); err != nil {
		logger.WithError(err).Error("Failed to send follow-up request")
		if releaseErr := s.followUpRepo.ReleaseAttempt(ctx, attempt.ID); releaseErr != nil {
			logger.WithError(releaseErr).Error("Failed to release unsent follow-up attempt")
		}
		return models.FollowUpOutcomeFailed
	}

	s.audit.Record(ctx, &models.AuditLogEntry{
		TableName: "follow_up_attempts",
		RecordID:  attempt.ID.String(),
		Action:    models.AuditActionInsert,
		NewValue: map[string]any{
			"donor_id":       attempt.DonorID.String(),
			"donation_id":    attempt.DonationID.String(),
			"follow_up_type": string(attempt.Type),
			"attempt_number": attempt.AttemptNumber,
			"sent_at":        attempt.SentAt.Format(time.RFC3339),
		},
	})

	logger.WithFields(log.Fields{
		"attempt": request.Attempt,
		"missing": missing,
	}).Info("Sent best-efforts follow-up")

	return models.FollowUpOutcomeSent
}

// MarkReceived stores the donor's response. The most recent unanswered
// attempt is stamped, which completes the workflow for the donor.
func (s *followUpService) MarkReceived(ctx context.Context, donorID uuid.UUID, employer, occupation, ipAddress string) error {
	employer = strings.TrimSpace(employer)
	occupation = strings.TrimSpace(occupation)
	if employer == "" && occupation == "" {
		return models.NewValidationError("employer_occupation", "at least one of employer or occupation is required")
	}

	donor, err := s.donorRepo.GetByID(ctx, donorID)
	if err != nil {
		return fmt.Errorf("failed to get donor %s: %w", donorID, err)
	}
	if donor == nil {
		return fmt.Errorf("donor %s: %w", donorID, models.ErrNotFound)
	}

	// A blank answer keeps whatever was already on file
	if employer == "" {
		employer = donor.Employer
	}
	if occupation == "" {
		occupation = donor.Occupation
	}

	if err := s.donorRepo.UpdateEmployerOccupation(ctx, donorID, employer, occupation); err != nil {
		return fmt.Errorf("failed to update donor %s: %w", donorID, err)
	}
	s.audit.Record(ctx, &models.AuditLogEntry{
		TableName: "donors",
		RecordID:  donorID.String(),
		Action:    models.AuditActionUpdate,
		OldValue:  map[string]any{"employer": donor.Employer, "occupation": donor.Occupation},
		NewValue:  map[string]any{"employer": employer, "occupation": occupation},
		IPAddress: ipAddress,
	})

	attempts, err := s.followUpRepo.ListAttempts(ctx, donorID, models.FollowUpTypeEmployerOccupation)
	if err != nil {
		return fmt.Errorf("failed to list follow-up attempts for donor %s: %w", donorID, err)
	}
	if len(attempts) == 0 {
		return nil
	}

	latest := attempts[len(attempts)-1]
	if latest.ResponseReceivedAt != nil {
		return nil
	}
	receivedAt := s.now().UTC()
	if err := s.followUpRepo.MarkResponseReceived(ctx, latest.ID, receivedAt); err != nil {
		return fmt.Errorf("failed to mark follow-up %s received: %w", latest.ID, err)
	}
	s.audit.Record(ctx, &models.AuditLogEntry{
		TableName: "follow_up_attempts",
		RecordID:  latest.ID.String(),
		Action:    models.AuditActionUpdate,
		OldValue:  map[string]any{"response_received_at": nil},
		NewValue:  map[string]any{"response_received_at": receivedAt.Format(time.RFC3339)},
		IPAddress: ipAddress,
	})

	log.WithFields(log.Fields{
		"donorID":   donorID,
		"attemptID": latest.ID,
	}).Info("Recorded follow-up response")

	return nil
}
