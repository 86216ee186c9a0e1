package service

import (
	"context"
	"fmt"
	"strings"

	"mesocratic/events"
	"mesocratic/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ledgerService implements the LedgerService interface
type ledgerService struct {
	uowFactory UnitOfWorkFactory
	audit      AuditLogger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory, audit AuditLogger) LedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
		audit:      audit,
	}
}

// RecordDonation stores a donation, creating the donor on first gift. The
// DonationRecordedEvent is only published once the transaction commits.
func (s *ledgerService) RecordDonation(ctx context.Context, donor *models.Donor, donation *models.Donation, ipAddress string) (*models.Donation, error) {
	if donation.AmountCents <= 0 {
		return nil, models.NewValidationError("amount_cents", "must be positive, got %d", donation.AmountCents)
	}
	switch donation.Status {
	case models.DonationStatusPending, models.DonationStatusSucceeded, models.DonationStatusFailed:
	default:
		return nil, models.NewValidationError("status", "unknown donation status %q", donation.Status)
	}
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	var existing *models.Donor
	if donor.ID != uuid.Nil {
		found, err := uow.DonorRepository().GetByID(ctx, donor.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get donor: %w", err)
		}
		existing = found
	}
	createdDonor := existing == nil
	if createdDonor {
		if strings.TrimSpace(donor.LastName) == "" {
			return nil, models.NewValidationError("last_name", "is required for a new donor")
		}
		donor.NormalizedKey = NormalizeIdentity(donor.LastName, donor.FirstName, donor.Zip)
		if err := uow.DonorRepository().Create(ctx, donor); err != nil {
			return nil, fmt.Errorf("failed to create donor: %w", err)
		}
	} else {
		donor = existing
	}

	donation.DonorID = donor.ID
	if err := uow.DonationRepository().Create(ctx, donation); err != nil {
		return nil, fmt.Errorf("failed to create donation: %w", err)
	}

	uow.EventBus().Publish(events.DonationRecordedEvent{
		DonationID:  donation.ID,
		DonorID:     donation.DonorID,
		AmountCents: donation.AmountCents,
		Succeeded:   donation.Status == models.DonationStatusSucceeded,
		RecordedAt:  donation.CreatedAt,
		IPAddress:   ipAddress,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if createdDonor {
		s.audit.Record(ctx, &models.AuditLogEntry{
			TableName: "donors",
			RecordID:  donor.ID.String(),
			Action:    models.AuditActionInsert,
			NewValue:  donorSnapshot(donor),
			IPAddress: ipAddress,
		})
	}
	s.audit.Record(ctx, &models.AuditLogEntry{
		TableName: "donations",
		RecordID:  donation.ID.String(),
		Action:    models.AuditActionInsert,
		NewValue: map[string]any{
			"donor_id":     donation.DonorID.String(),
			"amount_cents": donation.AmountCents,
			"status":       string(donation.Status),
		},
		IPAddress: ipAddress,
	})

	log.WithFields(log.Fields{
		"donationID":  donation.ID,
		"donorID":     donation.DonorID,
		"amountCents": donation.AmountCents,
		"newDonor":    createdDonor,
	}).Info("Recorded donation")

	return donation, nil
}

// RecordDisbursement validates and stores a disbursement
func (s *ledgerService) RecordDisbursement(ctx context.Context, disbursement *models.Disbursement, ipAddress string) (*models.Disbursement, error) {
	if err := disbursement.Validate(); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	if err := uow.DisbursementRepository().Create(ctx, disbursement); err != nil {
		return nil, fmt.Errorf("failed to create disbursement: %w", err)
	}

	uow.EventBus().Publish(events.DisbursementRecordedEvent{
		DisbursementID: disbursement.ID,
		AmountCents:    disbursement.AmountCents,
		Category:       string(disbursement.Category),
		IPAddress:      ipAddress,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.audit.Record(ctx, &models.AuditLogEntry{
		TableName: "disbursements",
		RecordID:  disbursement.ID.String(),
		Action:    models.AuditActionInsert,
		NewValue:  disbursementSnapshot(disbursement),
		IPAddress: ipAddress,
	})

	return disbursement, nil
}

func donorSnapshot(d *models.Donor) map[string]any {
	return map[string]any{
		"first_name": d.FirstName,
		"last_name":  d.LastName,
		"email":      d.Email,
		"city":       d.City,
		"state":      d.State,
		"zip":        d.Zip,
		"employer":   d.Employer,
		"occupation": d.Occupation,
	}
}

// RegisterSubscribers wires the post-commit background work onto the bus:
// follow-up evaluation and fee capture for succeeded donations.
func RegisterSubscribers(bus *events.Bus, followUps FollowUpService, fees FeeService) {
	bus.Subscribe(events.EventTypeDonationRecorded, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.DonationRecordedEvent)
		if !ok || !e.Succeeded {
			return
		}
		outcome := followUps.Evaluate(ctx, e.DonorID, e.DonationID)
		log.WithFields(log.Fields{
			"donationID": e.DonationID,
			"outcome":    outcome,
		}).Debug("Evaluated best-efforts follow-up")
	})

	bus.Subscribe(events.EventTypeDonationRecorded, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.DonationRecordedEvent)
		if !ok || !e.Succeeded {
			return
		}
		donation := &models.Donation{
			ID:          e.DonationID,
			DonorID:     e.DonorID,
			AmountCents: e.AmountCents,
			Status:      models.DonationStatusSucceeded,
			CreatedAt:   e.RecordedAt,
		}
		if _, err := fees.CaptureProcessingFee(ctx, donation, e.IPAddress); err != nil {
			log.WithFields(log.Fields{
				"donationID": e.DonationID,
				"error":      err,
			}).Error("Failed to capture processing fee")
		}
	})

	bus.Subscribe(events.EventTypeDisbursementRecorded, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.DisbursementRecordedEvent)
		if !ok {
			return
		}
		log.WithFields(log.Fields{
			"disbursementID": e.DisbursementID,
			"amountCents":    e.AmountCents,
			"category":       e.Category,
		}).Info("Recorded disbursement")
	})
}
