package service

import (
	"context"
	"fmt"
	"time"

	"mesocratic/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// FeeSchedule describes the card processor's pricing
type FeeSchedule struct {
	Rate       decimal.Decimal
	FixedCents int64
	PayeeName  string
}

// feeService implements the FeeService interface
type feeService struct {
	disbursementRepo DisbursementRepository
	audit            AuditLogger
	schedule         FeeSchedule
}

// NewFeeService creates a new fee service
func NewFeeService(disbursementRepo DisbursementRepository, audit AuditLogger, schedule FeeSchedule) FeeService {
	return &feeService{
		disbursementRepo: disbursementRepo,
		audit:            audit,
		schedule:         schedule,
	}
}

// ComputeFee returns round(amount * rate) + fixed, rounding half away from zero
func (s *feeService) ComputeFee(amountCents int64) int64 {
	variable := decimal.NewFromInt(amountCents).Mul(s.schedule.Rate).Round(0).IntPart()
	return variable + s.schedule.FixedCents
}

// CaptureProcessingFee records the processor's cut of a succeeded donation
// as a processing_fee disbursement dated on the donation's day
func (s *feeService) CaptureProcessingFee(ctx context.Context, donation *models.Donation, ipAddress string) (*models.Disbursement, error) {
	if donation.Status != models.DonationStatusSucceeded {
		return nil, models.NewValidationError("status", "fees are only captured for succeeded donations, got %q", donation.Status)
	}

	created := donation.CreatedAt.UTC()
	fee := &models.Disbursement{
		ID:          uuid.New(),
		PayeeName:   s.schedule.PayeeName,
		AmountCents: s.ComputeFee(donation.AmountCents),
		DisbursedOn: time.Date(created.Year(), created.Month(), created.Day(), 0, 0, 0, 0, time.UTC),
		Category:    models.CategoryProcessingFee,
		Purpose:     fmt.Sprintf("Payment processing fee for contribution %s", models.TransactionID("SA-", donation.ID)),
	}
	if err := fee.Validate(); err != nil {
		return nil, err
	}

	if err := s.disbursementRepo.Create(ctx, fee); err != nil {
		return nil, fmt.Errorf("failed to record processing fee for donation %s: %w", donation.ID, err)
	}

	s.audit.Record(ctx, &models.AuditLogEntry{
		TableName: "disbursements",
		RecordID:  fee.ID.String(),
		Action:    models.AuditActionInsert,
		NewValue:  disbursementSnapshot(fee),
		IPAddress: ipAddress,
	})

	log.WithFields(log.Fields{
		"donationID": donation.ID,
		"feeCents":   fee.AmountCents,
	}).Debug("Captured processing fee")

	return fee, nil
}

func disbursementSnapshot(d *models.Disbursement) map[string]any {
	return map[string]any{
		"payee_name":   d.PayeeName,
		"amount_cents": d.AmountCents,
		"disbursed_on": d.DisbursedOn.Format("2006-01-02"),
		"category":     string(d.Category),
		"purpose":      d.Purpose,
	}
}
