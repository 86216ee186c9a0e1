package models

import (
	"time"

	"github.com/google/uuid"
)

// DonationStatus represents the processing state of a donation
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "pending"
	DonationStatusSucceeded DonationStatus = "succeeded"
	DonationStatusFailed    DonationStatus = "failed"
)

// Donation is a single contribution. Amounts are integer cents.
// Seq is a monotonic tie-breaker for donations sharing a timestamp.
type Donation struct {
	ID          uuid.UUID      `db:"id"`
	Seq         int64          `db:"seq"`
	DonorID     uuid.UUID      `db:"donor_id"`
	AmountCents int64          `db:"amount_cents"`
	Status      DonationStatus `db:"status"`
	CreatedAt   time.Time      `db:"created_at"`
}

// DonationWithDonor is a donation joined with its donor's fields
type DonationWithDonor struct {
	Donation
	Donor Donor
}
