package testutil

import (
	"time"

	"mesocratic/models"

	"github.com/google/uuid"
)

// CreateTestDonor creates a donor with a complete address and no
// employer/occupation, the shape that triggers best-efforts follow-up
func CreateTestDonor(firstName, lastName, zip string) *models.Donor {
	return &models.Donor{
		ID:            uuid.New(),
		FirstName:     firstName,
		LastName:      lastName,
		Email:         "donor-" + uuid.NewString()[:8] + "@example.com",
		Street1:       "100 Broad St",
		City:          "Richmond",
		State:         "VA",
		Zip:           zip,
		NormalizedKey: lastName + "|" + firstName + "|" + zip,
	}
}

// CreateTestDonation creates a succeeded donation for a donor
func CreateTestDonation(donorID uuid.UUID, amountCents int64, createdAt time.Time) *models.Donation {
	return &models.Donation{
		ID:          uuid.New(),
		DonorID:     donorID,
		AmountCents: amountCents,
		Status:      models.DonationStatusSucceeded,
		CreatedAt:   createdAt,
	}
}

// CreateTestDisbursement creates a disbursement in the given category
func CreateTestDisbursement(payee string, amountCents int64, on time.Time, category models.DisbursementCategory) *models.Disbursement {
	return &models.Disbursement{
		ID:          uuid.New(),
		PayeeName:   payee,
		Street1:     "9 Main St",
		City:        "Richmond",
		State:       "VA",
		Zip:         "23219",
		AmountCents: amountCents,
		DisbursedOn: on,
		Category:    category,
		Purpose:     "Campaign expense",
	}
}
