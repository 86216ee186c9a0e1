package service

import (
	"context"
	"testing"
	"time"

	"mesocratic/models"
	"mesocratic/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func utcDay(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func testCommittee() models.Committee {
	return models.Committee{
		Name:               "Citizens for Mesa",
		FECID:              "C00123456",
		EIN:                "123456789",
		Street1:            "1 Main St",
		City:               "Richmond",
		State:              "VA",
		Zip:                "23219",
		TreasurerLastName:  "Doe",
		TreasurerFirstName: "Jane",
		CustodianName:      "Jane Doe",
	}
}

func seedDonor(t *testing.T, store *memory.Store, first, last, zip string, createdAt time.Time) *models.Donor {
	t.Helper()
	donor := &models.Donor{
		ID:            uuid.New(),
		FirstName:     first,
		LastName:      last,
		Email:         first + "@example.com",
		Street1:       "10 Grace St",
		City:          "Richmond",
		State:         "VA",
		Zip:           zip,
		NormalizedKey: NormalizeIdentity(last, first, zip),
		CreatedAt:     createdAt,
	}
	require.NoError(t, store.Donors().Create(context.Background(), donor))
	return donor
}

func seedDonation(t *testing.T, store *memory.Store, donor *models.Donor, amountCents int64, at time.Time) *models.Donation {
	t.Helper()
	donation := &models.Donation{
		ID:          uuid.New(),
		DonorID:     donor.ID,
		AmountCents: amountCents,
		Status:      models.DonationStatusSucceeded,
		CreatedAt:   at,
	}
	require.NoError(t, store.Donations().Create(context.Background(), donation))
	return donation
}

func seedDisbursement(t *testing.T, store *memory.Store, payee string, amountCents int64, on time.Time, category models.DisbursementCategory) *models.Disbursement {
	t.Helper()
	d := &models.Disbursement{
		ID:          uuid.New(),
		PayeeName:   payee,
		City:        "Richmond",
		State:       "VA",
		Zip:         "23220",
		AmountCents: amountCents,
		DisbursedOn: on,
		Category:    category,
		Purpose:     "Campaign expense",
	}
	require.NoError(t, store.Disbursements().Create(context.Background(), d))
	return d
}

func quarterly(year int, label string) models.ReportRequest {
	return models.ReportRequest{Year: year, PeriodType: models.PeriodTypeQuarterly, PeriodLabel: label}
}
