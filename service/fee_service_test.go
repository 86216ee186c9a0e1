package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"mesocratic/models"
	"mesocratic/repository/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFeeSchedule() FeeSchedule {
	return FeeSchedule{
		Rate:       decimal.RequireFromString("0.029"),
		FixedCents: 30,
		PayeeName:  "Stripe, Inc.",
	}
}

func TestComputeFee(t *testing.T) {
	svc := NewFeeService(nil, nil, testFeeSchedule())

	cases := map[int64]int64{
		100_00: 320,
		1_00:   33,
		500:    45, // 14.5 rounds half away from zero
		50:     31, // 1.45 rounds down
		1724:   80, // 49.996 rounds up
		25_00:  103,
	}
	for amount, expected := range cases {
		assert.Equal(t, expected, svc.ComputeFee(amount), "amount %d", amount)
	}
}

func TestCaptureProcessingFee(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	audit := NewAuditRecorder(store.AuditLog())
	svc := NewFeeService(store.Disbursements(), audit, testFeeSchedule())

	donation := &models.Donation{
		ID:          uuid.MustParse("0a1b2c3d-0000-4000-8000-000000000000"),
		DonorID:     uuid.New(),
		AmountCents: 100_00,
		Status:      models.DonationStatusSucceeded,
		CreatedAt:   time.Date(2024, 5, 6, 22, 15, 0, 0, time.UTC),
	}

	fee, err := svc.CaptureProcessingFee(ctx, donation, "198.51.100.4")
	require.NoError(t, err)
	assert.Equal(t, int64(320), fee.AmountCents)
	assert.Equal(t, models.CategoryProcessingFee, fee.Category)
	assert.Equal(t, "Stripe, Inc.", fee.PayeeName)
	assert.Equal(t, utcDay(2024, 5, 6), fee.DisbursedOn)
	assert.Contains(t, fee.Purpose, "SA-0A1B2C3D")

	stored, err := store.Disbursements().ListInRange(ctx, utcDay(2024, 5, 6), utcDay(2024, 5, 7), 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, fee.ID, stored[0].ID)

	drainCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, audit.Drain(drainCtx))
	entries := store.AuditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "disbursements", entries[0].TableName)
	assert.Equal(t, "198.51.100.4", entries[0].IPAddress)
}

func TestCaptureProcessingFee_SkipsUnsettledDonations(t *testing.T) {
	store := memory.NewStore()
	svc := NewFeeService(store.Disbursements(), NewAuditRecorder(store.AuditLog()), testFeeSchedule())

	_, err := svc.CaptureProcessingFee(context.Background(), &models.Donation{
		ID:          uuid.New(),
		AmountCents: 10_00,
		Status:      models.DonationStatusPending,
	}, "")
	assert.True(t, errors.Is(err, models.ErrValidation))
	assert.Equal(t, 0, store.DisbursementCount())
}
