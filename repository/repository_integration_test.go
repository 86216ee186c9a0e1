package repository

import (
	"context"
	"testing"
	"time"

	"mesocratic/events"
	"mesocratic/models"
	"mesocratic/repository/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDonorRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewDonorRepository(testDB.DB)
	ctx := context.Background()

	t.Run("missing donor", func(t *testing.T) {
		donor, err := repo.GetByID(ctx, testutil.CreateTestDonor("A", "B", "1").ID)
		require.NoError(t, err)
		assert.Nil(t, donor)
	})

	t.Run("create and update", func(t *testing.T) {
		donor := testutil.CreateTestDonor("Ann", "Smith", "23220")
		require.NoError(t, repo.Create(ctx, donor))
		assert.False(t, donor.CreatedAt.IsZero())

		loaded, err := repo.GetByID(ctx, donor.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, "", loaded.Employer)
		assert.Equal(t, donor.NormalizedKey, loaded.NormalizedKey)

		require.NoError(t, repo.UpdateEmployerOccupation(ctx, donor.ID, "Acme", "Engineer"))
		loaded, err = repo.GetByID(ctx, donor.ID)
		require.NoError(t, err)
		assert.Equal(t, "Acme", loaded.Employer)
		assert.Equal(t, "Engineer", loaded.Occupation)

		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
	})

	t.Run("update unknown donor", func(t *testing.T) {
		err := repo.UpdateEmployerOccupation(ctx, testutil.CreateTestDonor("X", "Y", "0").ID, "a", "b")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestDonationRepository_RangeAndOrdering(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	donors := NewDonorRepository(testDB.DB)
	repo := NewDonationRepository(testDB.DB)
	ctx := context.Background()

	donor := testutil.CreateTestDonor("Ann", "Smith", "23220")
	require.NoError(t, donors.Create(ctx, donor))

	same := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	first := testutil.CreateTestDonation(donor.ID, 10_00, same)
	second := testutil.CreateTestDonation(donor.ID, 20_00, same)
	early := testutil.CreateTestDonation(donor.ID, 5_00, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	outside := testutil.CreateTestDonation(donor.ID, 99_00, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	failed := testutil.CreateTestDonation(donor.ID, 77_00, same)
	failed.Status = models.DonationStatusFailed

	for _, d := range []*models.Donation{first, second, early, outside, failed} {
		require.NoError(t, repo.Create(ctx, d))
	}
	assert.Less(t, first.Seq, second.Seq)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	list, err := repo.ListSucceededInRange(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, early.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, second.ID, list[2].ID)
	assert.Equal(t, "Smith", list[1].Donor.LastName)

	total, err := repo.SumSucceededForDonor(ctx, donor.ID, from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(35_00), total)
}

func TestDisbursementRepository_ListInRange(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewDisbursementRepository(testDB.DB)
	ctx := context.Background()

	march31 := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	inside := testutil.CreateTestDisbursement("Radio", 300_00, march31, models.CategoryAdvertising)
	boundary := testutil.CreateTestDisbursement("Cafe", 200_00, march31, models.CategoryFundraising)
	after := testutil.CreateTestDisbursement("Later", 900_00, march31.AddDate(0, 0, 1), models.CategoryOther)
	for _, d := range []*models.Disbursement{inside, boundary, after} {
		require.NoError(t, repo.Create(ctx, d))
	}

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := march31.AddDate(0, 0, 1)

	itemized, err := repo.ListInRange(ctx, from, to, models.ItemizationThresholdCents)
	require.NoError(t, err)
	require.Len(t, itemized, 1)
	assert.Equal(t, inside.ID, itemized[0].ID)
	assert.Equal(t, march31, itemized[0].DisbursedOn.UTC())

	all, err := repo.ListInRange(ctx, from, to, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFollowUpRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	donor := testutil.CreateTestDonor("Ann", "Smith", "23220")
	require.NoError(t, NewDonorRepository(testDB.DB).Create(ctx, donor))
	donation := testutil.CreateTestDonation(donor.ID, 300_00, time.Now())
	require.NoError(t, NewDonationRepository(testDB.DB).Create(ctx, donation))

	repo := NewFollowUpRepository(testDB.DB)
	sent := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	attempt := &models.FollowUpAttempt{
		DonorID:       donor.ID,
		DonationID:    donation.ID,
		Type:          models.FollowUpTypeEmployerOccupation,
		AttemptNumber: 1,
		SentAt:        sent,
	}
	claimed, err := repo.ClaimAttempt(ctx, attempt)
	require.NoError(t, err)
	require.True(t, claimed)

	// The unique slot rejects a second claimer of attempt 1
	rival := *attempt
	rival.ID = uuid.Nil
	claimed, err = repo.ClaimAttempt(ctx, &rival)
	require.NoError(t, err)
	assert.False(t, claimed)

	unsent := &models.FollowUpAttempt{
		DonorID:       donor.ID,
		DonationID:    donation.ID,
		Type:          models.FollowUpTypeEmployerOccupation,
		AttemptNumber: 2,
		SentAt:        sent.Add(24 * time.Hour),
	}
	claimed, err = repo.ClaimAttempt(ctx, unsent)
	require.NoError(t, err)
	require.True(t, claimed)
	require.NoError(t, repo.ReleaseAttempt(ctx, unsent.ID))

	attempts, err := repo.ListAttempts(ctx, donor.ID, models.FollowUpTypeEmployerOccupation)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, 1, attempts[0].AttemptNumber)
	assert.Nil(t, attempts[0].ResponseReceivedAt)

	received := sent.Add(72 * time.Hour)
	require.NoError(t, repo.MarkResponseReceived(ctx, attempt.ID, received))
	require.NoError(t, repo.MarkResponseReceived(ctx, attempt.ID, received.Add(time.Hour)))

	attempts, err = repo.ListAttempts(ctx, donor.ID, models.FollowUpTypeEmployerOccupation)
	require.NoError(t, err)
	require.NotNil(t, attempts[0].ResponseReceivedAt)
	assert.True(t, received.Equal(*attempts[0].ResponseReceivedAt))
	assert.Equal(t, models.FollowUpStateCompleted, models.DeriveFollowUpState(attempts))
}

func TestAuditLogRepository_AppendOnly(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewAuditLogRepository(testDB.DB)
	ctx := context.Background()

	entry := &models.AuditLogEntry{
		TableName: "donors",
		RecordID:  "abc",
		Action:    models.AuditActionUpdate,
		OldValue:  map[string]any{"employer": ""},
		NewValue:  map[string]any{"employer": "Acme"},
		IPAddress: "203.0.113.7",
	}
	require.NoError(t, repo.Append(ctx, entry))
	assert.NotZero(t, entry.ID)

	entries, err := repo.ListByRecord(ctx, "donors", "abc")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Acme", entries[0].NewValue["employer"])

	_, err = testDB.DB.Exec(ctx, `DELETE FROM audit_log WHERE id = $1`, entry.ID)
	assert.Error(t, err)
	_, err = testDB.DB.Exec(ctx, `UPDATE audit_log SET action = 'insert' WHERE id = $1`, entry.ID)
	assert.Error(t, err)
}

func TestUnitOfWork_EventsFollowCommit(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()
	received := make(chan events.Event, 4)
	bus.Subscribe(events.EventTypeDisbursementRecorded, func(ctx context.Context, e events.Event) {
		received <- e
	})
	factory := NewUnitOfWorkFactory(testDB.DB, bus)

	t.Run("rollback discards", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		d := testutil.CreateTestDisbursement("Rolled Back", 10_00, time.Now(), models.CategoryOther)
		require.NoError(t, uow.DisbursementRepository().Create(ctx, d))
		uow.EventBus().Publish(events.DisbursementRecordedEvent{DisbursementID: d.ID})
		require.NoError(t, uow.Rollback())

		list, err := NewDisbursementRepository(testDB.DB).ListInRange(ctx, time.Now().AddDate(0, 0, -1), time.Now().AddDate(0, 0, 2), 0)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("commit flushes", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		d := testutil.CreateTestDisbursement("Committed", 10_00, time.Now(), models.CategoryOther)
		require.NoError(t, uow.DisbursementRepository().Create(ctx, d))
		uow.EventBus().Publish(events.DisbursementRecordedEvent{DisbursementID: d.ID})
		require.NoError(t, uow.Commit())

		select {
		case e := <-received:
			assert.Equal(t, d.ID, e.(events.DisbursementRecordedEvent).DisbursementID)
		case <-time.After(2 * time.Second):
			t.Fatal("event not delivered after commit")
		}
	})

	assert.Empty(t, received)
}
