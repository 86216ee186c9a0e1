package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mesocratic/models"
	"mesocratic/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type followUpFixture struct {
	store    *memory.Store
	notifier *MockFollowUpNotifier
	audit    *AuditRecorder
	svc      *followUpService
	clock    time.Time
}

func newFollowUpFixture() *followUpFixture {
	store := memory.NewStore()
	f := &followUpFixture{
		store:    store,
		notifier: new(MockFollowUpNotifier),
		audit:    NewAuditRecorder(store.AuditLog()),
	}
	f.svc = NewFollowUpService(store.Donors(), store.Donations(), store.FollowUps(), f.notifier, f.audit).(*followUpService)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *followUpFixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.audit.Drain(ctx))
}

func TestFollowUp_BoundedRetrySequence(t *testing.T) {
	ctx := context.Background()
	f := newFollowUpFixture()
	donor := seedDonor(t, f.store, "Ann", "Lee", "23220", utcDay(2024, 1, 1))
	require.NoError(t, f.store.Donors().UpdateEmployerOccupation(ctx, donor.ID, "", "Teacher"))
	donation := seedDonation(t, f.store, donor, 201_00, utcDay(2024, 1, 5))

	f.notifier.On("SendFollowUp", mock.Anything, mock.MatchedBy(func(r *models.FollowUpRequest) bool {
		return r.DonorID == donor.ID && len(r.MissingFields) == 1 && r.MissingFields[0] == "employer"
	})).Return(nil)

	day0 := utcDay(2024, 1, 10)
	steps := []struct {
		offset   int
		expected models.FollowUpOutcome
	}{
		{0, models.FollowUpOutcomeSent},
		{10, models.FollowUpOutcomeDeferred},
		{31, models.FollowUpOutcomeSent},
		{62, models.FollowUpOutcomeExhausted},
	}
	for _, step := range steps {
		f.clock = day0.AddDate(0, 0, step.offset)
		assert.Equal(t, step.expected, f.svc.Evaluate(ctx, donor.ID, donation.ID), "day %d", step.offset)
	}

	f.notifier.AssertNumberOfCalls(t, "SendFollowUp", 2)
	attempts, err := f.store.FollowUps().ListAttempts(ctx, donor.ID, models.FollowUpTypeEmployerOccupation)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, day0, attempts[0].SentAt)
	assert.Equal(t, day0.AddDate(0, 0, 31), attempts[1].SentAt)

	second := f.notifier.Calls[1].Arguments.Get(1).(*models.FollowUpRequest)
	assert.Equal(t, 2, second.Attempt)

	f.drain(t)
	assert.Len(t, f.store.AuditEntries(), 2)
}

// listBarrier holds each ListAttempts caller until every expected caller
// has read, so concurrent evaluations all see the same attempt history
type listBarrier struct {
	FollowUpRepository
	wg sync.WaitGroup
}

func (b *listBarrier) ListAttempts(ctx context.Context, donorID uuid.UUID, followUpType models.FollowUpType) ([]*models.FollowUpAttempt, error) {
	attempts, err := b.FollowUpRepository.ListAttempts(ctx, donorID, followUpType)
	b.wg.Done()
	b.wg.Wait()
	return attempts, err
}

func TestFollowUp_ConcurrentEvaluationsSendOnce(t *testing.T) {
	ctx := context.Background()
	f := newFollowUpFixture()
	f.clock = utcDay(2024, 3, 1)
	donor := seedDonor(t, f.store, "Ann", "Lee", "23220", utcDay(2024, 1, 1))
	first := seedDonation(t, f.store, donor, 110_00, utcDay(2024, 2, 1))
	second := seedDonation(t, f.store, donor, 100_00, utcDay(2024, 2, 2))

	barrier := &listBarrier{FollowUpRepository: f.store.FollowUps()}
	barrier.wg.Add(2)
	f.svc.followUpRepo = barrier

	f.notifier.On("SendFollowUp", mock.Anything, mock.Anything).Return(nil)

	outcomes := make([]models.FollowUpOutcome, 2)
	var wg sync.WaitGroup
	for i, donationID := range []uuid.UUID{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, donationID uuid.UUID) {
			defer wg.Done()
			outcomes[i] = f.svc.Evaluate(ctx, donor.ID, donationID)
		}(i, donationID)
	}
	wg.Wait()

	assert.ElementsMatch(t, []models.FollowUpOutcome{models.FollowUpOutcomeSent, models.FollowUpOutcomeDeferred}, outcomes)
	f.notifier.AssertNumberOfCalls(t, "SendFollowUp", 1)

	attempts, err := f.store.FollowUps().ListAttempts(ctx, donor.ID, models.FollowUpTypeEmployerOccupation)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, 1, attempts[0].AttemptNumber)
	assert.Equal(t, models.FollowUpStateSent, models.DeriveFollowUpState(attempts))
	f.drain(t)
}

func TestFollowUp_NotRequired(t *testing.T) {
	ctx := context.Background()
	f := newFollowUpFixture()
	f.clock = utcDay(2024, 6, 1)

	under := seedDonor(t, f.store, "Uma", "Under", "23220", utcDay(2024, 1, 1))
	seedDonation(t, f.store, under, 200_00, utcDay(2024, 2, 1))

	complete := seedDonor(t, f.store, "Cy", "Complete", "23220", utcDay(2024, 1, 1))
	require.NoError(t, f.store.Donors().UpdateEmployerOccupation(ctx, complete.ID, "Acme", "Engineer"))
	seedDonation(t, f.store, complete, 900_00, utcDay(2024, 2, 1))

	lastYear := seedDonor(t, f.store, "Lou", "Past", "23220", utcDay(2023, 1, 1))
	seedDonation(t, f.store, lastYear, 900_00, utcDay(2023, 12, 31))

	assert.Equal(t, models.FollowUpOutcomeNotRequired, f.svc.Evaluate(ctx, under.ID, uuid.New()))
	assert.Equal(t, models.FollowUpOutcomeNotRequired, f.svc.Evaluate(ctx, complete.ID, uuid.New()))
	assert.Equal(t, models.FollowUpOutcomeNotRequired, f.svc.Evaluate(ctx, lastYear.ID, uuid.New()))
	f.notifier.AssertNotCalled(t, "SendFollowUp", mock.Anything, mock.Anything)
}

func TestFollowUp_FailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	f := newFollowUpFixture()
	f.clock = utcDay(2024, 3, 1)
	donor := seedDonor(t, f.store, "Ann", "Lee", "23220", utcDay(2024, 1, 1))
	donation := seedDonation(t, f.store, donor, 500_00, utcDay(2024, 2, 1))

	f.store.FailOn("FollowUps.ListAttempts", errors.New("timeout"))
	assert.Equal(t, models.FollowUpOutcomeFailed, f.svc.Evaluate(ctx, donor.ID, donation.ID))
	f.store.FailOn("FollowUps.ListAttempts", nil)

	f.store.FailOn("FollowUps.ClaimAttempt", errors.New("deadlock"))
	assert.Equal(t, models.FollowUpOutcomeFailed, f.svc.Evaluate(ctx, donor.ID, donation.ID))
	f.store.FailOn("FollowUps.ClaimAttempt", nil)

	// A failed send releases its slot, so the next trigger tries again
	f.notifier.On("SendFollowUp", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()
	assert.Equal(t, models.FollowUpOutcomeFailed, f.svc.Evaluate(ctx, donor.ID, donation.ID))
	attempts, err := f.store.FollowUps().ListAttempts(ctx, donor.ID, models.FollowUpTypeEmployerOccupation)
	require.NoError(t, err)
	assert.Empty(t, attempts)

	f.notifier.On("SendFollowUp", mock.Anything, mock.Anything).Return(nil).Once()
	assert.Equal(t, models.FollowUpOutcomeSent, f.svc.Evaluate(ctx, donor.ID, donation.ID))
	sent := f.notifier.Calls[len(f.notifier.Calls)-1].Arguments.Get(1).(*models.FollowUpRequest)
	assert.Equal(t, 1, sent.Attempt)

	assert.Equal(t, models.FollowUpOutcomeFailed, f.svc.Evaluate(ctx, uuid.New(), donation.ID))
	f.notifier.AssertExpectations(t)
}

func TestFollowUp_MarkReceivedCompletesWorkflow(t *testing.T) {
	ctx := context.Background()
	f := newFollowUpFixture()
	f.clock = utcDay(2024, 3, 1)
	donor := seedDonor(t, f.store, "Ann", "Lee", "23220", utcDay(2024, 1, 1))
	donation := seedDonation(t, f.store, donor, 500_00, utcDay(2024, 2, 1))

	f.notifier.On("SendFollowUp", mock.Anything, mock.Anything).Return(nil).Once()
	require.Equal(t, models.FollowUpOutcomeSent, f.svc.Evaluate(ctx, donor.ID, donation.ID))

	f.clock = utcDay(2024, 3, 5)
	require.NoError(t, f.svc.MarkReceived(ctx, donor.ID, "Acme", "", "203.0.113.9"))

	updated, err := f.store.Donors().GetByID(ctx, donor.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", updated.Employer)

	attempts, err := f.store.FollowUps().ListAttempts(ctx, donor.ID, models.FollowUpTypeEmployerOccupation)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	require.NotNil(t, attempts[0].ResponseReceivedAt)
	assert.Equal(t, utcDay(2024, 3, 5), *attempts[0].ResponseReceivedAt)

	// Occupation is still blank, but a recorded response ends the workflow
	f.clock = utcDay(2024, 5, 1)
	assert.Equal(t, models.FollowUpOutcomeCompleted, f.svc.Evaluate(ctx, donor.ID, donation.ID))
	f.notifier.AssertNumberOfCalls(t, "SendFollowUp", 1)

	f.drain(t)
	var updates int
	for _, e := range f.store.AuditEntries() {
		if e.Action == models.AuditActionUpdate {
			updates++
			assert.Equal(t, "203.0.113.9", e.IPAddress)
		}
	}
	assert.Equal(t, 2, updates)
}

func TestFollowUp_MarkReceivedValidation(t *testing.T) {
	ctx := context.Background()
	f := newFollowUpFixture()

	err := f.svc.MarkReceived(ctx, uuid.New(), " ", "", "")
	assert.True(t, errors.Is(err, models.ErrValidation))

	err = f.svc.MarkReceived(ctx, uuid.New(), "Acme", "Engineer", "")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}
