package service

import (
	"context"
	"time"

	"mesocratic/events"
	"mesocratic/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockDonorRepository is a mock implementation of DonorRepository
type MockDonorRepository struct {
	mock.Mock
}

func (m *MockDonorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Donor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Donor), args.Error(1)
}

func (m *MockDonorRepository) Create(ctx context.Context, donor *models.Donor) error {
	args := m.Called(ctx, donor)
	return args.Error(0)
}

func (m *MockDonorRepository) ListAll(ctx context.Context) ([]*models.Donor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Donor), args.Error(1)
}

func (m *MockDonorRepository) UpdateEmployerOccupation(ctx context.Context, id uuid.UUID, employer, occupation string) error {
	args := m.Called(ctx, id, employer, occupation)
	return args.Error(0)
}

// MockDonationRepository is a mock implementation of DonationRepository
type MockDonationRepository struct {
	mock.Mock
}

func (m *MockDonationRepository) Create(ctx context.Context, donation *models.Donation) error {
	args := m.Called(ctx, donation)
	return args.Error(0)
}

func (m *MockDonationRepository) ListSucceededInRange(ctx context.Context, from, to time.Time) ([]*models.DonationWithDonor, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DonationWithDonor), args.Error(1)
}

func (m *MockDonationRepository) SumSucceededForDonor(ctx context.Context, donorID uuid.UUID, from, to time.Time) (int64, error) {
	args := m.Called(ctx, donorID, from, to)
	return args.Get(0).(int64), args.Error(1)
}

// MockDisbursementRepository is a mock implementation of DisbursementRepository
type MockDisbursementRepository struct {
	mock.Mock
}

func (m *MockDisbursementRepository) Create(ctx context.Context, disbursement *models.Disbursement) error {
	args := m.Called(ctx, disbursement)
	return args.Error(0)
}

func (m *MockDisbursementRepository) ListInRange(ctx context.Context, from, to time.Time, exceedingCents int64) ([]*models.Disbursement, error) {
	args := m.Called(ctx, from, to, exceedingCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Disbursement), args.Error(1)
}

// MockFollowUpNotifier is a mock implementation of FollowUpNotifier
type MockFollowUpNotifier struct {
	mock.Mock
}

func (m *MockFollowUpNotifier) SendFollowUp(ctx context.Context, request *models.FollowUpRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockAuditLogger is a mock implementation of AuditLogger
type MockAuditLogger struct {
	mock.Mock
}

func (m *MockAuditLogger) Record(ctx context.Context, entry *models.AuditLogEntry) {
	m.Called(ctx, entry)
}

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
	donorRepo        DonorRepository
	donationRepo     DonationRepository
	disbursementRepo DisbursementRepository
	eventBus         EventPublisher
}

// SetRepositories sets the repositories returned by the unit of work
func (m *MockUnitOfWork) SetRepositories(donorRepo DonorRepository, donationRepo DonationRepository, disbursementRepo DisbursementRepository) {
	m.donorRepo = donorRepo
	m.donationRepo = donationRepo
	m.disbursementRepo = disbursementRepo
}

// SetEventBus sets the publisher returned by EventBus
func (m *MockUnitOfWork) SetEventBus(bus EventPublisher) {
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) DonorRepository() DonorRepository {
	return m.donorRepo
}

func (m *MockUnitOfWork) DonationRepository() DonationRepository {
	return m.donationRepo
}

func (m *MockUnitOfWork) DisbursementRepository() DisbursementRepository {
	return m.disbursementRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
