package service

import (
	"context"
	"time"

	"mesocratic/events"
	"mesocratic/models"

	"github.com/google/uuid"
)

// DonorRepository defines the interface for donor data access
type DonorRepository interface {
	// GetByID retrieves a donor, returning nil when no row matches
	GetByID(ctx context.Context, id uuid.UUID) (*models.Donor, error)

	// Create inserts a donor; ID and CreatedAt are assigned when zero
	Create(ctx context.Context, donor *models.Donor) error

	// ListAll returns every donor ordered by creation time, then id
	ListAll(ctx context.Context) ([]*models.Donor, error)

	// UpdateEmployerOccupation stores best-efforts response data
	UpdateEmployerOccupation(ctx context.Context, id uuid.UUID, employer, occupation string) error
}

// DonationRepository defines the interface for donation data access
type DonationRepository interface {
	// Create inserts a donation and assigns its sequence number
	Create(ctx context.Context, donation *models.Donation) error

	// ListSucceededInRange returns succeeded donations with from <= created_at < to,
	// donor joined, ordered by created_at then seq
	ListSucceededInRange(ctx context.Context, from, to time.Time) ([]*models.DonationWithDonor, error)

	// SumSucceededForDonor totals a donor's succeeded donations with from <= created_at < to
	SumSucceededForDonor(ctx context.Context, donorID uuid.UUID, from, to time.Time) (int64, error)
}

// DisbursementRepository defines the interface for disbursement data access
type DisbursementRepository interface {
	// Create inserts a disbursement
	Create(ctx context.Context, disbursement *models.Disbursement) error

	// ListInRange returns disbursements with from <= disbursed_on < to and an
	// amount greater than exceedingCents; pass 0 for all
	ListInRange(ctx context.Context, from, to time.Time, exceedingCents int64) ([]*models.Disbursement, error)
}

// FollowUpRepository defines the interface for best-efforts attempt rows
type FollowUpRepository interface {
	// ListAttempts returns a donor's attempts of one type ordered by attempt number
	ListAttempts(ctx context.Context, donorID uuid.UUID, followUpType models.FollowUpType) ([]*models.FollowUpAttempt, error)

	// ClaimAttempt inserts the attempt's (donor, type, attempt number) slot.
	// It returns false without error when the slot is already taken.
	ClaimAttempt(ctx context.Context, attempt *models.FollowUpAttempt) (bool, error)

	// ReleaseAttempt removes a claimed slot whose request was never delivered
	ReleaseAttempt(ctx context.Context, attemptID uuid.UUID) error

	// MarkResponseReceived stamps an attempt with the response time
	MarkResponseReceived(ctx context.Context, attemptID uuid.UUID, at time.Time) error
}

// AuditLogRepository defines the append-only audit store
type AuditLogRepository interface {
	Append(ctx context.Context, entry *models.AuditLogEntry) error
}

// FollowUpNotifier delivers a best-efforts request to the donor
type FollowUpNotifier interface {
	SendFollowUp(ctx context.Context, request *models.FollowUpRequest) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// AuditLogger records audit entries without blocking the caller
type AuditLogger interface {
	Record(ctx context.Context, entry *models.AuditLogEntry)
}

// ReportService builds and renders compliance reports
type ReportService interface {
	// BuildReport computes Schedule A, Schedule B, the summary and warnings
	BuildReport(ctx context.Context, req models.ReportRequest) (*models.Report, error)

	// Export builds the report and renders it in the requested format. The
	// returned report is the one the bytes were encoded from.
	Export(ctx context.Context, req models.ReportRequest, format string) (*models.Report, []byte, error)
}

// ContributorService finds probable duplicate donors
type ContributorService interface {
	// FindDuplicateGroups returns donors grouped by normalized identity, groups of two or more only
	FindDuplicateGroups(ctx context.Context) ([]*models.DuplicateGroup, error)

	// CombinedAggregate sums a year's succeeded donations across every donor sharing the donor's identity
	CombinedAggregate(ctx context.Context, donorID uuid.UUID, year int) (int64, error)
}

// FollowUpService runs the best-efforts employer/occupation workflow
type FollowUpService interface {
	// Evaluate decides whether to send a request; it never fails the caller
	Evaluate(ctx context.Context, donorID, donationID uuid.UUID) models.FollowUpOutcome

	// MarkReceived records a donor's response and completes the workflow
	MarkReceived(ctx context.Context, donorID uuid.UUID, employer, occupation, ipAddress string) error
}

// FeeService computes and captures card processing fees
type FeeService interface {
	// ComputeFee returns the processing fee for an amount in cents
	ComputeFee(amountCents int64) int64

	// CaptureProcessingFee records the fee for a donation as a disbursement
	CaptureProcessingFee(ctx context.Context, donation *models.Donation, ipAddress string) (*models.Disbursement, error)
}

// LedgerService is the primary write path for donations and disbursements
type LedgerService interface {
	// RecordDonation stores a donation, creating its donor on first gift
	RecordDonation(ctx context.Context, donor *models.Donor, donation *models.Donation, ipAddress string) (*models.Donation, error)

	// RecordDisbursement validates and stores a disbursement
	RecordDisbursement(ctx context.Context, disbursement *models.Disbursement, ipAddress string) (*models.Disbursement, error)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	DonorRepository() DonorRepository
	DonationRepository() DonationRepository
	DisbursementRepository() DisbursementRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
