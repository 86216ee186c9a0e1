// Package memory provides in-process implementations of the storage ports.
// They honor the same ordering and filtering contracts as the PostgreSQL
// repositories and are used by service tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"mesocratic/models"

	"github.com/google/uuid"
)

// Store holds every table in memory behind a single lock
type Store struct {
	mu            sync.RWMutex
	now           func() time.Time
	donors        map[uuid.UUID]*models.Donor
	donations     []*models.Donation
	disbursements []*models.Disbursement
	attempts      []*models.FollowUpAttempt
	audit         []*models.AuditLogEntry
	nextSeq       int64
	nextAuditID   int64
	failures      map[string]error
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		now:      time.Now,
		donors:   make(map[uuid.UUID]*models.Donor),
		failures: make(map[string]error),
	}
}

// FailOn makes every call to the named operation return err; nil clears it.
// Operation names are "<Table>.<Method>", e.g. "Donations.ListSucceededInRange".
func (s *Store) FailOn(operation string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, operation)
		return
	}
	s.failures[operation] = err
}

func (s *Store) failure(operation string) error {
	if err, ok := s.failures[operation]; ok {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

// Donors returns the donor repository view
func (s *Store) Donors() *DonorStore { return &DonorStore{s: s} }

// Donations returns the donation repository view
func (s *Store) Donations() *DonationStore { return &DonationStore{s: s} }

// Disbursements returns the disbursement repository view
func (s *Store) Disbursements() *DisbursementStore { return &DisbursementStore{s: s} }

// FollowUps returns the follow-up attempt repository view
func (s *Store) FollowUps() *FollowUpStore { return &FollowUpStore{s: s} }

// AuditLog returns the audit log repository view
func (s *Store) AuditLog() *AuditLogStore { return &AuditLogStore{s: s} }

// AuditEntries returns a copy of everything appended to the audit log
func (s *Store) AuditEntries() []models.AuditLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AuditLogEntry, 0, len(s.audit))
	for _, e := range s.audit {
		out = append(out, *e)
	}
	return out
}

// DisbursementCount returns the number of stored disbursements
func (s *Store) DisbursementCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.disbursements)
}

// DonorStore implements the donor repository contract
type DonorStore struct{ s *Store }

func (r *DonorStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Donor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure("Donors.GetByID"); err != nil {
		return nil, err
	}
	d, ok := r.s.donors[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r *DonorStore) Create(ctx context.Context, donor *models.Donor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("Donors.Create"); err != nil {
		return err
	}
	if donor.ID == uuid.Nil {
		donor.ID = uuid.New()
	}
	if _, exists := r.s.donors[donor.ID]; exists {
		return fmt.Errorf("donor %s already exists", donor.ID)
	}
	if donor.CreatedAt.IsZero() {
		donor.CreatedAt = r.s.now().UTC()
	}
	cp := *donor
	r.s.donors[donor.ID] = &cp
	return nil
}

func (r *DonorStore) ListAll(ctx context.Context) ([]*models.Donor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure("Donors.ListAll"); err != nil {
		return nil, err
	}
	return r.sorted(func(*models.Donor) bool { return true }), nil
}

func (r *DonorStore) UpdateEmployerOccupation(ctx context.Context, id uuid.UUID, employer, occupation string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("Donors.UpdateEmployerOccupation"); err != nil {
		return err
	}
	d, ok := r.s.donors[id]
	if !ok {
		return fmt.Errorf("donor %s not found", id)
	}
	d.Employer = employer
	d.Occupation = occupation
	return nil
}

func (r *DonorStore) sorted(keep func(*models.Donor) bool) []*models.Donor {
	var out []*models.Donor
	for _, d := range r.s.donors {
		if keep(d) {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// DonationStore implements the donation repository contract
type DonationStore struct{ s *Store }

func (r *DonationStore) Create(ctx context.Context, donation *models.Donation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("Donations.Create"); err != nil {
		return err
	}
	if _, ok := r.s.donors[donation.DonorID]; !ok {
		return fmt.Errorf("donor %s not found", donation.DonorID)
	}
	if donation.ID == uuid.Nil {
		donation.ID = uuid.New()
	}
	if donation.CreatedAt.IsZero() {
		donation.CreatedAt = r.s.now().UTC()
	}
	r.s.nextSeq++
	donation.Seq = r.s.nextSeq
	cp := *donation
	r.s.donations = append(r.s.donations, &cp)
	return nil
}

func (r *DonationStore) ListSucceededInRange(ctx context.Context, from, to time.Time) ([]*models.DonationWithDonor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure("Donations.ListSucceededInRange"); err != nil {
		return nil, err
	}

	var out []*models.DonationWithDonor
	for _, d := range r.s.donations {
		if d.Status != models.DonationStatusSucceeded || d.CreatedAt.Before(from) || !d.CreatedAt.Before(to) {
			continue
		}
		out = append(out, &models.DonationWithDonor{Donation: *d, Donor: *r.s.donors[d.DonorID]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func (r *DonationStore) SumSucceededForDonor(ctx context.Context, donorID uuid.UUID, from, to time.Time) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure("Donations.SumSucceededForDonor"); err != nil {
		return 0, err
	}

	var total int64
	for _, d := range r.s.donations {
		if d.DonorID == donorID && d.Status == models.DonationStatusSucceeded &&
			!d.CreatedAt.Before(from) && d.CreatedAt.Before(to) {
			total += d.AmountCents
		}
	}
	return total, nil
}

// DisbursementStore implements the disbursement repository contract
type DisbursementStore struct{ s *Store }

func (r *DisbursementStore) Create(ctx context.Context, disbursement *models.Disbursement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("Disbursements.Create"); err != nil {
		return err
	}
	if disbursement.ID == uuid.Nil {
		disbursement.ID = uuid.New()
	}
	if disbursement.CreatedAt.IsZero() {
		disbursement.CreatedAt = r.s.now().UTC()
	}
	cp := *disbursement
	r.s.disbursements = append(r.s.disbursements, &cp)
	return nil
}

func (r *DisbursementStore) ListInRange(ctx context.Context, from, to time.Time, exceedingCents int64) ([]*models.Disbursement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure("Disbursements.ListInRange"); err != nil {
		return nil, err
	}

	var out []*models.Disbursement
	for _, d := range r.s.disbursements {
		if d.DisbursedOn.Before(from) || !d.DisbursedOn.Before(to) || d.AmountCents <= exceedingCents {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DisbursedOn.Equal(out[j].DisbursedOn) {
			return out[i].DisbursedOn.Before(out[j].DisbursedOn)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// FollowUpStore implements the follow-up attempt repository contract
type FollowUpStore struct{ s *Store }

func (r *FollowUpStore) ListAttempts(ctx context.Context, donorID uuid.UUID, followUpType models.FollowUpType) ([]*models.FollowUpAttempt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.failure("FollowUps.ListAttempts"); err != nil {
		return nil, err
	}

	var out []*models.FollowUpAttempt
	for _, a := range r.s.attempts {
		if a.DonorID == donorID && a.Type == followUpType {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AttemptNumber < out[j].AttemptNumber })
	return out, nil
}

func (r *FollowUpStore) ClaimAttempt(ctx context.Context, attempt *models.FollowUpAttempt) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("FollowUps.ClaimAttempt"); err != nil {
		return false, err
	}
	if attempt.AttemptNumber < 1 {
		return false, models.NewValidationError("attempt_number", "must be at least 1, got %d", attempt.AttemptNumber)
	}
	for _, a := range r.s.attempts {
		if a.DonorID == attempt.DonorID && a.Type == attempt.Type && a.AttemptNumber == attempt.AttemptNumber {
			return false, nil
		}
	}
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	cp := *attempt
	r.s.attempts = append(r.s.attempts, &cp)
	return true, nil
}

func (r *FollowUpStore) ReleaseAttempt(ctx context.Context, attemptID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("FollowUps.ReleaseAttempt"); err != nil {
		return err
	}
	for i, a := range r.s.attempts {
		if a.ID == attemptID && a.ResponseReceivedAt == nil {
			r.s.attempts = append(r.s.attempts[:i], r.s.attempts[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *FollowUpStore) MarkResponseReceived(ctx context.Context, attemptID uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("FollowUps.MarkResponseReceived"); err != nil {
		return err
	}
	for _, a := range r.s.attempts {
		if a.ID == attemptID {
			stamp := at
			a.ResponseReceivedAt = &stamp
			return nil
		}
	}
	return fmt.Errorf("follow-up attempt %s not found", attemptID)
}

// AuditLogStore implements the append-only audit contract
type AuditLogStore struct{ s *Store }

func (r *AuditLogStore) Append(ctx context.Context, entry *models.AuditLogEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("AuditLog.Append"); err != nil {
		return err
	}
	r.s.nextAuditID++
	entry.ID = r.s.nextAuditID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.s.now().UTC()
	}
	cp := *entry
	r.s.audit = append(r.s.audit, &cp)
	return nil
}
