package repository

import (
	"context"
	"fmt"
	"time"

	"mesocratic/database"
	"mesocratic/models"

	"github.com/google/uuid"
)

// DonationRepository implements the DonationRepository interface
type DonationRepository struct {
	q queryable
}

// NewDonationRepository creates a new donation repository
func NewDonationRepository(db *database.DB) *DonationRepository {
	return &DonationRepository{q: db.Pool}
}

// newDonationRepositoryWithTx creates a new donation repository with a transaction
func newDonationRepositoryWithTx(tx queryable) *DonationRepository {
	return &DonationRepository{q: tx}
}

// Create inserts a donation; the database assigns seq
func (r *DonationRepository) Create(ctx context.Context, donation *models.Donation) error {
	if donation.ID == uuid.Nil {
		donation.ID = uuid.New()
	}

	query := `
		INSERT INTO donations (id, donor_id, amount_cents, status, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
		RETURNING seq, created_at
	`

	err := r.q.QueryRow(ctx, query,
		donation.ID,
		donation.DonorID,
		donation.AmountCents,
		donation.Status,
		timeOrNil(donation.CreatedAt),
	).Scan(&donation.Seq, &donation.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create donation for donor %s: %w", donation.DonorID, err)
	}
	return nil
}

// ListSucceededInRange returns succeeded donations with from <= created_at < to,
// donor fields joined. Ordering by seq after created_at makes replay deterministic.
func (r *DonationRepository) ListSucceededInRange(ctx context.Context, from, to time.Time) ([]*models.DonationWithDonor, error) {
	query := `
		SELECT
			dn.id, dn.seq, dn.donor_id, dn.amount_cents, dn.status, dn.created_at,
			d.id, d.first_name, d.last_name, d.email, d.street1, d.street2, d.city, d.state, d.zip,
			COALESCE(d.employer, ''), COALESCE(d.occupation, ''), d.normalized_key, d.created_at
		FROM donations dn
		JOIN donors d ON d.id = dn.donor_id
		WHERE dn.status = 'succeeded'
		  AND dn.created_at >= $1
		  AND dn.created_at < $2
		ORDER BY dn.created_at ASC, dn.seq ASC
	`

	rows, err := r.q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query donations between %s and %s: %w", from.Format(time.RFC3339), to.Format(time.RFC3339), err)
	}
	defer rows.Close()

	var donations []*models.DonationWithDonor
	for rows.Next() {
		var dw models.DonationWithDonor
		err := rows.Scan(
			&dw.ID,
			&dw.Seq,
			&dw.DonorID,
			&dw.AmountCents,
			&dw.Status,
			&dw.CreatedAt,
			&dw.Donor.ID,
			&dw.Donor.FirstName,
			&dw.Donor.LastName,
			&dw.Donor.Email,
			&dw.Donor.Street1,
			&dw.Donor.Street2,
			&dw.Donor.City,
			&dw.Donor.State,
			&dw.Donor.Zip,
			&dw.Donor.Employer,
			&dw.Donor.Occupation,
			&dw.Donor.NormalizedKey,
			&dw.Donor.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donation: %w", err)
		}
		donations = append(donations, &dw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating donations: %w", err)
	}
	return donations, nil
}

// SumSucceededForDonor totals a donor's succeeded donations with from <= created_at < to
func (r *DonationRepository) SumSucceededForDonor(ctx context.Context, donorID uuid.UUID, from, to time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0)::BIGINT
		FROM donations
		WHERE donor_id = $1
		  AND status = 'succeeded'
		  AND created_at >= $2
		  AND created_at < $3
	`

	var total int64
	if err := r.q.QueryRow(ctx, query, donorID, from, to).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum donations for donor %s: %w", donorID, err)
	}
	return total, nil
}
