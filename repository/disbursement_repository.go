package repository

import (
	"context"
	"fmt"
	"time"

	"mesocratic/database"
	"mesocratic/models"

	"github.com/google/uuid"
)

// DisbursementRepository implements the DisbursementRepository interface
type DisbursementRepository struct {
	q queryable
}

// NewDisbursementRepository creates a new disbursement repository
func NewDisbursementRepository(db *database.DB) *DisbursementRepository {
	return &DisbursementRepository{q: db.Pool}
}

// newDisbursementRepositoryWithTx creates a new disbursement repository with a transaction
func newDisbursementRepositoryWithTx(tx queryable) *DisbursementRepository {
	return &DisbursementRepository{q: tx}
}

// Create inserts a disbursement
func (r *DisbursementRepository) Create(ctx context.Context, d *models.Disbursement) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}

	query := `
		INSERT INTO disbursements
		(id, payee_name, street1, street2, city, state, zip, amount_cents, disbursed_on, category, purpose)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		d.ID,
		d.PayeeName,
		d.Street1,
		d.Street2,
		d.City,
		d.State,
		d.Zip,
		d.AmountCents,
		d.DisbursedOn.UTC(),
		d.Category,
		d.Purpose,
	).Scan(&d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create disbursement to %s: %w", d.PayeeName, err)
	}
	return nil
}

// ListInRange returns disbursements with from <= disbursed_on < to and an
// amount strictly greater than exceedingCents
func (r *DisbursementRepository) ListInRange(ctx context.Context, from, to time.Time, exceedingCents int64) ([]*models.Disbursement, error) {
	query := `
		SELECT id, payee_name, street1, street2, city, state, zip, amount_cents,
		       disbursed_on, category, purpose, created_at
		FROM disbursements
		WHERE disbursed_on >= $1::DATE
		  AND disbursed_on < $2::DATE
		  AND amount_cents > $3
		ORDER BY disbursed_on ASC, created_at ASC, id ASC
	`

	rows, err := r.q.Query(ctx, query, from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"), exceedingCents)
	if err != nil {
		return nil, fmt.Errorf("failed to query disbursements: %w", err)
	}
	defer rows.Close()

	var disbursements []*models.Disbursement
	for rows.Next() {
		var d models.Disbursement
		err := rows.Scan(
			&d.ID,
			&d.PayeeName,
			&d.Street1,
			&d.Street2,
			&d.City,
			&d.State,
			&d.Zip,
			&d.AmountCents,
			&d.DisbursedOn,
			&d.Category,
			&d.Purpose,
			&d.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan disbursement: %w", err)
		}
		disbursements = append(disbursements, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating disbursements: %w", err)
	}
	return disbursements, nil
}
