package repository

import (
	"context"
	"errors"
	"fmt"

	"mesocratic/database"
	"mesocratic/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const donorColumns = `
	id, first_name, last_name, email, street1, street2, city, state, zip,
	COALESCE(employer, ''), COALESCE(occupation, ''), normalized_key, created_at
`

// DonorRepository implements the DonorRepository interface
type DonorRepository struct {
	q queryable
}

// NewDonorRepository creates a new donor repository
func NewDonorRepository(db *database.DB) *DonorRepository {
	return &DonorRepository{q: db.Pool}
}

// newDonorRepositoryWithTx creates a new donor repository with a transaction
func newDonorRepositoryWithTx(tx queryable) *DonorRepository {
	return &DonorRepository{q: tx}
}

// GetByID retrieves a donor by id
func (r *DonorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Donor, error) {
	query := `SELECT ` + donorColumns + ` FROM donors WHERE id = $1`

	donor, err := scanDonor(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get donor %s: %w", id, err)
	}
	return donor, nil
}

// Create inserts a donor. Blank employer/occupation are stored as NULL so
// "never collected" stays distinguishable in the table.
func (r *DonorRepository) Create(ctx context.Context, donor *models.Donor) error {
	if donor.ID == uuid.Nil {
		donor.ID = uuid.New()
	}

	query := `
		INSERT INTO donors
		(id, first_name, last_name, email, street1, street2, city, state, zip, employer, occupation, normalized_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), NULLIF($11, ''), $12, COALESCE($13, NOW()))
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		donor.ID,
		donor.FirstName,
		donor.LastName,
		donor.Email,
		donor.Street1,
		donor.Street2,
		donor.City,
		donor.State,
		donor.Zip,
		donor.Employer,
		donor.Occupation,
		donor.NormalizedKey,
		timeOrNil(donor.CreatedAt),
	).Scan(&donor.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create donor: %w", err)
	}
	return nil
}

// ListAll returns every donor ordered by creation time, then id
func (r *DonorRepository) ListAll(ctx context.Context) ([]*models.Donor, error) {
	query := `SELECT ` + donorColumns + ` FROM donors ORDER BY created_at, id`
	return r.list(ctx, query)
}

// UpdateEmployerOccupation stores best-efforts response data
func (r *DonorRepository) UpdateEmployerOccupation(ctx context.Context, id uuid.UUID, employer, occupation string) error {
	query := `
		UPDATE donors
		SET employer = NULLIF($2, ''), occupation = NULLIF($3, '')
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query, id, employer, occupation)
	if err != nil {
		return fmt.Errorf("failed to update donor %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("donor %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (r *DonorRepository) list(ctx context.Context, query string, args ...any) ([]*models.Donor, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query donors: %w", err)
	}
	defer rows.Close()

	var donors []*models.Donor
	for rows.Next() {
		donor, err := scanDonor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donor: %w", err)
		}
		donors = append(donors, donor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating donors: %w", err)
	}
	return donors, nil
}

func scanDonor(row pgx.Row) (*models.Donor, error) {
	var d models.Donor
	err := row.Scan(
		&d.ID,
		&d.FirstName,
		&d.LastName,
		&d.Email,
		&d.Street1,
		&d.Street2,
		&d.City,
		&d.State,
		&d.Zip,
		&d.Employer,
		&d.Occupation,
		&d.NormalizedKey,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
