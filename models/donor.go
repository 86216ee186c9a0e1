package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Donor represents a contributor identity as recorded at first donation
type Donor struct {
	ID            uuid.UUID `db:"id"`
	FirstName     string    `db:"first_name"`
	LastName      string    `db:"last_name"`
	Email         string    `db:"email"`
	Street1       string    `db:"street1"`
	Street2       string    `db:"street2"`
	City          string    `db:"city"`
	State         string    `db:"state"`
	Zip           string    `db:"zip"`
	Employer      string    `db:"employer"`
	Occupation    string    `db:"occupation"`
	NormalizedKey string    `db:"normalized_key"`
	CreatedAt     time.Time `db:"created_at"`
}

// FullName returns "First Last" with blanks dropped
func (d *Donor) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(d.FirstName) + " " + strings.TrimSpace(d.LastName))
}

// MissingFields lists the best-efforts fields that are still blank
func (d *Donor) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(d.Employer) == "" {
		missing = append(missing, "employer")
	}
	if strings.TrimSpace(d.Occupation) == "" {
		missing = append(missing, "occupation")
	}
	return missing
}

// DuplicateGroup is a set of donors sharing one normalized identity.
// Canonical is the earliest-created member; matching never merges records.
type DuplicateGroup struct {
	NormalizedKey string
	Canonical     *Donor
	Donors        []*Donor
}
