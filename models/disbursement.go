package models

import (
	"time"

	"github.com/google/uuid"
)

// DisbursementCategory classifies an expenditure
type DisbursementCategory string

const (
	CategoryOperating          DisbursementCategory = "operating"
	CategoryProcessingFee      DisbursementCategory = "processing_fee"
	CategoryAdvertising        DisbursementCategory = "advertising"
	CategoryFundraising        DisbursementCategory = "fundraising"
	CategoryConsulting         DisbursementCategory = "consulting"
	CategoryPayroll            DisbursementCategory = "payroll"
	CategoryTravel             DisbursementCategory = "travel"
	CategoryContributionRefund DisbursementCategory = "contribution_refund"
	CategoryOther              DisbursementCategory = "other"
)

var validCategories = map[DisbursementCategory]bool{
	CategoryOperating:          true,
	CategoryProcessingFee:      true,
	CategoryAdvertising:        true,
	CategoryFundraising:        true,
	CategoryConsulting:         true,
	CategoryPayroll:            true,
	CategoryTravel:             true,
	CategoryContributionRefund: true,
	CategoryOther:              true,
}

// IsValid reports whether the category is one of the known values
func (c DisbursementCategory) IsValid() bool {
	return validCategories[c]
}

// Disbursement is an outgoing payment. Immutable once recorded.
type Disbursement struct {
	ID          uuid.UUID            `db:"id"`
	PayeeName   string               `db:"payee_name"`
	Street1     string               `db:"street1"`
	Street2     string               `db:"street2"`
	City        string               `db:"city"`
	State       string               `db:"state"`
	Zip         string               `db:"zip"`
	AmountCents int64                `db:"amount_cents"`
	DisbursedOn time.Time            `db:"disbursed_on"`
	Category    DisbursementCategory `db:"category"`
	Purpose     string               `db:"purpose"`
	CreatedAt   time.Time            `db:"created_at"`
}

// Validate checks the fields a disbursement must carry before it is stored
func (d *Disbursement) Validate() error {
	if d.AmountCents <= 0 {
		return NewValidationError("amount_cents", "must be positive, got %d", d.AmountCents)
	}
	if !d.Category.IsValid() {
		return NewValidationError("category", "unknown disbursement category %q", d.Category)
	}
	if d.PayeeName == "" {
		return NewValidationError("payee_name", "is required")
	}
	if d.DisbursedOn.IsZero() {
		return NewValidationError("disbursed_on", "is required")
	}
	return nil
}
