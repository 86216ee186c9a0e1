package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ItemizationThresholdCents is the FEC aggregate above which a contributor
// or payee must be itemized
const ItemizationThresholdCents int64 = 200_00

// IRS8872ScheduleBThresholdCents is the stricter expenditure threshold for
// Form 8872 Schedule B
const IRS8872ScheduleBThresholdCents int64 = 500_00

// FilingType is the 8872 filing classification
type FilingType string

const (
	FilingTypeInitial FilingType = "initial"
	FilingTypeAmended FilingType = "amended"
	FilingTypeFinal   FilingType = "final"
)

// ParseFilingType accepts the three filing types; empty means initial
func ParseFilingType(s string) (FilingType, error) {
	switch FilingType(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilingTypeInitial:
		return FilingTypeInitial, nil
	case FilingTypeAmended:
		return FilingTypeAmended, nil
	case FilingTypeFinal:
		return FilingTypeFinal, nil
	}
	return "", NewValidationError("filing_type", "unknown filing type %q", s)
}

// ReportRequest identifies the period to build and the caller-supplied
// opening balance
type ReportRequest struct {
	Year                 int
	PeriodType           PeriodType
	PeriodLabel          string
	CashOnHandStartCents *int64
	FilingType           FilingType
}

// ScheduleALine is one itemized contribution
type ScheduleALine struct {
	TransactionID    string
	DonationID       uuid.UUID
	DonorID          uuid.UUID
	ContributorFirst string
	ContributorLast  string
	Street1          string
	Street2          string
	City             string
	State            string
	Zip              string
	Employer         string
	Occupation       string
	Date             time.Time
	AmountCents      int64
	AggregateCents   int64
}

// ScheduleBLine is one itemized disbursement
type ScheduleBLine struct {
	TransactionID  string
	DisbursementID uuid.UUID
	PayeeName      string
	Street1        string
	Street2        string
	City           string
	State          string
	Zip            string
	Date           time.Time
	AmountCents    int64
	Category       DisbursementCategory
	Purpose        string
}

// CategoryTotal is the disbursement total for one category
type CategoryTotal struct {
	Category   DisbursementCategory
	TotalCents int64
}

// ReportSummary holds period totals. TotalReceipts always equals
// ItemizedReceipts + UnitemizedReceipts. CashOnHandEnd is set only when
// CashOnHandStart is.
type ReportSummary struct {
	TotalReceiptsCents         int64
	ItemizedReceiptsCents      int64
	UnitemizedReceiptsCents    int64
	TotalDisbursementsCents    int64
	ItemizedDisbursementsCents int64
	ContributionCount          int
	ContributorCount           int
	DisbursementsByCategory    []CategoryTotal
	CashOnHandStartCents       *int64
	CashOnHandEndCents         *int64
}

// ComplianceWarning flags an itemized donor missing required fields
type ComplianceWarning struct {
	DonorID       uuid.UUID
	DonorName     string
	MissingFields []string
	Message       string
}

// ReportSource records the storage reads a report was computed from. It
// is not rendered by any encoder.
type ReportSource struct {
	DonationsFrom     time.Time // January 1 of the period's year
	DisbursementsFrom time.Time // period start
	Through           time.Time // exclusive
	DonationsRead     int
	DisbursementsRead int
}

// Report is a fully built filing, ready for encoding
type Report struct {
	Period        ReportingPeriod
	FilingType    FilingType
	ScheduleA     []ScheduleALine
	ScheduleB     []ScheduleBLine
	Summary       ReportSummary
	Warnings      []ComplianceWarning
	GeneratedFrom ReportSource
}

// TransactionID derives a stable filing transaction id from a record id:
// the prefix followed by the first 8 hex digits, uppercased
func TransactionID(prefix string, id uuid.UUID) string {
	hex := strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
	return prefix + hex[:8]
}
