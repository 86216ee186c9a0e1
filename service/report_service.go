package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"mesocratic/filing"
	"mesocratic/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// reportService implements the ReportService interface. It holds no state
// between calls; every report is recomputed from storage.
type reportService struct {
	donationRepo     DonationRepository
	disbursementRepo DisbursementRepository
	committee        models.Committee
}

// NewReportService creates a new report service
func NewReportService(donationRepo DonationRepository, disbursementRepo DisbursementRepository, committee models.Committee) ReportService {
	return &reportService{
		donationRepo:     donationRepo,
		disbursementRepo: disbursementRepo,
		committee:        committee,
	}
}

// BuildReport computes Schedule A, Schedule B, the summary and warnings
func (s *reportService) BuildReport(ctx context.Context, req models.ReportRequest) (*models.Report, error) {
	period, err := ResolvePeriod(req.Year, req.PeriodType, req.PeriodLabel)
	if err != nil {
		return nil, err
	}
	filingType, err := models.ParseFilingType(string(req.FilingType))
	if err != nil {
		return nil, err
	}

	// Aggregation needs every donation since January 1, not just the period
	ytd, err := s.donationRepo.ListSucceededInRange(ctx, period.YearStart(), period.EndExclusive())
	if err != nil {
		return nil, queryFailure(period, "donations.ListSucceededInRange", err)
	}

	itemizedDisbursements, err := s.disbursementRepo.ListInRange(ctx, period.Start, period.EndExclusive(), models.ItemizationThresholdCents)
	if err != nil {
		return nil, queryFailure(period, "disbursements.ListInRange(itemized)", err)
	}

	allDisbursements, err := s.disbursementRepo.ListInRange(ctx, period.Start, period.EndExclusive(), 0)
	if err != nil {
		return nil, queryFailure(period, "disbursements.ListInRange(all)", err)
	}

	aggregated := AggregateYearToDate(ytd, models.ItemizationThresholdCents)
	scheduleA := ScheduleALines(period, aggregated)
	scheduleB := scheduleBLines(itemizedDisbursements)

	report := &models.Report{
		Period:     period,
		FilingType: filingType,
		ScheduleA:  scheduleA,
		ScheduleB:  scheduleB,
		Summary:    summarize(period, aggregated, scheduleA, scheduleB, allDisbursements, req.CashOnHandStartCents),
		Warnings:   complianceWarnings(scheduleA),
		GeneratedFrom: models.ReportSource{
			DonationsFrom:     period.YearStart(),
			DisbursementsFrom: period.Start,
			Through:           period.EndExclusive(),
			DonationsRead:     len(ytd),
			DisbursementsRead: len(allDisbursements),
		},
	}

	log.WithFields(log.Fields{
		"period":    period.String(),
		"scheduleA": len(scheduleA),
		"scheduleB": len(scheduleB),
		"warnings":  len(report.Warnings),
	}).Info("Built compliance report")

	return report, nil
}

// Export builds the report once and renders it in the requested format,
// returning the report alongside the bytes encoded from it. XML output is
// re-parsed by the 8872 validator before it is returned.
func (s *reportService) Export(ctx context.Context, req models.ReportRequest, format string) (*models.Report, []byte, error) {
	f, err := filing.ParseFormat(format)
	if err != nil {
		return nil, nil, err
	}

	report, err := s.BuildReport(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	out, err := filing.Encode(f, report, s.committee)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode %s for %s: %w", f, report.Period, err)
	}

	if f == filing.FormatIRS8872 {
		result, err := filing.ValidateIRS8872(out)
		if err != nil {
			return nil, nil, fmt.Errorf("8872 encoder produced an unusable document: %w", err)
		}
		if !result.Valid {
			log.WithFields(log.Fields{
				"period": report.Period.String(),
				"errors": result.Errors,
			}).Error("Generated 8872 failed validation")
			return nil, nil, fmt.Errorf("%w: %s", models.ErrFilingInvalid, strings.Join(result.Errors, "; "))
		}
	}

	return report, out, nil
}

func queryFailure(period models.ReportingPeriod, query string, err error) error {
	return fmt.Errorf("failed to build report for %s: %w", period, &models.QueryError{Query: query, Err: err})
}

func scheduleBLines(disbursements []*models.Disbursement) []models.ScheduleBLine {
	lines := make([]models.ScheduleBLine, 0, len(disbursements))
	for _, d := range disbursements {
		lines = append(lines, models.ScheduleBLine{
			TransactionID:  models.TransactionID("SB-", d.ID),
			DisbursementID: d.ID,
			PayeeName:      d.PayeeName,
			Street1:        d.Street1,
			Street2:        d.Street2,
			City:           d.City,
			State:          d.State,
			Zip:            d.Zip,
			Date:           d.DisbursedOn.UTC(),
			AmountCents:    d.AmountCents,
			Category:       d.Category,
			Purpose:        d.Purpose,
		})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if !lines[i].Date.Equal(lines[j].Date) {
			return lines[i].Date.Before(lines[j].Date)
		}
		return lines[i].DisbursementID.String() < lines[j].DisbursementID.String()
	})
	return lines
}

// summarize totals every succeeded donation and disbursement in the period,
// itemized or not
func summarize(
	period models.ReportingPeriod,
	aggregated []AggregatedDonation,
	scheduleA []models.ScheduleALine,
	scheduleB []models.ScheduleBLine,
	disbursements []*models.Disbursement,
	cashOnHandStart *int64,
) models.ReportSummary {
	var summary models.ReportSummary

	contributors := make(map[uuid.UUID]bool)
	for _, a := range aggregated {
		if !period.Contains(a.CreatedAt) {
			continue
		}
		summary.TotalReceiptsCents += a.AmountCents
		summary.ContributionCount++
		contributors[a.DonorID] = true
	}
	summary.ContributorCount = len(contributors)

	for _, line := range scheduleA {
		summary.ItemizedReceiptsCents += line.AmountCents
	}
	summary.UnitemizedReceiptsCents = summary.TotalReceiptsCents - summary.ItemizedReceiptsCents

	byCategory := make(map[models.DisbursementCategory]int64)
	for _, d := range disbursements {
		summary.TotalDisbursementsCents += d.AmountCents
		byCategory[d.Category] += d.AmountCents
	}
	for _, line := range scheduleB {
		summary.ItemizedDisbursementsCents += line.AmountCents
	}
	for category, total := range byCategory {
		summary.DisbursementsByCategory = append(summary.DisbursementsByCategory, models.CategoryTotal{
			Category:   category,
			TotalCents: total,
		})
	}
	sort.Slice(summary.DisbursementsByCategory, func(i, j int) bool {
		return summary.DisbursementsByCategory[i].Category < summary.DisbursementsByCategory[j].Category
	})

	if cashOnHandStart != nil {
		start := *cashOnHandStart
		end := start + summary.TotalReceiptsCents - summary.TotalDisbursementsCents
		summary.CashOnHandStartCents = &start
		summary.CashOnHandEndCents = &end
	}

	return summary
}

// complianceWarnings returns one warning per itemized donor missing
// employer or occupation, in order of first Schedule A appearance
func complianceWarnings(scheduleA []models.ScheduleALine) []models.ComplianceWarning {
	var warnings []models.ComplianceWarning
	seen := make(map[uuid.UUID]bool)

	for _, line := range scheduleA {
		if seen[line.DonorID] {
			continue
		}
		seen[line.DonorID] = true

		donor := models.Donor{
			FirstName:  line.ContributorFirst,
			LastName:   line.ContributorLast,
			Employer:   line.Employer,
			Occupation: line.Occupation,
		}
		missing := donor.MissingFields()
		if len(missing) == 0 {
			continue
		}
		message := fmt.Sprintf("%s is itemized but missing %s; best-efforts follow-up required",
			donor.FullName(), strings.Join(missing, " and "))
		warnings = append(warnings, models.ComplianceWarning{
			DonorID:       line.DonorID,
			DonorName:     donor.FullName(),
			MissingFields: missing,
			Message:       message,
		})
	}
	return warnings
}
