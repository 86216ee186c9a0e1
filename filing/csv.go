package filing

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"mesocratic/models"
)

var (
	scheduleAHeader = []string{"Transaction ID", "Contributor Last Name", "Contributor First Name", "Street", "City", "State", "ZIP", "Employer", "Occupation", "Date", "Amount", "Aggregate YTD"}
	scheduleBHeader = []string{"Transaction ID", "Payee Name", "Street", "City", "State", "ZIP", "Date", "Amount", "Category", "Purpose"}
	summaryHeader   = []string{"Line", "Value"}
)

// EncodeScheduleACSV renders itemized contributions as CSV
func EncodeScheduleACSV(report *models.Report) ([]byte, error) {
	rows := make([][]string, 0, len(report.ScheduleA))
	for _, a := range report.ScheduleA {
		rows = append(rows, []string{
			a.TransactionID,
			a.ContributorLast,
			a.ContributorFirst,
			a.Street1,
			a.City,
			a.State,
			a.Zip,
			a.Employer,
			a.Occupation,
			formatISODate(a.Date),
			FormatDollars(a.AmountCents),
			FormatDollars(a.AggregateCents),
		})
	}
	return writeCSV(scheduleAHeader, rows)
}

// EncodeScheduleBCSV renders itemized disbursements as CSV
func EncodeScheduleBCSV(report *models.Report) ([]byte, error) {
	rows := make([][]string, 0, len(report.ScheduleB))
	for _, b := range report.ScheduleB {
		rows = append(rows, []string{
			b.TransactionID,
			b.PayeeName,
			b.Street1,
			b.City,
			b.State,
			b.Zip,
			formatISODate(b.Date),
			FormatDollars(b.AmountCents),
			string(b.Category),
			b.Purpose,
		})
	}
	return writeCSV(scheduleBHeader, rows)
}

// EncodeSummaryCSV renders the period totals as Line,Value pairs
func EncodeSummaryCSV(report *models.Report) ([]byte, error) {
	s := report.Summary
	rows := [][]string{
		{"Period", report.Period.String()},
		{"Coverage From", formatISODate(report.Period.Start)},
		{"Coverage Through", formatISODate(report.Period.End)},
		{"Total Receipts", FormatDollars(s.TotalReceiptsCents)},
		{"Itemized Receipts", FormatDollars(s.ItemizedReceiptsCents)},
		{"Unitemized Receipts", FormatDollars(s.UnitemizedReceiptsCents)},
		{"Contribution Count", fmt.Sprintf("%d", s.ContributionCount)},
		{"Contributor Count", fmt.Sprintf("%d", s.ContributorCount)},
		{"Total Disbursements", FormatDollars(s.TotalDisbursementsCents)},
		{"Itemized Disbursements", FormatDollars(s.ItemizedDisbursementsCents)},
	}
	if s.CashOnHandStartCents != nil {
		rows = append(rows, []string{"Cash On Hand Start", FormatDollars(*s.CashOnHandStartCents)})
	}
	if s.CashOnHandEndCents != nil {
		rows = append(rows, []string{"Cash On Hand End", FormatDollars(*s.CashOnHandEndCents)})
	}
	for _, c := range s.DisbursementsByCategory {
		rows = append(rows, []string{"Disbursements: " + string(c.Category), FormatDollars(c.TotalCents)})
	}
	return writeCSV(summaryHeader, rows)
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}
