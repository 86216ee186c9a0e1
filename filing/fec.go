package filing

import (
	"strings"

	"mesocratic/models"
)

// FECHeader is the fixed first line of every FEC filing
const FECHeader = "HDR|FEC|8.4|Mesocratic Compliance Engine|1.0"

var fecFieldCleaner = strings.NewReplacer("|", " ", "\r\n", " ", "\n", " ", "\r", " ")

// EncodeFEC renders the pipe-delimited Form 3X filing
func EncodeFEC(report *models.Report, committee models.Committee) (string, error) {
	if err := committee.ValidateForFEC(); err != nil {
		return "", err
	}

	lines := make([]string, 0, 2+len(report.ScheduleA)+len(report.ScheduleB))
	lines = append(lines, FECHeader)
	lines = append(lines, fecSummaryLine(report, committee))

	for _, a := range report.ScheduleA {
		lines = append(lines, fecLine(
			"SA11AI",
			committee.FECID,
			a.TransactionID,
			"IND",
			a.ContributorLast,
			a.ContributorFirst,
			a.Street1,
			a.Street2,
			a.City,
			a.State,
			a.Zip,
			formatFECDate(a.Date),
			FormatDollars(a.AmountCents),
			FormatDollars(a.AggregateCents),
			a.Employer,
			a.Occupation,
		))
	}

	for _, b := range report.ScheduleB {
		lines = append(lines, fecLine(
			"SB21B",
			committee.FECID,
			b.TransactionID,
			b.PayeeName,
			b.Street1,
			b.Street2,
			b.City,
			b.State,
			b.Zip,
			formatFECDate(b.Date),
			FormatDollars(b.AmountCents),
			b.Purpose,
			string(b.Category),
		))
	}

	return strings.Join(lines, "\n"), nil
}

func fecSummaryLine(report *models.Report, committee models.Committee) string {
	s := report.Summary

	cashStart, cashEnd := "", ""
	if s.CashOnHandStartCents != nil {
		cashStart = FormatDollars(*s.CashOnHandStartCents)
	}
	if s.CashOnHandEndCents != nil {
		cashEnd = FormatDollars(*s.CashOnHandEndCents)
	}

	return fecLine(
		"F3XN",
		committee.FECID,
		committee.Name,
		committee.Street1,
		committee.Street2,
		committee.City,
		committee.State,
		committee.Zip,
		report.Period.ReportCode(),
		formatFECDate(report.Period.Start),
		formatFECDate(report.Period.End),
		committee.TreasurerLastName,
		committee.TreasurerFirstName,
		cashStart,
		FormatDollars(s.TotalReceiptsCents),
		FormatDollars(s.ItemizedReceiptsCents),
		FormatDollars(s.UnitemizedReceiptsCents),
		FormatDollars(s.TotalDisbursementsCents),
		cashEnd,
	)
}

// fecLine joins fields with pipes; values may not carry pipes or line breaks
func fecLine(fields ...string) string {
	for i, f := range fields {
		fields[i] = strings.TrimSpace(fecFieldCleaner.Replace(f))
	}
	return strings.Join(fields, "|")
}
