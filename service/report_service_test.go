package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mesocratic/filing"
	"mesocratic/models"
	"mesocratic/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReportServiceWithStore(store *memory.Store) ReportService {
	return NewReportService(store.Donations(), store.Disbursements(), testCommittee())
}

func TestBuildReport_ExampleScenario(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	smith := seedDonor(t, store, "Dana", "Smith", "23220", utcDay(2026, 1, 10))
	seedDonation(t, store, smith, 150_00, utcDay(2026, 1, 10))
	march := seedDonation(t, store, smith, 100_00, utcDay(2026, 3, 5))

	report, err := newReportServiceWithStore(store).BuildReport(ctx, quarterly(2026, "Q1"))
	require.NoError(t, err)

	require.Len(t, report.ScheduleA, 1)
	line := report.ScheduleA[0]
	assert.Equal(t, march.ID, line.DonationID)
	assert.Equal(t, int64(100_00), line.AmountCents)
	assert.Equal(t, int64(250_00), line.AggregateCents)
	assert.Equal(t, utcDay(2026, 3, 5), line.Date)

	assert.Equal(t, int64(250_00), report.Summary.TotalReceiptsCents)
	assert.Equal(t, int64(100_00), report.Summary.ItemizedReceiptsCents)
	assert.Equal(t, int64(150_00), report.Summary.UnitemizedReceiptsCents)
	assert.Equal(t, 2, report.Summary.ContributionCount)
	assert.Equal(t, 1, report.Summary.ContributorCount)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, smith.ID, report.Warnings[0].DonorID)
	assert.Equal(t, []string{"employer", "occupation"}, report.Warnings[0].MissingFields)
}

func TestBuildReport_SumInvariant(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	small := seedDonor(t, store, "Sam", "Small", "23220", utcDay(2024, 1, 1))
	big := seedDonor(t, store, "Bea", "Big", "23221", utcDay(2024, 1, 1))
	crosser := seedDonor(t, store, "Cal", "Cross", "23222", utcDay(2024, 1, 1))
	seedDonation(t, store, small, 50_00, utcDay(2024, 4, 2))
	seedDonation(t, store, small, 25_00, utcDay(2024, 5, 9))
	seedDonation(t, store, big, 500_00, utcDay(2024, 2, 14))
	seedDonation(t, store, big, 10_00, utcDay(2024, 6, 30))
	seedDonation(t, store, crosser, 150_00, utcDay(2024, 4, 1))
	seedDonation(t, store, crosser, 75_00, utcDay(2024, 6, 1))

	report, err := newReportServiceWithStore(store).BuildReport(ctx, quarterly(2024, "Q2"))
	require.NoError(t, err)

	var scheduleATotal int64
	for _, line := range report.ScheduleA {
		scheduleATotal += line.AmountCents
	}
	s := report.Summary
	assert.Equal(t, s.TotalReceiptsCents, scheduleATotal+s.UnitemizedReceiptsCents)
	assert.Equal(t, int64(310_00), s.TotalReceiptsCents)
	assert.Equal(t, int64(85_00), scheduleATotal)
	assert.Len(t, report.ScheduleA, 2)
}

func TestBuildReport_ScheduleBAndCashOnHand(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	donor := seedDonor(t, store, "Ann", "Lee", "23220", utcDay(2024, 1, 1))
	seedDonation(t, store, donor, 1000_00, utcDay(2024, 1, 20))

	seedDisbursement(t, store, "Sign Shop", 450_00, utcDay(2024, 2, 3), models.CategoryAdvertising)
	seedDisbursement(t, store, "Cafe", 200_00, utcDay(2024, 2, 1), models.CategoryFundraising)
	seedDisbursement(t, store, "Radio", 300_00, utcDay(2024, 1, 15), models.CategoryAdvertising)
	seedDisbursement(t, store, "Outside Period", 900_00, utcDay(2024, 4, 1), models.CategoryOther)

	start := int64(100_00)
	req := quarterly(2024, "Q1")
	req.CashOnHandStartCents = &start

	report, err := newReportServiceWithStore(store).BuildReport(ctx, req)
	require.NoError(t, err)

	require.Len(t, report.ScheduleB, 2)
	assert.Equal(t, "Radio", report.ScheduleB[0].PayeeName)
	assert.Equal(t, "Sign Shop", report.ScheduleB[1].PayeeName)

	s := report.Summary
	assert.Equal(t, int64(950_00), s.TotalDisbursementsCents)
	assert.Equal(t, int64(750_00), s.ItemizedDisbursementsCents)
	assert.Equal(t, []models.CategoryTotal{
		{Category: models.CategoryAdvertising, TotalCents: 750_00},
		{Category: models.CategoryFundraising, TotalCents: 200_00},
	}, s.DisbursementsByCategory)
	require.NotNil(t, s.CashOnHandEndCents)
	assert.Equal(t, int64(150_00), *s.CashOnHandEndCents)

	assert.Equal(t, models.ReportSource{
		DonationsFrom:     utcDay(2024, 1, 1),
		DisbursementsFrom: utcDay(2024, 1, 1),
		Through:           utcDay(2024, 4, 1),
		DonationsRead:     1,
		DisbursementsRead: 3,
	}, report.GeneratedFrom)
}

func TestBuildReport_NoCashOnHandWithoutStart(t *testing.T) {
	report, err := newReportServiceWithStore(memory.NewStore()).BuildReport(context.Background(), quarterly(2024, "Q3"))
	require.NoError(t, err)
	assert.Nil(t, report.Summary.CashOnHandStartCents)
	assert.Nil(t, report.Summary.CashOnHandEndCents)
	assert.Empty(t, report.ScheduleA)
}

func TestBuildReport_QueryFailureAborts(t *testing.T) {
	for _, op := range []string{"Donations.ListSucceededInRange", "Disbursements.ListInRange"} {
		store := memory.NewStore()
		store.FailOn(op, errors.New("connection reset"))

		report, err := newReportServiceWithStore(store).BuildReport(context.Background(), quarterly(2024, "Q1"))
		assert.Nil(t, report, op)
		require.Error(t, err, op)
		assert.True(t, errors.Is(err, models.ErrQueryFailure), op)

		var qErr *models.QueryError
		require.True(t, errors.As(err, &qErr), op)
		assert.Contains(t, qErr.Query, strings.Split(strings.ToLower(op), ".")[0])
	}
}

func TestBuildReport_ValidatesRequest(t *testing.T) {
	svc := newReportServiceWithStore(memory.NewStore())

	_, err := svc.BuildReport(context.Background(), quarterly(2024, "Q9"))
	assert.True(t, errors.Is(err, models.ErrValidation))

	req := quarterly(2024, "Q1")
	req.FilingType = "draft"
	_, err = svc.BuildReport(context.Background(), req)
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestExport_RerunsAreByteIdentical(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	donor := seedDonor(t, store, "Ann", "Lee", "23220", utcDay(2024, 1, 1))
	seedDonation(t, store, donor, 250_00, utcDay(2024, 2, 1))
	seedDonation(t, store, donor, 40_00, utcDay(2024, 3, 1))
	seedDisbursement(t, store, "Print Co", 650_00, utcDay(2024, 3, 3), models.CategoryAdvertising)

	svc := newReportServiceWithStore(store)
	for _, format := range []string{"fec", "irs8872", "csv-schedule-a", "csv-schedule-b", "csv-summary"} {
		_, first, err := svc.Export(ctx, quarterly(2024, "Q1"), format)
		require.NoError(t, err, format)
		_, second, err := svc.Export(ctx, quarterly(2024, "Q1"), format)
		require.NoError(t, err, format)
		assert.Equal(t, first, second, format)
		assert.NotEmpty(t, first, format)
	}
}

func TestExport_IRS8872(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	donor := seedDonor(t, store, "Ann", "Lee", "23220", utcDay(2024, 1, 1))
	seedDonation(t, store, donor, 250_00, utcDay(2024, 2, 1))

	report, out, err := newReportServiceWithStore(store).Export(ctx, quarterly(2024, "Q1"), "irs8872")
	require.NoError(t, err)
	assert.Contains(t, string(out), "<ContributorName>Ann Lee</ContributorName>")
	require.Len(t, report.ScheduleA, 1)
}

func TestExport_ReturnsTheEncodedReport(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	donor := seedDonor(t, store, "Ann", "Lee", "23220", utcDay(2024, 1, 1))
	seedDonation(t, store, donor, 250_00, utcDay(2024, 2, 1))
	seedDisbursement(t, store, "Print Co", 650_00, utcDay(2024, 3, 3), models.CategoryAdvertising)

	svc := newReportServiceWithStore(store)
	report, out, err := svc.Export(ctx, quarterly(2024, "Q1"), "csv-schedule-a")
	require.NoError(t, err)

	encoded, err := filing.EncodeScheduleACSV(report)
	require.NoError(t, err)
	assert.Equal(t, encoded, out)
	assert.Len(t, report.Warnings, 1, "the donor has no employer or occupation")
}

func TestExport_Errors(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	_, _, err := newReportServiceWithStore(store).Export(ctx, quarterly(2024, "Q1"), "pdf")
	assert.True(t, errors.Is(err, models.ErrUnknownFormat))

	committee := testCommittee()
	committee.CustodianName = ""
	svc := NewReportService(store.Donations(), store.Disbursements(), committee)
	_, _, err = svc.Export(ctx, quarterly(2024, "Q1"), "irs8872")
	assert.True(t, errors.Is(err, models.ErrValidation))

	// FEC output does not need the custodian
	_, _, err = svc.Export(ctx, quarterly(2024, "Q1"), "fec")
	assert.NoError(t, err)
}
