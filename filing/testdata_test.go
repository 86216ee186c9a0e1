package filing

import (
	"time"

	"mesocratic/models"
)

func testCommittee() models.Committee {
	return models.Committee{
		Name:               "Citizens for Mesa",
		FECID:              "C00123456",
		EIN:                "12-3456789",
		Street1:            "1 Main St",
		City:               "Denver",
		State:              "co",
		Zip:                "80202-1234",
		TreasurerLastName:  "Doe",
		TreasurerFirstName: "Jane",
		CustodianName:      "Jane Doe",
	}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func testReport() *models.Report {
	return &models.Report{
		Period: models.ReportingPeriod{
			Type:  models.PeriodTypeQuarterly,
			Year:  2024,
			Label: "Q1",
			Start: day(2024, time.January, 1),
			End:   day(2024, time.March, 31),
		},
		FilingType: models.FilingTypeInitial,
		ScheduleA: []models.ScheduleALine{
			{
				TransactionID:    "SA-0A1B2C3D",
				ContributorFirst: "Ann",
				ContributorLast:  "Smith",
				Street1:          "5 Elm St",
				City:             "Boulder",
				State:            "CO",
				Zip:              "80301",
				Employer:         "Acme",
				Occupation:       "Engineer",
				Date:             day(2024, time.February, 10),
				AmountCents:      150_00,
				AggregateCents:   250_00,
			},
		},
		ScheduleB: []models.ScheduleBLine{
			{
				TransactionID: "SB-00000001",
				PayeeName:     "Print Co",
				Street1:       "9 Oak Ave",
				City:          "Denver",
				State:         "CO",
				Zip:           "80202",
				Date:          day(2024, time.March, 1),
				AmountCents:   600_00,
				Category:      models.CategoryAdvertising,
				Purpose:       "Yard signs",
			},
			{
				TransactionID: "SB-00000002",
				PayeeName:     "Hall Rentals",
				City:          "Denver",
				State:         "CO",
				Date:          day(2024, time.March, 2),
				AmountCents:   500_00,
				Category:      models.CategoryFundraising,
				Purpose:       "Venue",
			},
		},
		Summary: models.ReportSummary{
			TotalReceiptsCents:         400_00,
			ItemizedReceiptsCents:      150_00,
			UnitemizedReceiptsCents:    250_00,
			TotalDisbursementsCents:    1100_00,
			ItemizedDisbursementsCents: 1100_00,
			ContributionCount:          3,
			ContributorCount:           2,
			DisbursementsByCategory: []models.CategoryTotal{
				{Category: models.CategoryAdvertising, TotalCents: 600_00},
				{Category: models.CategoryFundraising, TotalCents: 500_00},
			},
		},
	}
}
