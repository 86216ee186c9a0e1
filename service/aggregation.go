package service

import (
	"sort"

	"mesocratic/models"

	"github.com/google/uuid"
)

// AggregatedDonation is a donation annotated with the donor's running
// year-to-date total immediately after it was added
type AggregatedDonation struct {
	*models.DonationWithDonor
	AggregateCents int64
	Itemized       bool
}

// AggregateYearToDate replays donations in chronological order (created_at,
// then seq) and records each donor's post-addition running total. A donor
// becomes itemized the first time the total exceeds thresholdCents and stays
// itemized for every later donation in the replay.
func AggregateYearToDate(donations []*models.DonationWithDonor, thresholdCents int64) []AggregatedDonation {
	ordered := make([]*models.DonationWithDonor, len(donations))
	copy(ordered, donations)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].Seq < ordered[j].Seq
	})

	totals := make(map[uuid.UUID]int64)
	itemized := make(map[uuid.UUID]bool)
	out := make([]AggregatedDonation, 0, len(ordered))

	for _, d := range ordered {
		totals[d.DonorID] += d.AmountCents
		if totals[d.DonorID] > thresholdCents {
			itemized[d.DonorID] = true
		}
		out = append(out, AggregatedDonation{
			DonationWithDonor: d,
			AggregateCents:    totals[d.DonorID],
			Itemized:          itemized[d.DonorID],
		})
	}
	return out
}

// ScheduleALines selects the itemized donations dated inside the period.
// Earlier year-to-date donations only contribute to the running aggregate.
func ScheduleALines(period models.ReportingPeriod, aggregated []AggregatedDonation) []models.ScheduleALine {
	var lines []models.ScheduleALine
	for _, a := range aggregated {
		if !a.Itemized || !period.Contains(a.CreatedAt) {
			continue
		}
		lines = append(lines, models.ScheduleALine{
			TransactionID:    models.TransactionID("SA-", a.ID),
			DonationID:       a.ID,
			DonorID:          a.DonorID,
			ContributorFirst: a.Donor.FirstName,
			ContributorLast:  a.Donor.LastName,
			Street1:          a.Donor.Street1,
			Street2:          a.Donor.Street2,
			City:             a.Donor.City,
			State:            a.Donor.State,
			Zip:              a.Donor.Zip,
			Employer:         a.Donor.Employer,
			Occupation:       a.Donor.Occupation,
			Date:             a.CreatedAt.UTC(),
			AmountCents:      a.AmountCents,
			AggregateCents:   a.AggregateCents,
		})
	}
	return lines
}
