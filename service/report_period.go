package service

import (
	"strconv"
	"strings"
	"time"

	"mesocratic/models"
)

var quarterStartMonths = map[string]time.Month{
	"Q1": time.January,
	"Q2": time.April,
	"Q3": time.July,
	"Q4": time.October,
}

// ResolvePeriod computes calendar boundaries for a period request
func ResolvePeriod(year int, periodType models.PeriodType, label string) (models.ReportingPeriod, error) {
	if year < 2000 || year > 9999 {
		return models.ReportingPeriod{}, models.NewValidationError("year", "must be between 2000 and 9999, got %d", year)
	}

	label = strings.ToUpper(strings.TrimSpace(label))

	switch periodType {
	case models.PeriodTypeQuarterly:
		month, ok := quarterStartMonths[label]
		if !ok {
			return models.ReportingPeriod{}, models.NewValidationError("period", "quarterly period must be Q1-Q4, got %q", label)
		}
		start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		return models.ReportingPeriod{
			Type:  periodType,
			Year:  year,
			Label: label,
			Start: start,
			End:   start.AddDate(0, 3, -1),
		}, nil

	case models.PeriodTypeMonthly:
		month, err := strconv.Atoi(label)
		if err != nil || month < 1 || month > 12 {
			return models.ReportingPeriod{}, models.NewValidationError("period", "monthly period must be 1-12, got %q", label)
		}
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return models.ReportingPeriod{
			Type:  periodType,
			Year:  year,
			Label: start.Format("01"),
			Start: start,
			End:   time.Date(year, time.Month(month), daysIn(time.Month(month), year), 0, 0, 0, 0, time.UTC),
		}, nil
	}

	return models.ReportingPeriod{}, models.NewValidationError("period_type", "must be quarterly or monthly, got %q", periodType)
}

// daysIn returns the number of days in a month, accounting for leap years
func daysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
