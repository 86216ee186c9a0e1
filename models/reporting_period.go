package models

import (
	"fmt"
	"time"
)

// PeriodType distinguishes quarterly from monthly filers
type PeriodType string

const (
	PeriodTypeQuarterly PeriodType = "quarterly"
	PeriodTypeMonthly   PeriodType = "monthly"
)

// ReportKind is the regulator-facing classification of a reporting period
type ReportKind string

const (
	ReportKindFirstQuarter  ReportKind = "first_quarter"
	ReportKindSecondQuarter ReportKind = "second_quarter"
	ReportKindThirdQuarter  ReportKind = "third_quarter"
	ReportKindYearEnd       ReportKind = "year_end"
	ReportKindMonthly       ReportKind = "monthly"
)

// ReportingPeriod is a derived calendar window. Start and End are UTC
// midnights of the first and last day; both days are inclusive.
type ReportingPeriod struct {
	Type  PeriodType
	Year  int
	Label string
	Start time.Time
	End   time.Time
}

// YearStart returns January 1 of the period's year
func (p ReportingPeriod) YearStart() time.Time {
	return time.Date(p.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// EndExclusive returns the first instant after the period
func (p ReportingPeriod) EndExclusive() time.Time {
	return p.End.AddDate(0, 0, 1)
}

// Contains reports whether t falls on one of the period's days
func (p ReportingPeriod) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(p.Start) && t.Before(p.EndExclusive())
}

// Kind maps the period onto the regulator's report classification
func (p ReportingPeriod) Kind() ReportKind {
	if p.Type == PeriodTypeMonthly {
		if p.Start.Month() == time.December {
			return ReportKindYearEnd
		}
		return ReportKindMonthly
	}
	switch p.Label {
	case "Q1":
		return ReportKindFirstQuarter
	case "Q2":
		return ReportKindSecondQuarter
	case "Q3":
		return ReportKindThirdQuarter
	default:
		return ReportKindYearEnd
	}
}

// ReportCode returns the FEC report code. Monthly reports are named for
// the month they are filed in, which is the month after coverage.
func (p ReportingPeriod) ReportCode() string {
	if p.Kind() == ReportKindYearEnd {
		return "YE"
	}
	if p.Type == PeriodTypeMonthly {
		return fmt.Sprintf("M%d", int(p.Start.Month())+1)
	}
	return p.Label
}

func (p ReportingPeriod) String() string {
	return fmt.Sprintf("%d %s %s", p.Year, p.Type, p.Label)
}
