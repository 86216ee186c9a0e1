package filing

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"mesocratic/models"
)

// IRS8872Namespace is the default namespace of the Form 8872 schema
const IRS8872Namespace = "http://forms.irs.gov/pofd/schema"

// Schema maximum lengths, in characters. Outbound values longer than
// these are truncated, never rejected.
const (
	maxOrganizationName = 70
	maxEIN              = 9
	maxAddressLine      = 35
	maxCity             = 22
	maxState            = 2
	maxZIP              = 9
	maxCustodianName    = 50
	maxPartyName        = 50
	maxEmployer         = 70
	maxOccupation       = 70
	maxPurpose          = 512
)

type form8872 struct {
	XMLName                     xml.Name         `xml:"FORM8872"`
	Namespace                   string           `xml:"xmlns,attr"`
	OrganizationName            string           `xml:"OrganizationName"`
	EIN                         string           `xml:"EIN"`
	MailingAddress              mailingAddress   `xml:"MailingAddress"`
	CustodianName               string           `xml:"CustodianName"`
	FilingType                  filingTypeFlags  `xml:"FilingType"`
	PeriodBeginDate             string           `xml:"PeriodBeginDate"`
	PeriodEndDate               string           `xml:"PeriodEndDate"`
	ReportType                  reportTypeFlags  `xml:"ReportType"`
	TotalScheduleAContributions string           `xml:"TotalScheduleAContributions"`
	TotalScheduleBExpenditures  string           `xml:"TotalScheduleBExpenditures"`
	ScheduleA                   []scheduleAEntry `xml:"ScheduleA"`
	ScheduleB                   []scheduleBEntry `xml:"ScheduleB"`
}

type mailingAddress struct {
	AddressLine1 string `xml:"AddressLine1,omitempty"`
	AddressLine2 string `xml:"AddressLine2,omitempty"`
	City         string `xml:"City,omitempty"`
	State        string `xml:"State,omitempty"`
	ZIPCode      string `xml:"ZIPCode,omitempty"`
}

// filingTypeFlags and reportTypeFlags mirror the schema's one-hot shape:
// one boolean child per possible value, exactly one of them true
type filingTypeFlags struct {
	InitialReport bool `xml:"InitialReport"`
	AmendedReport bool `xml:"AmendedReport"`
	FinalReport   bool `xml:"FinalReport"`
}

type reportTypeFlags struct {
	FirstQuarterReport  bool `xml:"FirstQuarterReport"`
	SecondQuarterReport bool `xml:"SecondQuarterReport"`
	ThirdQuarterReport  bool `xml:"ThirdQuarterReport"`
	YearEndReport       bool `xml:"YearEndReport"`
	MonthlyReport       bool `xml:"MonthlyReport"`
}

type scheduleAEntry struct {
	ContributorName           string `xml:"ContributorName"`
	ContributorAddressLine1   string `xml:"ContributorAddressLine1,omitempty"`
	ContributorCity           string `xml:"ContributorCity,omitempty"`
	ContributorState          string `xml:"ContributorState,omitempty"`
	ContributorZIPCode        string `xml:"ContributorZIPCode,omitempty"`
	ContributorEmployer       string `xml:"ContributorEmployer,omitempty"`
	ContributorOccupation     string `xml:"ContributorOccupation,omitempty"`
	ContributionAmount        string `xml:"ContributionAmount"`
	AggregateContributionsYTD string `xml:"AggregateContributionsYTD"`
	ContributionDate          string `xml:"ContributionDate"`
}

type scheduleBEntry struct {
	RecipientName         string `xml:"RecipientName"`
	RecipientAddressLine1 string `xml:"RecipientAddressLine1,omitempty"`
	RecipientCity         string `xml:"RecipientCity,omitempty"`
	RecipientState        string `xml:"RecipientState,omitempty"`
	RecipientZIPCode      string `xml:"RecipientZIPCode,omitempty"`
	ExpenditureAmount     string `xml:"ExpenditureAmount"`
	ExpenditureDate       string `xml:"ExpenditureDate"`
	ExpenditurePurpose    string `xml:"ExpenditurePurpose,omitempty"`
}

// EncodeIRS8872 renders the Form 8872 XML document. Schedule B is
// re-filtered against the stricter 8872 expenditure threshold.
func EncodeIRS8872(report *models.Report, committee models.Committee) ([]byte, error) {
	if err := committee.ValidateForIRS8872(); err != nil {
		return nil, err
	}
	ein := digitsOnly(committee.EIN)
	if len(ein) != maxEIN {
		return nil, models.NewValidationError("committee_ein", "must contain exactly 9 digits")
	}

	doc := form8872{
		Namespace:        IRS8872Namespace,
		OrganizationName: truncate(committee.Name, maxOrganizationName),
		EIN:              ein,
		MailingAddress: mailingAddress{
			AddressLine1: truncate(committee.Street1, maxAddressLine),
			AddressLine2: truncate(committee.Street2, maxAddressLine),
			City:         truncate(committee.City, maxCity),
			State:        truncate(strings.ToUpper(committee.State), maxState),
			ZIPCode:      truncate(digitsOnly(committee.Zip), maxZIP),
		},
		CustodianName:   truncate(committee.CustodianName, maxCustodianName),
		FilingType:      filingTypeOf(report.FilingType),
		PeriodBeginDate: formatISODate(report.Period.Start),
		PeriodEndDate:   formatISODate(report.Period.End),
		ReportType:      reportTypeOf(report.Period.Kind()),
	}

	var totalA, totalB int64
	for _, a := range report.ScheduleA {
		totalA += a.AmountCents
		doc.ScheduleA = append(doc.ScheduleA, scheduleAEntry{
			ContributorName:           truncate(strings.TrimSpace(a.ContributorFirst+" "+a.ContributorLast), maxPartyName),
			ContributorAddressLine1:   truncate(a.Street1, maxAddressLine),
			ContributorCity:           truncate(a.City, maxCity),
			ContributorState:          truncate(strings.ToUpper(a.State), maxState),
			ContributorZIPCode:        truncate(digitsOnly(a.Zip), maxZIP),
			ContributorEmployer:       truncate(a.Employer, maxEmployer),
			ContributorOccupation:     truncate(a.Occupation, maxOccupation),
			ContributionAmount:        FormatDollars(a.AmountCents),
			AggregateContributionsYTD: FormatDollars(a.AggregateCents),
			ContributionDate:          formatISODate(a.Date),
		})
	}

	for _, b := range report.ScheduleB {
		if b.AmountCents <= models.IRS8872ScheduleBThresholdCents {
			continue
		}
		totalB += b.AmountCents
		doc.ScheduleB = append(doc.ScheduleB, scheduleBEntry{
			RecipientName:         truncate(b.PayeeName, maxPartyName),
			RecipientAddressLine1: truncate(b.Street1, maxAddressLine),
			RecipientCity:         truncate(b.City, maxCity),
			RecipientState:        truncate(strings.ToUpper(b.State), maxState),
			RecipientZIPCode:      truncate(digitsOnly(b.Zip), maxZIP),
			ExpenditureAmount:     FormatDollars(b.AmountCents),
			ExpenditureDate:       formatISODate(b.Date),
			ExpenditurePurpose:    truncate(b.Purpose, maxPurpose),
		})
	}
	doc.TotalScheduleAContributions = FormatDollars(totalA)
	doc.TotalScheduleBExpenditures = FormatDollars(totalB)

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode form 8872: %w", err)
	}
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

func filingTypeOf(t models.FilingType) filingTypeFlags {
	switch t {
	case models.FilingTypeAmended:
		return filingTypeFlags{AmendedReport: true}
	case models.FilingTypeFinal:
		return filingTypeFlags{FinalReport: true}
	default:
		return filingTypeFlags{InitialReport: true}
	}
}

func reportTypeOf(kind models.ReportKind) reportTypeFlags {
	switch kind {
	case models.ReportKindFirstQuarter:
		return reportTypeFlags{FirstQuarterReport: true}
	case models.ReportKindSecondQuarter:
		return reportTypeFlags{SecondQuarterReport: true}
	case models.ReportKindThirdQuarter:
		return reportTypeFlags{ThirdQuarterReport: true}
	case models.ReportKindMonthly:
		return reportTypeFlags{MonthlyReport: true}
	default:
		return reportTypeFlags{YearEndReport: true}
	}
}
