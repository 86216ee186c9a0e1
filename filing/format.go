// Package filing renders built compliance reports into regulator formats
// and validates generated Form 8872 documents.
package filing

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"mesocratic/models"
)

// Format is an export format
type Format string

const (
	FormatFEC          Format = "fec"
	FormatIRS8872      Format = "irs8872"
	FormatScheduleACSV Format = "csv-schedule-a"
	FormatScheduleBCSV Format = "csv-schedule-b"
	FormatSummaryCSV   Format = "csv-summary"
)

// Formats lists every supported export format
var Formats = []Format{FormatFEC, FormatIRS8872, FormatScheduleACSV, FormatScheduleBCSV, FormatSummaryCSV}

// ParseFormat resolves a format name
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", models.ErrUnknownFormat, s)
}

// Extension returns the conventional file extension for the format
func (f Format) Extension() string {
	switch f {
	case FormatFEC:
		return ".fec"
	case FormatIRS8872:
		return ".xml"
	default:
		return ".csv"
	}
}

// Encode renders a report in the given format
func Encode(f Format, report *models.Report, committee models.Committee) ([]byte, error) {
	switch f {
	case FormatFEC:
		out, err := EncodeFEC(report, committee)
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	case FormatIRS8872:
		return EncodeIRS8872(report, committee)
	case FormatScheduleACSV:
		return EncodeScheduleACSV(report)
	case FormatScheduleBCSV:
		return EncodeScheduleBCSV(report)
	case FormatSummaryCSV:
		return EncodeSummaryCSV(report)
	}
	return nil, fmt.Errorf("%w: %q", models.ErrUnknownFormat, f)
}

// FormatDollars renders integer cents as a dollar string with two decimals
func FormatDollars(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// formatFECDate renders MMDDYYYY
func formatFECDate(t time.Time) string {
	return t.UTC().Format("01022006")
}

// formatISODate renders YYYY-MM-DD
func formatISODate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// truncate trims s and cuts it to at most max runes
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max]))
}

// digitsOnly strips everything but ASCII digits
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
