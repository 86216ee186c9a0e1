package cmd

import (
	"fmt"
	"strings"
	"time"

	"mesocratic/filing"
	"mesocratic/models"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type reportOptions struct {
	year       int
	periodType string
	period     string
	format     string
	out        string
	cashOnHand string
	filingType string
}

func newReportCmd() *cobra.Command {
	opts := &reportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build a compliance report for one period and export it",
		Example: `  mesocratic report --year 2024 --period Q1 --format fec --out q1.fec
  mesocratic report --year 2024 --type monthly --period 03 --format irs8872 --cash-on-hand 1500.00`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			report, out, err := a.reports.Export(cmd.Context(), req, opts.format)
			if err != nil {
				return err
			}
			for _, w := range report.Warnings {
				log.WithFields(log.Fields{
					"donorID": w.DonorID,
					"missing": strings.Join(w.MissingFields, ","),
				}).Warn(w.Message)
			}

			if err := writeOutput(cmd.OutOrStdout(), opts.out, out); err != nil {
				return err
			}

			log.WithFields(log.Fields{
				"period":    report.Period.String(),
				"format":    opts.format,
				"scheduleA": len(report.ScheduleA),
				"scheduleB": len(report.ScheduleB),
				"warnings":  len(report.Warnings),
			}).Info("Report exported")
			return nil
		},
	}

	formats := make([]string, len(filing.Formats))
	for i, f := range filing.Formats {
		formats[i] = string(f)
	}

	cmd.Flags().IntVar(&opts.year, "year", time.Now().UTC().Year(), "calendar year of the report")
	cmd.Flags().StringVar(&opts.periodType, "type", string(models.PeriodTypeQuarterly), "period type: quarterly or monthly")
	cmd.Flags().StringVar(&opts.period, "period", "", "period label: Q1-Q4 or 1-12")
	cmd.Flags().StringVar(&opts.format, "format", string(filing.FormatFEC), "export format: "+strings.Join(formats, ", "))
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file, stdout when empty")
	cmd.Flags().StringVar(&opts.cashOnHand, "cash-on-hand", "", "opening cash on hand in dollars")
	cmd.Flags().StringVar(&opts.filingType, "filing-type", string(models.FilingTypeInitial), "8872 filing type: initial, amended or final")
	_ = cmd.MarkFlagRequired("period")

	return cmd
}

// request validates the flags that can be checked without a database
func (o *reportOptions) request() (models.ReportRequest, error) {
	filingType, err := models.ParseFilingType(o.filingType)
	if err != nil {
		return models.ReportRequest{}, err
	}
	if _, err := filing.ParseFormat(o.format); err != nil {
		return models.ReportRequest{}, err
	}

	var periodType models.PeriodType
	switch models.PeriodType(strings.ToLower(strings.TrimSpace(o.periodType))) {
	case models.PeriodTypeQuarterly:
		periodType = models.PeriodTypeQuarterly
	case models.PeriodTypeMonthly:
		periodType = models.PeriodTypeMonthly
	default:
		return models.ReportRequest{}, models.NewValidationError("type", "must be quarterly or monthly, got %q", o.periodType)
	}

	req := models.ReportRequest{
		Year:        o.year,
		PeriodType:  periodType,
		PeriodLabel: o.period,
		FilingType:  filingType,
	}
	if o.cashOnHand != "" {
		cents, err := parseDollars("cash_on_hand", o.cashOnHand)
		if err != nil {
			return models.ReportRequest{}, err
		}
		req.CashOnHandStartCents = &cents
	}
	return req, nil
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%s", filing.FormatDollars(cents))
}
