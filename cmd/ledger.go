package cmd

import (
	"fmt"
	"strings"

	"mesocratic/models"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Record donations and disbursements",
	}
	cmd.AddCommand(newRecordDonationCmd(), newRecordDisbursementCmd())
	return cmd
}

func newRecordDonationCmd() *cobra.Command {
	var (
		donorID string
		donor   models.Donor
		amount  string
		status  string
		ip      string
	)

	cmd := &cobra.Command{
		Use:   "record-donation",
		Short: "Record a donation, creating the donor on first gift",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cents, err := parseDollars("amount", amount)
			if err != nil {
				return err
			}
			if donorID != "" {
				if donor.ID, err = parseID("donor_id", donorID); err != nil {
					return err
				}
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			donation, err := a.ledger.RecordDonation(cmd.Context(), &donor, &models.Donation{
				AmountCents: cents,
				Status:      models.DonationStatus(strings.ToLower(status)),
			}, ip)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded donation %s (%s) for donor %s\n",
				donation.ID, models.TransactionID("SA-", donation.ID), donation.DonorID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&donorID, "donor-id", "", "existing donor id; the donor fields are used when it is unknown")
	f.StringVar(&donor.FirstName, "first-name", "", "donor first name")
	f.StringVar(&donor.LastName, "last-name", "", "donor last name")
	f.StringVar(&donor.Email, "email", "", "donor email")
	f.StringVar(&donor.Street1, "street1", "", "donor street address")
	f.StringVar(&donor.Street2, "street2", "", "donor street address, second line")
	f.StringVar(&donor.City, "city", "", "donor city")
	f.StringVar(&donor.State, "state", "", "donor state")
	f.StringVar(&donor.Zip, "zip", "", "donor ZIP code")
	f.StringVar(&donor.Employer, "employer", "", "donor employer")
	f.StringVar(&donor.Occupation, "occupation", "", "donor occupation")
	f.StringVar(&amount, "amount", "", "amount in dollars")
	f.StringVar(&status, "status", string(models.DonationStatusSucceeded), "pending, succeeded or failed")
	f.StringVar(&ip, "ip", "", "IP address the donation came from")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newRecordDisbursementCmd() *cobra.Command {
	var (
		d        models.Disbursement
		amount   string
		date     string
		category string
		ip       string
	)

	cmd := &cobra.Command{
		Use:   "record-disbursement",
		Short: "Record an outgoing payment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if d.AmountCents, err = parseDollars("amount", amount); err != nil {
				return err
			}
			if d.DisbursedOn, err = parseDate("date", date); err != nil {
				return err
			}
			d.ID = uuid.New()
			d.Category = models.DisbursementCategory(strings.ToLower(category))

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			recorded, err := a.ledger.RecordDisbursement(cmd.Context(), &d, ip)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded disbursement %s (%s)\n",
				recorded.ID, models.TransactionID("SB-", recorded.ID))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&d.PayeeName, "payee", "", "payee name")
	f.StringVar(&d.Street1, "street1", "", "payee street address")
	f.StringVar(&d.Street2, "street2", "", "payee street address, second line")
	f.StringVar(&d.City, "city", "", "payee city")
	f.StringVar(&d.State, "state", "", "payee state")
	f.StringVar(&d.Zip, "zip", "", "payee ZIP code")
	f.StringVar(&amount, "amount", "", "amount in dollars")
	f.StringVar(&date, "date", "", "disbursement date, YYYY-MM-DD")
	f.StringVar(&category, "category", string(models.CategoryOperating), "disbursement category")
	f.StringVar(&d.Purpose, "purpose", "", "purpose of the disbursement")
	f.StringVar(&ip, "ip", "", "IP address of the operator")
	_ = cmd.MarkFlagRequired("payee")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}
