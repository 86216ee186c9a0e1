package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFollowUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "followup",
		Short: "Best-efforts employer/occupation follow-up",
	}

	var employer, occupation, ip string
	markReceived := &cobra.Command{
		Use:   "mark-received <donor-id>",
		Short: "Record a donor's employer/occupation response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			donorID, err := parseID("donor_id", args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.followUps.MarkReceived(cmd.Context(), donorID, employer, occupation, ip); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded response for donor %s\n", donorID)
			return nil
		},
	}
	markReceived.Flags().StringVar(&employer, "employer", "", "donor's employer")
	markReceived.Flags().StringVar(&occupation, "occupation", "", "donor's occupation")
	markReceived.Flags().StringVar(&ip, "ip", "", "IP address the response came from")

	evaluate := &cobra.Command{
		Use:   "evaluate <donor-id> <donation-id>",
		Short: "Re-run the follow-up decision for a donor",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			donorID, err := parseID("donor_id", args[0])
			if err != nil {
				return err
			}
			donationID, err := parseID("donation_id", args[1])
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			outcome := a.followUps.Evaluate(cmd.Context(), donorID, donationID)
			fmt.Fprintln(cmd.OutOrStdout(), outcome)
			return nil
		},
	}

	cmd.AddCommand(markReceived, evaluate)
	return cmd
}
