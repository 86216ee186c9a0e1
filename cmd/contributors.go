package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newContributorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contributors",
		Short: "Inspect probable duplicate donors",
	}

	duplicates := &cobra.Command{
		Use:   "duplicates",
		Short: "List donors that share a normalized name and ZIP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			groups, err := a.contributors.FindDuplicateGroups(cmd.Context())
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No duplicate donors found")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tDONOR ID\tNAME\tZIP\tCREATED\tCANONICAL")
			for _, g := range groups {
				for _, d := range g.Donors {
					canonical := ""
					if d.ID == g.Canonical.ID {
						canonical = "yes"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						g.NormalizedKey, d.ID, d.FullName(), d.Zip, d.CreatedAt.UTC().Format(time.DateOnly), canonical)
				}
			}
			return tw.Flush()
		},
	}

	var year int
	aggregate := &cobra.Command{
		Use:   "aggregate <donor-id>",
		Short: "Sum a year's donations across a donor's probable duplicates",
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

			total, err := a.contributors.CombinedAggregate(cmd.Context(), donorID, year)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d combined aggregate for %s: %s\n", year, donorID, formatCents(total))
			return nil
		},
	}
	aggregate.Flags().IntVar(&year, "year", time.Now().UTC().Year(), "calendar year to aggregate")

	cmd.AddCommand(duplicates, aggregate)
	return cmd
}
