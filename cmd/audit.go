package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit <table> <record-id>",
		Short: "Show the audit trail of one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.auditLog.ListByRecord(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No audit entries for %s %s\n", args[0], args[1])
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tACTION\tIP\tOLD\tNEW")
			for _, e := range entries {
				oldValue, _ := json.Marshal(e.OldValue)
				newValue, _ := json.Marshal(e.NewValue)
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					e.CreatedAt.UTC().Format(time.RFC3339), e.Action, e.IPAddress, oldValue, newValue)
			}
			return tw.Flush()
		},
	}
	return cmd
}
