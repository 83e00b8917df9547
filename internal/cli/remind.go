package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"erp-telegram-bot/internal/app"
	"erp-telegram-bot/internal/features/reminder/models"
)

func remindCmd(st *state) *cobra.Command {
	var (
		hourly bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Run one reminder sweep now and print its report",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := app.NewContainer(ctx, st.cfg, log.Logger)
			if err != nil {
				return err
			}
			defer c.Close()

			run := c.Scheduler.TriggerDaily
			if hourly {
				run = c.Scheduler.TriggerHourly
			}
			report, err := run(ctx)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), report, asJSON)
		},
	}

	cmd.Flags().BoolVar(&hourly, "hourly", false, "run the due-date sweep instead of the daily one")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")

	return cmd
}

func printReport(w io.Writer, r models.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	_, err := fmt.Fprintf(w, "sweep:    %s\nrun:      %s\ntotal:    %d\nsent:     %d\nfailed:   %d\nskipped:  %d\nduration: %s\n",
		r.Sweep, r.RunID, r.Total, r.Sent, r.Failed, r.Skipped, r.Duration)
	return err
}
