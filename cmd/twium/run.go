package main

import (
	"github.com/spf13/cobra"
)

func newRunCmd(e *env) *cobra.Command {
	var now string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured jobs on their schedules until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := e.App()
			if err != nil {
				return err
			}
			if now != "" {
				return a.RunJob(cmd.Context(), now)
			}
			e.logger.Info("twium scheduler starting", "jobs", len(e.cfg.Jobs), "accounts", len(e.cfg.Accounts))
			return a.RunScheduler(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&now, "now", "", "Run the named job once and exit")

	return cmd
}
