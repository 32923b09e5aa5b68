package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func WorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Process queued background jobs until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			return a.worker().Run(ctx)
		},
	}
}
