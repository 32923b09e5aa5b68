package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func PruneSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune-sessions",
		Short: "Delete sessions whose tokens have expired",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			removed, err := a.services(nil).Auth.PruneSessions(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d expired session(s).\n", removed)
			return nil
		},
	}
}
