package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the blog-api command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "blog-api",
		Short:         "Blog REST API server and tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		ServeCmd(),
		WorkerCmd(),
		MigrateCmd(),
		SendWelcomeEmailCmd(),
		PruneSessionsCmd(),
	)

	return rootCmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
