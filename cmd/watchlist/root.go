package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/narwhalmedia/watchlist/pkg/interfaces"
	"github.com/narwhalmedia/watchlist/pkg/logger"
)

// execute runs one CLI invocation and releases everything it opened.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cc := newCommandContext()
	defer cc.close()

	root := newRootCommand(cc)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCommand(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "watchlist",
		Short:         "Track films and series you plan to watch",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(logger.WithFields(cmd.Context(), interfaces.String("command", cmd.CommandPath())))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&ctx.backendFlag, "backend", "b", "", "Storage backend (file, sqlite, postgres)")

	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newSearchCommand(ctx))
	rootCmd.AddCommand(newAddCommand(ctx))
	rootCmd.AddCommand(newEditCommand(ctx))
	rootCmd.AddCommand(newDeleteCommand(ctx))
	rootCmd.AddCommand(newProgressCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newLookupCommand(ctx))
	rootCmd.AddCommand(newStatsCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))
	rootCmd.AddCommand(newSnapshotsCommand(ctx))
	rootCmd.AddCommand(newTransferCommand(ctx))

	return rootCmd
}
