package main

import "github.com/spf13/cobra"

func newRootCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "libctl",
		Short:         "Operator tool for the bookshelf catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of a table")

	rootCmd.AddCommand(newSearchCommand(ctx, &jsonOutput))
	rootCmd.AddCommand(newImportCommand(ctx, &jsonOutput))
	return rootCmd
}
