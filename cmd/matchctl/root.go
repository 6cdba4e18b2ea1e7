package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "matchctl",
		Short:         "Offline tooling for the matchengine import pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newPreviewCommand())
	rootCmd.AddCommand(newPolicyCommand())

	return rootCmd
}
