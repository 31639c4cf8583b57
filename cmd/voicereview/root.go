package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var serverFlag string
	var tokenFlag string

	ctx := newCommandContext(&serverFlag, &tokenFlag)

	rootCmd := &cobra.Command{
		Use:           "voicereview",
		Short:         "Voice review service CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "http://localhost:8080", "Service base URL")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "Admin bearer token (defaults to the saved login)")

	rootCmd.AddCommand(newLoginCommand(ctx))
	rootCmd.AddCommand(newActiveMovieCommand(ctx))
	rootCmd.AddCommand(newSearchCommand(ctx))
	rootCmd.AddCommand(newRecordCommand(ctx))
	rootCmd.AddCommand(newReviewsCommand(ctx))

	return rootCmd
}
