package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search the movie catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			results, err := ctx.moderation().SearchCatalog(cmd.Context(), query)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No results")
				return nil
			}

			out := cmd.OutOrStdout()
			for _, media := range results {
				title := media.Title
				if title == "" {
					title = media.Name
				}
				date := media.ReleaseDate
				if date == "" {
					date = media.FirstAirDate
				}
				fmt.Fprintf(out, "%10d  %-5s  %s (%s)\n", media.ID, media.MediaType, title, date)
			}
			return nil
		},
	}
}
