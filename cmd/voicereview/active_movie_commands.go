package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/savcinema/voicereview-service/internal/types"
)

func newActiveMovieCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "active-movie",
		Short: "Show or change the movie under review",
	}

	cmd.AddCommand(newActiveMovieGetCommand(ctx))
	cmd.AddCommand(newActiveMovieSetCommand(ctx))

	return cmd
}

func newActiveMovieGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the active movie",
		RunE: func(cmd *cobra.Command, args []string) error {
			movie, err := ctx.moderation().ActiveMovie(cmd.Context())
			if err != nil {
				return err
			}
			if movie == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No active movie is set")
				return nil
			}
			printMovie(cmd, movie)
			return nil
		},
	}
}

func newActiveMovieSetCommand(ctx *commandContext) *cobra.Command {
	var mediaType string

	cmd := &cobra.Command{
		Use:   "set <tmdb-id>",
		Short: "Pin a catalog entry as the movie under review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tmdbID int64
			if _, err := fmt.Sscan(args[0], &tmdbID); err != nil {
				return fmt.Errorf("tmdb-id must be numeric: %w", err)
			}

			movie, err := ctx.moderation().SetActiveMovie(cmd.Context(), tmdbID, types.MediaType(mediaType))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Active movie updated")
			printMovie(cmd, movie)
			return nil
		},
	}

	cmd.Flags().StringVar(&mediaType, "media-type", "movie", "Catalog media type (movie or tv)")

	return cmd
}

func printMovie(cmd *cobra.Command, movie *types.Movie) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", movie.Title, movie.ReleaseDate)
	fmt.Fprintf(out, "  id:      %s\n", movie.ID)
	fmt.Fprintf(out, "  tmdb id: %d\n", movie.TMDBID)
	if movie.Overview != "" {
		fmt.Fprintf(out, "  %s\n", movie.Overview)
	}
}
