package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/savcinema/voicereview-service/internal/types"
)

func newReviewsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Moderate submitted reviews",
	}

	cmd.AddCommand(newReviewsListCommand(ctx))
	cmd.AddCommand(newReviewsSetStatusCommand(ctx))
	cmd.AddCommand(newReviewsTagCommand(ctx))
	cmd.AddCommand(newReviewsDeleteCommand(ctx))
	cmd.AddCommand(newReviewsPlayCommand(ctx))

	return cmd
}

func newReviewsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List reviews, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			mod := ctx.moderation()
			if err := mod.Refresh(cmd.Context()); err != nil {
				return err
			}

			reviews := mod.Reviews()
			if len(reviews) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No reviews")
				return nil
			}

			out := cmd.OutOrStdout()
			for _, r := range reviews {
				tags := ""
				if len(r.Tags) > 0 {
					tags = "  [" + strings.Join(r.Tags, ", ") + "]"
				}
				name := r.DisplayName
				if name == "" {
					name = "Anonymous"
				}
				movie := r.MovieID
				if r.Movie != nil {
					movie = r.Movie.Title
				}
				fmt.Fprintf(out, "%s  %-8s  %3ds  %-20s  %s%s\n",
					r.ID, r.Status, r.DurationSec, name, movie, tags)
			}
			return nil
		},
	}
}

func newReviewsSetStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <id> <NEW|APPROVED|ARCHIVED|REJECTED>",
		Short: "Relabel a review's moderation status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := types.ReviewStatus(strings.ToUpper(args[1]))

			mod := ctx.moderation()
			if err := mod.Refresh(cmd.Context()); err != nil {
				return err
			}
			if err := mod.SetStatus(cmd.Context(), args[0], status); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Review %s is now %s\n", args[0], status)
			return nil
		},
	}
}

func newReviewsTagCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <id> [tag...]",
		Short: "Replace a review's tag set (no tags clears it)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tags := append([]string{}, args[1:]...)

			mod := ctx.moderation()
			if err := mod.Refresh(cmd.Context()); err != nil {
				return err
			}
			if err := mod.SetTags(cmd.Context(), args[0], tags); err != nil {
				return err
			}

			if len(tags) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared tags on review %s\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Tagged review %s: %s\n", args[0], strings.Join(tags, ", "))
			}
			return nil
		},
	}
}

func newReviewsDeleteCommand(ctx *commandContext) *cobra.Command {
	var hard bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a review (soft by default)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod := ctx.moderation()
			if err := mod.Refresh(cmd.Context()); err != nil {
				return err
			}
			if err := mod.Delete(cmd.Context(), args[0], hard); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted review %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&hard, "hard", false, "Remove the record and its audio asset")

	return cmd
}

func newReviewsPlayCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "play <id>",
		Short: "Play a review's audio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod := ctx.moderation()
			if err := mod.Refresh(cmd.Context()); err != nil {
				return err
			}
			if err := mod.Play(args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Playing review %s\n", args[0])
			return nil
		},
	}
}
