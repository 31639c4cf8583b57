package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/savcinema/voicereview-service/internal/client"
)

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var email string
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate as an admin and save the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}

			api := ctx.apiClient()
			mod := client.NewModerationClient(api, nil)
			if err := mod.Login(cmd.Context(), email, password); err != nil {
				return err
			}

			if err := saveToken(api.Token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logged in")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email")
	cmd.Flags().StringVar(&password, "password", "", "Admin password")

	return cmd
}
