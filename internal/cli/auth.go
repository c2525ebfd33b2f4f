package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) loginCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and store the session locally",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			pair, err := c.app.API.Login(ctx, email, password)
			if err != nil {
				return renderError(err)
			}
			if err := c.app.Session.Establish(pair, nil); err != nil {
				return err
			}

			// Profile fetch is cosmetic; the session is already live.
			profile, err := c.app.API.Me(ctx)
			if err == nil {
				_ = c.app.Store.SaveProfile(profile)
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", profile.DisplayName, profile.Email)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) registerCommand() *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and store the session locally",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pair, err := c.app.API.Register(cmd.Context(), email, name, password)
			if err != nil {
				return renderError(err)
			}
			if err := c.app.Session.Establish(pair, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) meCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the authenticated profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := c.app.API.Me(cmd.Context())
			if err != nil {
				return renderError(err)
			}
			_ = c.app.Store.SaveProfile(profile)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User:  %s\n", profile.DisplayName)
			fmt.Fprintf(out, "Email: %s\n", profile.Email)
			if profile.Role != "" {
				fmt.Fprintf(out, "Role:  %s\n", profile.Role)
			}
			return nil
		},
	}
}

func (c *cli) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Best effort server side; local state is cleared regardless.
			c.app.API.Logout(cmd.Context())
			if err := c.app.Session.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}
