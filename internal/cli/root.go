// Package cli wires the cobra command tree for the docushield client.
package cli

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/access2chakri-ai/docushield-sub000/internal/bootstrap"
	"github.com/access2chakri-ai/docushield-sub000/internal/config"
	"github.com/access2chakri-ai/docushield-sub000/internal/core/domain"
)

type cli struct {
	app *bootstrap.App
}

func NewRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "docushield",
		Short:         "DocuShield document intelligence client",
		Long:          "Uploads documents to the DocuShield backend, tracks their processing jobs, and manages the stored session.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Missing .env is the normal case outside development.
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			app, err := bootstrap.New(cfg)
			if err != nil {
				return err
			}
			c.app = app
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.app != nil {
				c.app.Close()
			}
		},
	}

	root.AddCommand(
		c.loginCommand(),
		c.registerCommand(),
		c.meCommand(),
		c.logoutCommand(),
		c.uploadCommand(),
		c.statusCommand(),
		c.watchCommand(),
	)
	return root
}

// renderError turns the transport error taxonomy into actionable
// messages; anything unrecognized passes through unchanged.
func renderError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case domain.IsKind(err, domain.ErrNoSession):
		return fmt.Errorf(`not logged in: run "docushield login" first`)
	case domain.IsKind(err, domain.ErrSessionExpired):
		return fmt.Errorf(`session expired: run "docushield login" again`)
	case domain.IsKind(err, domain.ErrRequestTimeout):
		return fmt.Errorf("request timed out waiting for the backend")
	case domain.IsKind(err, domain.ErrNetworkUnavailable):
		return fmt.Errorf("backend unreachable: check the connection and DOCUSHIELD_API_URL")
	}
	if httpErr, ok := domain.AsHTTPError(err); ok {
		return fmt.Errorf("backend rejected the request: HTTP %d", httpErr.StatusCode)
	}
	return err
}
