package cli

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/access2chakri-ai/docushield-sub000/internal/core/domain"
)

// watchCommand runs the client as a long-lived tracker: it polls the
// given jobs, prints notifications as they arrive, reacts to session
// changes made by other processes, and exposes Prometheus metrics.
func (c *cli) watchCommand() *cobra.Command {
	var metricsEnabled bool

	cmd := &cobra.Command{
		Use:   "watch [job-id...]",
		Short: "Track document jobs until they finish",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			c.app.Notify.OnPush(func(n domain.Notification) {
				fmt.Fprintf(out, "[%s] %s: %s\n", n.Kind, n.Title, n.Message)
			})

			for _, jobID := range args {
				c.app.Jobs.Register(jobID, jobID)
			}

			// Another process logging out or refreshing drops or rotates
			// the stored pair; the next request picks the change up from
			// disk, so a log line is all that is needed here.
			go func() {
				err := c.app.Store.Watch(ctx, c.app.Logger, func() {
					c.app.Logger.Info("session_store_updated_externally")
				})
				if err != nil {
					c.app.Logger.Warn("session_store_watch_failed", "error", err)
				}
			}()

			if metricsEnabled {
				server := &http.Server{
					Addr:    ":" + c.app.Config.MetricsPort,
					Handler: c.app.Metrics.Handler(),
				}
				go func() {
					if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						c.app.Logger.Warn("metrics_server_failed", "error", err)
					}
				}()
				defer server.Close()
				fmt.Fprintf(out, "Metrics on :%s/metrics\n", c.app.Config.MetricsPort)
			}

			if len(args) > 0 {
				fmt.Fprintf(out, "Tracking %d job(s); Ctrl-C to stop\n", len(args))
			} else {
				fmt.Fprintln(out, "Waiting for jobs; Ctrl-C to stop")
			}

			ticker := time.NewTicker(200 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if len(args) > 0 && c.app.Jobs.Tracked() == 0 {
						return nil
					}
				}
			}
		},
	}

	cmd.Flags().BoolVar(&metricsEnabled, "metrics", true, "serve Prometheus metrics while watching")
	return cmd
}
