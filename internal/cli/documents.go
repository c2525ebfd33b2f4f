package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/access2chakri-ai/docushield-sub000/internal/core/domain"
)

func (c *cli) uploadCommand() *cobra.Command {
	var watch bool
	var watchTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer file.Close()

			filename := filepath.Base(path)
			submission, err := c.app.API.UploadDocument(cmd.Context(), filename, file)
			if err != nil {
				return renderError(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Uploaded %s (job %s)\n", filename, submission.DocumentID)

			if !watch {
				fmt.Fprintf(out, "Check progress with: docushield status %s\n", submission.DocumentID)
				return nil
			}

			c.app.Notify.OnPush(func(n domain.Notification) {
				fmt.Fprintf(out, "[%s] %s: %s\n", n.Kind, n.Title, n.Message)
			})
			c.app.Jobs.Register(submission.DocumentID, filename)

			if !c.app.WaitJobs(watchTimeout) {
				return fmt.Errorf("job %s still processing after %s", submission.DocumentID, watchTimeout)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "poll the job until it finishes")
	cmd.Flags().DurationVar(&watchTimeout, "timeout", 10*time.Minute, "how long --watch waits for completion")
	return cmd
}

func (c *cli) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the processing status of a document job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := c.app.API.JobStatus(cmd.Context(), args[0])
			if err != nil {
				return renderError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %s: %s\n", args[0], status)
			return nil
		},
	}
}
