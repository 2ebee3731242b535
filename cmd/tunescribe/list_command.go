package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tunescribe/internal/config"
	"tunescribe/internal/queue"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var showCounts bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transcription jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()

				if showCounts {
					health, err := store.Health(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Total: %d\nQueued: %d\nRunning: %d\nDone: %d\nFailed: %d\nCancelled: %d\n",
						health.Total,
						health.Queued,
						health.Running,
						health.Done,
						health.Failed,
						health.Cancelled,
					)
					return nil
				}

				statuses := make([]queue.Status, 0, len(listStatuses))
				for _, raw := range listStatuses {
					status, ok := queue.ParseStatus(raw)
					if !ok {
						return fmt.Errorf("unknown status %q", raw)
					}
					statuses = append(statuses, status)
				}

				jobs, err := store.ListJobs(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					fmt.Fprintln(out, "No jobs")
					return nil
				}

				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{
						fmt.Sprintf("%d", job.ID),
						job.Title,
						string(job.Status),
						fmt.Sprintf("%d%%", job.Progress),
						job.CreatedAt.Local().Format(time.RFC3339),
					})
				}
				table := renderTable(
					[]string{"ID", "Title", "Status", "Progress", "Created"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by job status (repeatable)")
	cmd.Flags().BoolVar(&showCounts, "counts", false, "Show aggregate counts instead of rows")
	return cmd
}
