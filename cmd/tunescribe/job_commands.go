package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"tunescribe/internal/config"
	"tunescribe/internal/queue"
)

func parseJobID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid job id %q", arg)
	}
	return id, nil
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <jobID>",
		Short: "Show the status of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				job, err := store.GetJob(cmd.Context(), id)
				if err != nil {
					return err
				}
				artifacts, err := store.ArtifactsByJob(cmd.Context(), id)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				kind := jobStatusKind(job.Status)

				fmt.Fprintf(out, "Job %d: %s\n", job.ID, job.Title)
				fmt.Fprintln(out, renderStatusLine("Status", string(job.Status), kind, colorize))
				fmt.Fprintln(out, renderStatusLine("Progress", fmt.Sprintf("%d%%", job.Progress), statusInfo, colorize))
				if job.ErrorMessage != "" {
					fmt.Fprintln(out, renderStatusLine("Error", job.ErrorMessage, statusError, colorize))
				}
				fmt.Fprintln(out, renderStatusLine("Created", job.CreatedAt.Local().Format(time.RFC3339), statusInfo, colorize))
				if job.FinishedAt != nil {
					fmt.Fprintln(out, renderStatusLine("Finished", job.FinishedAt.Local().Format(time.RFC3339), statusInfo, colorize))
				}
				for _, artifact := range artifacts {
					fmt.Fprintln(out, renderStatusLine(string(artifact.Kind), artifact.Path, statusOK, colorize))
				}
				return nil
			})
		},
	}
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <jobID>",
		Short: "Request cancellation of a queued or running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				accepted, err := store.RequestCancel(cmd.Context(), id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !accepted {
					fmt.Fprintf(out, "Job %d is already finished; nothing to cancel\n", id)
					return nil
				}
				job, err := store.GetJob(cmd.Context(), id)
				if err != nil {
					return err
				}
				if job.Status == queue.StatusCancelled {
					fmt.Fprintf(out, "Job %d cancelled\n", id)
				} else {
					fmt.Fprintf(out, "Job %d will stop at the next stage boundary\n", id)
				}
				return nil
			})
		},
	}
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <jobID>",
		Short: "Requeue a failed job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				if err := store.Retry(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %d requeued\n", id)
				return nil
			})
		},
	}
}
