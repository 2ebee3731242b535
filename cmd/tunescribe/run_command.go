package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tunescribe/internal/config"
	"tunescribe/internal/logging"
	"tunescribe/internal/pipeline"
	"tunescribe/internal/queue"
	"tunescribe/internal/services/demucs"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var title string
	flags := newParamFlags()

	cmd := &cobra.Command{
		Use:   "run <audio-file>",
		Short: "Transcribe a file in the foreground, without the daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				job, _, err := enqueueFile(cmd, store, cfg, args[0], title, flags.params())
				if err != nil {
					return err
				}

				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return err
				}

				opts := []pipeline.Option{}
				if separator, sepErr := demucs.New(cfg.Separation.Binary, cfg.Separation.Model, cfg.Separation.TimeoutSeconds); sepErr == nil {
					opts = append(opts, pipeline.WithSeparator(separator))
				}
				runner, err := pipeline.NewRunner(cfg, store, logger, opts...)
				if err != nil {
					return err
				}

				if err := store.Claim(cmd.Context(), job.ID); err != nil {
					return err
				}
				if err := runner.Run(cmd.Context(), job); err != nil {
					return err
				}

				finished, err := store.GetJob(cmd.Context(), job.ID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if finished.Status != queue.StatusDone {
					return fmt.Errorf("job %d ended %s: %s", finished.ID, finished.Status, finished.ErrorMessage)
				}

				artifacts, err := store.ArtifactsByJob(cmd.Context(), job.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Job %d done\n", finished.ID)
				for _, artifact := range artifacts {
					fmt.Fprintf(out, "  %-14s %s\n", artifact.Kind, artifact.Path)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Job title (defaults to the file name)")
	flags.register(cmd)
	return cmd
}
