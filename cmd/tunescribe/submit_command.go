package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"tunescribe/internal/config"
	"tunescribe/internal/media"
	"tunescribe/internal/params"
	"tunescribe/internal/queue"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var title string
	flags := newParamFlags()

	cmd := &cobra.Command{
		Use:   "submit <audio-file>",
		Short: "Validate an audio file and enqueue a transcription job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				job, upload, err := enqueueFile(cmd, store, cfg, args[0], title, flags.params())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Queued job %d for %s (%.1fs, %d Hz)\n",
					job.ID, upload.Filename, upload.DurationSec, upload.SampleRate)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Job title (defaults to the file name)")
	flags.register(cmd)
	return cmd
}

// enqueueFile runs the validation gate and creates the upload record plus the
// queued job. A validation failure leaves the queue untouched.
func enqueueFile(cmd *cobra.Command, store *queue.Store, cfg *config.Config, path, title string, p params.Params) (*queue.Job, *queue.Upload, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}

	resolved, err := config.ExpandPath(path)
	if err != nil {
		return nil, nil, err
	}

	info, err := media.ValidateUpload(resolved, cfg)
	if err != nil {
		return nil, nil, err
	}

	upload, err := store.CreateUpload(cmd.Context(), queue.Upload{
		Filename:    info.Filename,
		Ext:         info.Ext,
		SampleRate:  info.SampleRate,
		DurationSec: info.DurationSec,
		SizeBytes:   info.SizeBytes,
		Path:        info.Path,
	})
	if err != nil {
		return nil, nil, err
	}

	if strings.TrimSpace(title) == "" {
		title = strings.TrimSuffix(info.Filename, filepath.Ext(info.Filename))
	}

	payload, err := p.Marshal()
	if err != nil {
		return nil, nil, err
	}

	job, err := store.NewJob(cmd.Context(), upload.ID, title, info.Path, payload)
	if err != nil {
		return nil, nil, err
	}
	return job, upload, nil
}
