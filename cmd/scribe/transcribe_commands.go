package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"scribe/internal/api"
	"scribe/internal/transcript"
	"scribe/internal/transcription"
)

type transcribeOptions struct {
	timestamps bool
	jsonOutput bool
}

func (o *transcribeOptions) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&o.timestamps, "timestamps", "t", false, "Print timestamped segments instead of plain text")
	cmd.Flags().BoolVar(&o.jsonOutput, "json", false, "Output the API response shape as JSON")
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var opts transcribeOptions
	cmd := &cobra.Command{
		Use:   "transcribe <file>",
		Short: "Transcribe a local audio or video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			return withService(ctx, func(svc *transcription.Service) error {
				result, err := svc.TranscribeUpload(cmd.Context(), transcription.UploadRequest{
					Content:    content,
					Filename:   filepath.Base(path),
					Timestamps: opts.timestamps,
				})
				if err != nil {
					return err
				}
				return printTranscript(cmd, result, opts.jsonOutput)
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

func newRemoteCommand(ctx *commandContext) *cobra.Command {
	var opts transcribeOptions
	cmd := &cobra.Command{
		Use:   "remote <url>",
		Short: "Download and transcribe a remote video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(ctx, func(svc *transcription.Service) error {
				result, err := svc.TranscribeRemote(cmd.Context(), transcription.RemoteRequest{
					URL:        args[0],
					Timestamps: opts.timestamps,
				})
				if err != nil {
					return err
				}
				return printTranscript(cmd, result, opts.jsonOutput)
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

func withService(ctx *commandContext, fn func(*transcription.Service) error) error {
	logger, err := ctx.logger()
	if err != nil {
		return err
	}
	cache, err := ctx.openCache()
	if err != nil {
		return err
	}
	defer cache.Close()
	return fn(buildService(ctx.configValue(), cache, logger))
}

func printTranscript(cmd *cobra.Command, result transcript.Transcript, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(cmd, api.FromTranscript(result))
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.String())
	return nil
}
