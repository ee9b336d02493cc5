package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"scribe/internal/preflight"
	"scribe/internal/services/whisperx"
)

var errChecksFailed = errors.New("one or more required checks failed")

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify directories and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			results := preflight.RunAll(cfg)

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := make([]string, 0, len(results))
			for _, r := range results {
				lines = append(lines, renderStatusLine(r.Name, checkKind(r.Passed, r.Optional), r.Detail, colorize))
			}
			writeSection(out, "Preflight", colorize, lines)
			fmt.Fprintln(out)

			device := "cpu"
			if cfg.WhisperX.CUDAEnabled {
				device = "cuda"
			}
			language := whisperx.LanguageCode(cfg.WhisperX.Language)
			if language == "" {
				language = "auto"
			}
			writeSection(out, "Recognizer", colorize, []string{
				renderStatusLine("Model", statusInfo, cfg.WhisperX.Model, colorize),
				renderStatusLine("Device", statusInfo, device, colorize),
				renderStatusLine("VAD", statusInfo, cfg.WhisperX.VADMethod, colorize),
				renderStatusLine("Language", statusInfo, language, colorize),
				renderStatusLine("Cache", statusInfo, cacheDescription(cfg.Paths.CachePath), colorize),
			})

			if preflight.Failed(results) {
				return errChecksFailed
			}
			return nil
		},
	}
}

func cacheDescription(path string) string {
	if path == "" {
		return "disabled"
	}
	return path
}
