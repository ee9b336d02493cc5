package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scribe/internal/daemon"
	"scribe/internal/logging"
	"scribe/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the transcription HTTP server in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runServer(runCtx, ctx)
		},
	}
}

func runServer(ctx context.Context, cmdCtx *commandContext) error {
	cfg := cmdCtx.configValue()
	logger, err := cmdCtx.logger()
	if err != nil {
		return err
	}

	for _, result := range preflight.RunAll(cfg) {
		switch {
		case result.Passed:
			logger.Debug("preflight check passed", logging.String("check", result.Name))
		case result.Optional:
			logging.WarnWithContext(logger, "optional preflight check failed", "preflight_optional_failed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
				logging.String(logging.FieldImpact, "remote transcription is unavailable"),
			)
		default:
			logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
				logging.String(logging.FieldErrorHint, "run `scribe check` for details"),
			)
		}
	}

	cache, err := cmdCtx.openCache()
	if err != nil {
		return err
	}
	svc := buildService(cfg, cache, logger)

	d, err := daemon.New(cfg, cache, svc, logger, version)
	if err != nil {
		cache.Close()
		return fmt.Errorf("create server: %w", err)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("scribe shutting down")
	return nil
}
