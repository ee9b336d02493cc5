package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scribe/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of the running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			client, err := api.NewClient(cfg.Server.Bind, cfg.Server.APIToken)
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil && !api.IsAPIUnavailable(err) {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			if err != nil {
				writeSection(out, "Server", colorize, []string{
					renderStatusLine("Server", statusWarn, "not running at "+cfg.Server.Bind, colorize),
				})
				return nil
			}

			writeSection(out, "Server", colorize, []string{
				renderStatusLine("Server", statusOK, "running at "+cfg.Server.Bind, colorize),
				renderStatusLine("Version", statusInfo, status.Version, colorize),
				renderStatusLine("PID", statusInfo, strconv.Itoa(status.PID), colorize),
				renderStatusLine("Transcriptions", statusInfo,
					fmt.Sprintf("%d active / %d slots", status.ActiveTranscriptions, status.MaxConcurrent), colorize),
			})
			fmt.Fprintln(out)

			cacheLines := []string{renderStatusLine("Enabled", statusInfo, yesNo(status.CacheEnabled), colorize)}
			if status.CacheEnabled {
				cacheLines = append(cacheLines,
					renderStatusLine("Path", statusInfo, status.CachePath, colorize),
					renderStatusLine("Entries", statusInfo, strconv.Itoa(status.CacheEntries), colorize),
				)
			}
			writeSection(out, "Cache", colorize, cacheLines)
			fmt.Fprintln(out)

			depLines := make([]string, 0, len(status.Dependencies))
			for _, dep := range status.Dependencies {
				depLines = append(depLines, renderStatusLine(dep.Name, checkKind(dep.Available, dep.Optional), dep.Detail, colorize))
			}
			writeSection(out, "Dependencies", colorize, depLines)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the server status as JSON")
	return cmd
}
