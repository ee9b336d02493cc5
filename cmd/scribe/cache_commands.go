package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/api"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune cached transcripts",
	}
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheRemoveCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached transcripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			rows := api.FromCacheEntries(entries)
			if jsonOutput {
				return writeJSON(cmd, api.CacheListResponse{Entries: rows})
			}

			out := cmd.OutOrStdout()
			if !store.Enabled() {
				fmt.Fprintln(out, "Transcript cache is disabled (paths.cache_path is empty)")
				return nil
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "Transcript cache is empty")
				return nil
			}
			tableRows := make([][]string, 0, len(rows))
			for _, row := range rows {
				tableRows = append(tableRows, []string{
					row.Key,
					row.Source,
					strconv.Itoa(row.SegmentCount),
					strconv.Itoa(row.Characters),
					row.CreatedAt,
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Key", "Source", "Segments", "Chars", "Created"},
				tableRows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output entries as JSON")
	return cmd
}

func newCacheRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <key>...",
		Short: "Remove cached transcripts by key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			var missing []string
			for _, key := range args {
				removed, err := store.Remove(cmd.Context(), key)
				if err != nil {
					return err
				}
				if !removed {
					missing = append(missing, key)
					continue
				}
				fmt.Fprintf(out, "Removed %s\n", key)
			}
			if len(missing) > 0 {
				return fmt.Errorf("no cache entry for %s", strings.Join(missing, ", "))
			}
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached transcript(s)\n", removed)
			return nil
		},
	}
}
