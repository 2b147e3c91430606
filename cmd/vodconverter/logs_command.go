package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vodconverter/internal/logging"
	"vodconverter/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var jobID string
	var episodeID int64

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show worker log output",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.LogPath()
			if path == "" {
				return fmt.Errorf("file logging is disabled; set paths.log_dir to keep a log file")
			}

			var filters []logs.Filter
			if id := strings.TrimSpace(jobID); id != "" {
				filters = append(filters, logs.FieldEquals(logging.FieldJobID, id))
			}
			if episodeID > 0 {
				filters = append(filters, logs.FieldEquals(logging.FieldAssetID, strconv.FormatInt(episodeID, 10)))
			}
			var filter logs.Filter
			if len(filters) > 0 {
				filter = logs.All(filters...)
			}

			out := cmd.OutOrStdout()
			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines, Filter: filter})
			if err != nil {
				return err
			}
			for _, line := range result.Lines {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, result.Offset, filter, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVar(&jobID, "job", "", "Only lines for this upload process id")
	cmd.Flags().Int64Var(&episodeID, "episode", 0, "Only lines for this episode id")
	return cmd
}
