package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"vodconverter/internal/transcode"
)

func newLadderCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "ladder <source-height>",
		Short:       "Show the renditions produced for a source height",
		Args:        cobra.ExactArgs(1),
		Annotations: skipConfigLoad,
		RunE: func(cmd *cobra.Command, args []string) error {
			height, err := strconv.Atoi(args[0])
			if err != nil || height < 0 {
				return fmt.Errorf("invalid source height %q", args[0])
			}
			out := cmd.OutOrStdout()
			qualities := transcode.SelectQualities(height)
			if len(qualities) == 0 {
				fmt.Fprintf(out, "No renditions for a %dp source (lowest rung is %dp)\n", height, transcode.Ladder[0].Height)
				return nil
			}
			rows := make([][]string, 0, len(qualities))
			for _, q := range qualities {
				rows = append(rows, []string{
					q.Name,
					fmt.Sprintf("%dx%d", q.Width, q.Height),
					strconv.Itoa(q.VideoBitrateK),
					strconv.Itoa(q.AudioBitrateK),
					q.FileName(),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Quality", "Resolution", "Video kbps", "Audio kbps", "File"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
}
