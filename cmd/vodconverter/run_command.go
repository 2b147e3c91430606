package main

import (
	"github.com/spf13/cobra"

	"vodconverter/internal/daemonrun"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the converter worker",
		Long: "Start the converter worker. It polls the configured queue, converts each\n" +
			"upload into streaming renditions and runs until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:      logLevel,
				SkipPreflight: skipPreflight,
			})
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Start without directory and binary checks")
	return cmd
}
