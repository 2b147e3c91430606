package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"vodconverter/internal/keys"
)

func newFolderCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "folder <episode-id>",
		Short: "Print the storage prefix holding an episode's renditions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid episode id %q", args[0])
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			deriver := keys.New(cfg.Keys.Secret)
			fmt.Fprintf(cmd.OutOrStdout(), "s3://%s/%s\n", cfg.Storage.Bucket, deriver.FolderPrefix(assetID))
			return nil
		},
	}
}
