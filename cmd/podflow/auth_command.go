package main

import (
	"github.com/spf13/cobra"

	"github.com/benrubinchik/podflow/internal/upload/youtube"
)

func newAuthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize YouTube uploads and cache the OAuth token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return youtube.Authorize(cmd.Context(),
				cfg.YouTube.ClientSecretsFile, cfg.YouTube.TokenFile,
				cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
