package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/benrubinchik/podflow/internal/catalog"
	"github.com/benrubinchik/podflow/internal/config"
	"github.com/benrubinchik/podflow/internal/feed"
	"github.com/benrubinchik/podflow/internal/hosting"
)

// newUpdateFeedCommand regenerates the feed from the episode catalog without
// touching any episode pipeline state. Useful after editing channel settings.
func newUpdateFeedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "update-feed",
		Short: "Regenerate the RSS feed from the episode catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := catalog.Open(cfg.CatalogPath())
			if err != nil {
				return err
			}
			defer store.Close()

			episodes, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(episodes) == 0 {
				return fmt.Errorf("catalog at %s has no published episodes", cfg.CatalogPath())
			}

			data, err := feed.NewGenerator(cfg.Feed).Generate(episodes, time.Now().UTC())
			if err != nil {
				return err
			}
			if err := reportIssues(cmd, data); err != nil {
				return err
			}
			if err := os.WriteFile(cfg.FeedPath(), data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s with %d episodes.\n", cfg.FeedPath(), len(episodes))

			if cfg.Hosting.Method != "local" {
				hoster, err := hosting.New(cmd.Context(), cfg.Hosting)
				if err != nil {
					return err
				}
				url, err := hoster.Host(cmd.Context(), cfg.FeedPath(), cfg.Feed.Filename)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Published feed at %s\n", url)
			}
			return nil
		},
	}
}

func newValidateFeedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate-feed [feed-file]",
		Short:       "Validate an RSS feed against podcast directory requirements",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				expanded, err := config.ExpandPath(args[0])
				if err != nil {
					return err
				}
				path = expanded
			} else {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				path = cfg.FeedPath()
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if err := reportIssues(cmd, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid.\n", path)
			return nil
		},
	}
}

func reportIssues(cmd *cobra.Command, data []byte) error {
	issues, err := feed.Validate(data)
	if err != nil {
		return err
	}
	for _, issue := range issues {
		fmt.Fprintf(cmd.ErrOrStderr(), "  [%s] %s\n", issue.Severity, issue.Message)
	}
	if feed.HasErrors(issues) {
		return fmt.Errorf("feed failed validation with %d findings", len(issues))
	}
	return nil
}
