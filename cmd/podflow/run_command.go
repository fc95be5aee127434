package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/benrubinchik/podflow/internal/catalog"
	"github.com/benrubinchik/podflow/internal/config"
	"github.com/benrubinchik/podflow/internal/episode"
	"github.com/benrubinchik/podflow/internal/feed"
	"github.com/benrubinchik/podflow/internal/hosting"
	"github.com/benrubinchik/podflow/internal/identity"
	"github.com/benrubinchik/podflow/internal/media/audio"
	"github.com/benrubinchik/podflow/internal/media/video"
	"github.com/benrubinchik/podflow/internal/metadata"
	"github.com/benrubinchik/podflow/internal/pipeline"
	"github.com/benrubinchik/podflow/internal/stage"
	"github.com/benrubinchik/podflow/internal/transcribe"
	"github.com/benrubinchik/podflow/internal/upload/youtube"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var resume bool
	var dryRun bool
	var episodeNumber int
	var privacy string

	cmd := &cobra.Command{
		Use:   "run <input-file>",
		Short: "Process an episode recording end to end",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			input, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			if _, err := os.Stat(input); err != nil {
				return fmt.Errorf("inspect input %q: %w", args[0], err)
			}
			episodeID, err := identity.EpisodeID(input)
			if err != nil {
				return err
			}

			if dryRun {
				return printPlan(cmd.OutOrStdout(), cfg.Paths.OutputDir, episodeID)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			layout, err := identity.NewLayout(cfg.Paths.OutputDir, episodeID)
			if err != nil {
				return err
			}
			handlers, cleanup, err := buildHandlers(cmd, cfg, layout, episodeID)
			if err != nil {
				return err
			}
			defer cleanup()

			ep := &episode.Episode{
				Number:    episodeNumber,
				InputFile: input,
				Privacy:   privacy,
			}
			runner := &pipeline.Runner{
				OutputRoot: cfg.Paths.OutputDir,
				EpisodeID:  episodeID,
				Handlers:   handlers,
				Logger:     logger,
			}
			if _, err := runner.Run(runCtx, ep, pipeline.Options{Resume: resume}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Episode %s published.\n", episodeID)
			if ep.YouTubeURL != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  YouTube: %s\n", ep.YouTubeURL)
			}
			if ep.AudioURL != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  Audio:   %s\n", ep.AudioURL)
			}
			if ep.FeedUpdated {
				fmt.Fprintf(cmd.OutOrStdout(), "  Feed:    %s\n", cfg.FeedPath())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&resume, "resume", false, "Resume from persisted state, skipping completed stages")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would run without executing any stage")
	cmd.Flags().IntVar(&episodeNumber, "episode-number", 0, "Episode number for titles and feed ordering")
	cmd.Flags().StringVar(&privacy, "privacy", "", "YouTube privacy override (public, unlisted, private)")

	return cmd
}

// buildHandlers wires the seven pipeline stages in execution order. The
// returned cleanup closes the catalog store once the run finishes.
func buildHandlers(cmd *cobra.Command, cfg *config.Config, layout identity.Layout, episodeID string) ([]stage.Handler, func(), error) {
	audioProc := audio.NewProcessor(audio.Options{
		FFmpeg:     cfg.Audio.FFmpegBin,
		Codec:      cfg.Audio.Codec,
		Bitrate:    cfg.Audio.Bitrate,
		Channels:   cfg.Audio.Channels,
		SampleRate: cfg.Audio.SampleRate,
		TargetLUFS: cfg.Audio.TargetLUFS,
	}, nil)
	videoProc := video.NewProcessor(video.Options{
		FFmpeg:       cfg.Audio.FFmpegBin,
		FFprobe:      cfg.Audio.FFprobeBin,
		Codec:        cfg.Video.Codec,
		Preset:       cfg.Video.Preset,
		CRF:          cfg.Video.CRF,
		AudioCodec:   cfg.Video.AudioCodec,
		AudioBitrate: cfg.Video.AudioBitrate,
		MaxWidth:     cfg.Video.MaxWidth,
		MaxHeight:    cfg.Video.MaxHeight,
	}, nil)

	transcriber, err := transcribe.New(cfg.Transcription)
	if err != nil {
		return nil, nil, err
	}
	hoster, err := hosting.New(cmd.Context(), cfg.Hosting)
	if err != nil {
		return nil, nil, err
	}
	store, err := catalog.Open(cfg.CatalogPath())
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "close catalog: %v\n", err)
		}
	}

	feedStage := feed.NewStage(store, cfg.Feed, cfg.FeedPath(), episodeID)
	if cfg.Hosting.Method != "local" {
		feedStage.SetPublisher(hoster)
	}

	handlers := []stage.Handler{
		audio.NewStage(audioProc, layout, cfg.Audio.FFprobeBin),
		video.NewStage(videoProc, layout),
		transcribe.NewStage(transcriber, layout),
		metadata.NewStage(metadata.NewClient(cfg.Metadata), cfg.Metadata, layout),
		youtube.NewStage(cfg.YouTube, nil),
		hosting.NewStage(hoster, cfg.Tags, cfg.Feed),
		feedStage,
	}
	return handlers, cleanup, nil
}
