package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/benrubinchik/podflow/internal/config"
	"github.com/benrubinchik/podflow/internal/episode"
	"github.com/benrubinchik/podflow/internal/identity"
	"github.com/benrubinchik/podflow/internal/pipeline"
	"github.com/benrubinchik/podflow/internal/state"
)

// newStageCommands returns commands that run the pipeline only through a
// given stage. They always resume, so completed earlier stages are restored
// rather than redone.
func newStageCommands(ctx *commandContext) []*cobra.Command {
	targets := []struct {
		use   string
		short string
		last  string
	}{
		{"process <input-file>", "Run audio and video processing only", state.StageProcessVideo},
		{"transcribe <input-file>", "Run the pipeline through transcription", state.StageTranscribe},
		{"generate-metadata <input-file>", "Run the pipeline through metadata generation", state.StageGenerateMetadata},
		{"upload-youtube <input-file>", "Run the pipeline through the YouTube upload", state.StageUploadYouTube},
	}

	cmds := make([]*cobra.Command, 0, len(targets))
	for _, target := range targets {
		last := target.last
		cmds = append(cmds, &cobra.Command{
			Use:   target.use,
			Short: target.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runThrough(cmd, ctx, args[0], last)
			},
		})
	}
	return cmds
}

func runThrough(cmd *cobra.Command, cctx *commandContext, inputArg, lastStage string) error {
	cfg, err := cctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := cctx.ensureLogger()
	if err != nil {
		return err
	}

	input, err := config.ExpandPath(inputArg)
	if err != nil {
		return err
	}
	if _, err := os.Stat(input); err != nil {
		return fmt.Errorf("inspect input %q: %w", inputArg, err)
	}
	episodeID, err := identity.EpisodeID(input)
	if err != nil {
		return err
	}
	layout, err := identity.NewLayout(cfg.Paths.OutputDir, episodeID)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handlers, cleanup, err := buildHandlers(cmd, cfg, layout, episodeID)
	if err != nil {
		return err
	}
	defer cleanup()

	end := -1
	for i, handler := range handlers {
		if handler.Name() == lastStage {
			end = i
			break
		}
	}
	if end < 0 {
		return fmt.Errorf("unknown stage %q", lastStage)
	}

	runner := &pipeline.Runner{
		OutputRoot: cfg.Paths.OutputDir,
		EpisodeID:  episodeID,
		Handlers:   handlers[:end+1],
		Logger:     logger,
	}
	ep := &episode.Episode{InputFile: input}
	if _, err := runner.Run(runCtx, ep, pipeline.Options{Resume: true}); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Episode %s completed through %s.\n", episodeID, lastStage)
	return nil
}
