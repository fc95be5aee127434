package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/benrubinchik/podflow/internal/config"
	"github.com/benrubinchik/podflow/internal/identity"
	"github.com/benrubinchik/podflow/internal/pipeline"
	"github.com/benrubinchik/podflow/internal/state"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <input-file>",
		Short: "Show per-stage progress for an episode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			input, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			episodeID, err := identity.EpisodeID(input)
			if err != nil {
				return err
			}
			return printPlan(cmd.OutOrStdout(), cfg.Paths.OutputDir, episodeID)
		},
	}
}

func printPlan(out io.Writer, outputRoot, episodeID string) error {
	rows, err := pipeline.Plan(outputRoot, episodeID)
	if err != nil {
		return err
	}
	colorize := shouldColorize(out)

	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		tableRows = append(tableRows, []string{
			row.Stage,
			formatStatus(row.Status, colorize),
			row.Action,
			row.Error,
		})
	}
	fmt.Fprintf(out, "Episode %s\n", episodeID)
	fmt.Fprintln(out, renderTable(
		[]string{"Stage", "Status", "Action", "Error"},
		tableRows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
	))

	next, ok, err := pipeline.NextStage(outputRoot, episodeID)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(out, "Next stage: %s\n", next)
	} else {
		fmt.Fprintln(out, "All stages complete.")
	}
	return nil
}

func formatStatus(status state.Status, colorize bool) string {
	label := strings.ToUpper(string(status))
	if !colorize {
		return label
	}
	switch status {
	case state.StatusCompleted:
		return ansiGreen + label + ansiReset
	case state.StatusFailed:
		return ansiRed + label + ansiReset
	case state.StatusRunning, state.StatusSkipped:
		return ansiYellow + label + ansiReset
	default:
		return label
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
