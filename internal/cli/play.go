package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/config"
	"trivia-quiz/internal/transport/terminal"
)

// NewPlayCmd runs the quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var ephemeral bool
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if ephemeral {
				cfg.Leaderboard.Backend = config.BackendMemory
			}
			return runPlay(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "keep the leaderboard in memory for this run only")
	return cmd
}

func runPlay(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	shell := terminal.NewShell(terminal.Config{
		In:         in,
		Out:        out,
		Game:       app.NewGame(d.gameConfig()),
		Categories: d.source,
	})
	return shell.Run(ctx)
}
