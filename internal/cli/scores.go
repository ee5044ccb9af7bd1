package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"trivia-quiz/internal/config"
	"trivia-quiz/internal/transport/terminal"
)

// NewScoresCmd prints the persisted leaderboard.
func NewScoresCmd(configPath *string) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Show the high score table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return runScores(cmd.Context(), cfg, format, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "output format: table, json or yaml")
	return cmd
}

func runScores(ctx context.Context, cfg config.Config, format string, out io.Writer) error {
	d, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	entries := d.leaderboard.Load(ctx)
	switch format {
	case "table":
		fmt.Fprintln(out, "High Scores")
		terminal.WriteLeaderboard(out, entries)
		return nil
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(entries)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
