package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"trivia-quiz/internal/config"
	"trivia-quiz/internal/domain"
)

// NewCategoriesCmd lists the categories offered by the question source.
func NewCategoriesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List question categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return runCategories(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
}

func runCategories(ctx context.Context, cfg config.Config, out io.Writer) error {
	d, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	cats, err := d.source.Categories(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", domain.UserMessage(err), err)
	}
	for _, c := range cats {
		fmt.Fprintf(out, "%3d  %s\n", c.ID, c.Name)
	}
	return nil
}
