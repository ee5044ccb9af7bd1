package cli

import (
	"github.com/spf13/cobra"

	"trivia-quiz/internal/infra/postgres"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations for the postgres leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return postgres.Migrate(cmd.Context(), cfg.Postgres.URL)
		},
	}
}
