package cmd

import (
	"context"
	"fmt"
	"os"

	"equipment/internal/config"
	"equipment/internal/core/logger"
	"equipment/internal/database/migration"

	"github.com/spf13/cobra"
)

var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run migrations manually.",
	Long:  `Applies every pending migration from --dir to DATABASE_URL and exits.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		migrationDir, _ := cmd.Flags().GetString("dir")
		log := logger.NewLogger(cfg.Development)
		defer func() { _ = log.Sync() }()

		err = migration.Migrate(
			cfg.DatabaseURL,
			fmt.Sprintf("file://%s", migrationDir),
			true,
			log,
		)
		if err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}

		return nil
	},
}

func Execute(ctx context.Context) {
	rootCmd := &cobra.Command{
		Use:   "pyrhouse",
		Short: "Pyrhouse asset custody service",
	}
	MigrateCmd.Flags().String("dir", "./migrations", "Directory containing the migration files")
	rootCmd.AddCommand(MigrateCmd)
	rootCmd.AddCommand(ServeCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
