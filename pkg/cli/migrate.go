package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feralworks/trapper-engine/pkg/config"
	"github.com/feralworks/trapper-engine/pkg/database"
	"github.com/feralworks/trapper-engine/pkg/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Applies the numbered SQL migrations to the configured database.
Idempotent: only pending migrations run. Older installations may stop at an
earlier revision; ingest detects what the schema supports and downgrades
gracefully.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(rootCmd.Version)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Env, flagVerbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := database.RunMigrations(cfg.Database.ConnectionString(), cfg.MigrationsPath, logger); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
	return nil
}
