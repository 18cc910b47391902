package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/audioscribe/transcriber-api/internal/database"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Apply the database schema for the Transcriber API.

Creates or updates the jobs and segments tables using GORM AutoMigrate.
The serve command runs this automatically at startup, so migrate is
mainly useful for provisioning a database ahead of time or verifying
that the configured path is writable.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.Initialize(cfg.Database.Path, cfg.Database.Verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := db.MigrateAll(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Database schema up to date at %s\n", cfg.Database.Path)
	return nil
}
