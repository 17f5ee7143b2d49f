package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/common-repository/vatomi/internal/config"
	"github.com/common-repository/vatomi/migrations"
)

var downSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadForCommand()
		if err != nil {
			return err
		}

		return migrations.Up(cfg.DB.DatabaseURL, log)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations (all by default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadForCommand()
		if err != nil {
			return err
		}

		return migrations.Down(cfg.DB.DatabaseURL, downSteps, log)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadForCommand()
		if err != nil {
			return err
		}

		v, dirty, err := migrations.Version(cfg.DB.DatabaseURL)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "version: %d dirty: %t\n", v, dirty)
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&downSteps, "steps", 0, "number of migrations to roll back (0 = all)")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}

// loadForCommand — конфиг и логгер для служебных команд.
func loadForCommand() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	return cfg, log, nil
}
