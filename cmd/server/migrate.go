package main

import (
	"fmt"
	"log"

	"comazon/internal/infra/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db: connect: %w", err)
		}
		defer database.Close(db)

		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("db: migrate: %w", err)
		}
		log.Printf("Schema migrated (%s)", cfg.DBDriver)
		return nil
	},
}
