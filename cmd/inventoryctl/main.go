package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"asset-inventory-api/internal/app"
	"asset-inventory-api/internal/config"
	"asset-inventory-api/internal/database"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *logrus.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "inventoryctl",
		Short: "Operator tasks for the asset inventory",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			logger = app.NewLogger(cfg.LogLevel)
			logger.SetOutput(os.Stderr)
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newNotifyCmd())
	rootCmd.AddCommand(newSettingsCmd())
	rootCmd.AddCommand(newTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openDB() (*sql.DB, error) {
	db, err := database.InitDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
