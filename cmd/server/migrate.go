package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/expense-desk/internal/container"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		dbCfg := cfg.ToContainerConfig().Database
		bundle, err := container.ProvideDatabase(&dbCfg, logger)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		defer bundle.DB.Close()

		logger.Info("Database is up to date", zap.String("path", dbCfg.Path))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
