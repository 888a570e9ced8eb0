package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/garyjia/expense-desk/internal/container"
	httpserver "github.com/garyjia/expense-desk/internal/interfaces/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		logger.Info("Starting Expense Desk",
			zap.String("address", cfg.Server.Address()),
			zap.String("database", cfg.Database.Path))

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ctr, err := container.NewContainer(cfg.ToContainerConfig(), logger)
		if err != nil {
			return fmt.Errorf("failed to create container: %w", err)
		}
		if err := ctr.Start(ctx); err != nil {
			return fmt.Errorf("failed to start container: %w", err)
		}
		defer func() {
			if err := ctr.Close(); err != nil {
				logger.Error("Container close failed", zap.Error(err))
			}
		}()

		services := ctr.Services()
		server := httpserver.NewServer(httpserver.ServerConfig{
			Host:            cfg.Server.Host,
			Port:            cfg.Server.Port,
			ReadTimeout:     cfg.Server.ReadTimeout,
			WriteTimeout:    cfg.Server.WriteTimeout,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
			CORSOrigins:     cfg.Server.CORSOrigins,
			Mode:            cfg.Server.Mode,
			UploadDir:       cfg.Storage.UploadDir,
			PublicPrefix:    cfg.Storage.PublicPrefix,
			MaxUploadBytes:  cfg.Storage.MaxUploadBytes,
			AnalyzeRPS:      cfg.RateLimit.AnalyzeRPS,
			AnalyzeBurst:    cfg.RateLimit.AnalyzeBurst,
		}, httpserver.Deps{
			Expenses:       services.Expense,
			Auth:           services.Auth,
			History:        services.History,
			Receipts:       services.Receipt,
			Health:         ctr,
			Metrics:        ctr.Metrics(),
			MetricsHandler: ctr.MetricsHandler(),
			Logger:         ctr.ServiceLogger(),
		})

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return server.Start(gctx)
		})

		if err := g.Wait(); err != nil {
			logger.Error("Server stopped with error", zap.Error(err))
			return err
		}

		logger.Info("Server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
