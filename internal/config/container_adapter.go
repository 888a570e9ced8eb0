package config

import (
	"github.com/garyjia/expense-desk/internal/container"
)

// ToContainerConfig converts the file-based configuration into the container's configuration.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Vision: container.VisionConfig{
			BaseURL:           c.Vision.BaseURL,
			APIKey:            c.Vision.APIKey,
			Model:             c.Vision.Model,
			Timeout:           c.Vision.Timeout,
			MaxImageDimension: c.Vision.MaxImageDimension,
			PromptsPath:       c.Vision.PromptsPath,
		},
		Lark: container.LarkConfig{
			Enabled:    c.Lark.Enabled,
			AppID:      c.Lark.AppID,
			AppSecret:  c.Lark.AppSecret,
			ChatID:     c.Lark.ChatID,
			APITimeout: c.Lark.APITimeout,
		},
		Storage: container.StorageConfig{
			UploadDir:      c.Storage.UploadDir,
			PublicPrefix:   c.Storage.PublicPrefix,
			MaxUploadBytes: c.Storage.MaxUploadBytes,
		},
		Workflow: container.WorkflowConfig{
			SeedDemoExpenses: c.Workflow.SeedDemoExpenses,
		},
	}
}
