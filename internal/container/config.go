// Package container provides dependency injection and lifecycle management
// for the expense desk service.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Vision model configuration
	Vision VisionConfig

	// Lark notification configuration
	Lark LarkConfig

	// Storage configuration
	Storage StorageConfig

	// Workflow configuration
	Workflow WorkflowConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration
}

// VisionConfig holds receipt analysis settings.
type VisionConfig struct {
	// BaseURL of the OpenAI-compatible API
	BaseURL string

	// APIKey, empty for a local Ollama server
	APIKey string

	// Model name, e.g. "qwen2.5vl:3b"
	Model string

	// Timeout bounds one analysis call
	Timeout time.Duration

	// MaxImageDimension bounds the longest image side sent to the model
	MaxImageDimension int

	// PromptsPath optionally replaces the built-in prompts
	PromptsPath string
}

// LarkConfig holds Lark notification settings.
type LarkConfig struct {
	// Enabled switches from log-only notifications to the Lark chat
	Enabled bool

	// AppID is the Lark application ID
	AppID string

	// AppSecret is the Lark application secret
	AppSecret string

	// ChatID is the reviewers' group chat
	ChatID string

	// APITimeout is the timeout for API calls
	APITimeout time.Duration
}

// StorageConfig holds receipt upload settings.
type StorageConfig struct {
	// UploadDir is where receipt files are written
	UploadDir string

	// PublicPrefix is the URL path receipts are served under
	PublicPrefix string

	// MaxUploadBytes limits a single receipt file
	MaxUploadBytes int64
}

// WorkflowConfig holds expense workflow settings.
type WorkflowConfig struct {
	// SeedDemoExpenses fills an owner's empty list with sample expenses
	SeedDemoExpenses bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/expenses.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Vision: VisionConfig{
			BaseURL:           "http://localhost:11434/v1",
			Model:             "qwen2.5vl:3b",
			Timeout:           60 * time.Second,
			MaxImageDimension: 1600,
		},
		Lark: LarkConfig{
			APITimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			UploadDir:      "uploads",
			PublicPrefix:   "/uploads",
			MaxUploadBytes: 5 << 20,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Storage.UploadDir == "" {
		return fmt.Errorf("storage.upload_dir is required")
	}
	if c.Lark.Enabled && (c.Lark.AppID == "" || c.Lark.AppSecret == "" || c.Lark.ChatID == "") {
		return fmt.Errorf("lark.app_id, lark.app_secret and lark.chat_id are required when lark is enabled")
	}
	return nil
}
