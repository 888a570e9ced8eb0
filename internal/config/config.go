package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Vision    VisionConfig    `mapstructure:"vision"`
	Lark      LarkConfig      `mapstructure:"lark"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	Mode            string        `mapstructure:"mode"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// StorageConfig holds receipt upload configuration
type StorageConfig struct {
	UploadDir      string `mapstructure:"upload_dir"`
	PublicPrefix   string `mapstructure:"public_prefix"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

// VisionConfig holds the receipt vision model configuration
type VisionConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxImageDimension int           `mapstructure:"max_image_dimension"`
	PromptsPath       string        `mapstructure:"prompts_path"`
}

// LarkConfig holds Lark notification configuration
type LarkConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	AppID      string        `mapstructure:"app_id"`
	AppSecret  string        `mapstructure:"app_secret"`
	ChatID     string        `mapstructure:"chat_id"`
	APITimeout time.Duration `mapstructure:"api_timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// WorkflowConfig holds expense workflow options
type WorkflowConfig struct {
	SeedDemoExpenses bool `mapstructure:"seed_demo_expenses"`
}

// RateLimitConfig limits the receipt analysis endpoint
type RateLimitConfig struct {
	AnalyzeRPS   float64 `mapstructure:"analyze_rps"`
	AnalyzeBurst int     `mapstructure:"analyze_burst"`
}

// Address returns host:port for the HTTP listener
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load loads configuration from file and environment variables.
// A .env file next to the working directory is applied first; a missing config file means defaults.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(configPath); !errors.Is(statErr, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Override with environment variables
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.mode", "release")

	// Database defaults
	v.SetDefault("database.path", "data/expenses.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Storage defaults
	v.SetDefault("storage.upload_dir", "uploads")
	v.SetDefault("storage.public_prefix", "/uploads")
	v.SetDefault("storage.max_upload_bytes", 5<<20)

	// Vision defaults
	v.SetDefault("vision.base_url", "http://localhost:11434/v1")
	v.SetDefault("vision.model", "qwen2.5vl:3b")
	v.SetDefault("vision.timeout", 60*time.Second)
	v.SetDefault("vision.max_image_dimension", 1600)

	// Lark defaults
	v.SetDefault("lark.enabled", false)
	v.SetDefault("lark.api_timeout", 10*time.Second)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// Workflow defaults
	v.SetDefault("workflow.seed_demo_expenses", false)

	// Rate limit defaults
	v.SetDefault("rate_limit.analyze_rps", 1.0)
	v.SetDefault("rate_limit.analyze_burst", 5)
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"vision.api_key":  "VISION_API_KEY",
		"vision.base_url": "VISION_BASE_URL",
		"lark.app_id":     "LARK_APP_ID",
		"lark.app_secret": "LARK_APP_SECRET",
		"lark.chat_id":    "LARK_CHAT_ID",
		"database.path":   "DATABASE_PATH",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Storage.UploadDir == "" {
		return fmt.Errorf("storage.upload_dir is required")
	}
	if !strings.HasPrefix(c.Storage.PublicPrefix, "/") {
		return fmt.Errorf("storage.public_prefix must start with /")
	}
	if c.Storage.MaxUploadBytes <= 0 {
		return fmt.Errorf("storage.max_upload_bytes must be positive")
	}
	if c.Vision.BaseURL == "" {
		return fmt.Errorf("vision.base_url is required")
	}
	if c.Vision.Model == "" {
		return fmt.Errorf("vision.model is required")
	}

	// Lark credentials only matter once notifications are switched on
	if c.Lark.Enabled {
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required")
		}
		if c.Lark.ChatID == "" {
			return fmt.Errorf("lark.chat_id is required")
		}
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console, got %q", c.Logger.Format)
	}
	if c.RateLimit.AnalyzeRPS <= 0 || c.RateLimit.AnalyzeBurst <= 0 {
		return fmt.Errorf("rate_limit.analyze_rps and rate_limit.analyze_burst must be positive")
	}

	return nil
}
