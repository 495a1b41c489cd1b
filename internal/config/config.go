// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.opsmail/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: generation model, embedder model
//   - Storage: PostgreSQL connection (see storage.go)
//   - HTTP: listen address, inbound webhook secret
//   - Retrieval: top-K for chunk search
//
// Sensitive data (Postgres password, webhook secret) is masked in
// MarshalJSON and never logged. Validation is fail-fast with sentinel
// errors so callers can branch with errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the generation model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidTopK indicates the retrieval top-K is out of range.
	ErrInvalidTopK = errors.New("invalid retrieval top-k")

	// ErrMissingInboundSecret indicates the inbound webhook secret is not set.
	ErrMissingInboundSecret = errors.New("missing inbound webhook secret")
)

const (
	// DefaultModelName is the default generation model.
	DefaultModelName = "googleai/gemini-2.5-flash"

	// DefaultEmbedderModel is the default embedding model.
	// text-embedding-004 outputs 768 dimensions; the content_chunks schema
	// uses vector(768) to match.
	DefaultEmbedderModel = "text-embedding-004"

	// DefaultTopK is the default number of chunks returned per retrieval.
	DefaultTopK = 5

	// MaxTopK bounds retrieval fan-out.
	MaxTopK = 20
)

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// AI model configuration
	ModelName     string `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`

	// Retrieval configuration
	RetrievalTopK int `mapstructure:"retrieval_top_k" json:"retrieval_top_k"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// HTTP configuration
	HTTPAddr      string `mapstructure:"http_addr" json:"http_addr"`
	InboundSecret string `mapstructure:"inbound_secret" json:"inbound_secret"` // SENSITIVE: masked in MarshalJSON
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".opsmail")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL has the highest priority for PostgreSQL settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("model_name", DefaultModelName)
	viper.SetDefault("embedder_model", DefaultEmbedderModel)

	viper.SetDefault("retrieval_top_k", DefaultTopK)

	// PostgreSQL defaults for local development
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "opsmail")
	viper.SetDefault("postgres_password", "opsmail_dev_password")
	viper.SetDefault("postgres_db_name", "opsmail")
	viper.SetDefault("postgres_ssl_mode", "disable")

	viper.SetDefault("http_addr", "127.0.0.1:8080")
}

// bindEnvVariables binds sensitive environment variables explicitly.
// Secrets never live in the config file:
//  1. GEMINI_API_KEY  - read directly by Genkit, validated in ValidateServe()
//  2. OPSMAIL_INBOUND_SECRET - shared secret for the inbound mail webhook
func bindEnvVariables() {
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("inbound_secret", "OPSMAIL_INBOUND_SECRET")
	mustBind("http_addr", "OPSMAIL_HTTP_ADDR")
}

// MarshalJSON masks sensitive fields so a Config can be logged safely.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	masked := alias(c)
	if masked.PostgresPassword != "" {
		masked.PostgresPassword = "***"
	}
	if masked.InboundSecret != "" {
		masked.InboundSecret = "***"
	}
	return json.Marshal(masked)
}
