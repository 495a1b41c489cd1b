package config

import (
	"errors"
	"testing"
)

func validConfig() *Config {
	return &Config{
		ModelName:        DefaultModelName,
		EmbedderModel:    DefaultEmbedderModel,
		RetrievalTopK:    DefaultTopK,
		PostgresHost:     "localhost",
		PostgresPort:     5432,
		PostgresUser:     "opsmail",
		PostgresPassword: "secret",
		PostgresDBName:   "opsmail",
		PostgresSSLMode:  "disable",
		HTTPAddr:         "127.0.0.1:8080",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "empty model name",
			mutate:  func(c *Config) { c.ModelName = "  " },
			wantErr: ErrInvalidModelName,
		},
		{
			name:    "empty embedder model",
			mutate:  func(c *Config) { c.EmbedderModel = "" },
			wantErr: ErrInvalidEmbedderModel,
		},
		{
			name:    "top-k too small",
			mutate:  func(c *Config) { c.RetrievalTopK = 0 },
			wantErr: ErrInvalidTopK,
		},
		{
			name:    "top-k too large",
			mutate:  func(c *Config) { c.RetrievalTopK = MaxTopK + 1 },
			wantErr: ErrInvalidTopK,
		},
		{
			name:    "empty postgres host",
			mutate:  func(c *Config) { c.PostgresHost = "" },
			wantErr: ErrInvalidPostgresHost,
		},
		{
			name:    "postgres port out of range",
			mutate:  func(c *Config) { c.PostgresPort = 70000 },
			wantErr: ErrInvalidPostgresPort,
		},
		{
			name:    "empty database name",
			mutate:  func(c *Config) { c.PostgresDBName = "" },
			wantErr: ErrInvalidPostgresDBName,
		},
		{
			name:    "bad ssl mode",
			mutate:  func(c *Config) { c.PostgresSSLMode = "maybe" },
			wantErr: ErrInvalidPostgresSSLMode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNil(t *testing.T) {
	var cfg *Config
	if err := cfg.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Fatalf("Validate() on nil = %v, want ErrConfigNil", err)
	}
}

func TestValidateServe(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg := validConfig()
	cfg.InboundSecret = ""
	if err := cfg.ValidateServe(); !errors.Is(err, ErrMissingInboundSecret) {
		t.Fatalf("ValidateServe() = %v, want ErrMissingInboundSecret", err)
	}

	cfg.InboundSecret = "hunter2"
	if err := cfg.ValidateServe(); err != nil {
		t.Fatalf("ValidateServe() = %v, want nil", err)
	}
}

func TestValidateServe_MissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	cfg := validConfig()
	cfg.InboundSecret = "hunter2"
	if err := cfg.ValidateServe(); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("ValidateServe() = %v, want ErrMissingAPIKey", err)
	}
}
