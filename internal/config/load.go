package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from the environment and an optional
// taskpanel.yaml in the working directory. Environment variables use
// the TASKPANEL_ prefix with underscores for nesting, e.g.
// TASKPANEL_SERVER_PORT, and take precedence over file values. A .env
// file is honored when present.
func Load() (*Config, error) {
	// Populate the environment from .env first; a missing file is fine.
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("server.port", 3000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("storage.credentials_dir", "cookies")
	v.SetDefault("storage.flush_interval", "30s")
	v.SetDefault("auth.token_lifetime_minutes", 24*60)

	// No usable default exists for the secret, but viper only maps env
	// vars onto keys it knows about; registering the key keeps
	// TASKPANEL_AUTH_JWT_SECRET visible to Unmarshal.
	v.SetDefault("auth.jwt_secret", "")

	v.SetConfigName("taskpanel")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TASKPANEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
