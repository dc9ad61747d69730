// Package config loads and validates the application configuration.
package config

import "time"

// Config holds all application configuration, grouped by concern.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"  validate:"required"`
	Storage StorageConfig `mapstructure:"storage" validate:"required"`
	Auth    AuthConfig    `mapstructure:"auth"    validate:"required"`
}

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// StorageConfig locates the persisted state and sets the periodic
// flush cadence that bounds the loss window on abnormal termination.
type StorageConfig struct {
	DataDir        string        `mapstructure:"data_dir"        validate:"required"`
	CredentialsDir string        `mapstructure:"credentials_dir" validate:"required"`
	FlushInterval  time.Duration `mapstructure:"flush_interval"  validate:"required,min=1s"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}
