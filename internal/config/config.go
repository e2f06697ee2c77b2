// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads walletkeeper.yaml, .env files, environment variables
// and command-line flags into a Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the complete runtime configuration.
type Config struct {
	Database  Database  `mapstructure:"database" yaml:"database"`
	Storage   Storage   `mapstructure:"storage" yaml:"storage"`
	Crypto    Crypto    `mapstructure:"crypto" yaml:"crypto"`
	Stellar   Stellar   `mapstructure:"stellar" yaml:"stellar"`
	Server    Server    `mapstructure:"server" yaml:"server"`
	RateLimit RateLimit `mapstructure:"ratelimit" yaml:"ratelimit"`
	Language  string    `mapstructure:"language" yaml:"language" validate:"omitempty,oneof=en de"`
	Log       Log       `mapstructure:"log" yaml:"log"`
}

type Database struct {
	Type string `mapstructure:"type" yaml:"type" validate:"oneof=sqlite postgres mysql couchdb mongodb memory"`
	DSN  string `mapstructure:"dsn" yaml:"dsn" validate:"required_unless=Type memory"`
	Name string `mapstructure:"name" yaml:"name,omitempty"`
}

type Storage struct {
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	ReadRetries int           `mapstructure:"read_retries" yaml:"read_retries" validate:"gte=0,lte=10"`
}

// Crypto holds the KDF choice and, optionally, the master secret. The
// secret is never written back to disk.
type Crypto struct {
	KDF          string `mapstructure:"kdf" yaml:"kdf" validate:"oneof=scrypt argon2id"`
	MasterSecret string `mapstructure:"master_secret" yaml:"-"`
}

type Stellar struct {
	Network string `mapstructure:"network" yaml:"network" validate:"required"`
}

type Server struct {
	Addr   string `mapstructure:"addr" yaml:"addr" validate:"required,hostname_port"`
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`
}

type RateLimit struct {
	SignRPS   float64 `mapstructure:"sign_rps" yaml:"sign_rps" validate:"gte=0"`
	SignBurst int     `mapstructure:"sign_burst" yaml:"sign_burst" validate:"gte=0"`
}

type Log struct {
	Level string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Defaults returns the built-in value for every key. Every key needs a
// default so that viper's AutomaticEnv can resolve it during Unmarshal.
func Defaults() map[string]any {
	return map[string]any{
		"database.type":        "sqlite",
		"database.dsn":         "./walletkeeper.db",
		"database.name":        "walletkeeper",
		"storage.timeout":      "5s",
		"storage.read_retries": 2,
		"crypto.kdf":           "scrypt",
		"crypto.master_secret": "",
		"stellar.network":      "testnet",
		"server.addr":          "127.0.0.1:8080",
		"server.api_key":       "",
		"ratelimit.sign_rps":   1.0,
		"ratelimit.sign_burst": 5,
		"language":             "en",
		"log.level":            "info",
	}
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// GetConfigPath returns the full path for the configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Walletkeeper")
		default:
			configDir = "/etc/walletkeeper"
		}
	} else {
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(dir, "walletkeeper")
	}
	return filepath.Join(configDir, "walletkeeper.yaml"), nil
}

// LoadConfig resolves configuration in increasing precedence: defaults,
// walletkeeper.yaml from the user, system and working directories, the
// explicit file, environment (WALLETKEEPER_ prefix, "." becomes "_", with
// a .env file in the working directory loaded first) and finally cmd flags.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, configFile *string) (T, error) {
	var c T
	v := viper.New()

	// A missing .env is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return c, fmt.Errorf("failed to load .env: %w", err)
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("walletkeeper")
	v.SetConfigType("yaml")
	if configFile != nil && *configFile != "" {
		v.SetConfigFile(*configFile)
	}
	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, err
		}
	}

	v.SetEnvPrefix("walletkeeper")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}

// Load is LoadConfig with the built-in defaults followed by Validate.
func Load(cmd *cobra.Command, configFile *string) (*Config, error) {
	c, err := LoadConfig[Config](cmd, Defaults(), configFile)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// WriteConfigFile writes c as YAML to the user or system config path and
// returns that path. The file is created with mode 0600.
func WriteConfigFile[T any](c *T, system bool) (string, error) {
	path, err := GetConfigPath(system)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
