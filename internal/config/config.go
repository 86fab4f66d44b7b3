// Package config provides configuration management for the Shopify CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"github.com/open-cli-collective/shopify-cli/api"
)

const (
	// DirName is the name of the configuration directory
	DirName = "shopify-cli"
	// ConfigFile is the name of the configuration file
	ConfigFile = "config.json"
	// TokenFile is the name of the access token file (fallback storage)
	TokenFile = "token.json"
)

// File and directory permission constants for consistent security settings.
const (
	// DirPerm is the permission for config directories (owner read/write/execute only)
	DirPerm = 0700
	// FilePerm is the permission for config files (owner read/write only)
	FilePerm = 0600
)

// Config represents the CLI configuration.
type Config struct {
	// Shop is the shop name or myshopify.com domain (e.g., my-shop)
	Shop string `json:"shop,omitempty" validate:"omitempty,hostname_rfc1123"`
	// APIVersion is the Admin API version (e.g., 2026-07 or unstable)
	APIVersion string `json:"api_version,omitempty" validate:"omitempty,api_version"`
	// MaxAttempts bounds the attempts of every remote call
	MaxAttempts uint `json:"max_attempts,omitempty" default:"10" validate:"gte=1,lte=100"`
	// PollInterval is the pause between bulk operation status checks
	PollInterval string `json:"poll_interval,omitempty" default:"1s" validate:"duration"`
	// RateLimit caps GraphQL calls per second (0 disables)
	RateLimit float64 `json:"rate_limit,omitempty" validate:"gte=0"`
	// ClientID is the app client ID for the client credentials grant (optional)
	ClientID string `json:"client_id,omitempty"`
}

// GetConfigDir returns the configuration directory path, creating it if needed.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/shopify-cli
func GetConfigDir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}
	configDir := filepath.Join(configHome, DirName)

	if err := os.MkdirAll(configDir, DirPerm); err != nil {
		return "", err
	}

	return configDir, nil
}

// GetConfigPath returns the full path to config.json
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFile), nil
}

// GetTokenPath returns the full path to token.json (fallback storage)
func GetTokenPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, TokenFile), nil
}

// ShortenPath replaces the home directory prefix with ~ for display purposes.
func ShortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}

// Load loads the configuration from config.json with environment variable overrides
// and fills unset fields with their defaults.
// Environment variable precedence: SHOPCTL_* → SHOPIFY_* → config file
func Load() (*Config, error) {
	cfg := &Config{}

	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", ShortenPath(path), err)
		}
	}

	if v := getEnvWithFallback("SHOPCTL_SHOP", "SHOPIFY_SHOP"); v != "" {
		cfg.Shop = v
	}
	if v := getEnvWithFallback("SHOPCTL_API_VERSION", "SHOPIFY_API_VERSION"); v != "" {
		cfg.APIVersion = v
	}
	if v := getEnvWithFallback("SHOPCTL_MAX_ATTEMPTS", "SHOPIFY_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid max attempts %q: %w", v, err)
		}
		cfg.MaxAttempts = uint(n)
	}
	if v := getEnvWithFallback("SHOPCTL_POLL_INTERVAL", "SHOPIFY_POLL_INTERVAL"); v != "" {
		cfg.PollInterval = v
	}
	if v := getEnvWithFallback("SHOPCTL_CLIENT_ID", "SHOPIFY_CLIENT_ID"); v != "" {
		cfg.ClientID = v
	}
	if v := getEnvWithFallback("SHOPCTL_RATE_LIMIT", "SHOPIFY_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid rate limit %q: %w", v, err)
		}
		cfg.RateLimit = f
	}

	if err := defaults.Set(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to config.json
func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, FilePerm)
}

// Clear removes the configuration file
func Clear() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsConfigured returns true if the minimum required configuration is set.
func IsConfigured() bool {
	cfg, err := Load()
	if err != nil {
		return false
	}
	return cfg.Shop != ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("api_version", func(fl validator.FieldLevel) bool {
		_, err := api.ParseVersion(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d > 0
	})
	return v
}

// Validate checks field values and returns one error per invalid field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Errorf("invalid %s %q (%s)", fieldName(fe.Field()), fmt.Sprint(fe.Value()), fe.Tag()))
	}
	return errors.Join(msgs...)
}

// PollIntervalDuration returns PollInterval parsed, or one second when unset or invalid.
func (c *Config) PollIntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

func fieldName(structField string) string {
	switch structField {
	case "APIVersion":
		return "api_version"
	case "MaxAttempts":
		return "max_attempts"
	case "PollInterval":
		return "poll_interval"
	case "RateLimit":
		return "rate_limit"
	case "ClientID":
		return "client_id"
	default:
		return strings.ToLower(structField)
	}
}

// getEnvWithFallback returns the value of the primary environment variable,
// or the fallback if the primary is not set.
func getEnvWithFallback(primary, fallback string) string {
	if v := os.Getenv(primary); v != "" {
		return v
	}
	return os.Getenv(fallback)
}
