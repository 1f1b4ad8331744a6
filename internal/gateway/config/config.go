// Package config loads the luna agent configuration from TOML. Every key is
// optional; missing keys keep their defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// EnvConfigPath names the environment variable holding the config file path
const EnvConfigPath = "LUNA_CONFIG"

// Error definitions
var (
	// ErrInvalidConfig is returned when a decoded configuration fails validation
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config is the root of the configuration file
type Config struct {
	Gateway   GatewayConfig   `toml:"gateway"`
	Elevation ElevationConfig `toml:"elevation"`
	Logging   LoggingConfig   `toml:"logging"`
}

// GatewayConfig controls command execution
type GatewayConfig struct {
	// DefaultTimeoutSeconds applies to requests without their own timeout
	DefaultTimeoutSeconds int `toml:"default_timeout_seconds" validate:"min=1,max=86400"`
	// MaxTimeoutSeconds caps any request timeout; 0 disables the cap
	MaxTimeoutSeconds int `toml:"max_timeout_seconds" validate:"min=0,max=86400"`
	// Shell interprets command text; empty selects the platform shell
	Shell string `toml:"shell"`
	// OutputSizeLimit caps captured bytes per stream; 0 means unlimited
	OutputSizeLimit int64 `toml:"output_size_limit" validate:"min=0"`
}

// ElevationConfig controls privilege negotiation
type ElevationConfig struct {
	CacheWindowSeconds           int    `toml:"cache_window_seconds" validate:"min=1,ltfield=PlatformCredentialTTLSeconds"`
	PlatformCredentialTTLSeconds int    `toml:"platform_credential_ttl_seconds" validate:"min=2"`
	PromptTimeoutSeconds         int    `toml:"prompt_timeout_seconds" validate:"min=1,max=3600"`
	Askpass                      string `toml:"askpass"`
	SudoPath                     string `toml:"sudo_path"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level  string `toml:"level" validate:"omitempty,oneof=debug info warn error"`
	LogDir string `toml:"log_dir"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			DefaultTimeoutSeconds: 300,
			MaxTimeoutSeconds:     3600,
			OutputSizeLimit:       10 * 1024 * 1024,
		},
		Elevation: ElevationConfig{
			CacheWindowSeconds:           240,
			PlatformCredentialTTLSeconds: 300,
			PromptTimeoutSeconds:         120,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the configuration from path, falling back to $LUNA_CONFIG and
// then to the defaults when neither names a file.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path) // #nosec G304 - config path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML content over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(content []byte) (*Config, error) {
	cfg := Default()
	decoder := toml.NewDecoder(bytes.NewReader(content))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("failed to parse config: %s", strict.String())
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and cross-field rules
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Gateway.MaxTimeoutSeconds > 0 && c.Gateway.DefaultTimeoutSeconds > c.Gateway.MaxTimeoutSeconds {
		return fmt.Errorf("%w: default_timeout_seconds (%d) exceeds max_timeout_seconds (%d)",
			ErrInvalidConfig, c.Gateway.DefaultTimeoutSeconds, c.Gateway.MaxTimeoutSeconds)
	}
	return nil
}

// DefaultTimeout returns the default request timeout
func (g GatewayConfig) DefaultTimeout() time.Duration {
	return time.Duration(g.DefaultTimeoutSeconds) * time.Second
}

// MaxTimeout returns the timeout cap, zero when disabled
func (g GatewayConfig) MaxTimeout() time.Duration {
	return time.Duration(g.MaxTimeoutSeconds) * time.Second
}

// CacheWindow returns how long an elevation grant is reused
func (e ElevationConfig) CacheWindow() time.Duration {
	return time.Duration(e.CacheWindowSeconds) * time.Second
}

// CredentialTTL returns the platform credential lifetime
func (e ElevationConfig) CredentialTTL() time.Duration {
	return time.Duration(e.PlatformCredentialTTLSeconds) * time.Second
}

// PromptTimeout returns the bound on the interactive prompt
func (e ElevationConfig) PromptTimeout() time.Duration {
	return time.Duration(e.PromptTimeoutSeconds) * time.Second
}
