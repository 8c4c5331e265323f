// Package config loads scribe's settings from a YAML file, a .env file and
// SCRIBE_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/scribe"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Analyzer providers.
const (
	ProviderNone      = "none"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SCRIBE"

// Config is the resolved configuration.
type Config struct {
	DBPath   string `mapstructure:"db_path" validate:"required"`
	LogFile  string `mapstructure:"log_file" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`

	Provider        string        `mapstructure:"provider" validate:"oneof=none anthropic gemini"`
	Model           string        `mapstructure:"model"`
	AnthropicAPIKey string        `mapstructure:"anthropic_api_key" validate:"required_if=Provider anthropic"`
	GeminiAPIKey    string        `mapstructure:"gemini_api_key" validate:"required_if=Provider gemini"`
	AnalyzerTimeout time.Duration `mapstructure:"analyzer_timeout" validate:"gt=0"`
	Breaker         Breaker       `mapstructure:"breaker"`

	WindowCapacity int    `mapstructure:"window_capacity" validate:"gte=1,lte=1000"`
	PromptsDir     string `mapstructure:"prompts_dir"`
	Seed           uint64 `mapstructure:"seed"`

	HTTPAddr string `mapstructure:"http_addr" validate:"required,hostname_port"`
}

// Breaker configures the analyzer circuit breaker.
type Breaker struct {
	ConsecutiveFailures uint32        `mapstructure:"consecutive_failures" validate:"gte=1"`
	OpenTimeout         time.Duration `mapstructure:"open_timeout" validate:"gt=0"`
}

// Dir returns the per-user configuration directory.
func Dir() string {
	if d, err := os.UserConfigDir(); err == nil {
		return filepath.Join(d, "scribe")
	}
	return ".scribe"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_path", filepath.Join(Dir(), "scribe.db"))
	v.SetDefault("log_file", "scribe.log")
	v.SetDefault("log_level", "info")
	v.SetDefault("provider", ProviderNone)
	v.SetDefault("model", "")
	v.SetDefault("anthropic_api_key", "")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("analyzer_timeout", 15*time.Second)
	v.SetDefault("breaker.consecutive_failures", 3)
	v.SetDefault("breaker.open_timeout", 30*time.Second)
	v.SetDefault("window_capacity", scribe.DefaultWindowCapacity)
	v.SetDefault("prompts_dir", "prompts")
	v.SetDefault("seed", 0)
	v.SetDefault("http_addr", "127.0.0.1:8080")
}

// Load reads configuration. When path is empty, scribe.yaml is looked up in
// the working directory and then in [Dir]; a missing file is not an error.
// A .env file in the working directory is loaded into the environment
// first, without overriding variables already set. ANTHROPIC_API_KEY and
// GEMINI_API_KEY are honored when the SCRIBE_ variants are unset.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	_ = v.BindEnv("anthropic_api_key", EnvPrefix+"_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("gemini_api_key", EnvPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("breaker.consecutive_failures", EnvPrefix+"_BREAKER_CONSECUTIVE_FAILURES")
	_ = v.BindEnv("breaker.open_timeout", EnvPrefix+"_BREAKER_OPEN_TIMEOUT")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("scribe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(Dir())
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", describe(path), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func describe(path string) string {
	if path == "" {
		return "scribe.yaml"
	}
	return path
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w: %w", scribe.ErrValidation, err)
	}
	return nil
}
