// Package config loads and validates pipeline configuration from defaults,
// an optional YAML file, environment variables, and CLI flags.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LLMConfig holds generation-service connection settings.
type LLMConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries"`
}

// Config is the full pipeline configuration.
type Config struct {
	Model         string    `mapstructure:"model"`
	Temperature   float64   `mapstructure:"temperature"`
	DataPath      string    `mapstructure:"data_path"`
	N             int       `mapstructure:"n"`
	Workers       int       `mapstructure:"workers"`
	MaxIterations int       `mapstructure:"max_iterations"`
	OutputDir     string    `mapstructure:"output_dir"`
	Verbose       bool      `mapstructure:"verbose"`
	LLM           LLMConfig `mapstructure:"llm"`
}

// SetDefaults registers default values on a viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("model", "gpt-4o-mini")
	v.SetDefault("temperature", 0.0)
	v.SetDefault("data_path", "")
	v.SetDefault("n", 0)
	v.SetDefault("workers", 4)
	v.SetDefault("max_iterations", 3)
	v.SetDefault("output_dir", "outputs")
	v.SetDefault("verbose", false)
	// Empty defaults register the keys so env-only overrides (FINQA_LLM_API_KEY)
	// survive Unmarshal.
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout_seconds", 120)
	v.SetDefault("llm.max_retries", 3)
}

// Load builds a Config from the given viper instance, reading configFile when
// non-empty and applying FINQA_-prefixed environment overrides.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix("FINQA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration invariants. Violations are fatal to the whole
// run; they are the only errors that abort a batch.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("model is required")
	}
	if c.Temperature < 0.0 || c.Temperature > 1.0 {
		return fmt.Errorf("temperature must be between 0.0 and 1.0, got %g", c.Temperature)
	}
	if strings.TrimSpace(c.DataPath) == "" {
		return fmt.Errorf("data path is required")
	}
	if c.N < 0 {
		return fmt.Errorf("n must be >= 0, got %d", c.N)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be >= 1, got %d", c.MaxIterations)
	}
	if c.LLM.TimeoutSeconds < 1 {
		return fmt.Errorf("llm timeout must be >= 1 second, got %d", c.LLM.TimeoutSeconds)
	}
	return nil
}
