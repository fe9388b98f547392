// Package config handles configuration loading and management for taskforge.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for taskforge.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	State     StateConfig     `mapstructure:"state"`
	TUI       TUIConfig       `mapstructure:"tui"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	// Model is the Claude model name to execute tasks with.
	Model string `mapstructure:"model"`
	// UseBedrock routes requests through AWS Bedrock instead of the direct API.
	UseBedrock bool `mapstructure:"use_bedrock"`
	// AWSRegion is the Bedrock region.
	AWSRegion string `mapstructure:"aws_region"`
	// AWSProfile is the optional shared-config profile for Bedrock.
	AWSProfile string `mapstructure:"aws_profile"`
}

// SchedulerConfig holds scheduling strategy settings.
type SchedulerConfig struct {
	// Strategy is the active selection strategy name.
	Strategy string `mapstructure:"strategy"`
	// Weights maps voting strategy names to hybrid vote weights.
	Weights map[string]float64 `mapstructure:"weights"`
	// MaxConcurrent is the system-wide ceiling on running tasks.
	MaxConcurrent int `mapstructure:"max_concurrent"`
	// OptimizationInterval is how often weights are re-tuned.
	OptimizationInterval time.Duration `mapstructure:"optimization_interval"`
}

// DispatchConfig holds dispatch loop tunables.
type DispatchConfig struct {
	// PollInterval is how often the loop drains the ready queue.
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// NoAgentBackoff is the wait after a no-agent dispatch attempt.
	NoAgentBackoff time.Duration `mapstructure:"no_agent_backoff"`
}

// StateConfig holds persistence settings.
type StateConfig struct {
	// Enabled turns the write-through SQLite cache on.
	Enabled bool `mapstructure:"enabled"`
	// Path overrides the database location. Empty uses the project default.
	Path string `mapstructure:"path"`
}

// TUIConfig holds status dashboard settings.
type TUIConfig struct {
	RefreshRate time.Duration `mapstructure:"refresh_rate"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, TASKFORGE_*)
// 2. Project config (.taskforge.yaml in current directory or parent)
// 3. User config (~/.config/taskforge/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Load user config from XDG path
	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := FindProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Merge project config (takes precedence)
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	// Environment variable overrides
	v.AutomaticEnv()
	v.SetEnvPrefix("TASKFORGE")

	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.model", "TASKFORGE_MODEL")
	v.BindEnv("scheduler.strategy", "TASKFORGE_STRATEGY")
	v.BindEnv("scheduler.max_concurrent", "TASKFORGE_MAX_CONCURRENT")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("scheduler.strategy", cfg.Scheduler.Strategy)
	v.Set("scheduler.weights", cfg.Scheduler.Weights)
	v.Set("scheduler.max_concurrent", cfg.Scheduler.MaxConcurrent)
	v.Set("scheduler.optimization_interval", cfg.Scheduler.OptimizationInterval.String())
	v.Set("dispatch.poll_interval", cfg.Dispatch.PollInterval.String())
	v.Set("dispatch.no_agent_backoff", cfg.Dispatch.NoAgentBackoff.String())
	v.Set("state.enabled", cfg.State.Enabled)
	v.Set("state.path", cfg.State.Path)
	v.Set("tui.refresh_rate", cfg.TUI.RefreshRate.String())

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	v.SetDefault("scheduler.strategy", "hybrid")
	v.SetDefault("scheduler.max_concurrent", 50)
	v.SetDefault("scheduler.optimization_interval", "60s")

	v.SetDefault("dispatch.poll_interval", "100ms")
	v.SetDefault("dispatch.no_agent_backoff", "1s")

	v.SetDefault("state.enabled", true)
	v.SetDefault("state.path", "")

	v.SetDefault("tui.refresh_rate", "1s")
}

// getUserConfigDir returns the XDG config directory for taskforge.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "taskforge")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "taskforge")
	}
	return filepath.Join(home, ".config", "taskforge")
}

// FindProjectConfig searches for .taskforge.yaml in the current directory
// and parents. Returns "" if none exists.
func FindProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".taskforge.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			Strategy:             "hybrid",
			MaxConcurrent:        50,
			OptimizationInterval: 60 * time.Second,
		},
		Dispatch: DispatchConfig{
			PollInterval:   100 * time.Millisecond,
			NoAgentBackoff: time.Second,
		},
		State: StateConfig{
			Enabled: true,
		},
		TUI: TUIConfig{
			RefreshRate: time.Second,
		},
	}
}
