package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	envFile    string
	envPrefix  string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v:         viper.New(),
		envFile:   ".env",
		envPrefix: "SHOCKCAST",
	}
}

// NewLoaderWithViper creates a loader using an existing viper instance.
// This allows integration with CLI flag bindings.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	l := NewLoader()
	l.v = v
	return l
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// WithEnvFile sets the dotenv file read before the environment. Empty disables it.
func (l *Loader) WithEnvFile(path string) *Loader {
	l.envFile = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (set via viper.BindPFlag)
// 2. Environment variables (SHOCKCAST_*), including those from .env
// 3. Project config (.shockcast/config.yaml)
// 4. User config (~/.config/shockcast/config.yaml)
// 5. Defaults
func (l *Loader) Load() (*Config, error) {
	if err := l.loadEnvFile(); err != nil {
		return nil, err
	}

	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName("config")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(ProjectConfigDir)
		if dir, err := UserConfigDir(); err == nil {
			l.v.AddConfigPath(dir)
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Defaults returns the built-in configuration without reading any file or
// environment variable.
func Defaults() *Config {
	l := NewLoader()
	l.setDefaults()
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: built-in defaults do not unmarshal: %v", err))
	}
	return &cfg
}

// loadEnvFile reads the dotenv file when present. Variables already set in the
// process environment win.
func (l *Loader) loadEnvFile() error {
	if l.envFile == "" {
		return nil
	}
	if _, err := os.Stat(l.envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("checking env file: %w", err)
	}
	if err := godotenv.Load(l.envFile); err != nil {
		return fmt.Errorf("loading env file %s: %w", l.envFile, err)
	}
	return nil
}

// setDefaults configures default values.
func (l *Loader) setDefaults() {
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")

	l.v.SetDefault("normalize.generic_penalty", 0.25)
	l.v.SetDefault("normalize.fuzzy_min_coverage", 0.6)

	l.v.SetDefault("agents.min_similarity", 0.4)
	l.v.SetDefault("agents.max_comparisons", 8)
	l.v.SetDefault("agents.sector_scale", 1.0)

	l.v.SetDefault("ensemble.models", []string{"rule", "historical", "evt", "regression"})
	l.v.SetDefault("ensemble.calibrate_severity", true)
	l.v.SetDefault("ensemble.evt_categories", []string{
		"pandemic", "natural_disaster", "economic_crisis", "geopolitical",
		"polycrisis", "recession", "climate", "generic",
	})
	l.v.SetDefault("ensemble.evt_min_samples", 5)
	l.v.SetDefault("ensemble.evt_level", 0.95)

	l.v.SetDefault("immunity.coefficient", 0.3)
	l.v.SetDefault("immunity.derive_from_comparisons", false)
	l.v.SetDefault("immunity.derive_min_similarity", 0.8)
	l.v.SetDefault("immunity.history_window", "8760h")

	l.v.SetDefault("forecast.epsilon", 0.05)
	l.v.SetDefault("forecast.max_horizon_days", 1095)
	l.v.SetDefault("forecast.decay_rates", map[string]float64{})

	// Consensus is opt-in per request or globally.
	l.v.SetDefault("consensus.enabled", false)
	l.v.SetDefault("consensus.roles", []string{"data_analysis", "forecasting", "behavioral", "economic", "strategy"})
	l.v.SetDefault("consensus.role_timeout", "2s")
	l.v.SetDefault("consensus.refine_rate", 0.5)
	l.v.SetDefault("consensus.abstention_penalty", 0.2)

	l.v.SetDefault("scenarios.max_parallel", 4)

	l.v.SetDefault("reference.path", "")
	l.v.SetDefault("reference.watch", false)

	l.v.SetDefault("history.enabled", false)
	l.v.SetDefault("history.path", filepath.Join(ProjectConfigDir, "history.db"))

	l.v.SetDefault("report.format", "text")
	l.v.SetDefault("report.destination", "-")

	l.v.SetDefault("server.host", "127.0.0.1")
	l.v.SetDefault("server.port", 8080)
	l.v.SetDefault("server.rate_limit", 5.0)
	l.v.SetDefault("server.rate_burst", 10)
	l.v.SetDefault("server.allowed_origins", []string{"*"})
	l.v.SetDefault("server.request_timeout", "30s")
}

// ConfigFile returns the config file path if one was used.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Get returns a configuration value by key.
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// Set sets a configuration value.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// IsSet checks if a key has been set.
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}

// AllSettings returns all settings as a map.
func (l *Loader) AllSettings() map[string]interface{} {
	return l.v.AllSettings()
}
