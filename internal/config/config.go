package config

import "time"

// Config holds all application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Normalize NormalizeConfig `mapstructure:"normalize"`
	Agents    AgentsConfig    `mapstructure:"agents"`
	Ensemble  EnsembleConfig  `mapstructure:"ensemble"`
	Immunity  ImmunityConfig  `mapstructure:"immunity"`
	Forecast  ForecastConfig  `mapstructure:"forecast"`
	Consensus ConsensusConfig `mapstructure:"consensus"`
	Scenarios ScenariosConfig `mapstructure:"scenarios"`
	Reference ReferenceConfig `mapstructure:"reference"`
	History   HistoryConfig   `mapstructure:"history"`
	Report    ReportConfig    `mapstructure:"report"`
	Server    ServerConfig    `mapstructure:"server"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// NormalizeConfig configures event normalization.
type NormalizeConfig struct {
	GenericPenalty   float64 `mapstructure:"generic_penalty"`
	FuzzyMinCoverage float64 `mapstructure:"fuzzy_min_coverage"`
}

// AgentsConfig configures the specialized agents.
type AgentsConfig struct {
	MinSimilarity  float64 `mapstructure:"min_similarity"`
	MaxComparisons int     `mapstructure:"max_comparisons"`
	SectorScale    float64 `mapstructure:"sector_scale"`
}

// EnsembleConfig configures the prediction model ensemble.
type EnsembleConfig struct {
	Models            []string `mapstructure:"models"`
	CalibrateSeverity bool     `mapstructure:"calibrate_severity"`
	EVTCategories     []string `mapstructure:"evt_categories"`
	EVTMinSamples     int      `mapstructure:"evt_min_samples"`
	EVTLevel          float64  `mapstructure:"evt_level"`
}

// ImmunityConfig configures the market-immunity adjuster.
type ImmunityConfig struct {
	Coefficient           float64 `mapstructure:"coefficient"`
	DeriveFromComparisons bool    `mapstructure:"derive_from_comparisons"`
	DeriveMinSimilarity   float64 `mapstructure:"derive_min_similarity"`
	HistoryWindow         string  `mapstructure:"history_window"`
}

// ForecastConfig configures the time-decay forecaster.
type ForecastConfig struct {
	Epsilon        float64            `mapstructure:"epsilon"`
	MaxHorizonDays int                `mapstructure:"max_horizon_days"`
	DecayRates     map[string]float64 `mapstructure:"decay_rates"`
}

// ConsensusConfig configures the multi-role consensus layer.
type ConsensusConfig struct {
	Enabled           bool     `mapstructure:"enabled"`
	Roles             []string `mapstructure:"roles"`
	RoleTimeout       string   `mapstructure:"role_timeout"`
	RefineRate        float64  `mapstructure:"refine_rate"`
	AbstentionPenalty float64  `mapstructure:"abstention_penalty"`
}

// ScenariosConfig configures scenario comparison.
type ScenariosConfig struct {
	MaxParallel int `mapstructure:"max_parallel"`
}

// ReferenceConfig configures the historical comparables dataset.
type ReferenceConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

// HistoryConfig configures the analysis history store.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ReportConfig configures report export defaults.
type ReportConfig struct {
	Format      string `mapstructure:"format"`
	Destination string `mapstructure:"destination"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	RateLimit      float64  `mapstructure:"rate_limit"`
	RateBurst      int      `mapstructure:"rate_burst"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	RequestTimeout string   `mapstructure:"request_timeout"`
}

// DurationOr parses s as a duration, returning fallback when it is empty or invalid.
// The validator reports invalid values; callers use this after validation.
func DurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
