package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateNormalize(&cfg.Normalize)
	v.validateAgents(&cfg.Agents)
	v.validateEnsemble(&cfg.Ensemble)
	v.validateImmunity(&cfg.Immunity)
	v.validateForecast(&cfg.Forecast)
	v.validateConsensus(&cfg.Consensus)
	v.validateScenarios(&cfg.Scenarios)
	v.validateHistory(&cfg.History)
	v.validateReport(&cfg.Report)
	v.validateServer(&cfg.Server)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) validateLog(cfg *LogConfig) {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"auto": true, "text": true, "json": true,
	}
	if !validFormats[cfg.Format] {
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json")
	}

	if cfg.File != "" && !isValidPath(cfg.File) {
		v.addError("log.file", cfg.File, "invalid file path")
	}
}

func (v *Validator) validateNormalize(cfg *NormalizeConfig) {
	v.unitInterval("normalize.generic_penalty", cfg.GenericPenalty)
	if cfg.FuzzyMinCoverage <= 0 || cfg.FuzzyMinCoverage > 1 {
		v.addError("normalize.fuzzy_min_coverage", cfg.FuzzyMinCoverage, "must be in (0, 1]")
	}
}

func (v *Validator) validateAgents(cfg *AgentsConfig) {
	v.unitInterval("agents.min_similarity", cfg.MinSimilarity)
	if cfg.MaxComparisons < 1 || cfg.MaxComparisons > 50 {
		v.addError("agents.max_comparisons", cfg.MaxComparisons, "must be between 1 and 50")
	}
	if cfg.SectorScale <= 0 || cfg.SectorScale > 5 {
		v.addError("agents.sector_scale", cfg.SectorScale, "must be in (0, 5]")
	}
}

func (v *Validator) validateEnsemble(cfg *EnsembleConfig) {
	if len(cfg.Models) == 0 {
		v.addError("ensemble.models", cfg.Models, "at least one model required")
	}
	for _, m := range cfg.Models {
		if !core.IsValidModel(m) {
			v.addError("ensemble.models", m, "unknown model")
		}
	}

	for _, c := range cfg.EVTCategories {
		if !validCategory(c) {
			v.addError("ensemble.evt_categories", c, "unknown category")
		}
	}

	if cfg.EVTMinSamples < 3 {
		v.addError("ensemble.evt_min_samples", cfg.EVTMinSamples, "must be at least 3")
	}
	if cfg.EVTLevel <= 0.5 || cfg.EVTLevel >= 1 {
		v.addError("ensemble.evt_level", cfg.EVTLevel, "must be in (0.5, 1)")
	}
}

func (v *Validator) validateImmunity(cfg *ImmunityConfig) {
	if cfg.Coefficient <= 0 {
		v.addError("immunity.coefficient", cfg.Coefficient, "must be positive")
	}
	v.unitInterval("immunity.derive_min_similarity", cfg.DeriveMinSimilarity)
	if d, err := time.ParseDuration(cfg.HistoryWindow); err != nil {
		v.addError("immunity.history_window", cfg.HistoryWindow, "invalid duration format")
	} else if d <= 0 {
		v.addError("immunity.history_window", cfg.HistoryWindow, "must be positive")
	}
}

func (v *Validator) validateForecast(cfg *ForecastConfig) {
	if cfg.Epsilon <= 0 || cfg.Epsilon >= 1 {
		v.addError("forecast.epsilon", cfg.Epsilon, "must be in (0, 1)")
	}
	if cfg.MaxHorizonDays < 31 {
		v.addError("forecast.max_horizon_days", cfg.MaxHorizonDays, "must cover at least the acute phase (31 days)")
	}
	for c, rate := range cfg.DecayRates {
		if !validCategory(c) {
			v.addError("forecast.decay_rates", c, "unknown category")
			continue
		}
		if rate <= 0 {
			v.addError("forecast.decay_rates."+c, rate, "must be positive")
		}
	}
}

func (v *Validator) validateConsensus(cfg *ConsensusConfig) {
	for _, r := range cfg.Roles {
		if !core.IsValidRole(r) {
			v.addError("consensus.roles", r, "unknown role")
		}
	}
	if cfg.Enabled && len(cfg.Roles) == 0 {
		v.addError("consensus.roles", cfg.Roles, "at least one role required when enabled")
	}

	if d, err := time.ParseDuration(cfg.RoleTimeout); err != nil {
		v.addError("consensus.role_timeout", cfg.RoleTimeout, "invalid duration format")
	} else if d <= 0 {
		v.addError("consensus.role_timeout", cfg.RoleTimeout, "must be positive")
	}

	v.unitInterval("consensus.refine_rate", cfg.RefineRate)
	v.unitInterval("consensus.abstention_penalty", cfg.AbstentionPenalty)
}

func (v *Validator) validateScenarios(cfg *ScenariosConfig) {
	if cfg.MaxParallel < 1 || cfg.MaxParallel > 64 {
		v.addError("scenarios.max_parallel", cfg.MaxParallel, "must be between 1 and 64")
	}
}

func (v *Validator) validateHistory(cfg *HistoryConfig) {
	if !cfg.Enabled {
		return
	}
	if cfg.Path == "" {
		v.addError("history.path", cfg.Path, "path required when enabled")
	} else if !isValidPath(cfg.Path) {
		v.addError("history.path", cfg.Path, "invalid file path")
	}
}

func (v *Validator) validateReport(cfg *ReportConfig) {
	if cfg.Format != core.FormatText && cfg.Format != core.FormatJSON {
		v.addError("report.format", cfg.Format, "must be one of: text, json")
	}
	if cfg.Destination == "" {
		v.addError("report.destination", cfg.Destination, "destination required")
	}
}

func (v *Validator) validateServer(cfg *ServerConfig) {
	if cfg.Port < 0 || cfg.Port > 65535 {
		v.addError("server.port", cfg.Port, "must be between 0 and 65535")
	}
	if cfg.RateLimit < 0 {
		v.addError("server.rate_limit", cfg.RateLimit, "must be non-negative")
	}
	if cfg.RateLimit > 0 && cfg.RateBurst < 1 {
		v.addError("server.rate_burst", cfg.RateBurst, "must be at least 1 when rate limiting")
	}
	if _, err := time.ParseDuration(cfg.RequestTimeout); err != nil {
		v.addError("server.request_timeout", cfg.RequestTimeout, "invalid duration format")
	}
}

func (v *Validator) unitInterval(field string, value float64) {
	if value < 0 || value > 1 {
		v.addError(field, value, "must be between 0 and 1")
	}
}

func validCategory(name string) bool {
	c := core.Category(name)
	return c == core.CategoryGeneric || c.IsKnown()
}

func isValidPath(path string) bool {
	dir := filepath.Dir(path)
	_, err := os.Stat(dir)
	return err == nil || os.IsNotExist(err)
}

// ValidateConfig is a convenience function that creates a validator and validates config.
func ValidateConfig(cfg *Config) error {
	v := NewValidator()
	return v.Validate(cfg)
}
