package config

import (
	"errors"
	"strings"
	"testing"
)

// validConfig returns a valid configuration for testing.
func validConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
		Normalize: NormalizeConfig{
			GenericPenalty:   0.25,
			FuzzyMinCoverage: 0.6,
		},
		Agents: AgentsConfig{
			MinSimilarity:  0.4,
			MaxComparisons: 8,
			SectorScale:    1,
		},
		Ensemble: EnsembleConfig{
			Models:            []string{"rule", "historical", "evt", "regression"},
			CalibrateSeverity: true,
			EVTCategories:     []string{"pandemic", "generic"},
			EVTMinSamples:     5,
			EVTLevel:          0.95,
		},
		Immunity: ImmunityConfig{
			Coefficient:         0.3,
			DeriveMinSimilarity: 0.8,
			HistoryWindow:       "8760h",
		},
		Forecast: ForecastConfig{
			Epsilon:        0.05,
			MaxHorizonDays: 1095,
		},
		Consensus: ConsensusConfig{
			Roles:             []string{"data_analysis", "forecasting", "behavioral", "economic", "strategy"},
			RoleTimeout:       "2s",
			RefineRate:        0.5,
			AbstentionPenalty: 0.2,
		},
		Scenarios: ScenariosConfig{MaxParallel: 4},
		History:   HistoryConfig{Path: ".shockcast/history.db"},
		Report:    ReportConfig{Format: "text", Destination: "-"},
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			RateLimit:      5,
			RateBurst:      10,
			RequestTimeout: "30s",
		},
	}
}

func TestValidator_ValidConfig(t *testing.T) {
	if err := ValidateConfig(validConfig()); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidator_InvalidFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"generic penalty", func(c *Config) { c.Normalize.GenericPenalty = 1.5 }, "normalize.generic_penalty"},
		{"fuzzy coverage", func(c *Config) { c.Normalize.FuzzyMinCoverage = 0 }, "normalize.fuzzy_min_coverage"},
		{"min similarity", func(c *Config) { c.Agents.MinSimilarity = -0.1 }, "agents.min_similarity"},
		{"max comparisons", func(c *Config) { c.Agents.MaxComparisons = 0 }, "agents.max_comparisons"},
		{"sector scale", func(c *Config) { c.Agents.SectorScale = 0 }, "agents.sector_scale"},
		{"no models", func(c *Config) { c.Ensemble.Models = nil }, "ensemble.models"},
		{"unknown model", func(c *Config) { c.Ensemble.Models = []string{"rule", "neural"} }, "ensemble.models"},
		{"evt category", func(c *Config) { c.Ensemble.EVTCategories = []string{"meteor"} }, "ensemble.evt_categories"},
		{"evt samples", func(c *Config) { c.Ensemble.EVTMinSamples = 2 }, "ensemble.evt_min_samples"},
		{"evt level", func(c *Config) { c.Ensemble.EVTLevel = 1 }, "ensemble.evt_level"},
		{"immunity coefficient", func(c *Config) { c.Immunity.Coefficient = 0 }, "immunity.coefficient"},
		{"history window", func(c *Config) { c.Immunity.HistoryWindow = "a year" }, "immunity.history_window"},
		{"epsilon", func(c *Config) { c.Forecast.Epsilon = 0 }, "forecast.epsilon"},
		{"horizon", func(c *Config) { c.Forecast.MaxHorizonDays = 10 }, "forecast.max_horizon_days"},
		{"decay category", func(c *Config) { c.Forecast.DecayRates = map[string]float64{"meteor": 0.1} }, "forecast.decay_rates"},
		{"decay rate", func(c *Config) { c.Forecast.DecayRates = map[string]float64{"cyber": 0} }, "forecast.decay_rates.cyber"},
		{"unknown role", func(c *Config) { c.Consensus.Roles = []string{"oracle"} }, "consensus.roles"},
		{"enabled without roles", func(c *Config) { c.Consensus.Enabled = true; c.Consensus.Roles = nil }, "consensus.roles"},
		{"role timeout", func(c *Config) { c.Consensus.RoleTimeout = "fast" }, "consensus.role_timeout"},
		{"refine rate", func(c *Config) { c.Consensus.RefineRate = 2 }, "consensus.refine_rate"},
		{"max parallel", func(c *Config) { c.Scenarios.MaxParallel = 0 }, "scenarios.max_parallel"},
		{"history path", func(c *Config) { c.History.Enabled = true; c.History.Path = "" }, "history.path"},
		{"report format", func(c *Config) { c.Report.Format = "pdf" }, "report.format"},
		{"report destination", func(c *Config) { c.Report.Destination = "" }, "report.destination"},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"rate burst", func(c *Config) { c.Server.RateBurst = 0 }, "server.rate_burst"},
		{"request timeout", func(c *Config) { c.Server.RequestTimeout = "" }, "server.request_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateConfig(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %T", err)
			}
			found := false
			for _, e := range verrs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected an error on %s, got %v", tt.field, verrs)
			}
		})
	}
}

func TestValidator_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Log.Level = "loud"
	cfg.Forecast.Epsilon = 2
	cfg.Server.Port = -1

	v := NewValidator()
	err := v.Validate(cfg)
	if err == nil {
		t.Fatal("expected errors")
	}
	if got := len(v.Errors()); got != 3 {
		t.Errorf("expected 3 errors, got %d: %v", got, v.Errors())
	}
	if !v.Errors().HasErrors() {
		t.Error("HasErrors() = false")
	}
	if !strings.Contains(err.Error(), "log.level") || !strings.Contains(err.Error(), "; ") {
		t.Errorf("unexpected joined message: %s", err.Error())
	}
}

func TestValidator_RateLimitDisabled(t *testing.T) {
	cfg := validConfig()
	cfg.Server.RateLimit = 0
	cfg.Server.RateBurst = 0
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("burst is irrelevant when rate limiting is off: %v", err)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := ValidationError{Field: "server.port", Value: -1, Message: "must be between 0 and 65535"}
	want := "config validation: server.port: must be between 0 and 65535 (got: -1)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
