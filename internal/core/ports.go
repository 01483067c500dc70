package core

import (
	"context"
	"time"
)

// =============================================================================
// Reference Port
// =============================================================================

// ReferenceEvent is a past event in the read-only comparables dataset.
type ReferenceEvent struct {
	Name            string   `json:"name" yaml:"name"`
	Year            int      `json:"year" yaml:"year"`
	Category        Category `json:"category" yaml:"category"`
	Severity        int      `json:"severity" yaml:"severity"`
	Scope           Scope    `json:"scope" yaml:"scope"`
	MarketImpactPct float64  `json:"market_impact_pct" yaml:"market_impact_pct"`
	RecoveryDays    int      `json:"recovery_days" yaml:"recovery_days"`
}

// ReferenceSource supplies the historical comparables dataset.
type ReferenceSource interface {
	// Events returns the current dataset. Callers must not modify it.
	Events() []ReferenceEvent
}

// =============================================================================
// History Port
// =============================================================================

// AnalysisRecord is the persisted summary of a completed analysis.
type AnalysisRecord struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	Category  Category  `json:"category"`
	Scope     Scope     `json:"scope"`
	Severity  int       `json:"severity"`
	ImpactPct float64   `json:"impact_pct"`
	RiskLevel RiskLevel `json:"risk_level"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryStore persists analyses so later runs can count prior similar events.
// Persistence lives outside the analysis core; the analyzer treats every
// failure from this port as "no history".
type HistoryStore interface {
	// Record stores a completed analysis.
	Record(ctx context.Context, rec AnalysisRecord) error

	// CountSimilar returns how many analyses of the category were recorded since the given time.
	CountSimilar(ctx context.Context, category Category, since time.Time) (int, error)

	// Recent returns the most recent records, newest first.
	Recent(ctx context.Context, limit int) ([]AnalysisRecord, error)

	// Close releases resources.
	Close() error
}
