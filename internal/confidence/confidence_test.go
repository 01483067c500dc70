package confidence

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hugo-lorenzo-mato/shockcast/internal/core"
)

func TestAssess(t *testing.T) {
	f := core.AgentFinding{
		DataQuality:           core.DataQualityHigh,
		HistoricalComparisons: []core.HistoricalComparison{{Similarity: 0.9}, {Similarity: 0.7}},
	}

	got := Assess(f, 0.8)
	assert.Equal(t, 0.9, got.DataQuality)
	assert.Equal(t, 0.9, got.HistoricalSimilarity)
	assert.Equal(t, 0.8, got.ModelAgreement)
	assert.Zero(t, got.Penalty)
	assert.InDelta(t, 0.4*0.9+0.3*0.9+0.3*0.8, got.Score, 1e-4)
}

func TestAssess_DegradationsAndFloor(t *testing.T) {
	f := core.AgentFinding{
		DataQuality:  core.DataQualityLow,
		Degradations: []string{"a", "b", "c"},
	}

	got := Assess(f, 1)
	assert.InDelta(t, 0.35, got.DataQuality, 1e-9)
	assert.Equal(t, SimilarityFloor, got.HistoricalSimilarity)
	assert.InDelta(t, 0.4*0.35+0.3*0.2+0.3, got.Score, 1e-4)

	many := make([]string, 40)
	f.Degradations = many
	assert.Zero(t, Assess(f, 1).DataQuality)
}

func TestAssess_Penalties(t *testing.T) {
	f := core.AgentFinding{DataQuality: core.DataQualityHigh}
	base := Assess(f, 1).Score

	got := Assess(f, 1, 0.25)
	assert.InDelta(t, base*0.75, got.Score, 1e-4)
	assert.Equal(t, 0.25, got.Penalty)

	both := Assess(f, 1, 0.25, 0.2)
	assert.InDelta(t, 0.4, both.Penalty, 1e-9)
	assert.Less(t, both.Score, got.Score)
}

func TestAssess_AlwaysInUnitInterval(t *testing.T) {
	qualities := []core.DataQuality{core.DataQualityLow, core.DataQualityMedium, core.DataQualityHigh, ""}
	agreements := []float64{-1, 0, 0.5, 1, 3, math.NaN()}
	sims := []float64{0, 0.4, 1, 1.5}
	penalties := []float64{-0.5, 0, 0.3, 1, 2}

	for _, q := range qualities {
		for _, a := range agreements {
			for _, s := range sims {
				for _, p := range penalties {
					f := core.AgentFinding{
						DataQuality:           q,
						HistoricalComparisons: []core.HistoricalComparison{{Similarity: s}},
					}
					got := Assess(f, a, p)
					assert.GreaterOrEqual(t, got.Score, 0.0)
					assert.LessOrEqual(t, got.Score, 1.0)
					assert.GreaterOrEqual(t, got.ModelAgreement, 0.0)
					assert.LessOrEqual(t, got.ModelAgreement, 1.0)
				}
			}
		}
	}
}

func TestCombinePenalties(t *testing.T) {
	assert.Zero(t, CombinePenalties())
	assert.InDelta(t, 0.25, CombinePenalties(0.25), 1e-9)
	assert.InDelta(t, 0.4, CombinePenalties(0.25, 0.2), 1e-9)
	assert.Equal(t, 1.0, CombinePenalties(0.1, 1))
	assert.Zero(t, CombinePenalties(-3))
}
