package service

import (
	"sort"
	"strings"
	"unicode"
)

// ConsensusChecker measures how far the consensus roles' qualitative views
// overlap, using pairwise Jaccard similarity per category.
type ConsensusChecker struct {
	Weights             CategoryWeights
	DivergenceThreshold float64
}

// CategoryWeights defines the importance of each category.
type CategoryWeights struct {
	Outlook float64 // Severity and risk-level labels
	Risks   float64 // Key risks named by the role
}

// DefaultWeights returns the default category weights.
func DefaultWeights() CategoryWeights {
	return CategoryWeights{
		Outlook: 0.5,
		Risks:   0.5,
	}
}

// NewConsensusChecker creates a new consensus checker.
func NewConsensusChecker(weights CategoryWeights) *ConsensusChecker {
	return &ConsensusChecker{
		Weights:             weights,
		DivergenceThreshold: 0.5,
	}
}

// RoleOutput is the qualitative part of a role opinion.
type RoleOutput struct {
	Role    string
	Outlook []string
	Risks   []string
}

// ConsensusResult contains the consensus evaluation results.
type ConsensusResult struct {
	Score          float64
	CategoryScores map[string]float64
	Divergences    []Divergence
	Agreement      map[string][]string // Items every role named, per category
}

// Divergence represents a disagreement between two roles.
type Divergence struct {
	Category     string
	Role1        string
	Role1Items   []string
	Role2        string
	Role2Items   []string
	JaccardScore float64
}

// Evaluate calculates consensus between the outputs.
func (c *ConsensusChecker) Evaluate(outputs []RoleOutput) ConsensusResult {
	if len(outputs) < 2 {
		agreement := make(map[string][]string)
		if len(outputs) == 1 {
			agreement = c.findAgreement(outputs)
		}
		return ConsensusResult{
			Score:          1.0,
			CategoryScores: make(map[string]float64),
			Agreement:      agreement,
		}
	}

	outlookScores := pairwiseJaccard(outputs, func(o RoleOutput) []string { return o.Outlook })
	riskScores := pairwiseJaccard(outputs, func(o RoleOutput) []string { return o.Risks })

	outlookAvg := average(outlookScores)
	risksAvg := average(riskScores)

	total := c.Weights.Outlook + c.Weights.Risks
	score := 1.0
	if total > 0 {
		score = (outlookAvg*c.Weights.Outlook + risksAvg*c.Weights.Risks) / total
	}

	return ConsensusResult{
		Score: score,
		CategoryScores: map[string]float64{
			"outlook": outlookAvg,
			"risks":   risksAvg,
		},
		Divergences: c.findDivergences(outputs, outlookScores, riskScores),
		Agreement:   c.findAgreement(outputs),
	}
}

// pairwiseJaccard calculates Jaccard similarity for all pairs, in (i, j>i) order.
func pairwiseJaccard(outputs []RoleOutput, extract func(RoleOutput) []string) []float64 {
	scores := make([]float64, 0, len(outputs)*(len(outputs)-1)/2)
	for i := 0; i < len(outputs); i++ {
		for j := i + 1; j < len(outputs); j++ {
			set1 := normalizeSet(extract(outputs[i]))
			set2 := normalizeSet(extract(outputs[j]))
			scores = append(scores, JaccardSimilarity(set1, set2))
		}
	}
	return scores
}

// JaccardSimilarity calculates Jaccard index: |A ∩ B| / |A ∪ B|
func JaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0 // Both empty = perfect agreement
	}

	setA := toSet(a)
	setB := toSet(b)

	intersection := 0
	for item := range setA {
		if setB[item] {
			intersection++
		}
	}

	union := len(setA)
	for item := range setB {
		if !setA[item] {
			union++
		}
	}

	if union == 0 {
		return 1.0
	}
	return float64(intersection) / float64(union)
}

func normalizeSet(items []string) []string {
	result := make([]string, 0, len(items))
	for _, item := range items {
		if normalized := NormalizeText(item); normalized != "" {
			result = append(result, normalized)
		}
	}
	return result
}

// NormalizeText lowercases text and collapses punctuation and whitespace to
// single spaces.
func NormalizeText(text string) string {
	text = strings.ToLower(text)

	var builder strings.Builder
	prevSpace := true
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			builder.WriteRune(r)
			prevSpace = false
		} else if !prevSpace {
			builder.WriteRune(' ')
			prevSpace = true
		}
	}

	return strings.TrimSpace(builder.String())
}

func toSet(items []string) map[string]bool {
	result := make(map[string]bool, len(items))
	for _, item := range items {
		result[item] = true
	}
	return result
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// findDivergences lists the role pairs whose overlap falls below the threshold.
func (c *ConsensusChecker) findDivergences(outputs []RoleOutput, outlook, risks []float64) []Divergence {
	divergences := make([]Divergence, 0)

	idx := 0
	for i := 0; i < len(outputs); i++ {
		for j := i + 1; j < len(outputs); j++ {
			if outlook[idx] < c.DivergenceThreshold {
				divergences = append(divergences, Divergence{
					Category:     "outlook",
					Role1:        outputs[i].Role,
					Role1Items:   outputs[i].Outlook,
					Role2:        outputs[j].Role,
					Role2Items:   outputs[j].Outlook,
					JaccardScore: outlook[idx],
				})
			}
			if risks[idx] < c.DivergenceThreshold {
				divergences = append(divergences, Divergence{
					Category:     "risks",
					Role1:        outputs[i].Role,
					Role1Items:   outputs[i].Risks,
					Role2:        outputs[j].Role,
					Role2Items:   outputs[j].Risks,
					JaccardScore: risks[idx],
				})
			}
			idx++
		}
	}

	return divergences
}

// findAgreement finds items that every role named.
func (c *ConsensusChecker) findAgreement(outputs []RoleOutput) map[string][]string {
	agreement := make(map[string][]string)
	if len(outputs) == 0 {
		return agreement
	}
	agreement["outlook"] = intersectAll(extractAll(outputs, func(o RoleOutput) []string { return o.Outlook }))
	agreement["risks"] = intersectAll(extractAll(outputs, func(o RoleOutput) []string { return o.Risks }))
	return agreement
}

func extractAll(outputs []RoleOutput, extract func(RoleOutput) []string) [][]string {
	result := make([][]string, len(outputs))
	for i, o := range outputs {
		result[i] = normalizeSet(extract(o))
	}
	return result
}

func intersectAll(sets [][]string) []string {
	if len(sets) == 0 {
		return nil
	}

	result := toSet(sets[0])
	for i := 1; i < len(sets); i++ {
		nextSet := toSet(sets[i])
		for item := range result {
			if !nextSet[item] {
				delete(result, item)
			}
		}
	}

	items := make([]string, 0, len(result))
	for item := range result {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}
