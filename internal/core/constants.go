// Package core provides the domain types, ports, errors and centralized
// constants shared by every stage of the analysis pipeline.
package core

// Pipeline stage identifiers, used in logs, events and metrics labels.
const (
	StageNormalize  = "normalize"
	StageAgent      = "agent"
	StageEnsemble   = "ensemble"
	StageConsensus  = "consensus"
	StageImmunity   = "immunity"
	StageForecast   = "forecast"
	StageConfidence = "confidence"
	StageRisk       = "risk"
)

// Stages is the ordered list of pipeline stages.
var Stages = []string{
	StageNormalize,
	StageAgent,
	StageEnsemble,
	StageConsensus,
	StageImmunity,
	StageForecast,
	StageConfidence,
	StageRisk,
}

// Ensemble model identifiers
const (
	ModelRule       = "rule"
	ModelHistorical = "historical"
	ModelEVT        = "evt"
	ModelRegression = "regression"
)

// Models is the ordered list of ensemble models.
var Models = []string{
	ModelRule,
	ModelHistorical,
	ModelEVT,
	ModelRegression,
}

// ValidModels is a map for O(1) model validation.
var ValidModels = map[string]bool{
	ModelRule:       true,
	ModelHistorical: true,
	ModelEVT:        true,
	ModelRegression: true,
}

// Consensus role identifiers. RoleSynthesis always runs last and is not configurable.
const (
	RoleDataAnalysis = "data_analysis"
	RoleForecasting  = "forecasting"
	RoleBehavioral   = "behavioral"
	RoleEconomic     = "economic"
	RoleStrategy     = "strategy"
	RoleSynthesis    = "synthesis"
)

// Roles is the ordered list of configurable consensus roles.
var Roles = []string{
	RoleDataAnalysis,
	RoleForecasting,
	RoleBehavioral,
	RoleEconomic,
	RoleStrategy,
}

// ValidRoles is a map for O(1) role validation.
var ValidRoles = map[string]bool{
	RoleDataAnalysis: true,
	RoleForecasting:  true,
	RoleBehavioral:   true,
	RoleEconomic:     true,
	RoleStrategy:     true,
}

// IsValidModel checks if the given ensemble model name is valid.
func IsValidModel(name string) bool {
	return ValidModels[name]
}

// IsValidRole checks if the given consensus role name is valid.
func IsValidRole(name string) bool {
	return ValidRoles[name]
}

// Report formats and special destinations
const (
	FormatJSON = "json"
	FormatText = "text"

	DestinationStdout    = "-"
	DestinationClipboard = "clipboard"
)
