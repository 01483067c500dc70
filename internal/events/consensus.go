package events

// Event type constants for consensus events.
const (
	TypeConsensusState       = "consensus_state"
	TypeRoleOpinion          = "role_opinion"
	TypeConsensusSynthesized = "consensus_synthesized"
)

// ConsensusStateEvent is emitted on every state machine transition.
type ConsensusStateEvent struct {
	BaseEvent
	From  string   `json:"from,omitempty"`
	To    string   `json:"to"`
	Roles []string `json:"roles,omitempty"`
}

// NewConsensusStateEvent creates a new consensus state event.
func NewConsensusStateEvent(analysisID, from, to string, roles []string) ConsensusStateEvent {
	return ConsensusStateEvent{
		BaseEvent: NewBaseEvent(TypeConsensusState, analysisID),
		From:      from,
		To:        to,
		Roles:     roles,
	}
}

// RoleOpinionEvent reports one role's contribution, or its abstention.
type RoleOpinionEvent struct {
	BaseEvent
	Role      string  `json:"role"`
	ImpactPct float64 `json:"impact_pct"`
	Severity  float64 `json:"severity"`
	Abstained bool    `json:"abstained"`
	Revised   bool    `json:"revised"`
	Reason    string  `json:"reason,omitempty"`
}

// NewRoleOpinionEvent creates a new role opinion event.
func NewRoleOpinionEvent(analysisID, role string, impactPct, severity float64, abstained, revised bool, reason string) RoleOpinionEvent {
	return RoleOpinionEvent{
		BaseEvent: NewBaseEvent(TypeRoleOpinion, analysisID),
		Role:      role,
		ImpactPct: impactPct,
		Severity:  severity,
		Abstained: abstained,
		Revised:   revised,
		Reason:    reason,
	}
}

// DivergenceDetail describes two roles whose key risks barely overlap.
type DivergenceDetail struct {
	Role1        string   `json:"role1"`
	Role1Items   []string `json:"role1_items"`
	Role2        string   `json:"role2"`
	Role2Items   []string `json:"role2_items"`
	JaccardScore float64  `json:"jaccard_score"`
}

// ConsensusSynthesizedEvent is emitted once the synthesis role finishes.
// This is a PRIORITY event.
type ConsensusSynthesizedEvent struct {
	BaseEvent
	AgreementScore float64            `json:"agreement_score"`
	Penalty        float64            `json:"penalty"`
	Abstained      []string           `json:"abstained,omitempty"`
	Divergences    []DivergenceDetail `json:"divergences,omitempty"`
}

// NewConsensusSynthesizedEvent creates a new consensus synthesized event.
func NewConsensusSynthesizedEvent(analysisID string, agreement, penalty float64, abstained []string, divergences []DivergenceDetail) ConsensusSynthesizedEvent {
	return ConsensusSynthesizedEvent{
		BaseEvent:      NewBaseEvent(TypeConsensusSynthesized, analysisID),
		AgreementScore: agreement,
		Penalty:        penalty,
		Abstained:      abstained,
		Divergences:    divergences,
	}
}
