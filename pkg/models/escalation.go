package models

// EscalationTier represents the consultation band derived from a
// complexity score.
type EscalationTier string

const (
	// TierNone means the executor proceeds without consultation.
	TierNone EscalationTier = "none"
	// TierSingle selects exactly one consultation capability.
	TierSingle EscalationTier = "single"
	// TierChained selects an ordered pair of capabilities, the second
	// consuming the first's output as additional context.
	TierChained EscalationTier = "chained"
	// TierConsensus fans out to several capabilities and reduces their
	// outputs into one recommendation.
	TierConsensus EscalationTier = "consensus"
)

// Valid returns true if the tier is a known value.
func (t EscalationTier) Valid() bool {
	switch t {
	case TierNone, TierSingle, TierChained, TierConsensus:
		return true
	default:
		return false
	}
}

// TierForScore maps a complexity score to its escalation tier.
// Scores 0-3 need no escalation, 4-6 a single capability, 7-8 a chained
// pair, 9-10 multi-expert consensus.
func TierForScore(score int) EscalationTier {
	switch {
	case score <= 3:
		return TierNone
	case score <= 6:
		return TierSingle
	case score <= 8:
		return TierChained
	default:
		return TierConsensus
	}
}

// EscalationDecision is the router's pure output: a tier and the named
// capabilities to consult, in order. Never persisted.
type EscalationDecision struct {
	// Tier is the selected escalation band.
	Tier EscalationTier `json:"tier"`
	// Capabilities lists the consultation capabilities to invoke, in
	// order. Empty for TierNone.
	Capabilities []string `json:"capabilities,omitempty"`
}

// None returns true if the decision selects no consultation.
func (d EscalationDecision) None() bool {
	return d.Tier == TierNone || len(d.Capabilities) == 0
}
