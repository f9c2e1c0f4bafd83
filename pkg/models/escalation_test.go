package models

import "testing"

func TestTierForScore(t *testing.T) {
	tests := []struct {
		score int
		want  EscalationTier
	}{
		{0, TierNone},
		{1, TierNone},
		{3, TierNone},
		{4, TierSingle},
		{5, TierSingle},
		{6, TierSingle},
		{7, TierChained},
		{8, TierChained},
		{9, TierConsensus},
		{10, TierConsensus},
	}
	for _, tt := range tests {
		if got := TierForScore(tt.score); got != tt.want {
			t.Errorf("TierForScore(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestEscalationDecisionNone(t *testing.T) {
	if !(EscalationDecision{Tier: TierNone}).None() {
		t.Error("TierNone decision should be None")
	}
	if !(EscalationDecision{Tier: TierSingle}).None() {
		t.Error("decision without capabilities should be None")
	}
	d := EscalationDecision{Tier: TierSingle, Capabilities: []string{"architecture-advisor"}}
	if d.None() {
		t.Error("populated decision should not be None")
	}
}

func TestEscalationTierValid(t *testing.T) {
	for _, tier := range []EscalationTier{TierNone, TierSingle, TierChained, TierConsensus} {
		if !tier.Valid() {
			t.Errorf("expected %q to be valid", tier)
		}
	}
	if EscalationTier("panel").Valid() {
		t.Error("unknown tier reported valid")
	}
}
