package models

// FactorMax is the upper clamp for each complexity sub-factor.
const FactorMax = 2

// ScoreMax is the upper cap for a total complexity score.
const ScoreMax = 10

// ComplexityFactors holds the five independent sub-factors that make up a
// complexity score. Each is clamped to [0, FactorMax] before summing.
type ComplexityFactors struct {
	// TechnicalDepth measures algorithmic or systems difficulty.
	TechnicalDepth int `json:"technical_depth"`
	// IntegrationScope measures how many components the task touches.
	IntegrationScope int `json:"integration_scope"`
	// Uncertainty measures unresolved ambiguity in the task definition.
	Uncertainty int `json:"uncertainty"`
	// TimeCriticality measures declared urgency.
	TimeCriticality int `json:"time_criticality"`
	// FailureImpact measures the blast radius of getting it wrong.
	FailureImpact int `json:"failure_impact"`
}

// clampFactor forces a sub-factor into [0, FactorMax].
func clampFactor(v int) int {
	if v < 0 {
		return 0
	}
	if v > FactorMax {
		return FactorMax
	}
	return v
}

// Clamped returns a copy with every sub-factor forced into [0, FactorMax].
func (f ComplexityFactors) Clamped() ComplexityFactors {
	return ComplexityFactors{
		TechnicalDepth:   clampFactor(f.TechnicalDepth),
		IntegrationScope: clampFactor(f.IntegrationScope),
		Uncertainty:      clampFactor(f.Uncertainty),
		TimeCriticality:  clampFactor(f.TimeCriticality),
		FailureImpact:    clampFactor(f.FailureImpact),
	}
}

// Score computes the total complexity score in [0, ScoreMax].
//
// Sub-factors are clamped, summed, and capped at ScoreMax. If any single
// sub-factor is already at its maximum the total is incremented by one
// (still capped): a single severe risk dimension should pull the task
// toward escalation without requiring uniformly high risk across all five.
func (f ComplexityFactors) Score() int {
	c := f.Clamped()
	total := c.TechnicalDepth + c.IntegrationScope + c.Uncertainty +
		c.TimeCriticality + c.FailureImpact

	if c.TechnicalDepth == FactorMax || c.IntegrationScope == FactorMax ||
		c.Uncertainty == FactorMax || c.TimeCriticality == FactorMax ||
		c.FailureImpact == FactorMax {
		total++
	}

	if total > ScoreMax {
		total = ScoreMax
	}
	return total
}
