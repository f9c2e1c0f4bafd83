// Package assess computes bounded complexity scores from task metadata.
// Assessment is deterministic and side-effect free; the score is derived
// per task and never persisted.
package assess

import (
	"strings"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// TaskContext bundles the metadata the assessor reads. It is built from
// the task record and carries no references back into the store.
type TaskContext struct {
	// Description is the task's free-text description.
	Description string
	// Dependencies lists cross-component dependencies the task touches.
	Dependencies []string
	// AmbiguityFlags lists unresolved questions attached to the task.
	AmbiguityFlags []string
	// Urgency is the declared urgency: "", "soon", or "urgent".
	Urgency string
}

// depthKeywords signal algorithmic or systems difficulty. Two or more
// distinct hits max out the factor.
var depthKeywords = []string{
	"concurrency",
	"race",
	"deadlock",
	"distributed",
	"migration",
	"protocol",
	"crypto",
	"scheduler",
	"performance",
}

// impactKeywords signal a wide blast radius on failure.
var impactKeywords = []string{
	"auth",
	"security",
	"payment",
	"billing",
	"data loss",
	"production",
	"customer",
	"compliance",
}

// Assess derives the five complexity sub-factors from task metadata.
// Each factor is independently clamped to [0, models.FactorMax]; callers
// get the total via ComplexityFactors.Score.
func Assess(tc TaskContext) models.ComplexityFactors {
	return models.ComplexityFactors{
		TechnicalDepth:   countHits(tc.Description, depthKeywords),
		IntegrationScope: scaleCount(len(tc.Dependencies)),
		Uncertainty:      scaleCount(len(tc.AmbiguityFlags)),
		TimeCriticality:  urgencyFactor(tc.Urgency),
		FailureImpact:    countHits(tc.Description, impactKeywords),
	}.Clamped()
}

// countHits counts distinct keyword hits in the description, capped at
// the factor maximum.
func countHits(description string, keywords []string) int {
	lower := strings.ToLower(description)
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			hits++
			if hits == models.FactorMax {
				break
			}
		}
	}
	return hits
}

// scaleCount maps a raw count onto a factor: 0 -> 0, 1-2 -> 1, 3+ -> 2.
func scaleCount(n int) int {
	switch {
	case n <= 0:
		return 0
	case n <= 2:
		return 1
	default:
		return models.FactorMax
	}
}

// urgencyFactor maps a declared urgency onto a factor.
func urgencyFactor(urgency string) int {
	switch strings.ToLower(urgency) {
	case "urgent":
		return models.FactorMax
	case "soon":
		return 1
	default:
		return 0
	}
}
