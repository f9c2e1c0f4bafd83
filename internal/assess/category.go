package assess

import "strings"

// Category classifies a task for escalation routing. Architecture-heavy
// work and ambiguous root-cause hunts route to different consultation
// capabilities.
type Category string

const (
	// CategoryArchitecture marks design-heavy or structural work.
	CategoryArchitecture Category = "architecture"
	// CategoryRootCause marks debugging work with an unclear cause.
	CategoryRootCause Category = "root-cause"
	// CategoryGeneral is everything else.
	CategoryGeneral Category = "general"
)

// architectureKeywords indicate design-heavy tasks.
var architectureKeywords = []string{
	"architecture",
	"redesign",
	"refactor",
	"schema",
	"migration",
	"interface",
	"boundary",
	"infra",
}

// rootCauseKeywords indicate ambiguous-cause debugging tasks.
var rootCauseKeywords = []string{
	"intermittent",
	"flaky",
	"root cause",
	"sometimes",
	"crash",
	"regression",
	"heisenbug",
	"cannot reproduce",
}

// Classify buckets a task description into a routing category.
// Architecture wins over root-cause when both match; structural advice
// subsumes the narrower diagnosis.
func Classify(description string) Category {
	lower := strings.ToLower(description)

	for _, kw := range architectureKeywords {
		if strings.Contains(lower, kw) {
			return CategoryArchitecture
		}
	}
	for _, kw := range rootCauseKeywords {
		if strings.Contains(lower, kw) {
			return CategoryRootCause
		}
	}
	return CategoryGeneral
}
