package models

// ReportStatus is the terminal outcome recorded in a completion report.
// It mirrors the task's terminal status, plus "refused" for work turned
// away by the boundary validator before any side effect.
type ReportStatus string

const (
	// ReportCompleted indicates the task finished successfully.
	ReportCompleted ReportStatus = "completed"
	// ReportBlocked indicates the executor handed off an out-of-scope
	// requirement and terminated.
	ReportBlocked ReportStatus = "blocked"
	// ReportFailed indicates the task failed terminally.
	ReportFailed ReportStatus = "failed"
	// ReportRefused indicates the boundary validator rejected the work
	// before any side effect occurred.
	ReportRefused ReportStatus = "refused"
)

// Valid returns true if the status is a known value.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportCompleted, ReportBlocked, ReportFailed, ReportRefused:
		return true
	default:
		return false
	}
}

// CompletionReport is the structured record an executor emits exactly once
// at termination. It is immutable after creation and always carries Status
// and Summary, even on failure paths, so the supervisor can route from the
// report alone.
type CompletionReport struct {
	// TaskID is the task this report describes.
	TaskID string `json:"task_id"`
	// Status is the terminal outcome.
	Status ReportStatus `json:"status"`
	// ArtifactsCreated lists artifacts the executor created.
	ArtifactsCreated []string `json:"artifacts_created,omitempty"`
	// ArtifactsModified lists artifacts the executor modified.
	ArtifactsModified []string `json:"artifacts_modified,omitempty"`
	// ArtifactsDeleted lists artifacts the executor deleted.
	ArtifactsDeleted []string `json:"artifacts_deleted,omitempty"`
	// ComplexityScore is the assessed score, if assessment ran.
	ComplexityScore int `json:"complexity_score"`
	// CapabilitiesUsed names the consultation capabilities invoked.
	CapabilitiesUsed []string `json:"capabilities_used,omitempty"`
	// Summary is a human-readable account of the outcome. Never empty.
	Summary string `json:"summary"`
}
