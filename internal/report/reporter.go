// Package report formats executor outcomes into completion reports and
// archives them for audit.
package report

import (
	"encoding/json"
	"fmt"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// Outcome is the raw terminal result an executor hands to the reporter.
type Outcome struct {
	// Status is the terminal outcome.
	Status models.ReportStatus
	// Summary describes the outcome in prose. May be empty; the
	// reporter substitutes a status-derived summary.
	Summary string
	// ArtifactsCreated, ArtifactsModified, ArtifactsDeleted list the
	// artifacts the work touched.
	ArtifactsCreated  []string
	ArtifactsModified []string
	ArtifactsDeleted  []string
	// ComplexityScore is the assessed score, if assessment ran.
	ComplexityScore int
	// CapabilitiesUsed names the consultation capabilities invoked.
	CapabilitiesUsed []string
	// Err is the terminal error, if any.
	Err error
}

// Format builds an immutable completion report from an outcome.
//
// The report always carries Status and Summary, even on failure paths, so
// the supervisor can make a routing decision from the returned value
// alone. Format never returns nil and never returns a partial report.
func Format(taskID string, o Outcome) *models.CompletionReport {
	status := o.Status
	if !status.Valid() {
		status = models.ReportFailed
	}

	summary := o.Summary
	if summary == "" {
		summary = defaultSummary(status, o.Err)
	}
	if o.Err != nil && o.Summary != "" {
		summary = fmt.Sprintf("%s (%v)", summary, o.Err)
	}

	return &models.CompletionReport{
		TaskID:            taskID,
		Status:            status,
		ArtifactsCreated:  o.ArtifactsCreated,
		ArtifactsModified: o.ArtifactsModified,
		ArtifactsDeleted:  o.ArtifactsDeleted,
		ComplexityScore:   o.ComplexityScore,
		CapabilitiesUsed:  o.CapabilitiesUsed,
		Summary:           summary,
	}
}

// defaultSummary derives a summary when the outcome carried none.
func defaultSummary(status models.ReportStatus, err error) string {
	switch status {
	case models.ReportCompleted:
		return "task completed"
	case models.ReportBlocked:
		return "task blocked on an out-of-scope requirement; handoff created"
	case models.ReportRefused:
		return "work refused by boundary validation before any side effect"
	default:
		if err != nil {
			return fmt.Sprintf("task failed: %v", err)
		}
		return "task failed"
	}
}

// Encode serializes a report as indented JSON for logging or display.
func Encode(r *models.CompletionReport) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return data, nil
}
