package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/ShayCichocki/foreman/internal/exec"
	"github.com/ShayCichocki/foreman/pkg/models"
)

// Output markers a worker command can emit, one per line.
// "BLOCKED <scope>: <requirement>" signals a cross-scope requirement
// and turns into a handoff; CREATED/MODIFIED/DELETED lines feed the
// artifact inventory of the completion report.
const (
	markerBlocked  = "BLOCKED "
	markerCreated  = "CREATED "
	markerModified = "MODIFIED "
	markerDeleted  = "DELETED "
)

// ShellWork adapts a shell command into a WorkFunc. The task's identity
// and any escalation guidance are exported to the command's
// environment.
func ShellWork(runner exec.CommandRunner, workDir, command string) WorkFunc {
	return func(ctx context.Context, ec models.ExecutionContext, guidance string) (WorkResult, error) {
		wrapped := fmt.Sprintf(
			"FOREMAN_TASK_ID=%s FOREMAN_PROJECT_ID=%s FOREMAN_SCOPE=%s FOREMAN_GUIDANCE=%s %s",
			shellQuote(ec.TaskID), shellQuote(ec.ProjectID), shellQuote(ec.ScopeTag),
			shellQuote(guidance), command,
		)

		output, err := runner.RunShell(ctx, workDir, wrapped)
		result, blocked := parseWorkOutput(string(output))
		if blocked != nil {
			return WorkResult{}, blocked
		}
		if err != nil {
			return WorkResult{}, fmt.Errorf("run worker command: %w", err)
		}
		return result, nil
	}
}

// parseWorkOutput scans command output for marker lines. The last
// unmarked non-empty line becomes the summary.
func parseWorkOutput(output string) (WorkResult, *BlockedError) {
	var result WorkResult

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasPrefix(line, markerBlocked):
			return WorkResult{}, parseBlockedLine(strings.TrimPrefix(line, markerBlocked))
		case strings.HasPrefix(line, markerCreated):
			result.ArtifactsCreated = append(result.ArtifactsCreated, strings.TrimPrefix(line, markerCreated))
		case strings.HasPrefix(line, markerModified):
			result.ArtifactsModified = append(result.ArtifactsModified, strings.TrimPrefix(line, markerModified))
		case strings.HasPrefix(line, markerDeleted):
			result.ArtifactsDeleted = append(result.ArtifactsDeleted, strings.TrimPrefix(line, markerDeleted))
		default:
			result.Summary = line
		}
	}

	return result, nil
}

// parseBlockedLine splits "scope: requirement". A missing scope leaves
// the handoff unrouted; the supervisor decides where it goes.
func parseBlockedLine(rest string) *BlockedError {
	scope, requirement, found := strings.Cut(rest, ":")
	if !found {
		return &BlockedError{Requirement: strings.TrimSpace(rest)}
	}
	return &BlockedError{
		ScopeTag:    strings.TrimSpace(scope),
		Requirement: strings.TrimSpace(requirement),
	}
}

// shellQuote single-quotes a value for sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
