package report

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// Archive persists completion reports in a standalone SQLite database so
// finished work stays auditable after the tasks themselves are archived.
// Rows are append-only; a task that terminates more than one executor
// (blocked, then reassigned and completed) keeps its full report history
// and reads resolve to the newest report.
type Archive struct {
	db *sql.DB
}

// ArchivedReport pairs a stored report with its archive metadata.
type ArchivedReport struct {
	Report     models.CompletionReport
	ProjectID  string
	ArchivedAt time.Time
}

// DefaultArchivePath returns the project-local archive database path.
func DefaultArchivePath(projectRoot string) string {
	return filepath.Join(projectRoot, ".foreman", "reports.db")
}

// OpenArchive opens (and initializes) a report archive at the given path.
func OpenArchive(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id TEXT NOT NULL,
			project_id TEXT NOT NULL,
			status TEXT NOT NULL,
			complexity_score INTEGER NOT NULL DEFAULT 0,
			payload TEXT NOT NULL,
			archived_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_reports_task_id ON reports(task_id);
		CREATE INDEX IF NOT EXISTS idx_reports_project_id ON reports(project_id);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create reports table: %w", err)
	}

	return &Archive{db: db}, nil
}

// Save appends a completion report. A task legitimately reports more
// than once across its lifetime (a blocked report, then the terminal one
// after reassignment); every report is kept and reads return the newest.
func (a *Archive) Save(projectID string, r *models.CompletionReport) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = a.db.Exec(`
		INSERT INTO reports (task_id, project_id, status, complexity_score, payload, archived_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.TaskID, projectID, string(r.Status), r.ComplexityScore, string(payload),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// Get retrieves the newest archived report for a task.
func (a *Archive) Get(taskID string) (*ArchivedReport, error) {
	row := a.db.QueryRow(`
		SELECT project_id, payload, archived_at FROM reports
		WHERE task_id = ? ORDER BY id DESC LIMIT 1
	`, taskID)

	var projectID, payload, archivedAt string
	if err := row.Scan(&projectID, &payload, &archivedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("report for task %s not found", taskID)
		}
		return nil, fmt.Errorf("get report: %w", err)
	}

	return decodeArchived(projectID, payload, archivedAt)
}

// ListByProject returns the newest report per task in a project, newest
// first. Superseded reports (a blocked report after the task completed
// under reassignment) stay in the table but are not listed.
func (a *Archive) ListByProject(projectID string) ([]ArchivedReport, error) {
	rows, err := a.db.Query(`
		SELECT project_id, payload, archived_at FROM reports
		WHERE project_id = ?
		  AND id IN (SELECT MAX(id) FROM reports GROUP BY task_id)
		ORDER BY id DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []ArchivedReport
	for rows.Next() {
		var pid, payload, archivedAt string
		if err := rows.Scan(&pid, &payload, &archivedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		ar, err := decodeArchived(pid, payload, archivedAt)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *ar)
	}
	return reports, rows.Err()
}

// Close closes the archive database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// decodeArchived rebuilds an ArchivedReport from its stored row.
func decodeArchived(projectID, payload, archivedAt string) (*ArchivedReport, error) {
	var r models.CompletionReport
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("decode report payload: %w", err)
	}
	ts, _ := time.Parse(time.RFC3339, archivedAt)
	return &ArchivedReport{Report: r, ProjectID: projectID, ArchivedAt: ts}, nil
}
