package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/foreman/internal/config"
	"github.com/ShayCichocki/foreman/internal/report"
	"github.com/ShayCichocki/foreman/internal/state"
	"github.com/ShayCichocki/foreman/pkg/models"
)

var (
	statusProject string
	statusReports bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show project tasks and archived reports",
	Long: `Display the state of the project's tasks.

Shows every task in the store with its status, scope, and assignment.
Blocked tasks list the handoff they are waiting on. With --reports,
archived completion reports are shown instead.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusProject, "project", "", "Project ID (defaults to the working directory name)")
	statusCmd.Flags().BoolVar(&statusReports, "reports", false, "Show archived completion reports")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	project := statusProject
	if project == "" {
		project = filepath.Base(cwd)
	}

	if statusReports {
		return showReports(cfg, cwd, project)
	}
	return showTasks(cfg, cwd, project)
}

func showTasks(cfg *config.Config, projectRoot, project string) error {
	dbPath := cfg.DB.Path
	if dbPath == "" {
		dbPath = state.DefaultDBPath(projectRoot)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No tasks yet. Run 'foreman run <scope> <description>' to start.")
		return nil
	}

	store, err := state.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open task store: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrate task store: %w", err)
	}

	tasks, err := store.ListByProject(project)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	if len(tasks) == 0 {
		fmt.Printf("No tasks for project %s.\n", project)
		return nil
	}

	fmt.Printf("Project %s: %d task(s)\n\n", project, len(tasks))
	for _, t := range tasks {
		fmt.Printf("  %s %s %-14s %s\n",
			statusBadge(t.Status), shortID(t.ID), t.ScopeTag, firstLine(t.Description))
		if t.AssignedTo != "" {
			fmt.Printf("      assigned to executor %s\n", t.AssignedTo)
		}
		if t.Status == models.TaskStatusBlocked && t.BlockedBy != "" {
			fmt.Printf("      waiting on handoff %s\n", shortID(t.BlockedBy))
		}
		if t.CompletedAt != nil {
			fmt.Printf("      finished %s ago\n", formatDuration(time.Since(*t.CompletedAt)))
		}
	}
	return nil
}

func showReports(cfg *config.Config, projectRoot, project string) error {
	archivePath := cfg.DB.ArchivePath
	if archivePath == "" {
		archivePath = report.DefaultArchivePath(projectRoot)
	}
	if _, err := os.Stat(archivePath); os.IsNotExist(err) {
		fmt.Println("No archived reports yet.")
		return nil
	}

	archive, err := report.OpenArchive(archivePath)
	if err != nil {
		return fmt.Errorf("open report archive: %w", err)
	}
	defer archive.Close()

	reports, err := archive.ListByProject(project)
	if err != nil {
		return fmt.Errorf("list reports: %w", err)
	}
	if len(reports) == 0 {
		fmt.Printf("No archived reports for project %s.\n", project)
		return nil
	}

	fmt.Printf("Project %s: %d report(s)\n\n", project, len(reports))
	for _, ar := range reports {
		r := ar.Report
		fmt.Printf("  %s %s score=%d %s\n",
			reportBadge(r.Status), shortID(r.TaskID), r.ComplexityScore, firstLine(r.Summary))
		if len(r.CapabilitiesUsed) > 0 {
			fmt.Printf("      consulted: %s\n", strings.Join(r.CapabilitiesUsed, ", "))
		}
		fmt.Printf("      archived %s ago\n", formatDuration(time.Since(ar.ArchivedAt)))
	}
	return nil
}

// statusBadge renders a colored task-status label.
func statusBadge(s models.TaskStatus) string {
	switch s {
	case models.TaskStatusTodo:
		return color.WhiteString("%-12s", "todo")
	case models.TaskStatusInProgress:
		return color.CyanString("%-12s", "in_progress")
	case models.TaskStatusBlocked:
		return color.YellowString("%-12s", "blocked")
	case models.TaskStatusCompleted:
		return color.GreenString("%-12s", "completed")
	default:
		return color.RedString("%-12s", string(s))
	}
}

// reportBadge renders a colored report-status label.
func reportBadge(s models.ReportStatus) string {
	switch s {
	case models.ReportCompleted:
		return color.GreenString("%-10s", string(s))
	case models.ReportBlocked:
		return color.YellowString("%-10s", string(s))
	case models.ReportRefused:
		return color.MagentaString("%-10s", string(s))
	default:
		return color.RedString("%-10s", string(s))
	}
}

// firstLine truncates multi-line text to its first line.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m > 0 {
			return fmt.Sprintf("%dh%dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	}
	days := int(d.Hours()) / 24
	return fmt.Sprintf("%dd", days)
}
