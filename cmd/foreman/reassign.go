package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/foreman/internal/assess"
	"github.com/ShayCichocki/foreman/internal/config"
	"github.com/ShayCichocki/foreman/internal/state"
	"github.com/ShayCichocki/foreman/pkg/models"
)

var (
	reassignProject     string
	reassignSkipHandoff bool
)

var reassignCmd = &cobra.Command{
	Use:   "reassign <task-id>",
	Short: "Return a blocked task to execution",
	Long: `Return a blocked task to a fresh executor.

Blocked tasks never resume on their own; reassignment is an explicit
decision. If the handoff the task is waiting on is still open, it is
executed first (skip with --skip-handoff). Task IDs may be
abbreviated to a unique prefix.

Worker flags (--exec, --workdir, --no-escalate) behave as in
'foreman run'.`,
	Args: cobra.ExactArgs(1),
	RunE: runReassign,
}

func init() {
	reassignCmd.Flags().StringVar(&reassignProject, "project", "", "Project ID (defaults to the working directory name)")
	reassignCmd.Flags().BoolVar(&reassignSkipHandoff, "skip-handoff", false, "Reassign without executing the open handoff first")
	reassignCmd.Flags().StringVar(&runExec, "exec", "", "Shell command performing the work")
	reassignCmd.Flags().StringVar(&runWorkDir, "workdir", "", "Working directory for the worker command")
	reassignCmd.Flags().BoolVar(&runNoEscalate, "no-escalate", false, "Skip consultation regardless of complexity")
}

func runReassign(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if runNoEscalate {
		cfg.Escalation.Enabled = false
	}

	project := reassignProject
	if project == "" {
		project = filepath.Base(cwd)
	}

	sup, store, cleanup, err := buildSupervisor(cfg, cwd, project)
	if err != nil {
		return err
	}
	defer cleanup()
	defer sup.Shutdown()

	taskID, err := resolveTaskID(store, project, args[0])
	if err != nil {
		return err
	}
	task, err := store.Get(taskID)
	if err != nil {
		return err
	}
	if task.Status != models.TaskStatusBlocked {
		return fmt.Errorf("task %s is %s, not blocked", shortID(taskID), task.Status)
	}

	// Close the handoff before the blocked task goes back in play.
	if task.BlockedBy != "" && !reassignSkipHandoff {
		handoff, err := store.Get(task.BlockedBy)
		if err != nil {
			return fmt.Errorf("load handoff: %w", err)
		}
		if handoff.Status == models.TaskStatusTodo {
			fmt.Printf("Executing open handoff %s (scope %s)...\n", shortID(handoff.ID), handoff.ScopeTag)
			if err := sup.Dispatch(handoff.ID, assess.TaskContext{}); err != nil {
				return fmt.Errorf("dispatch handoff: %w", err)
			}
			r := <-sup.Reports()
			if r == nil {
				return fmt.Errorf("supervisor stopped before the handoff finished")
			}
			printReport(r)
			if r.Status != models.ReportCompleted {
				return fmt.Errorf("handoff %s did not complete; not reassigning", shortID(handoff.ID))
			}
		}
	}

	if err := sup.Reassign(taskID, assess.TaskContext{}); err != nil {
		return fmt.Errorf("reassign: %w", err)
	}
	fmt.Printf("Task %s reassigned\n", shortID(taskID))

	r := <-sup.Reports()
	if r == nil {
		return fmt.Errorf("supervisor stopped before the task finished")
	}
	printReport(r)

	if r.Status != models.ReportCompleted {
		os.Exit(1)
	}
	return nil
}

// resolveTaskID expands an abbreviated task ID to the full one. The
// prefix must match exactly one task in the project.
func resolveTaskID(store state.Store, project, prefix string) (string, error) {
	tasks, err := store.ListByProject(project)
	if err != nil {
		return "", fmt.Errorf("list tasks: %w", err)
	}

	var matches []string
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, prefix) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no task matches %q in project %s", prefix, project)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("task ID %q is ambiguous (%d matches)", prefix, len(matches))
	}
}
