package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/foreman/internal/assess"
	"github.com/ShayCichocki/foreman/internal/boundary"
	"github.com/ShayCichocki/foreman/internal/config"
	fexec "github.com/ShayCichocki/foreman/internal/exec"
	"github.com/ShayCichocki/foreman/internal/executor"
	"github.com/ShayCichocki/foreman/internal/report"
	"github.com/ShayCichocki/foreman/internal/state"
	"github.com/ShayCichocki/foreman/internal/supervisor"
	"github.com/ShayCichocki/foreman/internal/tui"
	"github.com/ShayCichocki/foreman/pkg/models"
)

var (
	runProject    string
	runExec       string
	runWorkDir    string
	runTUI        bool
	runMaxWorkers int
	runNoEscalate bool
	runDeps       []string
	runAmbiguous  []string
	runUrgency    string
)

var runCmd = &cobra.Command{
	Use:   "run <scope-tag> <description>",
	Short: "Delegate a task to a bounded executor",
	Long: `Delegate a task to a bounded executor.

The scope tag selects the worker class that will execute the task.
A task whose scope the class does not accept is refused with a
redirect hint. Work that hits a cross-scope requirement blocks the
task and writes a handoff into the store; resolve it with
'foreman status' and 'foreman reassign'.

The worker command given via --exec runs under sh with the task's
identity and any escalation guidance in its environment
(FOREMAN_TASK_ID, FOREMAN_SCOPE, FOREMAN_GUIDANCE). It can emit
marker lines to talk back to the engine:

  CREATED <path>            record a created artifact
  MODIFIED <path>           record a modified artifact
  DELETED <path>            record a deleted artifact
  BLOCKED <scope>: <what>   hand off an out-of-scope requirement

Without --exec the executor performs a dry run: validation, scoring
and escalation happen, no work is executed.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runTask,
}

func init() {
	runCmd.Flags().StringVar(&runProject, "project", "", "Project ID (defaults to the working directory name)")
	runCmd.Flags().StringVar(&runExec, "exec", "", "Shell command performing the work")
	runCmd.Flags().StringVar(&runWorkDir, "workdir", "", "Working directory for the worker command")
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "Show the live monitor while tasks run")
	runCmd.Flags().IntVar(&runMaxWorkers, "max-workers", 0, "Concurrent executor limit (0 = config value)")
	runCmd.Flags().BoolVar(&runNoEscalate, "no-escalate", false, "Skip consultation regardless of complexity")
	runCmd.Flags().StringSliceVar(&runDeps, "dep", nil, "Cross-component dependency the task touches (repeatable)")
	runCmd.Flags().StringSliceVar(&runAmbiguous, "ambiguous", nil, "Unresolved question attached to the task (repeatable)")
	runCmd.Flags().StringVar(&runUrgency, "urgency", "", "Task urgency: soon or urgent")
}

func runTask(cmd *cobra.Command, args []string) error {
	scopeTag := args[0]
	description := strings.Join(args[1:], " ")

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

	project := runProject
	if project == "" {
		project = filepath.Base(cwd)
	}

	sup, _, cleanup, err := buildSupervisor(cfg, cwd, project)
	if err != nil {
		return err
	}
	defer cleanup()

	// Ctrl-C cancels running executors; their tasks land in failed.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		if _, ok := <-sigCh; ok {
			fmt.Println("\nReceived interrupt, shutting down...")
			sup.Shutdown()
		}
	}()

	taskID, err := sup.Spawn(scopeTag, description, assess.TaskContext{
		Dependencies:   runDeps,
		AmbiguityFlags: runAmbiguous,
		Urgency:        runUrgency,
	})
	if err != nil {
		return fmt.Errorf("spawn task: %w", err)
	}
	fmt.Printf("Task %s delegated (scope %s)\n", shortID(taskID), scopeTag)

	if runTUI {
		go func() {
			for range sup.Reports() {
				// Drained; the monitor consumes the event stream.
			}
		}()
		go func() {
			sup.Wait()
			sup.Shutdown()
		}()
		return tui.Run(sup.Events())
	}

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

// buildSupervisor wires the store, archive, registry, router, and
// control signals into a supervisor rooted at projectRoot. The opened
// store is returned for callers that query it directly; cleanup closes
// everything.
func buildSupervisor(cfg *config.Config, projectRoot, project string) (*supervisor.Supervisor, *state.DB, func(), error) {
	dbPath := cfg.DB.Path
	if dbPath == "" {
		dbPath = state.DefaultDBPath(projectRoot)
	}
	store, err := state.Open(dbPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open task store: %w", err)
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, nil, nil, fmt.Errorf("migrate task store: %w", err)
	}

	archivePath := cfg.DB.ArchivePath
	if archivePath == "" {
		archivePath = report.DefaultArchivePath(projectRoot)
	}
	archive, err := report.OpenArchive(archivePath)
	if err != nil {
		store.Close()
		return nil, nil, nil, fmt.Errorf("open report archive: %w", err)
	}

	registry, err := loadRegistry(projectRoot)
	if err != nil {
		store.Close()
		archive.Close()
		return nil, nil, nil, err
	}

	router, err := buildRouter(cfg)
	if err != nil {
		store.Close()
		archive.Close()
		return nil, nil, nil, err
	}

	controller, err := supervisor.NewController(projectRoot)
	if err != nil {
		store.Close()
		archive.Close()
		return nil, nil, nil, fmt.Errorf("create signal controller: %w", err)
	}

	work := executor.NoopWork
	if runExec != "" {
		work = executor.ShellWork(fexec.NewRunner(), runWorkDir, runExec)
	}

	maxWorkers := runMaxWorkers
	if maxWorkers == 0 {
		maxWorkers = cfg.Supervisor.MaxWorkers
	}

	logger := supervisor.NewDebugLoggerForProject(projectRoot)

	sup := supervisor.New(supervisor.Config{
		ProjectID:  project,
		Store:      store,
		Registry:   registry,
		Router:     router,
		Archive:    archive,
		Work:       work,
		MaxWorkers: maxWorkers,
		Controller: controller,
		Logger:     logger,
	})

	cleanup := func() {
		controller.Close()
		logger.Close()
		archive.Close()
		store.Close()
	}
	return sup, store, cleanup, nil
}

// loadRegistry reads the project's worker-class registry if present,
// falling back to the built-in table.
func loadRegistry(projectRoot string) (*boundary.Registry, error) {
	path := filepath.Join(projectRoot, ".foreman", "workers.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return boundary.DefaultRegistry(), nil
	}
	registry, err := boundary.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load worker registry: %w", err)
	}
	return registry, nil
}

// printReport renders a completion report to the terminal.
func printReport(r *models.CompletionReport) {
	var badge string
	switch r.Status {
	case models.ReportCompleted:
		badge = color.GreenString("✓ completed")
	case models.ReportBlocked:
		badge = color.YellowString("⏸ blocked")
	case models.ReportRefused:
		badge = color.MagentaString("✗ refused")
	default:
		badge = color.RedString("✗ failed")
	}

	fmt.Printf("\n%s  task %s\n", badge, shortID(r.TaskID))
	if r.Summary != "" {
		fmt.Printf("  %s\n", r.Summary)
	}
	if r.ComplexityScore > 0 {
		fmt.Printf("  complexity: %d\n", r.ComplexityScore)
	}
	if len(r.CapabilitiesUsed) > 0 {
		fmt.Printf("  consulted: %s\n", strings.Join(r.CapabilitiesUsed, ", "))
	}
	printArtifacts("created", r.ArtifactsCreated)
	printArtifacts("modified", r.ArtifactsModified)
	printArtifacts("deleted", r.ArtifactsDeleted)

	if r.Status == models.ReportBlocked {
		fmt.Printf("\nRun %s to inspect the handoff, then %s once it is resolved.\n",
			color.CyanString("foreman status"), color.CyanString("foreman reassign <task-id>"))
	}
}

func printArtifacts(label string, paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Printf("  %s:\n", label)
	for _, p := range paths {
		fmt.Printf("    %s\n", p)
	}
}

// shortID truncates a UUID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
