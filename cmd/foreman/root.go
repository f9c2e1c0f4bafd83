package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "foreman",
	Short: "Bounded task delegation & escalation engine",
	Long: `Foreman delegates tasks to bounded executors and escalates hard
decisions to consultation capabilities.

Each executor is confined to one task and one scope. Work that crosses
a scope boundary is refused or handed off through the task store, never
executed in place. Complex tasks are scored and routed to single,
chained, or consensus consultations before work begins.

Core capabilities:
- Compare-and-set task store with strict status transitions
- Scope boundary validation with redirect hints
- Deterministic complexity scoring
- Tiered escalation to Claude-backed advisors
- Blocked-task handoffs resolved by the supervisor`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(reassignCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(signalCmd)
	rootCmd.AddCommand(versionCmd)
}
