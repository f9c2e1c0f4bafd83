package main

import (
	"fmt"
	"os"

	"github.com/ShayCichocki/foreman/internal/supervisor"
	"github.com/spf13/cobra"
)

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Send control signals to a running supervisor",
	Long: `Send control signals to a supervisor running in this project.

Signals are delivered as files under .foreman/signals and picked up by
the supervisor immediately:

  abort  stop spawning and cancel running tasks (sticky until cleared)
  pause  hold new spawns; running tasks finish normally
  clear  remove all pending signals`,
}

var signalAbortCmd = &cobra.Command{
	Use:   "abort",
	Short: "Stop spawning and cancel running tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := signalController()
		if err != nil {
			return err
		}
		defer ctrl.Close()

		if err := ctrl.SendAbort(); err != nil {
			return fmt.Errorf("sending abort signal: %w", err)
		}
		fmt.Println("Abort signal sent.")
		return nil
	},
}

var signalPauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Hold new task spawns",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := signalController()
		if err != nil {
			return err
		}
		defer ctrl.Close()

		if err := ctrl.SendPause(); err != nil {
			return fmt.Errorf("sending pause signal: %w", err)
		}
		fmt.Println("Pause signal sent. Run `foreman signal clear` to resume.")
		return nil
	},
}

var signalClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all pending signals",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := signalController()
		if err != nil {
			return err
		}
		defer ctrl.Close()

		ctrl.ClearSignals()
		fmt.Println("Signals cleared.")
		return nil
	},
}

func signalController() (*supervisor.Controller, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	return supervisor.NewController(cwd)
}

func init() {
	signalCmd.AddCommand(signalAbortCmd)
	signalCmd.AddCommand(signalPauseCmd)
	signalCmd.AddCommand(signalClearCmd)
}
