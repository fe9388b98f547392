package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "taskforge",
	Short: "Capability-based task orchestration engine",
	Long: `Taskforge schedules tasks onto a pool of agents by capability.

Tasks declare a type (conversation, code_analysis, code_generation,
data_analysis, kb_qa, sql_query, file_processing), a priority, and
optional dependencies. The orchestrator resolves dependencies, picks an
agent per task using one of six strategies or a weighted hybrid vote,
and adapts strategy weights to the observed load.

Core capabilities:
- Priority dispatch with FIFO fairness within a priority class
- Dependency-gated activation and cascade failure
- Per-agent performance tracking with a rolling success-rate window
- Linear-trend load forecasting
- Write-through SQLite task history`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(capabilitiesCmd)
	rootCmd.AddCommand(versionCmd)
}
