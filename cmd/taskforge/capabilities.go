package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskforge/internal/capability"
)

var capabilitiesFile string

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "List registered task capabilities",
	Long: `List every task type the orchestrator can schedule, with its
eligible agent kinds, per-agent concurrency ceiling, and baseline
duration estimate.

Built-in capabilities can be extended or overridden with --file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := capability.NewRegistry()
		if capabilitiesFile != "" {
			if err := registry.LoadFile(capabilitiesFile); err != nil {
				return err
			}
		}

		fmt.Printf("%-18s %-18s %10s %10s  %s\n",
			"TYPE", "AGENT KINDS", "MAX/AGENT", "ESTIMATE", "DESCRIPTION")
		for _, cap := range registry.All() {
			kinds := make([]string, 0, len(cap.AgentKinds))
			for _, k := range cap.AgentKinds {
				kinds = append(kinds, string(k))
			}
			fmt.Printf("%-18s %-18s %10d %10s  %s\n",
				color.CyanString(cap.Name),
				strings.Join(kinds, ","),
				cap.MaxConcurrentTasks,
				cap.EstimatedDuration,
				cap.Description)
		}
		return nil
	},
}

func init() {
	capabilitiesCmd.Flags().StringVar(&capabilitiesFile, "file", "", "Extra capability definitions (YAML file)")
}
