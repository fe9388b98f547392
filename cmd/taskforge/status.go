package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskforge/internal/config"
	"github.com/ShayCichocki/taskforge/internal/state"
	"github.com/ShayCichocki/taskforge/pkg/models"
)

var statusAll bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show persisted task history",
	Long: `Status reads the project task database written by previous runs and
prints per-status counts plus the most recent tasks.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusAll, "all", false, "List every task, not just the recent ones")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dbPath := cfg.State.Path
	if dbPath == "" {
		dbPath = state.ProjectDBPath(".")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No task history found. Run a workload first: taskforge run <workload.yaml>")
		return nil
	}

	db, err := state.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	counts, err := db.CountByStatus()
	if err != nil {
		return err
	}

	fmt.Printf("Tasks: %s %d  %s %d  %s %d  %d pending  %d running\n\n",
		color.GreenString("completed"), counts[models.TaskStatusCompleted],
		color.RedString("failed"), counts[models.TaskStatusFailed],
		color.YellowString("cancelled"), counts[models.TaskStatusCancelled],
		counts[models.TaskStatusPending],
		counts[models.TaskStatusRunning])

	tasks, err := db.ListTasks("")
	if err != nil {
		return err
	}

	limit := 20
	if statusAll || len(tasks) < limit {
		limit = len(tasks)
	}
	for _, task := range tasks[:limit] {
		fmt.Printf("%-14s %-16s %-10s %-8s %s\n",
			task.ID, task.Type, statusColor(task.Status), task.Priority, task.Description)
	}
	if !statusAll && len(tasks) > limit {
		fmt.Printf("\n(%d more; use --all)\n", len(tasks)-limit)
	}
	return nil
}

func statusColor(s models.TaskStatus) string {
	switch s {
	case models.TaskStatusCompleted:
		return color.GreenString(string(s))
	case models.TaskStatusFailed:
		return color.RedString(string(s))
	case models.TaskStatusCancelled:
		return color.YellowString(string(s))
	case models.TaskStatusRunning:
		return color.BlueString(string(s))
	default:
		return string(s)
	}
}
