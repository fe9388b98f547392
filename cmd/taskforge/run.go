package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskforge/internal/capability"
	"github.com/ShayCichocki/taskforge/internal/config"
	"github.com/ShayCichocki/taskforge/internal/executor"
	"github.com/ShayCichocki/taskforge/internal/orchestrator"
	"github.com/ShayCichocki/taskforge/internal/scheduler"
	"github.com/ShayCichocki/taskforge/internal/state"
	"github.com/ShayCichocki/taskforge/internal/tui"
	"github.com/ShayCichocki/taskforge/pkg/models"
)

var (
	runStrategy      string
	runMaxConcurrent int
	runCapabilities  string
	runWatch         bool
)

var runCmd = &cobra.Command{
	Use:   "run <workload.yaml>",
	Short: "Run a workload of tasks to completion",
	Long: `Run submits every task in a workload file and dispatches them until
all reach a terminal state.

A workload file lists tasks with a type, optional priority, input
payload, and dependencies on earlier entries:

  tasks:
    - name: analyze
      type: code_analysis
      description: review the auth module
      input:
        code: "..."
    - name: report
      type: conversation
      priority: high
      depends_on: [analyze]
      input:
        message: summarize the analysis

Events stream to stdout as tasks progress; --watch shows a live
dashboard instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runStrategy, "strategy", "", "Scheduling strategy (fifo, priority, shortest_job, round_robin, load_balanced, deadline_first, hybrid)")
	runCmd.Flags().IntVar(&runMaxConcurrent, "max-concurrent", 0, "Override the concurrency ceiling")
	runCmd.Flags().StringVar(&runCapabilities, "capabilities", "", "Extra capability definitions (YAML file)")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "Show a live status dashboard instead of streaming events")
}

func runRun(cmd *cobra.Command, args []string) error {
	w, err := loadWorkload(args[0])
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if runStrategy != "" {
		cfg.Scheduler.Strategy = runStrategy
	}
	if runMaxConcurrent > 0 {
		cfg.Scheduler.MaxConcurrent = runMaxConcurrent
	}

	o, cleanup, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := o.Start(ctx); err != nil {
		return err
	}
	defer o.Stop()

	// Submit in file order so depends_on resolves against earlier entries.
	ids := make(map[string]string, len(w.Tasks))
	submitted := make([]string, 0, len(w.Tasks))
	for _, t := range w.Tasks {
		deps := make([]string, 0, len(t.DependsOn))
		for _, dep := range t.DependsOn {
			deps = append(deps, ids[dep])
		}

		id, err := o.SubmitTask(orchestrator.SubmitRequest{
			Type:         t.Type,
			Description:  t.Description,
			Input:        t.Input,
			Priority:     t.priority(),
			Dependencies: deps,
		})
		if err != nil {
			return fmt.Errorf("submit %q: %w", t.Name, err)
		}
		if t.Name != "" {
			ids[t.Name] = id
		}
		submitted = append(submitted, id)
	}
	fmt.Printf("Submitted %d tasks\n\n", len(submitted))

	if runWatch {
		if err := watchUntilIdle(ctx, o, cfg.TUI.RefreshRate); err != nil {
			return err
		}
	} else {
		streamUntilIdle(ctx, o)
	}

	return printSummary(o, submitted)
}

// buildOrchestrator wires the orchestrator from config: registry extras,
// the Anthropic executor, the state sink, and the config watcher for hot
// weight reload.
func buildOrchestrator(cfg *config.Config) (*orchestrator.Orchestrator, func(), error) {
	client, err := executor.NewClient(executor.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return nil, nil, err
	}

	registry := capability.NewRegistry()
	if runCapabilities != "" {
		if err := registry.LoadFile(runCapabilities); err != nil {
			return nil, nil, err
		}
	}

	opts := []orchestrator.Option{
		orchestrator.WithRegistry(registry),
		orchestrator.WithLogger(orchestrator.NewDebugLoggerForDir(".")),
	}

	var closers []func()
	if cfg.State.Enabled {
		dbPath := cfg.State.Path
		if dbPath == "" {
			dbPath = state.ProjectDBPath(".")
		}
		db, err := state.Open(dbPath)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, nil, err
		}
		opts = append(opts, orchestrator.WithTaskSink(db))
		closers = append(closers, func() { db.Close() })
	}

	o := orchestrator.New(executor.NewLLMExecutor(client), orchestrator.Config{
		MaxConcurrent:        cfg.Scheduler.MaxConcurrent,
		PollInterval:         cfg.Dispatch.PollInterval,
		NoAgentBackoff:       cfg.Dispatch.NoAgentBackoff,
		OptimizationInterval: cfg.Scheduler.OptimizationInterval,
		Strategy:             scheduler.Strategy(cfg.Scheduler.Strategy),
		Weights:              parseWeights(cfg.Scheduler.Weights),
	}, opts...)

	// Hot-apply weight overrides when the project config changes.
	if projectCfg := config.FindProjectConfig(); projectCfg != "" {
		watcher, err := config.Watch(projectCfg, func(fresh *config.Config) {
			o.SetWeights(parseWeights(fresh.Scheduler.Weights))
		})
		if err == nil {
			closers = append(closers, watcher.Close)
		}
	}

	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}
	return o, cleanup, nil
}

// parseWeights converts config weight names to scheduler weights.
func parseWeights(raw map[string]float64) scheduler.Weights {
	weights := make(scheduler.Weights, len(raw))
	for name, w := range raw {
		weights[scheduler.Strategy(name)] = w
	}
	return weights
}

// streamUntilIdle prints events until every submitted task is terminal.
func streamUntilIdle(ctx context.Context, o *orchestrator.Orchestrator) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-o.Events():
			printEvent(ev)
		case <-ticker.C:
			if o.Idle() {
				// Drain whatever already queued up.
				for {
					select {
					case ev := <-o.Events():
						printEvent(ev)
					default:
						return
					}
				}
			}
		}
	}
}

// watchUntilIdle shows the live dashboard; it exits when the workload is
// done or the user quits.
func watchUntilIdle(ctx context.Context, o *orchestrator.Orchestrator, refresh time.Duration) error {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if o.Idle() {
					close(done)
					return
				}
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- tui.Run(o.GetMetrics, refresh) }()

	select {
	case <-done:
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

func printEvent(ev orchestrator.Event) {
	switch ev.Type {
	case orchestrator.EventTaskQueued:
		fmt.Printf("%s %s (%s, %s)\n", color.CyanString("queued "), ev.TaskID, ev.TaskType, ev.Priority)
	case orchestrator.EventTaskStarted:
		fmt.Printf("%s %s -> %s\n", color.BlueString("started"), ev.TaskID, ev.AgentID)
	case orchestrator.EventTaskCompleted:
		fmt.Printf("%s %s\n", color.GreenString("done   "), ev.TaskID)
	case orchestrator.EventTaskFailed:
		fmt.Printf("%s %s: %s\n", color.RedString("failed "), ev.TaskID, ev.Err)
	case orchestrator.EventTaskCancelled:
		fmt.Printf("%s %s\n", color.YellowString("cancel "), ev.TaskID)
	}
}

// printSummary prints the final per-status counts and returns an error if
// any task failed, so the process exit code reflects the workload outcome.
func printSummary(o *orchestrator.Orchestrator, ids []string) error {
	var completed, failed, cancelled int
	for _, id := range ids {
		v, err := o.GetTaskStatus(id)
		if err != nil {
			continue
		}
		switch v.Status {
		case models.TaskStatusCompleted:
			completed++
		case models.TaskStatusFailed:
			failed++
		case models.TaskStatusCancelled:
			cancelled++
		}
	}

	fmt.Printf("\n%s %d completed, %s %d failed, %d cancelled\n",
		color.GreenString("✓"), completed, color.RedString("✗"), failed, cancelled)

	if failed > 0 {
		return fmt.Errorf("%d of %d tasks failed", failed, len(ids))
	}
	return nil
}
