package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/ShayCichocki/taskforge/internal/capability"
	"github.com/ShayCichocki/taskforge/internal/executor"
	"github.com/ShayCichocki/taskforge/internal/performance"
	"github.com/ShayCichocki/taskforge/internal/pool"
	"github.com/ShayCichocki/taskforge/internal/queue"
	"github.com/ShayCichocki/taskforge/internal/scheduler"
	"github.com/ShayCichocki/taskforge/internal/store"
	"github.com/ShayCichocki/taskforge/pkg/models"
)

// TaskSink receives task snapshots after every lifecycle transition.
// Used to wire the optional SQLite write-through cache without putting
// persistence on the dispatch hot path's error flow: sink failures are
// logged, never propagated.
type TaskSink interface {
	SaveTask(task models.Task) error
}

// Config contains construction options for the Orchestrator.
type Config struct {
	// MaxConcurrent is the system-wide ceiling on running tasks.
	// Defaults to 50.
	MaxConcurrent int
	// PollInterval is how often the dispatch loop drains the ready queue.
	// Defaults to 100ms.
	PollInterval time.Duration
	// NoAgentBackoff is how long dispatch waits after failing to find an
	// agent before retrying. Defaults to 1s.
	NoAgentBackoff time.Duration
	// OptimizationInterval is how often the maintenance job samples load
	// and re-tunes strategy weights. Defaults to 60s.
	OptimizationInterval time.Duration
	// Strategy is the active scheduling strategy. Defaults to hybrid.
	Strategy scheduler.Strategy
	// Weights are the hybrid vote weights.
	Weights scheduler.Weights
	// EventBuffer is the capacity of the event channel. Defaults to 256.
	EventBuffer int
}

func (c *Config) applyDefaults() {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 50
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 100 * time.Millisecond
	}
	if c.NoAgentBackoff <= 0 {
		c.NoAgentBackoff = time.Second
	}
	if c.OptimizationInterval <= 0 {
		c.OptimizationInterval = 60 * time.Second
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 256
	}
}

// Orchestrator is the task orchestration service: it accepts task
// submissions, resolves dependencies, schedules work onto agents, and
// tracks outcomes. Multiple independent instances can coexist.
type Orchestrator struct {
	config    Config
	registry  *capability.Registry
	store     *store.Store
	queue     *queue.ReadyQueue
	pool      *pool.Pool
	tracker   *performance.Tracker
	scheduler *scheduler.Scheduler
	predictor *scheduler.LoadPredictor
	executor  executor.Executor
	sink      TaskSink
	logger    *DebugLogger
	events    chan Event

	// cancels maps running task IDs to their execution context cancel
	// functions, enabling best-effort cancellation of in-flight work.
	cancelMu sync.Mutex
	cancels  map[string]context.CancelFunc

	// lifecycle state
	runMu     sync.Mutex
	running   bool
	stopFn    context.CancelFunc
	wg        sync.WaitGroup
	cron      *cron.Cron
	startedAt time.Time
}

// Option customizes orchestrator construction.
type Option func(*Orchestrator)

// WithLogger sets the debug logger.
func WithLogger(l *DebugLogger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithAgentFactory sets the agent factory used by the pool.
func WithAgentFactory(f pool.Factory) Option {
	return func(o *Orchestrator) {
		o.pool = pool.New(f)
	}
}

// WithTaskSink sets the persistence sink for task snapshots.
func WithTaskSink(sink TaskSink) Option {
	return func(o *Orchestrator) {
		o.sink = sink
	}
}

// WithRegistry replaces the default capability registry.
func WithRegistry(reg *capability.Registry) Option {
	return func(o *Orchestrator) {
		if reg != nil {
			o.registry = reg
		}
	}
}

// New creates an Orchestrator executing tasks through the given executor.
func New(exec executor.Executor, cfg Config, opts ...Option) *Orchestrator {
	cfg.applyDefaults()

	o := &Orchestrator{
		config:   cfg,
		registry: capability.NewRegistry(),
		store:    store.New(),
		queue:    queue.New(),
		pool:     pool.New(nil),
		tracker:  performance.NewTracker(performance.DefaultWindow),
		executor: exec,
		logger:   NopLogger(),
		events:   make(chan Event, cfg.EventBuffer),
		cancels:  make(map[string]context.CancelFunc),
	}

	for _, opt := range opts {
		opt(o)
	}

	o.scheduler = scheduler.New(o.registry, o.pool, o.tracker, scheduler.Config{
		Strategy:      cfg.Strategy,
		Weights:       cfg.Weights,
		MaxConcurrent: cfg.MaxConcurrent,
	})
	o.scheduler.SetDebugLog(o.logger.Log)
	o.predictor = scheduler.NewLoadPredictor(time.Hour)

	return o
}

// SubmitRequest describes a task to submit.
type SubmitRequest struct {
	// Type is the capability name the task requires. Required.
	Type string
	// Description is a human-readable summary of the work.
	Description string
	// Input is the opaque payload handed to the executor.
	Input map[string]interface{}
	// Priority defaults to PriorityNormal when zero.
	Priority models.TaskPriority
	// Dependencies lists IDs of previously submitted tasks that must
	// complete before this task runs.
	Dependencies []string
	// ParentTask optionally links this task to a parent.
	ParentTask string
}

// SubmitTask validates and registers a new task, returning its ID.
// The task enters the ready queue immediately if it has no unmet
// dependencies; otherwise it waits in PENDING until its dependencies
// complete. A dependency that already failed or was cancelled fails the
// new task on the spot rather than leaving it stuck.
func (o *Orchestrator) SubmitTask(req SubmitRequest) (string, error) {
	if _, err := o.registry.Lookup(req.Type); err != nil {
		return "", fmt.Errorf("submit task: %w", err)
	}

	priority := req.Priority
	if priority == 0 {
		priority = models.PriorityNormal
	}
	if !priority.Valid() {
		return "", fmt.Errorf("submit task: invalid priority %d", req.Priority)
	}

	for _, depID := range req.Dependencies {
		if _, err := o.store.Get(depID); err != nil {
			return "", fmt.Errorf("submit task: dependency %s: %w", depID, store.ErrNotFound)
		}
	}

	task := &models.Task{
		ID:           "task-" + uuid.New().String()[:8],
		Type:         req.Type,
		Description:  req.Description,
		Input:        req.Input,
		Priority:     priority,
		Status:       models.TaskStatusPending,
		CreatedAt:    time.Now(),
		Dependencies: req.Dependencies,
		ParentTask:   req.ParentTask,
	}

	ready, doomed := o.store.Add(task)
	o.logger.Log("[submit] task %s type=%s priority=%s ready=%v deps=%d",
		task.ID, task.Type, task.Priority, ready, len(task.Dependencies))

	if doomed != "" {
		o.persist(task.ID)
		o.emit(Event{Type: EventTaskFailed, TaskID: task.ID, TaskType: task.Type, Err: doomed})
		return task.ID, nil
	}

	o.persist(task.ID)
	if ready {
		o.queue.Push(task.ID, task.Priority)
		o.emit(Event{Type: EventTaskQueued, TaskID: task.ID, TaskType: task.Type, Priority: task.Priority})
	}
	return task.ID, nil
}

// GetTaskStatus returns a read-only snapshot of a task.
func (o *Orchestrator) GetTaskStatus(taskID string) (models.TaskView, error) {
	return o.store.Get(taskID)
}

// CancelTask cancels a PENDING or RUNNING task. Returns false if the task
// is unknown or already terminal. Cancelling a running task cancels its
// execution context; the agent stops at its next checkpoint and the
// result, if any still arrives, is discarded.
func (o *Orchestrator) CancelTask(taskID string) bool {
	cancelled, wasRunning := o.store.Cancel(taskID)
	if !cancelled {
		return false
	}

	if wasRunning {
		o.cancelMu.Lock()
		if cancelFn, ok := o.cancels[taskID]; ok {
			cancelFn()
			delete(o.cancels, taskID)
		}
		o.cancelMu.Unlock()
	}

	o.logger.Log("[cancel] task %s cancelled (was running: %v)", taskID, wasRunning)
	o.persist(taskID)
	o.emit(Event{Type: EventTaskCancelled, TaskID: taskID})
	o.cascadeFail(taskID, models.TaskStatusCancelled)
	return true
}

// ListCapabilities returns every registered capability sorted by name.
func (o *Orchestrator) ListCapabilities() []models.Capability {
	return o.registry.All()
}

// RegisterCapability adds a capability to the registry.
// Meant for startup wiring; the registry is semi-static while running.
func (o *Orchestrator) RegisterCapability(cap models.Capability) error {
	return o.registry.Register(cap)
}

// SetWeights hot-applies new hybrid strategy weights.
// Called by the config watcher.
func (o *Orchestrator) SetWeights(weights scheduler.Weights) {
	o.scheduler.SetWeights(weights)
}

// Start launches the dispatch loop and maintenance jobs.
// Returns an error if the orchestrator is already running.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.runMu.Lock()
	defer o.runMu.Unlock()

	if o.running {
		return fmt.Errorf("orchestrator already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.stopFn = cancel
	o.running = true
	o.startedAt = time.Now()

	o.cron = cron.New()
	spec := fmt.Sprintf("@every %s", o.config.OptimizationInterval)
	if _, err := o.cron.AddFunc(spec, o.maintain); err != nil {
		cancel()
		o.running = false
		return fmt.Errorf("schedule maintenance job: %w", err)
	}
	o.cron.Start()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.dispatchLoop(runCtx)
	}()

	o.logger.Log("[orchestrator] started (ceiling=%d, poll=%s)", o.config.MaxConcurrent, o.config.PollInterval)
	return nil
}

// Stop halts dispatch, cancels all in-flight executions, and waits for
// their continuations to finish. Safe to call more than once.
func (o *Orchestrator) Stop() {
	o.runMu.Lock()
	if !o.running {
		o.runMu.Unlock()
		return
	}
	o.running = false
	stopFn := o.stopFn
	c := o.cron
	o.runMu.Unlock()

	if c != nil {
		c.Stop()
	}
	stopFn()

	o.cancelMu.Lock()
	for _, cancelFn := range o.cancels {
		cancelFn()
	}
	o.cancelMu.Unlock()

	o.wg.Wait()
	o.logger.Log("[orchestrator] stopped")
}

// Idle reports whether no tasks are pending or running.
// The run command polls this to detect workload completion.
func (o *Orchestrator) Idle() bool {
	counts := o.store.StatusCounts()
	return counts[models.TaskStatusPending] == 0 && counts[models.TaskStatusRunning] == 0
}

// cascadeFail fails every pending task that transitively depends on the
// given terminal task and emits the corresponding events.
func (o *Orchestrator) cascadeFail(taskID string, status models.TaskStatus) {
	for _, failed := range o.store.CascadeFail(taskID, status) {
		o.logger.Log("[cascade] task %s failed: dependency chain from %s", failed.ID, taskID)
		o.persist(failed.ID)
		o.emit(Event{Type: EventTaskFailed, TaskID: failed.ID, TaskType: failed.Type, Err: failed.Error})
	}
}

// persist writes the task's current snapshot to the configured sink.
func (o *Orchestrator) persist(taskID string) {
	if o.sink == nil {
		return
	}
	snap, ok := o.store.Snapshot(taskID)
	if !ok {
		return
	}
	if err := o.sink.SaveTask(snap); err != nil {
		o.logger.Log("[persist] task %s: %v", taskID, err)
	}
}
