package orchestrator

import (
	"context"
	"time"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

// dispatchLoop is the single goroutine that drains the ready queue and
// hands tasks to agents. All scheduling decisions happen here; task
// execution runs in per-task goroutines spawned by dispatch.
func (o *Orchestrator) dispatchLoop(ctx context.Context) {
	ticker := time.NewTicker(o.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Log("[dispatch] loop exiting: %v", ctx.Err())
			return
		case <-ticker.C:
			o.drainReady(ctx)
		}
	}
}

// drainReady dispatches queued tasks until the queue is empty, the
// concurrency ceiling is hit, or no agent can be found. On a no-agent
// outcome the task is requeued in its original position and dispatch
// backs off until the next attempt.
func (o *Orchestrator) drainReady(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if len(o.store.Running()) >= o.config.MaxConcurrent {
			return
		}

		taskID, priority, seq, ok := o.queue.Pop()
		if !ok {
			return
		}

		task, ok := o.store.Snapshot(taskID)
		if !ok || task.Status != models.TaskStatusPending {
			// Cancelled (or otherwise finalized) while queued.
			o.store.Dequeued(taskID)
			continue
		}

		agentID, err := o.scheduler.SelectAgent(ctx, task)
		if err != nil {
			// Unknown task type. Submission validates types, so this only
			// happens if the registry changed underneath a queued task.
			if o.store.Fail(taskID, err.Error()) {
				o.logger.Log("[dispatch] task %s unschedulable: %v", taskID, err)
				o.persist(taskID)
				o.emit(Event{Type: EventTaskFailed, TaskID: taskID, TaskType: task.Type, Err: err.Error()})
				o.cascadeFail(taskID, models.TaskStatusFailed)
			}
			continue
		}
		if agentID == "" {
			// No agent has capacity. Put the task back without losing its
			// position and let the next poll retry after a backoff.
			if o.store.Requeued(taskID) {
				o.queue.Requeue(taskID, priority, seq)
				o.emit(Event{Type: EventTaskRequeued, TaskID: taskID, TaskType: task.Type, Priority: priority})
			}
			o.backoff(ctx)
			return
		}

		if !o.store.MarkRunning(taskID, agentID) {
			// Lost a race with cancellation between Pop and here.
			continue
		}

		o.pool.Increment(agentID)

		taskCtx, taskCancel := context.WithCancel(ctx)
		o.cancelMu.Lock()
		o.cancels[taskID] = taskCancel
		o.cancelMu.Unlock()

		task.Status = models.TaskStatusRunning
		task.AssignedAgent = agentID

		o.logger.Log("[dispatch] task %s -> agent %s", taskID, agentID)
		o.persist(taskID)
		o.emit(Event{Type: EventTaskStarted, TaskID: taskID, TaskType: task.Type, AgentID: agentID, Priority: priority})

		o.wg.Add(1)
		go func(task models.Task, agentID string) {
			defer o.wg.Done()
			o.execute(taskCtx, task, agentID)
		}(task, agentID)
	}
}

// backoff sleeps for the configured no-agent backoff, bounded so a
// cancelled context always wins.
func (o *Orchestrator) backoff(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(o.config.NoAgentBackoff):
	}
}

// execute runs a dispatched task to completion and applies the outcome.
// Load is always released and a performance sample always recorded, so a
// panicking executor cannot leak agent capacity.
func (o *Orchestrator) execute(ctx context.Context, task models.Task, agentID string) {
	start := time.Now()
	succeeded := false

	defer func() {
		o.pool.Decrement(agentID)
		o.tracker.RecordCompletion(agentID, time.Since(start), succeeded)

		o.cancelMu.Lock()
		delete(o.cancels, task.ID)
		o.cancelMu.Unlock()
	}()

	result, err := o.executor.Execute(ctx, task)
	if err != nil {
		if o.store.Fail(task.ID, err.Error()) {
			o.logger.Log("[execute] task %s failed on agent %s: %v", task.ID, agentID, err)
			o.persist(task.ID)
			o.emit(Event{Type: EventTaskFailed, TaskID: task.ID, TaskType: task.Type, AgentID: agentID, Err: err.Error()})
			o.cascadeFail(task.ID, models.TaskStatusFailed)
		}
		// A false return means cancellation already finalized the task.
		return
	}

	if !o.store.Complete(task.ID, result) {
		// Cancelled mid-flight; the result is discarded.
		o.logger.Log("[execute] task %s finished after cancellation, result discarded", task.ID)
		return
	}
	succeeded = true

	o.logger.Log("[execute] task %s completed on agent %s in %s", task.ID, agentID, time.Since(start))
	o.persist(task.ID)
	o.emit(Event{Type: EventTaskCompleted, TaskID: task.ID, TaskType: task.Type, AgentID: agentID})

	for _, activated := range o.store.OnCompleted(task.ID) {
		o.logger.Log("[execute] task %s activated dependent %s", task.ID, activated.ID)
		o.queue.Push(activated.ID, activated.Priority)
		o.emit(Event{Type: EventTaskQueued, TaskID: activated.ID, TaskType: activated.Type, Priority: activated.Priority})
	}
}
