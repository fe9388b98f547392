package orchestrator

import (
	"log"
	"time"

	"github.com/ShayCichocki/taskforge/internal/scheduler"
	"github.com/ShayCichocki/taskforge/pkg/models"
)

// Metrics is a point-in-time snapshot of orchestrator state.
type Metrics struct {
	// TotalTasks is the number of tasks ever submitted.
	TotalTasks int `json:"total_tasks"`
	// StatusCounts is the number of tasks per lifecycle status.
	StatusCounts map[models.TaskStatus]int `json:"status_counts"`
	// QueueDepth is the number of tasks waiting for dispatch.
	QueueDepth int `json:"queue_depth"`
	// RunningTasks is the number of currently executing tasks.
	RunningTasks int `json:"running_tasks"`
	// MaxConcurrent is the system-wide concurrency ceiling.
	MaxConcurrent int `json:"max_concurrent"`
	// AgentCount is the number of live agents.
	AgentCount int `json:"agent_count"`
	// AgentLoads maps agent IDs to their in-flight task counts.
	AgentLoads map[string]int `json:"agent_loads"`
	// Performance holds per-agent rolling statistics.
	Performance []models.AgentPerformance `json:"performance"`
	// AvgDuration is the mean task duration across all agents.
	AvgDuration time.Duration `json:"avg_duration"`
	// Strategy is the active scheduling strategy.
	Strategy scheduler.Strategy `json:"strategy"`
	// Weights are the current hybrid vote weights.
	Weights scheduler.Weights `json:"weights"`
	// PredictedLoad is the forecast running-task count five minutes out.
	PredictedLoad float64 `json:"predicted_load"`
}

// GetMetrics returns a snapshot of queue depth, task counts, agent loads,
// per-agent performance, and the scheduler's current tuning.
func (o *Orchestrator) GetMetrics() Metrics {
	counts := o.store.StatusCounts()
	return Metrics{
		TotalTasks:    o.store.Len(),
		StatusCounts:  counts,
		QueueDepth:    o.queue.Len(),
		RunningTasks:  counts[models.TaskStatusRunning],
		MaxConcurrent: o.config.MaxConcurrent,
		AgentCount:    o.pool.Count(),
		AgentLoads:    o.pool.Loads(),
		Performance:   o.tracker.All(),
		AvgDuration:   o.tracker.AvgDuration(),
		Strategy:      o.scheduler.Strategy(),
		Weights:       o.scheduler.WeightsSnapshot(),
		PredictedLoad: o.predictor.Predict(5),
	}
}

// maintain is the periodic optimization job: it samples current load for
// the predictor, re-tunes hybrid weights against the ceiling, prunes
// stale performance samples, and warns when the load forecast approaches
// the ceiling. Scheduled by cron at the optimization interval.
func (o *Orchestrator) maintain() {
	running := len(o.store.Running())
	o.predictor.Record(running)

	before := o.scheduler.WeightsSnapshot()
	o.scheduler.AdjustWeights(running)
	after := o.scheduler.WeightsSnapshot()
	if !before.Equal(after) {
		o.logger.Log("[maintain] weights adjusted for running=%d: %v", running, after)
		o.emit(Event{Type: EventWeightsAdjusted})
	}

	o.tracker.Prune()

	predicted := o.predictor.Predict(5)
	ceiling := float64(o.config.MaxConcurrent)
	if predicted > ceiling*0.9 {
		log.Printf("[taskforge] warning: predicted load %.1f approaching ceiling %d", predicted, o.config.MaxConcurrent)
		o.emit(Event{Type: EventLoadWarning})
	}
}
