package models

import "time"

// AgentPerformance holds rolling statistics for a single agent.
// One record exists per agent, owned by the performance tracker and
// read by scheduling strategies.
type AgentPerformance struct {
	// AgentID is the agent these statistics describe.
	AgentID string `json:"agent_id"`
	// CompletedTasks is the number of tasks the agent has finished.
	CompletedTasks int `json:"completed_tasks"`
	// TotalDuration is the cumulative execution time of finished tasks.
	TotalDuration time.Duration `json:"total_duration"`
	// SuccessRate is the fraction of successful completions over the
	// trailing window, in [0, 1].
	SuccessRate float64 `json:"success_rate"`
	// AvgTaskTime is TotalDuration divided by CompletedTasks.
	AvgTaskTime time.Duration `json:"avg_task_time"`
	// LastActive is the most recent time the agent finished or was assigned work.
	LastActive time.Time `json:"last_active"`
}
