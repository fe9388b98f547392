package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ShayCichocki/taskforge/internal/capability"
	"github.com/ShayCichocki/taskforge/internal/performance"
	"github.com/ShayCichocki/taskforge/internal/pool"
	"github.com/ShayCichocki/taskforge/pkg/models"
)

// shortJobThreshold is the estimated duration under which the shortest-job
// strategy prefers the historically fastest agent.
const shortJobThreshold = 60 * time.Second

// deadlinePressure is the remaining time under which the deadline-first
// strategy escalates to the best-performing agent.
const deadlinePressure = 5 * time.Minute

// Scheduler picks the best eligible agent for a task.
type Scheduler struct {
	registry *capability.Registry
	pool     *pool.Pool
	tracker  *performance.Tracker

	// mu protects strategy and weights, which the optimization loop and
	// config watcher rewrite at runtime.
	mu       sync.RWMutex
	strategy Strategy
	weights  Weights
	// maxConcurrent is the system-wide concurrency ceiling used by
	// adaptive weight tuning.
	maxConcurrent int

	// debugLog is an optional logging function.
	debugLog func(format string, args ...interface{})
}

// Config contains construction options for the Scheduler.
type Config struct {
	// Strategy is the active selection strategy. Defaults to hybrid.
	Strategy Strategy
	// Weights are the hybrid vote weights. Defaults to DefaultWeights.
	Weights Weights
	// MaxConcurrent is the system-wide concurrency ceiling.
	MaxConcurrent int
}

// New creates a Scheduler over the given registry, pool, and tracker.
func New(reg *capability.Registry, p *pool.Pool, tr *performance.Tracker, cfg Config) *Scheduler {
	strategy := cfg.Strategy
	if !strategy.Valid() {
		strategy = StrategyHybrid
	}
	weights := cfg.Weights
	if len(weights) == 0 {
		weights = DefaultWeights()
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 50
	}

	return &Scheduler{
		registry:      reg,
		pool:          p,
		tracker:       tr,
		strategy:      strategy,
		weights:       weights.clone(),
		maxConcurrent: maxConcurrent,
		debugLog:      func(format string, args ...interface{}) {},
	}
}

// SetDebugLog sets the debug logging function.
func (s *Scheduler) SetDebugLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		s.debugLog = fn
	}
}

// SelectAgent returns the agent that should execute the task, creating a
// new agent when no existing one has spare capacity. Returns "" when no
// agent can be provided; the caller must requeue the task.
// Returns an error only for unknown task types.
func (s *Scheduler) SelectAgent(ctx context.Context, task models.Task) (string, error) {
	cap, err := s.registry.Lookup(task.Type)
	if err != nil {
		return "", fmt.Errorf("select agent for task %s: %w", task.ID, err)
	}

	candidates := s.pool.Candidates(cap)
	if len(candidates) == 0 {
		agentID, err := s.pool.GetOrCreate(ctx, cap)
		if err != nil {
			s.debugLog("[scheduler] no agent available for task %s: %v", task.ID, err)
			return "", nil
		}
		s.tracker.Touch(agentID)
		return agentID, nil
	}

	s.mu.RLock()
	strategy := s.strategy
	s.mu.RUnlock()

	agentID := s.applyStrategy(strategy, task, cap, candidates)
	if agentID == "" {
		return "", nil
	}

	s.debugLog("[scheduler] strategy %s picked agent %s for task %s", strategy, agentID, task.ID)
	s.tracker.Touch(agentID)
	return agentID, nil
}

// applyStrategy dispatches to the selection rule for the given strategy.
func (s *Scheduler) applyStrategy(strategy Strategy, task models.Task, cap models.Capability, candidates []string) string {
	switch strategy {
	case StrategyFIFO, StrategyLoadBalanced:
		return s.leastLoaded(candidates)
	case StrategyPriority:
		return s.prioritySelect(task, candidates)
	case StrategyShortestJob:
		return s.shortestJobSelect(task, cap, candidates)
	case StrategyRoundRobin:
		return s.roundRobinSelect(candidates)
	case StrategyDeadlineFirst:
		return s.deadlineFirstSelect(task, candidates)
	default:
		return s.hybridSelect(task, cap, candidates)
	}
}

// leastLoaded returns the candidate with the lowest current load,
// breaking ties by lexicographic agent ID.
func (s *Scheduler) leastLoaded(candidates []string) string {
	best := ""
	bestLoad := -1
	for _, id := range candidates {
		load := s.pool.Load(id)
		if best == "" || load < bestLoad || (load == bestLoad && id < best) {
			best, bestLoad = id, load
		}
	}
	return best
}

// bestPerforming returns the candidate with the highest success rate,
// breaking ties by lowest load then lexicographic agent ID.
func (s *Scheduler) bestPerforming(candidates []string) string {
	best := ""
	bestRate := -1.0
	for _, id := range candidates {
		rate := s.tracker.SuccessRate(id)
		switch {
		case best == "" || rate > bestRate:
			best, bestRate = id, rate
		case rate == bestRate:
			if li, lb := s.pool.Load(id), s.pool.Load(best); li < lb || (li == lb && id < best) {
				best = id
			}
		}
	}
	return best
}

// fastest returns the candidate with the lowest historical average task
// time. Agents with no history sort last, matching the intuition that an
// unknown agent is not a proven fast responder.
func (s *Scheduler) fastest(candidates []string) string {
	best := ""
	bestAvg := time.Duration(-1)
	for _, id := range candidates {
		avg := s.tracker.Get(id).AvgTaskTime
		if avg == 0 {
			avg = time.Duration(1<<62 - 1)
		}
		if best == "" || avg < bestAvg || (avg == bestAvg && id < best) {
			best, bestAvg = id, avg
		}
	}
	return best
}

// prioritySelect routes urgent tasks to the most reliable agent and
// everything else to the least-loaded one.
func (s *Scheduler) prioritySelect(task models.Task, candidates []string) string {
	if task.Priority == models.PriorityUrgent {
		return s.bestPerforming(candidates)
	}
	return s.leastLoaded(candidates)
}

// shortestJobSelect estimates the task duration and routes short jobs to
// the fastest responder.
func (s *Scheduler) shortestJobSelect(task models.Task, cap models.Capability, candidates []string) string {
	if EstimateDuration(task, cap) < shortJobThreshold {
		return s.fastest(candidates)
	}
	return s.leastLoaded(candidates)
}

// roundRobinSelect picks the candidate least recently active.
// Agents that were never active sort first.
func (s *Scheduler) roundRobinSelect(candidates []string) string {
	best := ""
	var bestActive time.Time
	for _, id := range candidates {
		active := s.tracker.Get(id).LastActive
		if best == "" || active.Before(bestActive) || (active.Equal(bestActive) && id < best) {
			best, bestActive = id, active
		}
	}
	return best
}

// deadlineFirstSelect escalates tasks whose deadline is near to the most
// reliable agent; tasks with slack go to the least-loaded one.
func (s *Scheduler) deadlineFirstSelect(task models.Task, candidates []string) string {
	deadline := Deadline(task)
	if time.Until(deadline) < deadlinePressure {
		return s.bestPerforming(candidates)
	}
	return s.leastLoaded(candidates)
}

// hybridSelect runs every voting strategy, sums each candidate's weighted
// votes, and picks the winner. Ties break by lowest current load, then
// lexicographic agent ID.
func (s *Scheduler) hybridSelect(task models.Task, cap models.Capability, candidates []string) string {
	s.mu.RLock()
	weights := s.weights.clone()
	s.mu.RUnlock()

	votes := make(map[string]float64)
	cast := func(strategy Strategy, agentID string) {
		if agentID != "" {
			votes[agentID] += weights[strategy]
		}
	}

	cast(StrategyPriority, s.prioritySelect(task, candidates))
	cast(StrategyLoadBalanced, s.leastLoaded(candidates))
	cast(StrategyShortestJob, s.shortestJobSelect(task, cap, candidates))
	cast(StrategyDeadlineFirst, s.deadlineFirstSelect(task, candidates))

	if len(votes) == 0 {
		return ""
	}

	ids := make([]string, 0, len(votes))
	for id := range votes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		vi, vj := votes[ids[i]], votes[ids[j]]
		if vi != vj {
			return vi > vj
		}
		li, lj := s.pool.Load(ids[i]), s.pool.Load(ids[j])
		if li != lj {
			return li < lj
		}
		return ids[i] < ids[j]
	})
	return ids[0]
}

// EstimateDuration predicts how long a task will run from its capability
// baseline, adjusted by keyword complexity hints in the description and
// by priority (urgent tasks are executed with more headroom).
func EstimateDuration(task models.Task, cap models.Capability) time.Duration {
	base := cap.EstimatedDuration
	if base <= 0 {
		base = 60 * time.Second
	}

	estimate := float64(base)
	desc := strings.ToLower(task.Description)
	if strings.Contains(desc, "complex") {
		estimate *= 1.5
	} else if strings.Contains(desc, "simple") {
		estimate *= 0.7
	}
	if task.Priority == models.PriorityUrgent {
		estimate *= 0.8
	}
	return time.Duration(estimate)
}

// Deadline returns the task's effective deadline: an explicit RFC 3339
// "deadline" value in the input payload if present and parseable,
// otherwise an offset from creation time inferred from priority.
func Deadline(task models.Task) time.Time {
	if raw, ok := task.Input["deadline"]; ok {
		if str, ok := raw.(string); ok {
			if t, err := time.Parse(time.RFC3339, str); err == nil {
				return t
			}
		}
	}

	switch task.Priority {
	case models.PriorityUrgent:
		return task.CreatedAt.Add(5 * time.Minute)
	case models.PriorityHigh:
		return task.CreatedAt.Add(time.Hour)
	case models.PriorityNormal:
		return task.CreatedAt.Add(24 * time.Hour)
	default:
		return task.CreatedAt.Add(3 * 24 * time.Hour)
	}
}

// SetWeights replaces the hybrid vote weights. Unknown strategy names in
// the map are ignored. Used by the config watcher for hot reload.
func (s *Scheduler) SetWeights(weights Weights) {
	filtered := make(Weights)
	for strategy, w := range weights {
		switch strategy {
		case StrategyPriority, StrategyLoadBalanced, StrategyShortestJob, StrategyDeadlineFirst:
			filtered[strategy] = w
		}
	}
	if len(filtered) == 0 {
		return
	}

	s.mu.Lock()
	s.weights = filtered
	s.mu.Unlock()
	s.debugLog("[scheduler] weights updated: %v", filtered)
}

// WeightsSnapshot returns a copy of the current hybrid vote weights.
func (s *Scheduler) WeightsSnapshot() Weights {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weights.clone()
}

// SetStrategy switches the active selection strategy.
func (s *Scheduler) SetStrategy(strategy Strategy) {
	if !strategy.Valid() {
		return
	}
	s.mu.Lock()
	s.strategy = strategy
	s.mu.Unlock()
}

// Strategy returns the active selection strategy.
func (s *Scheduler) Strategy() Strategy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.strategy
}

// AdjustWeights re-tunes hybrid vote weights from the current running-task
// count: above 80% of the ceiling load balancing dominates, below 30% the
// responsiveness strategies do, otherwise the defaults are restored.
func (s *Scheduler) AdjustWeights(running int) {
	ceiling := float64(s.maxConcurrent)
	var next Weights
	switch {
	case float64(running) > ceiling*0.8:
		next = highLoadWeights()
	case float64(running) < ceiling*0.3:
		next = lowLoadWeights()
	default:
		next = DefaultWeights()
	}

	s.mu.Lock()
	s.weights = next
	s.mu.Unlock()
	s.debugLog("[scheduler] adjusted weights for running=%d: %v", running, next)
}

// MaxConcurrent returns the system-wide concurrency ceiling.
func (s *Scheduler) MaxConcurrent() int {
	return s.maxConcurrent
}
