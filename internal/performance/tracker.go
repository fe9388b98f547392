// Package performance tracks per-agent rolling statistics consumed by
// scheduling strategies.
package performance

import (
	"sync"
	"time"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

// DefaultWindow is the trailing window over which success rates are computed.
const DefaultWindow = time.Hour

// sample is one recorded task completion or failure.
type sample struct {
	at       time.Time
	duration time.Duration
	success  bool
}

// Tracker maintains rolling statistics for every agent.
// Completed-task and duration counters are cumulative; the success rate is
// computed over the trailing window only, so an agent's old failures age out.
type Tracker struct {
	mu      sync.RWMutex
	window  time.Duration
	samples map[string][]sample
	perf    map[string]*models.AgentPerformance
	// now is the clock, replaceable in tests.
	now func() time.Time
}

// NewTracker creates a Tracker with the given trailing window.
// A non-positive window falls back to DefaultWindow.
func NewTracker(window time.Duration) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{
		window:  window,
		samples: make(map[string][]sample),
		perf:    make(map[string]*models.AgentPerformance),
		now:     time.Now,
	}
}

// RecordCompletion records a finished task for the agent and updates its
// statistics. Called from the execution continuation after every task,
// successful or not.
func (t *Tracker) RecordCompletion(agentID string, duration time.Duration, success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.samples[agentID] = append(t.samples[agentID], sample{at: now, duration: duration, success: success})
	t.pruneLocked(agentID, now)

	p := t.getOrInitLocked(agentID)
	p.CompletedTasks++
	p.TotalDuration += duration
	p.AvgTaskTime = p.TotalDuration / time.Duration(p.CompletedTasks)
	p.SuccessRate = t.successRateLocked(agentID)
	p.LastActive = now
}

// Touch updates the agent's last-active timestamp without recording a
// completion. Called when a task is assigned, so round-robin rotation sees
// recently chosen agents as most recently active.
func (t *Tracker) Touch(agentID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.getOrInitLocked(agentID).LastActive = t.now()
}

// Get returns a copy of the agent's statistics.
// Unknown agents report an optimistic default (success rate 1.0).
func (t *Tracker) Get(agentID string) models.AgentPerformance {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if p, ok := t.perf[agentID]; ok {
		return *p
	}
	return models.AgentPerformance{AgentID: agentID, SuccessRate: 1.0}
}

// SuccessRate returns the agent's success rate over the trailing window.
func (t *Tracker) SuccessRate(agentID string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.successRateLocked(agentID)
}

// Score rates an agent for scheduling given its current load.
// The score is strictly decreasing in load and strictly increasing in
// success rate, so a less-loaded, equally reliable agent never scores
// below a busier, less reliable one.
func (t *Tracker) Score(agentID string, load int) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.successRateLocked(agentID)*100 - float64(load)*20
}

// Prune drops samples older than the window for all agents and refreshes
// the derived success rates. Run periodically by the maintenance loop.
func (t *Tracker) Prune() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for agentID := range t.samples {
		t.pruneLocked(agentID, now)
		if p, ok := t.perf[agentID]; ok {
			p.SuccessRate = t.successRateLocked(agentID)
		}
	}
}

// AvgDuration returns the mean task duration across all agents, computed
// from the cumulative totals. Zero when nothing has completed yet.
func (t *Tracker) AvgDuration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var total time.Duration
	var completed int
	for _, p := range t.perf {
		total += p.TotalDuration
		completed += p.CompletedTasks
	}
	if completed == 0 {
		return 0
	}
	return total / time.Duration(completed)
}

// All returns a snapshot of every agent's statistics.
func (t *Tracker) All() []models.AgentPerformance {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]models.AgentPerformance, 0, len(t.perf))
	for _, p := range t.perf {
		out = append(out, *p)
	}
	return out
}

func (t *Tracker) getOrInitLocked(agentID string) *models.AgentPerformance {
	p, ok := t.perf[agentID]
	if !ok {
		p = &models.AgentPerformance{AgentID: agentID, SuccessRate: 1.0}
		t.perf[agentID] = p
	}
	return p
}

// successRateLocked computes successes over total samples in the window.
// Agents with no samples in the window are optimistically rated 1.0.
func (t *Tracker) successRateLocked(agentID string) float64 {
	cutoff := t.now().Add(-t.window)
	var successes, total int
	for _, s := range t.samples[agentID] {
		if s.at.Before(cutoff) {
			continue
		}
		total++
		if s.success {
			successes++
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(successes) / float64(total)
}

// pruneLocked drops samples older than the window for one agent.
func (t *Tracker) pruneLocked(agentID string, now time.Time) {
	cutoff := now.Add(-t.window)
	kept := t.samples[agentID][:0]
	for _, s := range t.samples[agentID] {
		if !s.at.Before(cutoff) {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		delete(t.samples, agentID)
	} else {
		t.samples[agentID] = kept
	}
}
