// Package scheduler selects the best eligible agent for each task using
// one of several strategies or a weighted hybrid vote across them.
package scheduler

// Strategy identifies one agent-selection policy.
type Strategy string

const (
	// StrategyFIFO dispatches in arrival order to the least-loaded agent.
	StrategyFIFO Strategy = "fifo"
	// StrategyPriority routes urgent tasks to the best-performing agent.
	StrategyPriority Strategy = "priority"
	// StrategyShortestJob routes short tasks to the fastest agent.
	StrategyShortestJob Strategy = "shortest_job"
	// StrategyRoundRobin rotates across agents by least-recent activity.
	StrategyRoundRobin Strategy = "round_robin"
	// StrategyLoadBalanced always picks the least-loaded agent.
	StrategyLoadBalanced Strategy = "load_balanced"
	// StrategyDeadlineFirst routes deadline-pressed tasks to the best performer.
	StrategyDeadlineFirst Strategy = "deadline_first"
	// StrategyHybrid runs the weighted strategies and takes a vote.
	StrategyHybrid Strategy = "hybrid"
)

// Valid returns true if the strategy is a known value.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyFIFO, StrategyPriority, StrategyShortestJob, StrategyRoundRobin,
		StrategyLoadBalanced, StrategyDeadlineFirst, StrategyHybrid:
		return true
	default:
		return false
	}
}

// Weights maps voting strategies to their vote weight in hybrid mode.
// Only the four recognized voting strategies carry weight; the hybrid
// strategy itself and the non-voting strategies are excluded.
type Weights map[Strategy]float64

// DefaultWeights returns the baseline hybrid vote weights.
func DefaultWeights() Weights {
	return Weights{
		StrategyPriority:      0.3,
		StrategyLoadBalanced:  0.3,
		StrategyShortestJob:   0.2,
		StrategyDeadlineFirst: 0.2,
	}
}

// highLoadWeights favors load balancing when the system is saturated.
func highLoadWeights() Weights {
	return Weights{
		StrategyLoadBalanced:  0.5,
		StrategyPriority:      0.2,
		StrategyShortestJob:   0.1,
		StrategyDeadlineFirst: 0.2,
	}
}

// lowLoadWeights favors responsiveness when the system is mostly idle.
func lowLoadWeights() Weights {
	return Weights{
		StrategyPriority:      0.4,
		StrategyShortestJob:   0.3,
		StrategyLoadBalanced:  0.2,
		StrategyDeadlineFirst: 0.1,
	}
}

// clone returns a copy of the weights map.
func (w Weights) clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Equal reports whether two weight maps hold the same entries.
func (w Weights) Equal(other Weights) bool {
	if len(w) != len(other) {
		return false
	}
	for k, v := range w {
		if other[k] != v {
			return false
		}
	}
	return true
}
