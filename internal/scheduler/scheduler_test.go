package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ShayCichocki/taskforge/internal/capability"
	"github.com/ShayCichocki/taskforge/internal/performance"
	"github.com/ShayCichocki/taskforge/internal/pool"
	"github.com/ShayCichocki/taskforge/pkg/models"
)

// fixture wires a scheduler with a registry, pool, and tracker, plus a
// couple of pre-created general agents for strategy tests.
type fixture struct {
	sched   *Scheduler
	pool    *pool.Pool
	tracker *performance.Tracker
	agents  []string
}

func newFixture(t *testing.T, agentCount int) *fixture {
	t.Helper()

	reg := capability.NewRegistry()
	tr := performance.NewTracker(time.Hour)

	var seq int
	names := []string{"agent-a", "agent-b", "agent-c", "agent-d"}
	p := pool.New(pool.FactoryFunc(func(_ context.Context, kind models.AgentKind) (*models.Agent, error) {
		id := names[seq%len(names)]
		seq++
		return &models.Agent{ID: id, Kind: kind, CreatedAt: time.Now()}, nil
	}))

	f := &fixture{
		pool:    p,
		tracker: tr,
		sched:   New(reg, p, tr, Config{MaxConcurrent: 10}),
	}

	cap, _ := reg.Lookup("conversation")
	for i := 0; i < agentCount; i++ {
		// Saturate existing agents so GetOrCreate instantiates a fresh one.
		for _, id := range f.agents {
			for p.Load(id) < cap.MaxConcurrentTasks {
				p.Increment(id)
			}
		}
		id, err := p.GetOrCreate(context.Background(), cap)
		if err != nil {
			t.Fatal(err)
		}
		f.agents = append(f.agents, id)
		// Reset loads for the tests.
		for _, a := range f.agents {
			for p.Load(a) > 0 {
				p.Decrement(a)
			}
		}
	}
	return f
}

func task(priority models.TaskPriority, desc string) models.Task {
	return models.Task{
		ID:          "t1",
		Type:        "conversation",
		Description: desc,
		Priority:    priority,
		CreatedAt:   time.Now(),
	}
}

func TestSelectAgentUnknownType(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.sched.SelectAgent(context.Background(), models.Task{ID: "t1", Type: "nope"})
	if err == nil {
		t.Fatal("expected error for unknown task type")
	}
	var notFound *capability.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("expected capability.ErrNotFound, got %v", err)
	}
}

func TestSelectAgentCreatesWhenEmpty(t *testing.T) {
	f := newFixture(t, 0)

	id, err := f.sched.SelectAgent(context.Background(), task(models.PriorityNormal, ""))
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("expected an agent to be created")
	}
	if f.pool.Count() != 1 {
		t.Errorf("expected pool of 1, got %d", f.pool.Count())
	}
}

func TestSelectAgentNoneAvailable(t *testing.T) {
	reg := capability.NewRegistry()
	tr := performance.NewTracker(time.Hour)
	p := pool.New(pool.FactoryFunc(func(context.Context, models.AgentKind) (*models.Agent, error) {
		return nil, errors.New("factory down")
	}))
	s := New(reg, p, tr, Config{})

	id, err := s.SelectAgent(context.Background(), task(models.PriorityNormal, ""))
	if err != nil {
		t.Fatalf("no-agent must not be an error: %v", err)
	}
	if id != "" {
		t.Errorf("expected empty agent id, got %s", id)
	}
}

func TestLoadBalancedPicksLeastLoaded(t *testing.T) {
	f := newFixture(t, 2)
	f.sched.SetStrategy(StrategyLoadBalanced)

	f.pool.Increment(f.agents[0])

	id, err := f.sched.SelectAgent(context.Background(), task(models.PriorityNormal, ""))
	if err != nil {
		t.Fatal(err)
	}
	if id != f.agents[1] {
		t.Errorf("expected least-loaded %s, got %s", f.agents[1], id)
	}
}

func TestPriorityRoutesUrgentToBestPerformer(t *testing.T) {
	f := newFixture(t, 2)
	f.sched.SetStrategy(StrategyPriority)

	// agents[0] is reliable, agents[1] is not; agents[1] is idle.
	f.tracker.RecordCompletion(f.agents[0], time.Second, true)
	f.tracker.RecordCompletion(f.agents[1], time.Second, false)
	f.pool.Increment(f.agents[0])

	id, _ := f.sched.SelectAgent(context.Background(), task(models.PriorityUrgent, ""))
	if id != f.agents[0] {
		t.Errorf("urgent task must go to most reliable agent %s, got %s", f.agents[0], id)
	}

	// A normal task falls back to load balancing and picks the idle one.
	id, _ = f.sched.SelectAgent(context.Background(), task(models.PriorityNormal, ""))
	if id != f.agents[1] {
		t.Errorf("normal task must go to least loaded agent %s, got %s", f.agents[1], id)
	}
}

func TestShortestJobPrefersFastestAgent(t *testing.T) {
	f := newFixture(t, 2)
	f.sched.SetStrategy(StrategyShortestJob)

	// agents[1] is historically faster.
	f.tracker.RecordCompletion(f.agents[0], 40*time.Second, true)
	f.tracker.RecordCompletion(f.agents[1], 5*time.Second, true)

	// conversation baseline is 15s, well under the 60s threshold.
	id, _ := f.sched.SelectAgent(context.Background(), task(models.PriorityNormal, ""))
	if id != f.agents[1] {
		t.Errorf("short job must go to fastest agent %s, got %s", f.agents[1], id)
	}
}

func TestRoundRobinPicksLeastRecentlyActive(t *testing.T) {
	f := newFixture(t, 2)
	f.sched.SetStrategy(StrategyRoundRobin)

	f.tracker.Touch(f.agents[0])
	// agents[1] never active, so it sorts first.

	id, _ := f.sched.SelectAgent(context.Background(), task(models.PriorityNormal, ""))
	if id != f.agents[1] {
		t.Errorf("expected least recently active agent %s, got %s", f.agents[1], id)
	}
}

func TestDeadlineFirstEscalatesNearDeadline(t *testing.T) {
	f := newFixture(t, 2)
	f.sched.SetStrategy(StrategyDeadlineFirst)

	f.tracker.RecordCompletion(f.agents[0], time.Second, true)
	f.tracker.RecordCompletion(f.agents[1], time.Second, false)
	f.pool.Increment(f.agents[0]) // best performer is busier

	tk := task(models.PriorityNormal, "")
	tk.Input = map[string]interface{}{
		"deadline": time.Now().Add(time.Minute).Format(time.RFC3339),
	}

	id, _ := f.sched.SelectAgent(context.Background(), tk)
	if id != f.agents[0] {
		t.Errorf("deadline-pressed task must go to best performer %s, got %s", f.agents[0], id)
	}
}

func TestHybridVoteConverges(t *testing.T) {
	f := newFixture(t, 2)
	// Default strategy is hybrid.

	// agents[0] is both the least loaded and the most reliable, so every
	// voting strategy agrees on it.
	f.tracker.RecordCompletion(f.agents[0], time.Second, true)
	f.tracker.RecordCompletion(f.agents[1], time.Second, false)
	f.pool.Increment(f.agents[1])

	id, err := f.sched.SelectAgent(context.Background(), task(models.PriorityNormal, ""))
	if err != nil {
		t.Fatal(err)
	}
	if id != f.agents[0] {
		t.Errorf("expected unanimous winner %s, got %s", f.agents[0], id)
	}
}

func TestHybridTieBreaksByLoadThenID(t *testing.T) {
	f := newFixture(t, 2)

	// Identical performance; agents split the vote evenly, so the tie
	// breaks by load, then lexicographic ID.
	id, err := f.sched.SelectAgent(context.Background(), task(models.PriorityNormal, ""))
	if err != nil {
		t.Fatal(err)
	}
	want := f.agents[0]
	if f.agents[1] < want {
		want = f.agents[1]
	}
	if id != want {
		t.Errorf("expected lexicographic tie-break %s, got %s", want, id)
	}
}

func TestEstimateDuration(t *testing.T) {
	cap := models.Capability{EstimatedDuration: 100 * time.Second}

	tests := []struct {
		desc     string
		priority models.TaskPriority
		want     time.Duration
	}{
		{"plain work", models.PriorityNormal, 100 * time.Second},
		{"a complex migration", models.PriorityNormal, 150 * time.Second},
		{"a simple rename", models.PriorityNormal, 70 * time.Second},
		{"plain work", models.PriorityUrgent, 80 * time.Second},
		{"complex and urgent", models.PriorityUrgent, 120 * time.Second},
	}

	for _, tt := range tests {
		tk := models.Task{Description: tt.desc, Priority: tt.priority}
		if got := EstimateDuration(tk, cap); got != tt.want {
			t.Errorf("EstimateDuration(%q, %s) = %v, want %v", tt.desc, tt.priority, got, tt.want)
		}
	}
}

func TestDeadlineFromPriority(t *testing.T) {
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		priority models.TaskPriority
		want     time.Time
	}{
		{models.PriorityUrgent, created.Add(5 * time.Minute)},
		{models.PriorityHigh, created.Add(time.Hour)},
		{models.PriorityNormal, created.Add(24 * time.Hour)},
		{models.PriorityLow, created.Add(72 * time.Hour)},
	}

	for _, tt := range tests {
		tk := models.Task{Priority: tt.priority, CreatedAt: created}
		if got := Deadline(tk); !got.Equal(tt.want) {
			t.Errorf("Deadline(%s) = %v, want %v", tt.priority, got, tt.want)
		}
	}
}

func TestDeadlineExplicitOverridesPriority(t *testing.T) {
	explicit := time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)
	tk := models.Task{
		Priority:  models.PriorityLow,
		CreatedAt: time.Now(),
		Input:     map[string]interface{}{"deadline": explicit.Format(time.RFC3339)},
	}

	if got := Deadline(tk); !got.Equal(explicit) {
		t.Errorf("expected explicit deadline %v, got %v", explicit, got)
	}
}

func TestAdjustWeights(t *testing.T) {
	f := newFixture(t, 0)
	// Ceiling is 10 (fixture config).

	f.sched.AdjustWeights(9) // > 80%
	if w := f.sched.WeightsSnapshot(); w[StrategyLoadBalanced] != 0.5 {
		t.Errorf("high load must favor load balancing, got %v", w)
	}

	f.sched.AdjustWeights(1) // < 30%
	if w := f.sched.WeightsSnapshot(); w[StrategyPriority] != 0.4 {
		t.Errorf("low load must favor priority, got %v", w)
	}

	f.sched.AdjustWeights(5) // middle band
	if w := f.sched.WeightsSnapshot(); w[StrategyPriority] != 0.3 || w[StrategyLoadBalanced] != 0.3 {
		t.Errorf("middle band must restore defaults, got %v", w)
	}
}

func TestSetWeightsFiltersUnknown(t *testing.T) {
	f := newFixture(t, 0)

	f.sched.SetWeights(Weights{
		StrategyPriority: 0.9,
		Strategy("bogus"): 0.1,
	})

	w := f.sched.WeightsSnapshot()
	if w[StrategyPriority] != 0.9 {
		t.Errorf("expected priority weight 0.9, got %v", w)
	}
	if _, ok := w[Strategy("bogus")]; ok {
		t.Error("unknown strategy must be filtered out")
	}
}
