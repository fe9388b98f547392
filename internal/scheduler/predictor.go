package scheduler

import (
	"sync"
	"time"
)

// loadSample is one observation of the running-task count.
type loadSample struct {
	at    time.Time
	count int
}

// LoadPredictor keeps a rolling window of running-task counts and
// extrapolates a linear trend. Its output is a soft signal for the
// optimization loop, never a hard admission gate.
type LoadPredictor struct {
	mu      sync.Mutex
	window  time.Duration
	samples []loadSample
	// now is the clock, replaceable in tests.
	now func() time.Time
}

// NewLoadPredictor creates a predictor with the given sample window.
// A non-positive window falls back to one hour.
func NewLoadPredictor(window time.Duration) *LoadPredictor {
	if window <= 0 {
		window = time.Hour
	}
	return &LoadPredictor{window: window, now: time.Now}
}

// Record adds an observation of the current running-task count and drops
// samples that have aged out of the window.
func (p *LoadPredictor) Record(count int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	p.samples = append(p.samples, loadSample{at: now, count: count})

	cutoff := now.Add(-p.window)
	kept := p.samples[:0]
	for _, s := range p.samples {
		if !s.at.Before(cutoff) {
			kept = append(kept, s)
		}
	}
	p.samples = kept
}

// Predict extrapolates the running-task count the given number of minutes
// ahead using a least-squares linear fit over the window. With fewer than
// two samples it returns the most recent observation, or zero with none.
// The result is clamped at zero.
func (p *LoadPredictor) Predict(minutesAhead int) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.samples)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return float64(p.samples[0].count)
	}

	// Least-squares fit of count against seconds since the first sample.
	origin := p.samples[0].at
	var sumX, sumY, sumXY, sumXX float64
	for _, s := range p.samples {
		x := s.at.Sub(origin).Seconds()
		y := float64(s.count)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return float64(p.samples[n-1].count)
	}
	slope := (fn*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / fn

	futureX := p.samples[n-1].at.Sub(origin).Seconds() + float64(minutesAhead)*60
	predicted := slope*futureX + intercept
	if predicted < 0 {
		return 0
	}
	return predicted
}

// SampleCount returns the number of samples currently in the window.
func (p *LoadPredictor) SampleCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.samples)
}
