// Package sim drives the simulation: a fixed-step loop advancing a
// simulated clock and updating the registered components in order once
// per tick. All core logic is cooperative within that single pass;
// nothing in the core blocks between ticks.
package sim

import (
	"context"
	"log/slog"
	"math"
	"sync/atomic"
	"time"
)

// Updatable is one component advanced by the loop each tick.
// Components run in registration order within the same tick, so
// bookkeeping triggered by one component is visible to the next.
type Updatable interface {
	Update(now, dt float64)
}

// UpdateFunc adapts a plain function to Updatable.
type UpdateFunc func(now, dt float64)

// Update implements Updatable.
func (f UpdateFunc) Update(now, dt float64) {
	f(now, dt)
}

// Loop is the fixed-step simulation driver.
type Loop struct {
	step       float64
	components []Updatable

	stopCh  chan struct{}
	stopped atomic.Bool

	now   atomic.Uint64 // float64 bits of the simulated clock
	ticks atomic.Int64
}

// NewLoop creates a loop with the given fixed step in seconds.
func NewLoop(step float64) *Loop {
	return &Loop{
		step:   step,
		stopCh: make(chan struct{}),
	}
}

// Add registers a component. Not safe to call once Run has started.
func (l *Loop) Add(u Updatable) {
	l.components = append(l.components, u)
}

// Run drives the loop in real time until the context is canceled or
// Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	interval := time.Duration(l.step * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("simulation loop started",
		"step", interval,
		"components", len(l.components))

	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation loop stopping")
			return ctx.Err()

		case <-l.stopCh:
			slog.Info("simulation loop stopped")
			return nil

		case <-ticker.C:
			l.Step()
		}
	}
}

// Step advances the simulation by exactly one fixed step. Exposed for
// headless and test driving without real time.
func (l *Loop) Step() {
	now := l.Now() + l.step
	l.now.Store(math.Float64bits(now))
	l.ticks.Add(1)

	for _, c := range l.components {
		c.Update(now, l.step)
	}
}

// Stop halts Run. Idempotent.
func (l *Loop) Stop() {
	if l.stopped.CompareAndSwap(false, true) {
		close(l.stopCh)
	}
}

// Now returns the simulated clock in seconds.
func (l *Loop) Now() float64 {
	return math.Float64frombits(l.now.Load())
}

// Ticks returns the number of completed steps.
func (l *Loop) Ticks() int64 {
	return l.ticks.Load()
}
