// Package engine provides the city simulation and the frame loop that drives it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/talgya/tilecity/internal/city"
)

// DefaultFrameInterval is the wall-clock time between frames (30 fps).
const DefaultFrameInterval = time.Second / 30

// Engine drives a Simulation forward one frame at a time. Growth runs every
// frame and the monthly pipeline every FramesPerMonth frames. All access to
// the simulation goes through the engine's lock, so readers on other
// goroutines only ever see state between frames.
type Engine struct {
	mu  sync.Mutex
	sim *Simulation

	Frame          uint64        // Frames run since start (not advanced while paused)
	FramesPerMonth int           // Monthly cadence
	Interval       time.Duration // Wall-clock time per frame

	// OnMonth is called after every monthly pass, outside the lock.
	OnMonth func(MonthlyReport)
}

// NewEngine wraps sim with the cadence from its tuning.
func NewEngine(sim *Simulation) *Engine {
	fpm := sim.Tuning().FramesPerMonth
	if fpm <= 0 {
		fpm = 20
	}
	return &Engine{
		sim:            sim,
		FramesPerMonth: fpm,
		Interval:       DefaultFrameInterval,
	}
}

// Run steps the simulation every Interval until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	interval := e.Interval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	slog.Info("simulation engine started", "frame", e.frame(), "interval", interval)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation engine stopped", "frame", e.frame())
			return
		case <-t.C:
			e.Step()
		}
	}
}

// Step runs one frame. It reports the monthly pass when one ran.
func (e *Engine) Step() (MonthlyReport, bool) {
	e.mu.Lock()
	if e.sim.State.Paused {
		e.mu.Unlock()
		return MonthlyReport{}, false
	}
	e.Frame++
	e.sim.Grow()

	var (
		rep MonthlyReport
		ran bool
	)
	if e.Frame%uint64(e.FramesPerMonth) == 0 {
		rep, ran = e.sim.MonthlyUpdate(), true
	}
	cb := e.OnMonth
	e.mu.Unlock()

	if ran && cb != nil {
		cb(rep)
	}
	return rep, ran
}

// Months runs whole months back to back, ignoring the wall clock.
func (e *Engine) Months(n int) []MonthlyReport {
	out := make([]MonthlyReport, 0, n)
	for len(out) < n {
		rep, ran := e.Step()
		if ran {
			out = append(out, rep)
			continue
		}
		e.mu.Lock()
		paused := e.sim.State.Paused
		e.mu.Unlock()
		if paused {
			break
		}
	}
	return out
}

func (e *Engine) frame() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Frame
}

// Do runs fn with exclusive access to the simulation.
func (e *Engine) Do(fn func(*Simulation)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.sim)
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() *State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim.Snapshot()
}

// Restore replaces the simulation state wholesale.
func (e *Engine) Restore(st *State) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim.Restore(st)
}

// Events returns the last n events.
func (e *Engine) Events(n int) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim.RecentEvents(n)
}

// Subscribe registers for new events. See Simulation.Subscribe.
func (e *Engine) Subscribe() (int, <-chan Event) { return e.sim.Subscribe() }

// Unsubscribe removes a subscription.
func (e *Engine) Unsubscribe(id int) { e.sim.Unsubscribe(id) }

// Apply runs mode at (x, y).
func (e *Engine) Apply(x, y int, mode city.BuildMode) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim.ApplyMode(x, y, mode)
}

// ErrOffGrid rejects a line whose endpoints fall outside the map.
var ErrOffGrid = errors.New("line endpoint off the grid")

// BuildLine applies mode to every cell on the line from (x0, y0) to
// (x1, y1) and returns how many applications succeeded. Cells already
// covered by a footprint placed earlier on the line simply fail. Both
// endpoints must lie on the grid.
func (e *Engine) BuildLine(x0, y0, x1, y1 int, mode city.BuildMode) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g := e.sim.State.Grid
	if !g.InBounds(x0, y0) || !g.InBounds(x1, y1) {
		return 0, fmt.Errorf("%w: (%d,%d) to (%d,%d) on a %d map", ErrOffGrid, x0, y0, x1, y1, g.Size)
	}
	n := 0
	for _, p := range city.Line(city.Point{X: x0, Y: y0}, city.Point{X: x1, Y: y1}) {
		if e.sim.ApplyMode(p.X, p.Y, mode) {
			n++
		}
	}
	return n, nil
}
