package system

import (
	"cmp"
	"slices"
	"time"
)

// Runner drives the fixed-step game loop. Systems run in phase order and
// keep registration order within a phase.
type Runner struct {
	systems []System
	dirty   bool

	ticks   uint64
	elapsed time.Duration // wall time spent in the last Tick
	clock   func() time.Time
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 8),
		clock:   time.Now,
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.dirty = true
}

// Tick advances every system by dt and reports whether the work took longer
// than dt, in which case the loop is falling behind.
func (r *Runner) Tick(dt time.Duration) (overrun bool) {
	r.order()
	start := r.clock()
	for _, s := range r.systems {
		s.Update(dt)
	}
	r.ticks++
	r.elapsed = r.clock().Sub(start)
	return r.elapsed > dt
}

// TickPhase runs only the systems of one phase without counting a tick.
// Shutdown uses it to flush pending output.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.order()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(dt)
		}
	}
}

// Ticks is the number of completed Tick calls.
func (r *Runner) Ticks() uint64 { return r.ticks }

// Elapsed is the wall time the last Tick took.
func (r *Runner) Elapsed() time.Duration { return r.elapsed }

func (r *Runner) order() {
	if !r.dirty {
		return
	}
	slices.SortStableFunc(r.systems, func(a, b System) int {
		return cmp.Compare(a.Phase(), b.Phase())
	})
	r.dirty = false
}
