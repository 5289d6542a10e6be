package system

import "time"

// Phase defines execution ordering within a single tick. Systems that come
// due on the same tick always run in this order.
type Phase int

const (
	PhaseInput     Phase = iota // 0: accept sessions, drain inbound intents
	PhasePreUpdate              // 1: dispatch last tick's lifecycle events
	PhasePhysics                // 2: movement, consumption, collisions
	PhaseBalance                // 3: leaderboard, mass loss, mass balancing
	PhaseBroadcast              // 4: per-viewer state
	PhaseOutput                 // 5: flush session outboxes
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "Input"
	case PhasePreUpdate:
		return "PreUpdate"
	case PhasePhysics:
		return "Physics"
	case PhaseBalance:
		return "Balance"
	case PhaseBroadcast:
		return "Broadcast"
	case PhaseOutput:
		return "Output"
	default:
		return "Unknown"
	}
}

// System is the interface every tick participant implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}

// every wraps a System so it only runs once per interval of accumulated
// tick time. Leftover time carries over, so a 25ms system on a 16ms tick
// runs on roughly two ticks out of three rather than drifting.
type every struct {
	inner    System
	interval time.Duration
	acc      time.Duration
}

// Every returns s gated to run at most once per tick and on average once per
// interval. A non-positive interval runs s every tick.
func Every(interval time.Duration, s System) System {
	if interval <= 0 {
		return s
	}
	return &every{inner: s, interval: interval}
}

func (e *every) Phase() Phase { return e.inner.Phase() }

func (e *every) Update(dt time.Duration) {
	e.acc += dt
	if e.acc < e.interval {
		return
	}
	e.acc -= e.interval
	// A stalled loop must not produce a burst of catch-up runs.
	if e.acc > e.interval {
		e.acc = e.interval
	}
	e.inner.Update(e.interval)
}
