package system

import (
	"testing"
	"time"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r *recorder) Phase() Phase { return r.phase }

func (r *recorder) Update(time.Duration) {
	*r.log = append(*r.log, r.name)
}

func TestRunnerOrdersByPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(&recorder{name: "broadcast", phase: PhaseBroadcast, log: &log})
	r.Register(&recorder{name: "balance", phase: PhaseBalance, log: &log})
	r.Register(&recorder{name: "physics", phase: PhasePhysics, log: &log})
	r.Register(&recorder{name: "input", phase: PhaseInput, log: &log})

	r.Tick(time.Millisecond)

	want := []string{"input", "physics", "balance", "broadcast"}
	if len(log) != len(want) {
		t.Fatalf("ran %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("ran %v, want %v", log, want)
		}
	}
}

func TestRunnerTickPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(&recorder{name: "physics", phase: PhasePhysics, log: &log})
	r.Register(&recorder{name: "output", phase: PhaseOutput, log: &log})

	r.TickPhase(PhaseOutput, 0)
	if len(log) != 1 || log[0] != "output" {
		t.Fatalf("ran %v, want [output]", log)
	}
}

func TestEveryRunsAtAverageRate(t *testing.T) {
	var log []string
	s := Every(25*time.Millisecond, &recorder{name: "b", phase: PhaseBroadcast, log: &log})

	// 60 ticks of ~16.67ms = 1s, so a 25ms interval runs 40 times.
	tick := time.Second / 60
	for i := 0; i < 60; i++ {
		s.Update(tick)
	}
	if got := len(log); got < 39 || got > 40 {
		t.Fatalf("ran %d times in one second, want 40", got)
	}
}

func TestEveryDoesNotBurstAfterStall(t *testing.T) {
	var log []string
	s := Every(time.Second, &recorder{name: "b", phase: PhaseBalance, log: &log})

	s.Update(10 * time.Second)
	if len(log) != 1 {
		t.Fatalf("ran %d times for one stalled tick, want 1", len(log))
	}
	s.Update(time.Millisecond)
	s.Update(time.Millisecond)
	if len(log) != 2 {
		t.Fatalf("carry-over not capped: ran %d times, want 2", len(log))
	}
}

func TestEveryNonPositiveIntervalRunsEveryTick(t *testing.T) {
	var log []string
	inner := &recorder{name: "p", phase: PhasePhysics, log: &log}
	if s := Every(0, inner); s != System(inner) {
		t.Fatalf("zero interval should return the system unwrapped")
	}
}

type slowSystem struct {
	now *time.Time
	d   time.Duration
}

func (s *slowSystem) Phase() Phase { return PhasePhysics }

func (s *slowSystem) Update(time.Duration) { *s.now = s.now.Add(s.d) }

func TestRunnerReportsOverrun(t *testing.T) {
	now := time.Unix(0, 0)
	r := NewRunner()
	r.clock = func() time.Time { return now }
	slow := &slowSystem{now: &now, d: 5 * time.Millisecond}
	r.Register(slow)

	if r.Tick(10 * time.Millisecond) {
		t.Fatalf("5ms of work reported as overrun of a 10ms tick")
	}
	slow.d = 20 * time.Millisecond
	if !r.Tick(10 * time.Millisecond) {
		t.Fatalf("20ms of work not reported as overrun")
	}
	if r.Ticks() != 2 || r.Elapsed() != 20*time.Millisecond {
		t.Fatalf("ticks = %d, elapsed = %s", r.Ticks(), r.Elapsed())
	}
}
