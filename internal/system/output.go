package system

import (
	"time"

	coresys "github.com/massarena/server/internal/core/system"
)

// Flusher hands buffered packets to the writer goroutines.
type Flusher interface {
	FlushAll()
}

// OutputSystem flushes every session outbox at the end of the tick.
type OutputSystem struct {
	out Flusher
}

func NewOutputSystem(out Flusher) *OutputSystem {
	return &OutputSystem{out: out}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.out.FlushAll()
}
