package system

import (
	"time"

	"github.com/massarena/server/internal/core/event"
	coresys "github.com/massarena/server/internal/core/system"
	"go.uber.org/zap"
)

// EventSystem delivers the lifecycle events emitted during the previous
// tick. Phase 1 (PreUpdate).
type EventSystem struct {
	bus *event.Bus
}

func NewEventSystem(bus *event.Bus) *EventSystem {
	return &EventSystem{bus: bus}
}

func (s *EventSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

// Stats counts lifecycle events since startup.
type Stats struct {
	Joined     int
	Spectators int
	Left       int
	Died       int
	Kicked     int
}

// SubscribeLifecycle logs player lifecycle events and tallies them in stats.
func SubscribeLifecycle(bus *event.Bus, stats *Stats, log *zap.Logger) {
	event.Subscribe(bus, func(e event.PlayerJoined) {
		if e.Spectator {
			stats.Spectators++
			log.Info("spectator joined", zap.Uint64("session", e.PlayerID))
			return
		}
		stats.Joined++
		log.Info("player joined", zap.Uint64("session", e.PlayerID), zap.String("name", e.Name))
	})
	event.Subscribe(bus, func(e event.PlayerLeft) {
		stats.Left++
		log.Info("player disconnected", zap.Uint64("session", e.PlayerID), zap.String("name", e.Name))
	})
	event.Subscribe(bus, func(e event.PlayerDied) {
		stats.Died++
		log.Info("player died",
			zap.Uint64("session", e.PlayerID),
			zap.String("name", e.Name),
			zap.Float64("mass", e.Mass),
		)
	})
	event.Subscribe(bus, func(e event.PlayerKicked) {
		stats.Kicked++
		log.Info("player kicked",
			zap.Uint64("session", e.PlayerID),
			zap.String("name", e.Name),
			zap.String("reason", e.Reason),
		)
	})
}
