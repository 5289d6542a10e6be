package system

import (
	"fmt"
	"time"

	"github.com/massarena/server/internal/core/event"
	coresys "github.com/massarena/server/internal/core/system"
	"github.com/massarena/server/internal/net/packet"
	"github.com/massarena/server/internal/world"
	"go.uber.org/zap"
)

// PhysicsSystem advances the arena by one tick: stale clients are kicked,
// then players move and eat, pellets fly and cells of different players eat
// each other. Phase 2 (Physics), every tick.
type PhysicsSystem struct {
	world        *world.World
	sender       Sender
	bus          *event.Bus
	maxHeartbeat time.Duration
	now          func() time.Time
	log          *zap.Logger
}

func NewPhysicsSystem(w *world.World, sender Sender, bus *event.Bus, maxHeartbeat time.Duration, now func() time.Time, log *zap.Logger) *PhysicsSystem {
	return &PhysicsSystem{world: w, sender: sender, bus: bus, maxHeartbeat: maxHeartbeat, now: now, log: log}
}

func (s *PhysicsSystem) Phase() coresys.Phase { return coresys.PhasePhysics }

func (s *PhysicsSystem) Update(_ time.Duration) {
	now := s.now()
	s.kickStale(now)

	for _, d := range s.world.Step(now) {
		s.sender.Broadcast(packet.MustEncode(packet.S_OPCODE_PLAYER_DIED, packet.NameNotice{Name: d.Name}), 0)
		s.sender.SendTo(d.PlayerID, packet.MustEncode(packet.S_OPCODE_RIP, nil))
		s.sender.SetState(d.PlayerID, packet.StateDead)
		event.Emit(s.bus, event.PlayerDied{PlayerID: d.PlayerID, Name: d.Name, Mass: d.Mass})
	}
}

func (s *PhysicsSystem) kickStale(now time.Time) {
	if s.maxHeartbeat <= 0 {
		return
	}
	var stale []*world.Player
	s.world.Players.Each(func(p *world.Player) bool {
		if p.HeartbeatStale(now, s.maxHeartbeat) {
			stale = append(stale, p)
		}
		return true
	})
	for _, p := range stale {
		reason := fmt.Sprintf("Last heartbeat received over %s ago.", s.maxHeartbeat)
		s.sender.Kick(p.ID, reason)
		s.world.Players.Remove(p.ID)
		event.Emit(s.bus, event.PlayerKicked{PlayerID: p.ID, Name: p.Name, Reason: reason})
	}
}
