package system

import (
	"time"

	coresys "github.com/massarena/server/internal/core/system"
	"github.com/massarena/server/internal/net/packet"
	"github.com/massarena/server/internal/world"
)

// BroadcastSystem sends each player what it can see and each spectator the
// whole map, plus the leaderboard when it changed. Phase 4 (Broadcast), at
// the network update rate.
type BroadcastSystem struct {
	world       *world.World
	vis         *world.Visibility
	spectators  *world.Spectators
	leaderboard *world.Leaderboard
	sender      Sender
}

func NewBroadcastSystem(w *world.World, spectators *world.Spectators, lb *world.Leaderboard, sender Sender) *BroadcastSystem {
	return &BroadcastSystem{
		world:       w,
		vis:         world.NewVisibility(),
		spectators:  spectators,
		leaderboard: lb,
		sender:      sender,
	}
}

func (s *BroadcastSystem) Phase() coresys.Phase { return coresys.PhaseBroadcast }

func (s *BroadcastSystem) Update(_ time.Duration) {
	var board []byte
	if s.leaderboard.Changed() {
		board = packet.MustEncode(packet.S_OPCODE_LEADERBOARD,
			packet.LeaderboardOf(s.world.Players.Len(), s.leaderboard.Entries()))
	}

	if s.spectators.Len() > 0 {
		all := world.Everything(s.world)
		for _, id := range s.spectators.IDs() {
			self := packet.SpectatorState(id, s.world.Settings.Width, s.world.Settings.Height)
			s.sender.SendTo(id, packet.MustEncode(packet.S_OPCODE_TICK_STATE, packet.TickStateOf(self, all)))
			if board != nil {
				s.sender.SendTo(id, board)
			}
		}
	}

	s.vis.Enumerate(s.world, func(v world.View) {
		ts := packet.TickStateOf(packet.PlayerStateOf(v.Self), v)
		s.sender.SendTo(v.Self.ID, packet.MustEncode(packet.S_OPCODE_TICK_STATE, ts))
		if board != nil {
			s.sender.SendTo(v.Self.ID, board)
		}
	})

	s.leaderboard.MarkSent()
}
