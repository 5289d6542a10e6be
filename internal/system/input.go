package system

import (
	"time"

	"github.com/massarena/server/internal/core/event"
	coresys "github.com/massarena/server/internal/core/system"
	"github.com/massarena/server/internal/net"
	"github.com/massarena/server/internal/net/packet"
	"github.com/massarena/server/internal/world"
	"go.uber.org/zap"
)

// SessionSource yields newly admitted sessions.
type SessionSource interface {
	NewSessions() <-chan *net.Session
}

// InputSystem admits new sessions, drains packet queues through the packet
// registry and cleans up after closed sessions. Phase 0 (Input).
type InputSystem struct {
	source     SessionSource
	registry   *packet.Registry
	store      *net.SessionStore
	world      *world.World
	roster     *world.Roster
	spectators *world.Spectators
	bus        *event.Bus
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(
	source SessionSource,
	registry *packet.Registry,
	store *net.SessionStore,
	w *world.World,
	roster *world.Roster,
	spectators *world.Spectators,
	bus *event.Bus,
	maxPerTick int,
	log *zap.Logger,
) *InputSystem {
	return &InputSystem{
		source:     source,
		registry:   registry,
		store:      store,
		world:      w,
		roster:     roster,
		spectators: spectators,
		bus:        bus,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
accept:
	for {
		select {
		case sess := <-s.source.NewSessions():
			s.store.Add(sess)
		default:
			break accept
		}
	}

	var closed []*net.Session
	s.store.ForEach(func(sess *net.Session) {
		if sess.IsClosed() {
			closed = append(closed, sess)
			return
		}
		s.drain(sess)
	})
	for _, sess := range closed {
		s.handleDisconnect(sess)
		s.store.Remove(sess.ID)
	}

	// Early flush so replies produced here start writing while the rest of
	// the tick runs.
	s.store.FlushAll()
}

func (s *InputSystem) drain(sess *net.Session) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case data := <-sess.InQueue:
			if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
				s.log.Debug("packet dispatch error",
					zap.Uint64("session", sess.ID),
					zap.Error(err),
				)
			}
		default:
			return
		}
	}
}

// handleDisconnect takes the session's player out of the arena and tells
// everyone else. Spectators leave silently.
func (s *InputSystem) handleDisconnect(sess *net.Session) {
	s.roster.Delete(sess.ID)
	if s.spectators.Remove(sess.ID) {
		s.log.Info("spectator left", zap.Uint64("session", sess.ID))
		return
	}
	s.world.Players.Remove(sess.ID)

	s.store.Broadcast(packet.MustEncode(packet.S_OPCODE_PLAYER_LEAVE, packet.NameNotice{Name: sess.Name}), sess.ID)
	event.Emit(s.bus, event.PlayerLeft{PlayerID: sess.ID, Name: sess.Name})
}
