package handler

import (
	"time"

	"github.com/massarena/server/internal/core/event"
	"github.com/massarena/server/internal/net"
	"github.com/massarena/server/internal/net/packet"
	"github.com/massarena/server/internal/persist"
	"github.com/massarena/server/internal/system"
	"github.com/massarena/server/internal/world"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	World      *world.World
	Roster     *world.Roster
	Spectators *world.Spectators
	Sender     system.Sender
	Bus        *event.Bus
	Audit      persist.Auditor
	AdminHash  string // bcrypt; empty disables admin login
	LogChat    bool
	Now        func() time.Time
	Log        *zap.Logger
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	// Before joining: a fresh or respawning session
	reg.Register(packet.C_OPCODE_JOIN,
		[]packet.SessionState{packet.StateHandshake, packet.StateDead, packet.StateInWorld},
		func(sess any, r *packet.Reader) {
			HandleJoin(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_RESPAWN,
		[]packet.SessionState{packet.StateHandshake, packet.StateInWorld, packet.StateDead},
		func(sess any, r *packet.Reader) {
			HandleRespawn(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_SPECTATE,
		[]packet.SessionState{packet.StateHandshake},
		func(sess any, r *packet.Reader) {
			HandleSpectate(sess.(*net.Session), r, deps)
		},
	)

	// In-world phase
	inWorldStates := []packet.SessionState{packet.StateInWorld}

	reg.Register(packet.C_OPCODE_HEARTBEAT, inWorldStates,
		func(sess any, r *packet.Reader) {
			HandleHeartbeat(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_EJECT, inWorldStates,
		func(sess any, r *packet.Reader) {
			HandleEject(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_SPLIT, inWorldStates,
		func(sess any, r *packet.Reader) {
			HandleSplit(sess.(*net.Session), r, deps)
		},
	)

	// Player present, alive or waiting to respawn
	playerStates := []packet.SessionState{packet.StateInWorld, packet.StateDead}

	reg.Register(packet.C_OPCODE_RESIZE, playerStates,
		func(sess any, r *packet.Reader) {
			HandleResize(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_CHAT, playerStates,
		func(sess any, r *packet.Reader) {
			HandleChat(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_ADMIN_LOGIN, playerStates,
		func(sess any, r *packet.Reader) {
			HandleAdminLogin(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_ADMIN_KICK, playerStates,
		func(sess any, r *packet.Reader) {
			HandleAdminKick(sess.(*net.Session), r, deps)
		},
	)

	// Any live session
	anyStates := []packet.SessionState{
		packet.StateHandshake, packet.StateInWorld, packet.StateDead, packet.StateSpectating,
	}

	reg.Register(packet.C_OPCODE_PING, anyStates,
		func(sess any, r *packet.Reader) {
			HandlePing(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_QUIT, anyStates,
		func(sess any, r *packet.Reader) {
			HandleQuit(sess.(*net.Session), r, deps)
		},
	)
}

// serverMessage builds a server-message packet.
func serverMessage(text string) []byte {
	return packet.MustEncode(packet.S_OPCODE_SERVER_MSG, packet.ServerMessage{Text: text})
}

// welcome builds the welcome packet for a player snapshot.
func welcome(ps packet.PlayerState, w *world.World) []byte {
	return packet.MustEncode(packet.S_OPCODE_WELCOME, packet.Welcome{
		Player: ps,
		World:  packet.Dimensions{Width: w.Settings.Width, Height: w.Settings.Height},
	})
}
