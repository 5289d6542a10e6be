package handler

import (
	"regexp"
	"strings"

	"github.com/massarena/server/internal/core/event"
	"github.com/massarena/server/internal/net"
	"github.com/massarena/server/internal/net/packet"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var validNick = regexp.MustCompile(`^\w*$`)

// NormalizeName folds full-width forms to ASCII and composes the result so
// that visually identical names validate the same way.
func NormalizeName(name string) string {
	return strings.TrimSpace(norm.NFC.String(width.Fold.String(name)))
}

// ValidName reports whether name uses only word characters. Empty is valid.
func ValidName(name string) bool {
	return validNick.MatchString(name)
}

// HandleJoin processes the join-ready intent: the client has its welcome and
// wants to enter the arena.
func HandleJoin(sess *net.Session, r *packet.Reader, deps *Deps) {
	var req packet.JoinReady
	if err := r.Decode(&req); err != nil {
		deps.Log.Debug("bad join payload", zap.Uint64("session", sess.ID), zap.Error(err))
		return
	}

	if deps.World.Players.Has(sess.ID) {
		deps.Log.Info("player already connected, disconnecting", zap.Uint64("session", sess.ID))
		deps.Sender.Disconnect(sess.ID)
		return
	}

	name := NormalizeName(req.Name)
	if !ValidName(name) {
		deps.Sender.Kick(sess.ID, "Invalid username.")
		return
	}

	now := deps.Now()
	p := deps.Roster.Get(sess.ID)
	if p == nil {
		p = deps.World.NewPlayer(sess.ID, sess.IP, now)
		deps.Roster.Put(p)
	}
	p.Configure(name, req.ScreenWidth, req.ScreenHeight, now)
	if !deps.World.Join(p) {
		deps.Sender.Disconnect(sess.ID)
		return
	}

	sess.Name = name
	sess.SetState(packet.StateInWorld)
	deps.Sender.Broadcast(packet.MustEncode(packet.S_OPCODE_PLAYER_JOIN, packet.NameNotice{Name: name}), 0)
	event.Emit(deps.Bus, event.PlayerJoined{PlayerID: sess.ID, Name: name})
	deps.Log.Debug("total players", zap.Int("count", deps.World.Players.Len()))
}

// HandleRespawn takes the player out of the arena (if in it) and answers
// with a welcome. The client then sends join-ready again.
func HandleRespawn(sess *net.Session, _ *packet.Reader, deps *Deps) {
	deps.World.Players.Remove(sess.ID)

	p := deps.Roster.Get(sess.ID)
	if p == nil {
		p = deps.World.NewPlayer(sess.ID, sess.IP, deps.Now())
		deps.Roster.Put(p)
	}
	deps.Sender.SendTo(sess.ID, welcome(packet.PlayerStateOf(p), deps.World))
	sess.SetState(packet.StateHandshake)
	deps.Log.Info("player respawned", zap.Uint64("session", sess.ID), zap.String("name", p.Name))
}

// HandleSpectate registers a watcher of the whole map.
func HandleSpectate(sess *net.Session, _ *packet.Reader, deps *Deps) {
	w := deps.World
	if !deps.Spectators.Add(sess.ID) {
		return
	}
	sess.SetState(packet.StateSpectating)
	deps.Sender.SendTo(sess.ID, welcome(packet.SpectatorState(sess.ID, w.Settings.Width, w.Settings.Height), w))
	deps.Sender.Broadcast(packet.MustEncode(packet.S_OPCODE_PLAYER_JOIN, packet.NameNotice{Name: ""}), 0)
	event.Emit(deps.Bus, event.PlayerJoined{PlayerID: sess.ID, Spectator: true})
}

// HandlePing answers a latency probe.
func HandlePing(sess *net.Session, _ *packet.Reader, deps *Deps) {
	deps.Sender.SendTo(sess.ID, packet.MustEncode(packet.S_OPCODE_PONG, nil))
}

// HandleQuit closes the session; InputSystem does the cleanup once it is
// closed.
func HandleQuit(sess *net.Session, _ *packet.Reader, deps *Deps) {
	deps.Log.Info("player quit", zap.Uint64("session", sess.ID), zap.String("name", sess.Name))
	deps.Sender.Disconnect(sess.ID)
}
