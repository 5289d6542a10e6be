package handler

import (
	"github.com/massarena/server/internal/geom"
	"github.com/massarena/server/internal/net"
	"github.com/massarena/server/internal/net/packet"
)

// HandleHeartbeat records the pointer target (relative to the player's
// centroid) and proves the client is alive.
func HandleHeartbeat(sess *net.Session, r *packet.Reader, deps *Deps) {
	var t packet.Target
	if err := r.Decode(&t); err != nil {
		return
	}
	p := deps.World.Players.Get(sess.ID)
	if p == nil {
		return
	}
	p.Heartbeat(geom.Vec2{X: t.X, Y: t.Y}, deps.Now())
}

// HandleResize updates the viewport used for visibility.
func HandleResize(sess *net.Session, r *packet.Reader, deps *Deps) {
	var req packet.Resize
	if err := r.Decode(&req); err != nil {
		return
	}
	p := deps.Roster.Get(sess.ID)
	if p == nil {
		return
	}
	p.SetScreen(req.ScreenWidth, req.ScreenHeight)
}

// HandleEject fires mass from every cell that can afford it.
func HandleEject(sess *net.Session, _ *packet.Reader, deps *Deps) {
	if p := deps.World.Players.Get(sess.ID); p != nil {
		deps.World.EjectMass(p)
	}
}

// HandleSplit splits the player's cells toward its target.
func HandleSplit(sess *net.Session, _ *packet.Reader, deps *Deps) {
	if p := deps.World.Players.Get(sess.ID); p != nil {
		deps.World.Split(p, deps.Now())
	}
}
