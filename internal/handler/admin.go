package handler

import (
	"github.com/massarena/server/internal/core/event"
	"github.com/massarena/server/internal/net"
	"github.com/massarena/server/internal/net/packet"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// HandleAdminLogin checks the admin password and grants the caller admin
// rights on success. Failures are audited.
func HandleAdminLogin(sess *net.Session, r *packet.Reader, deps *Deps) {
	var req packet.AdminLogin
	if err := r.Decode(&req); err != nil {
		return
	}
	p := deps.Roster.Get(sess.ID)
	if p == nil {
		return
	}

	if deps.AdminHash != "" && bcrypt.CompareHashAndPassword([]byte(deps.AdminHash), []byte(req.Password)) == nil {
		p.Admin = true
		deps.Log.Info("admin login", zap.String("name", p.Name))
		deps.Sender.SendTo(sess.ID, serverMessage("Welcome back "+p.Name))
		deps.Sender.Broadcast(serverMessage(p.Name+" just logged in as an admin."), sess.ID)
		return
	}

	deps.Log.Warn("admin login failed", zap.String("name", p.Name), zap.String("ip", sess.IP))
	deps.Sender.SendTo(sess.ID, serverMessage("Password incorrect, attempt logged."))
	deps.Audit.RecordFailedLogin(p.Name, sess.IP)
}

// HandleAdminKick lets an admin remove a non-admin player by name.
func HandleAdminKick(sess *net.Session, r *packet.Reader, deps *Deps) {
	var req packet.AdminKick
	if err := r.Decode(&req); err != nil {
		return
	}
	caller := deps.Roster.Get(sess.ID)
	if caller == nil || !caller.Admin {
		deps.Sender.SendTo(sess.ID, serverMessage("You are not permitted to use this command."))
		return
	}

	target := deps.World.Players.FindByName(req.Target)
	if target == nil {
		deps.Sender.SendTo(sess.ID, serverMessage("Could not locate user or user is an admin."))
		return
	}

	deps.Log.Info("admin kick",
		zap.String("target", target.Name),
		zap.String("by", caller.Name),
		zap.String("reason", req.Reason),
	)
	deps.Sender.SendTo(sess.ID, serverMessage("User "+target.Name+" was kicked by "+caller.Name))
	deps.Sender.Kick(target.ID, req.Reason)
	deps.World.Players.Remove(target.ID)
	event.Emit(deps.Bus, event.PlayerKicked{PlayerID: target.ID, Name: target.Name, Reason: req.Reason})
}
