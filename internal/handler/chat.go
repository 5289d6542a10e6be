package handler

import (
	"regexp"

	"github.com/massarena/server/internal/net"
	"github.com/massarena/server/internal/net/packet"
	"go.uber.org/zap"
)

// MaxChatLength is the longest message relayed to other players.
const MaxChatLength = 35

var htmlTag = regexp.MustCompile(`<[^>]+>`)

// StripTags removes anything that looks like an HTML tag.
func StripTags(s string) string {
	return htmlTag.ReplaceAllString(s, "")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// HandleChat relays a chat line to everyone else and records it.
func HandleChat(sess *net.Session, r *packet.Reader, deps *Deps) {
	var req packet.ChatIn
	if err := r.Decode(&req); err != nil {
		return
	}
	sender := StripTags(sess.Name)
	message := StripTags(req.Message)

	if deps.LogChat {
		deps.Log.Info("chat", zap.String("sender", sender), zap.String("message", message))
	}

	deps.Sender.Broadcast(packet.MustEncode(packet.S_OPCODE_CHAT, packet.ChatOut{
		Sender:  sender,
		Message: truncate(message, MaxChatLength),
	}), sess.ID)

	deps.Audit.RecordChat(sender, message, sess.IP)
}
