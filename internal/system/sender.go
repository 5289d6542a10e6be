package system

import "github.com/massarena/server/internal/net/packet"

// Sender is the only way simulation code reaches clients. Packets are
// buffered and written when OutputSystem flushes. Unknown IDs are ignored.
type Sender interface {
	SendTo(id uint64, data []byte)
	// Broadcast sends to every session except the one with ID except
	// (0 = nobody excluded).
	Broadcast(data []byte, except uint64)
	// Kick sends a forced-disconnect with reason, then closes the session.
	Kick(id uint64, reason string)
	// Disconnect closes the session once its pending output is written.
	Disconnect(id uint64)
	SetState(id uint64, st packet.SessionState)
}
