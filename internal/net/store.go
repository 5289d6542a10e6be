package net

import (
	"github.com/massarena/server/internal/net/packet"
	"go.uber.org/zap"
)

// SessionStore tracks live sessions by ID and delivers packets to them.
// Game loop only.
type SessionStore struct {
	sessions map[uint64]*Session
	order    []uint64 // admission order, for deterministic broadcast
	log      *zap.Logger
}

func NewSessionStore(log *zap.Logger) *SessionStore {
	return &SessionStore{sessions: make(map[uint64]*Session), log: log}
}

func (st *SessionStore) Add(s *Session) {
	if _, ok := st.sessions[s.ID]; ok {
		return
	}
	st.sessions[s.ID] = s
	st.order = append(st.order, s.ID)
}

func (st *SessionStore) Remove(id uint64) {
	if _, ok := st.sessions[id]; !ok {
		return
	}
	delete(st.sessions, id)
	for i, v := range st.order {
		if v == id {
			st.order = append(st.order[:i], st.order[i+1:]...)
			break
		}
	}
}

func (st *SessionStore) Get(id uint64) *Session { return st.sessions[id] }

func (st *SessionStore) Count() int { return len(st.sessions) }

// ForEach visits sessions in admission order.
func (st *SessionStore) ForEach(fn func(*Session)) {
	for _, id := range st.order {
		if s, ok := st.sessions[id]; ok {
			fn(s)
		}
	}
}

// SendTo buffers data for one session. Unknown IDs are ignored.
func (st *SessionStore) SendTo(id uint64, data []byte) {
	if s := st.sessions[id]; s != nil {
		s.Send(data)
	}
}

// Broadcast buffers data for every session except the one with ID except
// (0 = nobody excluded).
func (st *SessionStore) Broadcast(data []byte, except uint64) {
	st.ForEach(func(s *Session) {
		if s.ID != except {
			s.Send(data)
		}
	})
}

// Kick sends a forced-disconnect with reason and closes the session after it
// has been written.
func (st *SessionStore) Kick(id uint64, reason string) {
	s := st.sessions[id]
	if s == nil {
		return
	}
	st.log.Info("kicking session", zap.Uint64("session", id), zap.String("reason", reason))
	s.Kick(packet.MustEncode(packet.S_OPCODE_KICK, packet.Kick{Reason: reason}))
}

// Disconnect closes the session without a reason once pending output is
// written.
func (st *SessionStore) Disconnect(id uint64) {
	if s := st.sessions[id]; s != nil {
		s.Kick(nil)
	}
}

// FlushAll hands every session's buffered packets to its writer.
func (st *SessionStore) FlushAll() {
	st.ForEach(func(s *Session) { s.FlushOutput() })
}

// SetState moves a session to a new protocol state. Disconnecting sessions
// stay disconnecting.
func (st *SessionStore) SetState(id uint64, state packet.SessionState) {
	if s := st.sessions[id]; s != nil && s.State() != packet.StateDisconnecting {
		s.SetState(state)
	}
}
