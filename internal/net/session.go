package net

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/massarena/server/internal/net/packet"
	"go.uber.org/zap"
)

// SessionConfig sizes queues and limits shared by every session.
type SessionConfig struct {
	InQueueSize      int
	OutQueueSize     int
	PacketsPerSecond int // 0 = unlimited
	WriteTimeout     time.Duration
	ReadTimeout      time.Duration
}

// Session represents a single client connection. Network I/O runs in
// dedicated goroutines; game state is accessed only from the game loop.
type Session struct {
	ID   uint64
	conn Conn

	state atomic.Int32 // packet.SessionState stored as int32

	InQueue  chan []byte // game loop reads packets from here
	OutQueue chan []byte // writer goroutine reads from here; nil = close after write

	IP   string
	Name string // player name once joined (game loop only)

	outBuf     [][]byte // buffered packets, flushed by OutputSystem (game loop only)
	closeAfter bool     // game loop only
	finQueued  bool     // close sentinel handed to the writer

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	// Per-second packet rate limiter (readLoop goroutine only, no lock needed)
	pktPerSec  int
	pktCount   int
	pktResetAt int64

	writeTimeout time.Duration
	log          *zap.Logger
}

func NewSession(conn Conn, id uint64, cfg SessionConfig, log *zap.Logger) *Session {
	s := &Session{
		ID:           id,
		conn:         conn,
		InQueue:      make(chan []byte, cfg.InQueueSize),
		OutQueue:     make(chan []byte, cfg.OutQueueSize),
		IP:           hostOnly(conn.RemoteAddr()),
		closeCh:      make(chan struct{}),
		pktPerSec:    cfg.PacketsPerSecond,
		writeTimeout: cfg.WriteTimeout,
		log:          log.With(zap.Uint64("session", id)),
	}
	s.state.Store(int32(packet.StateHandshake))
	return s
}

func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func (s *Session) State() packet.SessionState {
	return packet.SessionState(s.state.Load())
}

func (s *Session) SetState(st packet.SessionState) {
	s.state.Store(int32(st))
}

// Start launches the reader and writer goroutines.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// Send buffers a packet. It is not handed to the writer until FlushOutput.
// Game loop only.
func (s *Session) Send(data []byte) {
	if s.closed.Load() || s.closeAfter {
		return
	}
	s.outBuf = append(s.outBuf, data)
}

// Kick sends data (if any) as the last packet and closes the connection once
// everything buffered has been written. Game loop only.
func (s *Session) Kick(data []byte) {
	if s.closed.Load() || s.closeAfter {
		return
	}
	if data != nil {
		s.outBuf = append(s.outBuf, data)
	}
	s.closeAfter = true
	s.SetState(packet.StateDisconnecting)
}

// Pending returns the number of buffered, unflushed packets.
func (s *Session) Pending() int { return len(s.outBuf) }

// FlushOutput drains the output buffer to OutQueue for the writer goroutine.
// Non-blocking: if OutQueue is full, the session is disconnected (backpressure).
func (s *Session) FlushOutput() {
	if s.closed.Load() {
		s.outBuf = s.outBuf[:0]
		return
	}
	for _, data := range s.outBuf {
		select {
		case s.OutQueue <- data:
		default:
			s.log.Warn("output queue full, dropping slow client")
			s.Close()
			s.outBuf = s.outBuf[:0]
			return
		}
	}
	s.outBuf = s.outBuf[:0]
	if s.closeAfter && !s.finQueued {
		s.finQueued = true
		select {
		case s.OutQueue <- nil:
		default:
			s.Close()
		}
	}
}

// Close shuts the session down immediately.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.SetState(packet.StateDisconnecting)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// readLoop reads packets and pushes them onto InQueue for the game loop.
func (s *Session) readLoop() {
	defer s.Close()

	for {
		data, err := s.conn.ReadPacket()
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}

		if s.pktPerSec > 0 {
			now := time.Now().Unix()
			if now != s.pktResetAt {
				s.pktCount = 0
				s.pktResetAt = now
			}
			s.pktCount++
			if s.pktCount > s.pktPerSec {
				s.log.Warn("packet rate exceeded, disconnecting", zap.Int("pps", s.pktCount))
				return
			}
		}

		// Blocking keeps intent order; only this client stalls.
		select {
		case s.InQueue <- data:
		case <-s.closeCh:
			return
		}
	}
}

// writeLoop writes packets from OutQueue to the connection.
func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case data := <-s.OutQueue:
			if data == nil {
				return
			}
			if len(data) > 0 {
				s.log.Debug("TX", zap.String("op", packet.OpcodeName(data[0])), zap.Int("len", len(data)))
			}
			if err := s.conn.WritePacket(data, s.writeTimeout); err != nil {
				if !s.closed.Load() {
					s.log.Debug("write error", zap.Error(err))
				}
				return
			}
		case <-s.closeCh:
			return
		}
	}
}
