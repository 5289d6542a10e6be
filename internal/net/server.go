package net

import (
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server accepts TCP and websocket clients and creates Sessions.
// New sessions are handed to the game loop over a channel.
type Server struct {
	nextID   atomic.Uint64
	newConns chan *Session
	cfg      SessionConfig
	upgrader websocket.Upgrader
	log      *zap.Logger

	closeCh   chan struct{}
	closeOnce sync.Once
}

func NewServer(cfg SessionConfig, log *zap.Logger) *Server {
	return &Server{
		newConns: make(chan *Session, 64),
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log:     log,
		closeCh: make(chan struct{}),
	}
}

// ServeTCP accepts stream clients on ln until Shutdown or a listener error.
func (s *Server) ServeTCP(ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Error("accept failed", zap.Error(err))
			return err
		}
		s.admit(NewTCPConn(c, s.cfg.ReadTimeout), "tcp")
	}
}

// WSHandler upgrades HTTP requests to websocket sessions.
func (s *Server) WSHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-s.closeCh:
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
			return
		default:
		}
		c, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Debug("websocket upgrade failed", zap.Error(err))
			return
		}
		s.admit(NewWSConn(c, s.cfg.ReadTimeout), "ws")
	})
}

func (s *Server) admit(c Conn, transport string) {
	id := s.nextID.Add(1)
	sess := NewSession(c, id, s.cfg, s.log)

	select {
	case s.newConns <- sess:
		sess.Start()
		s.log.Info("client connected",
			zap.Uint64("session", id),
			zap.String("ip", sess.IP),
			zap.String("transport", transport),
		)
	default:
		s.log.Warn("connection queue full, rejecting client", zap.String("ip", sess.IP))
		sess.Close()
	}
}

// NewSessions returns the channel of newly connected sessions.
func (s *Server) NewSessions() <-chan *Session {
	return s.newConns
}

// Shutdown stops admitting clients. Listeners are closed by their owners.
func (s *Server) Shutdown() {
	s.closeOnce.Do(func() { close(s.closeCh) })
}
