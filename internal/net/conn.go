package net

import (
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is one client transport carrying whole packets ([opcode][body]).
// ReadPacket is called from a single reader goroutine and WritePacket from a
// single writer goroutine.
type Conn interface {
	ReadPacket() ([]byte, error)
	WritePacket(data []byte, timeout time.Duration) error
	Close() error
	RemoteAddr() string
}

type tcpConn struct {
	c           net.Conn
	readTimeout time.Duration
}

// NewTCPConn frames packets over a stream connection.
func NewTCPConn(c net.Conn, readTimeout time.Duration) Conn {
	return &tcpConn{c: c, readTimeout: readTimeout}
}

func (t *tcpConn) ReadPacket() ([]byte, error) {
	if t.readTimeout > 0 {
		t.c.SetReadDeadline(time.Now().Add(t.readTimeout))
	}
	return ReadFrame(t.c, maxInbound)
}

func (t *tcpConn) WritePacket(data []byte, timeout time.Duration) error {
	if timeout > 0 {
		t.c.SetWriteDeadline(time.Now().Add(timeout))
	}
	return WriteFrame(t.c, data)
}

func (t *tcpConn) Close() error       { return t.c.Close() }
func (t *tcpConn) RemoteAddr() string { return t.c.RemoteAddr().String() }

const wsPingInterval = 25 * time.Second

type wsConn struct {
	c           *websocket.Conn
	readTimeout time.Duration
	done        chan struct{}
	closeOnce   sync.Once
}

// NewWSConn carries one packet per binary websocket message and keeps the
// connection alive with pings.
func NewWSConn(c *websocket.Conn, readTimeout time.Duration) Conn {
	w := &wsConn{c: c, readTimeout: readTimeout, done: make(chan struct{})}
	c.SetReadLimit(maxInbound)
	if readTimeout > 0 {
		c.SetReadDeadline(time.Now().Add(readTimeout))
		c.SetPongHandler(func(string) error {
			return c.SetReadDeadline(time.Now().Add(readTimeout))
		})
	}
	go w.keepAlive()
	return w
}

func (w *wsConn) keepAlive() {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := w.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		case <-w.done:
			return
		}
	}
}

func (w *wsConn) ReadPacket() ([]byte, error) {
	for {
		kind, msg, err := w.c.ReadMessage()
		if err != nil {
			return nil, err
		}
		if w.readTimeout > 0 {
			w.c.SetReadDeadline(time.Now().Add(w.readTimeout))
		}
		if kind != websocket.BinaryMessage || len(msg) == 0 {
			continue
		}
		return msg, nil
	}
}

func (w *wsConn) WritePacket(data []byte, timeout time.Duration) error {
	if timeout > 0 {
		w.c.SetWriteDeadline(time.Now().Add(timeout))
	}
	return w.c.WriteMessage(websocket.BinaryMessage, data)
}

func (w *wsConn) Close() error {
	w.closeOnce.Do(func() { close(w.done) })
	return w.c.Close()
}

func (w *wsConn) RemoteAddr() string { return w.c.RemoteAddr().String() }
