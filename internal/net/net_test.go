package net

import (
	"errors"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/massarena/server/internal/net/packet"
	"go.uber.org/zap"
)

// fakeConn feeds scripted packets to the reader and records writes.
type fakeConn struct {
	in     chan []byte
	mu     sync.Mutex
	out    [][]byte
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan []byte, 64), closed: make(chan struct{})}
}

func (f *fakeConn) ReadPacket() ([]byte, error) {
	select {
	case d := <-f.in:
		return d, nil
	case <-f.closed:
		return nil, io.EOF
	}
}

func (f *fakeConn) WritePacket(data []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out = append(f.out, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) RemoteAddr() string { return "10.1.2.3:5555" }

func (f *fakeConn) written() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.out...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

var testCfg = SessionConfig{InQueueSize: 8, OutQueueSize: 8}

func TestSessionIPStripsPort(t *testing.T) {
	s := NewSession(newFakeConn(), 1, testCfg, zap.NewNop())
	if s.IP != "10.1.2.3" {
		t.Fatalf("IP = %q", s.IP)
	}
	if s.State() != packet.StateHandshake {
		t.Fatalf("initial state = %v", s.State())
	}
}

func TestSessionReadsIntoInQueue(t *testing.T) {
	c := newFakeConn()
	s := NewSession(c, 1, testCfg, zap.NewNop())
	s.Start()
	defer s.Close()

	c.in <- []byte{packet.C_OPCODE_EJECT}
	select {
	case d := <-s.InQueue:
		if d[0] != packet.C_OPCODE_EJECT {
			t.Fatalf("got %v", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("packet not queued")
	}
}

func TestSendIsBufferedUntilFlush(t *testing.T) {
	c := newFakeConn()
	s := NewSession(c, 1, testCfg, zap.NewNop())
	s.Start()
	defer s.Close()

	s.Send([]byte{packet.S_OPCODE_PONG})
	time.Sleep(10 * time.Millisecond)
	if len(c.written()) != 0 {
		t.Fatalf("written before flush")
	}
	s.FlushOutput()
	waitFor(t, func() bool { return len(c.written()) == 1 })
}

func TestKickWritesReasonThenCloses(t *testing.T) {
	c := newFakeConn()
	s := NewSession(c, 1, testCfg, zap.NewNop())
	s.Start()

	s.Send([]byte{packet.S_OPCODE_PONG})
	s.Kick(packet.MustEncode(packet.S_OPCODE_KICK, packet.Kick{Reason: "bye"}))
	s.Send([]byte{packet.S_OPCODE_PONG}) // ignored after kick
	if s.State() != packet.StateDisconnecting {
		t.Fatalf("state = %v", s.State())
	}
	s.FlushOutput()
	waitFor(t, s.IsClosed)

	out := c.written()
	if len(out) != 2 || out[1][0] != packet.S_OPCODE_KICK {
		t.Fatalf("written = %v", out)
	}
	var k packet.Kick
	if err := packet.NewReader(out[1]).Decode(&k); err != nil || k.Reason != "bye" {
		t.Fatalf("kick = %+v, err = %v", k, err)
	}
}

func TestFlushBackpressureCloses(t *testing.T) {
	s := NewSession(newFakeConn(), 1, SessionConfig{InQueueSize: 1, OutQueueSize: 1}, zap.NewNop())
	// No writer running: the second packet overflows.
	s.Send([]byte{1})
	s.Send([]byte{2})
	s.FlushOutput()
	if !s.IsClosed() {
		t.Fatalf("slow client not dropped")
	}
	if s.Pending() != 0 {
		t.Fatalf("buffer not cleared")
	}
}

func TestRateLimitDisconnects(t *testing.T) {
	c := newFakeConn()
	s := NewSession(c, 1, SessionConfig{InQueueSize: 16, OutQueueSize: 1, PacketsPerSecond: 2}, zap.NewNop())
	s.Start()
	for i := 0; i < 5; i++ {
		c.in <- []byte{packet.C_OPCODE_PING}
	}
	waitFor(t, s.IsClosed)
}

func TestStoreBroadcastExcept(t *testing.T) {
	st := NewSessionStore(zap.NewNop())
	a := NewSession(newFakeConn(), 1, testCfg, zap.NewNop())
	b := NewSession(newFakeConn(), 2, testCfg, zap.NewNop())
	st.Add(a)
	st.Add(b)
	st.Add(a)
	if st.Count() != 2 {
		t.Fatalf("count = %d", st.Count())
	}

	st.Broadcast([]byte{packet.S_OPCODE_PLAYER_JOIN}, 1)
	if a.Pending() != 0 || b.Pending() != 1 {
		t.Fatalf("pending a=%d b=%d", a.Pending(), b.Pending())
	}
	st.Broadcast([]byte{packet.S_OPCODE_PLAYER_JOIN}, 0)
	if a.Pending() != 1 || b.Pending() != 2 {
		t.Fatalf("pending a=%d b=%d", a.Pending(), b.Pending())
	}

	st.SendTo(99, []byte{1})
	st.Remove(1)
	var ids []uint64
	st.ForEach(func(s *Session) { ids = append(ids, s.ID) })
	if len(ids) != 1 || ids[0] != 2 {
		t.Fatalf("ids = %v", ids)
	}
}

func TestServeTCPAdmitsSessions(t *testing.T) {
	srv := NewServer(testCfg, zap.NewNop())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- srv.ServeTCP(ln) }()

	c, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if err := WriteFrame(c, []byte{packet.C_OPCODE_PING}); err != nil {
		t.Fatal(err)
	}

	var sess *Session
	select {
	case sess = <-srv.NewSessions():
	case <-time.After(2 * time.Second):
		t.Fatalf("no session admitted")
	}
	select {
	case d := <-sess.InQueue:
		if d[0] != packet.C_OPCODE_PING {
			t.Fatalf("got %v", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("packet not received")
	}

	sess.Send([]byte{packet.S_OPCODE_PONG})
	sess.FlushOutput()
	c.SetReadDeadline(time.Now().Add(2 * time.Second))
	reply, err := ReadFrame(c, MaxFrame)
	if err != nil || reply[0] != packet.S_OPCODE_PONG {
		t.Fatalf("reply = %v, err = %v", reply, err)
	}

	srv.Shutdown()
	ln.Close()
	if err := <-done; err != nil {
		t.Fatalf("ServeTCP = %v", err)
	}
	sess.Close()
}

func TestWebsocketAdmitsSessions(t *testing.T) {
	srv := NewServer(testCfg, zap.NewNop())
	hs := httptest.NewServer(srv.WSHandler())
	defer hs.Close()

	url := "ws" + strings.TrimPrefix(hs.URL, "http")
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	var sess *Session
	select {
	case sess = <-srv.NewSessions():
	case <-time.After(2 * time.Second):
		t.Fatalf("no session admitted")
	}
	defer sess.Close()

	// Text frames are ignored; binary frames are packets.
	c.WriteMessage(websocket.TextMessage, []byte("hello"))
	c.WriteMessage(websocket.BinaryMessage, []byte{packet.C_OPCODE_SPLIT})
	select {
	case d := <-sess.InQueue:
		if len(d) != 1 || d[0] != packet.C_OPCODE_SPLIT {
			t.Fatalf("got %v", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("packet not received")
	}

	sess.Kick(packet.MustEncode(packet.S_OPCODE_KICK, packet.Kick{Reason: "done"}))
	sess.FlushOutput()
	c.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, msg, err := c.ReadMessage()
	if err != nil || kind != websocket.BinaryMessage || msg[0] != packet.S_OPCODE_KICK {
		t.Fatalf("kind=%d msg=%v err=%v", kind, msg, err)
	}
	if _, _, err := c.ReadMessage(); err == nil {
		t.Fatalf("connection still open after kick")
	}
}

func TestWSHandlerRefusesAfterShutdown(t *testing.T) {
	srv := NewServer(testCfg, zap.NewNop())
	srv.Shutdown()
	hs := httptest.NewServer(srv.WSHandler())
	defer hs.Close()
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(hs.URL, "http"), nil)
	if err == nil {
		t.Fatalf("dial succeeded after shutdown")
	}
	if resp == nil || resp.StatusCode != 503 {
		t.Fatalf("resp = %v", resp)
	}
	if !errors.Is(err, websocket.ErrBadHandshake) {
		t.Fatalf("err = %v", err)
	}
}
