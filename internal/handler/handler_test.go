package handler

import (
	"io"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/massarena/server/internal/core/event"
	"github.com/massarena/server/internal/geom"
	"github.com/massarena/server/internal/net"
	"github.com/massarena/server/internal/net/packet"
	"github.com/massarena/server/internal/persist"
	"github.com/massarena/server/internal/world"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type nopConn struct{}

func (nopConn) ReadPacket() ([]byte, error)             { return nil, io.EOF }
func (nopConn) WritePacket([]byte, time.Duration) error { return nil }
func (nopConn) Close() error                            { return nil }
func (nopConn) RemoteAddr() string                      { return "192.0.2.1:4000" }

type sent struct {
	to     uint64
	except uint64
	bcast  bool
	data   []byte
}

type fakeSender struct {
	sent        []sent
	kicked      map[uint64]string
	disconnects []uint64
	states      map[uint64]packet.SessionState
}

func newFakeSender() *fakeSender {
	return &fakeSender{kicked: map[uint64]string{}, states: map[uint64]packet.SessionState{}}
}

func (f *fakeSender) SendTo(id uint64, data []byte) { f.sent = append(f.sent, sent{to: id, data: data}) }
func (f *fakeSender) Broadcast(data []byte, except uint64) {
	f.sent = append(f.sent, sent{bcast: true, except: except, data: data})
}
func (f *fakeSender) Kick(id uint64, reason string)              { f.kicked[id] = reason }
func (f *fakeSender) Disconnect(id uint64)                       { f.disconnects = append(f.disconnects, id) }
func (f *fakeSender) SetState(id uint64, st packet.SessionState) { f.states[id] = st }

// messages returns the decoded bodies of packets with opcode op.
func messages[T any](t *testing.T, f *fakeSender, op byte) []T {
	t.Helper()
	var out []T
	for _, s := range f.sent {
		if s.data[0] != op {
			continue
		}
		var v T
		if err := packet.NewReader(s.data).Decode(&v); err != nil {
			t.Fatalf("decode %s: %v", packet.OpcodeName(op), err)
		}
		out = append(out, v)
	}
	return out
}

type fakeAudit struct {
	chats  []string
	logins []string
}

func (a *fakeAudit) RecordChat(sender, message, ip string) { a.chats = append(a.chats, sender+": "+message) }
func (a *fakeAudit) RecordFailedLogin(name, ip string)     { a.logins = append(a.logins, name+"@"+ip) }
func (a *fakeAudit) Close()                                {}

var _ persist.Auditor = (*fakeAudit)(nil)

var clock = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	deps   *Deps
	reg    *packet.Registry
	sender *fakeSender
	audit  *fakeAudit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := world.DefaultSettings()
	s.Width, s.Height = 2000, 2000
	sender := newFakeSender()
	audit := &fakeAudit{}
	deps := &Deps{
		World:      world.New(s, rand.New(rand.NewSource(1)), nil),
		Roster:     world.NewRoster(),
		Spectators: &world.Spectators{},
		Sender:     sender,
		Bus:        event.NewBus(),
		Audit:      audit,
		Now:        func() time.Time { return clock },
		Log:        zap.NewNop(),
	}
	reg := packet.NewRegistry(zap.NewNop())
	RegisterAll(reg, deps)
	return &fixture{deps: deps, reg: reg, sender: sender, audit: audit}
}

func (fx *fixture) session(id uint64) *net.Session {
	return net.NewSession(nopConn{}, id, net.SessionConfig{InQueueSize: 1, OutQueueSize: 1}, zap.NewNop())
}

func (fx *fixture) dispatch(t *testing.T, sess *net.Session, op byte, body any) error {
	t.Helper()
	data, err := packet.Encode(op, body)
	if err != nil {
		t.Fatal(err)
	}
	return fx.reg.Dispatch(sess, sess.State(), data)
}

func (fx *fixture) join(t *testing.T, id uint64, name string) *net.Session {
	t.Helper()
	sess := fx.session(id)
	if err := fx.dispatch(t, sess, packet.C_OPCODE_JOIN, packet.JoinReady{Name: name, ScreenWidth: 800, ScreenHeight: 600}); err != nil {
		t.Fatalf("join: %v", err)
	}
	if sess.State() != packet.StateInWorld {
		t.Fatalf("%s not in world: %v", name, sess.State())
	}
	return sess
}

func TestJoinAddsPlayerAndAnnounces(t *testing.T) {
	fx := newFixture(t)
	sess := fx.join(t, 1, "alice")

	p := fx.deps.World.Players.Get(1)
	if p == nil || p.Name != "alice" || p.ScreenWidth != 800 || p.CellCount() != 1 {
		t.Fatalf("player = %+v", p)
	}
	if p.IP != "192.0.2.1" || sess.Name != "alice" {
		t.Fatalf("ip=%q name=%q", p.IP, sess.Name)
	}
	joins := messages[packet.NameNotice](t, fx.sender, packet.S_OPCODE_PLAYER_JOIN)
	if len(joins) != 1 || joins[0].Name != "alice" {
		t.Fatalf("joins = %+v", joins)
	}
	if fx.deps.Bus.Pending() != 1 {
		t.Fatalf("join event not emitted")
	}
}

func TestJoinNormalizesFullWidthName(t *testing.T) {
	fx := newFixture(t)
	fx.join(t, 1, "ｂｏｂ")
	if got := fx.deps.World.Players.Get(1).Name; got != "bob" {
		t.Fatalf("name = %q", got)
	}
}

func TestJoinInvalidNameKicks(t *testing.T) {
	fx := newFixture(t)
	sess := fx.session(1)
	fx.dispatch(t, sess, packet.C_OPCODE_JOIN, packet.JoinReady{Name: "<b>x</b>"})
	if fx.sender.kicked[1] != "Invalid username." {
		t.Fatalf("kicked = %v", fx.sender.kicked)
	}
	if fx.deps.World.Players.Len() != 0 {
		t.Fatalf("invalid name joined")
	}
}

func TestDuplicateJoinDisconnects(t *testing.T) {
	fx := newFixture(t)
	sess := fx.join(t, 1, "alice")
	fx.dispatch(t, sess, packet.C_OPCODE_JOIN, packet.JoinReady{Name: "alice"})
	if len(fx.sender.disconnects) != 1 || fx.sender.disconnects[0] != 1 {
		t.Fatalf("disconnects = %v", fx.sender.disconnects)
	}
	if fx.deps.World.Players.Len() != 1 {
		t.Fatalf("players = %d", fx.deps.World.Players.Len())
	}
}

func TestValidName(t *testing.T) {
	for name, want := range map[string]bool{
		"":        true,
		"abc_123": true,
		"a b":     false,
		"x<y":     false,
		"é":       false,
	} {
		if got := ValidName(name); got != want {
			t.Fatalf("ValidName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestRespawnFlow(t *testing.T) {
	fx := newFixture(t)
	sess := fx.join(t, 1, "alice")
	hue := fx.deps.World.Players.Get(1).Hue

	fx.dispatch(t, sess, packet.C_OPCODE_RESPAWN, nil)
	if fx.deps.World.Players.Has(1) {
		t.Fatalf("player still in arena after respawn")
	}
	if sess.State() != packet.StateHandshake {
		t.Fatalf("state = %v", sess.State())
	}
	w := messages[packet.Welcome](t, fx.sender, packet.S_OPCODE_WELCOME)
	if len(w) != 1 || w[0].World.Width != 2000 || w[0].Player.Hue != hue {
		t.Fatalf("welcome = %+v", w)
	}

	fx.dispatch(t, sess, packet.C_OPCODE_JOIN, packet.JoinReady{Name: "alice", ScreenWidth: 800, ScreenHeight: 600})
	p := fx.deps.World.Players.Get(1)
	if p == nil || p.Hue != hue || p.MassTotal != fx.deps.World.Settings.DefaultPlayerMass {
		t.Fatalf("rejoined player = %+v", p)
	}
}

func TestDeadSessionCannotSplit(t *testing.T) {
	fx := newFixture(t)
	sess := fx.join(t, 1, "alice")
	sess.SetState(packet.StateDead)
	if err := fx.dispatch(t, sess, packet.C_OPCODE_SPLIT, nil); err == nil {
		t.Fatalf("split accepted from a dead session")
	}
}

func TestHeartbeatSetsTarget(t *testing.T) {
	fx := newFixture(t)
	sess := fx.join(t, 1, "alice")
	p := fx.deps.World.Players.Get(1)
	p.LastHeartbeat = time.Time{}

	fx.dispatch(t, sess, packet.C_OPCODE_HEARTBEAT, packet.Target{X: 30, Y: -40})
	if !p.Target.Equal(geom.Vec2{X: 30, Y: -40}) || !p.LastHeartbeat.Equal(clock) {
		t.Fatalf("target=%v heartbeat=%v", p.Target, p.LastHeartbeat)
	}
}

func TestSplitAndEject(t *testing.T) {
	fx := newFixture(t)
	sess := fx.join(t, 1, "alice")
	p := fx.deps.World.Players.Get(1)
	p.ChangeCellMass(0, 200)

	fx.dispatch(t, sess, packet.C_OPCODE_EJECT, nil)
	if fx.deps.World.Mass.Len() != 1 {
		t.Fatalf("pellets = %d", fx.deps.World.Mass.Len())
	}
	fx.dispatch(t, sess, packet.C_OPCODE_SPLIT, nil)
	if p.CellCount() != 2 {
		t.Fatalf("cells = %d", p.CellCount())
	}
}

func TestResize(t *testing.T) {
	fx := newFixture(t)
	sess := fx.join(t, 1, "alice")
	fx.dispatch(t, sess, packet.C_OPCODE_RESIZE, packet.Resize{ScreenWidth: 1920, ScreenHeight: 1080})
	p := fx.deps.World.Players.Get(1)
	if p.ScreenWidth != 1920 || p.ScreenHeight != 1080 {
		t.Fatalf("screen = %vx%v", p.ScreenWidth, p.ScreenHeight)
	}
}

func TestScreenSizeIsClamped(t *testing.T) {
	fx := newFixture(t)
	sess := fx.session(1)
	fx.dispatch(t, sess, packet.C_OPCODE_JOIN, packet.JoinReady{Name: "alice", ScreenWidth: 1e9, ScreenHeight: math.NaN()})
	p := fx.deps.World.Players.Get(1)
	if p == nil {
		t.Fatalf("join rejected")
	}
	if p.ScreenWidth != world.MaxScreenSize || p.ScreenHeight != 0 {
		t.Fatalf("join screen = %vx%v", p.ScreenWidth, p.ScreenHeight)
	}

	fx.dispatch(t, sess, packet.C_OPCODE_RESIZE, packet.Resize{ScreenWidth: math.Inf(1), ScreenHeight: -50})
	if p.ScreenWidth != world.MaxScreenSize || p.ScreenHeight != 0 {
		t.Fatalf("resize screen = %vx%v", p.ScreenWidth, p.ScreenHeight)
	}
}

func TestSpectate(t *testing.T) {
	fx := newFixture(t)
	sess := fx.session(5)
	fx.dispatch(t, sess, packet.C_OPCODE_SPECTATE, nil)
	if sess.State() != packet.StateSpectating || !fx.deps.Spectators.Has(5) {
		t.Fatalf("spectator not registered")
	}
	w := messages[packet.Welcome](t, fx.sender, packet.S_OPCODE_WELCOME)
	if len(w) != 1 || w[0].Player.X != 1000 || w[0].Player.Hue != 100 {
		t.Fatalf("welcome = %+v", w)
	}
	joins := messages[packet.NameNotice](t, fx.sender, packet.S_OPCODE_PLAYER_JOIN)
	if len(joins) != 1 || joins[0].Name != "" {
		t.Fatalf("joins = %+v", joins)
	}
	if err := fx.dispatch(t, sess, packet.C_OPCODE_SPLIT, nil); err == nil {
		t.Fatalf("spectator allowed to split")
	}
}

func TestPing(t *testing.T) {
	fx := newFixture(t)
	sess := fx.session(1)
	fx.dispatch(t, sess, packet.C_OPCODE_PING, nil)
	if len(fx.sender.sent) != 1 || fx.sender.sent[0].data[0] != packet.S_OPCODE_PONG || fx.sender.sent[0].to != 1 {
		t.Fatalf("sent = %+v", fx.sender.sent)
	}
}

func TestChatStripsTruncatesAndAudits(t *testing.T) {
	fx := newFixture(t)
	fx.deps.LogChat = true
	sess := fx.join(t, 1, "alice")
	fx.sender.sent = nil

	long := "<script>hi</script> this message is definitely longer than thirty-five chars"
	fx.dispatch(t, sess, packet.C_OPCODE_CHAT, packet.ChatIn{Message: long})

	if len(fx.sender.sent) != 1 || !fx.sender.sent[0].bcast || fx.sender.sent[0].except != 1 {
		t.Fatalf("chat not broadcast to others: %+v", fx.sender.sent)
	}
	msgs := messages[packet.ChatOut](t, fx.sender, packet.S_OPCODE_CHAT)
	want := "hi this message is definitely longe"
	if msgs[0].Sender != "alice" || msgs[0].Message != want {
		t.Fatalf("chat = %+v, want message %q", msgs[0], want)
	}
	if len(fx.audit.chats) != 1 || fx.audit.chats[0] != "alice: "+StripTags(long) {
		t.Fatalf("audit = %v", fx.audit.chats)
	}
}

func adminFixture(t *testing.T) *fixture {
	fx := newFixture(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	fx.deps.AdminHash = string(hash)
	return fx
}

func TestAdminLogin(t *testing.T) {
	fx := adminFixture(t)
	sess := fx.join(t, 1, "alice")
	fx.sender.sent = nil

	fx.dispatch(t, sess, packet.C_OPCODE_ADMIN_LOGIN, packet.AdminLogin{Password: "wrong"})
	if fx.deps.Roster.Get(1).Admin {
		t.Fatalf("wrong password granted admin")
	}
	if len(fx.audit.logins) != 1 || fx.audit.logins[0] != "alice@192.0.2.1" {
		t.Fatalf("failed login not audited: %v", fx.audit.logins)
	}

	fx.dispatch(t, sess, packet.C_OPCODE_ADMIN_LOGIN, packet.AdminLogin{Password: "hunter2"})
	if !fx.deps.Roster.Get(1).Admin {
		t.Fatalf("correct password rejected")
	}
	msgs := messages[packet.ServerMessage](t, fx.sender, packet.S_OPCODE_SERVER_MSG)
	if len(msgs) != 3 ||
		msgs[0].Text != "Password incorrect, attempt logged." ||
		msgs[1].Text != "Welcome back alice" ||
		msgs[2].Text != "alice just logged in as an admin." {
		t.Fatalf("messages = %+v", msgs)
	}
}

func TestAdminLoginDisabledWithoutHash(t *testing.T) {
	fx := newFixture(t)
	sess := fx.join(t, 1, "alice")
	fx.dispatch(t, sess, packet.C_OPCODE_ADMIN_LOGIN, packet.AdminLogin{Password: ""})
	if fx.deps.Roster.Get(1).Admin {
		t.Fatalf("admin granted with no hash configured")
	}
}

func TestAdminKick(t *testing.T) {
	fx := adminFixture(t)
	admin := fx.join(t, 1, "boss")
	fx.join(t, 2, "victim")
	other := fx.join(t, 3, "other")

	fx.dispatch(t, other, packet.C_OPCODE_ADMIN_KICK, packet.AdminKick{Target: "victim"})
	if len(fx.sender.kicked) != 0 {
		t.Fatalf("non-admin kicked someone")
	}

	fx.deps.Roster.Get(1).Admin = true
	fx.dispatch(t, admin, packet.C_OPCODE_ADMIN_KICK, packet.AdminKick{Target: "nobody"})
	fx.dispatch(t, admin, packet.C_OPCODE_ADMIN_KICK, packet.AdminKick{Target: "boss"})
	fx.dispatch(t, admin, packet.C_OPCODE_ADMIN_KICK, packet.AdminKick{Target: "victim", Reason: "spam spam"})

	if reason, ok := fx.sender.kicked[2]; !ok || reason != "spam spam" {
		t.Fatalf("kicked = %v", fx.sender.kicked)
	}
	if fx.deps.World.Players.Has(2) {
		t.Fatalf("kicked player still in arena")
	}
	var texts []string
	for _, m := range messages[packet.ServerMessage](t, fx.sender, packet.S_OPCODE_SERVER_MSG) {
		texts = append(texts, m.Text)
	}
	want := []string{
		"You are not permitted to use this command.",
		"Could not locate user or user is an admin.",
		"Could not locate user or user is an admin.",
		"User victim was kicked by boss",
	}
	if len(texts) != len(want) {
		t.Fatalf("messages = %q", texts)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Fatalf("message %d = %q, want %q", i, texts[i], want[i])
		}
	}
}

func TestQuitDisconnects(t *testing.T) {
	fx := newFixture(t)
	sess := fx.session(4)
	fx.dispatch(t, sess, packet.C_OPCODE_QUIT, nil)
	if len(fx.sender.disconnects) != 1 || fx.sender.disconnects[0] != 4 {
		t.Fatalf("disconnects = %v", fx.sender.disconnects)
	}
}
