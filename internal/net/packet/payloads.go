package packet

import (
	"github.com/massarena/server/internal/world"
)

// Inbound bodies.

type JoinReady struct {
	Name         string  `msgpack:"name"`
	ScreenWidth  float64 `msgpack:"screenWidth"`
	ScreenHeight float64 `msgpack:"screenHeight"`
}

type Target struct {
	X float64 `msgpack:"x"`
	Y float64 `msgpack:"y"`
}

type Resize struct {
	ScreenWidth  float64 `msgpack:"screenWidth"`
	ScreenHeight float64 `msgpack:"screenHeight"`
}

type ChatIn struct {
	Message string `msgpack:"message"`
}

type AdminLogin struct {
	Password string `msgpack:"password"`
}

type AdminKick struct {
	Target string `msgpack:"target"`
	Reason string `msgpack:"reason,omitempty"`
}

// Outbound bodies.

type CellState struct {
	X      float64 `msgpack:"x"`
	Y      float64 `msgpack:"y"`
	Mass   float64 `msgpack:"mass"`
	Radius float64 `msgpack:"radius"`
	Speed  float64 `msgpack:"speed"`
}

type PlayerState struct {
	ID        uint64      `msgpack:"id"`
	Name      string      `msgpack:"name"`
	Hue       int         `msgpack:"hue"`
	Admin     bool        `msgpack:"admin,omitempty"`
	X         float64     `msgpack:"x"`
	Y         float64     `msgpack:"y"`
	MassTotal float64     `msgpack:"massTotal"`
	Cells     []CellState `msgpack:"cells"`
}

type FoodState struct {
	X      float64 `msgpack:"x"`
	Y      float64 `msgpack:"y"`
	Radius float64 `msgpack:"radius"`
	Mass   float64 `msgpack:"mass"`
	Hue    int     `msgpack:"hue"`
}

type MassState struct {
	X      float64 `msgpack:"x"`
	Y      float64 `msgpack:"y"`
	Radius float64 `msgpack:"radius"`
	Mass   float64 `msgpack:"mass"`
	Hue    int     `msgpack:"hue"`
}

type VirusState struct {
	X           float64 `msgpack:"x"`
	Y           float64 `msgpack:"y"`
	Radius      float64 `msgpack:"radius"`
	Mass        float64 `msgpack:"mass"`
	Fill        string  `msgpack:"fill"`
	Stroke      string  `msgpack:"stroke"`
	StrokeWidth int     `msgpack:"strokeWidth"`
}

type Dimensions struct {
	Width  float64 `msgpack:"width"`
	Height float64 `msgpack:"height"`
}

type Welcome struct {
	Player PlayerState `msgpack:"player"`
	World  Dimensions  `msgpack:"world"`
}

// NameNotice carries player-joined, player-disconnected and player-died.
type NameNotice struct {
	Name string `msgpack:"name"`
}

type TickState struct {
	Self    PlayerState   `msgpack:"self"`
	Players []PlayerState `msgpack:"players"`
	Food    []FoodState   `msgpack:"food"`
	Mass    []MassState   `msgpack:"mass"`
	Viruses []VirusState  `msgpack:"viruses"`
}

type LeaderEntry struct {
	ID   uint64 `msgpack:"id"`
	Name string `msgpack:"name"`
}

type Leaderboard struct {
	Players     int           `msgpack:"players"`
	Leaderboard []LeaderEntry `msgpack:"leaderboard"`
}

type Kick struct {
	Reason string `msgpack:"reason"`
}

type ServerMessage struct {
	Text string `msgpack:"text"`
}

type ChatOut struct {
	Sender  string `msgpack:"sender"`
	Message string `msgpack:"message"`
}

// Conversions from simulation state.

func PlayerStateOf(p *world.Player) PlayerState {
	ps := PlayerState{
		ID:        p.ID,
		Name:      p.Name,
		Hue:       p.Hue,
		Admin:     p.Admin,
		X:         p.Pos.X,
		Y:         p.Pos.Y,
		MassTotal: p.MassTotal,
		Cells:     make([]CellState, 0, len(p.Cells)),
	}
	for _, c := range p.Cells {
		ps.Cells = append(ps.Cells, CellState{X: c.Pos.X, Y: c.Pos.Y, Mass: c.Mass, Radius: c.Radius, Speed: c.Speed})
	}
	return ps
}

// SpectatorState is the synthetic viewer sent to spectators: centred on the
// map with no cells.
func SpectatorState(id uint64, width, height float64) PlayerState {
	return PlayerState{ID: id, Hue: 100, X: width / 2, Y: height / 2, Cells: []CellState{}}
}

// TickStateOf converts a visibility result. self replaces v.Self so the
// same function serves spectators.
func TickStateOf(self PlayerState, v world.View) TickState {
	ts := TickState{
		Self:    self,
		Players: make([]PlayerState, 0, len(v.Players)),
		Food:    make([]FoodState, 0, len(v.Food)),
		Mass:    make([]MassState, 0, len(v.Mass)),
		Viruses: make([]VirusState, 0, len(v.Viruses)),
	}
	for _, p := range v.Players {
		ts.Players = append(ts.Players, PlayerStateOf(p))
	}
	for _, f := range v.Food {
		ts.Food = append(ts.Food, FoodState{X: f.Pos.X, Y: f.Pos.Y, Radius: f.Radius, Mass: f.Mass, Hue: f.Hue})
	}
	for _, m := range v.Mass {
		ts.Mass = append(ts.Mass, MassState{X: m.Pos.X, Y: m.Pos.Y, Radius: m.Radius, Mass: m.Mass, Hue: m.Hue})
	}
	for _, vi := range v.Viruses {
		ts.Viruses = append(ts.Viruses, VirusState{
			X: vi.Pos.X, Y: vi.Pos.Y, Radius: vi.Radius, Mass: vi.Mass,
			Fill: vi.Style.Fill, Stroke: vi.Style.Stroke, StrokeWidth: vi.Style.StrokeWidth,
		})
	}
	return ts
}

func LeaderboardOf(totalPlayers int, entries []world.LeaderEntry) Leaderboard {
	lb := Leaderboard{Players: totalPlayers, Leaderboard: make([]LeaderEntry, len(entries))}
	for i, e := range entries {
		lb.Leaderboard[i] = LeaderEntry{ID: e.ID, Name: e.Name}
	}
	return lb
}
