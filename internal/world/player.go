package world

import (
	"math"
	"sort"
	"time"

	"github.com/massarena/server/internal/core/ecs"
	"github.com/massarena/server/internal/geom"
)

// Player owns an ordered set of cells and the state driving them.
// Accessed only from the game loop goroutine.
type Player struct {
	ID     uint64 // session ID
	Entity ecs.ID
	Name   string
	Admin  bool
	Hue    int
	IP     string

	Cells     []*Cell
	MassTotal float64
	Pos       geom.Vec2 // centroid of Cells
	Target    geom.Vec2 // relative to Pos

	ScreenWidth  float64
	ScreenHeight float64

	LastHeartbeat time.Time
	MergeAt       time.Time // zero until the first split

	live int // cells not tombstoned
}

func NewPlayer(id uint64, ip string, hue int, now time.Time) *Player {
	return &Player{ID: id, IP: ip, Hue: hue, LastHeartbeat: now}
}

// Init resets the player to a single default cell at pos.
func (p *Player) Init(pos geom.Vec2, defaultMass float64) {
	p.Cells = []*Cell{NewCell(pos, defaultMass, MinSpeed)}
	p.live = 1
	p.MassTotal = defaultMass
	p.Pos = pos
	p.Target = geom.Vec2{}
	p.MergeAt = time.Time{}
}

// Configure applies the client's join details.
func (p *Player) Configure(name string, screenWidth, screenHeight float64, now time.Time) {
	p.Name = name
	p.SetScreen(screenWidth, screenHeight)
	p.LastHeartbeat = now
}

// SetScreen stores the client's viewport, clamped to [0, MaxScreenSize].
// Non-finite or negative sizes become 0, which shows only what touches the
// player's centroid.
func (p *Player) SetScreen(width, height float64) {
	p.ScreenWidth = clampScreen(width)
	p.ScreenHeight = clampScreen(height)
}

func clampScreen(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > MaxScreenSize:
		return MaxScreenSize
	}
	return v
}

// Heartbeat refreshes liveness and, unless target is the centroid itself,
// stores it as the new movement target.
func (p *Player) Heartbeat(target geom.Vec2, now time.Time) {
	p.LastHeartbeat = now
	if !target.Equal(p.Pos) && !target.IsNaN() {
		p.Target = target
	}
}

// HeartbeatStale reports whether the last heartbeat is older than max.
func (p *Player) HeartbeatStale(now time.Time, max time.Duration) bool {
	return now.Sub(p.LastHeartbeat) > max
}

// Alive reports whether the player still owns a cell.
func (p *Player) Alive() bool { return p.live > 0 }

// CellCount returns the number of live cells.
func (p *Player) CellCount() int { return p.live }

// ChangeCellMass adds d (possibly negative) to cell i and the total.
func (p *Player) ChangeCellMass(i int, d float64) {
	p.feed(p.Cells[i], d)
}

func (p *Player) feed(c *Cell, d float64) {
	c.AddMass(d)
	p.MassTotal += d
}

// RemoveCell drops cell i and reports whether the player has no cells left.
func (p *Player) RemoveCell(i int) bool {
	died := p.markCell(p.Cells[i])
	p.compactCells()
	return died
}

// markCell tombstones c and debits its mass. Returns true when that was the
// last live cell.
func (p *Player) markCell(c *Cell) bool {
	if c.dead {
		return false
	}
	c.dead = true
	p.live--
	p.MassTotal -= c.Mass
	return p.live == 0
}

func (p *Player) compactCells() {
	if p.live == len(p.Cells) {
		return
	}
	kept := p.Cells[:0]
	for _, c := range p.Cells {
		if !c.dead {
			kept = append(kept, c)
		}
	}
	for i := len(kept); i < len(p.Cells); i++ {
		p.Cells[i] = nil
	}
	p.Cells = kept
}

// SplitCell divides cell i into at most requested equal pieces, limited so
// no piece falls below defaultMass. New pieces start at the cell's position
// with split speed. Any split restarts the merge cooldown.
func (p *Player) SplitCell(i, requested int, defaultMass float64, mergeTimer time.Duration, now time.Time) int {
	c := p.Cells[i]
	if c.dead || requested <= 0 {
		return 0
	}
	pieces := int(c.Mass / defaultMass)
	if requested < pieces {
		pieces = requested
	}
	if pieces <= 0 {
		return 0
	}
	m := c.Mass / float64(pieces)
	for k := 0; k < pieces-1; k++ {
		p.Cells = append(p.Cells, NewCell(c.Pos, m, SplitCellSpeed))
		p.live++
	}
	c.SetMass(m)
	p.MergeAt = now.Add(mergeTimer)
	return pieces
}

// VirusSplit bursts each listed cell into as many pieces as the cell budget
// still allows.
func (p *Player) VirusSplit(indexes []int, maxCells int, defaultMass float64, mergeTimer time.Duration, now time.Time) {
	for _, i := range indexes {
		p.SplitCell(i, maxCells-p.live+1, defaultMass, mergeTimer, now)
	}
}

// UserSplit halves cells. Below half the budget every cell splits; above it
// only the heaviest cells split, as many as the budget has room for.
func (p *Player) UserSplit(maxCells int, defaultMass float64, mergeTimer time.Duration, now time.Time) {
	n := p.live
	if n*2 > maxCells {
		n = maxCells - p.live
		sort.SliceStable(p.Cells, func(a, b int) bool { return p.Cells[a].Mass > p.Cells[b].Mass })
	}
	for i := 0; i < n; i++ {
		p.SplitCell(i, 2, defaultMass, mergeTimer, now)
	}
}

// eachCollidingPair calls fn for every overlapping pair of live cells,
// lower index first.
func (p *Player) eachCollidingPair(fn func(a, b *Cell)) {
	for i, a := range p.Cells {
		if a.dead {
			continue
		}
		for _, b := range p.Cells[i+1:] {
			if a.dead {
				break
			}
			if b.dead {
				continue
			}
			if Collide(a.Circle(), b.Circle()) != NoCollision {
				fn(a, b)
			}
		}
	}
}

// MergeCollidingCells folds every overlapping cell into its lower-indexed
// partner. Total mass is unchanged.
func (p *Player) MergeCollidingCells() {
	p.eachCollidingPair(func(a, b *Cell) {
		a.AddMass(b.Mass)
		b.dead = true
		p.live--
	})
	p.compactCells()
}

// PushAwayCollidingCells nudges overlapping cells apart along the line
// joining their centres, or along +y when they coincide.
func (p *Player) PushAwayCollidingCells() {
	p.eachCollidingPair(func(a, b *Cell) {
		v := b.Pos.Sub(a.Pos).Normalize().Scale(PushingAwaySpeed)
		if v.Len() == 0 {
			v = geom.Vec2{Y: 1}
		}
		a.Pos = a.Pos.Sub(v)
		b.Pos = b.Pos.Add(v)
	})
}

// Move resolves same-player overlaps, steps every cell and recomputes the
// centroid.
func (p *Player) Move(s Settings, initMassLog float64, now time.Time) {
	if p.live > 1 {
		if !p.MergeAt.IsZero() && p.MergeAt.Before(now) {
			p.MergeCollidingCells()
		} else {
			p.PushAwayCollidingCells()
		}
	}
	if len(p.Cells) == 0 {
		return
	}

	var sum geom.Vec2
	for _, c := range p.Cells {
		c.Move(p.Pos, p.Target, s.SlowBase, initMassLog)
		c.Pos = geom.ClampToBounds(c.Pos, c.Radius/3, 0, s.Width, s.Height)
		sum = sum.Add(c.Pos)
	}
	p.Pos = sum.Scale(1 / float64(len(p.Cells)))
}

// LoseMassIfNeeded applies the mass-loss rule to every cell.
func (p *Player) LoseMassIfNeeded(loss MassLossFunc) {
	for i, c := range p.Cells {
		if d := loss(c.Mass, p.MassTotal); d > 0 {
			p.ChangeCellMass(i, -d)
		}
	}
}
