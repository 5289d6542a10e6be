package world

import (
	"math"

	"github.com/massarena/server/internal/core/ecs"
	"github.com/massarena/server/internal/geom"
)

// EjectedMass is a pellet fired from a player's cell.
type EjectedMass struct {
	ID        ecs.ID
	OwnerID   uint64
	CellIndex int // index of the firing cell at the moment of ejection
	Mass      float64
	Hue       int
	Direction geom.Vec2
	Pos       geom.Vec2
	Radius    float64
	Speed     float64
}

// Move advances a moving pellet and decays its speed toward zero.
func (e *EjectedMass) Move(width, height float64) {
	dx := e.Speed * e.Direction.X
	dy := e.Speed * e.Direction.Y

	e.Speed -= PelletSpeedDecrement
	if e.Speed < 0 {
		e.Speed = 0
	}
	if !math.IsNaN(dy) {
		e.Pos.Y += dy
	}
	if !math.IsNaN(dx) {
		e.Pos.X += dx
	}
	e.Pos = geom.ClampToBounds(e.Pos, e.Radius, PelletBorderOffset, width, height)
}

// MassManager owns all ejected pellets.
type MassManager struct {
	table *ecs.Table[EjectedMass]
}

func NewMassManager(pool *ecs.Pool) *MassManager {
	return &MassManager{table: ecs.NewTable[EjectedMass](pool)}
}

// Add fires a pellet of the given mass from cell i of p toward p's target.
func (m *MassManager) Add(p *Player, i int, mass float64) *EjectedMass {
	c := p.Cells[i]
	dir := p.Pos.Sub(c.Pos).Add(p.Target).Normalize()
	return m.table.Add(func(id ecs.ID) *EjectedMass {
		return &EjectedMass{
			ID:        id,
			OwnerID:   p.ID,
			CellIndex: i,
			Mass:      mass,
			Hue:       p.Hue,
			Direction: dir,
			Pos:       c.Pos,
			Radius:    geom.MassToRadius(mass),
			Speed:     PelletSpeed,
		}
	})
}

// Move advances every pellet that still has speed.
func (m *MassManager) Move(width, height float64) {
	m.table.Each(func(_ ecs.ID, e *EjectedMass) bool {
		if e.Speed > 0 {
			e.Move(width, height)
		}
		return true
	})
}

func (m *MassManager) Len() int                                { return m.table.Len() }
func (m *MassManager) Each(fn func(ecs.ID, *EjectedMass) bool) { m.table.Each(fn) }
func (m *MassManager) Values() []*EjectedMass                  { return m.table.Values() }
func (m *MassManager) Mark(id ecs.ID) bool                     { return m.table.Mark(id) }
func (m *MassManager) Compact() int                            { return m.table.Compact() }
