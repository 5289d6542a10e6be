package world

import (
	"math"

	"github.com/massarena/server/internal/geom"
)

// Cell is one mass blob owned by a Player.
type Cell struct {
	Pos    geom.Vec2
	Mass   float64
	Radius float64
	Speed  float64

	dead bool // eaten or merged this pass, dropped on compaction
}

func NewCell(pos geom.Vec2, mass, speed float64) *Cell {
	return &Cell{Pos: pos, Mass: mass, Radius: geom.MassToRadius(mass), Speed: speed}
}

func (c *Cell) SetMass(m float64) {
	c.Mass = m
	c.Radius = geom.MassToRadius(m)
}

func (c *Cell) AddMass(d float64) { c.SetMass(c.Mass + d) }

func (c *Cell) Circle() geom.Circle { return geom.Circle{C: c.Pos, R: c.Radius} }

// Move steps the cell toward the owner's target. The target is relative to
// the owner's centroid, so the cell heads for ownerPos + target.
func (c *Cell) Move(ownerPos, target geom.Vec2, slowBase, initMassLog float64) {
	d := ownerPos.Sub(c.Pos).Add(target)
	dist := math.Hypot(d.Y, d.X)
	deg := math.Atan2(d.Y, d.X)

	slowDown := 1.0
	if c.Speed <= MinSpeed {
		slowDown = geom.LogBase(c.Mass, slowBase) - initMassLog + 1
	}

	dy := c.Speed * math.Sin(deg) / slowDown
	dx := c.Speed * math.Cos(deg) / slowDown

	if c.Speed > MinSpeed {
		c.Speed -= SpeedDecrement
	}
	if limit := MinDistance + c.Radius; dist < limit {
		dy *= dist / limit
		dx *= dist / limit
	}

	// A degenerate heading drops that axis for this tick.
	if !math.IsNaN(dy) {
		c.Pos.Y += dy
	}
	if !math.IsNaN(dx) {
		c.Pos.X += dx
	}
}
