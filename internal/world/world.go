// Package world holds the arena simulation: players and their cells, food,
// viruses and ejected mass, plus the cross-manager passes run by the tick
// systems. Accessed only from the game loop goroutine, no locks.
package world

import (
	"math"
	"math/rand"
	"time"

	"github.com/massarena/server/internal/core/ecs"
	"github.com/massarena/server/internal/geom"
)

// World composes the four entity managers.
type World struct {
	Settings Settings

	Food    *FoodManager
	Viruses *VirusManager
	Mass    *MassManager
	Players *PlayerManager

	rng         *rand.Rand
	initMassLog float64
}

func New(s Settings, rng *rand.Rand, styles []VirusStyle) *World {
	pool := ecs.NewPool()
	return &World{
		Settings:    s,
		Food:        NewFoodManager(pool, rng, s),
		Viruses:     NewVirusManager(pool, rng, s, styles),
		Mass:        NewMassManager(pool),
		Players:     NewPlayerManager(pool),
		rng:         rng,
		initMassLog: s.InitMassLog(),
	}
}

// NewPlayer creates a player with a random hue. It is not added to the arena
// until Join.
func (w *World) NewPlayer(id uint64, ip string, now time.Time) *Player {
	return NewPlayer(id, ip, int(math.Round(w.rng.Float64()*360)), now)
}

// SpawnPoint picks a starting position for a default-mass cell, away from
// existing players when farthest spawning is enabled.
func (w *World) SpawnPoint() geom.Vec2 {
	radius := geom.MassToRadius(w.Settings.DefaultPlayerMass)
	var points []geom.Circle
	if w.Settings.FarthestSpawn {
		w.Players.Each(func(p *Player) bool {
			points = append(points, geom.Circle{C: p.Pos, R: geom.MassToRadius(p.MassTotal)})
			return true
		})
	}
	return geom.Position(w.rng, w.Settings.FarthestSpawn, radius, points, w.Settings.Width, w.Settings.Height)
}

// Join spawns p with a single default cell and adds it to the arena.
// Returns false if a player with the same ID is already in.
func (w *World) Join(p *Player) bool {
	if w.Players.Has(p.ID) {
		return false
	}
	p.Init(w.SpawnPoint(), w.Settings.DefaultPlayerMass)
	return w.Players.Add(p)
}

// Split performs a user-requested split.
func (w *World) Split(p *Player, now time.Time) {
	s := w.Settings
	p.UserSplit(s.LimitSplit, s.DefaultPlayerMass, s.MergeTimer, now)
}

// EjectMass fires a pellet from every cell heavy enough to afford it.
func (w *World) EjectMass(p *Player) int {
	minMass := w.Settings.DefaultPlayerMass + w.Settings.FireFood
	fired := 0
	for i, c := range p.Cells {
		if c.Mass >= minMass {
			p.ChangeCellMass(i, -w.Settings.FireFood)
			w.Mass.Add(p, i, w.Settings.FireFood)
			fired++
		}
	}
	return fired
}

// Step runs one physics tick: every player moves and eats, pellets move,
// then cells of different players eat each other. Returns the players who
// lost their last cell; they are already removed.
func (w *World) Step(now time.Time) []Death {
	w.Players.Each(func(p *Player) bool {
		p.Move(w.Settings, w.initMassLog, now)
		w.consume(p, now)
		return true
	})
	w.Mass.Move(w.Settings.Width, w.Settings.Height)
	deaths := w.resolvePlayerCollisions()

	w.Food.Compact()
	w.Mass.Compact()
	w.Viruses.Compact()
	return deaths
}

// consume lets each of p's cells eat the food, pellets and at most one virus
// whose centre it covers. Gains are applied once per cell; cells that ate a
// virus burst after the scan.
func (w *World) consume(p *Player, now time.Time) {
	s := w.Settings
	var burst []int
	for i, c := range p.Cells {
		circle := c.Circle()

		eaten := 0
		w.Food.Each(func(id ecs.ID, f *Food) bool {
			if geom.PointInCircle(f.Pos, circle) {
				w.Food.Mark(id)
				eaten++
			}
			return true
		})

		gained := float64(eaten) * s.FoodMass
		w.Mass.Each(func(id ecs.ID, e *EjectedMass) bool {
			if !geom.PointInCircle(e.Pos, circle) {
				return true
			}
			if e.OwnerID == p.ID && e.Speed > 0 && e.CellIndex == i {
				return true
			}
			if c.Mass > e.Mass*EjectEatRatio {
				w.Mass.Mark(id)
				gained += e.Mass
			}
			return true
		})

		w.Viruses.Each(func(id ecs.ID, v *Virus) bool {
			if v.Mass < c.Mass && geom.PointInCircle(v.Pos, circle) {
				w.Viruses.Mark(id)
				burst = append(burst, i)
				return false
			}
			return true
		})

		if gained != 0 {
			p.ChangeCellMass(i, gained)
		}
	}
	if len(burst) > 0 {
		p.VirusSplit(burst, s.LimitSplit, s.DefaultPlayerMass, s.MergeTimer, now)
	}
}

// ShrinkPlayers applies mass loss to every player.
func (w *World) ShrinkPlayers(loss MassLossFunc) {
	w.Players.ShrinkCells(loss)
}

// FoodDelta is how many food items to add (positive) or trim (negative) to
// bring total mass toward gameMass without exceeding maxFood.
func FoodDelta(gameMass, foodMass float64, foodCount, maxFood int, playerMass float64) int {
	total := float64(foodCount)*foodMass + playerMass
	deficit := gameMass - total
	delta := int(math.Floor(deficit / foodMass))
	if free := maxFood - foodCount; free < delta {
		delta = free
	}
	return delta
}

// BalanceResult reports what a BalanceMass pass changed.
type BalanceResult struct {
	FoodAdded    int
	FoodRemoved  int
	VirusesAdded int
}

// BalanceMass tops food up or trims it toward the target world mass, and
// tops viruses up to their cap. Viruses are never trimmed.
func (w *World) BalanceMass() BalanceResult {
	var r BalanceResult
	s := w.Settings
	foodCount := w.Food.Len()
	delta := FoodDelta(s.GameMass, s.FoodMass, foodCount, s.MaxFood, w.Players.TotalMass())
	switch {
	case delta > 0:
		w.Food.AddNew(delta)
		r.FoodAdded = delta
	case delta < 0 && foodCount != 0:
		r.FoodRemoved = w.Food.RemoveExcess(-delta)
	}

	if n := s.MaxVirus - w.Viruses.Len(); n > 0 {
		w.Viruses.AddNew(n)
		r.VirusesAdded = n
	}
	return r
}
