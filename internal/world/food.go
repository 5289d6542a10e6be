package world

import (
	"math"
	"math/rand"

	"github.com/massarena/server/internal/core/ecs"
	"github.com/massarena/server/internal/geom"
)

// Food is a passive pellet placed by the mass balancer.
type Food struct {
	ID     ecs.ID
	Pos    geom.Vec2
	Radius float64
	Mass   float64 // [2,3), cosmetic
	Hue    int
}

// FoodManager owns all food.
type FoodManager struct {
	table   *ecs.Table[Food]
	rng     *rand.Rand
	mass    float64
	uniform bool
	width   float64
	height  float64
}

func NewFoodManager(pool *ecs.Pool, rng *rand.Rand, s Settings) *FoodManager {
	return &FoodManager{
		table:   ecs.NewTable[Food](pool),
		rng:     rng,
		mass:    s.FoodMass,
		uniform: s.FoodUniform,
		width:   s.Width,
		height:  s.Height,
	}
}

// AddNew places n food items.
func (m *FoodManager) AddNew(n int) {
	if n <= 0 {
		return
	}
	radius := geom.MassToRadius(m.mass)
	var points []geom.Circle
	if m.uniform {
		points = make([]geom.Circle, 0, m.table.Len()+n)
		m.table.Each(func(_ ecs.ID, f *Food) bool {
			points = append(points, geom.Circle{C: f.Pos, R: f.Radius})
			return true
		})
	}
	for ; n > 0; n-- {
		pos := geom.Position(m.rng, m.uniform, radius, points, m.width, m.height)
		m.table.Add(func(id ecs.ID) *Food {
			return &Food{
				ID:     id,
				Pos:    pos,
				Radius: radius,
				Mass:   m.rng.Float64() + 2,
				Hue:    int(math.Round(m.rng.Float64() * 360)),
			}
		})
		if m.uniform {
			points = append(points, geom.Circle{C: pos, R: radius})
		}
	}
}

// RemoveExcess drops up to n items from the tail.
func (m *FoodManager) RemoveExcess(n int) int { return m.table.TrimTail(n) }

func (m *FoodManager) Len() int                         { return m.table.Len() }
func (m *FoodManager) Each(fn func(ecs.ID, *Food) bool) { m.table.Each(fn) }
func (m *FoodManager) Values() []*Food                  { return m.table.Values() }
func (m *FoodManager) Mark(id ecs.ID) bool              { return m.table.Mark(id) }
func (m *FoodManager) Compact() int                     { return m.table.Compact() }
