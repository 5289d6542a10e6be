package world

import (
	"math/rand"

	"github.com/massarena/server/internal/core/ecs"
	"github.com/massarena/server/internal/geom"
)

// Virus splits any heavier cell that swallows it.
type Virus struct {
	ID     ecs.ID
	Pos    geom.Vec2
	Radius float64
	Mass   float64
	Style  VirusStyle
}

// VirusManager owns all viruses.
type VirusManager struct {
	table    *ecs.Table[Virus]
	rng      *rand.Rand
	styles   []VirusStyle
	massFrom float64
	massTo   float64
	uniform  bool
	width    float64
	height   float64
}

func NewVirusManager(pool *ecs.Pool, rng *rand.Rand, s Settings, styles []VirusStyle) *VirusManager {
	if len(styles) == 0 {
		styles = []VirusStyle{DefaultVirusStyle}
	}
	return &VirusManager{
		table:    ecs.NewTable[Virus](pool),
		rng:      rng,
		styles:   styles,
		massFrom: s.VirusMassFrom,
		massTo:   s.VirusMassTo,
		uniform:  s.VirusUniform,
		width:    s.Width,
		height:   s.Height,
	}
}

// AddNew places n viruses with masses drawn from the configured range.
func (m *VirusManager) AddNew(n int) {
	for ; n > 0; n-- {
		mass := geom.RandomInRange(m.rng, m.massFrom, m.massTo)
		radius := geom.MassToRadius(mass)
		var points []geom.Circle
		if m.uniform {
			points = make([]geom.Circle, 0, m.table.Len())
			m.table.Each(func(_ ecs.ID, v *Virus) bool {
				points = append(points, geom.Circle{C: v.Pos, R: v.Radius})
				return true
			})
		}
		pos := geom.Position(m.rng, m.uniform, radius, points, m.width, m.height)
		style := m.styles[0]
		if len(m.styles) > 1 {
			style = m.styles[m.rng.Intn(len(m.styles))]
		}
		m.table.Add(func(id ecs.ID) *Virus {
			return &Virus{ID: id, Pos: pos, Radius: radius, Mass: mass, Style: style}
		})
	}
}

func (m *VirusManager) Len() int                          { return m.table.Len() }
func (m *VirusManager) Each(fn func(ecs.ID, *Virus) bool) { m.table.Each(fn) }
func (m *VirusManager) Values() []*Virus                  { return m.table.Values() }
func (m *VirusManager) Mark(id ecs.ID) bool               { return m.table.Mark(id) }
func (m *VirusManager) Compact() int                      { return m.table.Compact() }
