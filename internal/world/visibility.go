package world

import (
	"sort"

	"github.com/massarena/server/internal/core/ecs"
	"github.com/massarena/server/internal/geom"
)

// View is what one viewer can see on a broadcast tick.
type View struct {
	Self    *Player
	Players []*Player // every player with at least one cell on screen, in join order
	Food    []*Food
	Mass    []*EjectedMass
	Viruses []*Virus
}

type playerCell struct {
	p *Player
	c *Cell
}

// Visibility answers per-viewer queries against grids rebuilt by Rebuild.
type Visibility struct {
	food    *Grid[*Food]
	mass    *Grid[*EjectedMass]
	viruses *Grid[*Virus]
	cells   *Grid[playerCell]
	order   map[*Player]int
}

func NewVisibility() *Visibility {
	return &Visibility{
		food:    NewGrid[*Food](),
		mass:    NewGrid[*EjectedMass](),
		viruses: NewGrid[*Virus](),
		cells:   NewGrid[playerCell](),
		order:   make(map[*Player]int),
	}
}

func inflate(r float64) float64 { return r + r*VisibilityThreshold }

// Rebuild indexes the current world state.
func (v *Visibility) Rebuild(w *World) {
	v.food.Reset()
	v.mass.Reset()
	v.viruses.Reset()
	v.cells.Reset()
	clear(v.order)

	w.Food.Each(func(_ ecs.ID, f *Food) bool {
		v.food.Insert(f.Pos, f.Radius, f)
		return true
	})
	w.Mass.Each(func(_ ecs.ID, e *EjectedMass) bool {
		v.mass.Insert(e.Pos, inflate(e.Radius), e)
		return true
	})
	w.Viruses.Each(func(_ ecs.ID, vi *Virus) bool {
		v.viruses.Insert(vi.Pos, inflate(vi.Radius), vi)
		return true
	})
	i := 0
	w.Players.Each(func(p *Player) bool {
		v.order[p] = i
		i++
		for _, c := range p.Cells {
			v.cells.Insert(c.Pos, inflate(c.Radius), playerCell{p: p, c: c})
		}
		return true
	})
}

// visible tests an entity's box against the viewer's screen. Touching edges
// count.
func visible(pos geom.Vec2, half float64, viewer *Player) bool {
	return geom.RectOverlap(pos.X, pos.Y, half, half,
		viewer.Pos.X, viewer.Pos.Y, viewer.ScreenWidth/2, viewer.ScreenHeight/2)
}

// For computes the view of one player. Food is tested at its bare radius;
// everything else at its radius inflated by VisibilityThreshold.
func (v *Visibility) For(viewer *Player) View {
	view := View{Self: viewer}
	hw, hh := viewer.ScreenWidth/2, viewer.ScreenHeight/2

	v.food.Query(viewer.Pos, hw, hh, func(f *Food) {
		if visible(f.Pos, f.Radius, viewer) {
			view.Food = append(view.Food, f)
		}
	})
	v.mass.Query(viewer.Pos, hw, hh, func(e *EjectedMass) {
		if visible(e.Pos, inflate(e.Radius), viewer) {
			view.Mass = append(view.Mass, e)
		}
	})
	v.viruses.Query(viewer.Pos, hw, hh, func(vi *Virus) {
		if visible(vi.Pos, inflate(vi.Radius), viewer) {
			view.Viruses = append(view.Viruses, vi)
		}
	})

	seen := make(map[*Player]struct{})
	v.cells.Query(viewer.Pos, hw, hh, func(pc playerCell) {
		if _, ok := seen[pc.p]; ok {
			return
		}
		if visible(pc.c.Pos, inflate(pc.c.Radius), viewer) {
			seen[pc.p] = struct{}{}
			view.Players = append(view.Players, pc.p)
		}
	})
	sortByOrder(view.Players, v.order)
	return view
}

func sortByOrder(ps []*Player, order map[*Player]int) {
	sort.Slice(ps, func(i, j int) bool { return order[ps[i]] < order[ps[j]] })
}

// Enumerate rebuilds the index and calls fn with each player's view, in join
// order.
func (v *Visibility) Enumerate(w *World, fn func(View)) {
	v.Rebuild(w)
	w.Players.Each(func(p *Player) bool {
		fn(v.For(p))
		return true
	})
}

// Everything returns the whole world, as shown to spectators.
func Everything(w *World) View {
	return View{
		Players: w.Players.Values(),
		Food:    w.Food.Values(),
		Mass:    w.Mass.Values(),
		Viruses: w.Viruses.Values(),
	}
}
