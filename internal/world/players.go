package world

import (
	"sort"

	"github.com/massarena/server/internal/core/ecs"
)

// PlayerManager owns the players currently in the arena, in join order.
type PlayerManager struct {
	table     *ecs.Table[Player]
	bySession map[uint64]ecs.ID
}

func NewPlayerManager(pool *ecs.Pool) *PlayerManager {
	return &PlayerManager{
		table:     ecs.NewTable[Player](pool),
		bySession: make(map[uint64]ecs.ID),
	}
}

// Add inserts p. It returns false if a player with the same ID is present.
func (m *PlayerManager) Add(p *Player) bool {
	if _, ok := m.bySession[p.ID]; ok {
		return false
	}
	m.table.Add(func(id ecs.ID) *Player {
		p.Entity = id
		return p
	})
	m.bySession[p.ID] = p.Entity
	return true
}

// Get returns the live player with the given session ID.
func (m *PlayerManager) Get(id uint64) *Player {
	e, ok := m.bySession[id]
	if !ok {
		return nil
	}
	p, _ := m.table.Get(e)
	return p
}

// Has reports whether a player with the given session ID is in the arena.
func (m *PlayerManager) Has(id uint64) bool { return m.Get(id) != nil }

// Mark flags a player for removal at the next Compact.
func (m *PlayerManager) Mark(id uint64) bool {
	e, ok := m.bySession[id]
	if !ok {
		return false
	}
	delete(m.bySession, id)
	return m.table.Mark(e)
}

// Remove takes a player out immediately. Not for use inside a scan.
func (m *PlayerManager) Remove(id uint64) bool {
	ok := m.Mark(id)
	m.table.Compact()
	return ok
}

func (m *PlayerManager) Compact() int { return m.table.Compact() }

func (m *PlayerManager) Len() int { return m.table.Len() }

// Each visits players in join order until fn returns false.
func (m *PlayerManager) Each(fn func(*Player) bool) {
	m.table.Each(func(_ ecs.ID, p *Player) bool { return fn(p) })
}

func (m *PlayerManager) Values() []*Player { return m.table.Values() }

// FindByName returns the first non-admin player with the given name.
func (m *PlayerManager) FindByName(name string) *Player {
	var found *Player
	m.Each(func(p *Player) bool {
		if p.Name == name && !p.Admin {
			found = p
			return false
		}
		return true
	})
	return found
}

// TotalMass sums every player's mass.
func (m *PlayerManager) TotalMass() float64 {
	total := 0.0
	m.Each(func(p *Player) bool {
		total += p.MassTotal
		return true
	})
	return total
}

// ShrinkCells applies mass loss to every player.
func (m *PlayerManager) ShrinkCells(loss MassLossFunc) {
	m.Each(func(p *Player) bool {
		p.LoseMassIfNeeded(loss)
		return true
	})
}

// Top returns up to n players ranked by descending mass. Ties keep join
// order.
func (m *PlayerManager) Top(n int) []LeaderEntry {
	ps := m.Values()
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].MassTotal > ps[j].MassTotal })
	if len(ps) > n {
		ps = ps[:n]
	}
	out := make([]LeaderEntry, len(ps))
	for i, p := range ps {
		out[i] = LeaderEntry{ID: p.ID, Name: p.Name}
	}
	return out
}
