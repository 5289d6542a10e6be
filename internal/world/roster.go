package world

// Roster keeps the player record of every connected session, whether or not
// it is currently in the arena, so hue and screen size survive a respawn.
type Roster struct {
	byID map[uint64]*Player
}

func NewRoster() *Roster {
	return &Roster{byID: make(map[uint64]*Player)}
}

func (r *Roster) Get(id uint64) *Player { return r.byID[id] }

func (r *Roster) Put(p *Player) { r.byID[p.ID] = p }

func (r *Roster) Delete(id uint64) { delete(r.byID, id) }

func (r *Roster) Len() int { return len(r.byID) }

// Spectators is the ordered set of sessions watching the whole map.
type Spectators struct {
	ids []uint64
}

// Add registers id once. Returns false if it was already present.
func (s *Spectators) Add(id uint64) bool {
	if s.Has(id) {
		return false
	}
	s.ids = append(s.ids, id)
	return true
}

func (s *Spectators) Remove(id uint64) bool {
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Spectators) Has(id uint64) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

func (s *Spectators) Len() int { return len(s.ids) }

// IDs returns the spectators in registration order.
func (s *Spectators) IDs() []uint64 { return s.ids }
