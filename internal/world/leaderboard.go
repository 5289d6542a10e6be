package world

// LeaderEntry is one ranked player.
type LeaderEntry struct {
	ID   uint64
	Name string
}

// Leaderboard keeps the last published ranking and whether it changed since
// it was last sent.
type Leaderboard struct {
	entries []LeaderEntry
	changed bool
}

// Update replaces the ranking when the ID sequence differs. Returns whether
// it did.
func (l *Leaderboard) Update(top []LeaderEntry) bool {
	if len(top) == len(l.entries) {
		same := true
		for i := range top {
			if top[i].ID != l.entries[i].ID {
				same = false
				break
			}
		}
		if same {
			return false
		}
	}
	l.entries = top
	l.changed = true
	return true
}

func (l *Leaderboard) Entries() []LeaderEntry { return l.entries }

// Changed reports whether the ranking changed since the last MarkSent.
func (l *Leaderboard) Changed() bool { return l.changed }

func (l *Leaderboard) MarkSent() { l.changed = false }
