package ecs

// Table is an insertion-ordered set of entities keyed by ID.
//
// Removal is two-step so that scans never observe a shifting slice: Mark
// tombstones a row (it is skipped by Each and no longer counted), Compact
// later drops every tombstoned row and releases its ID. Survivors keep their
// relative order. Accessed only from the game loop goroutine.
type Table[T any] struct {
	pool  *Pool
	rows  []row[T]
	index map[ID]int
	dead  int
}

type row[T any] struct {
	id   ID
	val  *T
	dead bool
}

func NewTable[T any](pool *Pool) *Table[T] {
	return &Table[T]{
		pool:  pool,
		rows:  make([]row[T], 0, 256),
		index: make(map[ID]int, 256),
	}
}

// Add allocates an ID, builds the entity with it and appends it.
func (t *Table[T]) Add(build func(id ID) *T) *T {
	id := t.pool.Create()
	v := build(id)
	t.index[id] = len(t.rows)
	t.rows = append(t.rows, row[T]{id: id, val: v})
	return v
}

// Get returns a live entity by ID.
func (t *Table[T]) Get(id ID) (*T, bool) {
	i, ok := t.index[id]
	if !ok || t.rows[i].dead {
		return nil, false
	}
	return t.rows[i].val, true
}

// Len returns the number of live (unmarked) entities.
func (t *Table[T]) Len() int {
	return len(t.rows) - t.dead
}

// Each visits live entities in insertion order until fn returns false.
// Rows appended during the scan are not visited.
func (t *Table[T]) Each(fn func(ID, *T) bool) {
	n := len(t.rows)
	for i := 0; i < n; i++ {
		r := &t.rows[i]
		if r.dead {
			continue
		}
		if !fn(r.id, r.val) {
			return
		}
	}
}

// Values returns the live entities in order. The slice is freshly allocated.
func (t *Table[T]) Values() []*T {
	out := make([]*T, 0, t.Len())
	for i := range t.rows {
		if !t.rows[i].dead {
			out = append(out, t.rows[i].val)
		}
	}
	return out
}

// Mark tombstones an entity. Returns false if it is unknown or already marked.
func (t *Table[T]) Mark(id ID) bool {
	i, ok := t.index[id]
	if !ok || t.rows[i].dead {
		return false
	}
	t.rows[i].dead = true
	t.dead++
	return true
}

// Compact removes every tombstoned row and returns how many were dropped.
func (t *Table[T]) Compact() int {
	if t.dead == 0 {
		return 0
	}
	removed := 0
	kept := t.rows[:0]
	for _, r := range t.rows {
		if r.dead {
			delete(t.index, r.id)
			t.pool.Destroy(r.id)
			removed++
			continue
		}
		t.index[r.id] = len(kept)
		kept = append(kept, r)
	}
	for i := len(kept); i < len(t.rows); i++ {
		t.rows[i] = row[T]{}
	}
	t.rows = kept
	t.dead = 0
	return removed
}

// TrimTail marks the last n live entities and compacts. Returns how many
// live entities were trimmed.
func (t *Table[T]) TrimTail(n int) int {
	trimmed := 0
	for i := len(t.rows) - 1; i >= 0 && trimmed < n; i-- {
		if t.rows[i].dead {
			continue
		}
		t.rows[i].dead = true
		t.dead++
		trimmed++
	}
	t.Compact()
	return trimmed
}
