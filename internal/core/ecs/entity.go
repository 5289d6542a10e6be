package ecs

import "fmt"

// ID is an opaque entity handle. The lower 32 bits hold a slot index, the
// upper 32 bits its generation. Destroying a slot bumps the generation, so a
// handle kept past its entity's death never matches the slot's next occupant.
type ID uint64

func NewID(index uint32, generation uint32) ID {
	return ID(uint64(generation)<<32 | uint64(index))
}

func (id ID) Index() uint32      { return uint32(id) }
func (id ID) Generation() uint32 { return uint32(id >> 32) }
func (id ID) IsZero() bool       { return id == 0 }

func (id ID) String() string {
	return fmt.Sprintf("%d.%d", id.Index(), id.Generation())
}

// Pool hands out IDs with generational indices and a free list.
// Generations start at 1 so no live entity ever has the zero ID.
type Pool struct {
	generations []uint32
	freeList    []uint32
	nextIndex   uint32
	live        int
}

func NewPool() *Pool {
	return &Pool{
		generations: make([]uint32, 0, 1024),
		freeList:    make([]uint32, 0, 256),
	}
}

func (p *Pool) Create() ID {
	p.live++
	if n := len(p.freeList); n > 0 {
		idx := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return NewID(idx, p.generations[idx])
	}
	idx := p.nextIndex
	p.nextIndex++
	p.generations = append(p.generations, 1)
	return NewID(idx, 1)
}

func (p *Pool) Alive(id ID) bool {
	idx := id.Index()
	if idx >= p.nextIndex {
		return false
	}
	return p.generations[idx] == id.Generation()
}

func (p *Pool) Destroy(id ID) {
	if !p.Alive(id) {
		return
	}
	idx := id.Index()
	p.generations[idx]++
	if p.generations[idx] == 0 {
		p.generations[idx] = 1
	}
	p.freeList = append(p.freeList, idx)
	p.live--
}

// Live returns the number of IDs handed out and not yet destroyed.
func (p *Pool) Live() int { return p.live }
