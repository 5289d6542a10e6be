package world

import (
	"math"

	"github.com/massarena/server/internal/geom"
)

// gridCellSize is the bucket edge of the visibility grid in world units.
const gridCellSize = 256

type bucketKey struct {
	cx int32
	cy int32
}

func toBucket(v float64) int32 {
	return int32(math.Floor(v / gridCellSize))
}

// bucketAt is toBucket for query bounds, which may be far outside the world.
// Out-of-range values saturate instead of wrapping.
func bucketAt(v float64) int32 {
	b := math.Floor(v / gridCellSize)
	switch {
	case math.IsNaN(b):
		return 0
	case b < math.MinInt32:
		return math.MinInt32
	case b > math.MaxInt32:
		return math.MaxInt32
	}
	return int32(b)
}

// Grid buckets entities by centre position. It is rebuilt for every query
// round, so there is no Move. Query widens its range by the largest half
// extent inserted, so callers still run the exact overlap test on each hit.
// The scan never leaves the occupied bucket range, so a huge query rectangle
// costs no more than a full walk of the grid.
type Grid[T any] struct {
	buckets map[bucketKey][]T
	maxHalf float64
	lo, hi  bucketKey // occupied range, valid when buckets is non-empty
}

func NewGrid[T any]() *Grid[T] {
	return &Grid[T]{buckets: make(map[bucketKey][]T)}
}

func (g *Grid[T]) Reset() {
	clear(g.buckets)
	g.maxHalf = 0
}

// Insert adds v at pos. half is the entity's half extent on either axis.
func (g *Grid[T]) Insert(pos geom.Vec2, half float64, v T) {
	k := bucketKey{cx: toBucket(pos.X), cy: toBucket(pos.Y)}
	if len(g.buckets) == 0 {
		g.lo, g.hi = k, k
	} else {
		g.lo.cx, g.lo.cy = min(g.lo.cx, k.cx), min(g.lo.cy, k.cy)
		g.hi.cx, g.hi.cy = max(g.hi.cx, k.cx), max(g.hi.cy, k.cy)
	}
	g.buckets[k] = append(g.buckets[k], v)
	if half > g.maxHalf {
		g.maxHalf = half
	}
}

// Query calls fn for every entity whose bucket may intersect the rectangle
// centred on c with half extents hw, hh. Buckets are visited row by row, so
// the order is stable for a given grid.
func (g *Grid[T]) Query(c geom.Vec2, hw, hh float64, fn func(T)) {
	if len(g.buckets) == 0 {
		return
	}
	x0 := max(bucketAt(c.X-hw-g.maxHalf), g.lo.cx)
	x1 := min(bucketAt(c.X+hw+g.maxHalf), g.hi.cx)
	y0 := max(bucketAt(c.Y-hh-g.maxHalf), g.lo.cy)
	y1 := min(bucketAt(c.Y+hh+g.maxHalf), g.hi.cy)
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			for _, v := range g.buckets[bucketKey{cx: cx, cy: cy}] {
				fn(v)
			}
		}
	}
}
