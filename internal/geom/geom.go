// Package geom holds the stateless math shared by the simulation: mass to
// radius conversion, distances, overlap tests, bounds clamping and spawn
// placement sampling.
package geom

import "math"

// Vec2 is a point or direction in world space.
type Vec2 struct {
	X float64 `msgpack:"x"`
	Y float64 `msgpack:"y"`
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }
func (v Vec2) Len2() float64        { return v.X*v.X + v.Y*v.Y }
func (v Vec2) IsNaN() bool          { return math.IsNaN(v.X) || math.IsNaN(v.Y) }
func (v Vec2) Equal(o Vec2) bool    { return v.X == o.X && v.Y == o.Y }
func (v Vec2) Dist(o Vec2) float64  { return o.Sub(v).Len() }
func (v Vec2) Dist2(o Vec2) float64 { return o.Sub(v).Len2() }

// Normalize returns the unit vector of v. A zero vector stays zero.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Circle is a position with a radius.
type Circle struct {
	C Vec2
	R float64
}

// MassToRadius converts mass to a circle radius.
func MassToRadius(mass float64) float64 {
	return 4 + math.Sqrt(mass)*6
}

// LogBase returns log_base(n).
func LogBase(n, base float64) float64 {
	return math.Log(n) / math.Log(base)
}

// EdgeDistance is the gap between two circles: centre distance minus both
// radii. Negative when they overlap.
func EdgeDistance(a, b Circle) float64 {
	return a.C.Dist(b.C) - a.R - b.R
}

// PointInCircle reports whether p lies inside or on c.
func PointInCircle(p Vec2, c Circle) bool {
	return p.Dist2(c.C) <= c.R*c.R
}

// CirclesOverlap reports whether two circles intersect. Touching counts.
func CirclesOverlap(a, b Circle) bool {
	r := a.R + b.R
	return a.C.Dist2(b.C) <= r*r
}

// RectOverlap tests two centred axis-aligned rectangles given by centre and
// half extents. Edges that exactly touch count as overlapping.
func RectOverlap(ax, ay, ahw, ahh, bx, by, bhw, bhh float64) bool {
	return ax+ahw >= bx-bhw &&
		ax-ahw <= bx+bhw &&
		ay+ahh >= by-bhh &&
		ay-ahh <= by+bhh
}

// ClampToBounds keeps p at least radius+borderOffset away from every edge of
// a width x height world.
func ClampToBounds(p Vec2, radius, borderOffset, width, height float64) Vec2 {
	b := radius + borderOffset
	if p.X > width-b {
		p.X = width - b
	}
	if p.Y > height-b {
		p.Y = height - b
	}
	if p.X < b {
		p.X = b
	}
	if p.Y < b {
		p.Y = b
	}
	return p
}
