package geom

import (
	"math"
	"math/rand"
)

// placementCandidates is how many random spots UniformPosition samples.
const placementCandidates = 10

// RandomInRange returns an integer-valued float in [from, to).
func RandomInRange(rng *rand.Rand, from, to float64) float64 {
	return math.Floor(rng.Float64()*(to-from)) + from
}

// RandomPosition returns a position inside the world inset by radius.
func RandomPosition(rng *rand.Rand, radius, width, height float64) Vec2 {
	return Vec2{
		X: RandomInRange(rng, radius, width-radius),
		Y: RandomInRange(rng, radius, height-radius),
	}
}

// UniformPosition samples up to ten random candidates and keeps the one whose
// nearest neighbour in points is farthest away. The first candidate that
// does not strictly beat the best so far ends the search with a fresh random
// position instead, so the result is locally best at most.
func UniformPosition(rng *rand.Rand, points []Circle, radius, width, height float64) Vec2 {
	if len(points) == 0 {
		return RandomPosition(rng, radius, width, height)
	}

	var best Vec2
	found := false
	maxDistance := 0.0
	for i := 0; i < placementCandidates; i++ {
		candidate := RandomPosition(rng, radius, width, height)
		minDistance := math.Inf(1)
		for _, p := range points {
			if d := EdgeDistance(Circle{C: candidate, R: radius}, p); d < minDistance {
				minDistance = d
			}
		}
		if minDistance > maxDistance {
			best = candidate
			maxDistance = minDistance
			found = true
		} else {
			return RandomPosition(rng, radius, width, height)
		}
	}
	if !found {
		return RandomPosition(rng, radius, width, height)
	}
	return best
}

// Position picks uniform or plain random placement.
func Position(rng *rand.Rand, uniform bool, radius float64, points []Circle, width, height float64) Vec2 {
	if uniform {
		return UniformPosition(rng, points, radius, width, height)
	}
	return RandomPosition(rng, radius, width, height)
}
