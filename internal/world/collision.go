package world

import "github.com/massarena/server/internal/geom"

// Outcome is the result of testing two cell circles against each other.
type Outcome uint8

const (
	NoCollision Outcome = iota
	Overlap             // touching or intersecting, neither contains the other
	BInsideA            // b lies entirely within a
	AInsideB            // a lies entirely within b
)

func (o Outcome) String() string {
	switch o {
	case NoCollision:
		return "NoCollision"
	case Overlap:
		return "Overlap"
	case BInsideA:
		return "BInsideA"
	case AInsideB:
		return "AInsideB"
	default:
		return "Unknown"
	}
}

// Collide classifies two circles. Containment is inclusive, and when both
// containments hold (identical circles) a contains b.
func Collide(a, b geom.Circle) Outcome {
	dist2 := a.C.Dist2(b.C)
	sum := a.R + b.R
	if dist2 > sum*sum {
		return NoCollision
	}
	if b.R <= a.R {
		if edge := a.R - b.R; dist2 <= edge*edge {
			return BInsideA
		}
	}
	if a.R <= b.R {
		if edge := b.R - a.R; dist2 <= edge*edge {
			return AInsideB
		}
	}
	return Overlap
}

// Contained reports whether the outcome is a consumption.
func (o Outcome) Contained() bool { return o == BInsideA || o == AInsideB }

// Death records a player whose last cell was eaten.
type Death struct {
	PlayerID uint64
	Name     string
	EatenBy  uint64
	Mass     float64 // mass of the final cell
}

// resolvePlayerCollisions tests every live cell of every player pair and
// lets the containing cell absorb the contained one. Eaten cells are
// tombstoned and skipped for the rest of the pass; players whose last cell
// was eaten are marked for removal and reported.
func (w *World) resolvePlayerCollisions() []Death {
	var deaths []Death
	players := w.Players.Values()
	for i := 0; i < len(players); i++ {
		for j := i + 1; j < len(players); j++ {
			a, b := players[i], players[j]
			for _, ca := range a.Cells {
				if ca.dead {
					continue
				}
				for _, cb := range b.Cells {
					if ca.dead {
						break
					}
					if cb.dead {
						continue
					}
					switch Collide(ca.Circle(), cb.Circle()) {
					case BInsideA:
						if d, died := w.eatCell(a, ca, b, cb); died {
							deaths = append(deaths, d)
						}
					case AInsideB:
						if d, died := w.eatCell(b, cb, a, ca); died {
							deaths = append(deaths, d)
						}
					}
				}
			}
		}
	}

	for _, p := range players {
		p.compactCells()
	}
	w.Players.Compact()
	return deaths
}

func (w *World) eatCell(eater *Player, ec *Cell, victim *Player, vc *Cell) (Death, bool) {
	eater.feed(ec, vc.Mass)
	if !victim.markCell(vc) {
		return Death{}, false
	}
	w.Players.Mark(victim.ID)
	return Death{PlayerID: victim.ID, Name: victim.Name, EatenBy: eater.ID, Mass: vc.Mass}, true
}
