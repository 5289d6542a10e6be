package world

import (
	"time"

	"github.com/massarena/server/internal/geom"
)

// Movement constants shared by cells and ejected pellets.
const (
	MinSpeed         = 6.25
	SplitCellSpeed   = 20.0
	SpeedDecrement   = 0.5
	MinDistance      = 50.0
	PushingAwaySpeed = 1.1

	PelletSpeed          = 25.0
	PelletSpeedDecrement = 0.5
	PelletBorderOffset   = 5.0

	// A pellet is edible by cells heavier than EjectEatRatio times its mass.
	EjectEatRatio = 1.1

	// Non-food entities are culled with their bounding box inflated by this
	// fraction of their radius.
	VisibilityThreshold = 0.1

	// MaxScreenSize caps a client's reported viewport on either axis.
	MaxScreenSize = 16384.0

	LeaderboardSize = 10
)

// VirusStyle is the drawing style attached to each virus.
type VirusStyle struct {
	Fill        string
	Stroke      string
	StrokeWidth int
}

// DefaultVirusStyle is used when no style table is loaded.
var DefaultVirusStyle = VirusStyle{Fill: "#33ff33", Stroke: "#19D119", StrokeWidth: 20}

// Settings are the gameplay rules the world runs under. They are fixed for
// the lifetime of the process.
type Settings struct {
	Width  float64
	Height float64

	DefaultPlayerMass float64
	FoodMass          float64
	FireFood          float64
	LimitSplit        int
	GameMass          float64
	MaxFood           int
	MaxVirus          int
	SlowBase          float64
	MergeTimer        time.Duration
	MassLossRate      float64
	MinMassLoss       float64

	FoodUniform   bool
	FarthestSpawn bool

	VirusMassFrom float64
	VirusMassTo   float64
	VirusUniform  bool
}

// DefaultSettings mirrors the shipped server.toml.
func DefaultSettings() Settings {
	return Settings{
		Width:             5000,
		Height:            5000,
		DefaultPlayerMass: 10,
		FoodMass:          1,
		FireFood:          20,
		LimitSplit:        16,
		GameMass:          20000,
		MaxFood:           1000,
		MaxVirus:          50,
		SlowBase:          4.5,
		MergeTimer:        15 * time.Second,
		MassLossRate:      1,
		MinMassLoss:       50,
		FoodUniform:       true,
		FarthestSpawn:     true,
		VirusMassFrom:     100,
		VirusMassTo:       150,
		VirusUniform:      false,
	}
}

// InitMassLog is the log of the default mass in the slow-down base. Cells at
// the default mass move at full speed.
func (s Settings) InitMassLog() float64 {
	return geom.LogBase(s.DefaultPlayerMass, s.SlowBase)
}

// MassLossFunc returns how much mass one cell sheds on a balance tick given
// its own mass and its owner's total. Zero or less means none.
type MassLossFunc func(cellMass, massTotal float64) float64

// DefaultMassLoss sheds rate/1000 of a cell's mass while the cell would stay
// above defaultMass and the owner's total is above minMassLoss.
func DefaultMassLoss(rate, defaultMass, minMassLoss float64) MassLossFunc {
	return func(cellMass, massTotal float64) float64 {
		if cellMass*(1-rate/1000) > defaultMass && massTotal > minMassLoss {
			return cellMass * (rate / 1000)
		}
		return 0
	}
}
